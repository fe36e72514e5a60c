package catalog

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/cache"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	catalogrepo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/catalog"
)

// Module provides the catalog service to Fx.
var Module = fx.Provide(
	func(store *catalogrepo.Repository, cacheStore cache.Store, cfg config.Config, logger *zap.Logger) *Service {
		return NewService(store, cacheStore, cfg, logger)
	},
)
