package order

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/cache"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/messaging"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/notifier"
	catalogrepo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/catalog"
	orderrepo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/order"
)

// Module provides the order service to Fx, binding the concrete repositories
// to the service's narrow ports.
var Module = fx.Provide(
	func(store *orderrepo.Repository, catalog *catalogrepo.Repository, hub *notifier.Hub, publisher messaging.Client, cacheStore cache.Store, cfg config.Config, logger *zap.Logger) (*Service, error) {
		return NewService(store, catalog, hub, publisher, cacheStore, cfg, logger)
	},
)
