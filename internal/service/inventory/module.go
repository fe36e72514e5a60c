package inventory

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	inventoryrepo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/inventory"
)

// Module provides the inventory service to Fx.
var Module = fx.Provide(
	func(adjuster *inventoryrepo.Adjuster, cfg config.Config, logger *zap.Logger) *Service {
		return NewService(adjuster, cfg, logger)
	},
)
