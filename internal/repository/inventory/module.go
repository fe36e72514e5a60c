package inventory

import "go.uber.org/fx"

// Module provides the inventory adjuster to Fx.
var Module = fx.Provide(NewAdjuster)
