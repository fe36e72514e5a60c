package order

import "go.uber.org/fx"

// Module provides the order ledger repository to Fx.
var Module = fx.Provide(NewRepository)
