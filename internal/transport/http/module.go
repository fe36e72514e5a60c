package http

import (
	"go.uber.org/fx"

	catalogtransport "github.com/inipunyacita/merthanaya-pos-sub001/internal/transport/http/catalog"
	inventorytransport "github.com/inipunyacita/merthanaya-pos-sub001/internal/transport/http/inventory"
	ordertransport "github.com/inipunyacita/merthanaya-pos-sub001/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	catalogtransport.Module,
	inventorytransport.Module,
)
