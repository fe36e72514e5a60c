package app

import (
	"go.uber.org/fx"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/cache"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/database"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/logger"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/messaging"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/notifier"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/observability"
	repositorycatalog "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/catalog"
	repositoryinventory "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/inventory"
	repositoryorder "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/order"
	repositorysequence "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/sequence"
	httpserver "github.com/inipunyacita/merthanaya-pos-sub001/internal/server/http"
	servicecatalog "github.com/inipunyacita/merthanaya-pos-sub001/internal/service/catalog"
	serviceinventory "github.com/inipunyacita/merthanaya-pos-sub001/internal/service/inventory"
	serviceorder "github.com/inipunyacita/merthanaya-pos-sub001/internal/service/order"
	transporthttp "github.com/inipunyacita/merthanaya-pos-sub001/internal/transport/http"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/worker"
	workerorder "github.com/inipunyacita/merthanaya-pos-sub001/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	notifier.Module,
	observability.Module,
	repositorysequence.Module,
	repositorycatalog.Module,
	repositoryinventory.Module,
	repositoryorder.Module,
	servicecatalog.Module,
	serviceinventory.Module,
	serviceorder.Module,
)

// HTTP wires the HTTP transport on top of the core modules. The worker
// engine runs here too: order events travel through the bus, and every
// serving instance must consume them to feed its own event stream
// subscribers.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
	worker.Module,
	workerorder.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
