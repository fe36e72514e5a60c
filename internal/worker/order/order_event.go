package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/messaging"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/notifier"
	inventorysvc "github.com/inipunyacita/merthanaya-pos-sub001/internal/service/inventory"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/worker"
)

var workerTracer = otel.Tracer("github.com/inipunyacita/merthanaya-pos-sub001/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderEventHandler sets up a worker handler that rebroadcasts order
// lifecycle events into the local hub and raises low-stock alerts after
// each sale debit.
func NewOrderEventHandler(logger *zap.Logger, cfg config.Config, hub *notifier.Hub, inventory *inventorysvc.Service) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event notifier.OrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		hub.Publish(event)
		logger.Info("order event processed",
			zap.String("type", string(event.Type)),
			zap.String("order_id", event.OrderID),
			zap.String("ticket", event.TicketCode),
			zap.String("status", string(event.Status)),
			zap.Int64("total", event.Total),
		)

		// Stock only moves on creation and on cancellation, so those are
		// the moments worth re-checking thresholds.
		if event.Type != notifier.EventCreated {
			return nil
		}

		items, err := inventory.LowStock(ctx, 0)
		if err != nil {
			logger.Warn("low stock check failed", zap.Error(err))

			return nil
		}
		for _, item := range items {
			logger.Warn("product below stock threshold",
				zap.String("product_id", item.Product.ID),
				zap.String("name", item.Product.Name),
				zap.Float64("stock", item.Product.Stock),
				zap.Float64("threshold", item.Threshold),
			)
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
