package inventory

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
	repo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/inventory"
	"github.com/inipunyacita/merthanaya-pos-sub001/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/inipunyacita/merthanaya-pos-sub001/service/inventory")

// Adjuster is the stock persistence consumed by the service.
type Adjuster interface {
	ApplyDelta(ctx context.Context, productID string, delta float64, reason entity.MovementReason, note *string) (repo.Adjustment, error)
	ListBelowThreshold(ctx context.Context, threshold float64) ([]*entity.Product, error)
	ListMovements(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error)
}

// LowStockItem pairs a product with the threshold it undercut.
type LowStockItem struct {
	Product   *entity.Product
	Threshold float64
}

// Service exposes back-office stock operations: manual corrections with an
// audit note and the low-stock alert listing.
type Service struct {
	adjuster         Adjuster
	defaultThreshold float64
	logger           *zap.Logger
}

// NewService wires a new Service instance.
func NewService(adjuster Adjuster, cfg config.Config, logger *zap.Logger) *Service {
	return &Service{
		adjuster:         adjuster,
		defaultThreshold: cfg.App.LowStockThreshold,
		logger:           logger,
	}
}

// Adjust applies a manual signed correction. Zero deltas are rejected;
// negative resulting stock is allowed and reported back, not blocked.
func (s *Service) Adjust(ctx context.Context, productID string, delta float64, note *string) (repo.Adjustment, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.Adjust", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Float64("delta", delta),
	))
	defer span.End()

	if productID == "" {
		return repo.Adjustment{}, errorbank.BadRequest("product id is required")
	}
	if delta == 0 {
		return repo.Adjustment{}, errorbank.BadRequest("delta must not be zero")
	}

	adj, err := s.adjuster.ApplyDelta(ctx, productID, delta, entity.ReasonManual, note)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Adjustment{}, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "delta failed")
		return repo.Adjustment{}, errorbank.Unavailable("stock adjustment failed", errorbank.WithCause(err))
	}

	s.logger.Info("manual stock adjustment applied",
		zap.String("product_id", adj.ProductID),
		zap.Float64("delta", delta),
		zap.Float64("new_stock", adj.NewStock),
	)
	return adj, nil
}

// LowStock returns every active product at or below the threshold; zero or a
// negative threshold falls back to the configured default.
func (s *Service) LowStock(ctx context.Context, threshold float64) ([]LowStockItem, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.LowStock")
	defer span.End()

	if threshold <= 0 {
		threshold = s.defaultThreshold
	}

	products, err := s.adjuster.ListBelowThreshold(ctx, threshold)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list low stock products", errorbank.WithCause(err))
	}

	items := make([]LowStockItem, 0, len(products))
	for _, p := range products {
		items = append(items, LowStockItem{Product: p, Threshold: threshold})
	}
	return items, nil
}

// Movements returns the recent audit trail, optionally scoped to a product.
func (s *Service) Movements(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.Movements")
	defer span.End()

	movements, err := s.adjuster.ListMovements(ctx, productID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list stock movements", errorbank.WithCause(err))
	}
	return movements, nil
}
