package inventory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/database"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
)

var adjusterTracer = otel.Tracer("github.com/inipunyacita/merthanaya-pos-sub001/repository/inventory")

// ErrNotFound is returned when the targeted product does not exist, or is
// inactive for a reason that requires an active product.
var ErrNotFound = errors.New("product not found")

// Adjustment reports the stock state around a single applied delta.
type Adjustment struct {
	ProductID     string
	ProductName   string
	PreviousStock float64
	NewStock      float64
}

// Adjuster is the single writer of product stock. Every change is a relative
// delta applied in SQL (never read-modify-write) with an audit row in the same
// transaction, so concurrent deltas for one product serialize on the row lock
// and none is lost. Negative stock is allowed; oversell surfaces through the
// low-stock listing instead of being rejected.
type Adjuster struct {
	writer *bun.DB
	reader *bun.DB
}

// NewAdjuster wires the adjuster to the configured connections.
func NewAdjuster(conns *database.Connections) *Adjuster {
	return &Adjuster{writer: conns.Writer, reader: conns.Reader}
}

// ApplyDelta applies one signed stock delta in its own transaction and returns
// the surrounding stock values together with the product's display name.
func (a *Adjuster) ApplyDelta(ctx context.Context, productID string, delta float64, reason entity.MovementReason, note *string) (Adjustment, error) {
	ctx, span := adjusterTracer.Start(ctx, "InventoryAdjuster.ApplyDelta", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Float64("delta", delta),
		attribute.String("reason", string(reason)),
	))
	defer span.End()

	var adj Adjustment
	err := a.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		adj, txErr = a.ApplyDeltaTx(ctx, tx, productID, delta, reason, note)
		return txErr
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delta failed")
	}
	return adj, err
}

// ApplyDeltaTx applies a delta inside a caller-owned transaction; the order
// ledger uses it so stock changes commit or roll back together with the order
// row. Sale debits require an active product (a concurrently deactivated
// product rejects the whole creation); cancellation credits and manual
// corrections apply regardless of the active flag.
func (a *Adjuster) ApplyDeltaTx(ctx context.Context, idb bun.IDB, productID string, delta float64, reason entity.MovementReason, note *string) (Adjustment, error) {
	query := `UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ? RETURNING name, stock`
	if reason == entity.ReasonSale {
		query = `UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ? AND active = TRUE RETURNING name, stock`
	}

	var name string
	var newStock float64
	err := idb.NewRaw(query, delta, time.Now().UTC(), productID).Scan(ctx, &name, &newStock)
	if errors.Is(err, sql.ErrNoRows) {
		return Adjustment{}, ErrNotFound
	}
	if err != nil {
		return Adjustment{}, err
	}

	movement := &entity.StockMovement{
		ID:        uuid.NewString(),
		ProductID: productID,
		Delta:     delta,
		Reason:    reason,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := idb.NewInsert().Model(movement).Exec(ctx); err != nil {
		return Adjustment{}, err
	}

	return Adjustment{
		ProductID:     productID,
		ProductName:   name,
		PreviousStock: newStock - delta,
		NewStock:      newStock,
	}, nil
}

// ListBelowThreshold returns every active product at or below the threshold,
// including zero and negative stock. It is a snapshot read outside any
// transaction.
func (a *Adjuster) ListBelowThreshold(ctx context.Context, threshold float64) ([]*entity.Product, error) {
	ctx, span := adjusterTracer.Start(ctx, "InventoryAdjuster.ListBelowThreshold", trace.WithAttributes(
		attribute.Float64("threshold", threshold),
	))
	defer span.End()

	var products []*entity.Product
	err := a.reader.NewSelect().
		Model(&products).
		Where("active = TRUE").
		Where("stock <= ?", threshold).
		Order("stock ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return products, nil
}

// ListMovements returns the most recent audit rows, optionally scoped to one
// product.
func (a *Adjuster) ListMovements(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error) {
	ctx, span := adjusterTracer.Start(ctx, "InventoryAdjuster.ListMovements")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	var movements []*entity.StockMovement
	q := a.reader.NewSelect().
		Model(&movements).
		Order("created_at DESC").
		Limit(limit)
	if productID != "" {
		q = q.Where("product_id = ?", productID)
	}

	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return movements, nil
}
