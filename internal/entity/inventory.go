package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// MovementReason classifies a stock delta.
type MovementReason string

const (
	// ReasonSale is the debit applied when an order is created.
	ReasonSale MovementReason = "sale"
	// ReasonCancellation is the credit applied when an order is cancelled.
	ReasonCancellation MovementReason = "cancellation"
	// ReasonManual is a back-office correction.
	ReasonManual MovementReason = "manual"
)

// StockMovement is the audit record written for every stock delta. Deltas are
// signed: sales are negative, cancellation credits positive.
type StockMovement struct {
	bun.BaseModel `bun:"table:stock_movements,alias:sm"`

	ID        string         `bun:",pk"`
	ProductID string         `bun:"product_id"`
	Delta     float64        `bun:"delta"`
	Reason    MovementReason `bun:"reason"`
	Note      *string        `bun:"note,nullzero"`
	CreatedAt time.Time      `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// DailySequence is the durable per-day ticket counter. LastValue is advanced
// with an upsert-increment inside the order-create transaction, so a rolled
// back creation never consumes a number and concurrent creations cannot
// observe the same value.
type DailySequence struct {
	bun.BaseModel `bun:"table:daily_sequences,alias:ds"`

	Day       time.Time `bun:"day,pk,type:date"`
	LastValue int       `bun:"last_value"`
}
