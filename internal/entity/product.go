package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Unit describes how a product is measured at the register.
type Unit string

const (
	// UnitItem is sold in discrete countable pieces.
	UnitItem Unit = "item"
	// UnitWeight is sold by continuous weight; quantities may be fractional.
	UnitWeight Unit = "weight"
)

// Product is a catalog entry. Stock is mutated only through relative deltas
// recorded as StockMovement rows; products referenced by historical orders are
// soft-deleted via Active rather than removed.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID        string    `bun:",pk"`
	Name      string    `bun:"name"`
	Category  string    `bun:"category"`
	Price     int64     `bun:"price"`
	Stock     float64   `bun:"stock"`
	Unit      Unit      `bun:"unit"`
	Barcode   *string   `bun:"barcode,nullzero"`
	Active    bool      `bun:"active"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
