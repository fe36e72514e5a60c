package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// OrderStatus enumerates the order lifecycle states. PAID and CANCELLED are
// terminal; the only legal transitions are PENDING -> PAID and
// PENDING -> CANCELLED.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition is legal from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Order is a row in the order ledger. (Day, Seq) is unique; the ticket and
// invoice codes are derived from it and never stored. Total is computed once
// at creation from the item subtotals and is immutable afterwards.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID        string      `bun:",pk"`
	Day       time.Time   `bun:"day,type:date"`
	Seq       int         `bun:"seq"`
	Status    OrderStatus `bun:"status"`
	Total     int64       `bun:"total"`
	CreatedAt time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time   `bun:"updated_at,nullzero"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id"`
}

// OrderItem snapshots a product at the moment of purchase. ProductName and
// UnitPrice are copied from the catalog so later price changes never affect
// historical orders.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID          string  `bun:",pk"`
	OrderID     string  `bun:"order_id"`
	ProductID   string  `bun:"product_id"`
	ProductName string  `bun:"product_name"`
	UnitPrice   int64   `bun:"unit_price"`
	Quantity    float64 `bun:"quantity"`
	Subtotal    int64   `bun:"subtotal"`
}
