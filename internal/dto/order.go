package dto

import "time"

// CartLineRequest is one line of a submitted cart.
type CartLineRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

// CreateOrderRequest is the runner surface's cart submission.
type CreateOrderRequest struct {
	Items []CartLineRequest `json:"items"`
}

// OrderItemResponse is a purchased line with its price snapshot.
type OrderItemResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   int64   `json:"unit_price"`
	Quantity    float64 `json:"quantity"`
	Subtotal    int64   `json:"subtotal"`
}

// OrderResponse represents an order as exposed via transport layers. Ticket
// and invoice codes are derived from (day, seq) on the way out.
type OrderResponse struct {
	ID          string              `json:"id"`
	Day         string              `json:"day"`
	Seq         int                 `json:"seq"`
	TicketCode  string              `json:"ticket_code"`
	InvoiceCode string              `json:"invoice_code"`
	Status      string              `json:"status"`
	Total       int64               `json:"total"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
