package dto

import "time"

// AdjustmentRequest is a manual stock correction.
type AdjustmentRequest struct {
	ProductID string  `json:"product_id"`
	Delta     float64 `json:"delta"`
	Note      *string `json:"note"`
}

// AdjustmentResponse reports the stock state around an applied delta.
type AdjustmentResponse struct {
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name"`
	PreviousStock float64 `json:"previous_stock"`
	NewStock      float64 `json:"new_stock"`
}

// LowStockResponse is one row of the low-stock alert listing.
type LowStockResponse struct {
	Product   ProductResponse `json:"product"`
	Stock     float64         `json:"stock"`
	Threshold float64         `json:"threshold"`
}

// MovementResponse is one audit row of the stock movement trail.
type MovementResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Delta     float64   `json:"delta"`
	Reason    string    `json:"reason"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
