package dto

import "time"

// ProductRequest is the admin payload for catalog create/update. Stock is
// honored only at creation; afterwards it moves exclusively through inventory
// adjustments.
type ProductRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    int64   `json:"price"`
	Stock    float64 `json:"stock"`
	Unit     string  `json:"unit"`
	Barcode  *string `json:"barcode"`
}

// ProductResponse represents a catalog product as exposed via transport
// layers.
type ProductResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     int64     `json:"price"`
	Stock     float64   `json:"stock"`
	Unit      string    `json:"unit"`
	Barcode   *string   `json:"barcode,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
