package models

import "time"

// Product represents a catalog item.
type Product struct {
	ID        int       `json:"id" db:"id"`
	SKU       string    `json:"sku" db:"sku"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	Price     float64   `json:"price" db:"price"`
	CostPrice float64   `json:"costPrice" db:"cost_price"`
	Stock     int       `json:"stock" db:"stock"`
	ImageURL  string    `json:"imageUrl,omitempty" db:"image_url"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
