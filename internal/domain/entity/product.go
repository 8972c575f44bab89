package entity

import "time"

// Product carries just the fields the client renders; the catalog is
// owned by the backend.
type Product struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shop_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Image     string    `json:"image,omitempty"`
	Category  string    `json:"category,omitempty"`
	Brand     string    `json:"brand,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type WishlistItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}
