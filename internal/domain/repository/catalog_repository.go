package repository

import (
	"context"

	"shoplink/internal/domain/entity"
)

// CatalogService is the thin product/wishlist surface of the backend.
// These endpoints carry no client-side logic beyond request mapping.
type CatalogService interface {
	ListProducts(ctx context.Context, category string) ([]entity.Product, error)
	ToggleWishlist(ctx context.Context, productID string) (*entity.WishlistItem, error)
}
