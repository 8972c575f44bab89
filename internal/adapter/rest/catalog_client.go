package rest

import (
	"context"
	"net/url"

	"shoplink/internal/domain/entity"
)

// CatalogClient implements repository.CatalogService. Pure request
// mapping; the catalog carries no client-side logic.
type CatalogClient struct {
	*Client
}

func NewCatalogClient(base *Client) *CatalogClient {
	return &CatalogClient{Client: base}
}

func (c *CatalogClient) ListProducts(ctx context.Context, category string) ([]entity.Product, error) {
	path := "/product"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var products []entity.Product
	if err := c.get(ctx, path, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *CatalogClient) ToggleWishlist(ctx context.Context, productID string) (*entity.WishlistItem, error) {
	body := struct {
		ProductID string `json:"productId"`
	}{ProductID: productID}

	var item entity.WishlistItem
	if err := c.postJSON(ctx, "/wishlist", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
