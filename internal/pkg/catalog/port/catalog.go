package port

import (
	"context"
	"errors"
)

// Product carries the display metadata a conversation borrows from the
// listing that prompted it. Nothing here is persisted into the conversation.
type Product struct {
	ID       string `json:"id"`
	SellerID string `json:"seller_id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
}

// ErrProductNotFound signals an unknown or removed listing.
var ErrProductNotFound = errors.New("catalog: product not found")

// Catalog is the read-only view into the marketplace's product listings.
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}
