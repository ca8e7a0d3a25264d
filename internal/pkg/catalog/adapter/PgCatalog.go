package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradechat/internal/pkg/catalog/port"
)

// PgCatalog reads product listings from the marketplace's products table.
type PgCatalog struct {
	pool *pgxpool.Pool
}

func NewPgCatalog(pool *pgxpool.Pool) *PgCatalog {
	return &PgCatalog{pool: pool}
}

var _ port.Catalog = (*PgCatalog)(nil)

func (c *PgCatalog) GetProduct(ctx context.Context, productID string) (port.Product, error) {
	if c == nil || c.pool == nil {
		return port.Product{}, errors.New("PgCatalog: nil pool")
	}
	var p port.Product
	err := c.pool.QueryRow(ctx,
		"SELECT id::text, seller_id::text, title, price FROM products WHERE id = $1::uuid",
		productID,
	).Scan(&p.ID, &p.SellerID, &p.Title, &p.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return port.Product{}, port.ErrProductNotFound
	}
	if err != nil {
		return port.Product{}, err
	}
	return p, nil
}
