package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradechat/internal/pkg/directory/port"
)

// PgDirectory resolves users from the marketplace's users table.
type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

var _ port.Directory = (*PgDirectory)(nil)

func (d *PgDirectory) Resolve(ctx context.Context, userID string) (port.User, error) {
	if d == nil || d.pool == nil {
		return port.User{}, errors.New("PgDirectory: nil pool")
	}
	var u port.User
	err := d.pool.QueryRow(ctx,
		"SELECT id::text, nickname, email FROM users WHERE id = $1::uuid",
		userID,
	).Scan(&u.ID, &u.Nickname, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return port.User{}, port.ErrUnknownUser
	}
	if err != nil {
		return port.User{}, err
	}
	return u, nil
}
