package port

import (
	"context"
	"errors"
)

// User holds the display attributes the chat core needs about an account.
// The marketplace's auth/profile service owns the rest.
type User struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// ErrUnknownUser signals that the id does not resolve to any account.
var ErrUnknownUser = errors.New("directory: unknown user")

// Directory resolves user ids to display attributes. Read-only.
type Directory interface {
	Resolve(ctx context.Context, userID string) (User, error)
}
