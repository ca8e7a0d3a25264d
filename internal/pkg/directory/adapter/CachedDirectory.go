package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	cacheport "tradechat/internal/infrastructure/cache/port"
	"tradechat/internal/pkg/directory/port"
)

// CachedDirectory layers a TTL cache over another Directory. Cache failures
// fall through to the inner resolver; a broken cache never breaks lookups.
type CachedDirectory struct {
	inner port.Directory
	cache cacheport.Cache
	ttl   time.Duration
}

func NewCachedDirectory(inner port.Directory, cache cacheport.Cache, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedDirectory{inner: inner, cache: cache, ttl: ttl}
}

var _ port.Directory = (*CachedDirectory)(nil)

func (d *CachedDirectory) Resolve(ctx context.Context, userID string) (port.User, error) {
	key := "directory:user:" + userID

	if raw, err := d.cache.Get(ctx, key); err == nil {
		var u port.User
		if json.Unmarshal([]byte(raw), &u) == nil {
			return u, nil
		}
	} else if !errors.Is(err, cacheport.ErrMiss) {
		// transport error: skip the cache for this call
	}

	u, err := d.inner.Resolve(ctx, userID)
	if err != nil {
		return port.User{}, err
	}

	if raw, err := json.Marshal(u); err == nil {
		_ = d.cache.Set(ctx, key, string(raw), d.ttl)
	}
	return u, nil
}
