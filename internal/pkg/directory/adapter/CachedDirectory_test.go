package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheport "tradechat/internal/infrastructure/cache/port"
	"tradechat/internal/pkg/directory/port"
)

type countingDirectory struct {
	mu    sync.Mutex
	calls int
	users map[string]port.User
}

func (d *countingDirectory) Resolve(_ context.Context, userID string) (port.User, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	u, ok := d.users[userID]
	if !ok {
		return port.User{}, port.ErrUnknownUser
	}
	return u, nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
	broken bool
}

func newFakeCache() *fakeCache { return &fakeCache{values: make(map[string]string)} }

var _ cacheport.Cache = (*fakeCache)(nil)

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return "", errors.New("cache down")
	}
	v, ok := c.values[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return errors.New("cache down")
	}
	c.values[key] = value
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) (int64, error) { return 0, nil }
func (c *fakeCache) Ping(context.Context) error                           { return nil }
func (c *fakeCache) Close() error                                         { return nil }

func TestCachedDirectorySecondLookupHitsCache(t *testing.T) {
	inner := &countingDirectory{users: map[string]port.User{
		"u1": {ID: "u1", Nickname: "alice"},
	}}
	dir := NewCachedDirectory(inner, newFakeCache(), time.Minute)
	ctx := context.Background()

	u, err := dir.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Nickname)

	u, err = dir.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Nickname)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedDirectoryUnknownUserNotCached(t *testing.T) {
	inner := &countingDirectory{users: map[string]port.User{}}
	dir := NewCachedDirectory(inner, newFakeCache(), time.Minute)

	for i := 0; i < 2; i++ {
		_, err := dir.Resolve(context.Background(), "ghost")
		assert.ErrorIs(t, err, port.ErrUnknownUser)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestCachedDirectoryBrokenCacheFallsThrough(t *testing.T) {
	inner := &countingDirectory{users: map[string]port.User{
		"u1": {ID: "u1", Nickname: "alice"},
	}}
	cache := newFakeCache()
	cache.broken = true
	dir := NewCachedDirectory(inner, cache, time.Minute)

	u, err := dir.Resolve(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Nickname)
}
