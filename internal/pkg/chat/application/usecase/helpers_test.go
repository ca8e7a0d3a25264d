package usecase

import (
	"context"
	"sync"
	"time"

	cacheport "tradechat/internal/infrastructure/cache/port"
	catalogport "tradechat/internal/pkg/catalog/port"
	chat "tradechat/internal/pkg/chat/application/domain"
	"tradechat/internal/pkg/chat/persistence/repository/adapter"
	repository "tradechat/internal/pkg/chat/persistence/repository/port"
	directoryport "tradechat/internal/pkg/directory/port"
)

// fakeDirectory resolves only the users it was seeded with.
type fakeDirectory struct {
	users map[string]directoryport.User
}

func newFakeDirectory(ids ...string) *fakeDirectory {
	d := &fakeDirectory{users: make(map[string]directoryport.User)}
	for _, id := range ids {
		d.users[id] = directoryport.User{ID: id, Nickname: "nick-" + id, Email: id + "@example.com"}
	}
	return d
}

func (d *fakeDirectory) Resolve(ctx context.Context, userID string) (directoryport.User, error) {
	u, ok := d.users[userID]
	if !ok {
		return directoryport.User{}, directoryport.ErrUnknownUser
	}
	return u, nil
}

// fakeCatalog serves a fixed set of products.
type fakeCatalog struct {
	products map[string]catalogport.Product
}

func newFakeCatalog(products ...catalogport.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[string]catalogport.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) GetProduct(ctx context.Context, productID string) (catalogport.Product, error) {
	p, ok := c.products[productID]
	if !ok {
		return catalogport.Product{}, catalogport.ErrProductNotFound
	}
	return p, nil
}

// fakePublisher records published messages in order.
type fakePublisher struct {
	mu        sync.Mutex
	published []chat.Message
	excluded  []string
}

func (p *fakePublisher) PublishMessage(m chat.Message, excludeSessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, m)
	p.excluded = append(p.excluded, excludeSessionID)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

// flakyRepo delegates to a real repository but fails the first failures
// appends with a transient error.
type flakyRepo struct {
	repository.ChatRepository
	mu       sync.Mutex
	failures int
	attempts int
}

func (r *flakyRepo) AppendMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	r.mu.Lock()
	r.attempts++
	fail := r.failures > 0
	if fail {
		r.failures--
	}
	r.mu.Unlock()
	if fail {
		return chat.Message{}, repository.ErrTransient
	}
	return r.ChatRepository.AppendMessage(ctx, m)
}

// memCache is a map-backed cache for exercising the product context path.
type memCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]string)}
}

var _ cacheport.Cache = (*memCache)(nil)

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.values[k]; ok {
			delete(c.values, k)
			n++
		}
	}
	return n, nil
}

func (c *memCache) Ping(ctx context.Context) error { return nil }
func (c *memCache) Close() error                   { return nil }

func newTestRepo() *adapter.MemChatRepository { return adapter.NewMemChatRepository() }
