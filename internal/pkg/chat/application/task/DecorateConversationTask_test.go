package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheport "tradechat/internal/infrastructure/cache/port"
	qport "tradechat/internal/infrastructure/queue/port"
	catalogport "tradechat/internal/pkg/catalog/port"
	"tradechat/internal/pkg/chat/application/usecase"
)

// captureServer records registered handlers so tests can invoke them inline.
type captureServer struct {
	handlers map[string]qport.Handler
}

func (s *captureServer) Register(taskType string, h qport.Handler) {
	if s.handlers == nil {
		s.handlers = make(map[string]qport.Handler)
	}
	s.handlers[taskType] = h
}

func (s *captureServer) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type mapCatalog map[string]catalogport.Product

func (c mapCatalog) GetProduct(_ context.Context, id string) (catalogport.Product, error) {
	p, ok := c[id]
	if !ok {
		return catalogport.Product{}, catalogport.ErrProductNotFound
	}
	return p, nil
}

type errorCatalog struct{}

func (errorCatalog) GetProduct(context.Context, string) (catalogport.Product, error) {
	return catalogport.Product{}, errors.New("catalog down")
}

type mapCache struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

var _ cacheport.Cache = (*mapCache)(nil)

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) (int64, error) {
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

func (c *mapCache) Ping(context.Context) error { return nil }
func (c *mapCache) Close() error               { return nil }

func runTask(t *testing.T, srv *captureServer, payload any) error {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	h := srv.handlers[DecorateConversationTaskType]
	require.NotNil(t, h)
	return h(context.Background(), qport.Task{Type: DecorateConversationTaskType, Payload: raw})
}

func TestDecorateConversationStoresProductContext(t *testing.T) {
	srv := &captureServer{}
	cache := newMapCache()
	catalog := mapCatalog{"p1": {ID: "p1", SellerID: "seller", Title: "Vintage lamp", Price: 4500}}
	RegisterDecorateConversationTask(srv, catalog, cache, nil)

	err := runTask(t, srv, DecorateConversationPayload{ConversationID: "c1", ProductID: "p1"})
	require.NoError(t, err)

	raw, err := cache.Get(context.Background(), usecase.ConversationContextKey("c1"))
	require.NoError(t, err)

	var pc usecase.ProductContext
	require.NoError(t, json.Unmarshal([]byte(raw), &pc))
	assert.Equal(t, "p1", pc.ProductID)
	assert.Equal(t, "Vintage lamp", pc.Title)
	assert.Equal(t, int64(4500), pc.Price)
	assert.Equal(t, decorationTTL, cache.ttls[usecase.ConversationContextKey("c1")])
}

func TestDecorateConversationProductGoneIsNotRetried(t *testing.T) {
	srv := &captureServer{}
	cache := newMapCache()
	RegisterDecorateConversationTask(srv, mapCatalog{}, cache, nil)

	err := runTask(t, srv, DecorateConversationPayload{ConversationID: "c1", ProductID: "gone"})
	assert.NoError(t, err)
	assert.Empty(t, cache.values)
}

func TestDecorateConversationCatalogFailureIsRetried(t *testing.T) {
	srv := &captureServer{}
	RegisterDecorateConversationTask(srv, errorCatalog{}, newMapCache(), nil)

	err := runTask(t, srv, DecorateConversationPayload{ConversationID: "c1", ProductID: "p1"})
	assert.Error(t, err)
}

func TestDecorateConversationDropsMalformedPayload(t *testing.T) {
	srv := &captureServer{}
	cache := newMapCache()
	RegisterDecorateConversationTask(srv, mapCatalog{}, cache, nil)

	h := srv.handlers[DecorateConversationTaskType]
	require.NotNil(t, h)
	assert.NoError(t, h(context.Background(), qport.Task{Type: DecorateConversationTaskType, Payload: []byte("{not json")}))

	// missing fields are dropped too
	assert.NoError(t, runTask(t, srv, DecorateConversationPayload{ConversationID: "c1"}))
	assert.Empty(t, cache.values)
}
