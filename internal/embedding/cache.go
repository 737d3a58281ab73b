package embedding

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CachedClient memoizes embeddings per input text, bounded by maxItems with
// oldest-access eviction. Identical captions then cost one upstream call per
// process lifetime. Wiring it in is an explicit opt-in; the plain client
// performs a fresh call every time.
type CachedClient struct {
	inner    Embedder
	mu       sync.RWMutex
	items    map[string]cacheItem
	maxItems int
	hits     int
	misses   int
	logger   *logrus.Logger
}

type cacheItem struct {
	vector     []float32
	hits       int
	lastAccess time.Time
}

func NewCachedClient(inner Embedder, maxItems int, logger *logrus.Logger) *CachedClient {
	if maxItems < 1 {
		maxItems = 1
	}

	return &CachedClient{
		inner:    inner,
		items:    make(map[string]cacheItem),
		maxItems: maxItems,
		logger:   logger,
	}
}

func (c *CachedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	if item, exists := c.items[text]; exists {
		c.hits++
		item.hits++
		item.lastAccess = time.Now()
		c.items[text] = item
		c.mu.Unlock()

		c.logger.WithField("hit_rate", c.HitRate()).Debug("embedding cache hit")
		return item.vector, nil
	}
	c.misses++
	c.mu.Unlock()

	vector, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(c.items) >= c.maxItems {
		c.evictOldest()
	}
	c.items[text] = cacheItem{
		vector:     vector,
		lastAccess: time.Now(),
	}
	c.mu.Unlock()

	return vector, nil
}

// evictOldest removes the least recently used entry. Caller holds the lock.
func (c *CachedClient) evictOldest() {
	var oldestKey string
	var oldestAccess time.Time

	first := true
	for key, item := range c.items {
		if first || item.lastAccess.Before(oldestAccess) {
			oldestKey = key
			oldestAccess = item.lastAccess
			first = false
		}
	}

	delete(c.items, oldestKey)
}

func (c *CachedClient) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *CachedClient) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.hits+c.misses > 0 {
		return float64(c.hits) / float64(c.hits+c.misses)
	}
	return 0.0
}
