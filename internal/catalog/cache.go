package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/logging"
)

// Cache loads the document once and serves the same tree until Reload.
type Cache struct {
	mu      sync.Mutex
	src     string
	fetcher Fetcher
	logger  *zap.Logger
	tree    domain.Tree
	loaded  bool
}

// NewCache returns a cache for src. Nothing is read until the first Tree call.
func NewCache(src string, f Fetcher, logger *zap.Logger) *Cache {
	return &Cache{src: src, fetcher: f, logger: logging.OrNop(logger)}
}

// Source returns the document location.
func (c *Cache) Source() string { return c.src }

// Tree returns the cached tree, loading it on first use.
func (c *Cache) Tree(ctx context.Context) domain.Tree {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.tree = Load(ctx, c.src, c.fetcher, c.logger)
		c.loaded = true
	}
	return c.tree
}

// Reload reads the document again. When the read fails and a tree was
// already loaded, the previous tree is kept.
func (c *Cache) Reload(ctx context.Context) domain.Tree {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.tree = Load(ctx, c.src, c.fetcher, c.logger)
		c.loaded = true
		return c.tree
	}
	tree, warnings, err := Read(ctx, c.src, c.fetcher)
	if err != nil {
		c.logger.Warn("catalog reload failed, keeping previous tree", zap.String("source", c.src), zap.Error(err))
		return c.tree
	}
	logSkipped(c.logger, c.src, warnings)
	c.tree = tree
	return c.tree
}
