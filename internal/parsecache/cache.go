// Package parsecache memoizes parse results keyed by a hash of the source
// text, so identical text is parsed once no matter how many files carry it.
package parsecache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"

	"github.com/pxp-lang/pxp-sub001/internal/metrics"
	"github.com/pxp-lang/pxp-sub001/internal/syntax"
)

// DefaultMaxEntries bounds the cache when the caller does not choose.
const DefaultMaxEntries = 4096

// Key is the content hash of a source text.
type Key = xxh3.Uint128

// KeyOf returns the cache key for src.
func KeyOf(src []byte) Key {
	return xxh3.Hash128(src)
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// Cache wraps a Parser. It is safe for concurrent use; concurrent requests
// for the same text share one parse.
type Cache struct {
	parser syntax.Parser

	// Exactly one of bounded/unbounded is set.
	bounded   *lru.Cache[Key, *syntax.Tree]
	unbounded map[Key]*syntax.Tree

	mu       sync.Mutex
	inflight map[Key]*call
	stats    Stats
}

type call struct {
	done chan struct{}
	tree *syntax.Tree
	err  error
}

// New returns a Cache in front of parser holding at most maxEntries trees,
// evicting the least recently used. maxEntries <= 0 disables eviction.
func New(parser syntax.Parser, maxEntries int) (*Cache, error) {
	c := &Cache{
		parser:   parser,
		inflight: make(map[Key]*call),
	}
	if maxEntries <= 0 {
		c.unbounded = make(map[Key]*syntax.Tree)
		return c, nil
	}
	cache, err := lru.NewWithEvict[Key, *syntax.Tree](maxEntries, func(Key, *syntax.Tree) {
		// Runs under c.mu: the LRU is only mutated from Parse.
		c.stats.Evictions++
		metrics.ParseCacheEvictions.Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("parsecache: create lru: %w", err)
	}
	c.bounded = cache
	return c, nil
}

// Parse returns the tree for src, invoking the underlying parser only when
// no tree for identical text is cached. A caller waiting on a parse that
// another caller's context cancelled parses again under its own context.
func (c *Cache) Parse(ctx context.Context, src []byte) (*syntax.Tree, error) {
	key := KeyOf(src)
	for {
		c.mu.Lock()
		if tree, ok := c.get(key); ok {
			c.stats.Hits++
			c.mu.Unlock()
			metrics.ParseCacheHits.Inc()
			return tree, nil
		}
		cl, ok := c.inflight[key]
		if !ok {
			break
		}
		c.stats.Hits++
		c.mu.Unlock()
		metrics.ParseCacheHits.Inc()
		select {
		case <-cl.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if isContextErr(cl.err) && ctx.Err() == nil {
			continue
		}
		return cl.tree, cl.err
	}

	// c.mu is held.
	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.stats.Misses++
	c.mu.Unlock()
	metrics.ParseCacheMisses.Inc()

	cl.tree, cl.err = c.parser.Parse(ctx, src)

	c.mu.Lock()
	delete(c.inflight, key)
	if cl.err == nil {
		c.add(key, cl.tree)
	}
	c.mu.Unlock()
	close(cl.done)

	return cl.tree, cl.err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Cache) get(key Key) (*syntax.Tree, bool) {
	if c.bounded != nil {
		return c.bounded.Get(key)
	}
	tree, ok := c.unbounded[key]
	return tree, ok
}

func (c *Cache) add(key Key, tree *syntax.Tree) {
	if c.bounded != nil {
		c.bounded.Add(key, tree)
		return
	}
	c.unbounded[key] = tree
}

// Len returns the number of cached trees.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.len()
}

func (c *Cache) len() int {
	if c.bounded != nil {
		return c.bounded.Len()
	}
	return len(c.unbounded)
}

// Stats returns a snapshot of hit, miss and eviction counts.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.len()
	return s
}

// Purge drops every cached tree.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bounded != nil {
		c.bounded.Purge()
		return
	}
	c.unbounded = make(map[Key]*syntax.Tree)
}
