// Package pagecache keeps rendered pages in memory and regenerates them on
// the first request after they outlive the revalidation interval.
package pagecache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"
)

// ErrNoPage is returned by a Generator when the page no longer exists.
// Such results are never cached and drop any stale copy.
var ErrNoPage = errors.New("page does not exist")

const DefaultMaxCost = 64 << 20

// Page is a rendered page body and its metadata.
type Page struct {
	Body        []byte
	ETag        string
	GeneratedAt time.Time
}

// Generator renders the page stored under key.
type Generator func(ctx context.Context, key string) ([]byte, error)

type Cache struct {
	pages    *ristretto.Cache[string, *Page]
	group    singleflight.Group
	generate Generator
	interval time.Duration
	now      func() time.Time
}

type Option func(*Cache)

// WithClock replaces the time source used to age pages.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache that regenerates pages older than interval.
func New(generate Generator, interval time.Duration, opts ...Option) (*Cache, error) {
	if generate == nil {
		return nil, errors.New("pagecache: nil generator")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("pagecache: invalid revalidation interval %v", interval)
	}

	pages, err := ristretto.NewCache(&ristretto.Config[string, *Page]{
		NumCounters: 1e4,
		MaxCost:     DefaultMaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("pagecache: %w", err)
	}

	c := &Cache{
		pages:    pages,
		generate: generate,
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Interval returns the revalidation interval.
func (c *Cache) Interval() time.Duration {
	return c.interval
}

// Get returns the page for key. Missing pages are generated on demand and
// pages older than the interval are regenerated first. When regeneration
// fails a stale page is served instead, unless the page is gone.
func (c *Cache) Get(ctx context.Context, key string) (*Page, error) {
	cached, ok := c.pages.Get(key)
	if ok && c.now().Sub(cached.GeneratedAt) < c.interval {
		return cached, nil
	}

	page, err := c.regenerate(ctx, key)
	switch {
	case err == nil:
		return page, nil
	case errors.Is(err, ErrNoPage):
		if ok {
			c.Invalidate(key)
		}
		return nil, err
	case ok:
		log.Warnf("[pagecache] regenerating %s failed, serving page from %s: %v",
			key, cached.GeneratedAt.Format(time.RFC3339), err)
		return cached, nil
	default:
		return nil, err
	}
}

// Prime generates and stores the page for key regardless of its age.
func (c *Cache) Prime(ctx context.Context, key string) error {
	_, err := c.regenerate(ctx, key)
	return err
}

// Invalidate drops the page stored under key.
func (c *Cache) Invalidate(key string) {
	c.pages.Del(key)
	c.pages.Wait()
}

func (c *Cache) Close() {
	c.pages.Close()
}

// regenerate renders key once no matter how many callers ask concurrently.
// The render is detached from the first caller's cancellation since every
// waiter shares its result.
func (c *Cache) regenerate(ctx context.Context, key string) (*Page, error) {
	v, err, shared := c.group.Do(key, func() (any, error) {
		body, err := c.generate(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}

		page := &Page{
			Body:        body,
			ETag:        Digest(body),
			GeneratedAt: c.now(),
		}
		if !c.pages.Set(key, page, int64(len(body))) {
			log.Debugf("[pagecache] page %s was not admitted", key)
		}
		c.pages.Wait()
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debugf("[pagecache] shared regeneration of %s", key)
	}
	return v.(*Page), nil
}

// Digest returns a strong ETag for body.
func Digest(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
