package market

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

// 共享查询的超时上限
const sharedLookupTimeout = 30 * time.Second

type cacheEntry struct {
	facts []model.MarketFact
	found bool
	ts    time.Time
}

type orderEntry struct {
	key string
	ts  time.Time
}

// CachedSource 在数据源前加一层 TTL 缓存，容量满时淘汰最早写入的条目。
// “没有数据”的结果也会被缓存，错误不缓存。并发查询同一标的只会打到数据源一次，
// 共享的那次查询不跟随任何调用方的取消，每个调用方只等待到自己的 ctx 结束。
type CachedSource struct {
	next    Source
	timeout time.Duration

	mu       sync.Mutex
	items    map[string]cacheEntry
	order    []orderEntry
	capacity int
	ttl      time.Duration
	now      func() time.Time

	group singleflight.Group
}

// NewCachedSource 创建缓存数据源
func NewCachedSource(next Source, capacity int, ttl time.Duration) *CachedSource {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSource{
		next:     next,
		items:    make(map[string]cacheEntry, capacity),
		order:    make([]orderEntry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		timeout:  sharedLookupTimeout,
		now:      time.Now,
	}
}

var _ Source = (*CachedSource)(nil)

func (c *CachedSource) Name() string { return c.next.Name() }

func (c *CachedSource) Lookup(ctx context.Context, instrument string) ([]model.MarketFact, bool, error) {
	if e, ok := c.get(instrument); ok {
		return e.facts, e.found, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(instrument, func() (any, error) {
		lctx, cancel := context.WithTimeout(shared, c.timeout)
		defer cancel()

		facts, found, err := c.next.Lookup(lctx, instrument)
		if err != nil {
			return nil, err
		}
		e := cacheEntry{facts: facts, found: found}
		c.put(instrument, e)
		return e, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		e := r.Val.(cacheEntry)
		return e.facts, e.found, nil
	}
}

func (c *CachedSource) get(key string) (cacheEntry, bool) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok || now.Sub(e.ts) > c.ttl {
		return cacheEntry{}, false
	}
	return e, true
}

func (c *CachedSource) put(key string, e cacheEntry) {
	now := c.now()
	e.ts = now

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = e
	c.order = append(c.order, orderEntry{key: key, ts: now})
	c.compact(now)
}

func (c *CachedSource) compact(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.items) > c.capacity || c.order[0].ts.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		if e, ok := c.items[oldest.key]; ok && e.ts.Equal(oldest.ts) {
			delete(c.items, oldest.key)
		}
	}
}

// Len 当前缓存条目数
func (c *CachedSource) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
