// Package dedupe tracks which teams have already been claimed for metric
// computation, so each team's metrics are computed and written once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/miya/internal/domain/teamname"
)

// Deduper records claimed team identifiers.
type Deduper interface {
	// SeenAndRecord atomically checks if id was already claimed and claims it
	// if not. Returns true when id had been claimed before.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord releases a claim, e.g. when the job could not be enqueued.
	Unrecord(ctx context.Context, id string)

	// Claimed returns the claimed keys in claim order.
	Claimed() []string

	Size() int64
}

// inMemoryDeduper keeps claims in a map plus an insertion-ordered list.
// With maxSize > 0 the oldest claim is evicted when the set is full.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
	keyFn   func(string) string
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 0,
		keyFn:   teamname.Key,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	key := d.keyFn(id)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushBack(key)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	key := d.keyFn(id)

	d.mu.Lock()
	defer d.mu.Unlock()

	if el, exists := d.seen[key]; exists {
		d.order.Remove(el)
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.seen, front.Value.(string))
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Claimed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, 0, d.order.Len())
	for el := d.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(string))
	}
	return out
}

// Size returns the current number of claims.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
