package kafka

import (
	"sync"
	"time"

	"github.com/thumbgen/thumbnail-pipeline/internal/entity"

	"github.com/segmentio/kafka-go"
)

// Collector implements the fan-in grouping: partials accumulate per
// identity, keyed by size so duplicate (identity, size) deliveries
// overwrite instead of counting twice. A batch is ready when exactly
// n distinct sizes are present.
//
// Partials of an identity that never completes (a permanently failed
// resize) would pin memory forever; Evict drops collectors idle
// longer than the TTL.
type Collector struct {
	n   int
	ttl time.Duration

	mu      sync.Mutex
	pending map[string]*partialBatch
}

type partialBatch struct {
	partials  map[string]*entity.PartialThumbnailResult // by size key
	msgs      []kafka.Message
	updatedAt time.Time
}

func NewCollector(n int, ttl time.Duration) *Collector {
	return &Collector{
		n:       n,
		ttl:     ttl,
		pending: make(map[string]*partialBatch),
	}
}

// Add stores one partial. When the identity reaches n distinct sizes
// the whole batch is popped and returned together with the consumed
// messages, ready := true.
func (c *Collector) Add(p *entity.PartialThumbnailResult, msg kafka.Message) ([]*entity.PartialThumbnailResult, []kafka.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch, ok := c.pending[p.Identity]
	if !ok {
		batch = &partialBatch{
			partials: make(map[string]*entity.PartialThumbnailResult, c.n),
		}
		c.pending[p.Identity] = batch
	}

	batch.partials[p.Size.Key()] = p
	batch.msgs = append(batch.msgs, msg)
	batch.updatedAt = time.Now()

	if len(batch.partials) < c.n {
		return nil, nil, false
	}

	delete(c.pending, p.Identity)

	partials := make([]*entity.PartialThumbnailResult, 0, len(batch.partials))
	for _, partial := range batch.partials {
		partials = append(partials, partial)
	}

	return partials, batch.msgs, true
}

// Evict drops batches that have not seen a partial since before
// now-ttl and returns their identities.
func (c *Collector) Evict(now time.Time) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var evicted []string
	for identity, batch := range c.pending {
		if now.Sub(batch.updatedAt) > c.ttl {
			delete(c.pending, identity)
			evicted = append(evicted, identity)
		}
	}

	return evicted
}

// Pending reports the number of incomplete identities.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}
