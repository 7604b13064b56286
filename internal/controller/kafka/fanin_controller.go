package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thumbgen/thumbnail-pipeline/internal/dto"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	kafkapc "github.com/thumbgen/thumbnail-pipeline/internal/infrastructure/kafka"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// FanInController consumes the partials topic and feeds the Collector.
// Reading is single-threaded on purpose: the hash-keyed topic delivers
// one identity's partials FIFO, and a pool would reorder them.
// A batch's offsets commit only after the aggregate is published.
type FanInController struct {
	agg       usecase.AggregateUseCase
	ec        *kafkapc.EventConsumer
	collector *Collector
	logger    logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration
	evictInterval  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func NewFanInController(
	agg usecase.AggregateUseCase,
	ec *kafkapc.EventConsumer,
	collector *Collector,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	evictInterval time.Duration,
) *FanInController {
	return &FanInController{
		agg:            agg,
		ec:             ec,
		collector:      collector,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		evictInterval:  evictInterval,
	}
}

func (c *FanInController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("FanInController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	// 1. consume loop
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				event, err := c.ec.ReadEvent(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "FanInController - Start - c.ec.ReadEvent")
					}
					continue
				}

				c.consume(event)
			}
		}
	}()

	// 2. eviction of batches that will never complete
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(c.evictInterval)
		defer ticker.Stop()

		for {
			select {
			case <-c.ctx.Done():
				return
			case now := <-ticker.C:
				for _, identity := range c.collector.Evict(now) {
					c.logger.Warn("dropped incomplete partial batch, identity=%s", identity)
				}
			}
		}
	}()

	c.logger.Info("fan-in controller started")

	return nil
}

func (c *FanInController) consume(event kafka.Message) {
	partial, ok := c.decode(event)
	if !ok {
		// poison message: commit so it never wedges the partition
		c.commit(event)

		return
	}

	partials, msgs, ready := c.collector.Add(partial, event)
	if !ready {
		return
	}

	processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
	set, err := c.agg.Aggregate(processCtx, partials)
	processCancel()
	if err != nil {
		// offsets stay uncommitted; the transport redelivers the
		// partials and the batch reassembles
		c.logger.Error(err, "FanInController - consume - c.agg.Aggregate, identity=%s", partial.Identity)

		return
	}

	c.logger.Info("aggregated %d thumbnails, identity=%s", len(set.Thumbnails), set.Identity)

	c.commit(msgs...)
}

func (c *FanInController) decode(event kafka.Message) (*entity.PartialThumbnailResult, bool) {
	env, err := dto.DecodeEnvelope(event.Value)
	if err != nil {
		c.logger.Error(err, "FanInController - decode - dto.DecodeEnvelope")

		return nil, false
	}

	if err := env.Expect(dto.SourceResizeWorker, dto.DetailTypePartialThumbnail); err != nil {
		c.logger.Error(err, "FanInController - decode - env.Expect")

		return nil, false
	}

	var payload dto.PartialThumbnail
	if err := json.Unmarshal(env.Detail, &payload); err != nil {
		c.logger.Error(fmt.Errorf("FanInController - decode - json.Unmarshal: %w", err), "identity=%s", env.Identity)

		return nil, false
	}

	if err := payload.Validate(); err != nil {
		c.logger.Error(err, "FanInController - decode - payload.Validate, identity=%s", env.Identity)

		return nil, false
	}

	return &entity.PartialThumbnailResult{
		Identity:    env.Identity,
		OriginalURL: payload.OriginalURL,
		Size:        payload.Size,
		URL:         payload.URL,
		FileSize:    payload.FileSize,
		Metadata:    payload.Metadata,
		CallbackURL: payload.CallbackURL,
	}, true
}

func (c *FanInController) commit(events ...kafka.Message) {
	commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
	defer commitCancel()

	if err := c.ec.CommitEvent(commitCtx, events...); err != nil {
		c.logger.Error(err, "FanInController - commit - c.ec.CommitEvent")
	}
}

func (c *FanInController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		c.ec.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
