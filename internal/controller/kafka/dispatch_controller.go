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
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// SetHandler is one downstream consumer of a completed ThumbnailSet
// (the metadata recorder or the notifier).
type SetHandler func(ctx context.Context, set *entity.ThumbnailSet) error

// DispatchController consumes the generated topic and hands each
// ThumbnailSet to its handler. Running two instances with distinct
// consumer groups gives the downstream fan-out: recorder and notifier
// both see every aggregate, independently.
type DispatchController struct {
	handler SetHandler
	ec      *kafkapc.EventConsumer
	logger  logger.Interface

	name string

	commitTimeout  time.Duration
	processTimeout time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func NewDispatchController(
	handler SetHandler,
	ec *kafkapc.EventConsumer,
	l logger.Interface,
	name string,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	workers int,
) *DispatchController {
	return &DispatchController{
		handler:        handler,
		ec:             ec,
		logger:         l,
		name:           name,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		workers:        workers,
	}
}

func (c *DispatchController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("DispatchController - Start - controller %s already started", c.name)
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	tasks := make(chan kafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				event, err := c.ec.ReadEvent(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "DispatchController - Start - c.ec.ReadEvent, name=%s", c.name)
					}
					continue
				}

				select {
				case tasks <- event:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	c.logger.Info("dispatch controller %s started", c.name)

	return nil
}

func (c *DispatchController) handle(ctx context.Context, event kafka.Message) (bool, error) {
	env, err := dto.DecodeEnvelope(event.Value)
	if err != nil {
		c.logger.Error(err, "DispatchController - handle - dto.DecodeEnvelope, name=%s", c.name)

		return true, nil
	}

	if err := env.Expect(dto.SourceAggregator, dto.DetailTypeThumbnailsGenerated); err != nil {
		c.logger.Error(err, "DispatchController - handle - env.Expect, name=%s", c.name)

		return true, nil
	}

	var payload dto.ThumbnailsGenerated
	if err := json.Unmarshal(env.Detail, &payload); err != nil {
		c.logger.Error(fmt.Errorf("DispatchController - handle - json.Unmarshal: %w", err), "identity=%s", env.Identity)

		return true, nil
	}

	if err := payload.Validate(); err != nil {
		c.logger.Error(err, "DispatchController - handle - payload.Validate, identity=%s", env.Identity)

		return true, nil
	}

	set := &entity.ThumbnailSet{
		Identity:         env.Identity,
		OriginalImageURL: payload.OriginalURL,
		Thumbnails:       payload.Thumbnails,
		Metadata:         payload.Metadata,
		CallbackURL:      payload.CallbackURL,
	}

	if err := c.handler(ctx, set); err != nil {
		return false, fmt.Errorf("DispatchController - handle - c.handler: %w", err)
	}

	return true, nil
}

func (c *DispatchController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for event := range tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "DispatchController - worker - panic, name=%s", c.name)
				}
			}()

			processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
			commit, err := c.handle(processCtx, event)
			processCancel()
			if err != nil {
				c.logger.Error(err, "DispatchController - worker - c.handle, name=%s", c.name)

				return
			}
			if !commit {
				return
			}

			commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
			err = c.ec.CommitEvent(commitCtx, event)
			commitCancel()
			if err != nil {
				c.logger.Error(err, "DispatchController - worker - c.ec.CommitEvent, name=%s", c.name)
			}
		}()
	}
}

func (c *DispatchController) Shutdown(ctx context.Context) error {
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
