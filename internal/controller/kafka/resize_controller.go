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
	kafkapc "github.com/thumbgen/thumbnail-pipeline/internal/infrastructure/kafka"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// ResizeController drives one resize worker: it consumes the uploaded
// topic in its own consumer group (every worker group sees every
// upload - the fan-out) and hands events to a bounded worker pool.
// Offsets commit only after the use case fully succeeds, so failures
// are redelivered by the transport.
type ResizeController struct {
	uc     usecase.ResizeUseCase
	ec     *kafkapc.EventConsumer
	logger logger.Interface

	name string

	commitTimeout  time.Duration
	processTimeout time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func NewResizeController(
	uc usecase.ResizeUseCase,
	ec *kafkapc.EventConsumer,
	l logger.Interface,
	name string,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	workers int,
) *ResizeController {
	return &ResizeController{
		uc:             uc,
		ec:             ec,
		logger:         l,
		name:           name,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		workers:        workers,
	}
}

func (c *ResizeController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("ResizeController - Start - controller already started")
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
						c.logger.Error(err, "ResizeController - Start - c.ec.ReadEvent")
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

	c.logger.Info("resize controller %s started", c.name)

	return nil
}

// handle decodes and dispatches one message. A nil error with
// commit=true also covers poison messages: malformed envelopes are
// logged and skipped, otherwise they would wedge the partition.
func (c *ResizeController) handle(ctx context.Context, event kafka.Message) (bool, error) {
	env, err := dto.DecodeEnvelope(event.Value)
	if err != nil {
		c.logger.Error(err, "ResizeController - handle - dto.DecodeEnvelope")

		return true, nil
	}

	if err := env.Expect(dto.SourceIngest, dto.DetailTypeImageUploaded); err != nil {
		c.logger.Error(err, "ResizeController - handle - env.Expect")

		return true, nil
	}

	var payload dto.ImageUploaded
	if err := json.Unmarshal(env.Detail, &payload); err != nil {
		c.logger.Error(fmt.Errorf("ResizeController - handle - json.Unmarshal: %w", err), "identity=%s", env.Identity)

		return true, nil
	}

	if err := payload.Validate(); err != nil {
		c.logger.Error(err, "ResizeController - handle - payload.Validate, identity=%s", env.Identity)

		return true, nil
	}

	if err := c.uc.ProcessUpload(ctx, env.Identity, payload); err != nil {
		return false, fmt.Errorf("ResizeController - handle - c.uc.ProcessUpload: %w", err)
	}

	return true, nil
}

func (c *ResizeController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for event := range tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "ResizeController - worker - panic")
				}
			}()

			processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
			commit, err := c.handle(processCtx, event)
			processCancel()
			if err != nil {
				c.logger.Error(err, "ResizeController - worker - c.handle")

				return
			}
			if !commit {
				return
			}

			commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
			err = c.ec.CommitEvent(commitCtx, event)
			commitCancel()
			if err != nil {
				c.logger.Error(err, "ResizeController - worker - c.ec.CommitEvent")
			}
		}()
	}
}

func (c *ResizeController) Shutdown(ctx context.Context) error {
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
