package infrastructure

import (
	"context"

	"github.com/thumbgen/thumbnail-pipeline/internal/dto"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
)

type (
	// EventsSender publishes relayed outbox events onto the uploaded topic.
	EventsSender interface {
		SendEvents(ctx context.Context, events []*entity.OutboxEvent) error
		Close() error
	}

	// PartialPublisher emits one resize worker's result onto the fan-in
	// topic, keyed by identity so all partials of one upload stay FIFO.
	PartialPublisher interface {
		PublishPartial(ctx context.Context, identity string, payload dto.PartialThumbnail) error
	}

	// GeneratedPublisher emits the completed aggregate onto the generated topic.
	GeneratedPublisher interface {
		PublishGenerated(ctx context.Context, identity string, payload dto.ThumbnailsGenerated) error
	}

	SourceFetcher interface {
		Fetch(ctx context.Context, url string) ([]byte, error)
	}

	ImageResizer interface {
		Resize(ctx context.Context, contentType string, data []byte, width, height int) ([]byte, error)
	}

	WebhookSender interface {
		Send(ctx context.Context, url string, body []byte) error
	}
)
