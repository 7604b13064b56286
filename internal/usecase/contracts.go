package usecase

import (
	"context"
	"io"

	"github.com/thumbgen/thumbnail-pipeline/internal/dto"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
)

type (
	// IngestUseCase accepts one validated upload and also fronts the
	// outbox for the relay worker.
	IngestUseCase interface {
		UploadNewImage(
			ctx context.Context,
			data io.Reader,
			originalName string,
			contentType string,
			size int64,
			callbackURL string,
		) (string, error)
		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error
		IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		CleanupOutbox(ctx context.Context) error
	}

	// ResizeUseCase produces the one variant its worker is bound to.
	ResizeUseCase interface {
		ProcessUpload(ctx context.Context, identity string, event dto.ImageUploaded) error
	}

	// AggregateUseCase combines exactly N partials of one identity
	// into the canonical set and publishes it downstream.
	AggregateUseCase interface {
		Aggregate(ctx context.Context, partials []*entity.PartialThumbnailResult) (*entity.ThumbnailSet, error)
	}

	RecordUseCase interface {
		Record(ctx context.Context, set *entity.ThumbnailSet) error
	}

	NotifyUseCase interface {
		Notify(ctx context.Context, set *entity.ThumbnailSet) error
	}

	QueryUseCase interface {
		ThumbnailSetByIdentity(ctx context.Context, identity string) (*entity.ThumbnailSet, error)
	}
)
