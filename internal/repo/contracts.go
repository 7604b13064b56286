package repo

import (
	"context"
	"io"

	"github.com/thumbgen/thumbnail-pipeline/internal/entity"

	"github.com/google/uuid"
)

type (
	ObjectRepo interface {
		Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error
		UploadBytes(ctx context.Context, key string, data []byte, contentType string) error
		Delete(ctx context.Context, key string) error
		PublicURL(key string) string
	}

	// ThumbnailRowRepo writes are pure upserts on (identity, size key),
	// so duplicate delivery leaves the table unchanged.
	ThumbnailRowRepo interface {
		Upsert(ctx context.Context, row *entity.ThumbnailRow) error
		ListByIdentity(ctx context.Context, identity string) ([]*entity.ThumbnailRow, error)
	}

	OutboxRepo interface {
		Create(ctx context.Context, event *entity.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit, maxRetries int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		DeleteOldProcessedAndFailed(ctx context.Context) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
