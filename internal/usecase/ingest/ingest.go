package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/internal/repo"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"

	"github.com/google/uuid"
)

type IngestUseCase struct {
	objectRepo repo.ObjectRepo
	outboxRepo repo.OutboxRepo
	transactor repo.Transactor

	logger logger.Interface
}

func New(
	objectRepo repo.ObjectRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	l logger.Interface,
) *IngestUseCase {
	return &IngestUseCase{
		objectRepo: objectRepo,
		outboxRepo: outboxRepo,
		transactor: transactor,
		logger:     l,
	}
}

// UploadNewImage stores the original and records the UploadedImage
// event in the outbox. The returned identity is assigned exactly here
// and never regenerated by any later stage.
func (uc *IngestUseCase) UploadNewImage(
	ctx context.Context,
	data io.Reader,
	originalName string,
	contentType string,
	size int64,
	callbackURL string,
) (string, error) {
	identity := uuid.New().String()
	originalKey := fmt.Sprintf("originals/%s-%s", identity, originalName)

	// 1. store the original
	err := uc.objectRepo.Upload(ctx, originalKey, data, contentType, size)
	if err != nil {
		return "", fmt.Errorf("IngestUseCase - UploadNewImage - uc.objectRepo.Upload: %w", err)
	}

	fileURL := uc.objectRepo.PublicURL(originalKey)

	// 2. record the uploaded event in the outbox
	event, err := uc.createOutboxEvent(identity, fileURL, originalName, contentType, size, callbackURL)
	if err != nil {
		return "", fmt.Errorf("IngestUseCase - UploadNewImage - uc.createOutboxEvent: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.outboxRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("IngestUseCase - UploadNewImage - uc.outboxRepo.Create: %w", err)
		}

		return nil
	})

	// compensate: without the outbox row the stored object is unreachable
	if err != nil {
		deleteErr := uc.objectRepo.Delete(ctx, originalKey)
		if deleteErr != nil {
			uc.logger.Error(deleteErr, "IngestUseCase - UploadNewImage - uc.objectRepo.Delete")
		}
		return "", fmt.Errorf("IngestUseCase - UploadNewImage - uc.transactor.WithinTransaction: %w", err)
	}

	return identity, nil
}

func (uc *IngestUseCase) GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	events, err := uc.outboxRepo.GetPendingEvents(ctx, limit, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("IngestUseCase - GetPendingEvents - uc.outboxRepo.GetPendingEvents: %w", err)
	}

	return events, nil
}

func (uc *IngestUseCase) MarkAsProcessingBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outboxRepo.MarkAsProcessingBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("IngestUseCase - MarkAsProcessingBatch - uc.outboxRepo.MarkAsProcessingBatch: %w", err)
	}

	return nil
}

func (uc *IngestUseCase) MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outboxRepo.MarkAsProcessedBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("IngestUseCase - MarkAsProcessedBatch - uc.outboxRepo.MarkAsProcessedBatch: %w", err)
	}

	return nil
}

func (uc *IngestUseCase) IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outboxRepo.IncrementRetryCountBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("IngestUseCase - IncrementRetryCountBatch - uc.outboxRepo.IncrementRetryCountBatch: %w", err)
	}

	return nil
}

func (uc *IngestUseCase) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	err := uc.outboxRepo.MarkMaxRetriesAsFailed(ctx, maxRetries)
	if err != nil {
		return fmt.Errorf("IngestUseCase - MarkMaxRetriesAsFailed - uc.outboxRepo.MarkMaxRetriesAsFailed: %w", err)
	}

	return nil
}

func (uc *IngestUseCase) CleanupOutbox(ctx context.Context) error {
	count, err := uc.outboxRepo.DeleteOldProcessedAndFailed(ctx)
	if err != nil {
		return fmt.Errorf("IngestUseCase - CleanupOutbox - uc.outboxRepo.DeleteOldProcessedAndFailed: %w", err)
	}

	if count > 0 {
		uc.logger.Info("deleted old outbox events, count = %d", count)
	}

	return nil
}
