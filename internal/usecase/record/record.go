package record

import (
	"context"
	"fmt"
	"time"

	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/internal/repo"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
)

// RecordUseCase projects a ThumbnailSet into one row per variant.
// Writes are upserts on the (identity, size) natural key, so replaying
// the same set is a no-op. No reads are performed.
type RecordUseCase struct {
	rowRepo    repo.ThumbnailRowRepo
	transactor repo.Transactor

	logger logger.Interface
}

func New(rowRepo repo.ThumbnailRowRepo, transactor repo.Transactor, l logger.Interface) *RecordUseCase {
	return &RecordUseCase{
		rowRepo:    rowRepo,
		transactor: transactor,
		logger:     l,
	}
}

func (uc *RecordUseCase) Record(ctx context.Context, set *entity.ThumbnailSet) error {
	now := time.Now()

	// all rows of one set land in one transaction so a replayed
	// delivery can never leave a half-written projection visible
	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, t := range set.Thumbnails {
			row := &entity.ThumbnailRow{
				Identity:         set.Identity,
				SizeKey:          t.Size.Key(),
				OriginalURL:      set.OriginalImageURL,
				ThumbnailURL:     t.URL,
				OriginalFileSize: set.Metadata.FileSize,
				ContentType:      set.Metadata.ContentType,
				Filename:         set.Metadata.Filename,
				CallbackURL:      set.CallbackURL,
				CreatedAt:        now,
			}

			if err := uc.rowRepo.Upsert(ctx, row); err != nil {
				return fmt.Errorf("RecordUseCase - Record - uc.rowRepo.Upsert: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("RecordUseCase - Record - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}
