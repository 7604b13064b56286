package resize

import (
	"context"
	"fmt"

	"github.com/thumbgen/thumbnail-pipeline/internal/dto"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/internal/infrastructure"
	"github.com/thumbgen/thumbnail-pipeline/internal/repo"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
)

// ResizeUseCase is one fan-out worker: statically bound to a single
// target dimension, it turns every uploaded event into exactly one
// partial result. No state survives between invocations.
type ResizeUseCase struct {
	fetcher    infrastructure.SourceFetcher
	resizer    infrastructure.ImageResizer
	objectRepo repo.ObjectRepo
	publisher  infrastructure.PartialPublisher

	spec entity.Size

	logger logger.Interface
}

func New(
	fetcher infrastructure.SourceFetcher,
	resizer infrastructure.ImageResizer,
	objectRepo repo.ObjectRepo,
	publisher infrastructure.PartialPublisher,
	spec entity.Size,
	l logger.Interface,
) *ResizeUseCase {
	return &ResizeUseCase{
		fetcher:    fetcher,
		resizer:    resizer,
		objectRepo: objectRepo,
		publisher:  publisher,
		spec:       spec,
		logger:     l,
	}
}

func (uc *ResizeUseCase) ProcessUpload(ctx context.Context, identity string, event dto.ImageUploaded) error {
	// 1. fetch the source bytes
	data, err := uc.fetcher.Fetch(ctx, event.FileURL)
	if err != nil {
		return fmt.Errorf("ResizeUseCase - ProcessUpload - uc.fetcher.Fetch: %w", err)
	}

	// 2. resize to the bound dimension
	resized, err := uc.resizer.Resize(ctx, event.Metadata.ContentType, data, uc.spec.Width, uc.spec.Height)
	if err != nil {
		return fmt.Errorf("ResizeUseCase - ProcessUpload - uc.resizer.Resize: %w", err)
	}

	// 3. store under the deterministic key; redelivery overwrites the
	// same object instead of duplicating it
	key := thumbnailKey(event.Metadata, uc.spec)

	err = uc.objectRepo.UploadBytes(ctx, key, resized, event.Metadata.ContentType)
	if err != nil {
		return fmt.Errorf("ResizeUseCase - ProcessUpload - uc.objectRepo.UploadBytes: %w", err)
	}

	// 4. emit the partial onto the fan-in channel
	err = uc.publisher.PublishPartial(ctx, identity, dto.PartialThumbnail{
		OriginalURL: event.FileURL,
		Size:        uc.spec,
		URL:         uc.objectRepo.PublicURL(key),
		FileSize:    int64(len(resized)),
		Metadata:    event.Metadata,
		CallbackURL: event.CallbackURL,
	})
	if err != nil {
		return fmt.Errorf("ResizeUseCase - ProcessUpload - uc.publisher.PublishPartial: %w", err)
	}

	return nil
}

// thumbnailKey derives "thumbnails/<filename>-<W>x<H>.<ext>" from the
// original metadata, e.g. "thumbnails/photo-160x120.jpeg".
func thumbnailKey(meta entity.Metadata, spec entity.Size) string {
	ext := "jpeg"
	if meta.ContentType == "image/png" {
		ext = "png"
	}

	return fmt.Sprintf("thumbnails/%s-%s.%s", meta.Filename, spec.Key(), ext)
}
