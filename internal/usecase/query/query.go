package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/internal/repo"
	"github.com/thumbgen/thumbnail-pipeline/pkg/types/errs"
)

// QueryUseCase reconstructs the canonical ThumbnailSet shape from the
// persisted rows. Read-only.
type QueryUseCase struct {
	rowRepo repo.ThumbnailRowRepo
}

func New(rowRepo repo.ThumbnailRowRepo) *QueryUseCase {
	return &QueryUseCase{rowRepo: rowRepo}
}

func (uc *QueryUseCase) ThumbnailSetByIdentity(ctx context.Context, identity string) (*entity.ThumbnailSet, error) {
	rows, err := uc.rowRepo.ListByIdentity(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("QueryUseCase - ThumbnailSetByIdentity - uc.rowRepo.ListByIdentity: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("QueryUseCase - ThumbnailSetByIdentity: %q: %w", identity, errs.ErrRecordNotFound)
	}

	thumbnails := make([]entity.Thumbnail, 0, len(rows))
	for _, row := range rows {
		size, err := entity.ParseSizeKey(row.SizeKey)
		if err != nil {
			return nil, fmt.Errorf("QueryUseCase - ThumbnailSetByIdentity - entity.ParseSizeKey: %w", err)
		}

		thumbnails = append(thumbnails, entity.Thumbnail{Size: size, URL: row.ThumbnailURL})
	}

	// rows come back ordered by the textual size key; the canonical
	// order is numeric ascending width
	sort.Slice(thumbnails, func(i, j int) bool {
		if thumbnails[i].Size.Width != thumbnails[j].Size.Width {
			return thumbnails[i].Size.Width < thumbnails[j].Size.Width
		}
		return thumbnails[i].Size.Height < thumbnails[j].Size.Height
	})

	// every row carries identical copies of the original's metadata
	first := rows[0]

	return &entity.ThumbnailSet{
		Identity:         identity,
		OriginalImageURL: first.OriginalURL,
		Thumbnails:       thumbnails,
		Metadata: entity.Metadata{
			FileSize:    first.OriginalFileSize,
			ContentType: first.ContentType,
			Filename:    first.Filename,
		},
		CallbackURL: first.CallbackURL,
	}, nil
}
