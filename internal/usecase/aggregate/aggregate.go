package aggregate

import (
	"context"
	"fmt"
	"sort"

	"github.com/thumbgen/thumbnail-pipeline/internal/dto"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/internal/infrastructure"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
	"github.com/thumbgen/thumbnail-pipeline/pkg/types/errs"
)

// AggregateUseCase folds the fan-out back in: a batch of partials for
// one identity becomes a single ThumbnailSet in canonical order.
// expected is the configured cardinality N, supplied at construction
// because no message ever announces "this is the last partial".
type AggregateUseCase struct {
	publisher infrastructure.GeneratedPublisher
	expected  int

	logger logger.Interface
}

func New(publisher infrastructure.GeneratedPublisher, expected int, l logger.Interface) *AggregateUseCase {
	return &AggregateUseCase{
		publisher: publisher,
		expected:  expected,
		logger:    l,
	}
}

// Aggregate validates the batch, sorts ascending by width, publishes
// one ThumbnailsGenerated event and returns the assembled set.
// A heterogeneous batch means message routing is broken: it is
// rejected as a contract violation, never merged.
func (uc *AggregateUseCase) Aggregate(ctx context.Context, partials []*entity.PartialThumbnailResult) (*entity.ThumbnailSet, error) {
	if len(partials) == 0 {
		return nil, fmt.Errorf("AggregateUseCase - Aggregate: empty batch: %w", errs.ErrUnexpectedCardinality)
	}

	identity := partials[0].Identity
	for _, p := range partials {
		if p.Identity != identity {
			return nil, fmt.Errorf("AggregateUseCase - Aggregate: %q vs %q: %w",
				identity, p.Identity, errs.ErrMixedBatch)
		}
	}

	// dedup by size key; at-least-once delivery may replay a
	// (identity, size) pair, last copy wins
	bySize := make(map[string]*entity.PartialThumbnailResult, len(partials))
	for _, p := range partials {
		bySize[p.Size.Key()] = p
	}

	if len(bySize) != uc.expected {
		return nil, fmt.Errorf("AggregateUseCase - Aggregate: got %d distinct sizes, want %d: %w",
			len(bySize), uc.expected, errs.ErrUnexpectedCardinality)
	}

	deduped := make([]*entity.PartialThumbnailResult, 0, len(bySize))
	for _, p := range bySize {
		deduped = append(deduped, p)
	}

	// canonical ordering, independent of arrival permutation
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].Size.Width != deduped[j].Size.Width {
			return deduped[i].Size.Width < deduped[j].Size.Width
		}
		return deduped[i].Size.Height < deduped[j].Size.Height
	})

	thumbnails := make([]entity.Thumbnail, 0, len(deduped))
	for _, p := range deduped {
		thumbnails = append(thumbnails, entity.Thumbnail{Size: p.Size, URL: p.URL})
	}

	// original URL, metadata and callback are identical copies on
	// every partial; take them from the first
	first := deduped[0]

	set := &entity.ThumbnailSet{
		Identity:         identity,
		OriginalImageURL: first.OriginalURL,
		Thumbnails:       thumbnails,
		Metadata:         first.Metadata,
		CallbackURL:      first.CallbackURL,
	}

	err := uc.publisher.PublishGenerated(ctx, identity, dto.ThumbnailsGenerated{
		OriginalURL: set.OriginalImageURL,
		Thumbnails:  set.Thumbnails,
		Metadata:    set.Metadata,
		CallbackURL: set.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("AggregateUseCase - Aggregate - uc.publisher.PublishGenerated: %w", err)
	}

	return set, nil
}
