package query_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase/query"
	"github.com/thumbgen/thumbnail-pipeline/pkg/types/errs"
)

type fakeRowRepo struct {
	rows []*entity.ThumbnailRow
	err  error
}

func (f *fakeRowRepo) Upsert(context.Context, *entity.ThumbnailRow) error { return nil }

func (f *fakeRowRepo) ListByIdentity(_ context.Context, identity string) ([]*entity.ThumbnailRow, error) {
	if f.err != nil {
		return nil, f.err
	}

	var result []*entity.ThumbnailRow
	for _, row := range f.rows {
		if row.Identity == identity {
			result = append(result, row)
		}
	}

	return result, nil
}

func row(identity, sizeKey, thumbURL string) *entity.ThumbnailRow {
	return &entity.ThumbnailRow{
		Identity:         identity,
		SizeKey:          sizeKey,
		OriginalURL:      "http://s3.local/originals/" + identity + "-photo.jpeg",
		ThumbnailURL:     thumbURL,
		OriginalFileSize: 2048,
		ContentType:      "image/jpeg",
		Filename:         "photo",
		CallbackURL:      "http://callback.local/hook",
		CreatedAt:        time.Now(),
	}
}

func TestThumbnailSetByIdentity_RebuildsCanonicalOrder(t *testing.T) {
	// textual ordering puts "120x120" before "160x120" before "400x300"
	// already, so include a size where the two orders disagree
	repo := &fakeRowRepo{rows: []*entity.ThumbnailRow{
		row("img-1", "90x90", "http://s3.local/thumbnails/photo-90x90.jpeg"),
		row("img-1", "400x300", "http://s3.local/thumbnails/photo-400x300.jpeg"),
		row("img-1", "120x120", "http://s3.local/thumbnails/photo-120x120.jpeg"),
	}}

	uc := query.New(repo)

	set, err := uc.ThumbnailSetByIdentity(context.Background(), "img-1")
	require.NoError(t, err)

	require.Len(t, set.Thumbnails, 3)
	assert.Equal(t, "90x90", set.Thumbnails[0].Size.Key())
	assert.Equal(t, "120x120", set.Thumbnails[1].Size.Key())
	assert.Equal(t, "400x300", set.Thumbnails[2].Size.Key())

	assert.Equal(t, "img-1", set.Identity)
	assert.Equal(t, "http://s3.local/originals/img-1-photo.jpeg", set.OriginalImageURL)
	assert.Equal(t, int64(2048), set.Metadata.FileSize)
	assert.Equal(t, "image/jpeg", set.Metadata.ContentType)
	assert.Equal(t, "photo", set.Metadata.Filename)
}

func TestThumbnailSetByIdentity_UnknownIdentity(t *testing.T) {
	uc := query.New(&fakeRowRepo{})

	_, err := uc.ThumbnailSetByIdentity(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestThumbnailSetByIdentity_RepoFailurePropagates(t *testing.T) {
	uc := query.New(&fakeRowRepo{err: errors.New("connection reset")})

	_, err := uc.ThumbnailSetByIdentity(context.Background(), "img-1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
	assert.NotErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestThumbnailSetByIdentity_CorruptSizeKey(t *testing.T) {
	repo := &fakeRowRepo{rows: []*entity.ThumbnailRow{
		row("img-1", "garbage", "http://s3.local/thumbnails/photo-garbage.jpeg"),
	}}

	uc := query.New(repo)

	_, err := uc.ThumbnailSetByIdentity(context.Background(), "img-1")
	require.Error(t, err)
}
