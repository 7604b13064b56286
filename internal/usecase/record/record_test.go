package record_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase/record"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
)

// fakeRowRepo keys rows the way the table does, so a replay lands on
// the same entry instead of adding one.
type fakeRowRepo struct {
	rows    map[string]*entity.ThumbnailRow
	upserts int
	err     error
}

func newFakeRowRepo() *fakeRowRepo {
	return &fakeRowRepo{rows: make(map[string]*entity.ThumbnailRow)}
}

func (f *fakeRowRepo) Upsert(_ context.Context, row *entity.ThumbnailRow) error {
	if f.err != nil {
		return f.err
	}

	f.upserts++
	f.rows[row.Identity+"/"+row.SizeKey] = row

	return nil
}

func (f *fakeRowRepo) ListByIdentity(_ context.Context, identity string) ([]*entity.ThumbnailRow, error) {
	var result []*entity.ThumbnailRow
	for _, row := range f.rows {
		if row.Identity == identity {
			result = append(result, row)
		}
	}

	return result, nil
}

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}

func testSet() *entity.ThumbnailSet {
	return &entity.ThumbnailSet{
		Identity:         "img-1",
		OriginalImageURL: "http://s3.local/originals/img-1-photo.jpeg",
		Thumbnails: []entity.Thumbnail{
			{Size: entity.Size{Width: 120, Height: 120}, URL: "http://s3.local/thumbnails/photo-120x120.jpeg"},
			{Size: entity.Size{Width: 160, Height: 120}, URL: "http://s3.local/thumbnails/photo-160x120.jpeg"},
			{Size: entity.Size{Width: 400, Height: 300}, URL: "http://s3.local/thumbnails/photo-400x300.jpeg"},
		},
		Metadata: entity.Metadata{
			FileSize:    2048,
			ContentType: "image/jpeg",
			Filename:    "photo",
		},
		CallbackURL: "http://callback.local/hook",
	}
}

func TestRecord_OneRowPerVariant(t *testing.T) {
	repo := newFakeRowRepo()
	uc := record.New(repo, fakeTransactor{}, logger.New("error"))

	err := uc.Record(context.Background(), testSet())
	require.NoError(t, err)

	require.Len(t, repo.rows, 3)

	row := repo.rows["img-1/160x120"]
	require.NotNil(t, row)
	assert.Equal(t, "http://s3.local/thumbnails/photo-160x120.jpeg", row.ThumbnailURL)
	assert.Equal(t, "http://s3.local/originals/img-1-photo.jpeg", row.OriginalURL)
	assert.Equal(t, "image/jpeg", row.ContentType)
	assert.Equal(t, "photo", row.Filename)
	assert.Equal(t, int64(2048), row.OriginalFileSize)
}

func TestRecord_ReplayLeavesRowCountUnchanged(t *testing.T) {
	repo := newFakeRowRepo()
	uc := record.New(repo, fakeTransactor{}, logger.New("error"))

	require.NoError(t, uc.Record(context.Background(), testSet()))
	require.NoError(t, uc.Record(context.Background(), testSet()))

	assert.Len(t, repo.rows, 3)
	assert.Equal(t, 6, repo.upserts)
}

func TestRecord_UpsertFailurePropagates(t *testing.T) {
	repo := newFakeRowRepo()
	repo.err = errors.New("connection reset")
	uc := record.New(repo, fakeTransactor{}, logger.New("error"))

	err := uc.Record(context.Background(), testSet())
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
}
