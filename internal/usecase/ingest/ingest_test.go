package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thumbgen/thumbnail-pipeline/internal/dto"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase/ingest"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
)

type fakeObjectRepo struct {
	uploadErr error

	uploadedKey string
	deletedKey  string
}

func (f *fakeObjectRepo) Upload(_ context.Context, key string, _ io.Reader, _ string, _ int64) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploadedKey = key

	return nil
}

func (f *fakeObjectRepo) UploadBytes(context.Context, string, []byte, string) error { return nil }

func (f *fakeObjectRepo) Delete(_ context.Context, key string) error {
	f.deletedKey = key

	return nil
}

func (f *fakeObjectRepo) PublicURL(key string) string {
	return "http://s3.local/" + key
}

type fakeOutboxRepo struct {
	createErr error

	created []*entity.OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *entity.OutboxEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, event)

	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(context.Context, int, int) ([]*entity.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutboxRepo) MarkAsProcessingBatch(context.Context, uuid.UUIDs) error    { return nil }
func (f *fakeOutboxRepo) MarkAsProcessedBatch(context.Context, uuid.UUIDs) error     { return nil }
func (f *fakeOutboxRepo) IncrementRetryCountBatch(context.Context, uuid.UUIDs) error { return nil }
func (f *fakeOutboxRepo) MarkMaxRetriesAsFailed(context.Context, int) error          { return nil }
func (f *fakeOutboxRepo) DeleteOldProcessedAndFailed(context.Context) (int64, error) { return 0, nil }

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}

func TestUploadNewImage_StoresObjectAndOutboxEvent(t *testing.T) {
	objects := &fakeObjectRepo{}
	outbox := &fakeOutboxRepo{}
	uc := ingest.New(objects, outbox, fakeTransactor{}, logger.New("error"))

	identity, err := uc.UploadNewImage(
		context.Background(),
		strings.NewReader("image bytes"),
		"photo.jpeg",
		"image/jpeg",
		11,
		"http://callback.local/hook",
	)
	require.NoError(t, err)
	require.NotEmpty(t, identity)

	// identity is a uuid assigned at ingestion
	_, err = uuid.Parse(identity)
	require.NoError(t, err)

	assert.Equal(t, "originals/"+identity+"-photo.jpeg", objects.uploadedKey)
	assert.Empty(t, objects.deletedKey)

	require.Len(t, outbox.created, 1)
	event := outbox.created[0]
	assert.Equal(t, identity, event.AggregateID)
	assert.Equal(t, entity.Pending, event.Status)

	env, err := dto.DecodeEnvelope(event.Payload)
	require.NoError(t, err)
	require.NoError(t, env.Expect(dto.SourceIngest, dto.DetailTypeImageUploaded))
	assert.Equal(t, identity, env.Identity)

	var payload dto.ImageUploaded
	require.NoError(t, json.Unmarshal(env.Detail, &payload))
	require.NoError(t, payload.Validate())
	assert.Equal(t, "http://s3.local/originals/"+identity+"-photo.jpeg", payload.FileURL)
	assert.Equal(t, "photo", payload.Metadata.Filename)
	assert.Equal(t, "image/jpeg", payload.Metadata.ContentType)
	assert.Equal(t, int64(11), payload.Metadata.FileSize)
	assert.Equal(t, "http://callback.local/hook", payload.CallbackURL)
}

func TestUploadNewImage_DistinctIdentitiesPerCall(t *testing.T) {
	uc := ingest.New(&fakeObjectRepo{}, &fakeOutboxRepo{}, fakeTransactor{}, logger.New("error"))

	first, err := uc.UploadNewImage(context.Background(), strings.NewReader("a"), "photo.jpeg", "image/jpeg", 1, "")
	require.NoError(t, err)

	second, err := uc.UploadNewImage(context.Background(), strings.NewReader("b"), "photo.jpeg", "image/jpeg", 1, "")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestUploadNewImage_UploadFailureSkipsOutbox(t *testing.T) {
	objects := &fakeObjectRepo{uploadErr: errors.New("bucket unavailable")}
	outbox := &fakeOutboxRepo{}
	uc := ingest.New(objects, outbox, fakeTransactor{}, logger.New("error"))

	_, err := uc.UploadNewImage(context.Background(), strings.NewReader("a"), "photo.jpeg", "image/jpeg", 1, "")
	require.Error(t, err)
	assert.Empty(t, outbox.created)
}

func TestUploadNewImage_OutboxFailureDeletesObject(t *testing.T) {
	objects := &fakeObjectRepo{}
	outbox := &fakeOutboxRepo{createErr: errors.New("connection reset")}
	uc := ingest.New(objects, outbox, fakeTransactor{}, logger.New("error"))

	_, err := uc.UploadNewImage(context.Background(), strings.NewReader("a"), "photo.jpeg", "image/jpeg", 1, "")
	require.Error(t, err)

	// the stored object would be unreachable, compensate
	assert.Equal(t, objects.uploadedKey, objects.deletedKey)
	assert.NotEmpty(t, objects.deletedKey)
}
