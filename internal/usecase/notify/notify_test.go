package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase/notify"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
	"github.com/thumbgen/thumbnail-pipeline/pkg/types/errs"
)

type fakeSender struct {
	err error

	calls    int
	lastURL  string
	lastBody []byte
}

func (f *fakeSender) Send(_ context.Context, url string, body []byte) error {
	f.calls++
	f.lastURL = url
	f.lastBody = body

	return f.err
}

func set(callbackURL string) *entity.ThumbnailSet {
	return &entity.ThumbnailSet{
		Identity:         "img-1",
		OriginalImageURL: "http://s3.local/originals/img-1-photo.jpeg",
		Thumbnails: []entity.Thumbnail{
			{Size: entity.Size{Width: 120, Height: 120}, URL: "http://s3.local/thumbnails/photo-120x120.jpeg"},
		},
		Metadata: entity.Metadata{
			FileSize:    2048,
			ContentType: "image/jpeg",
			Filename:    "photo",
		},
		CallbackURL: callbackURL,
	}
}

func TestNotify_PostsCompletedSet(t *testing.T) {
	sender := &fakeSender{}
	uc := notify.New(sender, logger.New("error"))

	err := uc.Notify(context.Background(), set("http://callback.local/hook"))
	require.NoError(t, err)

	require.Equal(t, 1, sender.calls)
	assert.Equal(t, "http://callback.local/hook", sender.lastURL)

	var posted entity.ThumbnailSet
	require.NoError(t, json.Unmarshal(sender.lastBody, &posted))
	assert.Equal(t, "img-1", posted.Identity)
	assert.Len(t, posted.Thumbnails, 1)
}

func TestNotify_NoCallbackNoCall(t *testing.T) {
	sender := &fakeSender{}
	uc := notify.New(sender, logger.New("error"))

	err := uc.Notify(context.Background(), set(""))
	require.NoError(t, err)
	assert.Zero(t, sender.calls)
}

func TestNotify_BadCallbackURL(t *testing.T) {
	tests := []string{
		"not-a-url",
		"ftp://callback.local/hook",
		"http://",
		"/relative/path",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			sender := &fakeSender{}
			uc := notify.New(sender, logger.New("error"))

			err := uc.Notify(context.Background(), set(raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrBadCallbackURL)
			assert.Zero(t, sender.calls)
		})
	}
}

func TestNotify_SendFailurePropagates(t *testing.T) {
	sender := &fakeSender{err: errors.New("endpoint returned 503")}
	uc := notify.New(sender, logger.New("error"))

	err := uc.Notify(context.Background(), set("http://callback.local/hook"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "endpoint returned 503")
	assert.Equal(t, 1, sender.calls)
}
