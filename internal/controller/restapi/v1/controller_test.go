package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	v1 "github.com/thumbgen/thumbnail-pipeline/internal/controller/restapi/v1"
	"github.com/thumbgen/thumbnail-pipeline/internal/controller/restapi/v1/response"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
	"github.com/thumbgen/thumbnail-pipeline/pkg/types/errs"
)

type fakeIngest struct {
	identity string
	err      error

	calls        int
	lastFilename string
	lastCallback string
}

func (f *fakeIngest) UploadNewImage(_ context.Context, _ io.Reader, originalName, _ string, _ int64, callbackURL string) (string, error) {
	f.calls++
	f.lastFilename = originalName
	f.lastCallback = callbackURL

	return f.identity, f.err
}

func (f *fakeIngest) GetPendingEvents(context.Context, int, int) ([]*entity.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeIngest) MarkAsProcessingBatch(context.Context, []*entity.OutboxEvent) error    { return nil }
func (f *fakeIngest) MarkAsProcessedBatch(context.Context, []*entity.OutboxEvent) error     { return nil }
func (f *fakeIngest) IncrementRetryCountBatch(context.Context, []*entity.OutboxEvent) error { return nil }
func (f *fakeIngest) MarkMaxRetriesAsFailed(context.Context, int) error                     { return nil }
func (f *fakeIngest) CleanupOutbox(context.Context) error                                   { return nil }

type fakeQuery struct {
	set *entity.ThumbnailSet
	err error
}

func (f *fakeQuery) ThumbnailSetByIdentity(context.Context, string) (*entity.ThumbnailSet, error) {
	return f.set, f.err
}

func newTestApp(ing *fakeIngest, qry *fakeQuery) *fiber.App {
	app := fiber.New()
	v1.NewThumbnailRoutes(app.Group("/v1"), ing, qry, logger.New("error"))

	return app
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func multipartUpload(t *testing.T, filename, contentType string, content []byte, callbackURL string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	if callbackURL != "" {
		require.NoError(t, writer.WriteField("callback_url", callbackURL))
	}

	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return req
}

func TestUploadImage(t *testing.T) {
	tests := []struct {
		name           string
		filename       string
		contentType    string
		content        func(t *testing.T) []byte
		callbackURL    string
		ingestErr      error
		expectedStatus int
		expectedCalls  int
	}{
		{
			name:           "accepted",
			filename:       "photo.png",
			contentType:    "image/png",
			content:        pngBytes,
			callbackURL:    "http://callback.local/hook",
			expectedStatus: http.StatusAccepted,
			expectedCalls:  1,
		},
		{
			name:           "accepted without callback",
			filename:       "photo.png",
			contentType:    "image/png",
			content:        pngBytes,
			expectedStatus: http.StatusAccepted,
			expectedCalls:  1,
		},
		{
			name:           "empty file",
			filename:       "photo.png",
			contentType:    "image/png",
			content:        func(*testing.T) []byte { return nil },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unsupported declared type",
			filename:       "photo.gif",
			contentType:    "image/gif",
			content:        pngBytes,
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "unsupported extension",
			filename:       "photo.webp",
			contentType:    "image/png",
			content:        pngBytes,
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "content does not match declared type",
			filename:       "photo.png",
			contentType:    "image/png",
			content:        func(*testing.T) []byte { return []byte("plain text pretending to be an image") },
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "relative callback url",
			filename:       "photo.png",
			contentType:    "image/png",
			content:        pngBytes,
			callbackURL:    "/relative/hook",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "storage failure",
			filename:       "photo.png",
			contentType:    "image/png",
			content:        pngBytes,
			ingestErr:      errs.ErrRecordNotFound,
			expectedStatus: http.StatusInternalServerError,
			expectedCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := &fakeIngest{identity: "img-1", err: tt.ingestErr}
			app := newTestApp(ing, &fakeQuery{})

			req := multipartUpload(t, tt.filename, tt.contentType, tt.content(t), tt.callbackURL)

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, tt.expectedCalls, ing.calls)

			if tt.expectedStatus == http.StatusAccepted {
				var body response.Upload
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "img-1", body.Identity)
				assert.Equal(t, tt.callbackURL, ing.lastCallback)
			}
		})
	}
}

func TestGetThumbnails(t *testing.T) {
	knownSet := &entity.ThumbnailSet{
		Identity:         "5f9b2c4e-1d3a-4b6f-9e8c-123456789abc",
		OriginalImageURL: "http://s3.local/originals/photo.jpeg",
		Thumbnails: []entity.Thumbnail{
			{Size: entity.Size{Width: 120, Height: 120}, URL: "http://s3.local/thumbnails/photo-120x120.jpeg"},
			{Size: entity.Size{Width: 400, Height: 300}, URL: "http://s3.local/thumbnails/photo-400x300.jpeg"},
		},
		Metadata: entity.Metadata{
			FileSize:    2048,
			ContentType: "image/jpeg",
			Filename:    "photo",
		},
		CallbackURL: "http://callback.local/hook",
	}

	t.Run("found", func(t *testing.T) {
		app := newTestApp(&fakeIngest{}, &fakeQuery{set: knownSet})

		req := httptest.NewRequest(http.MethodGet, "/v1/thumbnails/"+knownSet.Identity, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var body response.ThumbnailSet
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, knownSet.OriginalImageURL, body.OriginalImageURL)
		assert.Len(t, body.Thumbnails, 2)

		// the callback URL is not part of the query contract
		assert.NotContains(t, string(raw), "callbackUrl")
	})

	t.Run("not found", func(t *testing.T) {
		app := newTestApp(&fakeIngest{}, &fakeQuery{err: errs.ErrRecordNotFound})

		req := httptest.NewRequest(http.MethodGet, "/v1/thumbnails/5f9b2c4e-1d3a-4b6f-9e8c-123456789abc", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		app := newTestApp(&fakeIngest{}, &fakeQuery{})

		req := httptest.NewRequest(http.MethodGet, "/v1/thumbnails/not-a-uuid", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
