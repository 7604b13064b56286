package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thumbgen/thumbnail-pipeline/pkg/types/errs"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func TestResize_ExactTargetDimensions(t *testing.T) {
	p := New()
	src := encodePNG(t, 800, 600)

	out, err := p.Resize(context.Background(), "image/png", src, 160, 120)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	bounds := decoded.Bounds()
	assert.Equal(t, 160, bounds.Dx())
	assert.Equal(t, 120, bounds.Dy())
}

func TestResize_JPEGOutput(t *testing.T) {
	p := New()
	src := encodePNG(t, 400, 400)

	out, err := p.Resize(context.Background(), "image/jpeg", src, 120, 120)
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestResize_CorruptDataRejected(t *testing.T) {
	p := New()

	_, err := p.Resize(context.Background(), "image/png", []byte("not an image"), 160, 120)
	require.Error(t, err)
}

func TestResize_UnsupportedContentType(t *testing.T) {
	p := New()
	src := encodePNG(t, 100, 100)

	_, err := p.Resize(context.Background(), "image/gif", src, 160, 120)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnsupportedFormat)
}
