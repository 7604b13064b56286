package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/thumbgen/thumbnail-pipeline/pkg/types/errs"

	"github.com/disintegration/imaging"
)

// ImageProcessor performs the one transform the pipeline needs:
// a deterministic resize to an exact width and height.
type ImageProcessor struct {
}

func New() *ImageProcessor {
	return &ImageProcessor{}
}

func (p *ImageProcessor) Resize(ctx context.Context, contentType string, data []byte, width, height int) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Resize - decodeImage: %w", err)
	}

	resized := imaging.Resize(img, width, height, imaging.Lanczos)

	res, err := encodeImage(resized, contentType)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Resize - encodeImage: %w", err)
	}

	return res, nil
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - decodeImage - imaging.Decode: %w", err)
	}

	return img, nil
}

func encodeImage(img image.Image, contentType string) ([]byte, error) {
	var buf bytes.Buffer
	var format imaging.Format

	switch contentType {
	case "image/jpeg", "image/jpg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	default:
		return nil, fmt.Errorf("ImageProcessor - encodeImage: %q: %w", contentType, errs.ErrUnsupportedFormat)
	}

	err := imaging.Encode(&buf, img, format)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - encodeImage - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}
