package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Size is one target thumbnail dimension.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Key renders the natural sort-key form, e.g. "400x300".
func (s Size) Key() string {
	return strconv.Itoa(s.Width) + "x" + strconv.Itoa(s.Height)
}

// ParseSizeKey is the inverse of Size.Key.
func ParseSizeKey(key string) (Size, error) {
	w, h, ok := strings.Cut(key, "x")
	if !ok {
		return Size{}, fmt.Errorf("entity - ParseSizeKey: %q is not WxH", key)
	}

	width, err := strconv.Atoi(w)
	if err != nil {
		return Size{}, fmt.Errorf("entity - ParseSizeKey: %q width: %w", key, err)
	}

	height, err := strconv.Atoi(h)
	if err != nil {
		return Size{}, fmt.Errorf("entity - ParseSizeKey: %q height: %w", key, err)
	}

	return Size{Width: width, Height: height}, nil
}

// Metadata describes the originally uploaded file. It is copied
// verbatim into every derived event.
type Metadata struct {
	FileSize    int64  `json:"fileSize"`
	ContentType string `json:"type"`
	Filename    string `json:"filename"`
}

type Thumbnail struct {
	Size Size   `json:"size"`
	URL  string `json:"url"`
}

// PartialThumbnailResult is one resize worker's output: a single
// (identity, size) variant. The same pair may be delivered more than
// once; consumers dedup on Size.Key.
type PartialThumbnailResult struct {
	Identity    string
	OriginalURL string
	Size        Size
	URL         string
	FileSize    int64
	Metadata    Metadata
	CallbackURL string
}

// ThumbnailSet is the fan-in aggregate: all N variants of one upload,
// thumbnails in canonical order (ascending by width).
type ThumbnailSet struct {
	Identity         string      `json:"id"`
	OriginalImageURL string      `json:"originalImageUrl"`
	Thumbnails       []Thumbnail `json:"thumbnails"`
	Metadata         Metadata    `json:"metadata"`
	CallbackURL      string      `json:"callbackUrl,omitempty"`
}

// ThumbnailRow is the durable projection of one set entry, natural key
// (identity, size key). Denormalized so the query side needs no joins.
type ThumbnailRow struct {
	Identity         string
	SizeKey          string
	OriginalURL      string
	ThumbnailURL     string
	OriginalFileSize int64
	ContentType      string
	Filename         string
	CallbackURL      string
	CreatedAt        time.Time
}
