package dto

import (
	"encoding/json"
	"fmt"

	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
)

// Event routing attributes. Consumers match on (source, detailType)
// before touching the payload.
const (
	SourceIngest       = "ingest"
	SourceResizeWorker = "resize-worker"
	SourceAggregator   = "aggregator"

	DetailTypeImageUploaded       = "ImageUploaded"
	DetailTypePartialThumbnail    = "PartialThumbnailGenerated"
	DetailTypeThumbnailsGenerated = "ThumbnailsGenerated"
)

// Envelope is the typed wrapper every pipeline message travels in.
// Identity is the correlation ID threaded through the whole run.
type Envelope struct {
	Source     string          `json:"source"`
	DetailType string          `json:"detailType"`
	Identity   string          `json:"identity"`
	Detail     json.RawMessage `json:"detail"`
}

func NewEnvelope(source, detailType, identity string, payload any) (Envelope, error) {
	detail, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("dto - NewEnvelope - json.Marshal: %w", err)
	}

	return Envelope{
		Source:     source,
		DetailType: detailType,
		Identity:   identity,
		Detail:     detail,
	}, nil
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("dto - DecodeEnvelope - json.Unmarshal: %w", err)
	}

	if env.Source == "" || env.DetailType == "" || env.Identity == "" {
		return Envelope{}, fmt.Errorf("dto - DecodeEnvelope: source, detailType and identity are required")
	}

	return env, nil
}

// Expect rejects envelopes that do not carry the given routing attributes.
func (e Envelope) Expect(source, detailType string) error {
	if e.Source != source || e.DetailType != detailType {
		return fmt.Errorf("dto - Envelope - Expect: got (%s, %s), want (%s, %s)",
			e.Source, e.DetailType, source, detailType)
	}

	return nil
}

type ImageUploaded struct {
	FileURL     string          `json:"fileUrl"`
	Metadata    entity.Metadata `json:"metadata"`
	CallbackURL string          `json:"callbackUrl,omitempty"`
}

func (p ImageUploaded) Validate() error {
	if p.FileURL == "" {
		return fmt.Errorf("dto - ImageUploaded - Validate: fileUrl is required")
	}
	if p.Metadata.Filename == "" || p.Metadata.ContentType == "" {
		return fmt.Errorf("dto - ImageUploaded - Validate: metadata filename and type are required")
	}

	return nil
}

type PartialThumbnail struct {
	OriginalURL string          `json:"originalImageUrl"`
	Size        entity.Size     `json:"size"`
	URL         string          `json:"url"`
	FileSize    int64           `json:"fileSize"`
	Metadata    entity.Metadata `json:"metadata"`
	CallbackURL string          `json:"callbackUrl,omitempty"`
}

func (p PartialThumbnail) Validate() error {
	if p.URL == "" || p.OriginalURL == "" {
		return fmt.Errorf("dto - PartialThumbnail - Validate: url and originalImageUrl are required")
	}
	if p.Size.Width <= 0 || p.Size.Height <= 0 {
		return fmt.Errorf("dto - PartialThumbnail - Validate: size must be positive")
	}

	return nil
}

type ThumbnailsGenerated struct {
	OriginalURL string             `json:"originalImageUrl"`
	Thumbnails  []entity.Thumbnail `json:"thumbnails"`
	Metadata    entity.Metadata    `json:"metadata"`
	CallbackURL string             `json:"callbackUrl,omitempty"`
}

func (p ThumbnailsGenerated) Validate() error {
	if p.OriginalURL == "" {
		return fmt.Errorf("dto - ThumbnailsGenerated - Validate: originalImageUrl is required")
	}
	if len(p.Thumbnails) == 0 {
		return fmt.Errorf("dto - ThumbnailsGenerated - Validate: thumbnails are required")
	}

	return nil
}
