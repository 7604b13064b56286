package ingest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/thumbgen/thumbnail-pipeline/internal/dto"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"

	"github.com/google/uuid"
)

func (uc *IngestUseCase) createOutboxEvent(
	identity string,
	fileURL string,
	originalName string,
	contentType string,
	size int64,
	callbackURL string,
) (*entity.OutboxEvent, error) {
	env, err := dto.NewEnvelope(dto.SourceIngest, dto.DetailTypeImageUploaded, identity, dto.ImageUploaded{
		FileURL: fileURL,
		Metadata: entity.Metadata{
			FileSize:    size,
			ContentType: contentType,
			Filename:    baseName(originalName),
		},
		CallbackURL: callbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("IngestUseCase - createOutboxEvent - dto.NewEnvelope: %w", err)
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("IngestUseCase - createOutboxEvent - json.Marshal: %w", err)
	}

	return &entity.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: identity,
		Payload:     payload,
		Status:      entity.Pending,
		CreatedAt:   time.Now(),
		RetryCount:  0,
	}, nil
}

func eventIDs(events []*entity.OutboxEvent) uuid.UUIDs {
	var IDs uuid.UUIDs

	for _, event := range events {
		IDs = append(IDs, event.ID)
	}

	return IDs
}

// baseName strips the directory part and extension; thumbnail keys are
// derived from this stem.
func baseName(filename string) string {
	name := filepath.Base(filename)

	return strings.TrimSuffix(name, filepath.Ext(name))
}
