package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thumbgen/thumbnail-pipeline/internal/dto"
	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/pkg/kafka/producer"

	"github.com/segmentio/kafka-go"
)

// EventProducer writes to all three pipeline topics through one
// shared writer. Message key is always the image identity.
type EventProducer struct {
	*producer.Producer
	uploadedTopic  string
	partialsTopic  string
	generatedTopic string
}

func NewEventProducer(producer *producer.Producer, uploadedTopic, partialsTopic, generatedTopic string) *EventProducer {
	return &EventProducer{
		producer,
		uploadedTopic,
		partialsTopic,
		generatedTopic,
	}
}

// SendEvents publishes relayed outbox events. Payloads already are
// serialized envelopes; the aggregate ID is the identity.
func (ep *EventProducer) SendEvents(ctx context.Context, events []*entity.OutboxEvent) error {
	var msgsToSend []kafka.Message

	for _, event := range events {
		msg := kafka.Message{
			Topic: ep.uploadedTopic,
			Key:   []byte(event.AggregateID),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(event.ID.String())},
			},
		}
		msgsToSend = append(msgsToSend, msg)
	}

	if len(msgsToSend) == 0 {
		return nil
	}

	err := ep.Writer.WriteMessages(ctx, msgsToSend...)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvents - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) PublishPartial(ctx context.Context, identity string, payload dto.PartialThumbnail) error {
	err := ep.publish(ctx, ep.partialsTopic, dto.SourceResizeWorker, dto.DetailTypePartialThumbnail, identity, payload)
	if err != nil {
		return fmt.Errorf("EventProducer - PublishPartial: %w", err)
	}

	return nil
}

func (ep *EventProducer) PublishGenerated(ctx context.Context, identity string, payload dto.ThumbnailsGenerated) error {
	err := ep.publish(ctx, ep.generatedTopic, dto.SourceAggregator, dto.DetailTypeThumbnailsGenerated, identity, payload)
	if err != nil {
		return fmt.Errorf("EventProducer - PublishGenerated: %w", err)
	}

	return nil
}

func (ep *EventProducer) publish(ctx context.Context, topic, source, detailType, identity string, payload any) error {
	env, err := dto.NewEnvelope(source, detailType, identity, payload)
	if err != nil {
		return fmt.Errorf("dto.NewEnvelope: %w", err)
	}

	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	err = ep.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(identity),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}
