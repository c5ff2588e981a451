package producer

import (
	"context"

	"go-bizops/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// publish writes one outbox row to its topic. The aggregate id keys the
// message so adjustments to the same entity land on one partition in order.
func publish(ctx context.Context, writer *kafkago.Writer, event kafka.OutboxEvent) error {
	return writer.WriteMessages(ctx, kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "outbox_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
		},
	})
}
