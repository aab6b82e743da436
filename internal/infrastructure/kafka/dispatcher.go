package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"stockroom/internal/config"
	"stockroom/internal/domain"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.EventsTopic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// Envelope is the wire shape of every published domain event.
type Envelope struct {
	Name        string       `json:"name"`
	AggregateID string       `json:"aggregateId"`
	OccurredAt  time.Time    `json:"occurredAt"`
	Payload     domain.Event `json:"payload"`
}

// Dispatcher publishes domain events to Kafka, keyed by aggregate id so
// events for one product stay ordered within a partition.
type Dispatcher struct {
	writer MessageWriter
	now    func() time.Time
}

func NewDispatcher(writer MessageWriter) *Dispatcher {
	return &Dispatcher{writer: writer, now: time.Now}
}

func (d *Dispatcher) Dispatch(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	occurredAt := d.now().UTC()
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(Envelope{
			Name:        e.EventName(),
			AggregateID: e.AggregateID(),
			OccurredAt:  occurredAt,
			Payload:     e,
		})
		if err != nil {
			return fmt.Errorf("marshaling event %s: %w", e.EventName(), err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.AggregateID()),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event", Value: []byte(e.EventName())},
			},
		})
	}

	if err := d.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing %d events: %w", len(msgs), err)
	}

	return nil
}
