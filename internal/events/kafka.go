package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ridecore/internal/observability"
)

const writeTimeout = 2 * time.Second

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON keyed by vehicle ID, so every event of
// one vehicle lands on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	err = k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.VehicleID), Value: b, Time: e.OccurredAt})
	if err != nil {
		observability.EventsPublished.WithLabelValues(string(e.Type), "error").Inc()
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	observability.EventsPublished.WithLabelValues(string(e.Type), "ok").Inc()
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
