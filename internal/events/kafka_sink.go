package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaSink appends events to a topic keyed by lot id, so one lot stays on one partition
type KafkaSink struct {
	w *kafka.Writer
}

// NewKafkaSink configures the writer:
// - Hash + Key: a lot's events land on the same partition in order.
// - RequireAll: wait for in-sync replicas.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 20 * time.Millisecond,
		},
	}
}

func (s *KafkaSink) Name() string { return "kafka" }

// Close releases writer resources
func (s *KafkaSink) Close() error { return s.w.Close() }

func (s *KafkaSink) Deliver(ctx context.Context, evt Event) error {
	msg, err := encodeKafkaMessage(evt)
	if err != nil {
		return err
	}
	return s.w.WriteMessages(ctx, msg)
}

func encodeKafkaMessage(evt Event) (kafka.Message, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka sink: marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(evt.Key()),
		Value: b,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
		Time: evt.Timestamp,
	}, nil
}
