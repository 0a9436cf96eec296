// Package kafka publishes availability snapshots to a Kafka topic so
// downstream consumers can track lot counts over time.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/parkscout/carpark-finder/internal/domain"
)

// Publisher produces one message per cleaned carpark record.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a producer for the availability topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (p *Publisher) Name() string { return "kafka" }

// WriteSnapshot serializes and publishes all records in a single
// WriteMessages call.
func (p *Publisher) WriteSnapshot(ctx context.Context, records []domain.CarparkRecord) error {
	if len(records) == 0 {
		return nil
	}

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeRecord(records[i], fetchedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	p.logger.Info("snapshot published", "topic", p.writer.Topic, "records", len(records))
	return nil
}

// Close flushes and closes the producer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeRecord marshals a carpark record into a Kafka message keyed by
// CarParkID so all of a carpark's lot types land on one partition.
func serializeRecord(rec domain.CarparkRecord, fetchedAt string) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize carpark record %s: %w", rec.CarParkID, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.CarParkID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "lot_type", Value: []byte(rec.LotType)},
			{Key: "fetched_at", Value: []byte(fetchedAt)},
		},
	}, nil
}
