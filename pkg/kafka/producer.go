// Package kafka ships tool-call analytics to a Kafka topic with
// segmentio/kafka-go. Values are JSON; the event key picks the partition so
// all calls of one tool stay ordered.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
)

const contentType = "application/json"

type Event struct {
	Key   string
	Value any
}

type Producer struct {
	writer    *kafka.Writer
	log       *slog.Logger
	published atomic.Int64
	failed    atomic.Int64
}

// NewProducer builds a writer for cfg.AnalyticsTopic. No connection is made
// until the first batch is written.
func NewProducer(cfg config.KafkaConfig) *Producer {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.AnalyticsTopic,
			Balancer:     &kafka.Hash{},
			BatchSize:    batch,
			BatchTimeout: 10 * time.Millisecond,
			MaxAttempts:  3,
			RequiredAcks: kafka.RequireOne,
			Compression:  kafka.Snappy,
		},
		log: logger.WithComponent("kafka-producer").With("topic", cfg.AnalyticsTopic),
	}
}

// Encode converts events to messages, stamping each with a content-type
// header.
func Encode(events []Event) ([]kafka.Message, error) {
	out := make([]kafka.Message, len(events))
	for i, ev := range events {
		v, err := json.Marshal(ev.Value)
		if err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", i, ev.Key, err)
		}
		out[i] = kafka.Message{
			Key:     []byte(ev.Key),
			Value:   v,
			Headers: []kafka.Header{{Key: "content-type", Value: []byte(contentType)}},
		}
	}
	return out, nil
}

// PublishBatch writes events in one call to the writer.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs, err := Encode(events)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.failed.Add(int64(len(msgs)))
		p.log.Error("publish failed", "count", len(msgs), "error", err)
		return fmt.Errorf("kafka publish of %d events: %w", len(msgs), err)
	}
	p.published.Add(int64(len(msgs)))
	p.log.Debug("published", "count", len(msgs))
	return nil
}

// Counts returns how many events were published and how many failed.
func (p *Producer) Counts() (published, failed int64) {
	return p.published.Load(), p.failed.Load()
}

// Close flushes buffered messages and logs the lifetime totals.
func (p *Producer) Close() error {
	err := p.writer.Close()
	pub, fail := p.Counts()
	p.log.Info("producer closed", "published", pub, "failed", fail)
	return err
}
