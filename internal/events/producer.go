// Package events publishes order lifecycle events to Kafka for out-of-band
// consumers such as the SMS notifier worker. Publishing is best effort and
// never gates a lifecycle transition.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tonyorjime-cloud/agromath-mvp/internal/models"
)

type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(brokers []string, topic string, logger *slog.Logger) *Producer {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &Producer{writer: w, logger: logger}
}

// Publish keys by order id so per-order events stay ordered within a
// partition. Failures are logged, not returned.
func (p *Producer) Publish(ev models.LifecycleEvent) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, _ := json.Marshal(ev)
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.OrderID), Value: b}); err != nil {
		p.logger.Warn("event publish failed", "order_id", ev.OrderID, "kind", ev.Kind, "error", err)
	}
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
