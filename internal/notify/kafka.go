package notify

import (
	"context"
	"fmt"
	"time"

	"neohub_monitor/internal/config"
	"neohub_monitor/internal/models"

	"github.com/segmentio/kafka-go"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes transitions to one topic keyed by zone, so a zone's
// transitions stay ordered within a partition.
type Kafka struct {
	writer kafkaWriter
	now    func() time.Time
}

func NewKafka(cfg config.KafkaConfig) *Kafka {
	return newKafka(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	})
}

func newKafka(w kafkaWriter) *Kafka {
	return &Kafka{writer: w, now: time.Now}
}

func (k *Kafka) Publish(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	now := k.now()
	msgs := make([]kafka.Message, 0, len(alerts))
	for _, a := range alerts {
		payload, err := encode(a, now)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(a.Key().Zone.String()),
			Value: payload,
			Time:  now,
		})
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka publish %d alerts: %w", len(msgs), err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.writer.Close() }
