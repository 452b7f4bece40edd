package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"neohub_monitor/internal/config"
	"neohub_monitor/internal/logger"
	"neohub_monitor/internal/models"
)

// Notifier publishes alert transitions to an outside sink.
type Notifier interface {
	Publish(ctx context.Context, alerts []models.Alert) error
	Close() error
}

// Transition names carried in a Message.
const (
	TransitionOpened  = "opened"
	TransitionCleared = "cleared"
)

// Message is the JSON payload sent for one alert transition.
type Message struct {
	Transition  string       `json:"transition"`
	Alert       models.Alert `json:"alert"`
	PublishedAt time.Time    `json:"published_at"`
}

func newMessage(a models.Alert, now time.Time) Message {
	tr := TransitionOpened
	if a.State == models.AlertCleared {
		tr = TransitionCleared
	}
	return Message{Transition: tr, Alert: a, PublishedAt: now.UTC()}
}

func encode(a models.Alert, now time.Time) ([]byte, error) {
	return json.Marshal(newMessage(a, now))
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, []models.Alert) error { return nil }
func (Nop) Close() error                                  { return nil }

// Multi fans out to every sink. One failing sink does not stop the others.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, alerts []models.Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the enabled sinks. With none enabled it returns Nop.
// A sink that cannot connect is logged and skipped.
func FromConfig(cfg config.NotifyConfig, log *logger.Logger) Notifier {
	var sinks Multi
	if cfg.MQTT.Enabled {
		m, err := NewMQTT(cfg.MQTT, cfg.Timeout)
		if err != nil {
			log.Warnw("notify_mqtt_unavailable", "broker", cfg.MQTT.Broker, "error", err)
		} else {
			log.Infow("notify_mqtt_connected", "broker", cfg.MQTT.Broker, "topic_prefix", cfg.MQTT.TopicPrefix)
			sinks = append(sinks, m)
		}
	}
	if cfg.Kafka.Enabled {
		sinks = append(sinks, NewKafka(cfg.Kafka))
		log.Infow("notify_kafka_enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	if len(sinks) == 0 {
		return Nop{}
	}
	return sinks
}
