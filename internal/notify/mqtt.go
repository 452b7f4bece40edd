package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"neohub_monitor/internal/config"
	"neohub_monitor/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttQoS = 1

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes each transition to <prefix>/alerts/<device>/<zone>.
type MQTT struct {
	client mqttClient
	prefix string
	now    func() time.Time
}

// NewMQTT connects to the broker and waits up to timeout for the handshake.
func NewMQTT(cfg config.MQTTConfig, timeout time.Duration) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(timeout)
	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect %s: timed out after %s", cfg.Broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	return newMQTT(client, cfg.TopicPrefix), nil
}

func newMQTT(client mqttClient, prefix string) *MQTT {
	return &MQTT{client: client, prefix: strings.TrimSuffix(prefix, "/"), now: time.Now}
}

func (m *MQTT) Publish(ctx context.Context, alerts []models.Alert) error {
	var errs []error
	for _, a := range alerts {
		payload, err := encode(a, m.now())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		topic := m.topic(a)
		token := m.client.Publish(topic, mqttQoS, false, payload)
		select {
		case <-token.Done():
			if err := token.Error(); err != nil {
				errs = append(errs, fmt.Errorf("mqtt publish %s: %w", topic, err))
			}
		case <-ctx.Done():
			return errors.Join(append(errs, fmt.Errorf("mqtt publish %s: %w", topic, ctx.Err()))...)
		}
	}
	return errors.Join(errs...)
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}

var topicEscaper = strings.NewReplacer("/", "_", "+", "_", "#", "_")

func (m *MQTT) topic(a models.Alert) string {
	return fmt.Sprintf("%s/alerts/%s/%s", m.prefix, topicEscaper.Replace(a.DeviceID), topicEscaper.Replace(a.Zone))
}
