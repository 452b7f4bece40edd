package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"neohub_monitor/internal/config"
	"neohub_monitor/internal/logger"
	"neohub_monitor/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func alerts() []models.Alert {
	cleared := fixedNow
	return []models.Alert{
		{ID: "a1", DeviceID: "D1", Zone: "Kitchen", Indicator: models.IndicatorHeating, State: models.AlertOpen, FirstSeen: fixedNow, LastSeen: fixedNow},
		{ID: "a2", DeviceID: "D1", Zone: "Bath/Up", Indicator: models.IndicatorWindowOpen, State: models.AlertCleared,
			FirstSeen: fixedNow.Add(-time.Hour), LastSeen: fixedNow.Add(-time.Minute), ClearedAt: &cleared},
	}
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error, completed bool) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	if completed {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeMQTT struct {
	sent         []published
	tokens       []*fakeToken
	disconnected bool
}

func (f *fakeMQTT) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.sent = append(f.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	if len(f.tokens) == 0 {
		return newToken(nil, true)
	}
	tok := f.tokens[0]
	f.tokens = f.tokens[1:]
	return tok
}

func (f *fakeMQTT) Disconnect(uint) { f.disconnected = true }

func TestMQTT_PublishTopicsAndPayload(t *testing.T) {
	client := &fakeMQTT{}
	m := newMQTT(client, "neohub/")
	m.now = func() time.Time { return fixedNow }

	require.NoError(t, m.Publish(context.Background(), alerts()))
	require.Len(t, client.sent, 2)
	assert.Equal(t, "neohub/alerts/D1/Kitchen", client.sent[0].topic)
	assert.Equal(t, "neohub/alerts/D1/Bath_Up", client.sent[1].topic)
	assert.Equal(t, byte(mqttQoS), client.sent[0].qos)

	var msg Message
	require.NoError(t, json.Unmarshal(client.sent[1].payload, &msg))
	assert.Equal(t, TransitionCleared, msg.Transition)
	assert.Equal(t, "a2", msg.Alert.ID)
	assert.True(t, msg.PublishedAt.Equal(fixedNow))

	require.NoError(t, m.Close())
	assert.True(t, client.disconnected)
}

func TestMQTT_PublishCollectsErrors(t *testing.T) {
	client := &fakeMQTT{tokens: []*fakeToken{newToken(errors.New("not authorized"), true), newToken(nil, true)}}
	m := newMQTT(client, "neohub")

	err := m.Publish(context.Background(), alerts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
	assert.Len(t, client.sent, 2)
}

func TestMQTT_PublishHonoursContext(t *testing.T) {
	client := &fakeMQTT{tokens: []*fakeToken{newToken(nil, false)}}
	m := newMQTT(client, "neohub")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Publish(ctx, alerts())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, client.sent, 1)
}

type fakeKafka struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeKafka) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeKafka) Close() error { f.closed = true; return nil }

func TestKafka_PublishKeyedByZone(t *testing.T) {
	w := &fakeKafka{}
	k := newKafka(w)
	k.now = func() time.Time { return fixedNow }

	require.NoError(t, k.Publish(context.Background(), alerts()))
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "D1/Kitchen", string(w.msgs[0].Key))
	assert.Equal(t, "D1/Bath/Up", string(w.msgs[1].Key))

	var msg Message
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &msg))
	assert.Equal(t, TransitionOpened, msg.Transition)
	assert.Equal(t, models.IndicatorHeating, msg.Alert.Indicator)

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestKafka_EmptyAndError(t *testing.T) {
	w := &fakeKafka{err: errors.New("leader not available")}
	k := newKafka(w)

	require.NoError(t, k.Publish(context.Background(), nil))
	assert.Empty(t, w.msgs)

	err := k.Publish(context.Background(), alerts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Publish(context.Context, []models.Alert) error { c.calls++; return c.err }
func (c *countingNotifier) Close() error                                  { return c.err }

func TestMulti_FansOutDespiteFailures(t *testing.T) {
	bad := &countingNotifier{err: errors.New("down")}
	good := &countingNotifier{}
	m := Multi{bad, good}

	err := m.Publish(context.Background(), alerts())
	require.Error(t, err)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, good.calls)
	assert.Error(t, m.Close())
}

func TestFromConfig_NothingEnabled(t *testing.T) {
	n := FromConfig(config.NotifyConfig{Timeout: time.Second}, logger.Nop())
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.Publish(context.Background(), alerts()))
}

func TestFromConfig_KafkaOnly(t *testing.T) {
	n := FromConfig(config.NotifyConfig{
		Timeout: time.Second,
		Kafka:   config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "neohub.alerts"},
	}, logger.Nop())
	multi, ok := n.(Multi)
	require.True(t, ok)
	require.Len(t, multi, 1)
	assert.IsType(t, &Kafka{}, multi[0])
	assert.NoError(t, n.Close())
}
