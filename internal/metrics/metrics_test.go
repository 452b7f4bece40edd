package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"neohub_monitor/internal/config"
	"neohub_monitor/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestMetrics_CycleAndSnapshot(t *testing.T) {
	m := New()
	m.ObserveCycle(models.CycleReport{Status: models.SnapshotOK, Duration: 120 * time.Millisecond, Attempts: 1, Skipped: 2})
	m.ObserveCycle(models.CycleReport{Status: models.SnapshotPartial, Error: "timeout", Attempts: 3})
	m.ObserveSnapshot(models.Snapshot{Devices: []models.Device{
		{ID: "D1", Online: true, Zones: []models.Zone{
			{Name: "Kitchen", Indicators: models.NewIndicatorSet(models.IndicatorHeating, models.IndicatorLowBattery)},
			{Name: "Hall", Indicators: models.NewIndicatorSet(models.IndicatorNormal)},
		}},
		{ID: "D2", Online: false},
	}}, 2)
	m.ObserveTransitions([]models.Alert{{Indicator: models.IndicatorHeating, State: models.AlertOpen}})
	m.ObserveCommand("set_temperature", nil)
	m.ObserveCommand("set_mode", errors.New("rejected"))

	body := scrape(t, m)
	for _, want := range []string{
		`neohub_poll_cycles_total{aborted="false",status="OK"} 1`,
		`neohub_poll_cycles_total{aborted="true",status="Partial"} 1`,
		`neohub_skipped_records_total 2`,
		`neohub_devices{state="online"} 1`,
		`neohub_devices{state="offline"} 1`,
		`neohub_zones{indicator="Heating"} 1`,
		`neohub_zones{indicator="WindowOpen"} 0`,
		`neohub_open_alerts 2`,
		`neohub_alert_transitions_total{indicator="Heating",state="Open"} 1`,
		`neohub_commands_total{command="set_mode",result="error"} 1`,
		`neohub_commands_total{command="set_temperature",result="ok"} 1`,
	} {
		assert.Contains(t, body, want)
	}
}

func TestMetrics_GinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/v1/zones/:device", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/zones/D1", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	body := scrape(t, m)
	assert.Contains(t, body, `neohub_http_requests_total{method="GET",route="/api/v1/zones/:device",status="204"} 1`)
	assert.Contains(t, body, `neohub_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveCommand("set_away", nil)
	assert.NotContains(t, scrape(t, b), `command="set_away"`)
}

func TestFromConfig_WithoutStatsd(t *testing.T) {
	m, err := FromConfig(config.MetricsConfig{Enabled: true})
	require.NoError(t, err)
	assert.Nil(t, m.statsd)
	assert.NoError(t, m.Close())
}

func TestFromConfig_WithStatsd(t *testing.T) {
	m, err := FromConfig(config.MetricsConfig{Enabled: true, StatsdAddr: "127.0.0.1:8125", Namespace: "neohub.", Tags: []string{"env:test"}})
	require.NoError(t, err)
	require.NotNil(t, m.statsd)
	m.ObserveSnapshot(models.Snapshot{}, 0)
	assert.NoError(t, m.Close())
}
