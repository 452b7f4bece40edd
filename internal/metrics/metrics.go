package metrics

import (
	"net/http"
	"strconv"
	"time"

	"neohub_monitor/internal/config"
	"neohub_monitor/internal/models"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "neohub"

// Metrics holds the service collectors on a private registry. When a StatsD
// address is configured the fleet gauges are mirrored there too.
type Metrics struct {
	registry *prometheus.Registry

	cycles           *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	fetchAttempts    prometheus.Histogram
	devices          *prometheus.GaugeVec
	zones            *prometheus.GaugeVec
	openAlerts       prometheus.Gauge
	alertTransitions *prometheus.CounterVec
	skippedRecords   prometheus.Counter
	commands         *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec

	statsd statsd.ClientInterface
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Poll cycles by resulting snapshot status.",
		}, []string{"status", "aborted"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Wall time of one poll cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		fetchAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_fetch_attempts",
			Help:      "Hub fetch attempts needed per cycle.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		devices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices",
			Help:      "Devices in the current snapshot by connectivity.",
		}, []string{"state"}),
		zones: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "zones",
			Help:      "Zones in the current snapshot carrying each indicator.",
		}, []string{"indicator"}),
		openAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_alerts",
			Help:      "Currently open alerts.",
		}),
		alertTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_transitions_total",
			Help:      "Alert transitions by indicator and new state.",
		}, []string{"indicator", "state"}),
		skippedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_records_total",
			Help:      "Raw records rejected by the normalizer.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Control commands by kind and result.",
		}, []string{"command", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.cycles,
		m.cycleDuration,
		m.fetchAttempts,
		m.devices,
		m.zones,
		m.openAlerts,
		m.alertTransitions,
		m.skippedRecords,
		m.commands,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// FromConfig builds Metrics and attaches the StatsD mirror when an address is set.
func FromConfig(cfg config.MetricsConfig) (*Metrics, error) {
	m := New()
	if cfg.StatsdAddr == "" {
		return m, nil
	}
	client, err := statsd.New(cfg.StatsdAddr)
	if err != nil {
		return m, err
	}
	client.Namespace = cfg.Namespace
	client.Tags = cfg.Tags
	m.statsd = client
	return m, nil
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycle records one finished cycle.
func (m *Metrics) ObserveCycle(r models.CycleReport) {
	m.cycles.WithLabelValues(string(r.Status), strconv.FormatBool(r.Aborted())).Inc()
	m.cycleDuration.Observe(r.Duration.Seconds())
	if r.Attempts > 0 {
		m.fetchAttempts.Observe(float64(r.Attempts))
	}
	m.skippedRecords.Add(float64(r.Skipped))
	m.gauge("cycle.duration_ms", float64(r.Duration.Milliseconds()), "status:"+string(r.Status))
}

// ObserveSnapshot sets the fleet gauges from the committed snapshot.
func (m *Metrics) ObserveSnapshot(s models.Snapshot, open int) {
	online, offline := 0, 0
	for _, d := range s.Devices {
		if d.Online {
			online++
		} else {
			offline++
		}
	}
	m.devices.WithLabelValues("online").Set(float64(online))
	m.devices.WithLabelValues("offline").Set(float64(offline))

	counts := make(map[models.StatusIndicator]int, len(models.AllIndicators))
	for _, z := range s.Zones() {
		for _, ind := range z.Indicators.List() {
			counts[ind]++
		}
	}
	for _, ind := range models.AllIndicators {
		m.zones.WithLabelValues(string(ind)).Set(float64(counts[ind]))
		m.gauge("zones", float64(counts[ind]), "indicator:"+string(ind))
	}
	m.openAlerts.Set(float64(open))

	m.gauge("devices", float64(online), "state:online")
	m.gauge("devices", float64(offline), "state:offline")
	m.gauge("alerts.open", float64(open))
}

// ObserveTransitions counts opened and cleared alerts.
func (m *Metrics) ObserveTransitions(alerts []models.Alert) {
	for _, a := range alerts {
		m.alertTransitions.WithLabelValues(string(a.Indicator), string(a.State)).Inc()
	}
}

// ObserveCommand counts a control command outcome.
func (m *Metrics) ObserveCommand(command string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commands.WithLabelValues(command, result).Inc()
}

// GinMiddleware records request counts and latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Close flushes the StatsD mirror.
func (m *Metrics) Close() error {
	if m.statsd == nil {
		return nil
	}
	return m.statsd.Close()
}

func (m *Metrics) gauge(name string, value float64, tags ...string) {
	if m.statsd == nil {
		return
	}
	_ = m.statsd.Gauge(name, value, tags, 1)
}
