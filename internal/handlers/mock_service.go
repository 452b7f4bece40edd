package handlers

import (
	"context"
	"net/http"
	"time"

	"neohub_monitor/internal/hub"
	"neohub_monitor/internal/models"
	"neohub_monitor/internal/service"
	"neohub_monitor/internal/view"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}
func (m *mockAuth) EnsureOperator(username, password string) error { return nil }

type mockMonitoring struct {
	snapshot models.Snapshot
	overview view.Overview
	rows     []view.Row
	devices  []view.DeviceSummary
	alerts   []models.Alert
	err      error

	lastAlertQuery  service.AlertQuery
	lastMatrixQuery service.MatrixQuery
}

func (m *mockMonitoring) Snapshot(ctx context.Context) (models.Snapshot, error) {
	return m.snapshot, m.err
}
func (m *mockMonitoring) Alerts(ctx context.Context, q service.AlertQuery) ([]models.Alert, error) {
	m.lastAlertQuery = q
	return m.alerts, m.err
}
func (m *mockMonitoring) Overview(ctx context.Context) (view.Overview, error) {
	return m.overview, m.err
}
func (m *mockMonitoring) Live(ctx context.Context) (service.LiveView, error) {
	return service.LiveView{Overview: m.overview, OpenAlerts: m.alerts}, m.err
}
func (m *mockMonitoring) Matrix(ctx context.Context, q service.MatrixQuery) ([]view.Row, error) {
	m.lastMatrixQuery = q
	return m.rows, m.err
}
func (m *mockMonitoring) Devices(ctx context.Context) ([]view.DeviceSummary, error) {
	return m.devices, m.err
}

type mockControl struct {
	ack    hub.Ack
	err    error
	points []hub.HistoryPoint

	lastDevice string
	lastZone   string
	lastTemp   float64
	lastMode   models.HeatMode
	lastAway   bool
	lastRange  hub.Range
	calls      int
}

func (m *mockControl) SetTemperature(ctx context.Context, deviceID, zone string, temp float64) (hub.Ack, error) {
	m.calls++
	m.lastDevice, m.lastZone, m.lastTemp = deviceID, zone, temp
	return m.ack, m.err
}
func (m *mockControl) SetMode(ctx context.Context, deviceID, zone string, mode models.HeatMode) (hub.Ack, error) {
	m.calls++
	m.lastDevice, m.lastZone, m.lastMode = deviceID, zone, mode
	return m.ack, m.err
}
func (m *mockControl) SetAway(ctx context.Context, deviceID string, away bool) (hub.Ack, error) {
	m.calls++
	m.lastDevice, m.lastAway = deviceID, away
	return m.ack, m.err
}
func (m *mockControl) History(ctx context.Context, deviceID, zone string, r hub.Range) ([]hub.HistoryPoint, error) {
	m.calls++
	m.lastDevice, m.lastZone, m.lastRange = deviceID, zone, r
	return m.points, m.err
}

type mockEventLog struct {
	resp     []models.Event
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.Event, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockExporter struct {
	res     service.ExportResult
	err     error
	lastReq service.ExportRequest
}

func (m *mockExporter) Export(ctx context.Context, req service.ExportRequest) (service.ExportResult, error) {
	m.lastReq = req
	return m.res, m.err
}

type mockPoller struct {
	report models.CycleReport
	cycles int
}

func (m *mockPoller) Run(ctx context.Context, interval time.Duration) {}
func (m *mockPoller) RunCycle(ctx context.Context) models.CycleReport {
	m.cycles++
	return m.report
}
func (m *mockPoller) Restore(ctx context.Context) error { return nil }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
