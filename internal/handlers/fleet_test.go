package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"neohub_monitor/internal/export"
	"neohub_monitor/internal/metrics"
	"neohub_monitor/internal/models"
	"neohub_monitor/internal/service"
	"neohub_monitor/internal/view"
)

func get(t *testing.T, s *service.Service, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := newTestRouter(s)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header = authHeader("valid")
	r.ServeHTTP(w, req)
	return w
}

func TestFleetHandlers_RequireAuth(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, Monitoring: &mockMonitoring{}})
	for _, path := range []string{"/api/v1/snapshot", "/api/v1/overview", "/api/v1/matrix", "/api/v1/alerts", "/api/v1/export"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without auth, got %d", path, w.Code)
		}
	}
}

func TestFleetHandlers_SnapshotAndOverview(t *testing.T) {
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	mon := &mockMonitoring{
		snapshot: models.Snapshot{TakenAt: at, Status: models.SnapshotOK, Devices: []models.Device{{ID: "D1", Name: "Home", Online: true, Type: models.DeviceThermostat}}},
		overview: view.Overview{TotalDevices: 1, OnlineDevices: 1},
	}
	s := &service.Service{Authorization: &mockAuth{}, Monitoring: mon}

	w := get(t, s, "/api/v1/snapshot")
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot status=%d body=%s", w.Code, w.Body.String())
	}
	var snap models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if !snap.TakenAt.Equal(at) || len(snap.Devices) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	w = get(t, s, "/api/v1/overview")
	var ov view.Overview
	_ = json.Unmarshal(w.Body.Bytes(), &ov)
	if w.Code != http.StatusOK || ov.TotalDevices != 1 {
		t.Fatalf("unexpected overview %d %+v", w.Code, ov)
	}
}

func TestFleetHandlers_MatrixQueryParsing(t *testing.T) {
	mon := &mockMonitoring{rows: []view.Row{{DeviceID: "D1", Zone: "Kitchen"}}}
	s := &service.Service{Authorization: &mockAuth{}, Monitoring: mon}

	w := get(t, s, "/api/v1/matrix?sort=actual_temp&desc=true&device=D1,D2&device=D3&type=socket&indicator=heating,lowbattery&online=1&q=kit")
	if w.Code != http.StatusOK {
		t.Fatalf("matrix status=%d body=%s", w.Code, w.Body.String())
	}
	q := mon.lastMatrixQuery
	if q.Order.Key != view.SortActualTemp || !q.Order.Desc {
		t.Fatalf("unexpected order %+v", q.Order)
	}
	if len(q.Filter.DeviceIDs) != 3 || q.Filter.DeviceIDs[2] != "D3" {
		t.Fatalf("unexpected devices %v", q.Filter.DeviceIDs)
	}
	if len(q.Filter.Types) != 1 || q.Filter.Types[0] != models.DeviceSocket {
		t.Fatalf("unexpected types %v", q.Filter.Types)
	}
	if len(q.Filter.Indicators) != 2 || q.Filter.Indicators[1] != models.IndicatorLowBattery {
		t.Fatalf("unexpected indicators %v", q.Filter.Indicators)
	}
	if !q.Filter.OnlineOnly || q.Filter.Query != "kit" {
		t.Fatalf("unexpected filter %+v", q.Filter)
	}
	var out struct {
		Count int        `json:"count"`
		Rows  []view.Row `json:"rows"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 1 {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestFleetHandlers_MatrixBadParams(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{}, Monitoring: &mockMonitoring{}}
	for _, target := range []string{
		"/api/v1/matrix?sort=colour",
		"/api/v1/matrix?desc=maybe",
		"/api/v1/matrix?type=boiler",
		"/api/v1/matrix?indicator=smoke",
		"/api/v1/matrix?online=perhaps",
	} {
		if w := get(t, s, target); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestFleetHandlers_Alerts(t *testing.T) {
	mon := &mockMonitoring{alerts: []models.Alert{{ID: "a1", State: models.AlertOpen}}}
	s := &service.Service{Authorization: &mockAuth{}, Monitoring: mon}

	w := get(t, s, "/api/v1/alerts?state=all&indicator=windowopen&device=D1&from=2025-03-01")
	if w.Code != http.StatusOK {
		t.Fatalf("alerts status=%d body=%s", w.Code, w.Body.String())
	}
	q := mon.lastAlertQuery
	if q.Scope != "all" || q.Indicator != models.IndicatorWindowOpen || q.DeviceID != "D1" || q.From.IsZero() {
		t.Fatalf("unexpected query %+v", q)
	}

	if w := get(t, s, "/api/v1/alerts?indicator=smoke"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown indicator, got %d", w.Code)
	}

	mon.err = service.ErrInvalidScope
	if w := get(t, s, "/api/v1/alerts?state=closed"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid scope, got %d", w.Code)
	}

	mon.err = errors.New("db closed")
	if w := get(t, s, "/api/v1/alerts?state=all"); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestFleetHandlers_Devices(t *testing.T) {
	mon := &mockMonitoring{devices: []view.DeviceSummary{{DeviceID: "D1", Zones: 2}}}
	w := get(t, &service.Service{Authorization: &mockAuth{}, Monitoring: mon}, "/api/v1/devices")
	var out struct {
		Count   int                  `json:"count"`
		Devices []view.DeviceSummary `json:"devices"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if w.Code != http.StatusOK || out.Count != 1 || out.Devices[0].Zones != 2 {
		t.Fatalf("unexpected devices response %d %s", w.Code, w.Body.String())
	}
}

func TestFleetHandlers_Export(t *testing.T) {
	exp := &mockExporter{res: service.ExportResult{
		FileName:    "neohub_export_20250301_080000.csv",
		ContentType: "text/csv; charset=utf-8",
		Body:        []byte("zone,status\nKitchen,Heating\n"),
	}}
	s := &service.Service{Authorization: &mockAuth{}, Exporter: exp}

	w := get(t, s, "/api/v1/export?fields=zone,status&sort=zone")
	if w.Code != http.StatusOK {
		t.Fatalf("export status=%d body=%s", w.Code, w.Body.String())
	}
	if exp.lastReq.Format != "csv" || exp.lastReq.Fields != "zone,status" || exp.lastReq.Matrix.Order.Key != view.SortZone {
		t.Fatalf("unexpected request %+v", exp.lastReq)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="neohub_export_20250301_080000.csv"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if w.Header().Get("Content-Type") != "text/csv; charset=utf-8" || w.Body.String() != "zone,status\nKitchen,Heating\n" {
		t.Fatalf("unexpected body %q (%s)", w.Body.String(), w.Header().Get("Content-Type"))
	}

	exp.err = &export.ExportError{Value: "colour", Err: export.ErrInvalidField}
	if w := get(t, s, "/api/v1/export?fields=colour"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid field, got %d", w.Code)
	}
}

func TestFleetHandlers_TriggerPoll(t *testing.T) {
	poller := &mockPoller{report: models.CycleReport{Status: models.SnapshotOK, Devices: 2, Attempts: 1}}
	s := &service.Service{Authorization: &mockAuth{}, Poller: poller}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/poll", nil)
	req.Header = authHeader("valid")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || poller.cycles != 1 {
		t.Fatalf("poll status=%d cycles=%d", w.Code, poller.cycles)
	}
	var rep models.CycleReport
	_ = json.Unmarshal(w.Body.Bytes(), &rep)
	if rep.Devices != 2 {
		t.Fatalf("unexpected report %+v", rep)
	}

	poller.report = models.CycleReport{Status: models.SnapshotPartial, Error: "fetch devices: timeout"}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/poll", nil)
	req.Header = authHeader("valid")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for aborted cycle, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{}, Monitoring: &mockMonitoring{}}
	router := NewHandler(s, nil).WithMetrics(metrics.New()).InitRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil)
	req.Header = authHeader("valid")
	router.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `neohub_http_requests_total{`) || !strings.Contains(w.Body.String(), `route="/api/v1/overview"`) {
		t.Fatalf("request not recorded:\n%s", w.Body.String())
	}
}

func TestMetricsEndpoint_DisabledByDefault(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without metrics, got %d", w.Code)
	}
}
