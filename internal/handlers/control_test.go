package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"neohub_monitor/internal/hub"
	"neohub_monitor/internal/models"
	"neohub_monitor/internal/service"
)

func post(t *testing.T, s *service.Service, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := newTestRouter(s)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header = authHeader("valid")
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestControlHandlers_Commands(t *testing.T) {
	ctl := &mockControl{ack: hub.Ack{AcceptedAt: time.Now()}}
	s := &service.Service{Authorization: &mockAuth{}, Control: ctl}

	w := post(t, s, "/api/v1/zones/D1/Kitchen/temperature", `{"temperature":21.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("temperature status=%d body=%s", w.Code, w.Body.String())
	}
	if ctl.lastDevice != "D1" || ctl.lastZone != "Kitchen" || ctl.lastTemp != 21.5 {
		t.Fatalf("unexpected call %+v", ctl)
	}

	w = post(t, s, "/api/v1/zones/D1/Kitchen/mode", `{"mode":"Cool"}`)
	if w.Code != http.StatusOK || ctl.lastMode != models.ModeCool {
		t.Fatalf("mode status=%d mode=%q", w.Code, ctl.lastMode)
	}

	w = post(t, s, "/api/v1/devices/D1/away", `{"away":false}`)
	if w.Code != http.StatusOK || ctl.lastAway {
		t.Fatalf("away status=%d away=%v", w.Code, ctl.lastAway)
	}
	if ctl.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", ctl.calls)
	}
}

func TestControlHandlers_BodyValidation(t *testing.T) {
	ctl := &mockControl{}
	s := &service.Service{Authorization: &mockAuth{}, Control: ctl}

	cases := map[string]string{
		"/api/v1/zones/D1/Kitchen/temperature": `{}`,
		"/api/v1/zones/D1/Kitchen/mode":        `{"mode":""}`,
		"/api/v1/devices/D1/away":              `{"away":"yes"}`,
	}
	for target, body := range cases {
		if w := post(t, s, target, body); w.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: expected 400, got %d", target, body, w.Code)
		}
	}
	if ctl.calls != 0 {
		t.Fatalf("invalid bodies reached the service")
	}
}

func TestControlHandlers_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid", &hub.CommandError{Kind: hub.CommandInvalid, Message: "setpoint 40.0 outside 5.0..30.0"}, http.StatusBadRequest},
		{"rejected", &hub.CommandError{Kind: hub.CommandRejected, Message: "zone locked"}, http.StatusUnprocessableEntity},
		{"auth", &hub.CommandError{Kind: hub.CommandAuth}, http.StatusBadGateway},
		{"network", &hub.CommandError{Kind: hub.CommandNetwork, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"unknown zone", fmt.Errorf("%w: D1/Attic", service.ErrUnknownZone), http.StatusNotFound},
		{"unknown device", fmt.Errorf("%w: D9", service.ErrUnknownDevice), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &service.Service{Authorization: &mockAuth{}, Control: &mockControl{err: tc.err}}
			w := post(t, s, "/api/v1/zones/D1/Kitchen/temperature", `{"temperature":21}`)
			if w.Code != tc.code {
				t.Fatalf("expected %d, got %d (%s)", tc.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestControlHandlers_History(t *testing.T) {
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	ctl := &mockControl{points: []hub.HistoryPoint{{Time: at, ActualTemp: models.Some(20.5)}}}
	s := &service.Service{Authorization: &mockAuth{}, Control: ctl}

	w := get(t, s, "/api/v1/zones/D1/Kitchen/history?from=2025-03-01&to=2025-03-01")
	if w.Code != http.StatusOK {
		t.Fatalf("history status=%d body=%s", w.Code, w.Body.String())
	}
	if !ctl.lastRange.From.Equal(at.Truncate(24*time.Hour)) || ctl.lastRange.To.Hour() != 23 {
		t.Fatalf("unexpected range %+v", ctl.lastRange)
	}

	if w := get(t, s, "/api/v1/zones/D1/Kitchen/history?from=bogus"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	ctl.err = &hub.FetchError{Op: "hm_get_history", Status: 503, Transient: true}
	if w := get(t, s, "/api/v1/zones/D1/Kitchen/history"); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
