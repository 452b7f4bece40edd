package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"neohub_monitor/internal/hub"
	"neohub_monitor/internal/logger"
	"neohub_monitor/internal/models"
)

type controlFixture struct {
	hub      *fakeHub
	store    *StateStore
	events   *fakeEventRepo
	recorder *fakeRecorder
	svc      *ControlService
}

func newControlFixture(h *fakeHub) *controlFixture {
	f := &controlFixture{hub: h, store: NewStateStore(), events: &fakeEventRepo{}, recorder: &fakeRecorder{}}
	sessions := NewSessionManager(h, hub.Credentials{Username: "u"}, time.Hour)
	f.svc = NewControlService(h, sessions, f.store, f.events, f.recorder, logger.Nop(), SetpointRange{Min: 5, Max: 30})
	return f
}

func (f *controlFixture) withFleet() {
	f.store.Store(&State{Snapshot: models.Snapshot{
		TakenAt: t0,
		Status:  models.SnapshotOK,
		Devices: []models.Device{{
			ID: "D1", Name: "Home", Online: true, Type: models.DeviceThermostat,
			Zones: []models.Zone{
				{DeviceID: "D1", Name: "Kitchen", Kind: models.DeviceThermostat, HeatMode: models.ModeHeat},
				{DeviceID: "D1", Name: "Lamp", Kind: models.DeviceSocket, HeatMode: models.ModeOff},
			},
		}},
	}})
}

func TestControl_SetTemperature_Sends(t *testing.T) {
	f := newControlFixture(&fakeHub{})
	f.withFleet()

	ack, err := f.svc.SetTemperature(context.Background(), "D1", "Kitchen", 21.5)
	if err != nil {
		t.Fatalf("SetTemperature: %v", err)
	}
	if ack.Command.Kind != hub.CmdSetTemperature || ack.Command.Temperature != 21.5 {
		t.Fatalf("unexpected ack %+v", ack)
	}
	if len(f.hub.sent) != 1 || f.hub.sent[0].Zone != "Kitchen" {
		t.Fatalf("unexpected commands %+v", f.hub.sent)
	}
	if len(f.events.appended) != 1 || f.events.appended[0].Type != models.EventCommand {
		t.Fatalf("expected COMMAND audit event, got %v", f.events.types())
	}
	if len(f.recorder.commands) != 1 || f.recorder.errs[0] != nil {
		t.Fatalf("command not recorded: %v %v", f.recorder.commands, f.recorder.errs)
	}
}

func TestControl_SetTemperature_Validation(t *testing.T) {
	tests := []struct {
		name    string
		device  string
		zone    string
		temp    float64
		wantErr error
		kind    hub.CommandErrorKind
	}{
		{name: "below range", device: "D1", zone: "Kitchen", temp: 4.5, kind: hub.CommandInvalid},
		{name: "above range", device: "D1", zone: "Kitchen", temp: 30.5, kind: hub.CommandInvalid},
		{name: "socket zone", device: "D1", zone: "Lamp", temp: 20, kind: hub.CommandInvalid},
		{name: "unknown device", device: "D9", zone: "Kitchen", temp: 20, wantErr: ErrUnknownDevice},
		{name: "unknown zone", device: "D1", zone: "Attic", temp: 20, wantErr: ErrUnknownZone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newControlFixture(&fakeHub{})
			f.withFleet()

			_, err := f.svc.SetTemperature(context.Background(), tc.device, tc.zone, tc.temp)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.kind != "" {
				var ce *hub.CommandError
				if !errors.As(err, &ce) || ce.Kind != tc.kind {
					t.Fatalf("expected CommandError %s, got %v", tc.kind, err)
				}
			}
			if len(f.hub.sent) != 0 {
				t.Fatalf("invalid command reached the hub")
			}
		})
	}
}

func TestControl_NoSnapshotYetStillSends(t *testing.T) {
	f := newControlFixture(&fakeHub{})

	if _, err := f.svc.SetMode(context.Background(), "D1", "Kitchen", "heat"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if f.hub.sent[0].Mode != models.ModeHeat {
		t.Fatalf("mode not canonicalized: %q", f.hub.sent[0].Mode)
	}
}

func TestControl_RetriesOnceAfterAuthFailure(t *testing.T) {
	h := &fakeHub{}
	h.sendFn = func(s *hub.Session, cmd hub.Command) (hub.Ack, error) {
		if s.Token == "tok-1" {
			return hub.Ack{}, &hub.CommandError{Kind: hub.CommandAuth, Command: cmd.Kind, Message: "token expired"}
		}
		return hub.Ack{Command: cmd}, nil
	}
	f := newControlFixture(h)

	if _, err := f.svc.SetAway(context.Background(), "D1", true); err != nil {
		t.Fatalf("SetAway: %v", err)
	}
	if h.authCalls != 2 || len(h.sent) != 2 {
		t.Fatalf("expected one retry with a fresh login, logins=%d sends=%d", h.authCalls, len(h.sent))
	}
}

func TestControl_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		hubErr error
		kind   hub.CommandErrorKind
	}{
		{name: "rejected", hubErr: &hub.CommandError{Kind: hub.CommandRejected, Message: "zone locked"}, kind: hub.CommandRejected},
		{name: "network", hubErr: context.DeadlineExceeded, kind: hub.CommandNetwork},
		{name: "auth twice", hubErr: &hub.AuthError{Op: "set_away", Message: "invalid token"}, kind: hub.CommandAuth},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := &fakeHub{sendFn: func(*hub.Session, hub.Command) (hub.Ack, error) { return hub.Ack{}, tc.hubErr }}
			f := newControlFixture(h)

			_, err := f.svc.SetAway(context.Background(), "D1", false)
			var ce *hub.CommandError
			if !errors.As(err, &ce) || ce.Kind != tc.kind {
				t.Fatalf("expected %s CommandError, got %v", tc.kind, err)
			}
			if f.recorder.errs[0] == nil {
				t.Fatalf("failure not recorded")
			}
			ev := f.events.appended[0]
			meta, _ := ev.Metadata.(map[string]any)
			if ev.Type != models.EventCommand || meta["accepted"] != false {
				t.Fatalf("unexpected audit event %+v", ev)
			}
		})
	}
}

func TestControl_History(t *testing.T) {
	var gotRange hub.Range
	h := &fakeHub{historyFn: func(s *hub.Session, deviceID, zone string, r hub.Range) ([]hub.HistoryPoint, error) {
		gotRange = r
		return []hub.HistoryPoint{{Time: t0, ActualTemp: models.Some(20.0)}}, nil
	}}
	f := newControlFixture(h)
	f.withFleet()
	r := hub.Range{From: t0.Add(-time.Hour), To: t0}

	points, err := f.svc.History(context.Background(), "D1", "Kitchen", r)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(points) != 1 || gotRange != r {
		t.Fatalf("unexpected history %v range %v", points, gotRange)
	}

	if _, err := f.svc.History(context.Background(), "D1", "Kitchen", hub.Range{From: t0, To: t0.Add(-time.Hour)}); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestControl_HistoryEmptyIsNonNil(t *testing.T) {
	f := newControlFixture(&fakeHub{})

	points, err := f.svc.History(context.Background(), "D1", "Kitchen", hub.Range{})
	if err != nil || points == nil {
		t.Fatalf("expected empty non-nil slice, got %v %v", points, err)
	}
}
