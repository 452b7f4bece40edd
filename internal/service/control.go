package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"neohub_monitor/internal/hub"
	"neohub_monitor/internal/logger"
	"neohub_monitor/internal/models"
	"neohub_monitor/internal/repository"
)

var (
	ErrUnknownDevice = errors.New("unknown device")
	ErrUnknownZone   = errors.New("unknown zone")
)

// SetpointRange bounds accepted target temperatures, inclusive.
type SetpointRange struct {
	Min float64
	Max float64
}

// ControlService forwards operator commands to the hub. It checks targets
// against the last snapshot but never waits for a poll.
type ControlService struct {
	hub      HubClient
	sessions *SessionManager
	store    *StateStore
	events   repository.EventRepo
	recorder Recorder
	log      *logger.Logger
	setpoint SetpointRange
}

func NewControlService(
	client HubClient,
	sessions *SessionManager,
	store *StateStore,
	events repository.EventRepo,
	recorder Recorder,
	log *logger.Logger,
	setpoint SetpointRange,
) *ControlService {
	return &ControlService{
		hub:      client,
		sessions: sessions,
		store:    store,
		events:   events,
		recorder: recorder,
		log:      log,
		setpoint: setpoint,
	}
}

func (s *ControlService) SetTemperature(ctx context.Context, deviceID, zone string, temp float64) (hub.Ack, error) {
	cmd := hub.Command{Kind: hub.CmdSetTemperature, DeviceID: deviceID, Zone: zone, Temperature: temp}
	if temp < s.setpoint.Min || temp > s.setpoint.Max {
		return hub.Ack{}, &hub.CommandError{
			Kind:    hub.CommandInvalid,
			Command: cmd.Kind,
			Message: fmt.Sprintf("setpoint %.1f outside %.1f..%.1f", temp, s.setpoint.Min, s.setpoint.Max),
		}
	}
	z, err := s.lookupZone(deviceID, zone)
	if err != nil {
		return hub.Ack{}, err
	}
	if z != nil && z.Kind == models.DeviceSocket {
		return hub.Ack{}, &hub.CommandError{Kind: hub.CommandInvalid, Command: cmd.Kind, Message: "zone is a socket"}
	}
	return s.send(ctx, cmd)
}

func (s *ControlService) SetMode(ctx context.Context, deviceID, zone string, mode models.HeatMode) (hub.Ack, error) {
	cmd := hub.Command{Kind: hub.CmdSetMode, DeviceID: deviceID, Zone: zone, Mode: canonicalMode(mode)}
	if _, err := s.lookupZone(deviceID, zone); err != nil {
		return hub.Ack{}, err
	}
	return s.send(ctx, cmd)
}

func (s *ControlService) SetAway(ctx context.Context, deviceID string, away bool) (hub.Ack, error) {
	cmd := hub.Command{Kind: hub.CmdSetAway, DeviceID: deviceID, Away: away}
	if _, err := s.lookupDevice(deviceID); err != nil {
		return hub.Ack{}, err
	}
	return s.send(ctx, cmd)
}

// History reads one zone's temperature history straight from the hub.
func (s *ControlService) History(ctx context.Context, deviceID, zone string, r hub.Range) ([]hub.HistoryPoint, error) {
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return nil, ErrInvalidTimeRange
	}
	if _, err := s.lookupZone(deviceID, zone); err != nil {
		return nil, err
	}

	var points []hub.HistoryPoint
	err := s.withSession(ctx, func(sess *hub.Session) error {
		var err error
		points, err = s.hub.History(ctx, sess, deviceID, zone, r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("zone history %s/%s: %w", deviceID, zone, err)
	}
	if points == nil {
		points = []hub.HistoryPoint{}
	}
	return points, nil
}

func (s *ControlService) send(ctx context.Context, cmd hub.Command) (hub.Ack, error) {
	var ack hub.Ack
	err := s.withSession(ctx, func(sess *hub.Session) error {
		var err error
		ack, err = s.hub.SendCommand(ctx, sess, cmd)
		return err
	})
	if err != nil {
		err = asCommandError(cmd.Kind, err)
	}

	s.recorder.ObserveCommand(string(cmd.Kind), err)
	s.audit(ctx, cmd, err)
	if err != nil {
		s.log.Warnw("hub_command_failed", "command", cmd.Kind, "device_id", cmd.DeviceID, "zone", cmd.Zone, "error", err)
		return hub.Ack{}, err
	}
	s.log.Infow("hub_command_sent", "command", cmd.Kind, "device_id", cmd.DeviceID, "zone", cmd.Zone)
	return ack, nil
}

// withSession runs fn with the shared session. An auth failure drops the
// session and fn is retried once with a fresh login.
func (s *ControlService) withSession(ctx context.Context, fn func(*hub.Session) error) error {
	for attempt := 0; ; attempt++ {
		sess, err := s.sessions.Get(ctx)
		if err != nil {
			return err
		}
		err = fn(sess)
		if err == nil || !hub.IsAuth(err) || attempt > 0 {
			return err
		}
		s.sessions.Invalidate(sess)
	}
}

func (s *ControlService) audit(ctx context.Context, cmd hub.Command, cmdErr error) {
	desc := describeCommand(cmd)
	meta := map[string]any{
		"command":   cmd.Kind,
		"device_id": cmd.DeviceID,
		"zone":      cmd.Zone,
		"accepted":  cmdErr == nil,
	}
	if cmdErr != nil {
		desc += " failed: " + cmdErr.Error()
		meta["error"] = cmdErr.Error()
	}
	e := models.Event{
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventCommand,
		Description: desc,
		Metadata:    meta,
	}
	if err := s.events.Append(ctx, e); err != nil {
		s.log.Warnw("event_append_failed", "type", e.Type, "error", err)
	}
}

// lookupZone returns nil, nil while no snapshot has been taken yet.
func (s *ControlService) lookupZone(deviceID, zone string) (*models.Zone, error) {
	snap := s.store.Load().Snapshot
	if snap.IsEmpty() {
		return nil, nil
	}
	if _, ok := snap.Device(deviceID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}
	z, ok := snap.Zone(models.ZoneKey{DeviceID: deviceID, Zone: zone})
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownZone, deviceID, zone)
	}
	return &z, nil
}

func (s *ControlService) lookupDevice(deviceID string) (*models.Device, error) {
	snap := s.store.Load().Snapshot
	if snap.IsEmpty() {
		return nil, nil
	}
	d, ok := snap.Device(deviceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}
	return &d, nil
}

func asCommandError(kind hub.CommandKind, err error) error {
	var ce *hub.CommandError
	if errors.As(err, &ce) {
		return err
	}
	if hub.IsAuth(err) {
		return &hub.CommandError{Kind: hub.CommandAuth, Command: kind, Err: err}
	}
	return &hub.CommandError{Kind: hub.CommandNetwork, Command: kind, Err: err}
}

// canonicalMode accepts any letter case ("heat", "HEAT").
func canonicalMode(m models.HeatMode) models.HeatMode {
	for _, known := range []models.HeatMode{models.ModeHeat, models.ModeCool, models.ModeVent, models.ModeOff} {
		if strings.EqualFold(string(m), string(known)) {
			return known
		}
	}
	return m
}

func describeCommand(cmd hub.Command) string {
	switch cmd.Kind {
	case hub.CmdSetTemperature:
		return fmt.Sprintf("set temperature %s/%s to %.1f", cmd.DeviceID, cmd.Zone, cmd.Temperature)
	case hub.CmdSetMode:
		return fmt.Sprintf("set mode %s/%s to %s", cmd.DeviceID, cmd.Zone, cmd.Mode)
	case hub.CmdSetAway:
		return fmt.Sprintf("set away %s to %t", cmd.DeviceID, cmd.Away)
	}
	return string(cmd.Kind)
}
