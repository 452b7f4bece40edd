package service

import (
	"context"
	"time"

	"neohub_monitor/internal/config"
	"neohub_monitor/internal/hub"
	"neohub_monitor/internal/logger"
	"neohub_monitor/internal/models"
	"neohub_monitor/internal/repository"
	"neohub_monitor/internal/view"
)

type Authorization interface {
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
	EnsureOperator(username, password string) error
}

// Monitoring exposes read-only views of the last committed cycle.
type Monitoring interface {
	Snapshot(ctx context.Context) (models.Snapshot, error)
	Alerts(ctx context.Context, q AlertQuery) ([]models.Alert, error)
	Overview(ctx context.Context) (view.Overview, error)
	Live(ctx context.Context) (LiveView, error)
	Matrix(ctx context.Context, q MatrixQuery) ([]view.Row, error)
	Devices(ctx context.Context) ([]view.DeviceSummary, error)
}

// Control sends commands to the hub. Commands never wait for a poll.
type Control interface {
	SetTemperature(ctx context.Context, deviceID, zone string, temp float64) (hub.Ack, error)
	SetMode(ctx context.Context, deviceID, zone string, mode models.HeatMode) (hub.Ack, error)
	SetAway(ctx context.Context, deviceID string, away bool) (hub.Ack, error)
	History(ctx context.Context, deviceID, zone string, r hub.Range) ([]hub.HistoryPoint, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.Event, error)
}

type Exporter interface {
	Export(ctx context.Context, req ExportRequest) (ExportResult, error)
}

// Poller runs the background fetch → normalize → classify → alert cycle.
// Stop via context cancellation in main() for graceful shutdown.
type Poller interface {
	Run(ctx context.Context, interval time.Duration)
	RunCycle(ctx context.Context) models.CycleReport
	Restore(ctx context.Context) error
}

// HubClient is the part of the hub adapter the services use.
type HubClient interface {
	Authenticate(ctx context.Context, cr hub.Credentials) (*hub.Session, error)
	FetchDevices(ctx context.Context, s *hub.Session) (hub.RawDeviceSet, error)
	SendCommand(ctx context.Context, s *hub.Session, cmd hub.Command) (hub.Ack, error)
	History(ctx context.Context, s *hub.Session, deviceID, zone string, r hub.Range) ([]hub.HistoryPoint, error)
}

// Notifier publishes alert transitions.
type Notifier interface {
	Publish(ctx context.Context, alerts []models.Alert) error
}

// Recorder receives operational measurements.
type Recorder interface {
	ObserveCycle(r models.CycleReport)
	ObserveSnapshot(s models.Snapshot, open int)
	ObserveTransitions(alerts []models.Alert)
	ObserveCommand(command string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCycle(models.CycleReport)      {}
func (nopRecorder) ObserveSnapshot(models.Snapshot, int) {}
func (nopRecorder) ObserveTransitions([]models.Alert)    {}
func (nopRecorder) ObserveCommand(string, error)         {}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, []models.Alert) error { return nil }

// Deps are the collaborators that do not live in the repository layer.
type Deps struct {
	Config   config.Config
	Hub      HubClient
	Notifier Notifier
	Recorder Recorder
	Log      *logger.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

type Service struct {
	Authorization
	Monitoring
	Control
	EventLog
	Exporter
	Poller

	State *StateStore
}

// NewService wires the repository layer and the hub adapter into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	deps = deps.withDefaults()
	cfg := deps.Config

	store := NewStateStore()
	sessions := NewSessionManager(deps.Hub, hub.Credentials{
		Username: cfg.Hub.Username,
		Password: cfg.Hub.Password,
	}, cfg.Hub.SessionTTL)

	return &Service{
		Authorization: NewAuthService(repos.Auth, AuthOptions{
			SigningKey: cfg.Auth.SigningKey,
			TokenTTL:   cfg.Auth.TokenTTL,
		}),
		Monitoring: NewMonitoringService(store, repos.AlertRepo),
		Control: NewControlService(deps.Hub, sessions, store, repos.EventRepo, deps.Recorder, deps.Log, SetpointRange{
			Min: cfg.Control.MinSetpoint,
			Max: cfg.Control.MaxSetpoint,
		}),
		EventLog: NewEventLogService(repos.EventRepo),
		Exporter: NewExportService(store),
		Poller:   NewPollerService(deps.Hub, sessions, store, repos, deps.Notifier, deps.Recorder, deps.Log, PollOptionsFromConfig(cfg)),
		State:    store,
	}
}
