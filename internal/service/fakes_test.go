package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"neohub_monitor/internal/hub"
	"neohub_monitor/internal/models"
	"neohub_monitor/internal/repository"
)

// fakeHub answers like the hub adapter. fetchFn receives the 1-based call number.
type fakeHub struct {
	mu sync.Mutex

	authCalls int
	authErr   error

	fetchCalls int
	fetchFn    func(call int) (hub.RawDeviceSet, error)
	fetchToks  []string

	sent   []hub.Command
	sendFn func(s *hub.Session, cmd hub.Command) (hub.Ack, error)

	historyFn func(s *hub.Session, deviceID, zone string, r hub.Range) ([]hub.HistoryPoint, error)
}

func (f *fakeHub) Authenticate(ctx context.Context, cr hub.Credentials) (*hub.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	if f.authErr != nil {
		return nil, f.authErr
	}
	return &hub.Session{Token: fmt.Sprintf("tok-%d", f.authCalls), IssuedAt: time.Now()}, nil
}

func (f *fakeHub) FetchDevices(ctx context.Context, s *hub.Session) (hub.RawDeviceSet, error) {
	f.mu.Lock()
	f.fetchCalls++
	call := f.fetchCalls
	f.fetchToks = append(f.fetchToks, s.Token)
	f.mu.Unlock()
	if f.fetchFn == nil {
		return hub.RawDeviceSet{}, nil
	}
	return f.fetchFn(call)
}

func (f *fakeHub) SendCommand(ctx context.Context, s *hub.Session, cmd hub.Command) (hub.Ack, error) {
	f.mu.Lock()
	f.sent = append(f.sent, cmd)
	f.mu.Unlock()
	if f.sendFn != nil {
		return f.sendFn(s, cmd)
	}
	return hub.Ack{Command: cmd, AcceptedAt: time.Now()}, nil
}

func (f *fakeHub) History(ctx context.Context, s *hub.Session, deviceID, zone string, r hub.Range) ([]hub.HistoryPoint, error) {
	if f.historyFn != nil {
		return f.historyFn(s, deviceID, zone, r)
	}
	return nil, nil
}

type fakeSnapshotRepo struct {
	saved   []models.Snapshot
	saveErr error
	loaded  models.Snapshot
	loadErr error
}

func (f *fakeSnapshotRepo) Save(ctx context.Context, s models.Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeSnapshotRepo) Load(ctx context.Context) (models.Snapshot, error) {
	return f.loaded, f.loadErr
}

type fakeAlertRepo struct {
	upserts   [][]models.Alert
	upsertErr error

	open    []models.Alert
	openErr error

	listed  []models.Alert
	gotList repository.AlertFilter
	listErr error
}

func (f *fakeAlertRepo) Upsert(ctx context.Context, alerts []models.Alert) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, alerts)
	return nil
}

func (f *fakeAlertRepo) ListOpen(ctx context.Context) ([]models.Alert, error) {
	return f.open, f.openErr
}

func (f *fakeAlertRepo) List(ctx context.Context, filter repository.AlertFilter) ([]models.Alert, error) {
	f.gotList = filter
	return f.listed, f.listErr
}

type fakeNotifier struct {
	published [][]models.Alert
	err       error
}

func (f *fakeNotifier) Publish(ctx context.Context, alerts []models.Alert) error {
	f.published = append(f.published, alerts)
	return f.err
}

type fakeRecorder struct {
	cycles   []models.CycleReport
	commands []string
	errs     []error
}

func (f *fakeRecorder) ObserveCycle(r models.CycleReport)    { f.cycles = append(f.cycles, r) }
func (f *fakeRecorder) ObserveSnapshot(models.Snapshot, int) {}
func (f *fakeRecorder) ObserveTransitions([]models.Alert)    {}
func (f *fakeRecorder) ObserveCommand(command string, err error) {
	f.commands = append(f.commands, command)
	f.errs = append(f.errs, err)
}

// thermostat builds an inline single-zone device record.
func thermostat(id string, heatOn bool, battery float64) hub.RawDevice {
	return hub.RawDevice{Fields: hub.RawRecord{
		"id": id, "type": "Thermostat", "actualTemp": 19.5, "setTemp": 21.0,
		"heatOn": heatOn, "heatMode": "Heat", "battery": battery,
	}}
}

func deviceSet(at time.Time, devices ...hub.RawDevice) hub.RawDeviceSet {
	return hub.RawDeviceSet{FetchedAt: at, Devices: devices}
}

func indicatorsOf(alerts []models.Alert) []models.StatusIndicator {
	out := make([]models.StatusIndicator, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Indicator)
	}
	return out
}
