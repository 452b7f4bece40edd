package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"neohub_monitor/internal/alerting"
	"neohub_monitor/internal/classify"
	"neohub_monitor/internal/config"
	"neohub_monitor/internal/hub"
	"neohub_monitor/internal/logger"
	"neohub_monitor/internal/models"
	"neohub_monitor/internal/normalize"
	"neohub_monitor/internal/repository"
)

// PollOptions tune one poll cycle.
type PollOptions struct {
	MaxRetries          int
	RetryBackoff        time.Duration
	MissedPollTolerance int
	NotifyTimeout       time.Duration
	Normalize           normalize.Options
	Thresholds          classify.Thresholds
}

func PollOptionsFromConfig(cfg config.Config) PollOptions {
	norm := normalize.DefaultOptions().WithAliases(cfg.Normalize.TypeAliases)
	norm.TempMin = cfg.Normalize.TempMin
	norm.TempMax = cfg.Normalize.TempMax
	return PollOptions{
		MaxRetries:          cfg.Poll.MaxRetries,
		RetryBackoff:        cfg.Poll.RetryBackoff,
		MissedPollTolerance: cfg.Poll.MissedPollTolerance,
		NotifyTimeout:       cfg.Notify.Timeout,
		Normalize:           norm,
		Thresholds: classify.Thresholds{
			ReadingMin: cfg.Classify.ReadingMin,
			ReadingMax: cfg.Classify.ReadingMax,
			LowBattery: cfg.Classify.LowBatteryThreshold,
		},
	}
}

// PollerService owns the cycle pipeline. Cycles never overlap; the ticker and
// on-demand triggers queue on the same mutex.
type PollerService struct {
	hub        HubClient
	sessions   *SessionManager
	store      *StateStore
	classifier *classify.Classifier
	engine     *alerting.Engine
	snapshots  repository.SnapshotRepo
	alerts     repository.AlertRepo
	events     repository.EventRepo
	notifier   Notifier
	recorder   Recorder
	log        *logger.Logger
	opts       PollOptions

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu sync.Mutex
}

func NewPollerService(
	client HubClient,
	sessions *SessionManager,
	store *StateStore,
	repos *repository.Repository,
	notifier Notifier,
	recorder Recorder,
	log *logger.Logger,
	opts PollOptions,
) *PollerService {
	return &PollerService{
		hub:        client,
		sessions:   sessions,
		store:      store,
		classifier: classify.New(opts.Thresholds),
		engine:     alerting.NewEngine(),
		snapshots:  repos.SnapshotRepo,
		alerts:     repos.AlertRepo,
		events:     repos.EventRepo,
		notifier:   notifier,
		recorder:   recorder,
		log:        log,
		opts:       opts,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Run polls once immediately and then on every tick until ctx is cancelled.
func (p *PollerService) Run(ctx context.Context, interval time.Duration) {
	p.RunCycle(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.RunCycle(ctx)
		}
	}
}

// Restore reloads the last good snapshot and the open alerts persisted by a
// previous run.
func (p *PollerService) Restore(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap, err := p.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	open, err := p.alerts.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("restore open alerts: %w", err)
	}
	p.engine.Restore(open)
	p.store.Store(&State{Snapshot: snap, Open: p.engine.Open()})
	p.log.Infow("state_restored", "devices", len(snap.Devices), "open_alerts", len(open), "taken_at", snap.TakenAt)
	return nil
}

// RunCycle runs fetch → normalize → classify → alert → publish strictly in
// order. When the fetch or the alert persistence fails the published state is
// left as it was and the report is Partial with Error set.
func (p *PollerService) RunCycle(ctx context.Context) models.CycleReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.now()
	report := models.CycleReport{StartedAt: start.UTC()}

	set, attempts, err := p.fetch(ctx)
	report.Attempts = attempts
	if err != nil {
		return p.abort(ctx, report, start, fmt.Errorf("fetch devices: %w", err))
	}
	if set.FetchedAt.IsZero() {
		set.FetchedAt = start
	}

	prev := p.store.Load()
	snap, skipped := normalize.Normalize(set, p.opts.Normalize)
	snap = normalize.Reconcile(prev.Snapshot, snap, p.opts.MissedPollTolerance)
	snap, gaps := p.classifier.Snapshot(snap)
	for _, g := range gaps {
		p.log.Warnw("zone_classification_gap", "error", g)
	}
	for _, s := range skipped {
		p.log.Warnw("hub_record_skipped", "index", s.Index, "device_id", s.DeviceID, "zone", s.Zone, "reason", s.Reason)
	}

	plan := p.engine.Plan(start, snap)
	if changed := plan.Changed(); len(changed) > 0 {
		if err := p.alerts.Upsert(ctx, changed); err != nil {
			return p.abort(ctx, report, start, fmt.Errorf("persist alerts: %w", err))
		}
	}
	if err := p.snapshots.Save(ctx, snap); err != nil {
		p.log.Warnw("snapshot_persist_failed", "error", err)
	}
	p.engine.Apply(plan)
	open := p.engine.Open()

	report.Status = snap.Status
	report.Devices = len(snap.Devices)
	report.Zones = len(snap.Zones())
	report.Skipped = len(skipped)
	report.Gaps = len(snap.Gaps)
	report.AlertsOpened = len(plan.Opened)
	report.AlertsCleared = len(plan.Cleared)
	report.Duration = p.now().Sub(start)

	last := report
	p.store.Store(&State{Snapshot: snap, Open: open, LastCycle: &last})

	transitions := plan.Transitions()
	p.publish(ctx, transitions)

	p.recorder.ObserveCycle(report)
	p.recorder.ObserveSnapshot(snap, len(open))
	p.recorder.ObserveTransitions(transitions)

	p.log.Infow("poll_cycle_completed",
		"status", report.Status,
		"devices", report.Devices,
		"zones", report.Zones,
		"skipped", report.Skipped,
		"gaps", report.Gaps,
		"alerts_opened", report.AlertsOpened,
		"alerts_cleared", report.AlertsCleared,
		"attempts", report.Attempts,
		"duration", report.Duration,
	)
	p.recordCycle(ctx, report, skipped, transitions)
	return report
}

func (p *PollerService) abort(ctx context.Context, report models.CycleReport, start time.Time, err error) models.CycleReport {
	report.Status = models.SnapshotPartial
	report.Error = err.Error()
	report.Duration = p.now().Sub(start)
	p.store.WithCycle(report)
	p.recorder.ObserveCycle(report)
	p.log.Errorw("poll_cycle_aborted", "attempts", report.Attempts, "error", err)
	p.appendEvent(ctx, models.Event{
		OccurredAt:  report.StartedAt,
		Type:        models.EventCycleFailed,
		Description: "poll cycle aborted: " + report.Error,
		Metadata:    report,
	})
	return report
}

// fetch retries transient failures with exponential backoff.
func (p *PollerService) fetch(ctx context.Context) (hub.RawDeviceSet, int, error) {
	backoff := p.opts.RetryBackoff
	for attempt := 1; ; attempt++ {
		set, err := p.fetchOnce(ctx)
		if err == nil {
			return set, attempt, nil
		}
		if !hub.IsTransient(err) || attempt > p.opts.MaxRetries {
			return hub.RawDeviceSet{}, attempt, err
		}
		p.log.Warnw("hub_fetch_failed", "attempt", attempt, "retry_in", backoff, "error", err)
		if err := p.sleep(ctx, backoff); err != nil {
			return hub.RawDeviceSet{}, attempt, err
		}
		backoff *= 2
	}
}

func (p *PollerService) fetchOnce(ctx context.Context) (hub.RawDeviceSet, error) {
	s, err := p.sessions.Get(ctx)
	if err != nil {
		return hub.RawDeviceSet{}, err
	}
	set, err := p.hub.FetchDevices(ctx, s)
	if err != nil && hub.IsAuth(err) {
		p.sessions.Invalidate(s)
	}
	return set, err
}

func (p *PollerService) publish(ctx context.Context, transitions []models.Alert) {
	if len(transitions) == 0 {
		return
	}
	if p.opts.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.NotifyTimeout)
		defer cancel()
	}
	if err := p.notifier.Publish(ctx, transitions); err != nil {
		p.log.Warnw("alert_notify_failed", "alerts", len(transitions), "error", err)
	}
}

func (p *PollerService) recordCycle(ctx context.Context, report models.CycleReport, skipped []models.SkippedRecord, transitions []models.Alert) {
	p.appendEvent(ctx, models.Event{
		OccurredAt:  report.StartedAt,
		Type:        models.EventCycle,
		Description: fmt.Sprintf("poll cycle %s: %d devices, %d zones", report.Status, report.Devices, report.Zones),
		Metadata:    report,
	})
	for _, s := range skipped {
		p.appendEvent(ctx, models.Event{
			OccurredAt:  report.StartedAt,
			Type:        models.EventSkipped,
			Description: "record skipped: " + s.Reason,
			Metadata:    s,
		})
	}
	for _, a := range transitions {
		typ, verb := models.EventAlertOpened, "opened"
		if a.State == models.AlertCleared {
			typ, verb = models.EventAlertCleared, "cleared"
		}
		p.appendEvent(ctx, models.Event{
			OccurredAt:  report.StartedAt,
			Type:        typ,
			Description: fmt.Sprintf("%s alert %s on %s", a.Indicator, verb, a.Key().Zone),
			Metadata:    a,
		})
	}
}

func (p *PollerService) appendEvent(ctx context.Context, e models.Event) {
	if err := p.events.Append(ctx, e); err != nil {
		p.log.Warnw("event_append_failed", "type", e.Type, "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
