package alerting

import (
	"sort"
	"sync"
	"time"

	"neohub_monitor/internal/models"

	"github.com/google/uuid"
)

// Plan is the set of alert transitions one cycle would cause. Computing a plan
// does not change the engine; Apply commits it.
type Plan struct {
	At        time.Time      `json:"at"`
	Opened    []models.Alert `json:"opened,omitempty"`
	Refreshed []models.Alert `json:"refreshed,omitempty"`
	Cleared   []models.Alert `json:"cleared,omitempty"`
}

// Changed returns every alert the plan writes, in opened, refreshed, cleared order.
func (p Plan) Changed() []models.Alert {
	out := make([]models.Alert, 0, len(p.Opened)+len(p.Refreshed)+len(p.Cleared))
	out = append(out, p.Opened...)
	out = append(out, p.Refreshed...)
	return append(out, p.Cleared...)
}

// Transitions returns only the alerts that changed state.
func (p Plan) Transitions() []models.Alert {
	out := make([]models.Alert, 0, len(p.Opened)+len(p.Cleared))
	out = append(out, p.Opened...)
	return append(out, p.Cleared...)
}

func (p Plan) Empty() bool {
	return len(p.Opened) == 0 && len(p.Refreshed) == 0 && len(p.Cleared) == 0
}

// Engine tracks the open alert of every (zone, indicator) pair across cycles.
// Normal never raises an alert.
type Engine struct {
	mu    sync.RWMutex
	open  map[models.AlertKey]models.Alert
	newID func() string
}

func NewEngine() *Engine {
	return &Engine{
		open:  make(map[models.AlertKey]models.Alert),
		newID: uuid.NewString,
	}
}

// Restore replaces the engine state with previously persisted open alerts.
func (e *Engine) Restore(alerts []models.Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = make(map[models.AlertKey]models.Alert, len(alerts))
	for _, a := range alerts {
		if a.State == models.AlertOpen {
			e.open[a.Key()] = a
		}
	}
}

// Plan compares the classified snapshot with the open alerts. Zones listed as
// classification gaps, or left unclassified, keep their alerts untouched.
// Alerts of zones no longer in the snapshot are cleared.
func (e *Engine) Plan(now time.Time, snap models.Snapshot) Plan {
	e.mu.RLock()
	defer e.mu.RUnlock()

	plan := Plan{At: now}
	excluded := make(map[models.ZoneKey]bool, len(snap.Gaps))
	for _, k := range snap.Gaps {
		excluded[k] = true
	}
	present := make(map[models.ZoneKey]bool)

	for _, d := range snap.Devices {
		for _, z := range d.Zones {
			zk := z.Key()
			present[zk] = true
			if excluded[zk] || z.Indicators.IsEmpty() {
				continue
			}
			for _, ind := range models.AlertableIndicators {
				key := models.AlertKey{Zone: zk, Indicator: ind}
				cur, isOpen := e.open[key]
				switch {
				case z.Indicators.Has(ind) && isOpen:
					cur.LastSeen = now
					plan.Refreshed = append(plan.Refreshed, cur)
				case z.Indicators.Has(ind):
					plan.Opened = append(plan.Opened, models.Alert{
						ID:        e.newID(),
						DeviceID:  zk.DeviceID,
						Zone:      zk.Zone,
						Indicator: ind,
						State:     models.AlertOpen,
						FirstSeen: now,
						LastSeen:  now,
					})
				case isOpen:
					plan.Cleared = append(plan.Cleared, closeAlert(cur, now))
				}
			}
		}
	}

	var gone []models.Alert
	for key, a := range e.open {
		if !present[key.Zone] && !excluded[key.Zone] {
			gone = append(gone, a)
		}
	}
	sortAlerts(gone)
	for _, a := range gone {
		plan.Cleared = append(plan.Cleared, closeAlert(a, now))
	}
	return plan
}

func closeAlert(a models.Alert, now time.Time) models.Alert {
	at := now
	a.State = models.AlertCleared
	a.ClearedAt = &at
	return a
}

// Apply commits a plan produced by Plan against the current state.
func (e *Engine) Apply(p Plan) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range p.Opened {
		e.open[a.Key()] = a
	}
	for _, a := range p.Refreshed {
		e.open[a.Key()] = a
	}
	for _, a := range p.Cleared {
		delete(e.open, a.Key())
	}
}

// Open returns the open alerts ordered by device, zone and indicator.
func (e *Engine) Open() []models.Alert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.Alert, 0, len(e.open))
	for _, a := range e.open {
		out = append(out, a)
	}
	sortAlerts(out)
	return out
}

func sortAlerts(as []models.Alert) {
	order := make(map[models.StatusIndicator]int, len(models.AllIndicators))
	for i, ind := range models.AllIndicators {
		order[ind] = i
	}
	sort.Slice(as, func(i, j int) bool {
		a, b := as[i], as[j]
		if a.DeviceID != b.DeviceID {
			return a.DeviceID < b.DeviceID
		}
		if a.Zone != b.Zone {
			return a.Zone < b.Zone
		}
		return order[a.Indicator] < order[b.Indicator]
	})
}
