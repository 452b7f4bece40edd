package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"neohub_monitor/internal/models"
	"neohub_monitor/internal/repository"
	"neohub_monitor/internal/view"
)

var ErrInvalidScope = errors.New("invalid alert scope: must be open, cleared or all")

type MonitoringService struct {
	store     *StateStore
	alertRepo repository.AlertRepo
}

func NewMonitoringService(store *StateStore, alertRepo repository.AlertRepo) *MonitoringService {
	return &MonitoringService{store: store, alertRepo: alertRepo}
}

// Snapshot returns the last committed snapshot. Before the first cycle it is empty.
func (s *MonitoringService) Snapshot(ctx context.Context) (models.Snapshot, error) {
	return s.store.Load().Snapshot, nil
}

func (s *MonitoringService) Alerts(ctx context.Context, q AlertQuery) ([]models.Alert, error) {
	from, to, err := normalizeRange(q.From, q.To)
	if err != nil {
		return nil, err
	}

	switch scope := strings.ToLower(strings.TrimSpace(q.Scope)); scope {
	case "", AlertScopeOpen:
		out := []models.Alert{}
		for _, a := range s.store.Load().Open {
			if matchesAlert(a, q, from, to) {
				out = append(out, a)
			}
		}
		return out, nil
	case AlertScopeCleared, AlertScopeAll:
		f := repository.AlertFilter{Indicator: q.Indicator, DeviceID: q.DeviceID, From: from, To: to}
		if scope == AlertScopeCleared {
			f.State = models.AlertCleared
		}
		alerts, err := s.alertRepo.List(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("list alerts: %w", err)
		}
		if alerts == nil {
			alerts = []models.Alert{}
		}
		return alerts, nil
	default:
		return nil, ErrInvalidScope
	}
}

func matchesAlert(a models.Alert, q AlertQuery, from, to time.Time) bool {
	if q.Indicator != "" && a.Indicator != q.Indicator {
		return false
	}
	if q.DeviceID != "" && a.DeviceID != q.DeviceID {
		return false
	}
	if !from.IsZero() && a.FirstSeen.Before(from) {
		return false
	}
	if !to.IsZero() && a.FirstSeen.After(to) {
		return false
	}
	return true
}

func (s *MonitoringService) Overview(ctx context.Context) (view.Overview, error) {
	st := s.store.Load()
	return view.BuildOverview(st.Snapshot, st.Open, st.LastCycle), nil
}

// LiveView pairs the overview with the open alerts it counts.
type LiveView struct {
	Overview   view.Overview
	OpenAlerts []models.Alert
}

// Live builds both halves from one committed cycle.
func (s *MonitoringService) Live(ctx context.Context) (LiveView, error) {
	st := s.store.Load()
	open := make([]models.Alert, len(st.Open))
	copy(open, st.Open)
	return LiveView{Overview: view.BuildOverview(st.Snapshot, st.Open, st.LastCycle), OpenAlerts: open}, nil
}

func (s *MonitoringService) Matrix(ctx context.Context, q MatrixQuery) ([]view.Row, error) {
	rows := view.BuildMatrix(s.store.Load().Snapshot, q.Order, q.Filter.Predicate())
	if rows == nil {
		rows = []view.Row{}
	}
	return rows, nil
}

func (s *MonitoringService) Devices(ctx context.Context) ([]view.DeviceSummary, error) {
	out := view.DeviceSummaries(s.store.Load().Snapshot)
	if out == nil {
		out = []view.DeviceSummary{}
	}
	return out, nil
}
