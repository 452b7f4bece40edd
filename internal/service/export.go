package service

import (
	"context"
	"time"

	"neohub_monitor/internal/export"
	"neohub_monitor/internal/view"
)

// ExportService serializes the current matrix view.
type ExportService struct {
	store *StateStore
	now   func() time.Time
}

func NewExportService(store *StateStore) *ExportService {
	return &ExportService{store: store, now: time.Now}
}

// Export validates format and fields before any rows are built.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return ExportResult{}, err
	}
	fields, err := export.ParseFields(req.Fields)
	if err != nil {
		return ExportResult{}, err
	}

	rows := view.BuildMatrix(s.store.Load().Snapshot, req.Matrix.Order, req.Matrix.Filter.Predicate())
	body, err := export.ExportRows(rows, fields, format)
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{
		FileName:    export.FileName(format, s.now()),
		ContentType: export.ContentType(format),
		Body:        body,
	}, nil
}
