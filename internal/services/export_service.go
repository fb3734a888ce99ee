package services

import (
	"context"
	"time"

	"github.com/ironpulse/clubsite/internal/models"
)

type ExportStore interface {
	AnalyticsStore
	ListLeads(ctx context.Context, limit int) ([]*models.Lead, error)
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
	now   func() time.Time
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Submissions exports every stored submission, oldest first. Archived
// questions keep their columns so older rows stay readable.
func (s *ExportService) Submissions(ctx context.Context) (*ExportResult, error) {
	subs, err := s.store.ListSubmissions(ctx, time.Time{})
	if err != nil {
		return nil, persistErr("list submissions", err)
	}
	questions, err := s.store.ListQuestions(ctx, true)
	if err != nil {
		return nil, persistErr("list questions", err)
	}
	data, err := SubmissionsCSV(subs, questions)
	if err != nil {
		return nil, err
	}
	return s.csvResult("quiz-submissions", data), nil
}

func (s *ExportService) Leads(ctx context.Context) (*ExportResult, error) {
	leads, err := s.store.ListLeads(ctx, 0)
	if err != nil {
		return nil, persistErr("list leads", err)
	}
	data, err := LeadsCSV(leads)
	if err != nil {
		return nil, err
	}
	return s.csvResult("leads", data), nil
}

func (s *ExportService) csvResult(name string, data []byte) *ExportResult {
	return &ExportResult{
		Filename:    name + "-" + s.now().Format("20060102") + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}
}
