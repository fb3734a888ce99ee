package services

import (
	"context"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/ironpulse/clubsite/internal/logger"
	"github.com/ironpulse/clubsite/internal/models"
)

type LeadStore interface {
	InsertLead(ctx context.Context, l *models.Lead) error
	MarkLeadForwarded(ctx context.Context, id string) error
	ListLeads(ctx context.Context, limit int) ([]*models.Lead, error)
	GetClub(ctx context.Context, id string) (*models.Club, error)
}

// LeadSink is an external system leads are pushed to (CRM, messenger).
type LeadSink interface {
	Name() string
	Deliver(ctx context.Context, n models.LeadNotice) error
}

type LeadInput struct {
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	ClubID          string   `json:"club_id,omitempty"`
	Comment         string   `json:"comment,omitempty"`
	Source          string   `json:"source,omitempty"`
	SessionID       string   `json:"session_id,omitempty"`
	Recommendations []string `json:"-"`
}

// LeadService stores contact requests and forwards them to every configured sink.
type LeadService struct {
	store LeadStore
	sinks []LeadSink
	log   *logger.Logger
	now   func() time.Time
	idGen func() string
}

func NewLeadService(store LeadStore, log *logger.Logger, sinks ...LeadSink) *LeadService {
	if log == nil {
		log = logger.NewNop()
	}
	return &LeadService{
		store: store,
		sinks: sinks,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: newID,
	}
}

// Capture validates and stores the lead, then forwards it. A lead is marked
// forwarded only when every sink accepted it; delivery failures are logged and
// never fail the call once the lead is stored.
func (s *LeadService) Capture(ctx context.Context, in LeadInput) (*models.Lead, error) {
	lead := models.Lead{
		Name:      strings.TrimSpace(in.Name),
		Phone:     NormalizePhone(in.Phone),
		ClubID:    strings.TrimSpace(in.ClubID),
		Comment:   strings.TrimSpace(in.Comment),
		Source:    strings.TrimSpace(in.Source),
		SessionID: strings.TrimSpace(in.SessionID),
	}
	if lead.Source == "" {
		lead.Source = "site"
	}
	if err := validateStruct(&lead); err != nil {
		return nil, err
	}
	notice := models.LeadNotice{Recommendations: in.Recommendations}
	if lead.ClubID != "" {
		club, err := s.store.GetClub(ctx, lead.ClubID)
		if err != nil {
			return nil, persistErr("get club", err)
		}
		if club == nil {
			return nil, NewNotFoundError("club not found")
		}
		notice.ClubName = club.Name
	}
	lead.ID = s.idGen()
	lead.CreatedAt = s.now()
	if err := s.store.InsertLead(ctx, &lead); err != nil {
		return nil, persistErr("insert lead", err)
	}
	notice.Lead = lead

	if s.forward(ctx, notice) {
		if err := s.store.MarkLeadForwarded(ctx, lead.ID); err != nil {
			s.log.Warn("lead forwarded flag not stored", "lead_id", lead.ID, "error", err)
		} else {
			lead.Forwarded = true
		}
	}
	return &lead, nil
}

func (s *LeadService) List(ctx context.Context, limit int) ([]*models.Lead, error) {
	leads, err := s.store.ListLeads(ctx, limit)
	return leads, persistErr("list leads", err)
}

// forward delivers n to every sink concurrently. Sinks still running when ctx
// ends count as failed; their results are discarded.
func (s *LeadService) forward(ctx context.Context, n models.LeadNotice) bool {
	if len(s.sinks) == 0 {
		return false
	}
	results := make(chan bool, len(s.sinks))
	var g errgroup.Group
	for _, sink := range s.sinks {
		g.Go(func() error {
			err := sink.Deliver(ctx, n)
			if err != nil {
				s.log.Warn("lead delivery failed", "sink", sink.Name(), "lead_id", n.Lead.ID, "error", err)
			}
			results <- err == nil
			return nil
		})
	}
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("lead delivery abandoned", "lead_id", n.Lead.ID, "error", ctx.Err())
		return false
	}
	close(results)
	for ok := range results {
		if !ok {
			return false
		}
	}
	return true
}

// NormalizePhone keeps digits and a leading plus sign.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
