package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ironpulse/clubsite/internal/matching"
	"github.com/ironpulse/clubsite/internal/models"
)

// stubStore is an in-memory implementation of every store interface in this
// package. fail injects an error for the named method.
type stubStore struct {
	mu          sync.Mutex
	clubs       []*models.Club
	trainers    []*models.Trainer
	directions  []*models.Direction
	questions   []*models.Question
	rules       []matching.RuleRecord
	submissions []*models.Submission
	leads       []*models.Lead
	settings    *models.SiteSettings
	audit       []models.AuditEntry
	fail        map[string]error
}

func newStubStore() *stubStore {
	return &stubStore{fail: map[string]error{}}
}

func (s *stubStore) err(method string) error {
	return s.fail[method]
}

func (s *stubStore) AddAudit(_ context.Context, e models.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
}

func (s *stubStore) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.audit))
	for _, e := range s.audit {
		out = append(out, e.Action)
	}
	return out
}

// --- catalog ---

func (s *stubStore) ListClubs(_ context.Context, includeInactive bool) ([]*models.Club, error) {
	if err := s.err("ListClubs"); err != nil {
		return nil, err
	}
	out := []*models.Club{}
	for _, c := range s.clubs {
		if includeInactive || c.Active {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubStore) GetClub(_ context.Context, id string) (*models.Club, error) {
	if err := s.err("GetClub"); err != nil {
		return nil, err
	}
	for _, c := range s.clubs {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) InsertClub(_ context.Context, c *models.Club) error {
	if err := s.err("InsertClub"); err != nil {
		return err
	}
	cp := *c
	s.clubs = append(s.clubs, &cp)
	return nil
}

func (s *stubStore) UpdateClub(_ context.Context, c *models.Club) (bool, error) {
	for i, cur := range s.clubs {
		if cur.ID == c.ID {
			cp := *c
			s.clubs[i] = &cp
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) SetClubActive(_ context.Context, id string, active bool) (bool, error) {
	for _, c := range s.clubs {
		if c.ID == id {
			c.Active = active
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) ListTrainers(_ context.Context, includeInactive bool) ([]*models.Trainer, error) {
	if err := s.err("ListTrainers"); err != nil {
		return nil, err
	}
	out := []*models.Trainer{}
	for _, t := range s.trainers {
		if includeInactive || t.Active {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubStore) GetTrainer(_ context.Context, id string) (*models.Trainer, error) {
	for _, t := range s.trainers {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) InsertTrainer(_ context.Context, t *models.Trainer) error {
	cp := *t
	s.trainers = append(s.trainers, &cp)
	return nil
}

func (s *stubStore) UpdateTrainer(_ context.Context, t *models.Trainer) (bool, error) {
	for i, cur := range s.trainers {
		if cur.ID == t.ID {
			cp := *t
			s.trainers[i] = &cp
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) SetTrainerActive(_ context.Context, id string, active bool) (bool, error) {
	for _, t := range s.trainers {
		if t.ID == id {
			t.Active = active
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) ListDirections(_ context.Context, includeInactive bool) ([]*models.Direction, error) {
	out := []*models.Direction{}
	for _, d := range s.directions {
		if includeInactive || d.Active {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubStore) GetDirection(_ context.Context, id string) (*models.Direction, error) {
	for _, d := range s.directions {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) InsertDirection(_ context.Context, d *models.Direction) error {
	cp := *d
	s.directions = append(s.directions, &cp)
	return nil
}

func (s *stubStore) UpdateDirection(_ context.Context, d *models.Direction) (bool, error) {
	for i, cur := range s.directions {
		if cur.ID == d.ID {
			cp := *d
			s.directions[i] = &cp
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) SetDirectionActive(_ context.Context, id string, active bool) (bool, error) {
	for _, d := range s.directions {
		if d.ID == id {
			d.Active = active
			return true, nil
		}
	}
	return false, nil
}

// --- questions ---

func copyQuestion(q *models.Question, activeOnly bool) *models.Question {
	cp := *q
	cp.Options = []models.AnswerOption{}
	for _, o := range q.Options {
		if !activeOnly || o.Active {
			cp.Options = append(cp.Options, o)
		}
	}
	return &cp
}

func (s *stubStore) ListQuestions(_ context.Context, includeInactive bool) ([]*models.Question, error) {
	if err := s.err("ListQuestions"); err != nil {
		return nil, err
	}
	out := []*models.Question{}
	for _, q := range s.questions {
		if includeInactive || q.Active {
			out = append(out, copyQuestion(q, !includeInactive))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *stubStore) GetQuestion(_ context.Context, id string) (*models.Question, error) {
	if err := s.err("GetQuestion"); err != nil {
		return nil, err
	}
	for _, q := range s.questions {
		if q.ID == id {
			return copyQuestion(q, false), nil
		}
	}
	return nil, nil
}

func (s *stubStore) InsertQuestion(_ context.Context, q *models.Question) error {
	s.questions = append(s.questions, copyQuestion(q, false))
	return nil
}

func (s *stubStore) UpdateQuestion(_ context.Context, q *models.Question) (bool, error) {
	for _, cur := range s.questions {
		if cur.ID == q.ID {
			cur.Text, cur.Kind, cur.Order = q.Text, q.Kind, q.Order
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) SetQuestionActive(_ context.Context, id string, active bool) (bool, error) {
	for _, q := range s.questions {
		if q.ID == id {
			q.Active = active
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) ReorderQuestions(_ context.Context, order []string) error {
	for i, id := range order {
		for _, q := range s.questions {
			if q.ID == id {
				q.Order = i + 1
			}
		}
	}
	return nil
}

func (s *stubStore) InsertOption(_ context.Context, o *models.AnswerOption) error {
	if err := s.err("InsertOption"); err != nil {
		return err
	}
	for _, q := range s.questions {
		if q.ID == o.QuestionID {
			q.Options = append(q.Options, *o)
		}
	}
	return nil
}

func (s *stubStore) UpdateOption(_ context.Context, o *models.AnswerOption) (bool, error) {
	for _, q := range s.questions {
		for i := range q.Options {
			if q.Options[i].ID == o.ID {
				q.Options[i] = *o
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *stubStore) SetOptionActive(_ context.Context, id string, active bool) (bool, error) {
	for _, q := range s.questions {
		for i := range q.Options {
			if q.Options[i].ID == id {
				q.Options[i].Active = active
				return true, nil
			}
		}
	}
	return false, nil
}

// --- rules ---

func (s *stubStore) ListRules(_ context.Context, includeInactive bool) ([]matching.RuleRecord, error) {
	out := []matching.RuleRecord{}
	for _, r := range s.rules {
		if includeInactive || r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubStore) ListActiveRules(_ context.Context) ([]matching.RuleRecord, error) {
	if err := s.err("ListActiveRules"); err != nil {
		return nil, err
	}
	out := []matching.RuleRecord{}
	for _, r := range s.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *stubStore) GetRule(_ context.Context, id string) (*matching.RuleRecord, error) {
	for _, r := range s.rules {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) InsertRule(_ context.Context, r *matching.RuleRecord) error {
	s.rules = append(s.rules, *r)
	return nil
}

func (s *stubStore) UpdateRule(_ context.Context, r *matching.RuleRecord) (bool, error) {
	for i := range s.rules {
		if s.rules[i].ID == r.ID {
			s.rules[i] = *r
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) SetRuleActive(_ context.Context, id string, active bool) (bool, error) {
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].Active = active
			return true, nil
		}
	}
	return false, nil
}

// --- submissions, leads, settings ---

func (s *stubStore) SaveSubmission(ctx context.Context, sub *models.Submission) error {
	if err := s.err("SaveSubmission"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *sub
	s.submissions = append(s.submissions, &cp)
	return nil
}

func (s *stubStore) ListSubmissions(_ context.Context, since time.Time) ([]*models.Submission, error) {
	if err := s.err("ListSubmissions"); err != nil {
		return nil, err
	}
	out := []*models.Submission{}
	for _, sub := range s.submissions {
		if !sub.CreatedAt.Before(since) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *stubStore) InsertLead(_ context.Context, l *models.Lead) error {
	if err := s.err("InsertLead"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.leads = append(s.leads, &cp)
	return nil
}

func (s *stubStore) MarkLeadForwarded(_ context.Context, id string) error {
	if err := s.err("MarkLeadForwarded"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.ID == id {
			l.Forwarded = true
		}
	}
	return nil
}

func (s *stubStore) ListLeads(_ context.Context, limit int) ([]*models.Lead, error) {
	out := []*models.Lead{}
	for i := len(s.leads) - 1; i >= 0; i-- {
		out = append(out, s.leads[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubStore) GetSettings(_ context.Context) (*models.SiteSettings, error) {
	if err := s.err("GetSettings"); err != nil {
		return nil, err
	}
	if s.settings == nil {
		return nil, nil
	}
	cp := *s.settings
	return &cp, nil
}

func (s *stubStore) SaveSettings(_ context.Context, st *models.SiteSettings) error {
	if err := s.err("SaveSettings"); err != nil {
		return err
	}
	cp := *st
	s.settings = &cp
	return nil
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }
}

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + itoa(n)
	}
}
