package api

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ironpulse/clubsite/internal/matching"
	"github.com/ironpulse/clubsite/internal/models"
)

// memoryStore keeps everything in process memory. It backs tests and the
// server when no SQLite path is configured.
type memoryStore struct {
	mu          sync.RWMutex
	clubs       map[string]*models.Club
	trainers    map[string]*models.Trainer
	directions  map[string]*models.Direction
	questions   map[string]*models.Question
	rules       map[string]matching.RuleRecord
	submissions []*models.Submission
	leads       []*models.Lead
	settings    *models.SiteSettings
	audit       []models.AuditEntry
}

func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		clubs:      map[string]*models.Club{},
		trainers:   map[string]*models.Trainer{},
		directions: map[string]*models.Direction{},
		questions:  map[string]*models.Question{},
		rules:      map[string]matching.RuleRecord{},
	}
}

func (s *memoryStore) Ping(context.Context) error { return nil }

// --- clubs ---

func (s *memoryStore) ListClubs(_ context.Context, includeInactive bool) ([]*models.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Club{}
	for _, c := range s.clubs {
		if includeInactive || c.Active {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return byOrderName(out[i].Order, out[j].Order, out[i].Name, out[j].Name, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *memoryStore) GetClub(_ context.Context, id string) (*models.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clubs[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) InsertClub(_ context.Context, c *models.Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.clubs[c.ID] = &cp
	return nil
}

func (s *memoryStore) UpdateClub(_ context.Context, c *models.Club) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clubs[c.ID]; !ok {
		return false, nil
	}
	cp := *c
	s.clubs[c.ID] = &cp
	return true, nil
}

func (s *memoryStore) SetClubActive(_ context.Context, id string, active bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clubs[id]
	if ok {
		c.Active = active
		c.UpdatedAt = time.Now().UTC()
	}
	return ok, nil
}

// --- trainers ---

func (s *memoryStore) ListTrainers(_ context.Context, includeInactive bool) ([]*models.Trainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Trainer{}
	for _, t := range s.trainers {
		if includeInactive || t.Active {
			out = append(out, copyTrainer(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return byOrderName(out[i].Order, out[j].Order, out[i].Name, out[j].Name, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *memoryStore) GetTrainer(_ context.Context, id string) (*models.Trainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.trainers[id]; ok {
		return copyTrainer(t), nil
	}
	return nil, nil
}

func (s *memoryStore) InsertTrainer(_ context.Context, t *models.Trainer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trainers[t.ID] = copyTrainer(t)
	return nil
}

func (s *memoryStore) UpdateTrainer(_ context.Context, t *models.Trainer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trainers[t.ID]; !ok {
		return false, nil
	}
	s.trainers[t.ID] = copyTrainer(t)
	return true, nil
}

func (s *memoryStore) SetTrainerActive(_ context.Context, id string, active bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trainers[id]
	if ok {
		t.Active = active
		t.UpdatedAt = time.Now().UTC()
	}
	return ok, nil
}

func copyTrainer(t *models.Trainer) *models.Trainer {
	cp := *t
	cp.ClubIDs = append([]string{}, t.ClubIDs...)
	cp.DirectionIDs = append([]string{}, t.DirectionIDs...)
	return &cp
}

// --- directions ---

func (s *memoryStore) ListDirections(_ context.Context, includeInactive bool) ([]*models.Direction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Direction{}
	for _, d := range s.directions {
		if includeInactive || d.Active {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return byOrderName(out[i].Order, out[j].Order, out[i].Name, out[j].Name, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *memoryStore) GetDirection(_ context.Context, id string) (*models.Direction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.directions[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) InsertDirection(_ context.Context, d *models.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.directions[d.ID] = &cp
	return nil
}

func (s *memoryStore) UpdateDirection(_ context.Context, d *models.Direction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.directions[d.ID]; !ok {
		return false, nil
	}
	cp := *d
	s.directions[d.ID] = &cp
	return true, nil
}

func (s *memoryStore) SetDirectionActive(_ context.Context, id string, active bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.directions[id]
	if ok {
		d.Active = active
		d.UpdatedAt = time.Now().UTC()
	}
	return ok, nil
}

// byOrderName orders catalog entries by display order, then name, then id.
func byOrderName(oi, oj int, ni, nj, idi, idj string) bool {
	if oi != oj {
		return oi < oj
	}
	if ni != nj {
		return ni < nj
	}
	return idi < idj
}

// --- questions ---

func copyQuestion(q *models.Question, activeOptionsOnly bool) *models.Question {
	cp := *q
	cp.Options = make([]models.AnswerOption, 0, len(q.Options))
	for _, o := range q.Options {
		if !activeOptionsOnly || o.Active {
			cp.Options = append(cp.Options, o)
		}
	}
	sort.SliceStable(cp.Options, func(i, j int) bool { return cp.Options[i].Order < cp.Options[j].Order })
	return &cp
}

func (s *memoryStore) ListQuestions(_ context.Context, includeInactive bool) ([]*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Question{}
	for _, q := range s.questions {
		if includeInactive || q.Active {
			out = append(out, copyQuestion(q, !includeInactive))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memoryStore) GetQuestion(_ context.Context, id string) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.questions[id]; ok {
		return copyQuestion(q, false), nil
	}
	return nil, nil
}

func (s *memoryStore) InsertQuestion(_ context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = copyQuestion(q, false)
	return nil
}

func (s *memoryStore) UpdateQuestion(_ context.Context, q *models.Question) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.questions[q.ID]
	if !ok {
		return false, nil
	}
	cur.Text, cur.Kind, cur.Order = q.Text, q.Kind, q.Order
	return true, nil
}

func (s *memoryStore) SetQuestionActive(_ context.Context, id string, active bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if ok {
		q.Active = active
	}
	return ok, nil
}

// ReorderQuestions numbers the listed questions first and moves the rest
// after them, keeping their relative order.
func (s *memoryStore) ReorderQuestions(_ context.Context, order []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*models.Question, 0, len(s.questions))
	for _, q := range s.questions {
		all = append(all, q)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Order != all[j].Order {
			return all[i].Order < all[j].Order
		}
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	n := 0
	for _, id := range order {
		if q, ok := s.questions[id]; ok {
			n++
			q.Order = n
		}
	}
	for _, q := range all {
		if !slices.Contains(order, q.ID) {
			n++
			q.Order = n
		}
	}
	return nil
}

func (s *memoryStore) InsertOption(_ context.Context, o *models.AnswerOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.questions[o.QuestionID]; ok {
		if o.Active && valueTaken(q, o.Value, o.ID) {
			return models.ErrDuplicateOptionValue
		}
		q.Options = append(q.Options, *o)
	}
	return nil
}

func (s *memoryStore) UpdateOption(_ context.Context, o *models.AnswerOption) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, i := s.findOption(o.ID)
	if q == nil {
		return false, nil
	}
	if o.Active && valueTaken(q, o.Value, o.ID) {
		return false, models.ErrDuplicateOptionValue
	}
	qid := q.Options[i].QuestionID
	q.Options[i] = *o
	q.Options[i].QuestionID = qid
	return true, nil
}

func (s *memoryStore) SetOptionActive(_ context.Context, id string, active bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, i := s.findOption(id)
	if q == nil {
		return false, nil
	}
	if active && !q.Options[i].Active && valueTaken(q, q.Options[i].Value, id) {
		return false, models.ErrDuplicateOptionValue
	}
	q.Options[i].Active = active
	return true, nil
}

func (s *memoryStore) findOption(id string) (*models.Question, int) {
	for _, q := range s.questions {
		for i := range q.Options {
			if q.Options[i].ID == id {
				return q, i
			}
		}
	}
	return nil, -1
}

// valueTaken reports whether another active option of q uses value.
func valueTaken(q *models.Question, value, skipID string) bool {
	for _, o := range q.Options {
		if o.Active && o.ID != skipID && o.Value == value {
			return true
		}
	}
	return false
}

// --- rules ---

func (s *memoryStore) ListRules(_ context.Context, includeInactive bool) ([]matching.RuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedRules(!includeInactive), nil
}

func (s *memoryStore) ListActiveRules(_ context.Context) ([]matching.RuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedRules(true), nil
}

func (s *memoryStore) sortedRules(activeOnly bool) []matching.RuleRecord {
	out := []matching.RuleRecord{}
	for _, r := range s.rules {
		if !activeOnly || r.Active {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memoryStore) GetRule(_ context.Context, id string) (*matching.RuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rules[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *memoryStore) InsertRule(_ context.Context, r *matching.RuleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = *r
	return nil
}

func (s *memoryStore) UpdateRule(_ context.Context, r *matching.RuleRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[r.ID]; !ok {
		return false, nil
	}
	s.rules[r.ID] = *r
	return true, nil
}

func (s *memoryStore) SetRuleActive(_ context.Context, id string, active bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if ok {
		r.Active = active
		s.rules[id] = r
	}
	return ok, nil
}

// --- submissions ---

func (s *memoryStore) SaveSubmission(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, copySubmission(sub))
	return nil
}

func (s *memoryStore) ListSubmissions(_ context.Context, since time.Time) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Submission{}
	for _, sub := range s.submissions {
		if !sub.CreatedAt.Before(since) {
			out = append(out, copySubmission(sub))
		}
	}
	return out, nil
}

func copySubmission(sub *models.Submission) *models.Submission {
	cp := *sub
	cp.Answers = maps.Clone(sub.Answers)
	if sub.Recommendations == nil {
		return &cp
	}
	cp.Recommendations = make([]matching.MatchSummary, len(sub.Recommendations))
	for i, m := range sub.Recommendations {
		m.TrainerIDs = slices.Clone(m.TrainerIDs)
		m.DirectionIDs = slices.Clone(m.DirectionIDs)
		m.ClubIDs = slices.Clone(m.ClubIDs)
		cp.Recommendations[i] = m
	}
	return &cp
}

// --- leads ---

func (s *memoryStore) InsertLead(_ context.Context, l *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.leads = append(s.leads, &cp)
	return nil
}

func (s *memoryStore) MarkLeadForwarded(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.ID == id {
			l.Forwarded = true
		}
	}
	return nil
}

// ListLeads returns the newest leads first; limit <= 0 means all.
func (s *memoryStore) ListLeads(_ context.Context, limit int) ([]*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Lead{}
	for i := len(s.leads) - 1; i >= 0; i-- {
		cp := *s.leads[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- settings & audit ---

func (s *memoryStore) GetSettings(context.Context) (*models.SiteSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, nil
	}
	cp := *s.settings
	cp.Socials = maps.Clone(s.settings.Socials)
	cp.Extra = maps.Clone(s.settings.Extra)
	return &cp, nil
}

func (s *memoryStore) SaveSettings(_ context.Context, st *models.SiteSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	cp.Socials = maps.Clone(st.Socials)
	cp.Extra = maps.Clone(st.Extra)
	s.settings = &cp
	return nil
}

func (s *memoryStore) AddAudit(_ context.Context, e models.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
}

// ListAudit returns the newest entries first.
func (s *memoryStore) ListAudit(_ context.Context, limit int) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.AuditEntry{}
	for i := len(s.audit) - 1; i >= 0; i-- {
		out = append(out, s.audit[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
