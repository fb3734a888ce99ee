package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ironpulse/clubsite/internal/matching"
	"github.com/ironpulse/clubsite/internal/models"
)

// RuleStore is the Rule Store. ListActiveRules returns active rules ordered by
// priority descending, then creation time ascending.
type RuleStore interface {
	ListRules(ctx context.Context, includeInactive bool) ([]matching.RuleRecord, error)
	ListActiveRules(ctx context.Context) ([]matching.RuleRecord, error)
	GetRule(ctx context.Context, id string) (*matching.RuleRecord, error)
	InsertRule(ctx context.Context, r *matching.RuleRecord) error
	UpdateRule(ctx context.Context, r *matching.RuleRecord) (bool, error)
	SetRuleActive(ctx context.Context, id string, active bool) (bool, error)

	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	AddAudit(ctx context.Context, e models.AuditEntry)
}

// RuleInput is the admin payload for creating or replacing a rule.
type RuleInput struct {
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Conditions   []matching.Condition `json:"conditions"`
	TrainerIDs   []string             `json:"trainer_ids"`
	DirectionIDs []string             `json:"direction_ids"`
	ClubIDs      []string             `json:"club_ids"`
	Priority     int                  `json:"priority"`
}

// RuleView is a decoded rule for the admin panel. A stored rule that no longer
// decodes is still listed, with Malformed explaining why, so it can be fixed.
type RuleView struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Conditions   []matching.Condition `json:"conditions"`
	TrainerIDs   []string             `json:"trainer_ids"`
	DirectionIDs []string             `json:"direction_ids"`
	ClubIDs      []string             `json:"club_ids"`
	Priority     int                  `json:"priority"`
	Active       bool                 `json:"active"`
	CreatedAt    time.Time            `json:"created_at"`
	Malformed    string               `json:"malformed,omitempty"`
}

type RuleService struct {
	store RuleStore
	now   func() time.Time
	idGen func() string
}

func NewRuleService(store RuleStore) *RuleService {
	return &RuleService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: newID,
	}
}

func (s *RuleService) List(ctx context.Context, includeInactive bool) ([]RuleView, error) {
	recs, err := s.store.ListRules(ctx, includeInactive)
	if err != nil {
		return nil, persistErr("list rules", err)
	}
	out := make([]RuleView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRuleView(rec))
	}
	return out, nil
}

func (s *RuleService) Get(ctx context.Context, id string) (*RuleView, error) {
	rec, err := s.store.GetRule(ctx, id)
	if err != nil {
		return nil, persistErr("get rule", err)
	}
	if rec == nil {
		return nil, NewNotFoundError("rule not found")
	}
	v := toRuleView(*rec)
	return &v, nil
}

func (s *RuleService) Create(ctx context.Context, actor string, in RuleInput) (*RuleView, error) {
	rule, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	rule.ID = s.idGen()
	rec, err := matching.EncodeRule(rule)
	if err != nil {
		return nil, NewInvalidError(err.Error())
	}
	rec.Active = true
	rec.CreatedAt = s.now()
	if err := s.store.InsertRule(ctx, &rec); err != nil {
		return nil, persistErr("insert rule", err)
	}
	s.audit(ctx, actor, "rule_create", rec.ID, rec.Name)
	v := toRuleView(rec)
	return &v, nil
}

// Update replaces the rule definition, keeping id, active flag and creation time.
func (s *RuleService) Update(ctx context.Context, actor, id string, in RuleInput) (*RuleView, error) {
	existing, err := s.store.GetRule(ctx, id)
	if err != nil {
		return nil, persistErr("get rule", err)
	}
	if existing == nil {
		return nil, NewNotFoundError("rule not found")
	}
	rule, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	rule.ID = existing.ID
	rec, err := matching.EncodeRule(rule)
	if err != nil {
		return nil, NewInvalidError(err.Error())
	}
	rec.Active = existing.Active
	rec.CreatedAt = existing.CreatedAt
	ok, err := s.store.UpdateRule(ctx, &rec)
	if err != nil {
		return nil, persistErr("update rule", err)
	}
	if !ok {
		return nil, NewNotFoundError("rule not found")
	}
	s.audit(ctx, actor, "rule_update", rec.ID, rec.Name)
	v := toRuleView(rec)
	return &v, nil
}

func (s *RuleService) SetActive(ctx context.Context, actor, id string, active bool) error {
	ok, err := s.store.SetRuleActive(ctx, id, active)
	if err != nil {
		return persistErr("set rule active", err)
	}
	if !ok {
		return NewNotFoundError("rule not found")
	}
	s.audit(ctx, actor, activeAction("rule", active), id, "")
	return nil
}

// Preview evaluates the active rules against answers without storing anything.
func (s *RuleService) Preview(ctx context.Context, answers map[string]string) ([]matching.MatchSummary, error) {
	recs, err := s.store.ListActiveRules(ctx)
	if err != nil {
		return nil, persistErr("list active rules", err)
	}
	return matching.Evaluate(answers, recs)
}

func (s *RuleService) prepare(ctx context.Context, in RuleInput) (matching.Rule, error) {
	rule := matching.Rule{
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		TrainerIDs:   cleanIDs(in.TrainerIDs),
		DirectionIDs: cleanIDs(in.DirectionIDs),
		ClubIDs:      cleanIDs(in.ClubIDs),
		Priority:     in.Priority,
	}
	if rule.Name == "" {
		return matching.Rule{}, NewInvalidError("name required")
	}
	conds := make([]matching.Condition, 0, len(in.Conditions))
	for i, c := range in.Conditions {
		c.QuestionID = strings.TrimSpace(c.QuestionID)
		c.Operator = matching.Operator(strings.ToLower(strings.TrimSpace(string(c.Operator))))
		if c.Operator == "" {
			c.Operator = matching.OpIn
		}
		if c.QuestionID == "" {
			return matching.Rule{}, NewInvalidError("condition " + itoa(i) + ": question_id required")
		}
		if !c.Operator.Valid() {
			return matching.Rule{}, NewInvalidError("condition " + itoa(i) + ": unknown operator " + string(c.Operator))
		}
		c.AnswerValues = cleanIDs(c.AnswerValues)
		if len(c.AnswerValues) == 0 {
			return matching.Rule{}, NewInvalidError("condition " + itoa(i) + ": answer_values required")
		}
		q, err := s.store.GetQuestion(ctx, c.QuestionID)
		if err != nil {
			return matching.Rule{}, persistErr("get question", err)
		}
		if q == nil {
			return matching.Rule{}, NewNotFoundError("question " + c.QuestionID + " not found")
		}
		conds = append(conds, c)
	}
	rule.Conditions = conds
	return rule, nil
}

func toRuleView(rec matching.RuleRecord) RuleView {
	v := RuleView{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Priority:    rec.Priority,
		Active:      rec.Active,
		CreatedAt:   rec.CreatedAt,
	}
	rule, err := matching.DecodeRule(rec)
	if err != nil {
		var mre *matching.MalformedRuleError
		if errors.As(err, &mre) {
			v.Malformed = mre.Field + ": " + mre.Err.Error()
		} else {
			v.Malformed = err.Error()
		}
		return v
	}
	v.Conditions = rule.Conditions
	if v.Conditions == nil {
		v.Conditions = []matching.Condition{}
	}
	v.TrainerIDs = rule.TrainerIDs
	v.DirectionIDs = rule.DirectionIDs
	v.ClubIDs = rule.ClubIDs
	return v
}

func (s *RuleService) audit(ctx context.Context, actor, action, target, note string) {
	s.store.AddAudit(ctx, models.AuditEntry{Time: s.now(), Actor: actor, Action: action, Target: target, Note: note})
}
