package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ironpulse/clubsite/internal/models"
)

// QuestionStore persists quiz questions and their answer options. Listing with
// includeInactive=false returns active questions carrying only active options.
type QuestionStore interface {
	ListQuestions(ctx context.Context, includeInactive bool) ([]*models.Question, error)
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	InsertQuestion(ctx context.Context, q *models.Question) error
	UpdateQuestion(ctx context.Context, q *models.Question) (bool, error)
	SetQuestionActive(ctx context.Context, id string, active bool) (bool, error)
	ReorderQuestions(ctx context.Context, order []string) error

	InsertOption(ctx context.Context, o *models.AnswerOption) error
	UpdateOption(ctx context.Context, o *models.AnswerOption) (bool, error)
	SetOptionActive(ctx context.Context, id string, active bool) (bool, error)

	AddAudit(ctx context.Context, e models.AuditEntry)
}

type QuestionService struct {
	store QuestionStore
	now   func() time.Time
	idGen func() string
}

func NewQuestionService(store QuestionStore) *QuestionService {
	return &QuestionService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: newID,
	}
}

func (s *QuestionService) List(ctx context.Context, includeInactive bool) ([]*models.Question, error) {
	qs, err := s.store.ListQuestions(ctx, includeInactive)
	return qs, persistErr("list questions", err)
}

func (s *QuestionService) Get(ctx context.Context, id string) (*models.Question, error) {
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return nil, persistErr("get question", err)
	}
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	return q, nil
}

// Create stores a question together with its initial options.
func (s *QuestionService) Create(ctx context.Context, actor string, in *models.Question) (*models.Question, error) {
	if in == nil {
		return nil, NewInvalidError("question required")
	}
	q := *in
	normalizeQuestion(&q)
	if err := validateStruct(&q); err != nil {
		return nil, err
	}
	q.ID = s.idGen()
	q.Active = true
	q.CreatedAt = s.now()
	opts := make([]models.AnswerOption, 0, len(in.Options))
	for i, o := range in.Options {
		normalizeOption(&o)
		if err := validateStruct(&o); err != nil {
			return nil, err
		}
		o.ID = s.idGen()
		o.QuestionID = q.ID
		o.Active = true
		if o.Order == 0 {
			o.Order = i + 1
		}
		opts = append(opts, o)
	}
	if err := checkUniqueValues(opts, ""); err != nil {
		return nil, err
	}
	q.Options = opts
	if err := s.store.InsertQuestion(ctx, &q); err != nil {
		return nil, optionStoreErr("insert question", err)
	}
	s.audit(ctx, actor, "question_create", q.ID, q.Text)
	return &q, nil
}

// Update changes text, kind and order. Options are managed separately.
func (s *QuestionService) Update(ctx context.Context, actor, id string, in *models.Question) (*models.Question, error) {
	if in == nil {
		return nil, NewInvalidError("question required")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q := *existing
	q.Text = in.Text
	q.Kind = in.Kind
	q.Order = in.Order
	normalizeQuestion(&q)
	if err := validateStruct(&q); err != nil {
		return nil, err
	}
	ok, err := s.store.UpdateQuestion(ctx, &q)
	if err != nil {
		return nil, persistErr("update question", err)
	}
	if !ok {
		return nil, NewNotFoundError("question not found")
	}
	s.audit(ctx, actor, "question_update", q.ID, q.Text)
	return &q, nil
}

// SetActive archives or restores a question. Archived questions stay in the
// store so stored submissions keep resolving.
func (s *QuestionService) SetActive(ctx context.Context, actor, id string, active bool) error {
	ok, err := s.store.SetQuestionActive(ctx, id, active)
	if err != nil {
		return persistErr("set question active", err)
	}
	if !ok {
		return NewNotFoundError("question not found")
	}
	s.audit(ctx, actor, activeAction("question", active), id, "")
	return nil
}

// Reorder assigns display order following ids; unknown questions are ignored
// by the store and the rest keep their relative order after the listed ones.
func (s *QuestionService) Reorder(ctx context.Context, actor string, order []string) (int, error) {
	order = cleanIDs(order)
	if len(order) == 0 {
		return 0, NewInvalidError("order required")
	}
	if err := s.store.ReorderQuestions(ctx, order); err != nil {
		return 0, persistErr("reorder questions", err)
	}
	s.audit(ctx, actor, "question_reorder", "", strings.Join(order, ","))
	return len(order), nil
}

func (s *QuestionService) AddOption(ctx context.Context, actor, questionID string, in *models.AnswerOption) (*models.AnswerOption, error) {
	if in == nil {
		return nil, NewInvalidError("option required")
	}
	q, err := s.Get(ctx, questionID)
	if err != nil {
		return nil, err
	}
	o := *in
	normalizeOption(&o)
	if err := validateStruct(&o); err != nil {
		return nil, err
	}
	o.ID = s.idGen()
	o.QuestionID = q.ID
	o.Active = true
	if o.Order == 0 {
		o.Order = len(q.Options) + 1
	}
	if err := checkUniqueValues(append(activeOptions(q.Options), o), ""); err != nil {
		return nil, err
	}
	if err := s.store.InsertOption(ctx, &o); err != nil {
		return nil, optionStoreErr("insert option", err)
	}
	s.audit(ctx, actor, "option_create", o.ID, q.ID+":"+o.Value)
	return &o, nil
}

func (s *QuestionService) UpdateOption(ctx context.Context, actor, questionID, optionID string, in *models.AnswerOption) (*models.AnswerOption, error) {
	if in == nil {
		return nil, NewInvalidError("option required")
	}
	q, err := s.Get(ctx, questionID)
	if err != nil {
		return nil, err
	}
	existing := findOption(q.Options, optionID)
	if existing == nil {
		return nil, NewNotFoundError("option not found")
	}
	o := *existing
	o.Text = in.Text
	o.Value = in.Value
	o.Order = in.Order
	normalizeOption(&o)
	if err := validateStruct(&o); err != nil {
		return nil, err
	}
	if o.Active {
		if err := checkUniqueValues(append(activeOptions(q.Options), o), o.ID); err != nil {
			return nil, err
		}
	}
	ok, err := s.store.UpdateOption(ctx, &o)
	if err != nil {
		return nil, optionStoreErr("update option", err)
	}
	if !ok {
		return nil, NewNotFoundError("option not found")
	}
	s.audit(ctx, actor, "option_update", o.ID, q.ID+":"+o.Value)
	return &o, nil
}

// SetOptionActive archives or restores an option. Restoring fails with a
// conflict when another active option already uses the same value.
func (s *QuestionService) SetOptionActive(ctx context.Context, actor, questionID, optionID string, active bool) error {
	q, err := s.Get(ctx, questionID)
	if err != nil {
		return err
	}
	o := findOption(q.Options, optionID)
	if o == nil {
		return NewNotFoundError("option not found")
	}
	if active && !o.Active {
		restored := *o
		restored.Active = true
		if err := checkUniqueValues(append(activeOptions(q.Options), restored), ""); err != nil {
			return err
		}
	}
	ok, err := s.store.SetOptionActive(ctx, optionID, active)
	if err != nil {
		return optionStoreErr("set option active", err)
	}
	if !ok {
		return NewNotFoundError("option not found")
	}
	s.audit(ctx, actor, activeAction("option", active), optionID, q.ID)
	return nil
}

func normalizeQuestion(q *models.Question) {
	q.Text = strings.TrimSpace(q.Text)
	q.Kind = strings.ToLower(strings.TrimSpace(q.Kind))
	if q.Kind == "" {
		q.Kind = models.QuestionSingle
	}
}

func normalizeOption(o *models.AnswerOption) {
	o.Text = strings.TrimSpace(o.Text)
	o.Value = strings.TrimSpace(o.Value)
}

func activeOptions(opts []models.AnswerOption) []models.AnswerOption {
	out := make([]models.AnswerOption, 0, len(opts))
	for _, o := range opts {
		if o.Active {
			out = append(out, o)
		}
	}
	return out
}

func findOption(opts []models.AnswerOption, id string) *models.AnswerOption {
	for i := range opts {
		if opts[i].ID == id {
			return &opts[i]
		}
	}
	return nil
}

// checkUniqueValues fails when two options share a value token. skipID names an
// option whose stored copy is being replaced by a later entry in opts.
func checkUniqueValues(opts []models.AnswerOption, skipID string) error {
	seen := make(map[string]struct{}, len(opts))
	for i, o := range opts {
		if skipID != "" && o.ID == skipID && i < len(opts)-1 {
			continue
		}
		if _, dup := seen[o.Value]; dup {
			return NewConflictError("duplicate answer value " + o.Value)
		}
		seen[o.Value] = struct{}{}
	}
	return nil
}

// optionStoreErr maps a duplicate value rejected by the store to a conflict.
func optionStoreErr(op string, err error) error {
	if errors.Is(err, models.ErrDuplicateOptionValue) {
		return NewConflictError("duplicate answer value")
	}
	return persistErr(op, err)
}

func (s *QuestionService) audit(ctx context.Context, actor, action, target, note string) {
	s.store.AddAudit(ctx, models.AuditEntry{Time: s.now(), Actor: actor, Action: action, Target: target, Note: note})
}
