package services

import (
	"context"
	"strings"
	"time"

	"github.com/ironpulse/clubsite/internal/logger"
	"github.com/ironpulse/clubsite/internal/matching"
	"github.com/ironpulse/clubsite/internal/models"
)

// QuizStore combines the Rule Store read path with the Result Sink.
type QuizStore interface {
	ListActiveRules(ctx context.Context) ([]matching.RuleRecord, error)
	SaveSubmission(ctx context.Context, sub *models.Submission) error
	ListQuestions(ctx context.Context, includeInactive bool) ([]*models.Question, error)
}

// LeadCapturer receives the contact details optionally attached to a quiz.
type LeadCapturer interface {
	Capture(ctx context.Context, in LeadInput) (*models.Lead, error)
}

// ContactInput is the optional contact block of a quiz submission.
type ContactInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	ClubID  string `json:"club_id,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// SubmitRequest is the sanitized quiz submission. A nil Answers map means the
// field was absent and is rejected; an empty map is accepted.
type SubmitRequest struct {
	SessionID string
	Answers   map[string]string
	Contact   *ContactInput
}

type SubmitResult struct {
	SubmissionID    string
	Recommendations []matching.MatchSummary
	// Persisted is false when the submission could not be stored; the
	// recommendations are still valid.
	Persisted bool
	LeadID    string
}

// QuizService runs a quiz submission: load active rules, match, record.
type QuizService struct {
	store       QuizStore
	leads       LeadCapturer
	log         *logger.Logger
	now         func() time.Time
	idGen       func() string
	saveTimeout time.Duration
	leadTimeout time.Duration
}

func NewQuizService(store QuizStore, leads LeadCapturer, log *logger.Logger) *QuizService {
	if log == nil {
		log = logger.NewNop()
	}
	return &QuizService{
		store:       store,
		leads:       leads,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
		idGen:       newID,
		saveTimeout: 5 * time.Second,
		leadTimeout: 5 * time.Second,
	}
}

// Questions returns the active questions with their active options, in display order.
func (s *QuizService) Questions(ctx context.Context) ([]*models.Question, error) {
	qs, err := s.store.ListQuestions(ctx, false)
	return qs, persistErr("list questions", err)
}

// Submit validates the request, evaluates the active rules and stores the
// result. Failing to fetch rules, or a malformed rule, fails the call; failing
// to store the submission or to capture the lead is only logged. Both are
// bounded so a slow store or sink cannot hold the response.
func (s *QuizService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return nil, NewInvalidError("session_id required")
	}
	if req.Answers == nil {
		return nil, NewInvalidError("answers required")
	}

	rules, err := s.store.ListActiveRules(ctx)
	if err != nil {
		return nil, persistErr("list active rules", err)
	}
	matches, err := matching.Evaluate(req.Answers, rules)
	if err != nil {
		return nil, err
	}

	answers := make(map[string]string, len(req.Answers))
	for k, v := range req.Answers {
		answers[k] = v
	}
	sub := &models.Submission{
		ID:              s.idGen(),
		SessionID:       sessionID,
		Answers:         answers,
		Recommendations: matches,
		CreatedAt:       s.now(),
	}
	res := &SubmitResult{SubmissionID: sub.ID, Recommendations: matches}

	saveCtx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()
	if err := s.store.SaveSubmission(saveCtx, sub); err != nil {
		s.log.Error("quiz submission not stored", "session_id", sessionID, "submission_id", sub.ID, "error", persistErr("save submission", err))
	} else {
		res.Persisted = true
	}

	if req.Contact != nil && s.leads != nil {
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Name)
		}
		leadCtx, cancelLead := context.WithTimeout(ctx, s.leadTimeout)
		defer cancelLead()
		lead, err := s.leads.Capture(leadCtx, LeadInput{
			Name:            req.Contact.Name,
			Phone:           req.Contact.Phone,
			ClubID:          req.Contact.ClubID,
			Comment:         req.Contact.Comment,
			Source:          "quiz",
			SessionID:       sessionID,
			Recommendations: names,
		})
		if err != nil {
			s.log.Warn("quiz lead not captured", "session_id", sessionID, "error", err)
		} else {
			res.LeadID = lead.ID
		}
	}
	return res, nil
}
