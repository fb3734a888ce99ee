package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/ironpulse/clubsite/internal/matching"
	"github.com/ironpulse/clubsite/internal/models"
)

// --- questions & options ---

func (s *SQLiteStore) ListQuestions(ctx context.Context, includeInactive bool) ([]*models.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, kind, sort_order, active, created_at FROM questions`+
		activeFilter(includeInactive)+` ORDER BY sort_order ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	out := []*models.Question{}
	byID := map[string]*models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			closeRows(rows, s.log, "ListQuestions")
			return nil, err
		}
		out = append(out, q)
		byID[q.ID] = q
	}
	closeRows(rows, s.log, "ListQuestions")
	if err := rows.Err(); err != nil {
		return nil, err
	}

	optQuery := `SELECT id, question_id, text, value, sort_order, active FROM answer_options`
	if !includeInactive {
		optQuery += ` WHERE active = 1`
	}
	optRows, err := s.db.QueryContext(ctx, optQuery+` ORDER BY sort_order ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(optRows, s.log, "ListQuestions options")
	for optRows.Next() {
		var o models.AnswerOption
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Value, &o.Order, &o.Active); err != nil {
			return nil, err
		}
		if q, ok := byID[o.QuestionID]; ok {
			q.Options = append(q.Options, o)
		}
	}
	return out, optRows.Err()
}

func scanQuestion(sc rowScanner) (*models.Question, error) {
	var q models.Question
	var created string
	if err := sc.Scan(&q.ID, &q.Text, &q.Kind, &q.Order, &q.Active, &created); err != nil {
		return nil, err
	}
	q.CreatedAt = parseTime(created)
	q.Options = []models.AnswerOption{}
	return &q, nil
}

// GetQuestion returns the question with all of its options, archived included.
func (s *SQLiteStore) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT id, text, kind, sort_order, active, created_at FROM questions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, question_id, text, value, sort_order, active FROM answer_options
  WHERE question_id = ? ORDER BY sort_order ASC, rowid ASC`, id)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.log, "GetQuestion")
	for rows.Next() {
		var o models.AnswerOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Value, &o.Order, &o.Active); err != nil {
			return nil, err
		}
		q.Options = append(q.Options, o)
	}
	return q, rows.Err()
}

// InsertQuestion stores the question and its options in one transaction.
func (s *SQLiteStore) InsertQuestion(ctx context.Context, q *models.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT INTO questions (id, text, kind, sort_order, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, q.Text, q.Kind, q.Order, boolToInt64(q.Active), formatTime(q.CreatedAt)); err != nil {
		return err
	}
	for _, o := range q.Options {
		if _, err := tx.ExecContext(ctx, `INSERT INTO answer_options (id, question_id, text, value, sort_order, active) VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, q.ID, o.Text, o.Value, o.Order, boolToInt64(o.Active)); err != nil {
			return fmt.Errorf("insert option %s: %w", o.ID, optionErr(err))
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) UpdateQuestion(ctx context.Context, q *models.Question) (bool, error) {
	return affected(s.db.ExecContext(ctx, `UPDATE questions SET text = ?, kind = ?, sort_order = ? WHERE id = ?`,
		q.Text, q.Kind, q.Order, q.ID))
}

func (s *SQLiteStore) SetQuestionActive(ctx context.Context, id string, active bool) (bool, error) {
	return affected(s.db.ExecContext(ctx, `UPDATE questions SET active = ? WHERE id = ?`, boolToInt64(active), id))
}

// ReorderQuestions numbers the listed questions first and the rest after them,
// keeping their current relative order.
func (s *SQLiteStore) ReorderQuestions(ctx context.Context, order []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM questions ORDER BY sort_order ASC, created_at ASC, id ASC`)
	if err != nil {
		return err
	}
	var current []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			closeRows(rows, s.log, "ReorderQuestions")
			return err
		}
		current = append(current, id)
	}
	closeRows(rows, s.log, "ReorderQuestions")
	if err := rows.Err(); err != nil {
		return err
	}

	known := make(map[string]bool, len(current))
	for _, id := range current {
		known[id] = true
	}
	listed := make(map[string]bool, len(order))
	n := 0
	assign := func(id string) error {
		n++
		_, err := tx.ExecContext(ctx, `UPDATE questions SET sort_order = ? WHERE id = ?`, n, id)
		return err
	}
	for _, id := range order {
		if !known[id] || listed[id] {
			continue
		}
		listed[id] = true
		if err := assign(id); err != nil {
			return err
		}
	}
	for _, id := range current {
		if listed[id] {
			continue
		}
		if err := assign(id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// optionErr maps a violation of idx_answer_options_active_value to
// models.ErrDuplicateOptionValue.
func optionErr(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", models.ErrDuplicateOptionValue, err)
	}
	return err
}

func (s *SQLiteStore) InsertOption(ctx context.Context, o *models.AnswerOption) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO answer_options (id, question_id, text, value, sort_order, active) VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.QuestionID, o.Text, o.Value, o.Order, boolToInt64(o.Active))
	return optionErr(err)
}

func (s *SQLiteStore) UpdateOption(ctx context.Context, o *models.AnswerOption) (bool, error) {
	ok, err := affected(s.db.ExecContext(ctx, `UPDATE answer_options SET text = ?, value = ?, sort_order = ?, active = ? WHERE id = ?`,
		o.Text, o.Value, o.Order, boolToInt64(o.Active), o.ID))
	return ok, optionErr(err)
}

func (s *SQLiteStore) SetOptionActive(ctx context.Context, id string, active bool) (bool, error) {
	ok, err := affected(s.db.ExecContext(ctx, `UPDATE answer_options SET active = ? WHERE id = ?`, boolToInt64(active), id))
	return ok, optionErr(err)
}

// --- rules ---

const ruleColumns = `id, name, description, conditions, trainer_ids, direction_ids, club_ids, priority, active, created_at`

// ruleOrder is the evaluation order the matcher relies on.
const ruleOrder = ` ORDER BY priority DESC, created_at ASC, id ASC`

// scanRule keeps the JSON columns as text; decoding happens in the matcher so
// a broken row surfaces as a MalformedRuleError.
func scanRule(sc rowScanner) (matching.RuleRecord, error) {
	var r matching.RuleRecord
	var created string
	if err := sc.Scan(&r.ID, &r.Name, &r.Description, &r.Conditions, &r.TrainerIDs, &r.DirectionIDs, &r.ClubIDs,
		&r.Priority, &r.Active, &created); err != nil {
		return matching.RuleRecord{}, err
	}
	r.CreatedAt = parseTime(created)
	return r, nil
}

func (s *SQLiteStore) queryRules(ctx context.Context, where string) ([]matching.RuleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ruleColumns+` FROM rules`+where+ruleOrder)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.log, "queryRules")
	out := []matching.RuleRecord{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListRules(ctx context.Context, includeInactive bool) ([]matching.RuleRecord, error) {
	return s.queryRules(ctx, activeFilter(includeInactive))
}

// ListActiveRules returns active rules by priority descending, then creation
// time ascending.
func (s *SQLiteStore) ListActiveRules(ctx context.Context) ([]matching.RuleRecord, error) {
	return s.queryRules(ctx, ` WHERE active = 1`)
}

func (s *SQLiteStore) GetRule(ctx context.Context, id string) (*matching.RuleRecord, error) {
	r, err := scanRule(s.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM rules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) InsertRule(ctx context.Context, r *matching.RuleRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO rules (`+ruleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Description, r.Conditions, r.TrainerIDs, r.DirectionIDs, r.ClubIDs,
		r.Priority, boolToInt64(r.Active), formatTime(r.CreatedAt))
	return err
}

func (s *SQLiteStore) UpdateRule(ctx context.Context, r *matching.RuleRecord) (bool, error) {
	return affected(s.db.ExecContext(ctx, `UPDATE rules SET name = ?, description = ?, conditions = ?, trainer_ids = ?,
  direction_ids = ?, club_ids = ?, priority = ?, active = ? WHERE id = ?`,
		r.Name, r.Description, r.Conditions, r.TrainerIDs, r.DirectionIDs, r.ClubIDs,
		r.Priority, boolToInt64(r.Active), r.ID))
}

func (s *SQLiteStore) SetRuleActive(ctx context.Context, id string, active bool) (bool, error) {
	return affected(s.db.ExecContext(ctx, `UPDATE rules SET active = ? WHERE id = ?`, boolToInt64(active), id))
}

// --- submissions ---

func (s *SQLiteStore) SaveSubmission(ctx context.Context, sub *models.Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	recs := sub.Recommendations
	if recs == nil {
		recs = []matching.MatchSummary{}
	}
	recJSON, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quiz_submissions (id, session_id, answers, recommendations, created_at) VALUES (?, ?, ?, ?, ?)`,
		sub.ID, sub.SessionID, string(answers), string(recJSON), formatTime(sub.CreatedAt))
	return err
}

// ListSubmissions returns submissions created at or after since, oldest first.
func (s *SQLiteStore) ListSubmissions(ctx context.Context, since time.Time) ([]*models.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, session_id, answers, recommendations, created_at FROM quiz_submissions
  WHERE created_at >= ? ORDER BY created_at ASC, rowid ASC`, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.log, "ListSubmissions")
	out := []*models.Submission{}
	for rows.Next() {
		var sub models.Submission
		var answers, recs, created string
		if err := rows.Scan(&sub.ID, &sub.SessionID, &answers, &recs, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
			return nil, fmt.Errorf("submission %s: decode answers: %w", sub.ID, err)
		}
		if err := json.Unmarshal([]byte(recs), &sub.Recommendations); err != nil {
			return nil, fmt.Errorf("submission %s: decode recommendations: %w", sub.ID, err)
		}
		sub.CreatedAt = parseTime(created)
		out = append(out, &sub)
	}
	return out, rows.Err()
}
