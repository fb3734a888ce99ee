package matching

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Operator is the comparison a Condition applies to a single answer value.
type Operator string

const (
	OpIn    Operator = "in"
	OpNotIn Operator = "not_in"
	// OpEquals compares by set membership, exactly like OpIn. Stored rules rely on
	// this, so it is not narrowed to single-value equality.
	OpEquals Operator = "equals"
)

// Valid reports whether op is one of the known operators.
func (op Operator) Valid() bool {
	switch op {
	case OpIn, OpNotIn, OpEquals:
		return true
	}
	return false
}

// Condition is a predicate over the answer given to one question.
type Condition struct {
	QuestionID   string   `json:"question_id"`
	AnswerValues []string `json:"answer_values"`
	Operator     Operator `json:"operator"`
}

// Rule is the decoded form of a stored recommendation rule.
type Rule struct {
	ID           string
	Name         string
	Description  string
	Conditions   []Condition
	TrainerIDs   []string
	DirectionIDs []string
	ClubIDs      []string
	Priority     int
}

// RuleRecord is a recommendation rule as persisted: conditions and id lists are
// JSON text columns.
type RuleRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Conditions   string    `json:"conditions"`
	TrainerIDs   string    `json:"trainer_ids"`
	DirectionIDs string    `json:"direction_ids"`
	ClubIDs      string    `json:"club_ids"`
	Priority     int       `json:"priority"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// DecodeRule converts a stored record into a Rule. Empty or null text decodes to
// an empty list; anything else that is not valid JSON, or a condition with an
// unknown operator, yields a *MalformedRuleError.
func DecodeRule(rec RuleRecord) (Rule, error) {
	rule := Rule{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Priority:    rec.Priority,
	}
	if err := decodeText(rec.Conditions, &rule.Conditions); err != nil {
		return Rule{}, &MalformedRuleError{RuleID: rec.ID, Field: "conditions", Err: err}
	}
	for i, c := range rule.Conditions {
		if !c.Operator.Valid() {
			return Rule{}, &MalformedRuleError{
				RuleID: rec.ID,
				Field:  "conditions",
				Err:    fmt.Errorf("condition %d: unknown operator %q", i, c.Operator),
			}
		}
	}
	lists := []struct {
		field string
		text  string
		dst   *[]string
	}{
		{"trainer_ids", rec.TrainerIDs, &rule.TrainerIDs},
		{"direction_ids", rec.DirectionIDs, &rule.DirectionIDs},
		{"club_ids", rec.ClubIDs, &rule.ClubIDs},
	}
	for _, l := range lists {
		if err := decodeText(l.text, l.dst); err != nil {
			return Rule{}, &MalformedRuleError{RuleID: rec.ID, Field: l.field, Err: err}
		}
		if *l.dst == nil {
			*l.dst = []string{}
		}
	}
	return rule, nil
}

// EncodeConditions renders conditions as the JSON text stored in RuleRecord.Conditions.
func EncodeConditions(conds []Condition) (string, error) {
	if conds == nil {
		conds = []Condition{}
	}
	b, err := json.Marshal(conds)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeIDs renders an identifier list as stored JSON text.
func EncodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeRule produces the persisted form of r. Active and CreatedAt are left to the caller.
func EncodeRule(r Rule) (RuleRecord, error) {
	rec := RuleRecord{ID: r.ID, Name: r.Name, Description: r.Description, Priority: r.Priority}
	var err error
	if rec.Conditions, err = EncodeConditions(r.Conditions); err != nil {
		return RuleRecord{}, fmt.Errorf("encode conditions: %w", err)
	}
	if rec.TrainerIDs, err = EncodeIDs(r.TrainerIDs); err != nil {
		return RuleRecord{}, fmt.Errorf("encode trainer_ids: %w", err)
	}
	if rec.DirectionIDs, err = EncodeIDs(r.DirectionIDs); err != nil {
		return RuleRecord{}, fmt.Errorf("encode direction_ids: %w", err)
	}
	if rec.ClubIDs, err = EncodeIDs(r.ClubIDs); err != nil {
		return RuleRecord{}, fmt.Errorf("encode club_ids: %w", err)
	}
	return rec, nil
}

func decodeText(text string, dst any) error {
	t := strings.TrimSpace(text)
	if t == "" || t == "null" {
		return nil
	}
	return json.Unmarshal([]byte(t), dst)
}
