// Package matching maps quiz answers onto recommendation rules.
//
// Everything here is pure: no I/O, no shared state. Callers hand in the active
// rules already ordered by priority and get back the matching subset in the
// same order.
package matching

// MatchSummary is what a matched rule contributes to the quiz response.
type MatchSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	TrainerIDs   []string `json:"trainer_ids"`
	DirectionIDs []string `json:"direction_ids"`
	ClubIDs      []string `json:"club_ids"`
}

// Evaluate decodes every record and returns summaries for the rules whose
// conditions all hold against answers. Any malformed record fails the whole call.
func Evaluate(answers map[string]string, rules []RuleRecord) ([]MatchSummary, error) {
	decoded := make([]Rule, 0, len(rules))
	for _, rec := range rules {
		r, err := DecodeRule(rec)
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, r)
	}
	return Match(answers, decoded), nil
}

// Match is Evaluate over already decoded rules.
func Match(answers map[string]string, rules []Rule) []MatchSummary {
	out := make([]MatchSummary, 0)
	for _, r := range rules {
		if !r.Matches(answers) {
			continue
		}
		out = append(out, r.Summary())
	}
	return out
}

// Matches reports whether every condition holds. A rule without conditions
// matches any answers, including none.
func (r Rule) Matches(answers map[string]string) bool {
	for _, c := range r.Conditions {
		v, ok := answers[c.QuestionID]
		if !ok {
			return false
		}
		if !c.Holds(v) {
			return false
		}
	}
	return true
}

// Holds evaluates the condition against one answer value.
func (c Condition) Holds(value string) bool {
	switch c.Operator {
	case OpIn, OpEquals:
		return contains(c.AnswerValues, value)
	case OpNotIn:
		return !contains(c.AnswerValues, value)
	}
	return false
}

// Summary copies the public fields of r. Nil id lists become empty slices.
func (r Rule) Summary() MatchSummary {
	return MatchSummary{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		TrainerIDs:   nonNil(r.TrainerIDs),
		DirectionIDs: nonNil(r.DirectionIDs),
		ClubIDs:      nonNil(r.ClubIDs),
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
