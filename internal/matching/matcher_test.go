package matching

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, priority int, conditions string) RuleRecord {
	return RuleRecord{ID: id, Name: "rule " + id, Priority: priority, Conditions: conditions, Active: true}
}

func ids(summaries []MatchSummary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.ID)
	}
	return out
}

func TestEvaluate_EmptyConditionsMatchEmptyAnswers(t *testing.T) {
	got, err := Evaluate(map[string]string{}, []RuleRecord{record("r1", 5, `[]`)})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids(got))
}

func TestEvaluate_InOperator(t *testing.T) {
	rules := []RuleRecord{record("r1", 0, `[{"question_id":"q1","answer_values":["a","b"],"operator":"in"}]`)}

	got, err := Evaluate(map[string]string{"q1": "b"}, rules)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids(got))

	got, err = Evaluate(map[string]string{"q1": "c"}, rules)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Evaluate(map[string]string{}, rules)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvaluate_NotInOperator(t *testing.T) {
	rules := []RuleRecord{record("r1", 0, `[{"question_id":"q1","answer_values":["x"],"operator":"not_in"}]`)}

	got, err := Evaluate(map[string]string{"q1": "y"}, rules)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids(got))

	got, err = Evaluate(map[string]string{"q1": "x"}, rules)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvaluate_PreservesInputOrder(t *testing.T) {
	rules := []RuleRecord{
		record("high", 10, `[]`),
		record("low", 1, `[]`),
	}
	got, err := Evaluate(map[string]string{"q1": "a"}, rules)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "low"}, ids(got))

	// No re-ranking even when the caller hands rules in another order.
	reversed := []RuleRecord{rules[1], rules[0]}
	got, err = Evaluate(map[string]string{"q1": "a"}, reversed)
	require.NoError(t, err)
	assert.Equal(t, []string{"low", "high"}, ids(got))
}

func TestEvaluate_EmptyInputs(t *testing.T) {
	got, err := Evaluate(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEvaluate_AllConditionsMustHold(t *testing.T) {
	rules := []RuleRecord{record("r1", 0, `[
		{"question_id":"goal","answer_values":["weight"],"operator":"in"},
		{"question_id":"level","answer_values":["pro"],"operator":"not_in"}
	]`)}

	got, err := Evaluate(map[string]string{"goal": "weight", "level": "beginner"}, rules)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = Evaluate(map[string]string{"goal": "weight", "level": "pro"}, rules)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Evaluate(map[string]string{"goal": "weight"}, rules)
	require.NoError(t, err)
	assert.Empty(t, got, "missing answer must fail the rule")
}

func TestEvaluate_MissingAnswerFailsEveryOperator(t *testing.T) {
	for _, op := range []Operator{OpIn, OpNotIn, OpEquals} {
		r := Rule{ID: "r", Conditions: []Condition{{QuestionID: "q1", AnswerValues: []string{"a"}, Operator: op}}}
		assert.False(t, r.Matches(map[string]string{"q2": "a"}), "operator %s", op)
	}
}

func TestCondition_EqualsBehavesLikeIn(t *testing.T) {
	sets := [][]string{nil, {"a"}, {"a", "b"}, {"b", "c", "d"}}
	values := []string{"a", "b", "z", ""}
	for _, set := range sets {
		for _, v := range values {
			in := Condition{QuestionID: "q", AnswerValues: set, Operator: OpIn}
			eq := Condition{QuestionID: "q", AnswerValues: set, Operator: OpEquals}
			notIn := Condition{QuestionID: "q", AnswerValues: set, Operator: OpNotIn}
			assert.Equal(t, in.Holds(v), eq.Holds(v), "set=%v value=%q", set, v)
			assert.Equal(t, !in.Holds(v), notIn.Holds(v), "set=%v value=%q", set, v)
		}
	}
}

// equals is set membership, not single-value comparison: with several values any
// of them satisfies the condition.
func TestCondition_EqualsWithSeveralValues(t *testing.T) {
	c := Condition{QuestionID: "q", AnswerValues: []string{"morning", "evening"}, Operator: OpEquals}
	assert.True(t, c.Holds("evening"))
	assert.False(t, c.Holds("noon"))
}

func TestEvaluate_SummaryIDLists(t *testing.T) {
	rec := record("r1", 0, `[]`)
	rec.Description = "Strength for beginners"
	rec.TrainerIDs = `["t1","t2"]`
	rec.DirectionIDs = "null"
	rec.ClubIDs = ""

	got, err := Evaluate(nil, []RuleRecord{rec})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, MatchSummary{
		ID:           "r1",
		Name:         "rule r1",
		Description:  "Strength for beginners",
		TrainerIDs:   []string{"t1", "t2"},
		DirectionIDs: []string{},
		ClubIDs:      []string{},
	}, got[0])
}

func TestEvaluate_MalformedRuleFailsWholeCall(t *testing.T) {
	tests := []struct {
		name  string
		rec   RuleRecord
		field string
	}{
		{"conditions", record("bad", 0, `[{"question_id":`), "conditions"},
		{"operator", record("bad", 0, `[{"question_id":"q1","answer_values":["a"],"operator":"like"}]`), "conditions"},
		{"club ids", RuleRecord{ID: "bad", Conditions: "[]", ClubIDs: `{"a":1}`}, "club_ids"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rules := []RuleRecord{record("ok", 10, `[]`), tc.rec}
			got, err := Evaluate(map[string]string{"q1": "a"}, rules)
			require.Error(t, err)
			assert.Nil(t, got)

			var mre *MalformedRuleError
			require.True(t, errors.As(err, &mre))
			assert.Equal(t, "bad", mre.RuleID)
			assert.Equal(t, tc.field, mre.Field)
		})
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	rules := []RuleRecord{
		record("a", 3, `[{"question_id":"q1","answer_values":["x"],"operator":"in"}]`),
		record("b", 2, `[]`),
		record("c", 1, `[{"question_id":"q2","answer_values":["y"],"operator":"not_in"}]`),
	}
	answers := map[string]string{"q1": "x", "q2": "z"}

	first, err := Evaluate(answers, rules)
	require.NoError(t, err)
	second, err := Evaluate(answers, rules)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.LessOrEqual(t, len(first), len(rules))
	assert.Equal(t, []string{"a", "b", "c"}, ids(first))
}

func TestEncodeRule_RoundTripsThroughDecode(t *testing.T) {
	in := Rule{
		ID:         "r1",
		Name:       "Yoga",
		Conditions: []Condition{{QuestionID: "q1", AnswerValues: []string{"calm"}, Operator: OpIn}},
		ClubIDs:    []string{"c1"},
		Priority:   4,
	}
	rec, err := EncodeRule(in)
	require.NoError(t, err)
	assert.Equal(t, "[]", rec.TrainerIDs)

	out, err := DecodeRule(rec)
	require.NoError(t, err)
	assert.Equal(t, in.Conditions, out.Conditions)
	assert.Equal(t, []string{"c1"}, out.ClubIDs)
	assert.Equal(t, []string{}, out.TrainerIDs)
	assert.Equal(t, 4, out.Priority)
}
