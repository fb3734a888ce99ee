package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironpulse/clubsite/internal/models"
)

func newTestQuestions() (*QuestionService, *stubStore) {
	store := newStubStore()
	svc := NewQuestionService(store)
	svc.now = fixedClock()
	svc.idGen = seqIDs("q")
	return svc, store
}

func TestQuestionCreateWithOptions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestQuestions()

	q, err := svc.Create(ctx, "admin", &models.Question{
		Text: " What is your goal? ",
		Options: []models.AnswerOption{
			{Text: "Lose weight", Value: "weight"},
			{Text: "Strength", Value: "strength"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "What is your goal?", q.Text)
	assert.Equal(t, models.QuestionSingle, q.Kind)
	require.Len(t, q.Options, 2)
	assert.Equal(t, q.ID, q.Options[0].QuestionID)
	assert.Equal(t, 2, q.Options[1].Order)
	assert.True(t, q.Options[1].Active)

	_, err = svc.Create(ctx, "admin", &models.Question{
		Text:    "Dup",
		Options: []models.AnswerOption{{Text: "A", Value: "x"}, {Text: "B", Value: "x"}},
	})
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorConflict, se.Code)

	_, err = svc.Create(ctx, "admin", &models.Question{Text: "Kind", Kind: "scale"})
	assert.True(t, IsValidation(err))
}

func TestQuestionOptionsArchiveAndRestore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestQuestions()
	q, err := svc.Create(ctx, "admin", &models.Question{
		Text:    "Time",
		Kind:    "single",
		Options: []models.AnswerOption{{Text: "Morning", Value: "morning"}},
	})
	require.NoError(t, err)
	morning := q.Options[0]

	require.NoError(t, svc.SetOptionActive(ctx, "admin", q.ID, morning.ID, false))

	// archived value may be reused by a new option
	replacement, err := svc.AddOption(ctx, "admin", q.ID, &models.AnswerOption{Text: "Early", Value: "morning"})
	require.NoError(t, err)
	assert.Equal(t, 2, replacement.Order)

	err = svc.SetOptionActive(ctx, "admin", q.ID, morning.ID, true)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorConflict, se.Code)

	public, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, public, 1)
	require.Len(t, public[0].Options, 1)
	assert.Equal(t, "Early", public[0].Options[0].Text)

	_, err = svc.UpdateOption(ctx, "admin", q.ID, "missing", &models.AnswerOption{Text: "x", Value: "y"})
	se, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorNotFound, se.Code)
}

func TestQuestionUpdateOptionKeepsOwnValue(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestQuestions()
	q, err := svc.Create(ctx, "admin", &models.Question{
		Text:    "Level",
		Options: []models.AnswerOption{{Text: "New", Value: "new"}, {Text: "Pro", Value: "pro"}},
	})
	require.NoError(t, err)

	o, err := svc.UpdateOption(ctx, "admin", q.ID, q.Options[0].ID, &models.AnswerOption{Text: "Beginner", Value: "new", Order: 1})
	require.NoError(t, err)
	assert.Equal(t, "Beginner", o.Text)

	_, err = svc.UpdateOption(ctx, "admin", q.ID, q.Options[0].ID, &models.AnswerOption{Text: "Beginner", Value: "pro"})
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorConflict, se.Code)
}

func TestQuestionArchiveAndReorder(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestQuestions()
	a, err := svc.Create(ctx, "admin", &models.Question{Text: "A", Order: 1})
	require.NoError(t, err)
	b, err := svc.Create(ctx, "admin", &models.Question{Text: "B", Order: 2})
	require.NoError(t, err)

	n, err := svc.Reorder(ctx, "admin", []string{b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	list, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, []string{list[0].ID, list[1].ID})

	_, err = svc.Reorder(ctx, "admin", []string{" "})
	assert.True(t, IsValidation(err))

	require.NoError(t, svc.SetActive(ctx, "admin", a.ID, false))
	list, err = svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	assert.Contains(t, store.actions(), "question_archive")
}

func TestQuestionStoreDuplicateIsConflict(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestQuestions()
	q, err := svc.Create(ctx, "admin", &models.Question{
		Text:    "Goal",
		Options: []models.AnswerOption{{Text: "A", Value: "a"}},
	})
	require.NoError(t, err)

	store.fail["InsertOption"] = fmt.Errorf("insert: %w", models.ErrDuplicateOptionValue)
	_, err = svc.AddOption(ctx, "admin", q.ID, &models.AnswerOption{Text: "B", Value: "b"})
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorConflict, se.Code)

	store.fail["InsertOption"] = errors.New("disk full")
	_, err = svc.AddOption(ctx, "admin", q.ID, &models.AnswerOption{Text: "B", Value: "b"})
	var pe *PersistenceError
	assert.ErrorAs(t, err, &pe)
}
