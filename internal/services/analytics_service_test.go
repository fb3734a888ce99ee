package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironpulse/clubsite/internal/matching"
	"github.com/ironpulse/clubsite/internal/models"
)

func seedSubmissions(store *stubStore) {
	day := func(d int) time.Time { return time.Date(2024, 5, d, 10, 0, 0, 0, time.UTC) }
	boxing := matching.MatchSummary{ID: "boxing", Name: "Boxing"}
	yoga := matching.MatchSummary{ID: "yoga", Name: "Yoga"}
	store.questions = []*models.Question{
		{ID: "goal", Text: "Goal", Order: 1, Active: true, Options: []models.AnswerOption{
			{ID: "o1", Value: "strength", Text: "Strength", Active: true},
			{ID: "o2", Value: "relax", Text: "Relax", Active: true},
		}},
		{ID: "old", Text: "Old", Order: 2, Active: false},
	}
	store.submissions = []*models.Submission{
		{ID: "s1", SessionID: "a", Answers: map[string]string{"goal": "strength"}, Recommendations: []matching.MatchSummary{boxing}, CreatedAt: day(1)},
		{ID: "s2", SessionID: "b", Answers: map[string]string{"goal": "relax"}, Recommendations: []matching.MatchSummary{yoga}, CreatedAt: day(9)},
		{ID: "s3", SessionID: "c", Answers: map[string]string{"goal": "strength", "old": "x"}, Recommendations: []matching.MatchSummary{boxing, yoga}, CreatedAt: day(10)},
		{ID: "s4", SessionID: "d", Answers: map[string]string{"goal": "dance"}, Recommendations: []matching.MatchSummary{}, CreatedAt: day(10)},
	}
}

func TestQuizStatsAllTime(t *testing.T) {
	store := newStubStore()
	seedSubmissions(store)
	svc := NewAnalyticsService(store)
	svc.now = fixedClock()

	st, err := svc.QuizStats(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, st.Since.IsZero())
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 1, st.WithoutMatch)
	assert.Equal(t, []RuleHits{{RuleID: "boxing", Name: "Boxing", Count: 2}, {RuleID: "yoga", Name: "Yoga", Count: 2}}, st.Rules)

	require.Len(t, st.Questions, 2)
	goal := st.Questions[0]
	assert.Equal(t, 4, goal.Total)
	assert.Equal(t, []AnswerCount{
		{Value: "strength", Text: "Strength", Count: 2},
		{Value: "relax", Text: "Relax", Count: 1},
		{Value: "dance", Count: 1},
	}, goal.Answers)
	assert.Equal(t, 1, st.Questions[1].Total)

	assert.Equal(t, []DailyCount{{"2024-05-01", 1}, {"2024-05-09", 1}, {"2024-05-10", 2}}, st.Timeseries)
}

func TestQuizStatsWindow(t *testing.T) {
	store := newStubStore()
	seedSubmissions(store)
	svc := NewAnalyticsService(store)
	svc.now = fixedClock()

	st, err := svc.QuizStats(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), st.Since)
	assert.Equal(t, 3, st.Total)
}

func TestQuizStatsStoreError(t *testing.T) {
	store := newStubStore()
	store.fail["ListSubmissions"] = errors.New("boom")
	_, err := NewAnalyticsService(store).QuizStats(context.Background(), 7)
	var pe *PersistenceError
	assert.ErrorAs(t, err, &pe)
}
