package services

import (
	"context"
	"sort"
	"time"

	"github.com/ironpulse/clubsite/internal/models"
)

type AnalyticsStore interface {
	ListSubmissions(ctx context.Context, since time.Time) ([]*models.Submission, error)
	ListQuestions(ctx context.Context, includeInactive bool) ([]*models.Question, error)
}

type AnalyticsService struct {
	store AnalyticsStore
	now   func() time.Time
}

type RuleHits struct {
	RuleID string `json:"rule_id"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
}

type AnswerCount struct {
	Value string `json:"value"`
	Text  string `json:"text,omitempty"`
	Count int    `json:"count"`
}

type QuestionStats struct {
	QuestionID string        `json:"question_id"`
	Text       string        `json:"text"`
	Total      int           `json:"total"`
	Answers    []AnswerCount `json:"answers"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type QuizStats struct {
	Since        time.Time       `json:"since"`
	Total        int             `json:"total"`
	WithoutMatch int             `json:"without_match"`
	Rules        []RuleHits      `json:"rules"`
	Questions    []QuestionStats `json:"questions"`
	Timeseries   []DailyCount    `json:"timeseries"`
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// QuizStats summarizes submissions of the last days days (all time when days <= 0).
func (s *AnalyticsService) QuizStats(ctx context.Context, days int) (*QuizStats, error) {
	var since time.Time
	if days > 0 {
		y, m, d := s.now().AddDate(0, 0, -(days - 1)).Date()
		since = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	subs, err := s.store.ListSubmissions(ctx, since)
	if err != nil {
		return nil, persistErr("list submissions", err)
	}
	questions, err := s.store.ListQuestions(ctx, true)
	if err != nil {
		return nil, persistErr("list questions", err)
	}
	stats := &QuizStats{Since: since, Total: len(subs)}
	stats.Rules = countRuleHits(subs, &stats.WithoutMatch)
	stats.Questions = buildQuestionStats(questions, subs)
	stats.Timeseries = buildDailySeries(subs)
	return stats, nil
}

func countRuleHits(subs []*models.Submission, withoutMatch *int) []RuleHits {
	index := map[string]int{}
	out := []RuleHits{}
	for _, sub := range subs {
		if len(sub.Recommendations) == 0 {
			*withoutMatch++
			continue
		}
		for _, rec := range sub.Recommendations {
			i, ok := index[rec.ID]
			if !ok {
				i = len(out)
				index[rec.ID] = i
				out = append(out, RuleHits{RuleID: rec.ID, Name: rec.Name})
			}
			out[i].Count++
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// buildQuestionStats lists every known question in display order with the
// distribution of stored answers. Values no longer matching an option are
// still counted, after the known ones.
func buildQuestionStats(questions []*models.Question, subs []*models.Submission) []QuestionStats {
	out := make([]QuestionStats, 0, len(questions))
	for _, q := range questions {
		qs := QuestionStats{QuestionID: q.ID, Text: q.Text, Answers: []AnswerCount{}}
		pos := map[string]int{}
		for _, o := range q.Options {
			pos[o.Value] = len(qs.Answers)
			qs.Answers = append(qs.Answers, AnswerCount{Value: o.Value, Text: o.Text})
		}
		for _, sub := range subs {
			v, ok := sub.Answers[q.ID]
			if !ok {
				continue
			}
			qs.Total++
			i, known := pos[v]
			if !known {
				i = len(qs.Answers)
				pos[v] = i
				qs.Answers = append(qs.Answers, AnswerCount{Value: v})
			}
			qs.Answers[i].Count++
		}
		out = append(out, qs)
	}
	return out
}

func buildDailySeries(subs []*models.Submission) []DailyCount {
	counts := map[string]int{}
	for _, sub := range subs {
		counts[sub.CreatedAt.UTC().Format("2006-01-02")]++
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]DailyCount, 0, len(days))
	for _, d := range days {
		out = append(out, DailyCount{Date: d, Count: counts[d]})
	}
	return out
}
