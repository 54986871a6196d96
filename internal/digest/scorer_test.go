package digest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coachd/learning-coach-mcp/internal/vectorstore"
)

type fakeJudge struct {
	scores map[string]float64 // keyed by content
	err    error
	calls  int
}

func (f *fakeJudge) ScoreRelevance(ctx context.Context, content string, topics []string) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if score, ok := f.scores[content]; ok {
		return score, nil
	}
	return neutralSignal, nil
}

func testScorer(judge RelevanceJudge, now time.Time) *Scorer {
	s := NewScorer(judge, discardLogger())
	s.now = func() time.Time { return now }
	return s
}

func TestScoreFusesSignals(t *testing.T) {
	now := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
	judge := &fakeJudge{scores: map[string]float64{"deep dive on attention": 0.8}}
	scorer := testScorer(judge, now)

	cand := vectorstore.ScoredDocument{
		Document: &vectorstore.Document{
			ID:      "doc-1",
			Content: "deep dive on attention",
			Metadata: vectorstore.DocumentMeta{
				Published: now.Format(time.RFC3339), // published today
			},
		},
		Similarity: 0.6,
	}

	got := scorer.Score(context.Background(), cand, LearnerContext{Week: 3, Topics: []string{"attention"}})

	// 0.4*0.6 + 0.4*0.8 + 0.2*1.0
	if got != 0.76 {
		t.Errorf("score: expected 0.76, got %v", got)
	}
}

func TestScoreJudgeFailureUsesNeutral(t *testing.T) {
	now := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
	judge := &fakeJudge{err: errors.New("groq timeout")}
	scorer := testScorer(judge, now)

	cand := vectorstore.ScoredDocument{
		Document:   &vectorstore.Document{ID: "doc-1", Content: "anything"},
		Similarity: 0.6,
	}

	got := scorer.Score(context.Background(), cand, LearnerContext{Topics: []string{"attention"}})

	// 0.4*0.6 + 0.4*0.5 + 0.2*0.5, judge error and missing date both neutral
	if got != 0.54 {
		t.Errorf("score: expected 0.54, got %v", got)
	}
}

func TestScoreMissingSimilarityUsesNeutral(t *testing.T) {
	now := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
	judge := &fakeJudge{scores: map[string]float64{"unsearched": 1.0}}
	scorer := testScorer(judge, now)

	cand := vectorstore.ScoredDocument{
		Document: &vectorstore.Document{ID: "doc-1", Content: "unsearched"},
	}

	got := scorer.Score(context.Background(), cand, LearnerContext{Topics: []string{"attention"}})

	// 0.4*0.5 + 0.4*1.0 + 0.2*0.5
	if got != 0.7 {
		t.Errorf("score: expected 0.7, got %v", got)
	}
}

func TestScoreRoundsToThreeDecimals(t *testing.T) {
	now := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
	judge := &fakeJudge{scores: map[string]float64{"fractional": 0.333}}
	scorer := testScorer(judge, now)

	cand := vectorstore.ScoredDocument{
		Document:   &vectorstore.Document{ID: "doc-1", Content: "fractional"},
		Similarity: 0.333,
	}

	got := scorer.Score(context.Background(), cand, LearnerContext{Topics: []string{"attention"}})

	// 0.4*0.333 + 0.4*0.333 + 0.2*0.5 = 0.3664 -> 0.366
	if got != 0.366 {
		t.Errorf("score: expected 0.366, got %v", got)
	}
}

func TestScoreStaysInRange(t *testing.T) {
	now := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		name       string
		similarity float64
		relevance  float64
		published  string
		want       float64
	}{
		{"all signals maxed", 1.0, 1.0, now.Format(time.RFC3339), 1.0},
		{"all signals floored", 0.001, 0.0, "2020-01-01", 0.04},
	} {
		t.Run(tc.name, func(t *testing.T) {
			judge := &fakeJudge{scores: map[string]float64{"c": tc.relevance}}
			scorer := testScorer(judge, now)

			cand := vectorstore.ScoredDocument{
				Document: &vectorstore.Document{
					ID:       "doc-1",
					Content:  "c",
					Metadata: vectorstore.DocumentMeta{Published: tc.published},
				},
				Similarity: tc.similarity,
			}

			got := scorer.Score(context.Background(), cand, LearnerContext{Topics: []string{"t"}})
			if got != tc.want {
				t.Errorf("score: expected %v, got %v", tc.want, got)
			}
			if got < 0 || got > 1 {
				t.Errorf("score %v outside [0, 1]", got)
			}
		})
	}
}

func TestFreshnessSteps(t *testing.T) {
	now := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		published string
		want      float64
	}{
		{"today", now.Format(time.RFC3339), 1.0},
		{"future date", now.Add(48 * time.Hour).Format(time.RFC3339), 1.0},
		{"three days old", now.AddDate(0, 0, -3).Format(time.RFC3339), 0.9},
		{"exactly a week", now.AddDate(0, 0, -7).Format(time.RFC3339), 0.9},
		{"two weeks old", now.AddDate(0, 0, -14).Format(time.RFC3339), 0.7},
		{"a month old", now.AddDate(0, 0, -30).Format(time.RFC3339), 0.7},
		{"two months old", now.AddDate(0, 0, -60).Format(time.RFC3339), 0.4},
		{"ninety days old", now.AddDate(0, 0, -90).Format(time.RFC3339), 0.4},
		{"ancient", now.AddDate(0, 0, -365).Format(time.RFC3339), 0.2},
		{"missing date", "", neutralSignal},
		{"unparseable date", "sometime last spring", neutralSignal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := freshness(tc.published, now); got != tc.want {
				t.Errorf("freshness(%q): expected %v, got %v", tc.published, tc.want, got)
			}
		})
	}
}
