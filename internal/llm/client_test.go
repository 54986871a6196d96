package llm

import (
	"errors"
	"testing"
)

// TestFinalOutput_NoMarkers verifies plain replies pass through trimmed.
func TestFinalOutput_NoMarkers(t *testing.T) {
	got, err := finalOutput("  Focus on attention heads this week.  \n")
	if err != nil {
		t.Fatalf("finalOutput returned error: %v", err)
	}
	if got != "Focus on attention heads this week." {
		t.Errorf("Expected trimmed reply, got %q", got)
	}
}

// TestFinalOutput_AfterThink verifies only content after the last
// </think> marker is returned.
func TestFinalOutput_AfterThink(t *testing.T) {
	raw := "<think>The learner is in week 3, so...</think>\nReview the scaled dot-product attention walkthrough today."

	got, err := finalOutput(raw)
	if err != nil {
		t.Fatalf("finalOutput returned error: %v", err)
	}
	if got != "Review the scaled dot-product attention walkthrough today." {
		t.Errorf("Expected content after </think>, got %q", got)
	}
}

// TestFinalOutput_MultipleThinkSegments verifies extraction uses the LAST
// end marker, not the first.
func TestFinalOutput_MultipleThinkSegments(t *testing.T) {
	raw := "<think>first pass</think>draft</think>Final insight text."

	got, err := finalOutput(raw)
	if err != nil {
		t.Fatalf("finalOutput returned error: %v", err)
	}
	if got != "Final insight text." {
		t.Errorf("Expected content after last </think>, got %q", got)
	}
}

// TestFinalOutput_ReasoningOnly verifies a closed reasoning segment with
// nothing after it is a typed failure.
func TestFinalOutput_ReasoningOnly(t *testing.T) {
	raw := "<think>I considered the topics but ran out of tokens</think>   "

	_, err := finalOutput(raw)
	if err == nil {
		t.Fatal("Expected error for reasoning-only reply, got nil")
	}
	if !errors.Is(err, ErrReasoningOnly) {
		t.Errorf("Expected ErrReasoningOnly, got %v", err)
	}
	if !errors.Is(err, ErrGenerationIncomplete) {
		t.Errorf("ErrReasoningOnly should match ErrGenerationIncomplete, got %v", err)
	}
}

// TestFinalOutput_UnfinishedReasoning verifies an unclosed <think> is a
// typed failure.
func TestFinalOutput_UnfinishedReasoning(t *testing.T) {
	raw := "<think>The content discusses tokenization and"

	_, err := finalOutput(raw)
	if err == nil {
		t.Fatal("Expected error for unfinished reasoning, got nil")
	}
	if !errors.Is(err, ErrReasoningUnfinished) {
		t.Errorf("Expected ErrReasoningUnfinished, got %v", err)
	}
	if !errors.Is(err, ErrGenerationIncomplete) {
		t.Errorf("ErrReasoningUnfinished should match ErrGenerationIncomplete, got %v", err)
	}
}

// TestParseScore verifies numeric parsing, clamping, and the neutral
// fallback for junk replies.
func TestParseScore(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"plain decimal", "0.85", 0.85},
		{"with whitespace", "  0.3\n", 0.3},
		{"integer", "1", 1.0},
		{"clamped high", "1.7", 1.0},
		{"clamped negative", "-0.2", 0.0},
		{"non-numeric", "highly relevant", neutralScore},
		{"empty", "", neutralScore},
		{"number with prose", "0.8 out of 1.0", neutralScore},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseScore(tc.raw)
			if got != tc.want {
				t.Errorf("parseScore(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

// TestTruncate verifies the prompt context limiter.
func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Expected short content unchanged, got %q", got)
	}

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	if got := truncate(string(long), 500); len(got) != 500 {
		t.Errorf("Expected 500 chars after truncation, got %d", len(got))
	}
}
