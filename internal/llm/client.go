// Package llm generates learning insights, relevance scores, and digest
// summaries through Groq's OpenAI-compatible chat completions API.
package llm

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

const (
	// DefaultModel is the Groq-hosted model used for all generation calls.
	DefaultModel = "qwen/qwen3-32b"

	// groqBaseURL is Groq's OpenAI-compatible endpoint.
	groqBaseURL = "https://api.groq.com/openai/v1"

	// requestsPerSecond caps outbound calls; Groq rate-limits aggressively
	// and a digest run issues two calls per candidate.
	requestsPerSecond = 1
)

// Per-operation sampling parameters. Insights want some creativity,
// relevance scores want determinism, summaries sit in between.
const (
	insightTemperature   = 0.7
	insightMaxTokens     = 500
	relevanceTemperature = 0.3
	relevanceMaxTokens   = 10
	summaryTemperature   = 0.8
	summaryMaxTokens     = 150
	conceptsTemperature  = 0.3
	conceptsMaxTokens    = 100
)

// Context window given to each prompt, in characters of source content.
const (
	insightContextChars   = 1000
	relevanceContextChars = 500
	conceptsContextChars  = 1000
)

// neutralScore is substituted when the model's relevance reply cannot be
// parsed as a number. A bad reply must not zero out a candidate.
const neutralScore = 0.5

// Client wraps chat completions against Groq with client-side rate limiting.
type Client struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewClient creates a Groq-backed generation client.
// It reads GROQ_API_KEY from the environment and returns an error if not
// set. Model defaults to DefaultModel when empty.
func NewClient(model string) (*Client, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
	}
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(groqBaseURL),
	)

	return &Client{
		client:  &client,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

// complete issues one rate-limited chat completion and returns the raw content.
func (c *Client) complete(ctx context.Context, system, user string, temperature float64, maxTokens int64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       openai.ChatModel(c.model),
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateInsight produces a short actionable learning insight for the
// given content and learner context. Reasoning models may wrap their
// work in <think> tags; only the content after the final </think>
// counts, and a reply that never resolves past its reasoning returns an
// error matching ErrGenerationIncomplete.
func (c *Client) GenerateInsight(ctx context.Context, content string, week int, topics []string, goals string) (string, error) {
	prompt := fmt.Sprintf(`You are an AI Learning Coach. Based on the following content and the learner's context, generate a concise, actionable learning insight.

Learner Context:
- Current Week: %d
- Learning Topics: %s
- Learning Goals: %s

Content:
%s

Generate a single, focused learning insight that:
1. Is relevant to their current week and topics
2. Provides actionable advice or key takeaway
3. Is appropriate for their learning level
4. Is concise (2-3 sentences)

IMPORTANT: After your analysis, provide ONLY the final insight text without any thinking process, tags, or explanations.

Insight:`, week, strings.Join(topics, ", "), goals, truncate(content, insightContextChars))

	system := "You are an expert AI Learning Coach who creates personalized, actionable learning insights. Provide only the final insight without showing your thinking process."

	raw, err := c.complete(ctx, system, prompt, insightTemperature, insightMaxTokens)
	if err != nil {
		return "", err
	}

	return finalOutput(raw)
}

// ScoreRelevance asks the model to rate how relevant content is to the
// learner's topics on a 0.0-1.0 scale. A reply that doesn't parse as a
// number yields the neutral 0.5, not an error; transport failures are
// returned for the caller to degrade.
func (c *Client) ScoreRelevance(ctx context.Context, content string, topics []string) (float64, error) {
	prompt := fmt.Sprintf(`Rate the relevance of this content to the following learning topics on a scale of 0.0 to 1.0.

Topics: %s

Content:
%s

Provide only a single number between 0.0 (not relevant) and 1.0 (highly relevant).

Score:`, strings.Join(topics, ", "), truncate(content, relevanceContextChars))

	system := "You are a content relevance evaluator. Respond only with a decimal number."

	raw, err := c.complete(ctx, system, prompt, relevanceTemperature, relevanceMaxTokens)
	if err != nil {
		return 0, err
	}

	return parseScore(raw), nil
}

// SummarizeDigest produces the motivational introduction for a digest,
// given the ordered insight texts and learner context.
func (c *Client) SummarizeDigest(ctx context.Context, insights []string, week int, topics []string) (string, error) {
	prompt := fmt.Sprintf(`Create a brief, motivating introduction for today's learning digest.

Context:
- Week %d of learning journey
- Focus topics: %s
- Number of insights: %d

Write a 2-3 sentence introduction that:
1. Acknowledges their progress
2. Highlights the key theme of today's insights
3. Encourages engagement

Introduction:`, week, strings.Join(topics, ", "), len(insights))

	system := "You are a supportive AI Learning Coach."

	raw, err := c.complete(ctx, system, prompt, summaryTemperature, summaryMaxTokens)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(raw), nil
}

// ExtractKeyConcepts pulls up to maxConcepts technical concepts out of
// content, for deriving tags on untagged sources.
func (c *Client) ExtractKeyConcepts(ctx context.Context, content string, maxConcepts int) ([]string, error) {
	if maxConcepts <= 0 {
		maxConcepts = 5
	}

	prompt := fmt.Sprintf(`Extract up to %d key technical concepts or topics from this content.
Return them as a comma-separated list.

Content:
%s

Key Concepts:`, maxConcepts, truncate(content, conceptsContextChars))

	system := "You are a content analyzer. Extract key concepts as a comma-separated list."

	raw, err := c.complete(ctx, system, prompt, conceptsTemperature, conceptsMaxTokens)
	if err != nil {
		return nil, err
	}

	var concepts []string
	for _, part := range strings.Split(raw, ",") {
		if concept := strings.TrimSpace(part); concept != "" {
			concepts = append(concepts, concept)
		}
		if len(concepts) == maxConcepts {
			break
		}
	}

	return concepts, nil
}

// finalOutput strips a reasoning segment from a raw model reply.
// Everything after the last </think> is the answer. A closed reasoning
// segment with nothing after it, or an unclosed one, is a typed failure
// rather than text the caller could mistake for an insight.
func finalOutput(text string) (string, error) {
	if strings.Contains(text, "</think>") {
		parts := strings.Split(text, "</think>")
		final := strings.TrimSpace(parts[len(parts)-1])
		if final != "" {
			return final, nil
		}
		return "", ErrReasoningOnly
	}

	if strings.Contains(text, "<think>") {
		return "", ErrReasoningUnfinished
	}

	return strings.TrimSpace(text), nil
}

// parseScore converts a raw relevance reply into a score in [0,1].
// Unparseable replies get neutralScore; out-of-range values are clamped.
func parseScore(raw string) float64 {
	score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return neutralScore
	}
	return max(0.0, min(1.0, score))
}

// truncate limits content to n characters.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
