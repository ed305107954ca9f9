// cmd/facttrace/analyzer.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ChatCompleter is the part of the OpenAI client the analyzer uses
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// AnalysisInput is the evidence handed to the model
type AnalysisInput struct {
	Claim        string
	ArticleText  string
	ArticleTitle string
	ArticleURL   string
	SourceMeta   *SourceMeta
}

// AnalysisResult is the normalized model verdict
type AnalysisResult struct {
	FactualPercentage        int     `json:"factualPercentage"`
	MisinformationPercentage int     `json:"misinformationPercentage"`
	Summary                  string  `json:"summary"`
	Verdict                  *string `json:"verdict"`
}

// ClaimAnalyzer asks a chat model how well the evidence supports a claim
type ClaimAnalyzer struct {
	client      ChatCompleter
	model       string
	temperature float32
	maxTokens   int
	budget      int
}

const analysisSystemPrompt = `You are a careful fact-checking assistant. You receive a claim and one news article used as evidence.
Judge how far the article supports the claim and answer ONLY with a JSON object:
{
  "factualPercentage": <0-100, share of the claim supported by the evidence>,
  "misinformationPercentage": <0-100, share contradicted or unsupported>,
  "summary": "<two or three sentences explaining the assessment>",
  "verdict": "<one of: True, Mostly True, Mixed, Mostly False, False, Unverifiable>"
}
The two percentages should add up to 100. Weigh the source reliability information when it is provided.`

// NewClaimAnalyzer creates an analyzer backed by an OpenAI-compatible API.
// Without an API key the analyzer is still returned but every call fails with a configuration error.
func NewClaimAnalyzer(cfg *Config) *ClaimAnalyzer {
	var client ChatCompleter
	if cfg.OpenAIAPIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			clientCfg.BaseURL = cfg.OpenAIBaseURL
		}
		client = openai.NewClientWithConfig(clientCfg)
	}
	return newClaimAnalyzerWithClient(cfg, client)
}

func newClaimAnalyzerWithClient(cfg *Config, client ChatCompleter) *ClaimAnalyzer {
	return &ClaimAnalyzer{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		budget:      cfg.ArticleCharBudget,
	}
}

// Analyze sends the evidence to the model and returns its normalized verdict
func (a *ClaimAnalyzer) Analyze(ctx context.Context, in AnalysisInput) (*AnalysisResult, error) {
	if a.client == nil {
		return nil, NewConfigError(ErrConfigMissingKey, "OPENAI_API_KEY is not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultModelTimeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, a.BuildRequest(in))
	if err != nil {
		return nil, NewUpstreamError(ErrUpstreamModel, "model request failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewUpstreamError(ErrUpstreamModel, "model returned no choices", nil)
	}

	return ParseModelOutput(resp.Choices[0].Message.Content)
}

// BuildRequest assembles the chat request. The article text is cut to the character budget.
func (a *ClaimAnalyzer) BuildRequest(in AnalysisInput) openai.ChatCompletionRequest {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n\n", in.Claim)
	fmt.Fprintf(&b, "Article title: %s\n", orPlaceholder(in.ArticleTitle))
	fmt.Fprintf(&b, "Article URL: %s\n", orPlaceholder(in.ArticleURL))
	fmt.Fprintf(&b, "Source reliability: %s\n\n", describeSource(in.SourceMeta))
	fmt.Fprintf(&b, "Article text:\n%s", truncateChars(in.ArticleText, a.budget))

	return openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: analysisSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: b.String(),
			},
		},
	}
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unknown)"
	}
	return s
}

// describeSource renders reliability metadata for the prompt
func describeSource(meta *SourceMeta) string {
	if meta == nil {
		return "not available"
	}
	parts := []string{}
	if meta.Moniker != nil {
		parts = append(parts, *meta.Moniker)
	} else if meta.Domain != nil {
		parts = append(parts, *meta.Domain)
	}
	if meta.BiasMean != nil {
		parts = append(parts, scoreLine("bias", *meta.BiasMean, meta.BiasLabel))
	}
	if meta.ReliabilityMean != nil {
		parts = append(parts, scoreLine("reliability", *meta.ReliabilityMean, meta.ReliabilityLabel))
	}
	if meta.Reason != nil {
		parts = append(parts, *meta.Reason)
	}
	if len(parts) == 0 {
		return "not available"
	}
	return strings.Join(parts, ", ")
}

func scoreLine(name string, score float64, label *string) string {
	if label == nil {
		return fmt.Sprintf("%s %.2f", name, score)
	}
	return fmt.Sprintf("%s %.2f (%s)", name, score, *label)
}

// ParseModelOutput decodes the model's JSON answer. When the text is not plain JSON
// the first balanced {...} object inside it is tried instead.
func ParseModelOutput(raw string) (*AnalysisResult, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		candidate, ok := firstJSONObject(raw)
		if !ok {
			return nil, NewParseError(ErrParseModelOutput, "model output is not valid JSON", err)
		}
		fields, err = decodeObject(candidate)
		if err != nil {
			return nil, NewParseError(ErrParseModelOutput, "model output is not valid JSON", err)
		}
	}

	factual, misinformation := NormalizePercentages(
		numberField(fields["factualPercentage"]),
		numberField(fields["misinformationPercentage"]),
	)

	result := &AnalysisResult{
		FactualPercentage:        factual,
		MisinformationPercentage: misinformation,
	}
	if s, ok := fields["summary"].(string); ok {
		result.Summary = strings.TrimSpace(s)
	}
	if v, ok := fields["verdict"].(string); ok {
		result.Verdict = stringPtr(strings.TrimSpace(v))
	}
	return result, nil
}

func decodeObject(s string) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("model output is not a JSON object")
	}
	return fields, nil
}

// firstJSONObject returns the first balanced {...} substring, ignoring braces inside strings
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// numberField coerces a decoded JSON value to a float; anything unusable is NaN
func numberField(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(n), "%"), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	}
	return math.NaN()
}

// NormalizePercentages turns two model scores into integer percentages.
// Non-finite values count as 0 and both are clamped to [0,100]. A zero sum gives 50/50,
// a sum of exactly 100 is only rounded, anything else is rescaled to 100 first.
// Each side is rounded on its own, so a rescaled pair may sum to 99 or 101.
func NormalizePercentages(factual, misinformation float64) (int, int) {
	f := clampPercent(factual)
	m := clampPercent(misinformation)

	sum := f + m
	if sum == 0 {
		return 50, 50
	}
	if sum == 100 {
		return roundHalfUp(f), roundHalfUp(m)
	}
	return roundHalfUp(f / sum * 100), roundHalfUp(m / sum * 100)
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
