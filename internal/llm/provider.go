package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/casewise/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize writes a narrative for a matched case in strict grounding mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for narrative generation
type SummarizeRequest struct {
	// Case is the matched precedent. The narrative may only restate it.
	Case model.Case

	// Query holds the canonical symptoms extracted from the description
	Query []string

	Score float64
	Band  model.Band

	// Explanation is the deterministic rationale already shown to the user
	Explanation string

	// AllowedURLs is the STRICT allowlist of links the narrative may cite.
	// It is built from the case record itself.
	AllowedURLs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's narrative output
type SummarizeResponse struct {
	Summary string

	// CitedURLs are the URLs the LLM actually cited (for verification)
	CitedURLs []string

	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for API requests in seconds
	Timeout int

	// StrictGrounding rejects narratives citing links absent from the case
	StrictGrounding bool

	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:        "", // disabled
		Timeout:         30,
		StrictGrounding: true,
		MaxTokens:       600,
	}
}

// NewRequest builds a request for a matched case with the allowlist filled in
func NewRequest(c model.Case, query []string, score float64, band model.Band, explanation string) SummarizeRequest {
	return SummarizeRequest{
		Case:        c,
		Query:       query,
		Score:       score,
		Band:        band,
		Explanation: explanation,
		AllowedURLs: caseURLs(c),
	}
}

// BuildPrompt constructs the default prompt for strict grounding mode
func BuildPrompt(req SummarizeRequest) string {
	c := req.Case
	var b strings.Builder

	fmt.Fprintf(&b, `You are restating a prior case that was matched to a person's description of symptoms. The match was computed deterministically; you do not diagnose and you do not change the match.

CRITICAL RULES:
1. Only restate information present in the case record below.
2. You MUST ONLY cite links from this allowed list:
%s

3. Do not add causes, treatments, medications or risk levels that are not in the record.
4. Use hedged language ("a similar prior case suggested...") and never state a diagnosis.
5. Encourage professional evaluation.

Reported symptoms: %s
Matched case #%d (similarity %.0f%%, %s confidence):
- Symptoms: %s
- Possible cause: %s
`, joinURLs(req.AllowedURLs), joinItems(req.Query), c.ID, req.Score*100, req.Band,
		joinItems(c.Symptoms), c.PossibleCause)

	if c.Risk != "" && c.Risk != model.RiskUnknown {
		fmt.Fprintf(&b, "- Risk level: %s\n", c.Risk)
	}
	for i, s := range c.Strategies {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- Strategy: %s\n", s)
	}
	if c.HasRecommendation() {
		fmt.Fprintf(&b, "- Recommendation: %s\n", c.GeneralRecommendation)
	}
	if c.HasOutcome() {
		fmt.Fprintf(&b, "- Observed outcome: %s\n", c.Outcome)
	}

	b.WriteString("\nWrite a 3-4 sentence supportive summary for the person.")
	return b.String()
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No links allowed)"
	}
	var b strings.Builder
	for i, u := range urls {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more links", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", u)
	}
	return b.String()
}

func joinItems(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// caseURLs collects every link mentioned anywhere in the case record
func caseURLs(c model.Case) []string {
	var fields []string
	fields = append(fields, c.PossibleCause, c.Outcome, c.GeneralRecommendation)
	fields = append(fields, c.Strategies...)
	fields = append(fields, c.SelfAssessments...)
	fields = append(fields, c.Referrals...)
	return extractURLs(strings.Join(fields, " "))
}
