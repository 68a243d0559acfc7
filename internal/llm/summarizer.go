package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/casewise/internal/model"
)

// Limiter throttles outbound calls per key
type Limiter interface {
	Wait(ctx context.Context, key string) error
}

// Summarizer produces optional narratives for matched cases.
// Failures degrade into warnings on the narrative, never into errors.
type Summarizer struct {
	provider Provider
	config   Config
	limiter  Limiter
}

// NewSummarizer creates a summarizer. An empty provider yields a disabled
// summarizer rather than an error.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// SetLimiter throttles provider calls through l, keyed by provider name
func (s *Summarizer) SetLimiter(l Limiter) {
	s.limiter = l
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary writes a narrative for req. It returns nil when disabled.
func (s *Summarizer) GenerateSummary(ctx context.Context, req SummarizeRequest) (*model.Narrative, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	narrative := &model.Narrative{
		Enabled:         true,
		Provider:        s.provider.Name(),
		Model:           s.config.Model,
		StrictGrounding: s.config.StrictGrounding,
		GeneratedAt:     time.Now().UTC(),
	}

	if !s.provider.IsAvailable(ctx) {
		narrative.Enabled = false
		narrative.Warnings = append(narrative.Warnings,
			fmt.Sprintf("LLM provider %s is not available (check API key or endpoint)", s.provider.Name()))
		return narrative, nil
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.provider.Name()); err != nil {
			narrative.Warnings = append(narrative.Warnings, fmt.Sprintf("Narrative generation failed: %v", err))
			return narrative, nil
		}
	}

	if req.Model == "" {
		req.Model = s.config.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = s.config.MaxTokens
	}

	resp, err := s.provider.Summarize(ctx, req)
	if err != nil {
		narrative.Warnings = append(narrative.Warnings, fmt.Sprintf("Narrative generation failed: %v", err))
		return narrative, nil
	}

	narrative.Text = resp.Summary
	if resp.Model != "" {
		narrative.Model = resp.Model
	}
	narrative.Warnings = append(narrative.Warnings,
		fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
		fmt.Sprintf("Verified %d citations against the case record", len(resp.CitedURLs)))

	return narrative, nil
}

// RenderSeparateMarkdown renders a narrative as its own Markdown document,
// kept apart from the deterministic report
func RenderSeparateMarkdown(n *model.Narrative) string {
	if n == nil || !n.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Narrative\n\n")
	b.WriteString("> **GENERATED CONTENT.** The matched case and its score were determined independently of this text.\n\n")
	fmt.Fprintf(&b, "- **Provider**: %s\n", n.Provider)
	if n.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", n.Model)
	}
	fmt.Fprintf(&b, "- **Strict Grounding**: %t\n\n", n.StrictGrounding)

	if strings.TrimSpace(n.Text) == "" {
		b.WriteString("_No narrative generated._\n")
	} else {
		b.WriteString(n.Text)
		b.WriteString("\n")
	}

	if len(n.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range n.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
