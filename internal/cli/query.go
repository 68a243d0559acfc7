package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casewise/internal/disambiguate"
	"github.com/ppiankov/casewise/internal/llm"
	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/pipeline"
	"github.com/ppiankov/casewise/internal/store"
)

var (
	outJSON       string
	outMD         string
	outHTML       string
	queryTimeout  time.Duration
	noAsk         bool
	noFooter      bool
	llmProvider   string
	llmModel      string
	feedback      bool
	feedbackCause string
	feedbackStrat []string
	feedbackOut   string
	feedbackRisk  string
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [description...]",
	Short: "Match a symptom description against the case library",
	Long: `Query normalizes a free-text description, resolves each fragment to a
canonical symptom and returns the closest prior case with its rationale.

When a single symptom is shared by several cases, casewise asks yes/no
questions to tell them apart. Use --no-ask to skip them.

With no arguments, or "-", the description is read from stdin and no
questions are asked.

Example:
  casewise query "no puedo dormir, me siento triste"
  casewise query "cansancio" --json result.json --md result.md
  casewise query "insomnio y ansiedad" --llm openai --llm-model gpt-4o-mini
  casewise query "insomnio" --feedback --cause "estres laboral" --strategy "pausas activas"`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	// Output flags
	queryCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (\"-\" for stdout)")
	queryCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	queryCmd.Flags().StringVar(&outHTML, "html", "", "output HTML path")
	queryCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown and HTML reports")

	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 2*time.Minute, "overall query timeout")
	queryCmd.Flags().BoolVar(&noAsk, "no-ask", false, "never ask clarification questions")

	// LLM flags
	queryCmd.Flags().StringVar(&llmProvider, "llm", "", "narrative provider (openai, ollama)")
	queryCmd.Flags().StringVar(&llmModel, "llm-model", "", "narrative model name")

	// Feedback flags
	queryCmd.Flags().BoolVar(&feedback, "feedback", false, "store the query as a new case")
	queryCmd.Flags().StringVar(&feedbackCause, "cause", "", "cause for the stored case (defaults to the matched case's)")
	queryCmd.Flags().StringSliceVar(&feedbackStrat, "strategy", nil, "strategy for the stored case (repeatable)")
	queryCmd.Flags().StringVar(&feedbackOut, "outcome", "", "observed outcome for the stored case")
	queryCmd.Flags().StringVar(&feedbackRisk, "risk", "", "risk for the stored case (low, moderate, high)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	in := bufio.NewReader(cmd.InOrStdin())

	text, err := queryText(args, in)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyLLMFlags(cfg); err != nil {
		return err
	}

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	// stdin already carried the description, so there is nobody to ask
	var ask disambiguate.Asker
	if !noAsk && !readsStdin(args) {
		ask = newAsker(in, cmd.ErrOrStderr())
	}

	out, err := a.reasoner.Reason(ctx, text, ask)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if err := writeOutcome(cmd.OutOrStdout(), out); err != nil {
		return err
	}

	if feedback {
		stored, err := recordFeedback(a, out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Stored case #%d (%s)\n", stored.ID, stored.Summary())
	}
	return nil
}

// applyLLMFlags overrides the configured narrative provider with --llm
func applyLLMFlags(cfg *model.Config) error {
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if llmProvider == "" {
		return nil
	}

	cfg.LLM.Provider = llmProvider
	switch strings.ToLower(llmProvider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
	return nil
}

// queryText joins the arguments or reads stdin when there are none
func queryText(args []string, in io.Reader) (string, error) {
	if !readsStdin(args) {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read description: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func readsStdin(args []string) bool {
	return len(args) == 0 || (len(args) == 1 && args[0] == "-")
}

func writeOutcome(w io.Writer, out *pipeline.Outcome) error {
	renderer := pipeline.NewRenderer(!noFooter)

	if outJSON == "-" {
		if err := renderer.WriteJSON(w, out); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	} else {
		fmt.Fprintln(w, renderer.Summary(out))
		if outJSON != "" {
			if err := renderer.RenderJSON(out, outJSON); err != nil {
				return fmt.Errorf("render failed: %w", err)
			}
		}
	}

	if outMD != "" {
		if err := renderer.RenderMarkdown(out, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if out.Narrative != nil {
			path := strings.TrimSuffix(outMD, ".md") + ".llm.md"
			if err := renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(out.Narrative), path); err != nil {
				return fmt.Errorf("render failed: %w", err)
			}
		}
	}

	if outHTML != "" {
		if err := renderer.RenderHTML(out, outHTML); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	return nil
}

// recordFeedback stores the query's symptoms as a new case. Without --cause
// it confirms the matched precedent.
func recordFeedback(a *app, out *pipeline.Outcome) (model.Case, error) {
	risk, err := model.ParseRisk(feedbackRisk)
	if err != nil {
		return model.Case{}, err
	}

	fb := store.Feedback{
		Symptoms:   out.Query,
		Cause:      feedbackCause,
		Strategies: feedbackStrat,
		Outcome:    feedbackOut,
		Risk:       risk,
	}
	if fb.Cause == "" {
		if !out.Matched() {
			return model.Case{}, fmt.Errorf("--cause is required when no case matched")
		}
		fb.Cause = out.Case.PossibleCause
		if len(fb.Strategies) == 0 {
			fb.Strategies = out.Case.Strategies
		}
		if feedbackRisk == "" {
			fb.Risk = out.Case.Risk
		}
	}

	return a.store.Feedback(a.library, fb)
}
