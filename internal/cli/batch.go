package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casewise/internal/pipeline"
	"github.com/ppiankov/casewise/internal/worker"
)

var (
	concurrency  int
	batchOut     string
	outputDir    string
	batchTimeout time.Duration
	jobTimeout   time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Match many descriptions from a file in parallel",
	Long: `Batch reads one description per line (blank lines and lines starting
with # are skipped) and matches them concurrently.

Batch never asks clarification questions: ambiguous descriptions end
without a match.

Example:
  casewise batch queries.txt
  casewise batch queries.txt --concurrency 8 --out results.json
  casewise batch queries.txt --output-dir ./reports --llm ollama --llm-model llama3`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&batchOut, "out", "results.json", "combined JSON results path")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "also write one Markdown report per query here")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().DurationVar(&jobTimeout, "query-timeout", 30*time.Second, "timeout for each query")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	batchCmd.Flags().StringVar(&llmProvider, "llm", "", "narrative provider (openai, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "narrative model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyLLMFlags(cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if a.summarizer.IsEnabled() {
		a.summarizer.SetLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize))
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  casewise batch\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(stderr, "  Cases:        %d\n", a.library.Len())
	fmt.Fprintf(stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	if a.summarizer.IsEnabled() {
		fmt.Fprintf(stderr, "  LLM:          %s/%s\n", a.summarizer.ProviderName(), cfg.LLM.Model)
	}
	fmt.Fprintf(stderr, "\n")

	processor := worker.NewBatchProcessor(a.reasoner, cfg.Concurrency.Workers, jobTimeout)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(!noFooter)
	for _, res := range results {
		if res.Error != nil {
			fmt.Fprintf(stderr, "✗ [%d] %s: %v\n", res.Index+1, res.Text, res.Error)
			continue
		}
		fmt.Fprintf(stderr, "✓ [%d] %s: %s\n", res.Index+1, res.Text, describeOutcome(res.Outcome))

		if outputDir != "" {
			path := filepath.Join(outputDir, fmt.Sprintf("query-%03d.md", res.Index+1))
			if err := renderer.RenderMarkdown(res.Outcome, path); err != nil {
				fmt.Fprintf(stderr, "✗ [%d] failed to write Markdown: %v\n", res.Index+1, err)
			}
		}
	}

	if err := writeResults(batchOut, results); err != nil {
		return err
	}

	counts := worker.Summary(results)
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:        %d queries\n", len(results))
	for _, k := range kinds {
		fmt.Fprintf(stderr, "  %-13s %d\n", k+":", counts[k])
	}
	fmt.Fprintf(stderr, "  Output:       %s\n", batchOut)
	fmt.Fprintf(stderr, "\n")

	return nil
}

func describeOutcome(o *pipeline.Outcome) string {
	if o.Matched() {
		return fmt.Sprintf("case #%d (%.1f%%, %s)", o.Case.ID, o.Score*100, o.Band)
	}
	return string(o.Kind)
}

func writeResults(path string, results []*worker.QueryResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
