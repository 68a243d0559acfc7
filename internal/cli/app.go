package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casewise/internal/cache"
	"github.com/ppiankov/casewise/internal/llm"
	"github.com/ppiankov/casewise/internal/logging"
	"github.com/ppiankov/casewise/internal/metrics"
	"github.com/ppiankov/casewise/internal/model"
	"github.com/ppiankov/casewise/internal/pipeline"
	"github.com/ppiankov/casewise/internal/store"
	"github.com/ppiankov/casewise/internal/synonym"
	"github.com/ppiankov/casewise/internal/trace"
)

// app wires the components a command needs. It is built once per process.
type app struct {
	cfg        *model.Config
	logger     logging.Logger
	store      *store.JSONStore
	library    *model.Library
	tables     *synonym.Holder
	metrics    *metrics.Metrics
	summarizer *llm.Summarizer
	reasoner   *pipeline.Reasoner
}

// newApp loads config, the case library and the synonym tables
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return buildApp(cfg)
}

func buildApp(cfg *model.Config) (*app, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   store.NewJSONStore(cfg.Store.Path, logger),
		metrics: metrics.New(),
	}

	lib, _, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load case library: %w", err)
	}
	a.library = lib

	table, err := synonym.Build(cfg.Synonyms.Sources)
	if err != nil {
		return nil, fmt.Errorf("load synonyms: %w", err)
	}
	a.tables = synonym.NewHolder(table)
	logger.Debug("synonym table loaded",
		logging.Int("entries", table.Len()),
		logging.Strings("sources", cfg.Synonyms.Sources))

	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			logger.Warn("failed to initialize LLM provider", logging.Err(err))
		} else {
			a.summarizer = s
		}
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithHook(trace.Multi(trace.LogHook(logger), a.metrics.Hook())),
		pipeline.WithSummarizer(a.summarizer),
	}
	if cfg.Cache.Enabled {
		opts = append(opts, pipeline.WithCache(cache.FromConfig(cfg.Cache)))
	}
	a.reasoner = pipeline.NewReasoner(cfg, a.library, a.tables, opts...)

	return a, nil
}

// close flushes metrics when a metrics file is configured
func (a *app) close() {
	if a.cfg.Output.MetricsFile == "" {
		return
	}
	if err := a.metrics.WriteFile(a.cfg.Output.MetricsFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}
