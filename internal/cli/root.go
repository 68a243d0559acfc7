package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/casewise/internal/model"
)

// version is set at build time with -ldflags "-X .../internal/cli.version=..."
var version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "casewise",
	Short: "casewise - match symptom descriptions against prior cases (advisory only)",
	Long: `casewise matches a free-text description of symptoms against a library
of prior cases and returns the closest precedent: its probable cause,
intervention strategies and risk level, with a readable rationale.

It does not diagnose. Every result is advisory and is not a substitute
for professional evaluation.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "casewise %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.casewise/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.String("store", "", "case library JSON file")
	flags.StringSlice("synonyms", nil, "synonym table files layered over the built-in table (JSON or YAML)")
	flags.Bool("no-cache", false, "disable the resolution cache")
	flags.String("metrics-file", "", "write Prometheus metrics to this file on exit")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")

	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("store.path", flags.Lookup("store"))
	_ = viper.BindPFlag("synonyms.sources", flags.Lookup("synonyms"))
	_ = viper.BindPFlag("output.metrics_file", flags.Lookup("metrics-file"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".casewise"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CASEWISE_THRESHOLDS_ACCEPTANCE=0.7 overrides thresholds.acceptance
	viper.SetEnvPrefix("CASEWISE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so env variables reach Unmarshal
func setDefaults(cfg *model.Config) {
	t := cfg.Thresholds
	viper.SetDefault("thresholds.fuzzy_key", t.FuzzyKey)
	viper.SetDefault("thresholds.valid_match", t.ValidMatch)
	viper.SetDefault("thresholds.semantic", t.Semantic)
	viper.SetDefault("thresholds.member_match", t.MemberMatch)
	viper.SetDefault("thresholds.acceptance", t.Acceptance)
	viper.SetDefault("thresholds.band_high", t.BandHigh)
	viper.SetDefault("thresholds.band_moderate", t.BandModerate)

	viper.SetDefault("store.path", cfg.Store.Path)
	viper.SetDefault("synonyms.sources", cfg.Synonyms.Sources)
	viper.SetDefault("synonyms.watch", cfg.Synonyms.Watch)
	viper.SetDefault("normalize.stopphrases", cfg.Normalize.Stopphrases)

	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)

	viper.SetDefault("log.level", cfg.Log.Level)
	viper.SetDefault("log.format", cfg.Log.Format)

	viper.SetDefault("llm.provider", cfg.LLM.Provider)
	viper.SetDefault("llm.model", cfg.LLM.Model)
	viper.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	viper.SetDefault("llm.api_key", cfg.LLM.APIKey)
	viper.SetDefault("llm.timeout", cfg.LLM.Timeout)
	viper.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)

	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	viper.SetDefault("rate_limiting.requests_per_second", cfg.RateLimiting.RequestsPerSecond)
	viper.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)
	viper.SetDefault("output.metrics_file", cfg.Output.MetricsFile)
}

// loadConfig merges flags, env, the config file and defaults
func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if cfg.LLM.APIKey == "" && strings.EqualFold(cfg.LLM.Provider, "openai") {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.BaseURL == "" && strings.EqualFold(cfg.LLM.Provider, "ollama") {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return cfg, nil
}
