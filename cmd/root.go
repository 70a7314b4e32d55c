package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pairloop/pairloop/internal/controller"
	"github.com/pairloop/pairloop/internal/output"
	"github.com/pairloop/pairloop/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool

	// Set by goreleaser ldflags, threaded through Execute.
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pairloop",
	Short: "Pair iteration controller - bounded produce/review/refine loops",
	Long: `pairloop drives a task through produce/review/refine rounds until the
reviewer approves it, rejects it, or the iteration budget runs out.
Review strictness relaxes on a fixed schedule as rounds accumulate, and
every run is scored for how much damage the loop prevented.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/pairloop/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "pairloop")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PAIRLOOP")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "pairloop")

	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "pairloop.db"))
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	viper.SetDefault("loop.max_iterations", 3)
	viper.SetDefault("loop.base_strictness", 1.0)
	viper.SetDefault("loop.require_approval", false)
	viper.SetDefault("loop.min_quality", 6.0)
	viper.SetDefault("loop.producer_timeout", "5m")
	viper.SetDefault("loop.reviewer_timeout", "2m")
	viper.SetDefault("history.size", 50)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose

	// Store is initialized lazily so config/version commands run without a db.
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// loopConfig builds the controller configuration from viper.
func loopConfig() controller.Config {
	producerTimeout, err := time.ParseDuration(viper.GetString("loop.producer_timeout"))
	if err != nil {
		producerTimeout = 0
	}
	reviewerTimeout, err := time.ParseDuration(viper.GetString("loop.reviewer_timeout"))
	if err != nil {
		reviewerTimeout = 0
	}
	return controller.Config{
		MaxIterations:       viper.GetInt("loop.max_iterations"),
		BaseStrictness:      viper.GetFloat64("loop.base_strictness"),
		RequireApproval:     viper.GetBool("loop.require_approval"),
		MinQualityThreshold: viper.GetFloat64("loop.min_quality"),
		ProducerTimeout:     producerTimeout,
		ReviewerTimeout:     reviewerTimeout,
	}
}
