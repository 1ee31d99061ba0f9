package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"careerpilot/internal/config"
	"careerpilot/internal/logging"
	"careerpilot/internal/state"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	storePath  string

	// Logger
	logger *zap.Logger

	// Configuration store shared by every command.
	cfgStore *config.Store
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pilot",
	Short: "careerpilot - deterministic career-coaching planner",
	Long: `careerpilot turns a user state snapshot and a strategy analysis into
time-boxed, evidence-justified task plans.

The engine is a pure library: every command reads JSON snapshots, plans
against an explicit reference time, and prints plans as JSON for the
hosting layer. Nothing here learns, matches, or searches - it only turns
recommendations into ordered work.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if workspace == "" {
			workspace, _ = os.Getwd()
		}
		if err := logging.Initialize(workspace); err != nil {
			logger.Warn("category logging unavailable", zap.Error(err))
		}

		cfgStore = config.NewStore(configPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: cwd)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "engine config yaml (default: built-in profile)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "plan store path (default: <workspace>/.pilot/plans.db)")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(replanCheckCmd)
	rootCmd.AddCommand(executeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func planStorePath() string {
	if storePath != "" {
		return storePath
	}
	return workspace + "/.pilot/plans.db"
}

// loadState reads a UserState snapshot from a JSON file.
func loadState(path string) (*state.UserState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}
	var st state.UserState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	return &st, nil
}

// loadAnalysis reads a StrategyAnalysis from a JSON file.
func loadAnalysis(path string) (*state.StrategyAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analysis %s: %w", path, err)
	}
	var a state.StrategyAnalysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse analysis %s: %w", path, err)
	}
	return &a, nil
}

// printJSON writes v to stdout for the hosting layer.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// referenceTime resolves the --now flag, defaulting to the wall clock.
// Planning itself never reads the clock; this is the single place the host
// picks the reference time.
func referenceTime(flag string) (time.Time, error) {
	if flag == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --now %q: %w", flag, err)
	}
	return t, nil
}
