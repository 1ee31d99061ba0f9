package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"careerpilot/internal/planner"
	"careerpilot/internal/store"
)

var (
	planStateFile    string
	planAnalysisFile string
	planNowFlag      string
	planDateFlag     string
	planSave         bool
	planStatesDir    string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate weekly or daily plans",
}

var planWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Generate a weekly plan from a state snapshot and strategy analysis",
	RunE:  runPlanWeekly,
}

var planDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Slice today's plan from the stored weekly plan",
	RunE:  runPlanDaily,
}

var planAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Generate weekly plans for every user snapshot in a directory",
	Long: `Reads every *.state.json file in --dir (with a matching
*.analysis.json) and plans each user concurrently. Planning calls are
independent per user, so they fan out across CPUs.`,
	RunE: runPlanAll,
}

func init() {
	for _, c := range []*cobra.Command{planWeeklyCmd, planDailyCmd, planAllCmd} {
		c.Flags().StringVar(&planNowFlag, "now", "", "reference time, RFC3339 (default: wall clock)")
	}
	planWeeklyCmd.Flags().StringVarP(&planStateFile, "state", "s", "", "user state JSON file (required)")
	planWeeklyCmd.Flags().StringVarP(&planAnalysisFile, "analysis", "a", "", "strategy analysis JSON file (required)")
	planWeeklyCmd.Flags().BoolVar(&planSave, "save", false, "persist the plan to the plan store")
	_ = planWeeklyCmd.MarkFlagRequired("state")
	_ = planWeeklyCmd.MarkFlagRequired("analysis")

	planDailyCmd.Flags().StringVarP(&planStateFile, "state", "s", "", "user state JSON file (required)")
	planDailyCmd.Flags().StringVar(&planDateFlag, "date", "", "target date YYYY-MM-DD (default: today)")
	planDailyCmd.Flags().BoolVar(&planSave, "save", false, "persist the plan to the plan store")
	_ = planDailyCmd.MarkFlagRequired("state")

	planAllCmd.Flags().StringVar(&planStatesDir, "dir", "", "directory of <user>.state.json / <user>.analysis.json pairs (required)")
	_ = planAllCmd.MarkFlagRequired("dir")

	planCmd.AddCommand(planWeeklyCmd)
	planCmd.AddCommand(planDailyCmd)
	planCmd.AddCommand(planAllCmd)
}

func runPlanWeekly(cmd *cobra.Command, args []string) error {
	st, err := loadState(planStateFile)
	if err != nil {
		return err
	}
	analysis, err := loadAnalysis(planAnalysisFile)
	if err != nil {
		return err
	}
	now, err := referenceTime(planNowFlag)
	if err != nil {
		return err
	}
	cfg, err := cfgStore.Get()
	if err != nil {
		return err
	}

	version := 1
	var ps *store.PlanStore
	if planSave {
		if ps, err = store.Open(planStorePath()); err != nil {
			return err
		}
		defer ps.Close()
		// Replanning bumps the version instead of mutating the old plan.
		if prev, err := ps.LatestWeekly(st.UserID); err == nil {
			version = prev.Version + 1
		}
	}

	res, err := planner.NewWeekly(cfg).Build(st, analysis, now, version)
	if err != nil {
		return err
	}
	for _, issue := range res.PlanIssues {
		logger.Warn("plan issue", zap.String("severity", string(issue.Severity)), zap.String("message", issue.Message))
	}

	if ps != nil {
		if err := ps.SaveWeekly(res.Plan); err != nil {
			return err
		}
	}
	return printJSON(res)
}

func runPlanDaily(cmd *cobra.Command, args []string) error {
	st, err := loadState(planStateFile)
	if err != nil {
		return err
	}
	now, err := referenceTime(planNowFlag)
	if err != nil {
		return err
	}
	date := now
	if planDateFlag != "" {
		if date, err = time.Parse("2006-01-02", planDateFlag); err != nil {
			return fmt.Errorf("parse --date %q: %w", planDateFlag, err)
		}
	}
	cfg, err := cfgStore.Get()
	if err != nil {
		return err
	}

	ps, err := store.Open(planStorePath())
	if err != nil {
		return err
	}
	defer ps.Close()

	weekly, err := ps.LatestWeekly(st.UserID)
	if err != nil {
		return fmt.Errorf("no stored weekly plan for %s; run `pilot plan weekly --save` first: %w", st.UserID, err)
	}

	// At most one daily slice per calendar day per weekly plan.
	if existing, err := ps.DailyFor(st.UserID, date, weekly.ID); err == nil {
		logger.Info("daily plan already derived for this date", zap.String("plan", existing.ID))
		return printJSON(existing)
	}

	res, err := planner.NewDaily(cfg).Build(weekly, st, now, date)
	if err != nil {
		return err
	}
	if planSave {
		if err := ps.SaveDaily(res.Plan); err != nil {
			return err
		}
	}
	return printJSON(res)
}

// runPlanAll plans every user in a directory concurrently. Each user's
// planning call is independent; errgroup collects the first failure.
func runPlanAll(cmd *cobra.Command, args []string) error {
	now, err := referenceTime(planNowFlag)
	if err != nil {
		return err
	}
	cfg, err := cfgStore.Get()
	if err != nil {
		return err
	}

	matches, err := filepath.Glob(filepath.Join(planStatesDir, "*.state.json"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no *.state.json files in %s", planStatesDir)
	}

	var g errgroup.Group
	g.SetLimit(4)

	results := make([]*planner.WeeklyResult, len(matches))
	for i, stateFile := range matches {
		i, stateFile := i, stateFile
		g.Go(func() error {
			analysisFile := strings.TrimSuffix(stateFile, ".state.json") + ".analysis.json"
			if _, err := os.Stat(analysisFile); err != nil {
				return fmt.Errorf("missing analysis for %s", stateFile)
			}
			st, err := loadState(stateFile)
			if err != nil {
				return err
			}
			analysis, err := loadAnalysis(analysisFile)
			if err != nil {
				return err
			}
			res, err := planner.NewWeekly(cfg).Build(st, analysis, now, 1)
			if err != nil {
				return fmt.Errorf("plan %s: %w", st.UserID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("planned users", zap.Int("count", len(results)))
	return printJSON(results)
}
