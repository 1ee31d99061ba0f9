package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"careerpilot/internal/executor"
	"careerpilot/internal/plan"
	"careerpilot/internal/store"
)

var (
	executeStateFile string
	executeNowFlag   string
	executeDateFlag  string
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute today's automatically-executable tasks",
	Long: `Runs the stored daily plan through the action executor. Collaborator
services (resume rewriting, application submission) live in the hosting
web layer; this standalone command wires only the engine-owned handlers,
so collaborator-backed tasks degrade to a manual fallback.`,
	RunE: runExecute,
}

func init() {
	executeCmd.Flags().StringVarP(&executeStateFile, "state", "s", "", "user state JSON file (required)")
	executeCmd.Flags().StringVar(&executeNowFlag, "now", "", "reference time, RFC3339 (default: wall clock)")
	executeCmd.Flags().StringVar(&executeDateFlag, "date", "", "plan date YYYY-MM-DD (default: today)")
	_ = executeCmd.MarkFlagRequired("state")
}

// zapEventLog adapts the fire-and-forget event log onto the CLI logger.
type zapEventLog struct{ log *zap.Logger }

func (z zapEventLog) LogEvent(ctx context.Context, ev executor.Event) error {
	z.log.Info("event", zap.String("user", ev.UserID), zap.String("type", ev.Type), zap.Any("context", ev.Context))
	return nil
}

func runExecute(cmd *cobra.Command, args []string) error {
	st, err := loadState(executeStateFile)
	if err != nil {
		return err
	}
	now, err := referenceTime(executeNowFlag)
	if err != nil {
		return err
	}
	date := now
	if executeDateFlag != "" {
		if date, err = time.Parse("2006-01-02", executeDateFlag); err != nil {
			return fmt.Errorf("parse --date %q: %w", executeDateFlag, err)
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
		return err
	}
	daily, err := ps.DailyFor(st.UserID, date, weekly.ID)
	if err != nil {
		return fmt.Errorf("no daily plan for %s; run `pilot plan daily --save` first: %w",
			date.Format("2006-01-02"), err)
	}

	exec := executor.New(cfg.Executor, nil, nil, nil, zapEventLog{log: logger})
	exec.Register(plan.ActionRefreshState, func(ctx context.Context, userID string, t plan.Task) (string, error) {
		// State re-sync is owned by the hosting layer; here it is just
		// announced so the host can pick it up.
		logger.Info("refresh requested", zap.String("user", userID), zap.String("task", t.ID))
		return "Refresh request recorded; the data pipeline will re-sync this snapshot.", nil
	})

	results := exec.ExecuteBatch(cmd.Context(), st.UserID, daily.Tasks)

	// Reflect terminal outcomes back onto the stored weekly pool: status is
	// the only field of a generated plan that ever changes.
	changed := false
	for _, res := range results {
		if res.Status != plan.TaskCompleted && res.Status != plan.TaskFailed {
			continue
		}
		if t := weekly.TaskByID(res.TaskID); t != nil && t.Status != res.Status {
			t.Status = res.Status
			changed = true
		}
	}
	if changed {
		if err := ps.UpdateWeeklyTasks(weekly); err != nil {
			return err
		}
	}
	return printJSON(results)
}
