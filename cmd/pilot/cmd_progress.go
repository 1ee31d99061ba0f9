package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"careerpilot/internal/plan"
	"careerpilot/internal/progress"
	"careerpilot/internal/state"
	"careerpilot/internal/store"
	"careerpilot/internal/validate"
)

var (
	progressStateFile string
	progressNowFlag   string

	replanAnalysisFile string
	replanEvents       []string
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Measure completion of the stored weekly plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadState(progressStateFile)
		if err != nil {
			return err
		}
		now, err := referenceTime(progressNowFlag)
		if err != nil {
			return err
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

		vr := validate.State(st, cfg, now)
		snap := progress.Track(weekly.ID, weekly.Tasks, st, vr.Staleness, now)
		return printJSON(snap)
	},
}

var replanCheckCmd = &cobra.Command{
	Use:   "replan-check",
	Short: "Decide whether the stored weekly plan must be regenerated",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := loadState(progressStateFile)
		if err != nil {
			return err
		}
		analysis, err := loadAnalysis(replanAnalysisFile)
		if err != nil {
			return err
		}
		now, err := referenceTime(progressNowFlag)
		if err != nil {
			return err
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
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		lastReplan, err := ps.LastReplanAt(st.UserID)
		if err != nil {
			return err
		}

		var events []progress.MajorEvent
		for _, e := range replanEvents {
			events = append(events, progress.MajorEvent("/"+e))
		}

		vr := validate.State(st, cfg, now)
		snap := progressSnapshotFor(weekly, st, vr.Staleness, now)
		trigger := progress.NewEvaluator(cfg).EvaluateWeekly(weekly, analysis, snap, now, lastReplan, events)

		if trigger.Needed {
			if err := ps.RecordReplan(st.UserID, trigger); err != nil {
				return err
			}
		}
		return printJSON(trigger)
	},
}

func progressSnapshotFor(weekly *plan.WeeklyPlan, st *state.UserState, staleness state.StalenessSeverity, now time.Time) plan.ProgressSnapshot {
	if weekly == nil {
		return plan.ProgressSnapshot{}
	}
	return progress.Track(weekly.ID, weekly.Tasks, st, staleness, now)
}

func init() {
	for _, c := range []*cobra.Command{progressCmd, replanCheckCmd} {
		c.Flags().StringVarP(&progressStateFile, "state", "s", "", "user state JSON file (required)")
		c.Flags().StringVar(&progressNowFlag, "now", "", "reference time, RFC3339 (default: wall clock)")
		_ = c.MarkFlagRequired("state")
	}
	replanCheckCmd.Flags().StringVarP(&replanAnalysisFile, "analysis", "a", "", "strategy analysis JSON file (required)")
	replanCheckCmd.Flags().StringSliceVar(&replanEvents, "event", nil, "major events (mode_changed, first_interview, first_offer)")
	_ = replanCheckCmd.MarkFlagRequired("analysis")
}
