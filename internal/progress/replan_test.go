package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"careerpilot/internal/config"
	"careerpilot/internal/plan"
	"careerpilot/internal/state"
)

var evalNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) // mid-week Wednesday

func activeWeekly() *plan.WeeklyPlan {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return &plan.WeeklyPlan{
		ID:        "wp-1",
		UserID:    "u-1",
		Version:   2,
		WeekStart: start,
		WeekEnd:   start.AddDate(0, 0, 7),
		Mode:      state.ModeApply,
	}
}

func analysisWithMode(m state.Mode) *state.StrategyAnalysis {
	return &state.StrategyAnalysis{AnalysisVersion: "av", RecommendedMode: m}
}

func TestEvaluateWeeklyNoPlan(t *testing.T) {
	tr := NewEvaluator(config.Default()).EvaluateWeekly(nil, nil, plan.ProgressSnapshot{}, evalNow, time.Time{}, nil)
	assert.True(t, tr.Needed)
	assert.Equal(t, plan.TriggerPlanExpired, tr.Type)
	assert.Equal(t, plan.UrgencyHigh, tr.Urgency)
}

func TestEvaluateWeeklyExpiry(t *testing.T) {
	e := NewEvaluator(config.Default())
	p := activeWeekly()
	healthy := plan.ProgressSnapshot{CompletionPct: 0.5}

	tr := e.EvaluateWeekly(p, analysisWithMode(state.ModeApply), healthy, p.WeekEnd.Add(time.Hour), time.Time{}, nil)
	assert.True(t, tr.Needed)
	assert.Equal(t, plan.TriggerPlanExpired, tr.Type)
	assert.Equal(t, p.ID, tr.PlanID)
	assert.Equal(t, p.Version, tr.PlanVersion)
}

func TestEvaluateWeeklyModeMismatch(t *testing.T) {
	e := NewEvaluator(config.Default())
	healthy := plan.ProgressSnapshot{CompletionPct: 0.5}

	tr := e.EvaluateWeekly(activeWeekly(), analysisWithMode(state.ModeFollowUp), healthy, evalNow, time.Time{}, nil)
	assert.True(t, tr.Needed)
	assert.Equal(t, plan.TriggerModeChanged, tr.Type)
	assert.Equal(t, plan.UrgencyHigh, tr.Urgency)
}

func TestEvaluateWeeklyMajorEventOutranksDeviation(t *testing.T) {
	e := NewEvaluator(config.Default())
	badly := plan.ProgressSnapshot{CompletionPct: 0}

	tr := e.EvaluateWeekly(activeWeekly(), analysisWithMode(state.ModeApply), badly, evalNow, time.Time{}, []MajorEvent{EventFirstInterview})
	assert.True(t, tr.Needed)
	assert.Equal(t, plan.TriggerMajorMilestone, tr.Type, "events take precedence over deviation")
}

func TestEvaluateWeeklyModeChangedEvent(t *testing.T) {
	e := NewEvaluator(config.Default())

	tr := e.EvaluateWeekly(activeWeekly(), nil, plan.ProgressSnapshot{CompletionPct: 1}, evalNow, time.Time{}, []MajorEvent{EventModeChanged})
	assert.Equal(t, plan.TriggerModeChanged, tr.Type)
}

func TestEvaluateWeeklySevereDeviation(t *testing.T) {
	e := NewEvaluator(config.Default()) // threshold 0.25, cooldown 24h
	p := activeWeekly()

	t.Run("mid-week zero progress triggers", func(t *testing.T) {
		// Day 3 of 7: expected 3/7 ≈ 0.43, threshold 0.25*0.43 ≈ 0.107.
		tr := e.EvaluateWeekly(p, analysisWithMode(state.ModeApply), plan.ProgressSnapshot{CompletionPct: 0.05}, evalNow, time.Time{}, nil)
		assert.True(t, tr.Needed)
		assert.Equal(t, plan.TriggerSevereDeviation, tr.Type)
		assert.Equal(t, plan.UrgencyLow, tr.Urgency, "expectation under 50% grades low")
	})

	t.Run("late-week deviation grades medium", func(t *testing.T) {
		lateNow := p.WeekStart.AddDate(0, 0, 5).Add(12 * time.Hour) // day 6, expected 6/7
		tr := e.EvaluateWeekly(p, analysisWithMode(state.ModeApply), plan.ProgressSnapshot{CompletionPct: 0.05}, lateNow, time.Time{}, nil)
		assert.True(t, tr.Needed)
		assert.Equal(t, plan.UrgencyMedium, tr.Urgency)
	})

	t.Run("on-track progress does not trigger", func(t *testing.T) {
		tr := e.EvaluateWeekly(p, analysisWithMode(state.ModeApply), plan.ProgressSnapshot{CompletionPct: 0.4}, evalNow, time.Time{}, nil)
		assert.False(t, tr.Needed)
		assert.Equal(t, plan.TriggerNone, tr.Type)
	})

	t.Run("day one is exempt", func(t *testing.T) {
		dayOne := p.WeekStart.Add(6 * time.Hour)
		tr := e.EvaluateWeekly(p, analysisWithMode(state.ModeApply), plan.ProgressSnapshot{CompletionPct: 0}, dayOne, time.Time{}, nil)
		assert.False(t, tr.Needed)
	})

	t.Run("cooldown suppresses a repeat", func(t *testing.T) {
		recent := evalNow.Add(-2 * time.Hour)
		tr := e.EvaluateWeekly(p, analysisWithMode(state.ModeApply), plan.ProgressSnapshot{CompletionPct: 0.05}, evalNow, recent, nil)
		assert.False(t, tr.Needed)
	})

	t.Run("cooldown elapsed allows it again", func(t *testing.T) {
		old := evalNow.Add(-30 * time.Hour)
		tr := e.EvaluateWeekly(p, analysisWithMode(state.ModeApply), plan.ProgressSnapshot{CompletionPct: 0.05}, evalNow, old, nil)
		assert.True(t, tr.Needed)
	})
}

func TestEvaluateDaily(t *testing.T) {
	e := NewEvaluator(config.Default())
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	daily := &plan.DailyPlan{ID: "dp-1", Date: day, WeeklyPlanVersion: 2}

	t.Run("nil plan", func(t *testing.T) {
		tr := e.EvaluateDaily(nil, plan.ProgressSnapshot{}, evalNow)
		assert.True(t, tr.Needed)
		assert.Equal(t, plan.TriggerNewDay, tr.Type)
	})

	t.Run("new calendar day", func(t *testing.T) {
		tr := e.EvaluateDaily(daily, plan.ProgressSnapshot{}, day.AddDate(0, 0, 1).Add(8*time.Hour))
		assert.True(t, tr.Needed)
		assert.Equal(t, plan.TriggerNewDay, tr.Type)
		assert.Equal(t, plan.UrgencyHigh, tr.Urgency)
	})

	t.Run("failed task", func(t *testing.T) {
		snap := plan.ProgressSnapshot{Counts: map[plan.TaskStatus]int{plan.TaskFailed: 1}}
		tr := e.EvaluateDaily(daily, snap, evalNow)
		assert.True(t, tr.Needed)
		assert.Equal(t, plan.TriggerTaskFailed, tr.Type)
		assert.Equal(t, plan.UrgencyMedium, tr.Urgency)
	})

	t.Run("early completion", func(t *testing.T) {
		snap := plan.ProgressSnapshot{CompletionPct: 0.85}
		tr := e.EvaluateDaily(daily, snap, evalNow)
		assert.True(t, tr.Needed)
		assert.Equal(t, plan.TriggerEarlyCompletion, tr.Type)
		assert.Equal(t, plan.UrgencyLow, tr.Urgency)
	})

	t.Run("nothing to do", func(t *testing.T) {
		snap := plan.ProgressSnapshot{CompletionPct: 0.4}
		tr := e.EvaluateDaily(daily, snap, evalNow)
		assert.False(t, tr.Needed)
	})
}
