package planner

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerpilot/internal/config"
	"careerpilot/internal/plan"
	"careerpilot/internal/planerr"
	"careerpilot/internal/state"
)

var planNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// stableWeekly returns a weekly planner with deterministic IDs.
func stableWeekly(cfg *config.Config) *Weekly {
	w := NewWeekly(cfg)
	n := 0
	w.newID = func() string { return "plan-w" }
	w.gen.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("t-%03d", n)
	})
	return w
}

func applyModeState() *state.UserState {
	return &state.UserState{
		UserID:     "u-1",
		Version:    9,
		SnapshotAt: planNow.Add(-3 * time.Hour),
		Pipeline: state.PipelineState{
			ApplicationsTotal:     40,
			ApplicationsThisMonth: 14,
			ApplicationsThisWeek:  5,
			WeeklyTargetOverride:  10,
			InterviewRate:         0.13,
			ResponseRate:          0.3,
		},
		Resume:    state.ResumeState{Score: 85, BulletCount: 20},
		Freshness: state.Freshness{LastUpdated: planNow.Add(-3 * time.Hour)},
	}
}

func applyModeAnalysis() *state.StrategyAnalysis {
	return &state.StrategyAnalysis{
		AnalysisVersion: "av-1",
		RecommendedMode: state.ModeApply,
		Blueprints: []state.Blueprint{
			{Type: state.BlueprintApplyToJob, JobID: "j-1", MatchScore: 90, Section: "Acme"},
			{Type: state.BlueprintApplyToJob, JobID: "j-2", MatchScore: 78, Section: "Initech"},
			{Type: state.BlueprintResumeRewrite, ResumeSubKind: state.ResumeSubKindBullet, Section: "experience", BulletIndex: 0, EstimatedGain: 2},
		},
		GeneratedAt: planNow,
	}
}

func TestWeeklyRequiresAnalysis(t *testing.T) {
	_, err := stableWeekly(config.Default()).Build(applyModeState(), nil, planNow, 1)
	require.Error(t, err)
	assert.Equal(t, planerr.CodeInvalidInput, planerr.CodeOf(err))
}

func TestWeeklyApplyModeScenario(t *testing.T) {
	// Strong resume, halfway to the weekly target, healthy interview rate:
	// the plan should push applications at the overridden target.
	res, err := stableWeekly(config.Default()).Build(applyModeState(), applyModeAnalysis(), planNow, 1)
	require.NoError(t, err)

	p := res.Plan
	assert.False(t, p.Safe)
	assert.Equal(t, state.ModeApply, p.Mode)
	assert.GreaterOrEqual(t, p.TargetApplications, 8)
	assert.LessOrEqual(t, p.TargetApplications, 12)
	assert.Equal(t, 10, p.TargetApplications, "in-range override wins over the midpoint")

	require.NotEmpty(t, p.Tasks)
	applies := 0
	for _, task := range p.Tasks {
		assert.NotEmpty(t, task.WhyNow, "task %s", task.ID)
		assert.GreaterOrEqual(t, task.Priority, 0)
		assert.LessOrEqual(t, task.Priority, 100)
		if task.Kind == plan.ActionApply {
			applies++
		}
	}
	assert.Equal(t, 2, applies)

	sum := 0.0
	for _, v := range p.FocusMix {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 0.001, "focus mix must renormalize to 1.0")
	assert.Greater(t, p.FocusMix[plan.FocusApplications], p.FocusMix[plan.FocusFollowUps],
		"apply mode with an apply-heavy pool leans toward applications")

	for _, issue := range res.PlanIssues {
		assert.NotEqual(t, "/critical", string(issue.Severity), "healthy input must not produce critical plan issues: %+v", issue)
	}
}

func TestWeeklyCriticalStalenessSafePlan(t *testing.T) {
	st := applyModeState()
	st.Freshness.LastUpdated = planNow.Add(-200 * time.Hour) // past the 168h critical bound
	st.PendingFollowUps = []state.FollowUp{
		{ApplicationID: "app-1", Company: "Acme", AppliedAt: planNow.AddDate(0, 0, -8)},
		{ApplicationID: "app-2", Company: "Initech", AppliedAt: planNow.AddDate(0, 0, -6)},
		{ApplicationID: "app-3", Company: "Globex", AppliedAt: planNow.AddDate(0, 0, -2)}, // too fresh for the safe path
	}

	res, err := stableWeekly(config.Default()).Build(st, applyModeAnalysis(), planNow, 1)
	require.NoError(t, err)

	p := res.Plan
	assert.True(t, p.Safe)
	assert.Equal(t, 0, p.TargetApplications, "critical staleness forbids new applications")
	assert.Equal(t, state.StalenessCritical, res.StateValidation.Staleness)

	require.NotEmpty(t, p.Tasks)
	first := p.Tasks[0]
	assert.Equal(t, plan.ActionRefreshState, first.Kind, "refresh leads the safe plan")
	assert.GreaterOrEqual(t, first.Priority, 95)

	for _, task := range p.Tasks[1:] {
		assert.Equal(t, plan.ActionFollowUp, task.Kind)
		if fp, ok := task.Payload.(*plan.FollowUpPayload); ok {
			assert.NotEqual(t, "app-3", fp.ApplicationID, "follow-ups under 5 days stay out of the safe plan")
		}
	}
	assert.LessOrEqual(t, len(p.Tasks), 4, "refresh plus at most three follow-ups")

	assert.Zero(t, p.FocusMix[plan.FocusApplications])
	assert.Zero(t, p.FocusMix[plan.FocusResume])
}

func TestWeeklyTargetHalvedWhenResumeWeak(t *testing.T) {
	st := applyModeState()
	st.Pipeline.WeeklyTargetOverride = 0
	st.Resume.Score = 55 // below the 70 readiness bar

	analysis := applyModeAnalysis()
	analysis.RecommendedMode = state.ModeBalanced

	res, err := stableWeekly(config.Default()).Build(st, analysis, planNow, 1)
	require.NoError(t, err)

	// Balanced midpoint is (4+8)/2 = 6, halved to 3.
	assert.Equal(t, 3, res.Plan.TargetApplications)
}

func TestWeeklyFallbackPriorityActions(t *testing.T) {
	analysis := &state.StrategyAnalysis{
		AnalysisVersion: "av-2",
		RecommendedMode: state.ModeBalanced,
		PriorityActions: []string{
			"Rewrite your resume summary",
			"Apply to more senior roles",
			"Follow up with recruiters",
			"A fourth action that should be dropped",
		},
		GeneratedAt: planNow,
	}

	res, err := stableWeekly(config.Default()).Build(applyModeState(), analysis, planNow, 1)
	require.NoError(t, err)

	assert.Len(t, res.Plan.Tasks, 3, "fallback synthesizes at most three tasks")
	for _, task := range res.Plan.Tasks {
		assert.NotEmpty(t, task.WhyNow)
	}
}

func TestWeeklyFollowUpDedupe(t *testing.T) {
	st := applyModeState()
	st.PendingFollowUps = []state.FollowUp{
		{ApplicationID: "app-1", Company: "Acme", AppliedAt: planNow.AddDate(0, 0, -8)},
		{ApplicationID: "app-2", Company: "Initech", AppliedAt: planNow.AddDate(0, 0, -9)},
	}
	analysis := &state.StrategyAnalysis{
		AnalysisVersion: "av-3",
		RecommendedMode: state.ModeFollowUp,
		Blueprints: []state.Blueprint{
			{Type: state.BlueprintFollowUp, ApplicationID: "app-1", Rationale: "strategy wants this nudge"},
		},
		GeneratedAt: planNow,
	}

	res, err := stableWeekly(config.Default()).Build(st, analysis, planNow, 1)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, task := range res.Plan.Tasks {
		if fp, ok := task.Payload.(*plan.FollowUpPayload); ok {
			seen[fp.ApplicationID]++
		}
	}
	assert.Equal(t, 1, seen["app-1"], "blueprint-claimed follow-up must not be duplicated from pending state")
	assert.Equal(t, 1, seen["app-2"])
}

func TestWeeklyWarningStalenessAddsRefresh(t *testing.T) {
	st := applyModeState()
	st.Freshness.LastUpdated = planNow.Add(-80 * time.Hour) // warning band

	res, err := stableWeekly(config.Default()).Build(st, applyModeAnalysis(), planNow, 1)
	require.NoError(t, err)

	assert.False(t, res.Plan.Safe, "warning staleness stays on the normal path")
	found := false
	for _, task := range res.Plan.Tasks {
		if task.Kind == plan.ActionRefreshState {
			found = true
		}
	}
	assert.True(t, found, "warning staleness injects a refresh task into the pool")
}

func TestWeeklyPoolTruncation(t *testing.T) {
	cfg := config.Default()
	cfg.Planning.MaxPoolSize = 5

	analysis := &state.StrategyAnalysis{
		AnalysisVersion: "av-4",
		RecommendedMode: state.ModeApply,
		GeneratedAt:     planNow,
	}
	for i := 0; i < 12; i++ {
		analysis.Blueprints = append(analysis.Blueprints, state.Blueprint{
			Type: state.BlueprintApplyToJob, JobID: fmt.Sprintf("j-%d", i), MatchScore: float64(50 + i),
		})
	}

	res, err := stableWeekly(cfg).Build(applyModeState(), analysis, planNow, 1)
	require.NoError(t, err)
	assert.Len(t, res.Plan.Tasks, 5)

	// Truncation keeps the top of the ordering: scores must be non-increasing.
	for i := 1; i < len(res.Plan.Tasks); i++ {
		assert.GreaterOrEqual(t, res.Plan.Tasks[i-1].Priority, res.Plan.Tasks[i].Priority)
	}
}

func TestWeeklyDayHintsRespectPerDayCap(t *testing.T) {
	cfg := config.Default()
	cfg.Planning.MaxTasksPerDay = 2

	analysis := applyModeAnalysis()
	res, err := stableWeekly(cfg).Build(applyModeState(), analysis, planNow, 1)
	require.NoError(t, err)

	hinted := 0
	for day, ids := range res.Plan.DayHints {
		assert.LessOrEqual(t, len(ids), 2, "day %s over the cap", day)
		parsed, err := time.Parse("2006-01-02", day)
		require.NoError(t, err)
		assert.False(t, parsed.Before(res.Plan.WeekStart))
		assert.True(t, parsed.Before(res.Plan.WeekEnd))
		hinted += len(ids)
	}
	assert.Equal(t, len(res.Plan.Tasks), hinted, "every pooled task gets a day hint while the week has room")
}

func TestWeeklyVersionStamp(t *testing.T) {
	res, err := stableWeekly(config.Default()).Build(applyModeState(), applyModeAnalysis(), planNow, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Plan.Version)
	assert.Equal(t, int64(9), res.Plan.StateVersion)
	assert.Equal(t, "av-1", res.Plan.AnalysisVersion)
	assert.True(t, math.Abs(res.Plan.WeekEnd.Sub(res.Plan.WeekStart).Hours()-7*24) < 1)
}

func TestWeeklyUnknownModePlansAsBalanced(t *testing.T) {
	analysis := applyModeAnalysis()
	analysis.RecommendedMode = "/moonshot"

	res, err := stableWeekly(config.Default()).Build(applyModeState(), analysis, planNow, 1)
	require.NoError(t, err)
	assert.Equal(t, state.ModeBalanced, res.Plan.Mode)
}
