package validate

import (
	"testing"
	"time"

	"careerpilot/internal/config"
	"careerpilot/internal/plan"
	"careerpilot/internal/state"
)

var valNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func freshState() *state.UserState {
	return &state.UserState{
		UserID:     "u-1",
		Version:    3,
		SnapshotAt: valNow.Add(-time.Hour),
		Pipeline: state.PipelineState{
			ApplicationsTotal:     30,
			ApplicationsThisMonth: 10,
			ApplicationsThisWeek:  3,
			InterviewRate:         0.1,
			ResponseRate:          0.2,
		},
		Resume:    state.ResumeState{Score: 70},
		Freshness: state.Freshness{LastUpdated: valNow.Add(-time.Hour)},
	}
}

func hasIssue(issues []Issue, code string, sev IssueSeverity) bool {
	for _, is := range issues {
		if is.Code == code && is.Severity == sev {
			return true
		}
	}
	return false
}

func TestStateNilSnapshot(t *testing.T) {
	res := State(nil, config.Default(), valNow)
	if res.Valid {
		t.Fatal("nil snapshot must be invalid")
	}
	if res.Staleness != state.StalenessCritical {
		t.Fatalf("nil snapshot staleness = %s, want critical", res.Staleness)
	}
}

func TestStateHealthySnapshot(t *testing.T) {
	res := State(freshState(), config.Default(), valNow)
	if !res.Valid {
		t.Fatalf("healthy snapshot flagged invalid: %+v", res.Issues)
	}
	if res.Staleness != state.StalenessNone {
		t.Fatalf("staleness = %s, want none", res.Staleness)
	}
	if len(res.Issues) != 0 {
		t.Fatalf("unexpected issues: %+v", res.Issues)
	}
}

func TestStateCounterOrder(t *testing.T) {
	st := freshState()
	st.Pipeline.ApplicationsThisWeek = 20 // above the monthly 10

	res := State(st, config.Default(), valNow)
	if res.Valid {
		t.Fatal("inverted counters must be critical")
	}
	if !hasIssue(res.Issues, "counter_order", SeverityCritical) {
		t.Fatalf("missing counter_order issue: %+v", res.Issues)
	}
}

func TestStateRateAndScoreRanges(t *testing.T) {
	st := freshState()
	st.Pipeline.InterviewRate = 1.4
	st.Resume.Score = 130

	res := State(st, config.Default(), valNow)
	if res.Valid {
		t.Fatal("out-of-range rates must be critical")
	}
	if !hasIssue(res.Issues, "rate_range", SeverityCritical) {
		t.Fatalf("missing rate_range issue: %+v", res.Issues)
	}
	if !hasIssue(res.Issues, "score_range", SeverityCritical) {
		t.Fatalf("missing score_range issue: %+v", res.Issues)
	}
}

func TestStateStalenessGrading(t *testing.T) {
	cfg := config.Default() // warn at 72h, critical at 168h

	cases := []struct {
		name string
		age  time.Duration
		want state.StalenessSeverity
	}{
		{"fresh", 2 * time.Hour, state.StalenessNone},
		{"aging", 80 * time.Hour, state.StalenessWarning},
		{"ancient", 200 * time.Hour, state.StalenessCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := freshState()
			st.Freshness.LastUpdated = valNow.Add(-tc.age)
			res := State(st, cfg, valNow)
			if res.Staleness != tc.want {
				t.Fatalf("age %s: staleness = %s, want %s", tc.age, res.Staleness, tc.want)
			}
			if tc.want == state.StalenessCritical && res.Valid {
				t.Fatal("critical staleness must invalidate the snapshot")
			}
			if tc.want == state.StalenessWarning && res.RecommendedAction == "" {
				t.Fatal("warning staleness should recommend a refresh")
			}
		})
	}
}

func TestStateUntrustedFlagIsCritical(t *testing.T) {
	st := freshState()
	st.Freshness.Untrusted = true

	res := State(st, config.Default(), valNow)
	if res.Staleness != state.StalenessCritical {
		t.Fatalf("untrusted snapshot staleness = %s, want critical", res.Staleness)
	}
}

func TestStateExplicitStaleFlagWarns(t *testing.T) {
	st := freshState()
	st.Freshness.Stale = true

	res := State(st, config.Default(), valNow)
	if res.Staleness != state.StalenessWarning {
		t.Fatalf("stale-flagged snapshot staleness = %s, want warning", res.Staleness)
	}
	if !res.Valid {
		t.Fatal("a warning alone must not invalidate the snapshot")
	}
}

func TestWeeklyPlanChecks(t *testing.T) {
	cfg := config.Default()

	t.Run("empty pool is critical", func(t *testing.T) {
		p := &plan.WeeklyPlan{ID: "w", FocusMix: map[plan.FocusArea]float64{plan.FocusStrategy: 1}}
		issues := WeeklyPlan(p, cfg)
		if !hasIssue(issues, "empty_pool", SeverityCritical) {
			t.Fatalf("missing empty_pool issue: %+v", issues)
		}
	})

	t.Run("target above cap is critical", func(t *testing.T) {
		p := &plan.WeeklyPlan{
			ID:                 "w",
			TargetApplications: cfg.Planning.TargetCap + 1,
			FocusMix:           map[plan.FocusArea]float64{plan.FocusStrategy: 1},
			Tasks:              []plan.Task{{ID: "t", WhyNow: "w", Priority: 50}},
		}
		if !hasIssue(WeeklyPlan(p, cfg), "target_range", SeverityCritical) {
			t.Fatal("missing target_range issue")
		}
	})

	t.Run("skewed focus mix warns", func(t *testing.T) {
		p := &plan.WeeklyPlan{
			ID:       "w",
			FocusMix: map[plan.FocusArea]float64{plan.FocusResume: 0.5},
			Tasks:    []plan.Task{{ID: "t", WhyNow: "w", Priority: 50}},
		}
		if !hasIssue(WeeklyPlan(p, cfg), "focus_mix_sum", SeverityWarning) {
			t.Fatal("missing focus_mix_sum warning")
		}
	})

	t.Run("missing justification warns", func(t *testing.T) {
		p := &plan.WeeklyPlan{
			ID:       "w",
			FocusMix: map[plan.FocusArea]float64{plan.FocusStrategy: 1},
			Tasks:    []plan.Task{{ID: "t", Priority: 50}},
		}
		if !hasIssue(WeeklyPlan(p, cfg), "missing_justification", SeverityWarning) {
			t.Fatal("missing missing_justification warning")
		}
	})
}

func TestDailyPlanDependencyCheck(t *testing.T) {
	cfg := config.Default()
	parent := &plan.WeeklyPlan{
		ID: "w",
		Tasks: []plan.Task{
			{ID: "done", Status: plan.TaskCompleted, WhyNow: "w"},
			{ID: "open", Status: plan.TaskPending, WhyNow: "w"},
		},
	}
	daily := &plan.DailyPlan{
		ID: "d",
		Tasks: []plan.Task{
			{ID: "a", WhyNow: "w", DependsOn: []string{"done"}},
			{ID: "b", WhyNow: "w", DependsOn: []string{"open"}},
			{ID: "c", WhyNow: "w", DependsOn: []string{"a"}},
		},
	}

	issues := DailyPlan(daily, parent, cfg)
	for _, is := range issues {
		if is.Severity != SeverityWarning {
			t.Fatalf("daily findings must all be warnings, got %s", is.Severity)
		}
	}
	if !hasIssue(issues, "missing_dependency", SeverityWarning) {
		t.Fatalf("dependency on a pending parent task should warn: %+v", issues)
	}
	// a's dependency is completed in the parent, c's is scheduled today; only
	// b's should have warned.
	count := 0
	for _, is := range issues {
		if is.Code == "missing_dependency" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one dependency warning, got %d: %+v", count, issues)
	}
}
