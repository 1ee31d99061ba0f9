// Package planner builds the two coupled planning horizons: the weekly task
// pool and the daily slice taken from it.
//
// A weekly plan is generated once per cycle and treated as an immutable,
// version-stamped snapshot. The daily planner only ever reads a finished
// weekly plan; it never observes partial weekly state.
package planner

import (
	"time"

	"github.com/google/uuid"

	"careerpilot/internal/config"
	"careerpilot/internal/logging"
	"careerpilot/internal/plan"
	"careerpilot/internal/planerr"
	"careerpilot/internal/scoring"
	"careerpilot/internal/state"
	"careerpilot/internal/taskgen"
	"careerpilot/internal/validate"
)

// Weekly builds weekly plans.
type Weekly struct {
	cfg    *config.Config
	scorer *scoring.Scorer
	gen    *taskgen.Generator

	newID func() string
}

// NewWeekly creates a weekly planner over a configuration snapshot.
func NewWeekly(cfg *config.Config) *Weekly {
	return &Weekly{
		cfg:    cfg,
		scorer: scoring.New(cfg),
		gen:    taskgen.New(cfg),
		newID:  func() string { return uuid.NewString() },
	}
}

// Generator exposes the planner's task generator, so hosts reuse the same
// template configuration.
func (w *Weekly) Generator() *taskgen.Generator { return w.gen }

// WeeklyResult bundles the plan with everything the caller may surface.
type WeeklyResult struct {
	Plan *plan.WeeklyPlan

	// StateValidation is the gate result that chose the planning path.
	StateValidation validate.Result

	// PlanIssues are non-fatal findings on the generated plan.
	PlanIssues []validate.Issue
}

// Build generates a weekly plan for the given snapshot and analysis.
// version stamps the plan; replanning passes the prior version + 1.
//
// Critical validation findings do not raise: they route onto the minimal
// safe path and the result says so. Build errors only on unusable input
// (nil analysis).
func (w *Weekly) Build(st *state.UserState, analysis *state.StrategyAnalysis, now time.Time, version int) (*WeeklyResult, error) {
	if analysis == nil {
		return nil, planerr.New(planerr.CodeInvalidInput, false, "strategy analysis is required")
	}
	if version <= 0 {
		version = 1
	}

	vr := validate.State(st, w.cfg, now)

	mode := analysis.RecommendedMode
	if !mode.Valid() {
		logging.Planner("unknown recommended mode %q, planning as balanced", mode)
		mode = state.ModeBalanced
	}

	res := &WeeklyResult{StateValidation: vr}

	if !vr.Valid || vr.Staleness == state.StalenessCritical {
		res.Plan = w.safePlan(st, analysis, mode, vr, now, version)
	} else {
		res.Plan = w.normalPlan(st, analysis, mode, vr, now, version)
	}

	res.PlanIssues = validate.WeeklyPlan(res.Plan, w.cfg)
	logging.Planner("weekly plan %s v%d: %d tasks, target %d, mode %s, safe=%v",
		res.Plan.ID, version, len(res.Plan.Tasks), res.Plan.TargetApplications, mode, res.Plan.Safe)
	return res, nil
}

// normalPlan is the standard generation path.
func (w *Weekly) normalPlan(st *state.UserState, analysis *state.StrategyAnalysis, mode state.Mode, vr validate.Result, now time.Time, version int) *plan.WeeklyPlan {
	pool := w.buildPool(st, analysis, vr, now)

	sc := scoring.Context{State: st, Mode: mode, Staleness: vr.Staleness, Now: now}
	pool = w.scorer.Prioritize(pool, sc)
	if len(pool) > w.cfg.Planning.MaxPoolSize {
		pool = pool[:w.cfg.Planning.MaxPoolSize]
	}

	p := w.newPlan(st, analysis, mode, now, version)
	p.TargetApplications = w.applicationTarget(st, mode)
	p.Tasks = pool
	p.FocusMix = w.blendFocusMix(mode, pool)
	p.DayHints = w.dayHints(p.WeekStart, pool)
	return p
}

// buildPool assembles the unscored weekly candidate pool: blueprint tasks,
// eligible follow-ups not already claimed by a blueprint, and a refresh
// task when freshness warned. The fallback path synthesizes tasks from
// plain-text priority actions when strategy produced no blueprints.
func (w *Weekly) buildPool(st *state.UserState, analysis *state.StrategyAnalysis, vr validate.Result, now time.Time) []plan.Task {
	var pool []plan.Task

	claimed := make(map[string]bool)
	for _, bp := range analysis.Blueprints {
		t := w.gen.FromBlueprint(bp, st, now)
		if fp, ok := t.Payload.(*plan.FollowUpPayload); ok {
			claimed[fp.ApplicationID] = true
		}
		pool = append(pool, t)
	}

	if len(analysis.Blueprints) == 0 && len(analysis.PriorityActions) > 0 {
		n := len(analysis.PriorityActions)
		if n > 3 {
			n = 3
		}
		for _, action := range analysis.PriorityActions[:n] {
			pool = append(pool, w.gen.FromPriorityAction(action, st, now))
		}
		logging.Planner("no blueprints supplied, synthesized %d fallback tasks", n)
	}

	if st != nil {
		for _, f := range st.PendingFollowUps {
			if claimed[f.ApplicationID] {
				continue
			}
			days := f.DaysSinceApplication(now)
			if days < 3 || days > 30 {
				continue // too early to nudge, or long gone cold
			}
			pool = append(pool, w.gen.FromFollowUp(f, now))
		}
	}

	if vr.Staleness == state.StalenessWarning {
		pool = append(pool, w.gen.RefreshTask(state.StalenessWarning, vr.RecommendedAction, now))
	}
	return pool
}

// safePlan is the critical-staleness path: a refresh task at top priority
// plus at most three safe follow-ups. Applications are forced to zero and
// the focus mix collapses to follow-up and strategy work.
func (w *Weekly) safePlan(st *state.UserState, analysis *state.StrategyAnalysis, mode state.Mode, vr validate.Result, now time.Time, version int) *plan.WeeklyPlan {
	refresh := w.gen.RefreshTask(state.StalenessCritical, vr.RecommendedAction, now)

	var followUps []plan.Task
	if st != nil {
		for _, f := range st.PendingFollowUps {
			if f.DaysSinceApplication(now) >= 5 {
				followUps = append(followUps, w.gen.FromFollowUp(f, now))
			}
		}
	}

	sc := scoring.Context{State: st, Mode: mode, Staleness: state.StalenessCritical, Now: now}
	followUps = w.scorer.Prioritize(followUps, sc)
	if len(followUps) > 3 {
		followUps = followUps[:3]
	}

	scored := w.scorer.Score(refresh, sc)
	refresh.Priority = scored.Score
	b := scored.Breakdown
	refresh.Breakdown = &b
	if refresh.Priority < 95 {
		// The refresh task is the whole point of the safe plan; it must
		// outrank everything else in it.
		refresh.Priority = 95
	}

	p := w.newPlan(st, analysis, mode, now, version)
	p.Safe = true
	p.TargetApplications = 0
	p.Tasks = append([]plan.Task{refresh}, followUps...)
	p.FocusMix = map[plan.FocusArea]float64{
		plan.FocusResume:       0,
		plan.FocusApplications: 0,
		plan.FocusFollowUps:    0.5,
		plan.FocusStrategy:     0.5,
	}
	p.DayHints = w.dayHints(p.WeekStart, p.Tasks)

	logging.Planner("critical staleness: emitting safe plan with %d follow-ups", len(followUps))
	return p
}

func (w *Weekly) newPlan(st *state.UserState, analysis *state.StrategyAnalysis, mode state.Mode, now time.Time, version int) *plan.WeeklyPlan {
	weekStart := now.Truncate(24 * time.Hour)
	p := &plan.WeeklyPlan{
		ID:              w.newID(),
		Version:         version,
		WeekStart:       weekStart,
		WeekEnd:         weekStart.AddDate(0, 0, 7),
		Mode:            mode,
		AnalysisVersion: analysis.AnalysisVersion,
		GeneratedAt:     now,
	}
	if st != nil {
		p.UserID = st.UserID
		p.StateVersion = st.Version
	}
	return p
}

// applicationTarget computes the weekly application count: a user override
// when it is inside the mode's range, otherwise the range midpoint, halved
// when the resume is not apply-ready.
func (w *Weekly) applicationTarget(st *state.UserState, mode state.Mode) int {
	r := w.cfg.Planning.TargetRange(mode)

	if st != nil {
		if o := st.Pipeline.WeeklyTargetOverride; o >= r.Min && o <= r.Max && o > 0 {
			return clampTarget(o, w.cfg.Planning.TargetCap)
		}
	}

	target := (r.Min + r.Max) / 2
	if st != nil && st.Resume.Score < w.cfg.Planning.ApplyReadinessScore {
		target /= 2
	}
	return clampTarget(target, w.cfg.Planning.TargetCap)
}

func clampTarget(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

// blendFocusMix blends the mode preset (30%) with the observed task-kind
// distribution of the pool (70%), renormalized so the mix sums to 1.0.
func (w *Weekly) blendFocusMix(mode state.Mode, pool []plan.Task) map[plan.FocusArea]float64 {
	preset := config.FocusPreset(mode)
	if len(pool) == 0 {
		return preset
	}

	observed := make(map[plan.FocusArea]float64, len(plan.FocusAreas))
	for _, t := range pool {
		observed[plan.FocusOf(t.Kind)] += 1.0 / float64(len(pool))
	}

	blendPreset := w.cfg.Planning.FocusPresetBlend
	mix := make(map[plan.FocusArea]float64, len(plan.FocusAreas))
	sum := 0.0
	for _, area := range plan.FocusAreas {
		v := blendPreset*preset[area] + (1-blendPreset)*observed[area]
		mix[area] = v
		sum += v
	}
	if sum > 0 {
		for area := range mix {
			mix[area] /= sum
		}
	}
	return mix
}

// dayHints distributes the sorted pool across the seven days, advancing to
// the next day once a day reaches the per-day cap.
func (w *Weekly) dayHints(weekStart time.Time, pool []plan.Task) map[string][]string {
	if len(pool) == 0 {
		return nil
	}
	perDay := w.cfg.Planning.MaxTasksPerDay
	if perDay <= 0 {
		perDay = 5
	}

	hints := make(map[string][]string)
	day := 0
	for _, t := range pool {
		if day >= 7 {
			break // week is full; the rest stay pool-only
		}
		key := weekStart.AddDate(0, 0, day).Format("2006-01-02")
		hints[key] = append(hints[key], t.ID)
		if len(hints[key]) >= perDay {
			day++
		}
	}
	return hints
}
