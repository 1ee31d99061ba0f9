// Package scoring implements the deterministic priority scorer shared by the
// weekly and daily planners.
//
// Scoring is a pure function of (task, state, mode, config, reference time).
// Identical inputs always produce identical scores and identical ordering;
// nothing in this package reads the wall clock or any other ambient state.
package scoring

import (
	"fmt"
	"math"
	"time"

	"careerpilot/internal/config"
	"careerpilot/internal/plan"
	"careerpilot/internal/state"
)

// Context carries the immutable inputs a scoring pass runs against.
type Context struct {
	State     *state.UserState
	Mode      state.Mode
	Staleness state.StalenessSeverity

	// Now is the reference time. Callers pass it explicitly so repeated
	// calls with the same snapshot stay byte-identical.
	Now time.Time

	// Done marks task IDs known to be completed, for dependency penalties.
	// Nil means no dependencies are satisfied yet.
	Done map[string]bool
}

// Scorer computes priority scores from the configured weight profile.
type Scorer struct {
	cfg *config.Config
}

// New creates a scorer over a configuration snapshot.
func New(cfg *config.Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Result is one task's score with its transparency breakdown.
type Result struct {
	Score     int
	Breakdown plan.PriorityBreakdown
}

// Score computes the bounded priority for a single task.
// All five sub-scores and the time cost land in [0,100]; the final score is
// the weighted sum minus the weighted time cost minus penalties, rounded and
// clamped to [0,100].
func (s *Scorer) Score(t plan.Task, sc Context) Result {
	b := plan.PriorityBreakdown{
		Impact:     s.impact(t, sc),
		Urgency:    s.urgency(t, sc),
		Alignment:  s.alignment(t.Kind, sc.Mode),
		Confidence: s.confidence(t, sc),
		TimeCost:   s.timeCost(t),
	}

	// Penalties accumulate; they are subtracted whole, not weighted.
	if b.Alignment < 30 {
		b.Penalties += 15
		b.Notes = append(b.Notes, fmt.Sprintf("conflicts with mode %s", sc.Mode))
	}
	if sc.Staleness == state.StalenessCritical && t.Kind != plan.ActionRefreshState {
		b.Penalties += 25
		b.Notes = append(b.Notes, "state critically stale")
	}
	if unmet := s.unmetDependencies(t, sc); unmet > 0 {
		b.Penalties += 20
		b.Notes = append(b.Notes, fmt.Sprintf("%d unmet dependencies", unmet))
	}

	w := s.cfg.Scoring.Weights
	raw := w.Impact*b.Impact +
		w.Urgency*b.Urgency +
		w.Alignment*b.Alignment +
		w.Confidence*b.Confidence -
		w.TimeCost*b.TimeCost -
		b.Penalties

	return Result{Score: int(math.Round(clamp(raw))), Breakdown: b}
}

// impact is the action-kind-specific payoff heuristic.
func (s *Scorer) impact(t plan.Task, sc Context) float64 {
	switch t.Kind {
	case plan.ActionResumeImprove:
		var gain float64
		var severity int
		if p, ok := t.Payload.(*plan.ResumeImprovePayload); ok {
			gain = p.EstimatedGain
			severity = p.IssueSeverity
		}
		v := gain*8 + float64(severity)*10
		if sc.Mode == state.ModeResumeFirst {
			// Resume work is amplified while the strategy says fix the
			// resume first.
			v *= 1.5
		}
		return clamp(v)

	case plan.ActionApply:
		var match float64
		if p, ok := t.Payload.(*plan.ApplyPayload); ok {
			match = p.MatchScore
		}
		return clamp(0.6*match + 0.4*s.scarcity(sc))

	case plan.ActionFollowUp:
		days := followUpDays(t)
		return clamp(followUpImpactCurve(days))

	case plan.ActionUpdateTargets:
		return 40

	case plan.ActionCollectInfo:
		return 45

	case plan.ActionRefreshState:
		switch sc.Staleness {
		case state.StalenessCritical:
			return 95
		case state.StalenessWarning:
			return 60
		default:
			return 50
		}

	default:
		return 30
	}
}

// scarcity measures how far behind the weekly application target the user
// is, in [0,100]. A fully met target scores 0.
func (s *Scorer) scarcity(sc Context) float64 {
	if sc.State == nil {
		return 50
	}
	target := sc.State.Pipeline.WeeklyTargetOverride
	if target <= 0 {
		r := s.cfg.Planning.TargetRange(sc.Mode)
		target = (r.Min + r.Max) / 2
	}
	if target <= 0 {
		return 0
	}
	gap := float64(target-sc.State.Pipeline.ApplicationsThisWeek) / float64(target)
	return clamp(gap * 100)
}

// followUpImpactCurve peaks at 100 in the 7-10 day window, ramps up before
// it, and decays toward a floor of 20 after.
func followUpImpactCurve(days int) float64 {
	switch {
	case days < 0:
		return 40
	case days < 7:
		return 40 + 60*float64(days)/7
	case days <= 10:
		return 100
	case days <= 21:
		return 100 - 80*float64(days-10)/11
	default:
		return 20
	}
}

// urgency derives from the due time, except follow-ups which use a
// day-since-application curve.
func (s *Scorer) urgency(t plan.Task, sc Context) float64 {
	if t.Kind == plan.ActionFollowUp {
		return followUpUrgencyCurve(followUpDays(t))
	}
	if t.DueAt == nil {
		return 30
	}
	now := sc.Now
	due := *t.DueAt
	switch {
	case due.Before(now):
		return 100 // overdue
	case sameDay(due, now):
		return 100
	case sameDay(due, now.AddDate(0, 0, 1)):
		return 80
	case !due.After(now.AddDate(0, 0, 7)):
		return 50 // within the weekly deadline
	default:
		return 20
	}
}

// followUpUrgencyCurve peaks at 85 across days 7-14, ramps from 30 before,
// and decays to 25 past day 21.
func followUpUrgencyCurve(days int) float64 {
	switch {
	case days < 0:
		return 30
	case days < 7:
		return 30 + 55*float64(days)/7
	case days <= 14:
		return 85
	case days <= 21:
		return 85 - 60*float64(days-14)/7
	default:
		return 25
	}
}

// alignment is the static action-kind vs mode compatibility lookup.
func (s *Scorer) alignment(kind plan.ActionKind, mode state.Mode) float64 {
	row, ok := alignmentMatrix[kind]
	if !ok {
		return 50
	}
	v, ok := row[mode]
	if !ok {
		return 50
	}
	return v
}

// alignmentMatrix reflects how well each task type fits each strategic
// phase. Values are fixed; configuration tunes weights, not compatibility.
var alignmentMatrix = map[plan.ActionKind]map[state.Mode]float64{
	plan.ActionResumeImprove: {
		state.ModeResumeFirst: 95, state.ModeApply: 35,
		state.ModeFollowUp: 25, state.ModeBalanced: 60,
	},
	plan.ActionApply: {
		state.ModeResumeFirst: 25, state.ModeApply: 95,
		state.ModeFollowUp: 45, state.ModeBalanced: 70,
	},
	plan.ActionFollowUp: {
		state.ModeResumeFirst: 40, state.ModeApply: 75,
		state.ModeFollowUp: 95, state.ModeBalanced: 70,
	},
	plan.ActionUpdateTargets: {
		state.ModeResumeFirst: 55, state.ModeApply: 40,
		state.ModeFollowUp: 35, state.ModeBalanced: 60,
	},
	plan.ActionCollectInfo: {
		state.ModeResumeFirst: 60, state.ModeApply: 45,
		state.ModeFollowUp: 40, state.ModeBalanced: 55,
	},
	plan.ActionRefreshState: {
		state.ModeResumeFirst: 80, state.ModeApply: 80,
		state.ModeFollowUp: 80, state.ModeBalanced: 80,
	},
}

// confidence starts at 70, drops for stale or incomplete state, and rises
// with attached evidence.
func (s *Scorer) confidence(t plan.Task, sc Context) float64 {
	v := 70.0
	switch sc.Staleness {
	case state.StalenessCritical:
		v -= 20
	case state.StalenessWarning:
		v -= 10
	}
	if sc.State != nil && len(sc.State.MissingFields) > 0 {
		v -= 10
	}
	ev := len(t.Evidence)
	if ev > 4 {
		ev = 4
	}
	v += float64(ev) * 5
	return clamp(v)
}

// timeCost normalizes the estimate against the reference duration.
func (s *Scorer) timeCost(t plan.Task) float64 {
	ref := s.cfg.Scoring.ReferenceMinutes
	if ref <= 0 {
		ref = 120
	}
	v := float64(t.EstimatedMinutes) / float64(ref) * 100
	return clamp(v)
}

func (s *Scorer) unmetDependencies(t plan.Task, sc Context) int {
	if len(t.DependsOn) == 0 {
		return 0
	}
	unmet := 0
	for _, dep := range t.DependsOn {
		if !sc.Done[dep] {
			unmet++
		}
	}
	return unmet
}

func followUpDays(t plan.Task) int {
	if p, ok := t.Payload.(*plan.FollowUpPayload); ok {
		return p.DaysSinceApplication
	}
	return -1
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
