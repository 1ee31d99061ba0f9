package progress

import (
	"fmt"
	"time"

	"careerpilot/internal/config"
	"careerpilot/internal/logging"
	"careerpilot/internal/plan"
	"careerpilot/internal/state"
)

// MajorEvent is an externally-reported milestone that forces a replan.
type MajorEvent string

const (
	EventModeChanged    MajorEvent = "/mode_changed"
	EventFirstInterview MajorEvent = "/first_interview"
	EventFirstOffer     MajorEvent = "/first_offer"
)

// Evaluator decides when plans must be regenerated.
type Evaluator struct {
	cfg *config.Config
}

// NewEvaluator creates a replan evaluator over a configuration snapshot.
func NewEvaluator(cfg *config.Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// EvaluateWeekly checks the weekly plan, in fixed precedence order:
// expiry, explicit major events, mode mismatch against the latest analysis,
// then mid-week severe deviation (gated by the replan cooldown).
// Weekly evaluation runs before daily evaluation; a weekly replan makes the
// daily question moot.
func (e *Evaluator) EvaluateWeekly(p *plan.WeeklyPlan, analysis *state.StrategyAnalysis, snap plan.ProgressSnapshot, now, lastReplanAt time.Time, events []MajorEvent) plan.ReplanTrigger {
	trigger := plan.ReplanTrigger{Type: plan.TriggerNone}
	if p == nil {
		return plan.ReplanTrigger{
			Needed:  true,
			Type:    plan.TriggerPlanExpired,
			Reason:  "no weekly plan exists yet",
			Urgency: plan.UrgencyHigh,
		}
	}
	trigger.PlanID = p.ID
	trigger.PlanVersion = p.Version

	if !now.Before(p.WeekEnd) {
		trigger.Needed = true
		trigger.Type = plan.TriggerPlanExpired
		trigger.Reason = fmt.Sprintf("weekly plan ended %s", p.WeekEnd.Format("2006-01-02"))
		trigger.Urgency = plan.UrgencyHigh
		return trigger
	}

	for _, ev := range events {
		trigger.Needed = true
		trigger.Urgency = plan.UrgencyHigh
		switch ev {
		case EventModeChanged:
			trigger.Type = plan.TriggerModeChanged
			trigger.Reason = "strategy mode changed"
		default:
			trigger.Type = plan.TriggerMajorMilestone
			trigger.Reason = fmt.Sprintf("major milestone: %s", ev)
		}
		logging.Get(logging.CategoryProgress).Info("weekly replan: %s", trigger.Reason)
		return trigger
	}

	if analysis != nil && analysis.RecommendedMode.Valid() && analysis.RecommendedMode != p.Mode {
		trigger.Needed = true
		trigger.Type = plan.TriggerModeChanged
		trigger.Reason = fmt.Sprintf("stored plan runs %s but the latest analysis recommends %s", p.Mode, analysis.RecommendedMode)
		trigger.Urgency = plan.UrgencyHigh
		return trigger
	}

	if dev, expected := e.severeDeviation(p, snap, now); dev {
		cooldown := time.Duration(e.cfg.Replan.CooldownHours) * time.Hour
		if lastReplanAt.IsZero() || now.Sub(lastReplanAt) >= cooldown {
			trigger.Needed = true
			trigger.Type = plan.TriggerSevereDeviation
			trigger.Reason = fmt.Sprintf("completion %.0f%% against a prorated expectation of %.0f%%",
				snap.CompletionPct*100, expected*100)
			trigger.Urgency = plan.UrgencyMedium
			if expected < 0.5 {
				trigger.Urgency = plan.UrgencyLow // early in the week there is time to recover
			}
			return trigger
		}
		logging.Get(logging.CategoryProgress).Info("deviation detected but replan cooldown active")
	}

	return trigger
}

// severeDeviation reports whether completion fell below the configured
// fraction of the day-of-week-prorated expectation.
func (e *Evaluator) severeDeviation(p *plan.WeeklyPlan, snap plan.ProgressSnapshot, now time.Time) (bool, float64) {
	elapsed := now.Sub(p.WeekStart)
	if elapsed <= 0 {
		return false, 0
	}
	days := int(elapsed.Hours()/24) + 1
	if days > 7 {
		days = 7
	}
	if days < 2 {
		return false, 0 // day one is never a deviation
	}
	expected := float64(days) / 7
	return snap.CompletionPct < e.cfg.Replan.DeviationThreshold*expected, expected
}

// EvaluateDaily checks the daily plan: new calendar day, a failed task, or
// a nearly-finished plan that can absorb more work.
func (e *Evaluator) EvaluateDaily(p *plan.DailyPlan, snap plan.ProgressSnapshot, now time.Time) plan.ReplanTrigger {
	trigger := plan.ReplanTrigger{Type: plan.TriggerNone}
	if p == nil {
		return plan.ReplanTrigger{
			Needed:  true,
			Type:    plan.TriggerNewDay,
			Reason:  "no daily plan exists yet",
			Urgency: plan.UrgencyHigh,
		}
	}
	trigger.PlanID = p.ID
	trigger.PlanVersion = p.WeeklyPlanVersion

	if dayAfter(now, p.Date) {
		trigger.Needed = true
		trigger.Type = plan.TriggerNewDay
		trigger.Reason = fmt.Sprintf("plan was for %s", p.Date.Format("2006-01-02"))
		trigger.Urgency = plan.UrgencyHigh
		return trigger
	}

	if snap.Counts[plan.TaskFailed] > 0 {
		trigger.Needed = true
		trigger.Type = plan.TriggerTaskFailed
		trigger.Reason = fmt.Sprintf("%d tasks failed today", snap.Counts[plan.TaskFailed])
		trigger.Urgency = plan.UrgencyMedium
		return trigger
	}

	if snap.CompletionPct >= e.cfg.Replan.EarlyCompletionPct {
		trigger.Needed = true
		trigger.Type = plan.TriggerEarlyCompletion
		trigger.Reason = fmt.Sprintf("plan is %.0f%% done with the day still open", snap.CompletionPct*100)
		trigger.Urgency = plan.UrgencyLow
		return trigger
	}

	return trigger
}

func dayAfter(now, date time.Time) bool {
	ny, nm, nd := now.Date()
	py, pm, pd := date.Date()
	if ny != py {
		return ny > py
	}
	if nm != pm {
		return nm > pm
	}
	return nd > pd
}
