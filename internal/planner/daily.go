package planner

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"careerpilot/internal/config"
	"careerpilot/internal/logging"
	"careerpilot/internal/plan"
	"careerpilot/internal/planerr"
	"careerpilot/internal/scoring"
	"careerpilot/internal/state"
	"careerpilot/internal/validate"
)

// Daily slices a day's work out of a weekly plan under the time budget and
// task-count cap. A daily plan is always produced; findings are warnings.
type Daily struct {
	cfg    *config.Config
	scorer *scoring.Scorer

	newID func() string
}

// NewDaily creates a daily planner over a configuration snapshot.
func NewDaily(cfg *config.Config) *Daily {
	return &Daily{
		cfg:    cfg,
		scorer: scoring.New(cfg),
		newID:  func() string { return uuid.NewString() },
	}
}

// DailyResult bundles the plan with its non-fatal findings.
type DailyResult struct {
	Plan   *plan.DailyPlan
	Issues []validate.Issue
}

// Build derives the daily slice for date from the weekly plan's current
// pool and the live state. The weekly plan must be complete before this is
// called; it is read, never written. A zero date means the weekly plan's
// first day.
func (d *Daily) Build(weekly *plan.WeeklyPlan, st *state.UserState, now time.Time, date time.Time) (*DailyResult, error) {
	if weekly == nil {
		return nil, planerr.New(planerr.CodePlanGenerationDaily, false, "daily planning requires a weekly plan")
	}
	if date.IsZero() {
		date = weekly.WeekStart
	}
	date = date.Truncate(24 * time.Hour)

	vr := validate.State(st, d.cfg, now)
	sc := scoring.Context{State: st, Mode: weekly.Mode, Staleness: vr.Staleness, Now: now, Done: completedIDs(weekly)}

	// Candidates: the weekly pool minus terminally-marked tasks, re-scored
	// against the live state rather than the week-old scores.
	var candidates []plan.Task
	for _, t := range weekly.Tasks {
		if t.Status.Terminal() {
			continue
		}
		candidates = append(candidates, t)
	}
	candidates = d.scorer.Prioritize(candidates, sc)

	selected := d.selectForDay(weekly, candidates, date)
	selected = FitTasksToTimeBudget(selected, d.cfg.Daily.TimeBudgetMinutes)
	selected = d.ensureHighPriority(selected, candidates)

	total := 0
	for _, t := range selected {
		total += t.EstimatedMinutes
	}

	p := &plan.DailyPlan{
		ID:                d.newID(),
		UserID:            weekly.UserID,
		Date:              date,
		Focus:             dominantFocus(selected, weekly.Mode),
		Tasks:             selected,
		TotalMinutes:      total,
		WeeklyPlanID:      weekly.ID,
		WeeklyPlanVersion: weekly.Version,
		GeneratedAt:       now,
	}

	issues := validate.DailyPlan(p, weekly, d.cfg)
	logging.Planner("daily plan %s for %s: %d tasks, %d minutes (weekly %s v%d)",
		p.ID, date.Format("2006-01-02"), len(p.Tasks), total, weekly.ID, weekly.Version)
	return &DailyResult{Plan: p, Issues: issues}, nil
}

// selectForDay seeds today's list from the weekly day hints, fills the
// remaining slots with the highest-scoring non-hinted candidates, and
// re-sorts the combination with the scorer's full comparator.
func (d *Daily) selectForDay(weekly *plan.WeeklyPlan, candidates []plan.Task, date time.Time) []plan.Task {
	maxTasks := d.cfg.Daily.MaxTasks
	if maxTasks <= 0 {
		maxTasks = 5
	}

	byID := make(map[string]plan.Task, len(candidates))
	for _, t := range candidates {
		byID[t.ID] = t
	}

	var selected []plan.Task
	picked := make(map[string]bool)
	for _, id := range weekly.DayHints[date.Format("2006-01-02")] {
		if len(selected) >= maxTasks {
			break
		}
		t, ok := byID[id]
		if !ok || picked[id] {
			continue
		}
		selected = append(selected, t)
		picked[id] = true
	}

	for _, t := range candidates {
		if len(selected) >= maxTasks {
			break
		}
		if picked[t.ID] {
			continue
		}
		selected = append(selected, t)
		picked[t.ID] = true
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return scoring.Less(selected[i], selected[j])
	})
	return selected
}

// FitTasksToTimeBudget greedily accepts tasks in priority order while the
// running total stays within budgetMinutes. When the very first candidate
// alone exceeds the budget it is still included, alone: budget overflow
// never produces an empty plan.
func FitTasksToTimeBudget(tasks []plan.Task, budgetMinutes int) []plan.Task {
	if len(tasks) == 0 || budgetMinutes <= 0 {
		return tasks
	}
	if tasks[0].EstimatedMinutes > budgetMinutes {
		return tasks[:1:1]
	}

	var fit []plan.Task
	total := 0
	for _, t := range tasks {
		if total+t.EstimatedMinutes > budgetMinutes {
			continue
		}
		fit = append(fit, t)
		total += t.EstimatedMinutes
	}
	return fit
}

// ensureHighPriority swaps the lowest-priority selected task for the
// highest-priority unselected candidate when configuration demands at
// least one high-priority item and the selection has none.
func (d *Daily) ensureHighPriority(selected, candidates []plan.Task) []plan.Task {
	if !d.cfg.Daily.RequireHighPriority || len(selected) == 0 {
		return selected
	}
	threshold := d.cfg.Scoring.HighPriorityThreshold
	for _, t := range selected {
		if t.Priority >= threshold {
			return selected
		}
	}

	inSelection := make(map[string]bool, len(selected))
	for _, t := range selected {
		inSelection[t.ID] = true
	}

	// Candidates are already in priority order; the first unselected one
	// at or above the threshold is the best swap.
	for _, c := range candidates {
		if inSelection[c.ID] || c.Priority < threshold {
			continue
		}
		selected[len(selected)-1] = c
		sort.SliceStable(selected, func(i, j int) bool {
			return scoring.Less(selected[i], selected[j])
		})
		logging.PlannerDebug("swapped in high-priority task %s (score %d)", c.ID, c.Priority)
		return selected
	}
	return selected
}

// dominantFocus is the plurality focus area across the final task list.
// Ties resolve in the fixed FocusAreas order so the result is stable.
func dominantFocus(tasks []plan.Task, mode state.Mode) plan.FocusArea {
	if len(tasks) == 0 {
		best := plan.FocusStrategy
		bestV := -1.0
		for _, area := range plan.FocusAreas {
			if v := config.FocusPreset(mode)[area]; v > bestV {
				best, bestV = area, v
			}
		}
		return best
	}

	counts := make(map[plan.FocusArea]int, len(plan.FocusAreas))
	for _, t := range tasks {
		counts[plan.FocusOf(t.Kind)]++
	}
	best := plan.FocusAreas[0]
	for _, area := range plan.FocusAreas[1:] {
		if counts[area] > counts[best] {
			best = area
		}
	}
	return best
}

func completedIDs(weekly *plan.WeeklyPlan) map[string]bool {
	done := make(map[string]bool)
	for _, t := range weekly.Tasks {
		if t.Status == plan.TaskCompleted {
			done[t.ID] = true
		}
	}
	return done
}
