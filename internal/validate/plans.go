package validate

import (
	"math"

	"careerpilot/internal/config"
	"careerpilot/internal/logging"
	"careerpilot/internal/plan"
)

// WeeklyPlan checks a generated weekly plan. Findings are non-fatal and
// logged; the caller decides what to surface. An empty pool or an
// out-of-range target is critical (the plan is unusable); everything else
// is a warning.
func WeeklyPlan(p *plan.WeeklyPlan, cfg *config.Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, code, msg string) {
		issues = append(issues, Issue{Severity: sev, Code: code, Message: msg})
	}

	if len(p.Tasks) == 0 {
		add(SeverityCritical, "empty_pool", "weekly plan has no tasks")
	}
	if p.TargetApplications < 0 || p.TargetApplications > cfg.Planning.TargetCap {
		add(SeverityCritical, "target_range", "target applications outside the configured bound")
	}
	if len(p.Tasks) > cfg.Planning.MaxPoolSize {
		add(SeverityWarning, "pool_size", "task pool exceeds the configured maximum")
	}

	sum := 0.0
	for _, v := range p.FocusMix {
		sum += v
	}
	if math.Abs(sum-1.0) > 0.1 {
		add(SeverityWarning, "focus_mix_sum", "focus mix does not sum to 1.0")
	}

	for _, t := range p.Tasks {
		if t.Priority < 0 || t.Priority > 100 {
			add(SeverityWarning, "priority_range", "task "+t.ID+" priority outside [0,100]")
		}
		if t.WhyNow == "" {
			add(SeverityWarning, "missing_justification", "task "+t.ID+" has no justification")
		}
	}

	for _, is := range issues {
		if is.Severity == SeverityCritical {
			logging.Get(logging.CategoryValidate).Warn("weekly plan %s: %s", p.ID, is.Message)
		}
	}
	return issues
}

// DailyPlan checks a daily slice. Nothing here is critical; a daily plan is
// always produced and served.
func DailyPlan(p *plan.DailyPlan, parent *plan.WeeklyPlan, cfg *config.Config) []Issue {
	var issues []Issue
	add := func(code, msg string) {
		issues = append(issues, Issue{Severity: SeverityWarning, Code: code, Message: msg})
	}

	if len(p.Tasks) > cfg.Daily.MaxTasks {
		add("task_count", "daily plan exceeds the task cap")
	}
	if p.TotalMinutes > 2*cfg.Daily.TimeBudgetMinutes {
		add("time_budget", "daily plan far exceeds the time budget")
	}

	inDay := make(map[string]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		inDay[t.ID] = true
	}
	for _, t := range p.Tasks {
		if t.WhyNow == "" {
			add("missing_justification", "task "+t.ID+" has no justification")
		}
		for _, dep := range t.DependsOn {
			if inDay[dep] {
				continue
			}
			done := false
			if parent != nil {
				if pt := parent.TaskByID(dep); pt != nil && pt.Status == plan.TaskCompleted {
					done = true
				}
			}
			if !done {
				add("missing_dependency", "task "+t.ID+" depends on "+dep+" which is not scheduled or completed")
			}
		}
	}
	return issues
}
