// Package config holds the planning engine's configuration: scoring weights,
// planning bounds, staleness thresholds, per-action-kind templates and time
// estimates, and executor retry settings.
//
// Configuration is always read through a Store (see store.go) so callers get
// explicit caching and invalidation instead of a hidden ambient singleton.
package config

import (
	"fmt"
	"math"

	"careerpilot/internal/plan"
	"careerpilot/internal/state"
)

// Config holds all careerpilot engine configuration.
type Config struct {
	Scoring   ScoringConfig   `yaml:"scoring"`
	Planning  PlanningConfig  `yaml:"planning"`
	Daily     DailyConfig     `yaml:"daily"`
	Staleness StalenessConfig `yaml:"staleness"`
	Replan    ReplanConfig    `yaml:"replan"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Tasks     TasksConfig     `yaml:"tasks"`
}

// ScoringConfig configures the priority scorer.
type ScoringConfig struct {
	Weights Weights `yaml:"weights"`

	// ReferenceMinutes normalizes the time-cost sub-score (default 120).
	ReferenceMinutes int `yaml:"reference_minutes"`

	// HighPriorityThreshold marks a task as high priority (default 70).
	HighPriorityThreshold int `yaml:"high_priority_threshold"`
}

// Weights are the scoring weights. Impact+Urgency+Alignment+Confidence+
// TimeCost must sum to 1.0; TimeCost is a subtracted term.
type Weights struct {
	Impact     float64 `yaml:"impact"`
	Urgency    float64 `yaml:"urgency"`
	Alignment  float64 `yaml:"alignment"`
	Confidence float64 `yaml:"confidence"`
	TimeCost   float64 `yaml:"time_cost"`
}

// Sum returns the weight total, used by validation.
func (w Weights) Sum() float64 {
	return w.Impact + w.Urgency + w.Alignment + w.Confidence + w.TimeCost
}

// Range bounds a weekly application target for one mode.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// PlanningConfig configures the weekly planner.
type PlanningConfig struct {
	MaxPoolSize    int `yaml:"max_pool_size"`     // weekly pool cap (default 50)
	MaxTasksPerDay int `yaml:"max_tasks_per_day"` // day-hint cap (default 5)
	TargetCap      int `yaml:"target_cap"`        // absolute target bound (default 50)

	// ApplyReadinessScore is the resume score below which application
	// targets are halved (default 70).
	ApplyReadinessScore float64 `yaml:"apply_readiness_score"`

	// Per-mode weekly application target ranges.
	TargetResumeFirst Range `yaml:"target_resume_first"`
	TargetApply       Range `yaml:"target_apply"`
	TargetFollowUp    Range `yaml:"target_follow_up"`
	TargetBalanced    Range `yaml:"target_balanced"`

	// FocusPresetBlend is the weight given to the mode preset when blending
	// with the observed pool distribution (default 0.3).
	FocusPresetBlend float64 `yaml:"focus_preset_blend"`
}

// TargetRange returns the application-target range for a mode.
func (p PlanningConfig) TargetRange(m state.Mode) Range {
	switch m {
	case state.ModeResumeFirst:
		return p.TargetResumeFirst
	case state.ModeApply:
		return p.TargetApply
	case state.ModeFollowUp:
		return p.TargetFollowUp
	default:
		return p.TargetBalanced
	}
}

// DailyConfig configures the daily planner.
type DailyConfig struct {
	MaxTasks            int  `yaml:"max_tasks"`             // daily task cap (default 5)
	TimeBudgetMinutes   int  `yaml:"time_budget_minutes"`   // default 180
	RequireHighPriority bool `yaml:"require_high_priority"` // default true
}

// StalenessConfig configures freshness grading.
type StalenessConfig struct {
	WarningAgeHours  int `yaml:"warning_age_hours"`  // default 72
	CriticalAgeHours int `yaml:"critical_age_hours"` // default 168
}

// ReplanConfig configures the replan evaluator.
type ReplanConfig struct {
	// DeviationThreshold triggers a mid-week replan when completion falls
	// below this fraction of the day-prorated expectation (default 0.25).
	DeviationThreshold float64 `yaml:"deviation_threshold"`

	// CooldownHours is the minimum gap between deviation replans (default 24).
	CooldownHours int `yaml:"cooldown_hours"`

	// EarlyCompletionPct marks a daily plan as able to absorb more work
	// (default 0.8).
	EarlyCompletionPct float64 `yaml:"early_completion_pct"`
}

// ExecutorConfig configures the action executor's retry state machine.
type ExecutorConfig struct {
	MaxAttempts        int `yaml:"max_attempts"`         // default 3
	RetryDelaySeconds  int `yaml:"retry_delay_seconds"`  // default 2
	TaskTimeoutSeconds int `yaml:"task_timeout_seconds"` // default 30

	// HaltPriority aborts the remaining batch when a task at or above this
	// priority fails (default 90).
	HaltPriority int `yaml:"halt_priority"`
}

// TaskTemplate is the per-kind title/description pair the generator fills.
type TaskTemplate struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// TasksConfig carries per-action-kind base durations and templates.
type TasksConfig struct {
	// Base durations in minutes.
	ResumeImproveMinutes int `yaml:"resume_improve_minutes"` // default 30
	ResumeBulletMinutes  int `yaml:"resume_bullet_minutes"`  // default 20
	ResumeSummaryMinutes int `yaml:"resume_summary_minutes"` // default 25
	ResumeSectionMinutes int `yaml:"resume_section_minutes"` // default 45
	ApplyMinutes         int `yaml:"apply_minutes"`          // default 45
	FollowUpMinutes      int `yaml:"follow_up_minutes"`      // default 10
	UpdateTargetsMinutes int `yaml:"update_targets_minutes"` // default 15
	CollectInfoMinutes   int `yaml:"collect_info_minutes"`   // default 20
	RefreshStateMinutes  int `yaml:"refresh_state_minutes"`  // default 5

	// MaxMinutes caps any single task estimate (default 120).
	MaxMinutes int `yaml:"max_minutes"`

	// Templates keyed by action kind (slash form, e.g. "/apply").
	// Missing entries fall back to the generator's built-ins.
	Templates map[string]TaskTemplate `yaml:"templates,omitempty"`
}

// BaseMinutes returns the base duration for an action kind.
func (t TasksConfig) BaseMinutes(kind plan.ActionKind) int {
	switch kind {
	case plan.ActionResumeImprove:
		return t.ResumeImproveMinutes
	case plan.ActionApply:
		return t.ApplyMinutes
	case plan.ActionFollowUp:
		return t.FollowUpMinutes
	case plan.ActionUpdateTargets:
		return t.UpdateTargetsMinutes
	case plan.ActionCollectInfo:
		return t.CollectInfoMinutes
	case plan.ActionRefreshState:
		return t.RefreshStateMinutes
	default:
		return t.CollectInfoMinutes
	}
}

// ResumeMinutes returns the base duration for a resume rewrite sub-kind.
func (t TasksConfig) ResumeMinutes(sub state.ResumeSubKind) int {
	switch sub {
	case state.ResumeSubKindBullet:
		return t.ResumeBulletMinutes
	case state.ResumeSubKindSummary:
		return t.ResumeSummaryMinutes
	case state.ResumeSubKindSection:
		return t.ResumeSectionMinutes
	default:
		return t.ResumeImproveMinutes
	}
}

// FocusPreset returns the mode's target focus distribution.
// Order: resume / applications / follow-ups / strategy.
func FocusPreset(m state.Mode) map[plan.FocusArea]float64 {
	switch m {
	case state.ModeResumeFirst:
		return map[plan.FocusArea]float64{
			plan.FocusResume: 0.55, plan.FocusApplications: 0.15,
			plan.FocusFollowUps: 0.10, plan.FocusStrategy: 0.20,
		}
	case state.ModeApply:
		return map[plan.FocusArea]float64{
			plan.FocusResume: 0.15, plan.FocusApplications: 0.55,
			plan.FocusFollowUps: 0.20, plan.FocusStrategy: 0.10,
		}
	case state.ModeFollowUp:
		return map[plan.FocusArea]float64{
			plan.FocusResume: 0.10, plan.FocusApplications: 0.25,
			plan.FocusFollowUps: 0.50, plan.FocusStrategy: 0.15,
		}
	default:
		return map[plan.FocusArea]float64{
			plan.FocusResume: 0.25, plan.FocusApplications: 0.30,
			plan.FocusFollowUps: 0.25, plan.FocusStrategy: 0.20,
		}
	}
}

// Default returns the shipped configuration profile.
func Default() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Weights: Weights{
				Impact:     0.30,
				Urgency:    0.25,
				Alignment:  0.20,
				Confidence: 0.10,
				TimeCost:   0.15,
			},
			ReferenceMinutes:      120,
			HighPriorityThreshold: 70,
		},
		Planning: PlanningConfig{
			MaxPoolSize:         50,
			MaxTasksPerDay:      5,
			TargetCap:           50,
			ApplyReadinessScore: 70,
			TargetResumeFirst:   Range{Min: 0, Max: 3},
			TargetApply:         Range{Min: 8, Max: 12},
			TargetFollowUp:      Range{Min: 2, Max: 5},
			TargetBalanced:      Range{Min: 4, Max: 8},
			FocusPresetBlend:    0.3,
		},
		Daily: DailyConfig{
			MaxTasks:            5,
			TimeBudgetMinutes:   180,
			RequireHighPriority: true,
		},
		Staleness: StalenessConfig{
			WarningAgeHours:  72,
			CriticalAgeHours: 168,
		},
		Replan: ReplanConfig{
			DeviationThreshold: 0.25,
			CooldownHours:      24,
			EarlyCompletionPct: 0.8,
		},
		Executor: ExecutorConfig{
			MaxAttempts:        3,
			RetryDelaySeconds:  2,
			TaskTimeoutSeconds: 30,
			HaltPriority:       90,
		},
		Tasks: TasksConfig{
			ResumeImproveMinutes: 30,
			ResumeBulletMinutes:  20,
			ResumeSummaryMinutes: 25,
			ResumeSectionMinutes: 45,
			ApplyMinutes:         45,
			FollowUpMinutes:      10,
			UpdateTargetsMinutes: 15,
			CollectInfoMinutes:   20,
			RefreshStateMinutes:  5,
			MaxMinutes:           120,
		},
	}
}

// Validate checks internal consistency of the configuration.
func (c *Config) Validate() error {
	if s := c.Scoring.Weights.Sum(); math.Abs(s-1.0) > 0.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.3f", s)
	}
	if c.Planning.MaxPoolSize <= 0 || c.Planning.MaxPoolSize > 50 {
		return fmt.Errorf("max_pool_size must be in (0,50], got %d", c.Planning.MaxPoolSize)
	}
	if c.Daily.MaxTasks <= 0 || c.Daily.MaxTasks > 5 {
		return fmt.Errorf("daily max_tasks must be in (0,5], got %d", c.Daily.MaxTasks)
	}
	if c.Daily.TimeBudgetMinutes <= 0 {
		return fmt.Errorf("daily time_budget_minutes must be positive, got %d", c.Daily.TimeBudgetMinutes)
	}
	if c.Executor.MaxAttempts <= 0 {
		return fmt.Errorf("executor max_attempts must be positive, got %d", c.Executor.MaxAttempts)
	}
	if c.Staleness.WarningAgeHours >= c.Staleness.CriticalAgeHours {
		return fmt.Errorf("staleness warning age (%dh) must be below critical age (%dh)",
			c.Staleness.WarningAgeHours, c.Staleness.CriticalAgeHours)
	}
	return nil
}
