// Package plan defines the planning shapes the engine produces: tasks,
// weekly and daily plans, progress snapshots, and replan triggers.
//
// These shapes cross the library boundary to the hosting layer and must
// round-trip losslessly through JSON. A WeeklyPlan is an immutable,
// version-stamped snapshot once generated; only the Status field of its
// contained tasks may change afterwards.
package plan

import (
	"time"

	"careerpilot/internal/state"
)

// ActionKind is the fixed set of concrete task categories.
type ActionKind string

const (
	ActionResumeImprove ActionKind = "/resume_improve" // Rewrite a bullet/summary/section
	ActionApply         ActionKind = "/apply"          // Apply to a specific job posting
	ActionFollowUp      ActionKind = "/follow_up"      // Follow up on a submitted application
	ActionUpdateTargets ActionKind = "/update_targets" // Adjust search targets/criteria
	ActionCollectInfo   ActionKind = "/collect_info"   // Fill missing profile/state data
	ActionRefreshState  ActionKind = "/refresh_state"  // Re-sync a stale state snapshot
)

// KnownActionKinds lists every kind in stable order.
var KnownActionKinds = []ActionKind{
	ActionResumeImprove,
	ActionApply,
	ActionFollowUp,
	ActionUpdateTargets,
	ActionCollectInfo,
	ActionRefreshState,
}

// TaskStatus represents the lifecycle status of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "/pending"
	TaskInProgress TaskStatus = "/in_progress"
	TaskCompleted  TaskStatus = "/completed"
	TaskFailed     TaskStatus = "/failed"
	TaskSkipped    TaskStatus = "/skipped"
)

// Terminal reports whether the status is an end state. Tasks are never
// deleted, only terminally marked.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskSkipped
}

// ExecutionMode says who performs a task.
type ExecutionMode string

const (
	ExecAutomatic     ExecutionMode = "/automatic"      // Engine dispatches to a collaborator
	ExecUserConfirmed ExecutionMode = "/user_confirmed" // Dispatched after user confirmation
	ExecUserOnly      ExecutionMode = "/user_only"      // User does it; engine only guides
)

// FocusArea is one of the four effort buckets the focus mix distributes over.
type FocusArea string

const (
	FocusResume       FocusArea = "/resume"
	FocusApplications FocusArea = "/applications"
	FocusFollowUps    FocusArea = "/follow_ups"
	FocusStrategy     FocusArea = "/strategy"
)

// FocusAreas lists the four areas in stable order.
var FocusAreas = []FocusArea{FocusResume, FocusApplications, FocusFollowUps, FocusStrategy}

// FocusOf maps an action kind to the focus area it serves.
func FocusOf(kind ActionKind) FocusArea {
	switch kind {
	case ActionResumeImprove:
		return FocusResume
	case ActionApply:
		return FocusApplications
	case ActionFollowUp:
		return FocusFollowUps
	default:
		return FocusStrategy
	}
}

// EvidencePointer cites the specific state fact that justified a task.
type EvidencePointer struct {
	Source string `json:"source"` // e.g. "resume.outstanding_issues[2]"
	Detail string `json:"detail"` // human-readable rendering of the fact
}

// PriorityBreakdown records the five sub-scores and accumulated penalties
// behind a task's priority. Kept for transparency; the integer Priority on
// the task is authoritative and is never re-derived from this.
type PriorityBreakdown struct {
	Impact     float64  `json:"impact"`
	Urgency    float64  `json:"urgency"`
	Alignment  float64  `json:"alignment"`
	Confidence float64  `json:"confidence"`
	TimeCost   float64  `json:"time_cost"`
	Penalties  float64  `json:"penalties"`
	Notes      []string `json:"notes,omitempty"`
}

// Task is a single unit of recommended work.
//
// Invariant: every Task returned from planning carries a non-empty WhyNow.
// A task without one is a contract violation, not a warning.
type Task struct {
	ID               string             `json:"id"`
	Kind             ActionKind         `json:"kind"`
	Title            string             `json:"title"`
	Description      string             `json:"description,omitempty"`
	Mode             ExecutionMode      `json:"mode"`
	Payload          Payload            `json:"-"` // marshalled by kind, see json.go
	Priority         int                `json:"priority"` // [0,100]
	Breakdown        *PriorityBreakdown `json:"breakdown,omitempty"`
	EstimatedMinutes int                `json:"estimated_minutes"`
	DueAt            *time.Time         `json:"due_at,omitempty"`
	DependsOn        []string           `json:"depends_on,omitempty"`
	WhyNow           string             `json:"why_now"`
	Evidence         []EvidencePointer  `json:"evidence,omitempty"`
	Status           TaskStatus         `json:"status"`
	CreatedAt        time.Time          `json:"created_at"`
}

// Clone returns a deep copy. Planners copy tasks out of the weekly pool so a
// daily slice never aliases its parent's slices.
func (t Task) Clone() Task {
	c := t
	if t.DueAt != nil {
		due := *t.DueAt
		c.DueAt = &due
	}
	if t.Breakdown != nil {
		b := *t.Breakdown
		b.Notes = append([]string(nil), t.Breakdown.Notes...)
		c.Breakdown = &b
	}
	c.DependsOn = append([]string(nil), t.DependsOn...)
	c.Evidence = append([]EvidencePointer(nil), t.Evidence...)
	return c
}

// WeeklyPlan is one planning cycle's task pool plus its targets.
type WeeklyPlan struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Version   int        `json:"version"` // bumped on replan, never mutated in place
	WeekStart time.Time  `json:"week_start"`
	WeekEnd   time.Time  `json:"week_end"`
	Mode      state.Mode `json:"mode"`

	// TargetApplications is bounded to [0,50]; forced to 0 on the safe path.
	TargetApplications int `json:"target_applications"`

	// FocusMix distributes intended effort over the four focus areas and
	// must sum to within 0.1 of 1.0.
	FocusMix map[FocusArea]float64 `json:"focus_mix"`

	Tasks []Task `json:"tasks"`

	// DayHints maps ISO dates (2006-01-02) to task IDs suggested for that day.
	DayHints map[string][]string `json:"day_hints,omitempty"`

	// Safe marks the minimal plan emitted under critical staleness.
	Safe bool `json:"safe,omitempty"`

	// Traceability.
	StateVersion    int64     `json:"state_version"`
	AnalysisVersion string    `json:"analysis_version"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// TaskByID returns a pointer into the plan's pool, or nil.
func (w *WeeklyPlan) TaskByID(id string) *Task {
	for i := range w.Tasks {
		if w.Tasks[i].ID == id {
			return &w.Tasks[i]
		}
	}
	return nil
}

// DailyPlan is a single day's slice of a weekly plan.
type DailyPlan struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Date              time.Time `json:"date"`
	Focus             FocusArea `json:"focus"`
	Tasks             []Task    `json:"tasks"` // at most 5
	TotalMinutes      int       `json:"total_minutes"`
	WeeklyPlanID      string    `json:"weekly_plan_id"`
	WeeklyPlanVersion int       `json:"weekly_plan_version"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// BlockerType classifies what is holding progress back.
type BlockerType string

const (
	BlockerDependency  BlockerType = "/dependency"
	BlockerStaleState  BlockerType = "/stale_state"
	BlockerMissingData BlockerType = "/missing_data"
	BlockerFailedTask  BlockerType = "/failed_task"
)

// Blocker names the affected tasks and a suggested resolution.
type Blocker struct {
	Type       BlockerType `json:"type"`
	TaskIDs    []string    `json:"task_ids,omitempty"`
	Resolution string      `json:"resolution"`
}

// ProgressSnapshot measures plan completion at a point in time.
type ProgressSnapshot struct {
	PlanID           string             `json:"plan_id"`
	TakenAt          time.Time          `json:"taken_at"`
	Counts           map[TaskStatus]int `json:"counts"`
	CompletionPct    float64            `json:"completion_pct"` // [0,1]
	MinutesSpent     int                `json:"minutes_spent"`
	MinutesRemaining int                `json:"minutes_remaining"`
	Blockers         []Blocker          `json:"blockers,omitempty"`
}

// TriggerType is the fixed vocabulary of replan reasons.
type TriggerType string

const (
	TriggerNone             TriggerType = "/none"
	TriggerModeChanged      TriggerType = "/strategy_mode_changed"
	TriggerPlanExpired      TriggerType = "/plan_expired"
	TriggerSevereDeviation  TriggerType = "/severe_deviation"
	TriggerNewDay           TriggerType = "/new_day"
	TriggerTaskFailed       TriggerType = "/task_failed"
	TriggerMajorMilestone   TriggerType = "/major_milestone"
	TriggerEarlyCompletion  TriggerType = "/early_completion"
)

// Urgency grades how soon a replan should run.
type Urgency string

const (
	UrgencyLow    Urgency = "/low"
	UrgencyMedium Urgency = "/medium"
	UrgencyHigh   Urgency = "/high"
)

// ReplanTrigger is the structured decision that a plan must be regenerated.
type ReplanTrigger struct {
	Needed      bool        `json:"needed"`
	Type        TriggerType `json:"type"`
	Reason      string      `json:"reason,omitempty"`
	Urgency     Urgency     `json:"urgency,omitempty"`
	PlanID      string      `json:"plan_id,omitempty"`
	PlanVersion int         `json:"plan_version,omitempty"`
}
