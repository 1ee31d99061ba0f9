// Package state defines the external input snapshots the planning engine
// consumes: the UserState snapshot owned by the persistence layer and the
// StrategyAnalysis produced by the strategy component.
//
// Everything in this package is plain data. The engine treats a snapshot as
// immutable for the duration of a planning call; the caller owns its lifetime.
package state

import "time"

// Mode represents the user's active strategic phase.
type Mode string

const (
	ModeResumeFirst Mode = "/resume_first" // Fix the resume before applying
	ModeApply       Mode = "/apply"        // Volume application phase
	ModeFollowUp    Mode = "/follow_up"    // Work the existing pipeline
	ModeBalanced    Mode = "/balanced"     // Mixed effort across all areas
)

// KnownModes lists every mode the engine understands, in stable order.
var KnownModes = []Mode{ModeResumeFirst, ModeApply, ModeFollowUp, ModeBalanced}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	for _, k := range KnownModes {
		if m == k {
			return true
		}
	}
	return false
}

// StalenessSeverity grades how outdated or untrustworthy a snapshot is.
type StalenessSeverity string

const (
	StalenessNone     StalenessSeverity = "/none"
	StalenessWarning  StalenessSeverity = "/warning"
	StalenessCritical StalenessSeverity = "/critical"
)

// PipelineState carries the application-pipeline counters.
type PipelineState struct {
	ApplicationsTotal     int     `json:"applications_total"`
	ApplicationsThisMonth int     `json:"applications_this_month"`
	ApplicationsThisWeek  int     `json:"applications_this_week"`
	WeeklyTargetOverride  int     `json:"weekly_target_override,omitempty"` // 0 = no override
	InterviewRate         float64 `json:"interview_rate"`                   // [0,1]
	ResponseRate          float64 `json:"response_rate"`                    // [0,1]
	InterviewsTotal       int     `json:"interviews_total"`
	OffersTotal           int     `json:"offers_total"`
}

// ResumeIssue is an outstanding problem the resume analyzer flagged.
type ResumeIssue struct {
	Section     string `json:"section"`
	BulletIndex int    `json:"bullet_index,omitempty"`
	Severity    int    `json:"severity"` // 1 (cosmetic) .. 5 (blocking)
	Summary     string `json:"summary"`
}

// ResumeState summarizes the current resume as scored by the collaborator.
type ResumeState struct {
	Score             float64       `json:"score"` // [0,100]
	BulletCount       int           `json:"bullet_count"`
	OutstandingIssues []ResumeIssue `json:"outstanding_issues,omitempty"`
	LastRewriteAt     time.Time     `json:"last_rewrite_at,omitzero"`
}

// Freshness carries the snapshot's trust and age signals.
type Freshness struct {
	Stale       bool      `json:"stale"`       // explicit flag from the owner
	Untrusted   bool      `json:"untrusted"`   // owner marked the data unreliable
	LastUpdated time.Time `json:"last_updated"`
}

// FollowUp is a pending follow-up on a submitted application.
type FollowUp struct {
	ApplicationID string    `json:"application_id"`
	Company       string    `json:"company"`
	Role          string    `json:"role,omitempty"`
	AppliedAt     time.Time `json:"applied_at"`
	LastContactAt time.Time `json:"last_contact_at,omitzero"`
}

// DaysSinceApplication returns whole days between AppliedAt and now.
func (f FollowUp) DaysSinceApplication(now time.Time) int {
	d := int(now.Sub(f.AppliedAt).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// UserState is the point-in-time snapshot planning runs against.
// Version increases monotonically with every upstream mutation.
type UserState struct {
	UserID           string        `json:"user_id"`
	Version          int64         `json:"version"`
	SnapshotAt       time.Time     `json:"snapshot_at"`
	Pipeline         PipelineState `json:"pipeline"`
	Resume           ResumeState   `json:"resume"`
	Freshness        Freshness     `json:"freshness"`
	PendingFollowUps []FollowUp    `json:"pending_follow_ups,omitempty"`
	MissingFields    []string      `json:"missing_fields,omitempty"` // profile gaps the collector should fill
}

// BlueprintType is the abstract recommendation category emitted by strategy.
type BlueprintType string

const (
	BlueprintResumeRewrite   BlueprintType = "/resume_rewrite"
	BlueprintApplyToJob      BlueprintType = "/apply_to_job"
	BlueprintFollowUp        BlueprintType = "/follow_up"
	BlueprintAdjustTargets   BlueprintType = "/adjust_targets"
	BlueprintCollectInfo     BlueprintType = "/collect_info"
	BlueprintRefreshState    BlueprintType = "/refresh_state"
)

// ResumeSubKind narrows a resume rewrite blueprint to what it touches.
type ResumeSubKind string

const (
	ResumeSubKindBullet  ResumeSubKind = "/bullet"
	ResumeSubKindSummary ResumeSubKind = "/summary"
	ResumeSubKindSection ResumeSubKind = "/section"
)

// Blueprint is one abstract action recommendation, not yet a concrete task.
type Blueprint struct {
	Type          BlueprintType `json:"type"`
	Rationale     string        `json:"rationale"`
	Confidence    float64       `json:"confidence"`    // [0,1]
	PriorityHint  int           `json:"priority_hint"` // 1..10
	ResumeSubKind ResumeSubKind `json:"resume_sub_kind,omitempty"`
	Section       string        `json:"section,omitempty"`
	BulletIndex   int           `json:"bullet_index,omitempty"`
	EstimatedGain float64       `json:"estimated_gain,omitempty"` // resume score points
	JobID         string        `json:"job_id,omitempty"`
	MatchScore    float64       `json:"match_score,omitempty"` // [0,100]
	ApplicationID string        `json:"application_id,omitempty"`
	MissingFields []string      `json:"missing_fields,omitempty"`
}

// StrategyAnalysis is the strategy component's recommendation bundle.
type StrategyAnalysis struct {
	AnalysisVersion string      `json:"analysis_version"`
	RecommendedMode Mode        `json:"recommended_mode"`
	GapSummary      string      `json:"gap_summary,omitempty"`
	Blueprints      []Blueprint `json:"blueprints,omitempty"`
	// PriorityActions is the plain-text fallback used when no blueprints
	// were produced.
	PriorityActions []string  `json:"priority_actions,omitempty"`
	GeneratedAt     time.Time `json:"generated_at"`
}
