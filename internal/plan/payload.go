package plan

import "careerpilot/internal/state"

// Payload is the kind-specific body of a task. Each action kind has exactly
// one payload type; the task's Kind field selects which concrete type the
// JSON payload decodes into.
type Payload interface {
	PayloadKind() ActionKind
}

// ResumeImprovePayload targets one piece of the resume.
type ResumeImprovePayload struct {
	SubKind       state.ResumeSubKind `json:"sub_kind"`
	Section       string              `json:"section,omitempty"`
	BulletIndex   int                 `json:"bullet_index,omitempty"`
	EstimatedGain float64             `json:"estimated_gain,omitempty"` // resume score points
	IssueSeverity int                 `json:"issue_severity,omitempty"` // 1..5 from the analyzer
}

func (ResumeImprovePayload) PayloadKind() ActionKind { return ActionResumeImprove }

// ApplyPayload identifies the job posting to apply to.
type ApplyPayload struct {
	JobID      string  `json:"job_id"`
	Company    string  `json:"company,omitempty"`
	Role       string  `json:"role,omitempty"`
	MatchScore float64 `json:"match_score"` // [0,100]
}

func (ApplyPayload) PayloadKind() ActionKind { return ActionApply }

// FollowUpPayload identifies the application to follow up on.
type FollowUpPayload struct {
	ApplicationID        string `json:"application_id"`
	Company              string `json:"company,omitempty"`
	DaysSinceApplication int    `json:"days_since_application"`
}

func (FollowUpPayload) PayloadKind() ActionKind { return ActionFollowUp }

// UpdateTargetsPayload describes the suggested target adjustment.
type UpdateTargetsPayload struct {
	Suggestion string `json:"suggestion"`
}

func (UpdateTargetsPayload) PayloadKind() ActionKind { return ActionUpdateTargets }

// CollectInfoPayload lists the state fields that need filling.
type CollectInfoPayload struct {
	MissingFields []string `json:"missing_fields"`
}

func (CollectInfoPayload) PayloadKind() ActionKind { return ActionCollectInfo }

// RefreshStatePayload explains why a re-sync is needed.
type RefreshStatePayload struct {
	Reason   string                  `json:"reason"`
	Severity state.StalenessSeverity `json:"severity"`
}

func (RefreshStatePayload) PayloadKind() ActionKind { return ActionRefreshState }

// emptyPayload returns the zero payload for a kind, for JSON decoding.
func emptyPayload(kind ActionKind) Payload {
	switch kind {
	case ActionResumeImprove:
		return &ResumeImprovePayload{}
	case ActionApply:
		return &ApplyPayload{}
	case ActionFollowUp:
		return &FollowUpPayload{}
	case ActionUpdateTargets:
		return &UpdateTargetsPayload{}
	case ActionCollectInfo:
		return &CollectInfoPayload{}
	case ActionRefreshState:
		return &RefreshStatePayload{}
	default:
		return nil
	}
}
