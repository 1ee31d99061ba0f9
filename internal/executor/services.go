// Package executor dispatches automatically-executable tasks to collaborator
// services with bounded retries and graceful fallback.
//
// The engine boundary is in-process: collaborators are interfaces supplied
// by the hosting layer, never network clients owned here.
package executor

import (
	"context"

	"careerpilot/internal/state"
)

// RewriteRequest asks the rewrite collaborator to improve one resume piece.
type RewriteRequest struct {
	Kind        state.ResumeSubKind `json:"kind"`
	Section     string              `json:"section,omitempty"`
	BulletIndex int                 `json:"bullet_index,omitempty"`
}

// RewriteResult is the collaborator's improved text with its evidence.
type RewriteResult struct {
	ImprovedText  string            `json:"improved_text"`
	Evidence      map[string]string `json:"evidence,omitempty"`
	Passed        bool              `json:"passed"`
	EstimatedGain float64           `json:"estimated_gain"`
}

// RewriteService rewrites resume content. Owned by the hosting layer.
type RewriteService interface {
	Rewrite(ctx context.Context, req RewriteRequest) (RewriteResult, error)
}

// ScoreResult reports the before/after resume scores of an applied rewrite.
type ScoreResult struct {
	OldScore   float64 `json:"old_score"`
	NewScore   float64 `json:"new_score"`
	ActualGain float64 `json:"actual_gain"`
}

// ScoringService applies a rewrite and re-scores the resume.
type ScoringService interface {
	ApplyRewriteWithScoring(ctx context.Context, res RewriteResult) (ScoreResult, error)
}

// JobPosting is the minimal posting shape the executor needs.
type JobPosting struct {
	ID      string `json:"id"`
	Company string `json:"company"`
	Role    string `json:"role"`
}

// ApplicationService owns job postings, applications, and follow-up records.
type ApplicationService interface {
	GetJobPosting(ctx context.Context, id string) (JobPosting, error)
	CreateApplication(ctx context.Context, userID, jobID string) (string, error)
	RecordFollowUp(ctx context.Context, applicationID, note string) error
}

// Event is a fire-and-forget audit record.
type Event struct {
	UserID  string            `json:"user_id"`
	Type    string            `json:"type"`
	Context map[string]string `json:"context,omitempty"`
}

// EventLog records engine events. Failures are ignored by callers; logging
// must never abort planning or execution.
type EventLog interface {
	LogEvent(ctx context.Context, ev Event) error
}
