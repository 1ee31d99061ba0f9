package executor

import (
	"context"
	"fmt"

	"careerpilot/internal/plan"
	"careerpilot/internal/planerr"
)

// resumeHandler rewrites the targeted resume piece and, when a scoring
// service is wired, applies the rewrite with before/after scoring.
func resumeHandler(rewrite RewriteService, scoring ScoringService) Handler {
	return func(ctx context.Context, userID string, t plan.Task) (string, error) {
		if rewrite == nil {
			return "", planerr.New(planerr.CodeCollaboratorUnavailable, true, "rewrite service not configured")
		}
		p, ok := t.Payload.(*plan.ResumeImprovePayload)
		if !ok {
			return "", planerr.New(planerr.CodeInvalidInput, false, "resume task %s carries no resume payload", t.ID)
		}

		res, err := rewrite.Rewrite(ctx, RewriteRequest{
			Kind:        p.SubKind,
			Section:     p.Section,
			BulletIndex: p.BulletIndex,
		})
		if err != nil {
			return "", fmt.Errorf("rewrite: %w", err)
		}
		if !res.Passed {
			return "", planerr.New(planerr.CodeExecutionFailed, true, "rewrite failed validation")
		}

		if scoring == nil {
			return fmt.Sprintf("Rewrote %s (estimated gain %.1f points)", p.Section, res.EstimatedGain), nil
		}
		score, err := scoring.ApplyRewriteWithScoring(ctx, res)
		if err != nil {
			return "", fmt.Errorf("apply rewrite: %w", err)
		}
		return fmt.Sprintf("Resume improved: %.0f -> %.0f (+%.1f)", score.OldScore, score.NewScore, score.ActualGain), nil
	}
}

// applyHandler looks up the posting and creates the application record.
func applyHandler(apps ApplicationService) Handler {
	return func(ctx context.Context, userID string, t plan.Task) (string, error) {
		if apps == nil {
			return "", planerr.New(planerr.CodeCollaboratorUnavailable, true, "application service not configured")
		}
		p, ok := t.Payload.(*plan.ApplyPayload)
		if !ok || p.JobID == "" {
			return "", planerr.New(planerr.CodeInvalidInput, false, "apply task %s carries no job id", t.ID)
		}

		posting, err := apps.GetJobPosting(ctx, p.JobID)
		if err != nil {
			return "", fmt.Errorf("get posting %s: %w", p.JobID, err)
		}
		appID, err := apps.CreateApplication(ctx, userID, posting.ID)
		if err != nil {
			return "", fmt.Errorf("create application for %s: %w", posting.ID, err)
		}
		return fmt.Sprintf("Applied to %s at %s (application %s)", posting.Role, posting.Company, appID), nil
	}
}

// followUpHandler records the follow-up against the application.
func followUpHandler(apps ApplicationService) Handler {
	return func(ctx context.Context, userID string, t plan.Task) (string, error) {
		if apps == nil {
			return "", planerr.New(planerr.CodeCollaboratorUnavailable, true, "application service not configured")
		}
		p, ok := t.Payload.(*plan.FollowUpPayload)
		if !ok || p.ApplicationID == "" {
			return "", planerr.New(planerr.CodeInvalidInput, false, "follow-up task %s carries no application id", t.ID)
		}

		note := fmt.Sprintf("Automated follow-up, %d days after applying.", p.DaysSinceApplication)
		if err := apps.RecordFollowUp(ctx, p.ApplicationID, note); err != nil {
			return "", fmt.Errorf("record follow-up %s: %w", p.ApplicationID, err)
		}
		return fmt.Sprintf("Follow-up recorded for %s", p.ApplicationID), nil
	}
}
