// Package taskgen turns abstract strategy blueprints and derived events
// (pending follow-ups, staleness findings) into fully-populated tasks.
//
// Every task leaving this package carries a non-empty WhyNow and at least
// one evidence pointer naming the state fact that justified it.
package taskgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"careerpilot/internal/config"
	"careerpilot/internal/logging"
	"careerpilot/internal/plan"
	"careerpilot/internal/state"
)

// Generator builds concrete tasks from abstract inputs.
type Generator struct {
	cfg *config.Config

	// newID is injectable so tests get stable task IDs.
	newID func() string
}

// New creates a generator over a configuration snapshot.
func New(cfg *config.Config) *Generator {
	return &Generator{
		cfg:   cfg,
		newID: func() string { return uuid.NewString() },
	}
}

// WithIDFunc overrides task ID generation. Used by tests.
func (g *Generator) WithIDFunc(fn func() string) *Generator {
	g.newID = fn
	return g
}

// builtinTemplates are the per-kind title/description defaults. The config
// store may override any entry.
var builtinTemplates = map[plan.ActionKind]config.TaskTemplate{
	plan.ActionResumeImprove: {
		Title:       "Improve resume %s",
		Description: "Rewrite the %s to address the flagged issue and lift your resume score.",
	},
	plan.ActionApply: {
		Title:       "Apply to %s",
		Description: "Submit an application for %s. Tailor the resume to the posting first.",
	},
	plan.ActionFollowUp: {
		Title:       "Follow up with %s",
		Description: "Send a follow-up note on your application to %s.",
	},
	plan.ActionUpdateTargets: {
		Title:       "Review search targets",
		Description: "Adjust role, level, or location targets to match what the pipeline shows.",
	},
	plan.ActionCollectInfo: {
		Title:       "Fill in missing profile data",
		Description: "Provide the missing information so planning can use your full profile.",
	},
	plan.ActionRefreshState: {
		Title:       "Refresh your data",
		Description: "Re-sync your pipeline and resume data; the current snapshot is out of date.",
	},
}

func (g *Generator) template(kind plan.ActionKind) config.TaskTemplate {
	if t, ok := g.cfg.Tasks.Templates[string(kind)]; ok {
		return t
	}
	return builtinTemplates[kind]
}

// FromBlueprint maps an abstract recommendation to a concrete task.
// Unknown blueprint types degrade to the collect-info category rather than
// failing plan generation.
func (g *Generator) FromBlueprint(bp state.Blueprint, st *state.UserState, now time.Time) plan.Task {
	switch bp.Type {
	case state.BlueprintResumeRewrite:
		return g.resumeTask(bp, st, now)
	case state.BlueprintApplyToJob:
		return g.applyTask(bp, now)
	case state.BlueprintFollowUp:
		return g.followUpFromBlueprint(bp, st, now)
	case state.BlueprintAdjustTargets:
		return g.updateTargetsTask(bp, st, now)
	case state.BlueprintCollectInfo:
		return g.collectInfoTask(bp.MissingFields, bp.Rationale, now)
	case state.BlueprintRefreshState:
		return g.RefreshTask(state.StalenessWarning, bp.Rationale, now)
	default:
		logging.Get(logging.CategoryTaskGen).Warn("unknown blueprint type %q, degrading to collect-info", bp.Type)
		return g.collectInfoTask(nil, bp.Rationale, now)
	}
}

func (g *Generator) resumeTask(bp state.Blueprint, st *state.UserState, now time.Time) plan.Task {
	sub := bp.ResumeSubKind
	if sub == "" {
		sub = state.ResumeSubKindSection
	}
	target := describeResumeTarget(sub, bp.Section, bp.BulletIndex)

	severity := 0
	for _, issue := range st.Resume.OutstandingIssues {
		if issue.Section == bp.Section && (sub != state.ResumeSubKindBullet || issue.BulletIndex == bp.BulletIndex) {
			if issue.Severity > severity {
				severity = issue.Severity
			}
		}
	}

	tmpl := g.template(plan.ActionResumeImprove)
	why := bp.Rationale
	if why == "" {
		why = fmt.Sprintf("Your resume scores %.0f and the %s is holding it back.", st.Resume.Score, target)
	}

	evidence := []plan.EvidencePointer{
		{Source: "resume.score", Detail: fmt.Sprintf("current resume score %.0f", st.Resume.Score)},
		{Source: "resume." + string(sub)[1:], Detail: target},
	}
	if severity > 0 {
		evidence = append(evidence, plan.EvidencePointer{
			Source: "resume.outstanding_issues",
			Detail: fmt.Sprintf("issue severity %d on %s", severity, target),
		})
	}

	return plan.Task{
		ID:          g.newID(),
		Kind:        plan.ActionResumeImprove,
		Title:       fmt.Sprintf(tmpl.Title, target),
		Description: fmt.Sprintf(tmpl.Description, target),
		Mode:        plan.ExecUserConfirmed,
		Payload: &plan.ResumeImprovePayload{
			SubKind:       sub,
			Section:       bp.Section,
			BulletIndex:   bp.BulletIndex,
			EstimatedGain: bp.EstimatedGain,
			IssueSeverity: severity,
		},
		EstimatedMinutes: capMinutes(g.cfg.Tasks.ResumeMinutes(sub), g.cfg.Tasks.MaxMinutes),
		WhyNow:           why,
		Evidence:         evidence,
		Status:           plan.TaskPending,
		CreatedAt:        now,
	}
}

func (g *Generator) applyTask(bp state.Blueprint, now time.Time) plan.Task {
	company := bp.Section // strategy reuses the section slot for the company label
	if company == "" {
		company = "the matched posting"
	}
	tmpl := g.template(plan.ActionApply)
	why := bp.Rationale
	if why == "" {
		why = fmt.Sprintf("Job %s matches your profile at %.0f%% and your weekly target has room.", bp.JobID, bp.MatchScore)
	}
	due := now.AddDate(0, 0, 3)
	return plan.Task{
		ID:          g.newID(),
		Kind:        plan.ActionApply,
		Title:       fmt.Sprintf(tmpl.Title, company),
		Description: fmt.Sprintf(tmpl.Description, company),
		Mode:        plan.ExecUserConfirmed,
		Payload: &plan.ApplyPayload{
			JobID:      bp.JobID,
			Company:    company,
			MatchScore: bp.MatchScore,
		},
		EstimatedMinutes: capMinutes(g.cfg.Tasks.BaseMinutes(plan.ActionApply), g.cfg.Tasks.MaxMinutes),
		DueAt:            &due,
		WhyNow:           why,
		Evidence: []plan.EvidencePointer{
			{Source: "analysis.blueprints", Detail: fmt.Sprintf("job %s match score %.0f", bp.JobID, bp.MatchScore)},
		},
		Status:    plan.TaskPending,
		CreatedAt: now,
	}
}

func (g *Generator) followUpFromBlueprint(bp state.Blueprint, st *state.UserState, now time.Time) plan.Task {
	for _, f := range st.PendingFollowUps {
		if f.ApplicationID == bp.ApplicationID {
			return g.FromFollowUp(f, now)
		}
	}
	// Blueprint references an application the snapshot no longer carries;
	// still produce a task so the recommendation is not silently dropped.
	f := state.FollowUp{ApplicationID: bp.ApplicationID, Company: "this application", AppliedAt: now.AddDate(0, 0, -7)}
	t := g.FromFollowUp(f, now)
	if bp.Rationale != "" {
		t.WhyNow = bp.Rationale
	}
	return t
}

// FromFollowUp builds a follow-up task for a pending application.
func (g *Generator) FromFollowUp(f state.FollowUp, now time.Time) plan.Task {
	days := f.DaysSinceApplication(now)
	company := f.Company
	if company == "" {
		company = f.ApplicationID
	}

	why := fmt.Sprintf("It has been %d days since you applied to %s; a nudge now keeps you visible.", days, company)
	if days >= 7 && days <= 14 {
		why = fmt.Sprintf("You applied to %s %d days ago — the 7-14 day window is the best time to follow up.", company, days)
	}

	var due time.Time
	if days >= 7 {
		due = now
	} else {
		due = f.AppliedAt.AddDate(0, 0, 7)
	}

	tmpl := g.template(plan.ActionFollowUp)
	return plan.Task{
		ID:          g.newID(),
		Kind:        plan.ActionFollowUp,
		Title:       fmt.Sprintf(tmpl.Title, company),
		Description: fmt.Sprintf(tmpl.Description, company),
		Mode:        plan.ExecAutomatic,
		Payload: &plan.FollowUpPayload{
			ApplicationID:        f.ApplicationID,
			Company:              f.Company,
			DaysSinceApplication: days,
		},
		EstimatedMinutes: capMinutes(g.cfg.Tasks.BaseMinutes(plan.ActionFollowUp), g.cfg.Tasks.MaxMinutes),
		DueAt:            &due,
		WhyNow:           why,
		Evidence: []plan.EvidencePointer{
			{Source: "pending_follow_ups", Detail: fmt.Sprintf("applied to %s on %s (%d days ago)", company, f.AppliedAt.Format("2006-01-02"), days)},
		},
		Status:    plan.TaskPending,
		CreatedAt: now,
	}
}

func (g *Generator) updateTargetsTask(bp state.Blueprint, st *state.UserState, now time.Time) plan.Task {
	tmpl := g.template(plan.ActionUpdateTargets)
	why := bp.Rationale
	if why == "" {
		why = fmt.Sprintf("Your interview rate is %.0f%%; adjusting targets may surface better-fitting roles.",
			st.Pipeline.InterviewRate*100)
	}
	return plan.Task{
		ID:          g.newID(),
		Kind:        plan.ActionUpdateTargets,
		Title:       tmpl.Title,
		Description: tmpl.Description,
		Mode:        plan.ExecUserOnly,
		Payload:     &plan.UpdateTargetsPayload{Suggestion: bp.Rationale},
		EstimatedMinutes: capMinutes(g.cfg.Tasks.BaseMinutes(plan.ActionUpdateTargets), g.cfg.Tasks.MaxMinutes),
		WhyNow:           why,
		Evidence: []plan.EvidencePointer{
			{Source: "pipeline.interview_rate", Detail: fmt.Sprintf("interview rate %.1f%%", st.Pipeline.InterviewRate*100)},
		},
		Status:    plan.TaskPending,
		CreatedAt: now,
	}
}

func (g *Generator) collectInfoTask(missing []string, rationale string, now time.Time) plan.Task {
	tmpl := g.template(plan.ActionCollectInfo)
	why := rationale
	if why == "" {
		if len(missing) > 0 {
			why = fmt.Sprintf("Planning is running without %s; filling these in improves every recommendation.",
				strings.Join(missing, ", "))
		} else {
			why = "Parts of your profile are incomplete; filling them in improves every recommendation."
		}
	}
	// Scale with how much is missing, capped like everything else.
	base := g.cfg.Tasks.BaseMinutes(plan.ActionCollectInfo)
	est := base
	if n := len(missing); n > 1 {
		est = base + (n-1)*base/2
	}
	return plan.Task{
		ID:               g.newID(),
		Kind:             plan.ActionCollectInfo,
		Title:            tmpl.Title,
		Description:      tmpl.Description,
		Mode:             plan.ExecUserOnly,
		Payload:          &plan.CollectInfoPayload{MissingFields: missing},
		EstimatedMinutes: capMinutes(est, g.cfg.Tasks.MaxMinutes),
		WhyNow:           why,
		Evidence: []plan.EvidencePointer{
			{Source: "missing_fields", Detail: fmt.Sprintf("%d fields missing", len(missing))},
		},
		Status:    plan.TaskPending,
		CreatedAt: now,
	}
}

// RefreshTask builds the re-sync task injected under stale state.
func (g *Generator) RefreshTask(severity state.StalenessSeverity, reason string, now time.Time) plan.Task {
	tmpl := g.template(plan.ActionRefreshState)
	why := reason
	if why == "" {
		why = "Your data snapshot is out of date; refresh it so plans reflect reality."
	}
	return plan.Task{
		ID:               g.newID(),
		Kind:             plan.ActionRefreshState,
		Title:            tmpl.Title,
		Description:      tmpl.Description,
		Mode:             plan.ExecAutomatic,
		Payload:          &plan.RefreshStatePayload{Reason: why, Severity: severity},
		EstimatedMinutes: capMinutes(g.cfg.Tasks.BaseMinutes(plan.ActionRefreshState), g.cfg.Tasks.MaxMinutes),
		WhyNow:           why,
		Evidence: []plan.EvidencePointer{
			{Source: "freshness", Detail: fmt.Sprintf("staleness severity %s", severity)},
		},
		Status:    plan.TaskPending,
		CreatedAt: now,
	}
}

// FromPriorityAction synthesizes a minimal task from a plain-text priority
// action, inferring the kind by keyword. Used by the weekly planner's
// fallback path when strategy supplied no blueprints.
func (g *Generator) FromPriorityAction(action string, st *state.UserState, now time.Time) plan.Task {
	kind := inferKind(action)
	t := plan.Task{
		ID:               g.newID(),
		Kind:             kind,
		Title:            action,
		Mode:             plan.ExecUserOnly,
		EstimatedMinutes: capMinutes(g.cfg.Tasks.BaseMinutes(kind), g.cfg.Tasks.MaxMinutes),
		WhyNow:           fmt.Sprintf("Strategy flagged this as a priority: %s", action),
		Evidence: []plan.EvidencePointer{
			{Source: "analysis.priority_actions", Detail: action},
		},
		Status:    plan.TaskPending,
		CreatedAt: now,
	}
	switch kind {
	case plan.ActionResumeImprove:
		t.Payload = &plan.ResumeImprovePayload{SubKind: state.ResumeSubKindSection}
	case plan.ActionApply:
		t.Payload = &plan.ApplyPayload{}
	case plan.ActionFollowUp:
		t.Payload = &plan.FollowUpPayload{DaysSinceApplication: 7}
	default:
		t.Kind = plan.ActionCollectInfo
		t.Payload = &plan.CollectInfoPayload{}
	}
	return t
}

func inferKind(action string) plan.ActionKind {
	lower := strings.ToLower(action)
	switch {
	case strings.Contains(lower, "resume"):
		return plan.ActionResumeImprove
	case strings.Contains(lower, "apply") || strings.Contains(lower, "application"):
		return plan.ActionApply
	case strings.Contains(lower, "follow"):
		return plan.ActionFollowUp
	default:
		return plan.ActionCollectInfo
	}
}

func describeResumeTarget(sub state.ResumeSubKind, section string, bullet int) string {
	switch sub {
	case state.ResumeSubKindBullet:
		return fmt.Sprintf("bullet %d in %s", bullet, section)
	case state.ResumeSubKindSummary:
		return "summary"
	default:
		if section != "" {
			return fmt.Sprintf("%s section", section)
		}
		return "weakest section"
	}
}

func capMinutes(v, max int) int {
	if max <= 0 {
		max = 120
	}
	if v > max {
		return max
	}
	if v <= 0 {
		return 5
	}
	return v
}
