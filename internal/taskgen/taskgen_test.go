package taskgen

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerpilot/internal/config"
	"careerpilot/internal/plan"
	"careerpilot/internal/state"
)

var genNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testGenerator() *Generator {
	n := 0
	return New(config.Default()).WithIDFunc(func() string {
		n++
		return fmt.Sprintf("task-%03d", n)
	})
}

func genState() *state.UserState {
	return &state.UserState{
		UserID:     "u-1",
		Version:    7,
		SnapshotAt: genNow.Add(-time.Hour),
		Resume: state.ResumeState{
			Score: 62,
			OutstandingIssues: []state.ResumeIssue{
				{Section: "experience", BulletIndex: 1, Severity: 4, Summary: "vague impact"},
			},
		},
		Pipeline: state.PipelineState{InterviewRate: 0.05},
	}
}

func TestFromBlueprintEveryKnownType(t *testing.T) {
	g := testGenerator()
	st := genState()

	cases := []struct {
		bp   state.Blueprint
		kind plan.ActionKind
	}{
		{state.Blueprint{Type: state.BlueprintResumeRewrite, ResumeSubKind: state.ResumeSubKindBullet, Section: "experience", BulletIndex: 1, EstimatedGain: 5}, plan.ActionResumeImprove},
		{state.Blueprint{Type: state.BlueprintApplyToJob, JobID: "j-1", MatchScore: 88, Section: "Acme"}, plan.ActionApply},
		{state.Blueprint{Type: state.BlueprintFollowUp, ApplicationID: "app-1"}, plan.ActionFollowUp},
		{state.Blueprint{Type: state.BlueprintAdjustTargets, Rationale: "low interview rate"}, plan.ActionUpdateTargets},
		{state.Blueprint{Type: state.BlueprintCollectInfo, MissingFields: []string{"salary_target"}}, plan.ActionCollectInfo},
		{state.Blueprint{Type: state.BlueprintRefreshState, Rationale: "snapshot old"}, plan.ActionRefreshState},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			task := g.FromBlueprint(tc.bp, st, genNow)
			assert.Equal(t, tc.kind, task.Kind)
			assert.NotEmpty(t, task.ID)
			assert.NotEmpty(t, task.Title)
			assert.NotEmpty(t, task.WhyNow, "every generated task must explain itself")
			assert.NotEmpty(t, task.Evidence, "every generated task cites its evidence")
			assert.Equal(t, plan.TaskPending, task.Status)
			assert.Greater(t, task.EstimatedMinutes, 0)
			if task.Payload != nil {
				assert.Equal(t, tc.kind, task.Payload.PayloadKind())
			}
		})
	}
}

func TestFromBlueprintUnknownTypeDegrades(t *testing.T) {
	g := testGenerator()
	task := g.FromBlueprint(state.Blueprint{Type: "/mystery", Rationale: "r"}, genState(), genNow)

	require.Equal(t, plan.ActionCollectInfo, task.Kind)
	require.NotEmpty(t, task.WhyNow)
}

func TestResumeTaskPicksWorstMatchingIssue(t *testing.T) {
	g := testGenerator()
	st := genState()
	st.Resume.OutstandingIssues = append(st.Resume.OutstandingIssues,
		state.ResumeIssue{Section: "experience", BulletIndex: 1, Severity: 2, Summary: "minor"})

	task := g.FromBlueprint(state.Blueprint{
		Type: state.BlueprintResumeRewrite, ResumeSubKind: state.ResumeSubKindBullet,
		Section: "experience", BulletIndex: 1, EstimatedGain: 5,
	}, st, genNow)

	p, ok := task.Payload.(*plan.ResumeImprovePayload)
	require.True(t, ok)
	assert.Equal(t, 4, p.IssueSeverity)
	assert.Equal(t, 5.0, p.EstimatedGain)
}

func TestFollowUpDueDates(t *testing.T) {
	g := testGenerator()

	t.Run("past the window opens due immediately", func(t *testing.T) {
		f := state.FollowUp{ApplicationID: "a", Company: "Acme", AppliedAt: genNow.AddDate(0, 0, -9)}
		task := g.FromFollowUp(f, genNow)
		require.NotNil(t, task.DueAt)
		assert.True(t, task.DueAt.Equal(genNow))
		assert.Contains(t, task.WhyNow, "7-14")
	})

	t.Run("fresh application is due at day seven", func(t *testing.T) {
		applied := genNow.AddDate(0, 0, -2)
		f := state.FollowUp{ApplicationID: "a", Company: "Acme", AppliedAt: applied}
		task := g.FromFollowUp(f, genNow)
		require.NotNil(t, task.DueAt)
		assert.True(t, task.DueAt.Equal(applied.AddDate(0, 0, 7)))
	})
}

func TestCollectInfoScalesWithMissingFields(t *testing.T) {
	g := testGenerator()

	one := g.FromBlueprint(state.Blueprint{Type: state.BlueprintCollectInfo, MissingFields: []string{"a"}}, genState(), genNow)
	three := g.FromBlueprint(state.Blueprint{Type: state.BlueprintCollectInfo, MissingFields: []string{"a", "b", "c"}}, genState(), genNow)

	assert.Greater(t, three.EstimatedMinutes, one.EstimatedMinutes)
}

func TestEstimatesRespectCap(t *testing.T) {
	cfg := config.Default()
	cfg.Tasks.MaxMinutes = 20
	g := New(cfg).WithIDFunc(func() string { return "x" })

	for _, bp := range []state.Blueprint{
		{Type: state.BlueprintResumeRewrite, ResumeSubKind: state.ResumeSubKindSection, Section: "experience"},
		{Type: state.BlueprintApplyToJob, JobID: "j"},
		{Type: state.BlueprintCollectInfo, MissingFields: []string{"a", "b", "c", "d", "e"}},
	} {
		task := g.FromBlueprint(bp, genState(), genNow)
		assert.LessOrEqual(t, task.EstimatedMinutes, 20, "kind %s", task.Kind)
	}
}

func TestFromPriorityActionKeywordInference(t *testing.T) {
	g := testGenerator()
	st := genState()

	cases := map[string]plan.ActionKind{
		"Rewrite your resume summary":          plan.ActionResumeImprove,
		"Apply to 5 more roles this week":      plan.ActionApply,
		"Reach out and follow up with Initech": plan.ActionFollowUp,
		"Think about your career direction":    plan.ActionCollectInfo,
	}

	for action, want := range cases {
		task := g.FromPriorityAction(action, st, genNow)
		assert.Equal(t, want, task.Kind, "action %q", action)
		assert.NotEmpty(t, task.WhyNow)
		require.NotNil(t, task.Payload)
	}
}

func TestRefreshTaskCarriesSeverity(t *testing.T) {
	g := testGenerator()
	task := g.RefreshTask(state.StalenessCritical, "", genNow)

	p, ok := task.Payload.(*plan.RefreshStatePayload)
	require.True(t, ok)
	assert.Equal(t, state.StalenessCritical, p.Severity)
	assert.Equal(t, plan.ExecAutomatic, task.Mode)
	assert.NotEmpty(t, task.WhyNow)
}
