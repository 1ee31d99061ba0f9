// Package progress measures plan completion against elapsed time and
// decides when weekly and daily plans must be regenerated.
//
// Everything here is pure: snapshots and triggers are computed from the
// inputs and an explicit reference time, nothing else.
package progress

import (
	"fmt"
	"time"

	"careerpilot/internal/plan"
	"careerpilot/internal/state"
)

// Track builds a progress snapshot for any task list (weekly pool or daily
// slice). staleness comes from the latest state validation.
func Track(planID string, tasks []plan.Task, st *state.UserState, staleness state.StalenessSeverity, now time.Time) plan.ProgressSnapshot {
	snap := plan.ProgressSnapshot{
		PlanID:  planID,
		TakenAt: now,
		Counts:  make(map[plan.TaskStatus]int),
	}

	for _, t := range tasks {
		snap.Counts[t.Status]++
		switch t.Status {
		case plan.TaskCompleted, plan.TaskFailed:
			snap.MinutesSpent += t.EstimatedMinutes
		case plan.TaskPending, plan.TaskInProgress:
			snap.MinutesRemaining += t.EstimatedMinutes
		}
	}

	if len(tasks) > 0 {
		done := snap.Counts[plan.TaskCompleted] + snap.Counts[plan.TaskFailed] + snap.Counts[plan.TaskSkipped]
		snap.CompletionPct = float64(done) / float64(len(tasks))
	}

	snap.Blockers = detectBlockers(tasks, st, staleness)
	return snap
}

// detectBlockers finds what is holding pending work back.
func detectBlockers(tasks []plan.Task, st *state.UserState, staleness state.StalenessSeverity) []plan.Blocker {
	var blockers []plan.Blocker

	byID := make(map[string]plan.Task, len(tasks))
	var pendingIDs []string
	for _, t := range tasks {
		byID[t.ID] = t
		if !t.Status.Terminal() {
			pendingIDs = append(pendingIDs, t.ID)
		}
	}

	if staleness == state.StalenessCritical && len(pendingIDs) > 0 {
		blockers = append(blockers, plan.Blocker{
			Type:       plan.BlockerStaleState,
			TaskIDs:    pendingIDs,
			Resolution: "Refresh the state snapshot; every pending task is planned against untrustworthy data.",
		})
	}

	var depBlocked, failBlocked []string
	for _, t := range tasks {
		if t.Status.Terminal() {
			continue
		}
		for _, dep := range t.DependsOn {
			parent, ok := byID[dep]
			switch {
			case ok && parent.Status == plan.TaskFailed:
				failBlocked = append(failBlocked, t.ID)
			case !ok || parent.Status != plan.TaskCompleted:
				depBlocked = append(depBlocked, t.ID)
			}
		}
	}
	if len(depBlocked) > 0 {
		blockers = append(blockers, plan.Blocker{
			Type:       plan.BlockerDependency,
			TaskIDs:    depBlocked,
			Resolution: "Complete the prerequisite tasks first, or replan without the dependency.",
		})
	}
	if len(failBlocked) > 0 {
		blockers = append(blockers, plan.Blocker{
			Type:       plan.BlockerFailedTask,
			TaskIDs:    failBlocked,
			Resolution: "A prerequisite task failed; retry it manually or replan.",
		})
	}

	if st != nil && len(st.MissingFields) > 0 {
		var affected []string
		for _, t := range tasks {
			if t.Kind == plan.ActionCollectInfo && !t.Status.Terminal() {
				affected = append(affected, t.ID)
			}
		}
		blockers = append(blockers, plan.Blocker{
			Type:    plan.BlockerMissingData,
			TaskIDs: affected,
			Resolution: fmt.Sprintf("Provide the missing profile data (%d fields) so planning can use the full picture.",
				len(st.MissingFields)),
		})
	}
	return blockers
}
