package scoring

import (
	"sort"

	"careerpilot/internal/logging"
	"careerpilot/internal/plan"
)

// Prioritize scores every task and returns a new slice in priority order.
// The input slice is not modified; returned tasks carry their score and
// breakdown.
//
// Ordering is fully deterministic. Ties break, in order, by:
//  1. closer due date first, absent due date last
//  2. higher impact sub-score
//  3. lower estimated duration
//  4. lexicographic task ID
//
// The chain makes Prioritize idempotent: re-applying it to its own output
// reproduces the same ordering.
func (s *Scorer) Prioritize(tasks []plan.Task, sc Context) []plan.Task {
	out := make([]plan.Task, len(tasks))
	for i, t := range tasks {
		c := t.Clone()
		res := s.Score(c, sc)
		c.Priority = res.Score
		b := res.Breakdown
		c.Breakdown = &b
		out[i] = c
	}

	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j])
	})

	logging.Scoring("prioritized %d tasks (mode=%s, staleness=%s)", len(out), sc.Mode, sc.Staleness)
	return out
}

// Less is the full comparator behind Prioritize, exported so the daily
// planner re-sorts merged selections with the identical chain.
func Less(a, b plan.Task) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}

	// Closer due date wins; a missing due date sorts last.
	switch {
	case a.DueAt != nil && b.DueAt == nil:
		return true
	case a.DueAt == nil && b.DueAt != nil:
		return false
	case a.DueAt != nil && b.DueAt != nil && !a.DueAt.Equal(*b.DueAt):
		return a.DueAt.Before(*b.DueAt)
	}

	ai, bi := impactOf(a), impactOf(b)
	if ai != bi {
		return ai > bi
	}
	if a.EstimatedMinutes != b.EstimatedMinutes {
		return a.EstimatedMinutes < b.EstimatedMinutes
	}
	return a.ID < b.ID
}

func impactOf(t plan.Task) float64 {
	if t.Breakdown == nil {
		return 0
	}
	return t.Breakdown.Impact
}
