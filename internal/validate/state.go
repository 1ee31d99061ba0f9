// Package validate assesses input snapshots and generated plans: structural
// completeness, internal consistency, and freshness grading.
//
// Critical findings route the planners onto their minimal safe paths;
// warnings are attached to results and logged, never blocking.
package validate

import (
	"fmt"
	"time"

	"careerpilot/internal/config"
	"careerpilot/internal/logging"
	"careerpilot/internal/state"
)

// IssueSeverity grades a single validation finding.
type IssueSeverity string

const (
	SeverityWarning  IssueSeverity = "/warning"
	SeverityCritical IssueSeverity = "/critical"
)

// Issue is one validation finding.
type Issue struct {
	Severity IssueSeverity `json:"severity"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
}

// Result is the outcome of validating a state snapshot.
type Result struct {
	// Valid is false only when a critical issue was found.
	Valid     bool                    `json:"valid"`
	Staleness state.StalenessSeverity `json:"staleness"`
	Issues    []Issue                 `json:"issues,omitempty"`

	// RecommendedAction is surfaced to the caller on warnings, e.g. a
	// prompt to refresh data.
	RecommendedAction string `json:"recommended_action,omitempty"`
}

func (r *Result) add(sev IssueSeverity, code, format string, args ...interface{}) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Code: code, Message: fmt.Sprintf(format, args...)})
	if sev == SeverityCritical {
		r.Valid = false
	}
}

// CriticalCount returns how many critical issues were found.
func (r *Result) CriticalCount() int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// State validates a user state snapshot against the configured thresholds.
// now is the reference time for freshness grading.
func State(st *state.UserState, cfg *config.Config, now time.Time) Result {
	res := Result{Valid: true, Staleness: state.StalenessNone}
	log := logging.Get(logging.CategoryValidate)

	if st == nil {
		res.add(SeverityCritical, "missing_state", "no user state snapshot supplied")
		res.Staleness = state.StalenessCritical
		return res
	}

	// Structural completeness.
	if st.UserID == "" {
		res.add(SeverityCritical, "missing_user", "snapshot carries no user id")
	}
	if st.SnapshotAt.IsZero() {
		res.add(SeverityWarning, "missing_snapshot_time", "snapshot carries no timestamp; freshness cannot be graded")
	}
	if st.Version <= 0 {
		res.add(SeverityWarning, "missing_version", "snapshot carries no state version")
	}

	// Internal consistency.
	p := st.Pipeline
	if p.ApplicationsThisWeek > p.ApplicationsThisMonth {
		res.add(SeverityCritical, "counter_order",
			"weekly applications (%d) exceed monthly (%d)", p.ApplicationsThisWeek, p.ApplicationsThisMonth)
	}
	if p.ApplicationsThisMonth > p.ApplicationsTotal {
		res.add(SeverityCritical, "counter_order",
			"monthly applications (%d) exceed total (%d)", p.ApplicationsThisMonth, p.ApplicationsTotal)
	}
	if p.InterviewRate < 0 || p.InterviewRate > 1 {
		res.add(SeverityCritical, "rate_range", "interview rate %.2f outside [0,1]", p.InterviewRate)
	}
	if p.ResponseRate < 0 || p.ResponseRate > 1 {
		res.add(SeverityCritical, "rate_range", "response rate %.2f outside [0,1]", p.ResponseRate)
	}
	if st.Resume.Score < 0 || st.Resume.Score > 100 {
		res.add(SeverityCritical, "score_range", "resume score %.1f outside [0,100]", st.Resume.Score)
	}
	for i, issue := range st.Resume.OutstandingIssues {
		if issue.Severity < 1 || issue.Severity > 5 {
			res.add(SeverityWarning, "issue_severity", "resume issue %d has severity %d outside [1,5]", i, issue.Severity)
		}
	}

	// Freshness.
	res.Staleness = grade(st, cfg, now)
	switch res.Staleness {
	case state.StalenessCritical:
		res.add(SeverityCritical, "stale_state", "state snapshot is critically stale")
		res.RecommendedAction = "Refresh your pipeline and resume data before planning; the current snapshot cannot be trusted."
	case state.StalenessWarning:
		res.add(SeverityWarning, "stale_state", "state snapshot is getting old")
		res.RecommendedAction = "Consider refreshing your data; plans are based on an aging snapshot."
	}

	if !res.Valid {
		log.Warn("state validation failed for user %s: %d critical issues", st.UserID, res.CriticalCount())
	} else if len(res.Issues) > 0 {
		log.Info("state validation for user %s produced %d warnings", st.UserID, len(res.Issues))
	}
	return res
}

// grade computes staleness severity from the explicit flags and the
// snapshot age.
func grade(st *state.UserState, cfg *config.Config, now time.Time) state.StalenessSeverity {
	if st.Freshness.Untrusted {
		return state.StalenessCritical
	}

	sev := state.StalenessNone
	if st.Freshness.Stale {
		sev = state.StalenessWarning
	}

	ref := st.Freshness.LastUpdated
	if ref.IsZero() {
		ref = st.SnapshotAt
	}
	if ref.IsZero() {
		return sev
	}

	age := now.Sub(ref)
	if age >= time.Duration(cfg.Staleness.CriticalAgeHours)*time.Hour {
		return state.StalenessCritical
	}
	if age >= time.Duration(cfg.Staleness.WarningAgeHours)*time.Hour {
		return state.StalenessWarning
	}
	return sev
}
