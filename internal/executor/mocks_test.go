package executor

import (
	"context"
	"errors"
	"sync"
	"time"
)

// mockRewrite scripts the rewrite collaborator.
type mockRewrite struct {
	result RewriteResult
	err    error
	calls  int
}

func (m *mockRewrite) Rewrite(ctx context.Context, req RewriteRequest) (RewriteResult, error) {
	m.calls++
	return m.result, m.err
}

// mockScoring scripts the rewrite-application collaborator.
type mockScoring struct {
	result ScoreResult
	err    error
	calls  int
}

func (m *mockScoring) ApplyRewriteWithScoring(ctx context.Context, res RewriteResult) (ScoreResult, error) {
	m.calls++
	return m.result, m.err
}

// mockApps scripts the application collaborator; failUntil makes the first
// N CreateApplication calls fail so retry paths can be driven.
type mockApps struct {
	posting    JobPosting
	postingErr error

	failUntil   int
	createCalls int
	followUps   []string
}

var errTransient = errors.New("collaborator hiccup")

func (m *mockApps) GetJobPosting(ctx context.Context, id string) (JobPosting, error) {
	if m.postingErr != nil {
		return JobPosting{}, m.postingErr
	}
	return m.posting, nil
}

func (m *mockApps) CreateApplication(ctx context.Context, userID, jobID string) (string, error) {
	m.createCalls++
	if m.createCalls <= m.failUntil {
		return "", errTransient
	}
	return "app-001", nil
}

func (m *mockApps) RecordFollowUp(ctx context.Context, applicationID, note string) error {
	m.followUps = append(m.followUps, applicationID)
	return nil
}

// recordingEventLog captures events for assertions.
type recordingEventLog struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingEventLog) LogEvent(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEventLog) typed(typ string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// fakeSleeper records requested delays and returns instantly.
type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (f *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays = append(f.delays, d)
	return ctx.Err()
}
