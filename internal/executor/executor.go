package executor

import (
	"context"
	"fmt"
	"time"

	"careerpilot/internal/config"
	"careerpilot/internal/logging"
	"careerpilot/internal/plan"
	"careerpilot/internal/planerr"
)

// Sleeper waits between retry attempts. Injectable so tests simulate
// elapsed time without real waiting; the default honors cancellation.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Handler executes one action kind against its collaborator. It returns a
// human-readable success message.
type Handler func(ctx context.Context, userID string, t plan.Task) (string, error)

// Result is the outcome of executing a single task.
type Result struct {
	TaskID   string          `json:"task_id"`
	Success  bool            `json:"success"`
	Status   plan.TaskStatus `json:"status"` // terminal status for the task
	Attempts int             `json:"attempts"`
	Message  string          `json:"message,omitempty"`

	// Fallback carries the suggestion when automation gave up,
	// e.g. "manual".
	Fallback string         `json:"fallback,omitempty"`
	Err      *planerr.Error `json:"error,omitempty"`
}

// Executor runs the per-task retry state machine.
type Executor struct {
	cfg      config.ExecutorConfig
	handlers map[plan.ActionKind]Handler
	events   EventLog
	sleep    Sleeper
}

// New wires an executor from collaborator services. Any service may be nil;
// the corresponding action kinds then fail as collaborator-unavailable and
// fall back to manual.
func New(cfg config.ExecutorConfig, rewrite RewriteService, scoring ScoringService, apps ApplicationService, events EventLog) *Executor {
	e := &Executor{
		cfg:      cfg,
		handlers: make(map[plan.ActionKind]Handler),
		events:   events,
		sleep:    defaultSleeper,
	}
	e.handlers[plan.ActionResumeImprove] = resumeHandler(rewrite, scoring)
	e.handlers[plan.ActionApply] = applyHandler(apps)
	e.handlers[plan.ActionFollowUp] = followUpHandler(apps)
	return e
}

// WithSleeper overrides the inter-attempt delay implementation.
func (e *Executor) WithSleeper(s Sleeper) *Executor {
	e.sleep = s
	return e
}

// Register installs (or replaces) the handler for an action kind. The host
// registers a refresh-state handler this way, since state re-sync is owned
// outside the engine.
func (e *Executor) Register(kind plan.ActionKind, h Handler) {
	e.handlers[kind] = h
}

// ExecuteTask runs one task to a terminal result.
//
// User-only tasks short-circuit to success with a guidance message and no
// collaborator call. Automatic and user-confirmed tasks dispatch to the
// kind's handler, retrying up to the configured maximum with the injected
// delay between attempts; exhausted retries return a failure carrying a
// "manual" fallback suggestion rather than an unclassified error.
func (e *Executor) ExecuteTask(ctx context.Context, userID string, t plan.Task) Result {
	if t.Mode == plan.ExecUserOnly {
		return Result{
			TaskID:  t.ID,
			Success: true,
			Status:  plan.TaskPending, // stays with the user
			Message: fmt.Sprintf("This one is yours: %s — %s", t.Title, t.WhyNow),
		}
	}

	handler, ok := e.handlers[t.Kind]
	if !ok || handler == nil {
		return Result{
			TaskID:   t.ID,
			Status:   plan.TaskFailed,
			Fallback: "manual",
			Err: planerr.New(planerr.CodeCollaboratorUnavailable, true,
				"no collaborator handles %s tasks", t.Kind),
		}
	}

	maxAttempts := e.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	delay := time.Duration(e.cfg.RetryDelaySeconds) * time.Second
	timeout := time.Duration(e.cfg.TaskTimeoutSeconds) * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		msg, err := e.runAttempt(ctx, userID, t, handler, timeout)
		if err == nil {
			e.logEvent(ctx, userID, "task_executed", map[string]string{
				"task_id": t.ID, "kind": string(t.Kind), "attempts": fmt.Sprint(attempt),
			})
			return Result{
				TaskID:   t.ID,
				Success:  true,
				Status:   plan.TaskCompleted,
				Attempts: attempt,
				Message:  msg,
			}
		}
		lastErr = err
		logging.ExecutorDebug("task %s attempt %d/%d failed: %v", t.ID, attempt, maxAttempts, err)

		if ctx.Err() != nil {
			break
		}
		if attempt < maxAttempts {
			// Same handler, fixed delay, bounded attempts.
			if serr := e.sleep(ctx, delay); serr != nil {
				lastErr = serr
				break
			}
		}
	}

	e.logEvent(ctx, userID, "task_failed", map[string]string{
		"task_id": t.ID, "kind": string(t.Kind), "error": lastErr.Error(),
	})
	logging.Executor("task %s failed after retries: %v", t.ID, lastErr)
	return Result{
		TaskID:   t.ID,
		Status:   plan.TaskFailed,
		Attempts: maxAttempts,
		Fallback: "manual",
		Err: planerr.Wrap(planerr.CodeMaxRetriesExceeded, true, lastErr,
			"task %s failed after %d attempts", t.ID, maxAttempts),
	}
}

// runAttempt invokes the handler under the per-task timeout.
func (e *Executor) runAttempt(ctx context.Context, userID string, t plan.Task, handler Handler, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return handler(ctx, userID, t)
}

// ExecuteBatch runs tasks in order. When a high-priority task (priority at
// or above the configured halt threshold) fails, the remaining batch is
// abandoned: each unexecuted task gets a skipped result so callers can tell
// halted from never-attempted.
func (e *Executor) ExecuteBatch(ctx context.Context, userID string, tasks []plan.Task) []Result {
	results := make([]Result, 0, len(tasks))
	halted := false
	var haltedBy string

	for _, t := range tasks {
		if halted || ctx.Err() != nil {
			reason := "batch cancelled"
			if halted {
				reason = fmt.Sprintf("batch halted after high-priority task %s failed", haltedBy)
			}
			results = append(results, Result{
				TaskID:  t.ID,
				Status:  plan.TaskSkipped,
				Message: reason,
			})
			continue
		}

		res := e.ExecuteTask(ctx, userID, t)
		results = append(results, res)

		if !res.Success && res.Status == plan.TaskFailed && t.Priority >= e.cfg.HaltPriority {
			logging.Executor("high-priority task %s (score %d) failed, halting batch", t.ID, t.Priority)
			halted = true
			haltedBy = t.ID
		}
	}
	return results
}

// logEvent records a fire-and-forget audit event. Errors are dropped; the
// event log must never abort execution.
func (e *Executor) logEvent(ctx context.Context, userID, typ string, evCtx map[string]string) {
	if e.events == nil {
		return
	}
	_ = e.events.LogEvent(ctx, Event{UserID: userID, Type: typ, Context: evCtx})
}
