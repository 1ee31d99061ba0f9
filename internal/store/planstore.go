// Package store persists generated plans between host invocations.
//
// Plans are stored as JSON rows keyed by user and version; the weekly plan
// is an immutable snapshot, so replanning inserts a new version instead of
// updating in place. The engine itself never reads the store; only the
// hosting layer does.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"careerpilot/internal/logging"
	"careerpilot/internal/plan"
)

// ErrNotFound is returned when no plan matches the query.
var ErrNotFound = errors.New("plan not found")

// PlanStore is a SQLite-backed checkpoint store for plans.
type PlanStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open initializes the store at the given path, creating the schema on
// first use.
func Open(path string) (*PlanStore, error) {
	logging.Store("opening plan store at %s", path)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open plan store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.Get(logging.CategoryStore).Warn("set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.Get(logging.CategoryStore).Warn("set journal_mode=WAL: %v", err)
	}

	s := &PlanStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PlanStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS weekly_plans (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		version     INTEGER NOT NULL,
		week_start  TEXT NOT NULL,
		body        TEXT NOT NULL,
		created_at  INTEGER NOT NULL,
		UNIQUE(user_id, version)
	);
	CREATE INDEX IF NOT EXISTS idx_weekly_user ON weekly_plans(user_id, version DESC);

	CREATE TABLE IF NOT EXISTS daily_plans (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		plan_date      TEXT NOT NULL,
		weekly_plan_id TEXT NOT NULL,
		body           TEXT NOT NULL,
		created_at     INTEGER NOT NULL,
		UNIQUE(user_id, plan_date, weekly_plan_id)
	);
	CREATE INDEX IF NOT EXISTS idx_daily_user ON daily_plans(user_id, plan_date DESC);

	CREATE TABLE IF NOT EXISTS replan_log (
		user_id    TEXT NOT NULL,
		plan_id    TEXT NOT NULL,
		trigger_type TEXT NOT NULL,
		reason     TEXT,
		created_at INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate plan store: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *PlanStore) Close() error {
	return s.db.Close()
}

// SaveWeekly inserts a weekly plan snapshot. Versions are immutable:
// inserting the same (user, version) twice is an error by design.
func (s *PlanStore) SaveWeekly(p *plan.WeeklyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal weekly plan %s: %w", p.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO weekly_plans (id, user_id, version, week_start, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Version, p.WeekStart.Format("2006-01-02"), string(body), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save weekly plan %s: %w", p.ID, err)
	}
	logging.Store("saved weekly plan %s v%d for %s", p.ID, p.Version, p.UserID)
	return nil
}

// LatestWeekly returns the highest-version weekly plan for a user.
func (s *PlanStore) LatestWeekly(userID string) (*plan.WeeklyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body string
	err := s.db.QueryRow(
		`SELECT body FROM weekly_plans WHERE user_id = ? ORDER BY version DESC LIMIT 1`,
		userID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load weekly plan for %s: %w", userID, err)
	}

	var p plan.WeeklyPlan
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("decode weekly plan for %s: %w", userID, err)
	}
	return &p, nil
}

// UpdateWeeklyTasks rewrites a stored weekly plan body after task status
// changes. Only task statuses legitimately change post-generation, so this
// replaces the body at the same (user, version) rather than bumping.
func (s *PlanStore) UpdateWeeklyTasks(p *plan.WeeklyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal weekly plan %s: %w", p.ID, err)
	}
	res, err := s.db.Exec(
		`UPDATE weekly_plans SET body = ? WHERE user_id = ? AND version = ?`,
		string(body), p.UserID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update weekly plan %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveDaily inserts a daily slice.
func (s *PlanStore) SaveDaily(p *plan.DailyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal daily plan %s: %w", p.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO daily_plans (id, user_id, plan_date, weekly_plan_id, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Date.Format("2006-01-02"), p.WeeklyPlanID, string(body), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save daily plan %s: %w", p.ID, err)
	}
	logging.Store("saved daily plan %s (%s) for %s", p.ID, p.Date.Format("2006-01-02"), p.UserID)
	return nil
}

// DailyFor returns the daily plan for a user and date derived from the
// given weekly plan, if one was already generated. Daily plans are derived
// at most once per calendar day per weekly plan.
func (s *PlanStore) DailyFor(userID string, date time.Time, weeklyPlanID string) (*plan.DailyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body string
	err := s.db.QueryRow(
		`SELECT body FROM daily_plans WHERE user_id = ? AND plan_date = ? AND weekly_plan_id = ?`,
		userID, date.Format("2006-01-02"), weeklyPlanID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load daily plan for %s: %w", userID, err)
	}

	var p plan.DailyPlan
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("decode daily plan for %s: %w", userID, err)
	}
	return &p, nil
}

// RecordReplan appends a replan decision to the audit log.
func (s *PlanStore) RecordReplan(userID string, trigger plan.ReplanTrigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO replan_log (user_id, plan_id, trigger_type, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, trigger.PlanID, string(trigger.Type), trigger.Reason, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record replan for %s: %w", userID, err)
	}
	return nil
}

// LastReplanAt returns when the user's plan was last regenerated, or the
// zero time if never. The replan evaluator uses this for its cooldown.
func (s *PlanStore) LastReplanAt(userID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var unix int64
	err := s.db.QueryRow(
		`SELECT created_at FROM replan_log WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`,
		userID,
	).Scan(&unix)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load last replan for %s: %w", userID, err)
	}
	return time.Unix(unix, 0), nil
}
