package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"juststart/internal/db"
	"juststart/internal/model"
)

// StateRepository is the durable key/value record behind the pomodoro timer.
// Every key is upserted on its own so a partial record is always readable.
type StateRepository struct {
	db *db.Database
}

func NewStateRepository(database *db.Database) *StateRepository {
	return &StateRepository{db: database}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// LoadSnapshot reads each snapshot key independently. Missing or unreadable
// keys are logged and left nil; an all-nil result means there is no prior
// state.
func (r *StateRepository) LoadSnapshot(ctx context.Context) model.PartialSnapshot {
	var snapshot model.PartialSnapshot

	var cycle int
	if r.readKey(ctx, model.KeyPomodoroCycle, &cycle) {
		snapshot.PomodoroCycle = &cycle
	}

	var phase model.Phase
	if r.readKey(ctx, model.KeyPhase, &phase) {
		if phase.Valid() {
			snapshot.Phase = &phase
		} else {
			slog.Warn("Serialized attribute has an unknown value", "key", model.KeyPhase, "value", phase)
		}
	}

	var timeLeft int
	if r.readKey(ctx, model.KeyTimeLeft, &timeLeft) {
		snapshot.TimeLeft = &timeLeft
	}

	var workCount int
	if r.readKey(ctx, model.KeyWorkCount, &workCount) {
		snapshot.WorkCount = &workCount
	}

	if snapshot.Empty() {
		slog.Warn("No serialized attributes could be read")
	}
	return snapshot
}

// SaveSnapshot upserts all snapshot keys in a single transaction.
func (r *StateRepository) SaveSnapshot(ctx context.Context, snapshot model.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	values := []struct {
		key   string
		value interface{}
	}{
		{model.KeyPomodoroCycle, snapshot.PomodoroCycle},
		{model.KeyPhase, snapshot.Phase},
		{model.KeyTimeLeft, snapshot.TimeLeft},
		{model.KeyWorkCount, snapshot.WorkCount},
	}
	for _, kv := range values {
		if err := r.put(ctx, tx, kv.key, kv.value, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	slog.Debug("StateRepository SaveSnapshot succeeded",
		"phase", snapshot.Phase, "timeLeft", snapshot.TimeLeft,
		"workCount", snapshot.WorkCount, "cycle", snapshot.PomodoroCycle)
	return nil
}

// SkipEnabled returns false when the key has never been written.
func (r *StateRepository) SkipEnabled(ctx context.Context) (bool, error) {
	raw, err := r.get(ctx, model.KeySkipEnabled)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var enabled bool
	if err := json.Unmarshal([]byte(raw), &enabled); err != nil {
		return false, fmt.Errorf("decode %s: %w", model.KeySkipEnabled, err)
	}
	return enabled, nil
}

func (r *StateRepository) SetSkipEnabled(ctx context.Context, enabled bool) error {
	return r.put(ctx, r.db, model.KeySkipEnabled, enabled, time.Now().UTC())
}

func (r *StateRepository) readKey(ctx context.Context, key string, dest interface{}) bool {
	raw, err := r.get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		slog.Warn("Serialized attribute missing", "key", key)
		return false
	}
	if err != nil {
		slog.Warn("Serialized attribute couldn't be read", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		slog.Warn("Serialized attribute couldn't be decoded", "key", key, "error", err)
		return false
	}
	return true
}

func (r *StateRepository) get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(
		ctx,
		r.db.Rebind(`SELECT value FROM juststart_state WHERE key = ?`),
		key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (r *StateRepository) put(ctx context.Context, exec execer, key string, value interface{}, now time.Time) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	_, err = exec.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO juststart_state (key, value, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key,
		string(encoded),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
