package repository

import (
	"context"
	"fmt"
	"time"

	"juststart/internal/db"
	"juststart/internal/model"
)

// Fixed-width so that ORDER BY on the text column is chronological.
const endedAtLayout = "2006-01-02T15:04:05.000000000Z"

type HistoryRepository struct {
	db *db.Database
}

func NewHistoryRepository(database *db.Database) *HistoryRepository {
	return &HistoryRepository{db: database}
}

func (r *HistoryRepository) Insert(ctx context.Context, record *model.PhaseRecord) error {
	_, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO phase_history (
			id, phase, planned_duration_seconds, actual_duration_seconds,
			work_count, outcome, ended_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		record.ID,
		string(record.Phase),
		record.PlannedDurationSeconds,
		record.ActualDurationSeconds,
		record.WorkCount,
		record.Outcome,
		record.EndedAt.UTC().Format(endedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("insert phase record: %w", err)
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context, limit int) ([]model.PhaseRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		r.db.Rebind(`SELECT id, phase, planned_duration_seconds, actual_duration_seconds,
		        work_count, outcome, ended_at
		 FROM phase_history
		 ORDER BY ended_at DESC
		 LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list phase history: %w", err)
	}
	defer rows.Close()

	records := make([]model.PhaseRecord, 0, limit)
	for rows.Next() {
		record, scanErr := scanPhaseRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phase history: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPhaseRecord(s scanner) (*model.PhaseRecord, error) {
	record := model.PhaseRecord{}
	var phase string
	var endedAt string
	err := s.Scan(
		&record.ID,
		&phase,
		&record.PlannedDurationSeconds,
		&record.ActualDurationSeconds,
		&record.WorkCount,
		&record.Outcome,
		&endedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan phase record: %w", err)
	}
	record.Phase = model.Phase(phase)

	parsedEndedAt, err := parseEndedAt(endedAt)
	if err != nil {
		return nil, fmt.Errorf("parse phase record ended_at: %w", err)
	}
	record.EndedAt = parsedEndedAt
	return &record, nil
}

// parseEndedAt accepts RFC 3339 with or without fractional seconds.
func parseEndedAt(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
