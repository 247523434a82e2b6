package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"juststart/internal/model"
)

func TestHistoryListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(openTestDB(t, filepath.Join(t.TempDir(), "state.db")))

	base := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	phases := []model.Phase{model.PhaseWork, model.PhaseShortRest, model.PhaseWork}
	for i, phase := range phases {
		record := model.PhaseRecord{
			ID:                     uuid.NewString(),
			Phase:                  phase,
			PlannedDurationSeconds: 1500,
			ActualDurationSeconds:  1500,
			WorkCount:              i + 1,
			Outcome:                model.HistoryCompleted,
			EndedAt:                base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Insert(ctx, &record); err != nil {
			t.Fatalf("insert record %d: %v", i, err)
		}
	}

	records, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].WorkCount != 3 || records[1].WorkCount != 2 {
		t.Fatalf("unexpected order: %+v", records)
	}
	if !records[0].EndedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("unexpected ended_at: %s", records[0].EndedAt)
	}
}
