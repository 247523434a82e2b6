package service

import (
	"context"
	"log/slog"
)

type skipStore interface {
	SkipEnabled(ctx context.Context) (bool, error)
	SetSkipEnabled(ctx context.Context, enabled bool) error
}

// SkipAuthorization is the durable one-shot permission to skip a work phase.
type SkipAuthorization struct {
	store skipStore
}

func NewSkipAuthorization(store skipStore) *SkipAuthorization {
	return &SkipAuthorization{store: store}
}

// IsEnabled treats an unreadable flag as disabled.
func (a *SkipAuthorization) IsEnabled(ctx context.Context) bool {
	enabled, err := a.store.SkipEnabled(ctx)
	if err != nil {
		slog.Warn("SkipAuthorization IsEnabled read failed", "error", err)
		return false
	}
	return enabled
}

func (a *SkipAuthorization) Enable(ctx context.Context) error {
	return a.store.SetSkipEnabled(ctx, true)
}

func (a *SkipAuthorization) Disable(ctx context.Context) error {
	return a.store.SetSkipEnabled(ctx, false)
}
