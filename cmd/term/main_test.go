package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"juststart/internal/config"
	"juststart/internal/db"
	"juststart/internal/model"
	"juststart/internal/notify"
	"juststart/internal/repository"
	"juststart/internal/service"
)

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

type idleScheduler struct{}

func (idleScheduler) AfterFunc(time.Duration, func()) service.Timer { return idleTimer{} }

func newTestSession(t *testing.T) (*session, *repository.StateRepository, *bytes.Buffer) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "term.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	if err := db.Migrate(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	out := &bytes.Buffer{}
	style := &termStyle{out: out}
	board := notify.NewStatusBoard()
	store := repository.NewStateRepository(database)
	svc := service.NewPomodoroService(
		store,
		config.NewStaticProvider(config.DefaultSettings()),
		service.WithNotifier(notify.Multi{board, notify.Func(style.Status)}),
		service.WithScheduler(idleScheduler{}),
	)

	return &session{
		svc:            svc,
		board:          board,
		style:          style,
		promptCount:    func() (int, error) { return 1, nil },
		promptLocation: func() (string, error) { return "w", nil },
	}, store, out
}

func TestSessionToggleAndQuitPersists(t *testing.T) {
	ctx := context.Background()
	s, store, out := newTestSession(t)

	if s.handle(ctx, "t") {
		t.Fatal("toggle must not end the session")
	}
	if s.svc.State(ctx).Status != model.StatusRunning {
		t.Fatal("expected the timer to run")
	}
	if !s.handle(ctx, "q") {
		t.Fatal("q must end the session")
	}
	if s.svc.State(ctx).Status != model.StatusPaused {
		t.Fatal("quitting must pause the timer")
	}
	if store.LoadSnapshot(ctx).Empty() {
		t.Fatal("quitting must persist the snapshot")
	}
	if !strings.Contains(out.String(), "Work and switch tasks - 0 pomodoros so far at home.") {
		t.Fatalf("expected start notification in output, got %q", out.String())
	}
}

func TestSessionSkipPromptsForCount(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestSession(t)
	if err := store.SetSkipEnabled(ctx, true); err != nil {
		t.Fatalf("enable skip: %v", err)
	}
	prompted := 0
	s.promptCount = func() (int, error) {
		prompted++
		return 1, nil
	}

	s.handle(ctx, "s")

	if prompted != 1 {
		t.Fatalf("expected one prompt, got %d", prompted)
	}
	if phase := s.svc.State(ctx).Phase; phase != model.PhaseShortRest {
		t.Fatalf("expected short rest after skip, got %s", phase)
	}
	if s.board.Status().AppStatus != "Skipped" {
		t.Fatalf("unexpected app status %q", s.board.Status().AppStatus)
	}
}

func TestSessionReportsSkipRefusal(t *testing.T) {
	ctx := context.Background()
	s, _, out := newTestSession(t)

	s.handle(ctx, "s")

	if !strings.Contains(out.String(), "only allowed right after a phase finished") {
		t.Fatalf("expected refusal in output, got %q", out.String())
	}
	if s.svc.State(ctx).Phase != model.PhaseWork {
		t.Fatal("refused skip must not change the phase")
	}
}

func TestSessionLocationAndUnknownKey(t *testing.T) {
	ctx := context.Background()
	s, _, out := newTestSession(t)

	s.handle(ctx, "l")
	state := s.svc.State(ctx)
	if !state.AtWork || state.Status != model.StatusRunning {
		t.Fatalf("expected running at work, got %+v", state)
	}

	s.promptLocation = func() (string, error) { return "", errors.New("aborted") }
	s.handle(ctx, "l")
	if !s.svc.State(ctx).AtWork {
		t.Fatal("aborted prompt must keep the location")
	}

	s.handle(ctx, "x")
	if !strings.Contains(out.String(), `unknown command "x"`) {
		t.Fatalf("expected unknown command message, got %q", out.String())
	}
}
