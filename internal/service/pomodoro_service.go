package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"juststart/internal/blocker"
	apperrors "juststart/internal/errors"
	"juststart/internal/model"
	"juststart/internal/notify"
)

const (
	MessagePaused  = "Paused"
	MessageStopped = "Pomodoro timer stopped"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// ConfigProvider supplies the current pomodoro settings and location names.
type ConfigProvider interface {
	PomodoroConfig() model.PomodoroConfig
	LocationName(atWork bool) string
}

type StateStore interface {
	LoadSnapshot(ctx context.Context) model.PartialSnapshot
	SaveSnapshot(ctx context.Context, snapshot model.Snapshot) error
	SkipEnabled(ctx context.Context) (bool, error)
	SetSkipEnabled(ctx context.Context, enabled bool) error
}

type HistoryStore interface {
	Insert(ctx context.Context, record *model.PhaseRecord) error
	List(ctx context.Context, limit int) ([]model.PhaseRecord, error)
}

type Opts struct {
	Notifier  notify.Notifier
	Blocker   blocker.Blocker
	Clock     Clock
	Scheduler Scheduler
	History   HistoryStore
}

type Option func(*Opts)

func WithNotifier(n notify.Notifier) Option {
	return func(o *Opts) { o.Notifier = n }
}

func WithBlocker(b blocker.Blocker) Option {
	return func(o *Opts) { o.Blocker = b }
}

func WithClock(c Clock) Option {
	return func(o *Opts) { o.Clock = c }
}

func WithScheduler(s Scheduler) Option {
	return func(o *Opts) { o.Scheduler = s }
}

// WithHistory records every phase the timer leaves.
func WithHistory(h HistoryStore) Option {
	return func(o *Opts) { o.History = h }
}

// PomodoroService is the phase state machine. A single mutex serializes user
// operations and the deferred end-of-phase callback; the callback carries the
// generation it was armed with and does nothing once that generation is gone.
type PomodoroService struct {
	mu sync.Mutex

	store     StateStore
	skip      *SkipAuthorization
	config    ConfigProvider
	history   HistoryStore
	notifier  notify.Notifier
	blocker   blocker.Blocker
	clock     Clock
	scheduler Scheduler

	seq        *Sequence
	phase      model.Phase
	timeLeft   int
	workCount  int
	running    bool
	startedAt  time.Time
	timer      Timer
	generation uint64
	atWork     bool
}

// NewPomodoroService starts paused at the first phase of a fresh sequence.
// The persisted skip flag is left as it was.
func NewPomodoroService(store StateStore, config ConfigProvider, opts ...Option) *PomodoroService {
	var o Opts
	for _, opt := range opts {
		opt(&o)
	}
	if o.Notifier == nil {
		o.Notifier = notify.Log{}
	}
	if o.Blocker == nil {
		o.Blocker = blocker.Noop{}
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	if o.Scheduler == nil {
		o.Scheduler = SystemScheduler()
	}

	s := &PomodoroService{
		store:     store,
		skip:      NewSkipAuthorization(store),
		config:    config,
		history:   o.History,
		notifier:  o.Notifier,
		blocker:   o.Blocker,
		clock:     o.Clock,
		scheduler: o.Scheduler,
	}
	s.initLocked()
	return s
}

func (s *PomodoroService) initLocked() {
	s.seq = NewSequence(s.config.PomodoroConfig(), 0)
	s.phase, s.timeLeft = s.seq.Next()
	s.workCount = 0
}

// Toggle pauses a running timer or starts a paused one.
func (s *PomodoroService) Toggle(ctx context.Context) *apperrors.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.startLocked()
		return nil
	}

	s.pauseLocked()
	s.notifier.Notify(MessagePaused)
	if err := s.saveLocked(ctx); err != nil {
		slog.Error("PomodoroService Toggle save failed", "error", err)
		return apperrors.Internal("failed to save timer state")
	}
	return nil
}

// Advance moves to the next phase. With skipping false it is the natural end
// of the current phase. phases is how many phases to skip and may be nil.
// Failed validation or authorization leaves every field untouched.
func (s *PomodoroService) Advance(ctx context.Context, skipping bool, phases *int) *apperrors.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked(ctx, skipping, phases)
}

// Skip is Advance(ctx, true, phases).
func (s *PomodoroService) Skip(ctx context.Context, phases *int) *apperrors.APIError {
	return s.Advance(ctx, true, phases)
}

func (s *PomodoroService) advanceLocked(ctx context.Context, skipping bool, phases *int) *apperrors.APIError {
	count := 1
	workCount := s.workCount
	consumeSkip := false

	if skipping {
		if s.phase == model.PhaseWork {
			if !s.skip.IsEnabled(ctx) {
				return apperrors.SkipNotEnabled()
			}
			if phases == nil {
				return apperrors.PhaseCountRequired()
			}
			consumeSkip = true
			workCount++
		}
		if phases != nil {
			if *phases < 1 {
				return apperrors.InvalidPhaseCount()
			}
			count = *phases
		}
	} else {
		workCount++
	}

	seq := s.seq.Clone()
	blocks, walk := seq.Span(count - 1)
	workCount += blocks * seq.WorkPerBlock()
	skippedOver := make([]model.Phase, 0, walk)
	for i := 0; i < walk; i++ {
		phase, _ := seq.Next()
		if phase == model.PhaseWork {
			workCount++
		}
		skippedOver = append(skippedOver, phase)
	}
	next, duration := seq.Next()
	if skipping && next == model.PhaseLongRest {
		return apperrors.LongBreakSkip()
	}

	if consumeSkip {
		if err := s.skip.Disable(ctx); err != nil {
			slog.Error("PomodoroService Advance disable skip failed", "error", err)
			return apperrors.Internal("failed to update skip authorization")
		}
	} else if !skipping {
		if err := s.skip.Enable(ctx); err != nil {
			slog.Error("PomodoroService Advance enable skip failed", "error", err)
		}
	}

	now := s.clock.Now()
	left := s.remainingLocked(now)
	s.cancelLocked()

	outcome := model.HistoryCompleted
	if skipping {
		outcome = model.HistorySkipped
	}
	s.recordLocked(ctx, s.phase, s.seq.Duration(s.phase)-left, s.workCount, outcome, now)
	for _, phase := range skippedOver {
		s.recordLocked(ctx, phase, 0, s.workCount, model.HistorySkipped, now)
	}

	slog.Debug("PomodoroService Advance", "skipping", skipping, "from", s.phase, "to", next, "phases", count)
	s.seq = seq
	s.phase = next
	s.timeLeft = duration
	s.workCount = workCount
	s.startLocked()
	return nil
}

// Reset pauses and reinitializes the timer from the current settings.
// atWork picks the location used in status messages from now on.
func (s *PomodoroService) Reset(ctx context.Context, atWork bool) *apperrors.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked(ctx, atWork)
}

func (s *PomodoroService) resetLocked(ctx context.Context, atWork bool) *apperrors.APIError {
	now := s.clock.Now()
	s.pauseLocked()
	if spent := s.seq.Duration(s.phase) - s.timeLeft; spent > 0 {
		s.recordLocked(ctx, s.phase, spent, s.workCount, model.HistoryCancelled, now)
	}

	s.initLocked()
	s.atWork = atWork
	if err := s.skip.Disable(ctx); err != nil {
		slog.Error("PomodoroService Reset disable skip failed", "error", err)
	}
	s.notifier.Notify(MessageStopped)

	if err := s.saveLocked(ctx); err != nil {
		slog.Error("PomodoroService Reset save failed", "error", err)
		return apperrors.Internal("failed to save timer state")
	}
	return nil
}

// ChangeLocation resets the timer for a new location and starts it. "w" means
// work; anything else is home.
func (s *PomodoroService) ChangeLocation(ctx context.Context, location string) *apperrors.APIError {
	if location == "" {
		return apperrors.BadRequest(apperrors.CodeInvalidLocation, "location is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if apiErr := s.resetLocked(ctx, location == "w"); apiErr != nil {
		return apiErr
	}
	s.startLocked()
	return nil
}

// Snapshot returns the durable fields. A running timer reports what is left
// right now without being paused.
func (s *PomodoroService) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.clock.Now())
}

func (s *PomodoroService) snapshotLocked(now time.Time) model.Snapshot {
	return model.Snapshot{
		PomodoroCycle: s.seq.Cursor(),
		Phase:         s.phase,
		TimeLeft:      s.remainingLocked(now),
		WorkCount:     s.workCount,
	}
}

// Restore replaces the timer state with a persisted snapshot and leaves it
// paused. Missing fields fall back to those of a fresh sequence.
func (s *PomodoroService) Restore(snapshot model.PartialSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	cfg := s.config.PomodoroConfig()

	s.initLocked()
	if snapshot.PomodoroCycle != nil {
		s.seq = NewSequence(cfg, *snapshot.PomodoroCycle)
	}
	if snapshot.Phase != nil && snapshot.Phase.Valid() {
		s.phase = *snapshot.Phase
		s.timeLeft = s.seq.Duration(s.phase)
	}
	if snapshot.TimeLeft != nil {
		s.timeLeft = max(*snapshot.TimeLeft, 0)
	}
	if snapshot.WorkCount != nil {
		s.workCount = max(*snapshot.WorkCount, 0)
	}
	slog.Info("PomodoroService Restore", "phase", s.phase, "timeLeft", s.timeLeft, "workCount", s.workCount, "cursor", s.seq.Cursor())
}

// Persist pauses the timer and saves the snapshot. Hosts call it on shutdown.
func (s *PomodoroService) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pauseLocked()
	return s.saveLocked(ctx)
}

// State is the view front-ends render.
func (s *PomodoroService) State(ctx context.Context) model.TimerState {
	skipEnabled := s.skip.IsEnabled(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	state := model.TimerState{
		Phase:       s.phase,
		PhaseLabel:  s.phase.Label(),
		Status:      model.StatusPaused,
		TimeLeft:    s.remainingLocked(now),
		WorkCount:   s.workCount,
		Cycle:       s.seq.Cursor(),
		SkipEnabled: skipEnabled,
		AtWork:      s.atWork,
		Location:    s.config.LocationName(s.atWork),
	}
	if s.running {
		startedAt := s.startedAt
		endsAt := s.startedAt.Add(time.Duration(s.timeLeft) * time.Second)
		state.Status = model.StatusRunning
		state.StartedAt = &startedAt
		state.EndsAt = &endsAt
	}
	return state
}

func (s *PomodoroService) History(ctx context.Context, limit int) ([]model.PhaseRecord, *apperrors.APIError) {
	if s.history == nil {
		return []model.PhaseRecord{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := s.history.List(ctx, limit)
	if err != nil {
		slog.Error("PomodoroService History list failed", "error", err)
		return nil, apperrors.Internal("failed to list phase history")
	}
	return records, nil
}

func (s *PomodoroService) startLocked() {
	now := s.clock.Now()
	s.notifier.Notify(s.statusMessage(now))

	s.stopTimerLocked()
	s.generation++
	generation := s.generation
	s.startedAt = now
	s.timer = s.scheduler.AfterFunc(time.Duration(s.timeLeft)*time.Second, func() {
		s.onElapsed(generation)
	})
	s.running = true
	s.blocker.BlockSites(s.phase == model.PhaseWork)
}

// onElapsed runs on the scheduler's goroutine when a phase runs out.
func (s *PomodoroService) onElapsed(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || !s.running {
		slog.Debug("PomodoroService stale timer ignored", "generation", generation, "current", s.generation)
		return
	}
	if apiErr := s.advanceLocked(context.Background(), false, nil); apiErr != nil {
		slog.Error("PomodoroService natural advance failed", "error", apiErr)
	}
}

func (s *PomodoroService) pauseLocked() {
	s.cancelLocked()
	s.blocker.BlockSites(true)
}

// cancelLocked stops the timer and folds the elapsed time into timeLeft.
func (s *PomodoroService) cancelLocked() {
	if !s.running {
		return
	}
	s.timeLeft = s.remainingLocked(s.clock.Now())
	s.stopTimerLocked()
	s.generation++
	s.running = false
	s.startedAt = time.Time{}
}

func (s *PomodoroService) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *PomodoroService) remainingLocked(now time.Time) int {
	if !s.running {
		return s.timeLeft
	}
	elapsed := int(now.Sub(s.startedAt) / time.Second)
	return max(s.timeLeft-elapsed, 0)
}

func (s *PomodoroService) saveLocked(ctx context.Context) error {
	if err := s.store.SaveSnapshot(ctx, s.snapshotLocked(s.clock.Now())); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *PomodoroService) recordLocked(ctx context.Context, phase model.Phase, actual, workCount int, outcome string, endedAt time.Time) {
	if s.history == nil {
		return
	}
	record := model.PhaseRecord{
		ID:                     uuid.NewString(),
		Phase:                  phase,
		PlannedDurationSeconds: s.seq.Duration(phase),
		ActualDurationSeconds:  max(actual, 0),
		WorkCount:              workCount,
		Outcome:                outcome,
		EndedAt:                endedAt.UTC(),
	}
	if err := s.history.Insert(ctx, &record); err != nil {
		slog.Warn("PomodoroService history insert failed", "phase", phase, "outcome", outcome, "error", err)
	}
}

func (s *PomodoroService) statusMessage(now time.Time) string {
	noun := "pomodoros"
	if s.workCount == 1 {
		noun = "pomodoro"
	}
	end := now.Add(time.Duration(s.timeLeft) * time.Second)
	return fmt.Sprintf("%s - %d %s so far at %s.\n%s - %s (%d mins)",
		s.phase.Label(), s.workCount, noun, s.config.LocationName(s.atWork),
		now.Format("15:04"), end.Format("15:04"), s.timeLeft/60)
}
