// Command term runs the pomodoro timer in the foreground of a terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"juststart/internal/blocker"
	"juststart/internal/config"
	"juststart/internal/db"
	apperrors "juststart/internal/errors"
	"juststart/internal/notify"
	"juststart/internal/repository"
	"juststart/internal/service"
)

const helpText = `t  toggle the timer
s  skip the current phase
r  reset the timer
l  change location
p  show status
h  show this help
q  quit`

type session struct {
	svc            *service.PomodoroService
	board          *notify.StatusBoard
	style          *termStyle
	promptCount    func() (int, error)
	promptLocation func() (string, error)
}

func main() {
	cfg := config.Load()
	// Logs go to stderr so they do not interleave with the prompt.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.LogLevel)})))

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	database, err := db.Open(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := db.Migrate(database); err != nil {
		return err
	}

	provider, err := config.NewProvider(cfg.SettingsFile)
	if err != nil {
		return err
	}

	style := newTermStyle()
	board := notify.NewStatusBoard()
	stateRepo := repository.NewStateRepository(database)

	svc := service.NewPomodoroService(
		stateRepo,
		provider,
		service.WithNotifier(notify.Multi{board, notify.Func(style.Status)}),
		service.WithBlocker(blocker.FromCommandLine(cfg.BlockSitesCmd)),
		service.WithHistory(repository.NewHistoryRepository(database)),
	)
	ctx := context.Background()
	if snapshot := stateRepo.LoadSnapshot(ctx); !snapshot.Empty() {
		svc.Restore(snapshot)
	}

	s := &session{
		svc:         svc,
		board:       board,
		style:       style,
		promptCount: promptPhaseCount,
		promptLocation: func() (string, error) {
			settings := provider.Settings()
			return promptLocation(settings.Locations.Work, settings.Locations.Home)
		},
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		s.quit(ctx)
		os.Exit(0)
	}()

	style.Header("just start")
	fmt.Fprintln(style.out, style.Dim(helpText))
	s.printState(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if s.handle(ctx, strings.TrimSpace(scanner.Text())) {
			return nil
		}
	}
	s.quit(ctx)
	return scanner.Err()
}

// handle runs one command and reports whether the session should end.
func (s *session) handle(ctx context.Context, key string) bool {
	switch key {
	case "":
		return false
	case "t":
		s.report(s.svc.Toggle(ctx), "Timer toggled")
	case "s":
		s.skip(ctx)
	case "r":
		s.report(s.svc.Reset(ctx, s.svc.State(ctx).AtWork), "Timer reset")
	case "l":
		location, err := s.promptLocation()
		if err != nil {
			s.style.Warn("location unchanged")
			return false
		}
		s.report(s.svc.ChangeLocation(ctx, location), "Location changed")
	case "p":
		s.printState(ctx)
	case "h":
		fmt.Fprintln(s.style.out, helpText)
	case "q":
		s.quit(ctx)
		return true
	default:
		s.style.Error(fmt.Sprintf("unknown command %q, press h for help", key))
	}
	return false
}

func (s *session) skip(ctx context.Context) {
	apiErr := s.svc.Skip(ctx, nil)
	if apperrors.HasCode(apiErr, apperrors.CodePhaseCountRequired) {
		phases, err := s.promptCount()
		if err != nil {
			s.style.Warn("skip cancelled")
			return
		}
		apiErr = s.svc.Skip(ctx, &phases)
	}
	s.report(apiErr, "Skipped")
}

func (s *session) report(apiErr *apperrors.APIError, success string) {
	if apiErr != nil {
		s.board.SetAppStatus(apiErr.Message)
		s.style.Error(apiErr.Message)
		return
	}
	s.board.SetAppStatus(success)
	s.style.Success(success)
}

func (s *session) printState(ctx context.Context) {
	state := s.svc.State(ctx)
	s.style.KeyValue("phase", state.PhaseLabel)
	s.style.KeyValue("status", state.Status)
	s.style.KeyValue("time left", fmt.Sprintf("%d:%02d", state.TimeLeft/60, state.TimeLeft%60))
	s.style.KeyValue("pomodoros", fmt.Sprint(state.WorkCount))
	s.style.KeyValue("location", state.Location)
	if status := s.board.Status(); status.AppStatus != "" {
		s.style.KeyValue("last action", status.AppStatus)
	}
}

func (s *session) quit(ctx context.Context) {
	if err := s.svc.Persist(ctx); err != nil {
		s.style.Error("could not save timer state: " + err.Error())
		return
	}
	s.style.Success("Timer state saved")
}
