package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"juststart/internal/blocker"
	"juststart/internal/config"
	"juststart/internal/db"
	"juststart/internal/handler"
	"juststart/internal/notify"
	"juststart/internal/repository"
	"juststart/internal/router"
	"juststart/internal/service"
)

const shutdownTimeout = 10 * time.Second

func initializeLogger(level string) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.ParseLogLevel(level)}))
	slog.SetDefault(logger)
}

func main() {
	cfg := config.Load()
	initializeLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
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
	if cfg.WatchSettings {
		if err := os.MkdirAll(filepath.Dir(cfg.SettingsFile), 0o755); err != nil {
			slog.Warn("cannot create settings dir, hot reload disabled", "error", err)
		} else if watcher, err := config.NewWatcher(provider); err != nil {
			slog.Warn("settings hot reload disabled", "error", err)
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	stateRepo := repository.NewStateRepository(database)
	historyRepo := repository.NewHistoryRepository(database)

	board := notify.NewStatusBoard()
	hub := notify.NewHub(cfg.CORSOrigins)

	authService, err := service.NewAuthService(cfg.APIPassphrase, cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	if !authService.Enabled() {
		slog.Warn("API_PASSPHRASE not set, control API is unauthenticated")
	}

	pomodoroService := service.NewPomodoroService(
		stateRepo,
		provider,
		service.WithNotifier(notify.Multi{notify.Log{}, board, hub}),
		service.WithBlocker(blocker.FromCommandLine(cfg.BlockSitesCmd)),
		service.WithHistory(historyRepo),
	)
	ctx := context.Background()
	if snapshot := stateRepo.LoadSnapshot(ctx); !snapshot.Empty() {
		pomodoroService.Restore(snapshot)
	}

	authHandler := handler.NewAuthHandler(authService)
	pomodoroHandler := handler.NewPomodoroHandler(pomodoroService, board, hub)
	engine := router.New(authService, authHandler, pomodoroHandler, cfg.CORSOrigins)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("juststart listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("received signal, shutting down", "signal", sig.String())
	case serveErr = <-serverErrChan:
	}

	stop(ctx, httpServer, pomodoroService)
	return serveErr
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

type persister interface {
	Persist(ctx context.Context) error
}

// stop drains in-flight requests, then saves the timer state.
func stop(ctx context.Context, srv shutdowner, svc persister) {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}

	if err := svc.Persist(ctx); err != nil {
		slog.Error("persist timer state", "error", err)
	}
}
