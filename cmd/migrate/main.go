package main

import (
	"log/slog"
	"os"

	"juststart/internal/config"
	"juststart/internal/db"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.LogLevel)})))

	database, err := db.Open(cfg.DBDSN)
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("migrations applied successfully", "dialect", database.Dialect)
}
