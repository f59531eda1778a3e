package main

import (
	"habittracker/backend/internal/config"
	"habittracker/backend/internal/db"
	"habittracker/backend/internal/logger"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		logger.Fatal("init logger", "err", err)
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal("open database", "err", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		logger.Fatal("run migrations", "err", err)
	}

	logger.Info("migrations applied successfully", "dir", cfg.MigrationsDir)
}
