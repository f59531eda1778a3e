package main

import (
	"habittracker/backend/internal/config"
	"habittracker/backend/internal/db"
	"habittracker/backend/internal/handler"
	"habittracker/backend/internal/logger"
	"habittracker/backend/internal/notify"
	"habittracker/backend/internal/repository"
	"habittracker/backend/internal/router"
	"habittracker/backend/internal/service"
	"habittracker/backend/internal/validation"
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

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.TelegramToken != "" {
		telegram, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramAPIEndpoint, cfg.NotifyTimeout)
		if err != nil {
			logger.Fatal("init telegram notifier", "err", err)
		}
		notifier = telegram
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, notifications disabled")
	}

	userRepo := repository.NewUserRepository(database)
	habitRepo := repository.NewHabitRepository(database)

	pipeline := validation.NewPipeline(habitRepo, validation.WithLookupTimeout(cfg.LookupTimeout))

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	userService := service.NewUserService(userRepo)
	habitService := service.NewHabitService(habitRepo, userRepo, pipeline, notifier, cfg.NotifyTimeout)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	habitHandler := handler.NewHabitHandler(habitService)

	engine := router.New(authService, authHandler, userHandler, habitHandler, cfg.CORSOrigins)
	logger.Info("backend listening", "port", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		logger.Fatal("run server", "err", err)
	}
}
