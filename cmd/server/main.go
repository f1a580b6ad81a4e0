package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"bestdeal/server/config"
	"bestdeal/server/internal/api"
	"bestdeal/server/internal/database"
	"bestdeal/server/internal/dedup"
	"bestdeal/server/internal/engine"
	"bestdeal/server/internal/fetch"
	"bestdeal/server/internal/match"
	"bestdeal/server/internal/models"
	"bestdeal/server/internal/processor"
	"bestdeal/server/internal/queue"
	"bestdeal/server/internal/scheduler"
	"bestdeal/server/internal/telegram"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using process environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := config.LoadSitesOverride(); err != nil {
		logger.WithError(err).Fatal("Failed to load site overrides")
	}

	logger.Infof("Using database at: %s", cfg.DBPath)
	store, err := database.NewStore(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	matcher := match.New(match.Config{
		Threshold:   cfg.Match.Threshold,
		ConflictCap: cfg.Match.ConflictCap,
	})
	eng := engine.New(dedup.New(matcher, logger), store, logger)

	fetcher, err := fetch.NewSiteFetcher(cfg.Fetch.Headless, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to start browser")
	}
	defer fetcher.Close()

	retry := fetch.RetryPolicy{
		MaxAttempts: cfg.Fetch.MaxAttempts,
		BaseDelay:   cfg.Fetch.BaseDelay,
		Logger:      logger,
	}
	manager := fetch.NewManager(fetcher, retry, cfg.Sites, logger)

	jobQueue := queue.NewJobQueue(cfg.Pipeline.QueueBuffer, logger)
	proc := processor.NewProcessor(eng, jobQueue, cfg, logger)
	proc.Start()
	defer proc.Stop()

	sched := scheduler.NewScheduler(store, manager, jobQueue, logger, cfg.Pipeline.RecheckInterval)
	sched.Start()
	defer sched.Stop()

	notifier := telegram.NewService(logger)
	if cfg.Telegram.BotToken != "" {
		notifier.UpdateConfig(&models.TelegramConfig{
			IsEnabled: true,
			BotToken:  cfg.Telegram.BotToken,
			ChatID:    cfg.Telegram.ChatID,
			UpdatedAt: time.Now(),
		})
	}

	handler := api.NewHandler(store, eng, manager, jobQueue, notifier, logger)

	router := gin.Default()
	router.Use(cors.Default())
	api.SetupRoutes(router, handler)

	logger.Infof("Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
