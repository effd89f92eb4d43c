package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/api"
	"github.com/samanyuahuja/NephroCare-sub000/internal/cache"
	"github.com/samanyuahuja/NephroCare-sub000/internal/config"
	"github.com/samanyuahuja/NephroCare-sub000/internal/database"
	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
	"github.com/samanyuahuja/NephroCare-sub000/internal/predictor"
	"github.com/samanyuahuja/NephroCare-sub000/internal/repository"
	"github.com/samanyuahuja/NephroCare-sub000/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(&cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire storage
	assessmentStore, dietPlanStore, chatStore, cleanup, err := buildStores(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}
	defer cleanup()

	// Optional assessment cache
	var assessmentCache service.AssessmentCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Cache, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()
		assessmentCache = redisCache
	}

	// Predictor chain
	predictorCfg := configManager.GetPredictorConfig()
	var primary, fallback domain.Predictor
	if len(predictorCfg.PrimaryCommand) > 0 {
		primary = predictor.NewProcessPredictor("primary", predictorCfg.PrimaryCommand, predictorCfg, logger)
	}
	if len(predictorCfg.FallbackCommand) > 0 {
		fallback = predictor.NewProcessPredictor("fallback", predictorCfg.FallbackCommand, predictorCfg, logger)
	}
	chain := predictor.NewFallbackChain(primary, fallback, logger)

	var explainer domain.ExplanationGenerator
	if len(predictorCfg.ExplainCommand) > 0 {
		explainer = predictor.NewProcessExplainer(predictorCfg.ExplainCommand, predictorCfg.Timeout, logger)
	}

	// Services
	insights, err := service.NewInsightsService(cfg.Cache.PDPCacheLen, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize insights service")
	}
	assessments := service.NewAssessmentService(assessmentStore, chain, explainer, assessmentCache, logger)
	dietPlans := service.NewDietPlanService(dietPlanStore, assessmentStore, logger)
	chatbot := service.NewChatbotService(chatStore, configManager.GetChatbotConfig(), logger)

	server := api.NewServer(configManager, assessments, insights, dietPlans, chatbot, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host":   cfg.Server.Host,
		"port":   cfg.Server.Port,
		"driver": cfg.Database.Driver,
	}).Info("Starting NephroCare screening server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// buildStores wires the persistence backend selected by database.driver.
func buildStores(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (
	domain.AssessmentStore, domain.DietPlanStore, domain.ChatStore, func(), error,
) {
	switch cfg.Database.Driver {
	case "postgres":
		dbCfg := database.Config{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			Database:    cfg.Database.Database,
			Username:    cfg.Database.Username,
			Password:    cfg.Database.Password,
			MaxConns:    int32(cfg.Database.MaxOpenConns),
			MinConns:    int32(cfg.Database.MaxIdleConns),
			MaxConnLife: cfg.Database.ConnMaxLifetime,
			MaxConnIdle: cfg.Database.ConnMaxLifetime,
			SSLMode:     cfg.Database.SSLMode,
		}

		if err := runMigrations(cfg, logger); err != nil {
			return nil, nil, nil, nil, err
		}

		pool, err := database.NewConnection(ctx, dbCfg, logger)
		if err != nil {
			return nil, nil, nil, nil, err
		}

		sqlDB, err := database.OpenSQL(dbCfg, logger)
		if err != nil {
			pool.Close()
			return nil, nil, nil, nil, err
		}

		cleanup := func() {
			sqlDB.Close()
			pool.Close()
		}
		return repository.NewAssessmentRepository(pool.Pool, logger),
			repository.NewDietPlanRepository(sqlDB, logger),
			repository.NewChatRepository(sqlDB, logger),
			cleanup, nil

	case "sqlite":
		store, err := repository.NewSQLiteStore(cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return store, store, store, func() { store.Close() }, nil

	case "memory":
		store := repository.NewMemoryStore()
		return store, store, store, func() {}, nil
	}

	return nil, nil, nil, nil, &domain.ValidationError{Field: "database.driver", Message: "unsupported driver", Value: cfg.Database.Driver}
}

func runMigrations(cfg *domain.Config, logger *logrus.Logger) error {
	databaseURL := postgresURL(cfg)
	runner, err := database.NewMigrationRunner(databaseURL, cfg.Database.MigrationsPath, logger)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.Up(context.Background())
}

func postgresURL(cfg *domain.Config) string {
	auth := cfg.Database.Username
	if cfg.Database.Password != "" {
		auth += ":" + cfg.Database.Password
	}
	return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=%s",
		auth, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, cfg.Database.SSLMode)
}

func newLogger(cfg *domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logger.SetOutput(os.Stdout)
	return logger
}
