package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradecore/gradecore-api/internal/config"
	"github.com/gradecore/gradecore-api/internal/database"
	"github.com/gradecore/gradecore-api/internal/handler"
	"github.com/gradecore/gradecore-api/internal/middleware"
	"github.com/gradecore/gradecore-api/internal/models"
	"github.com/gradecore/gradecore-api/internal/queue"
	"github.com/gradecore/gradecore-api/internal/repository"
	"github.com/gradecore/gradecore-api/internal/router"
	"github.com/gradecore/gradecore-api/internal/service"
	"github.com/gradecore/gradecore-api/internal/storage"
	"github.com/gradecore/gradecore-api/pkg/llm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Prompt{}, &models.Rubric{}, &models.Correction{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	generator, err := llm.NewClient(llm.ClientConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	correctionRepo := repository.NewCorrectionRepository(db)
	promptRepo := repository.NewPromptRepository(db)
	rubricRepo := repository.NewRubricRepository(db)

	extractor := storage.NewExtractor(cfg.MediaRoot, cfg.SourceExtension, cfg.MaxArchiveMB, logger)
	artifacts := storage.NewArtifactStore(cfg.MediaRoot, logger)
	runQueue := queue.New(redisClient, cfg.RunQueueName)

	correctionService := service.NewCorrectionService(correctionRepo, promptRepo, rubricRepo, extractor, artifacts, runQueue, generator, validate, logger)
	promptService := service.NewPromptService(promptRepo, correctionRepo, artifacts, validate, logger)
	rubricService := service.NewRubricService(rubricRepo, correctionRepo, artifacts, validate, logger)

	correctionHandler := handler.NewCorrectionHandler(correctionService, logger)
	promptHandler := handler.NewPromptHandler(promptService, logger)
	rubricHandler := handler.NewRubricHandler(rubricService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.MaxArchiveMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CorrectionHandler: correctionHandler,
		PromptHandler:     promptHandler,
		RubricHandler:     rubricHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
