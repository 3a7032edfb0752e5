package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/gradecore/gradecore-api/internal/config"
	"github.com/gradecore/gradecore-api/internal/database"
	"github.com/gradecore/gradecore-api/internal/pubsub"
	"github.com/gradecore/gradecore-api/internal/queue"
	"github.com/gradecore/gradecore-api/internal/repository"
	"github.com/gradecore/gradecore-api/internal/storage"
	"github.com/gradecore/gradecore-api/internal/worker"
	"github.com/gradecore/gradecore-api/pkg/llm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "worker").Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, lifecycle events disabled")
		} else {
			defer natsConn.Close()
		}
	}
	notifier := pubsub.NewNotifier(natsConn, cfg.NATSSubject, logger)

	generator, err := llm.NewClient(llm.ClientConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	correctionRepo := repository.NewCorrectionRepository(db)
	tasks := storage.NewTaskReader(cfg.MediaRoot, logger)
	artifacts := storage.NewArtifactStore(cfg.MediaRoot, logger)
	runQueue := queue.New(redisClient, cfg.RunQueueName)

	runner := worker.NewRunner(correctionRepo, tasks, artifacts, generator, notifier, cfg.GenerationTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner.Run(ctx, runQueue)

	log.Println("worker stopped")
}
