package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values shared by the API and worker binaries.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	NATSSubject       string
	JWTSecret         string
	MediaRoot         string
	SourceExtension   string
	MaxArchiveMB      int
	RunQueueName      string
	LLMBaseURL        string
	LLMAPIKey         string
	GenerationTimeout time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADECORE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GradeCore API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("media.root", "media")
	v.SetDefault("source.extension", ".java")
	v.SetDefault("max_archive_mb", 50)
	v.SetDefault("run_queue", "gradecore:runs")
	v.SetDefault("nats.subject", "gradecore.corrections")
	v.SetDefault("llm.base_url", "http://localhost:11434/v1")
	v.SetDefault("llm.api_key", "ollama")
	v.SetDefault("generation_timeout", "10m")

	timeoutString := v.GetString("generation_timeout")
	timeout, err := time.ParseDuration(timeoutString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid generation timeout: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		NATSSubject:       v.GetString("nats.subject"),
		JWTSecret:         v.GetString("jwt.secret"),
		MediaRoot:         v.GetString("media.root"),
		SourceExtension:   strings.ToLower(v.GetString("source.extension")),
		MaxArchiveMB:      v.GetInt("max_archive_mb"),
		RunQueueName:      v.GetString("run_queue"),
		LLMBaseURL:        v.GetString("llm.base_url"),
		LLMAPIKey:         v.GetString("llm.api_key"),
		GenerationTimeout: timeout,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if !strings.HasPrefix(cfg.SourceExtension, ".") {
		cfg.SourceExtension = "." + cfg.SourceExtension
	}

	if cfg.MaxArchiveMB <= 0 {
		cfg.MaxArchiveMB = 50
	}

	return cfg, nil
}
