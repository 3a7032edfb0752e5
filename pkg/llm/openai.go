package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gradecore",
		Subsystem: "llm",
		Name:      "generation_duration_seconds",
		Help:      "Duration of LLM generation requests",
	}, []string{"model"})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradecore",
		Subsystem: "llm",
		Name:      "generation_failures_total",
		Help:      "Number of failed LLM generation requests",
	}, []string{"model"})
)

// ClientConfig defines configuration options for the OpenAI-compatible client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Logger  zerolog.Logger
}

// Client implements Generator against any OpenAI-compatible completion
// endpoint, including a locally hosted Ollama instance serving /v1.
type Client struct {
	api    *openai.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewClient builds a generator using the provided configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("llm base url is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		api:    openai.NewClientWithConfig(config),
		tracer: otel.Tracer("github.com/gradecore/gradecore-api/pkg/llm"),
		logger: logger.With().Str("component", "llm_client").Logger(),
	}, nil
}

// Generate performs one chat completion round trip and returns the
// first choice verbatim.
func (c *Client) Generate(parent context.Context, req GenerationRequest) (GenerationResult, error) {
	ctx, span := c.tracer.Start(parent, "llm.generate", trace.WithAttributes(
		attribute.String("model", req.Model),
		attribute.String("output_format", req.Params.OutputFormat),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
		MaxTokens:   req.Params.ContextLength,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
	}

	// top_k has no field in the chat completion dialect; backends apply
	// their own default for it.
	if req.Params.OutputFormat == "json" {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, request)
	generationDuration.WithLabelValues(req.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		generationFailures.WithLabelValues(req.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GenerationResult{}, fmt.Errorf("llm generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from backend")
		generationFailures.WithLabelValues(req.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GenerationResult{}, err
	}

	return GenerationResult{
		Text: resp.Choices[0].Message.Content,
		Usage: map[string]interface{}{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	}, nil
}

// ListModels returns the set of model names the backend has loaded.
func (c *Client) ListModels(ctx context.Context) (map[string]struct{}, error) {
	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("llm list models: %w", err)
	}

	models := make(map[string]struct{}, len(list.Models))
	for _, model := range list.Models {
		models[strings.TrimSpace(model.ID)] = struct{}{}
	}
	return models, nil
}
