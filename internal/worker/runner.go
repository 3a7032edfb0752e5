package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gradecore/gradecore-api/internal/models"
	"github.com/gradecore/gradecore-api/internal/observability"
	"github.com/gradecore/gradecore-api/internal/pubsub"
	"github.com/gradecore/gradecore-api/internal/queue"
	"github.com/gradecore/gradecore-api/internal/repository"
	"github.com/gradecore/gradecore-api/internal/storage"
	"github.com/gradecore/gradecore-api/pkg/llm"
)

// ErrCorrectionGone indicates the queued correction no longer exists.
var ErrCorrectionGone = errors.New("correction no longer exists")

// Structured runs must produce a JSON object; the instructor's prompt
// defines the keys, so only the top-level shape is enforced.
var structuredOutputSchema = jsonschema.MustCompileString("response.json", `{"type":"object"}`)

// TaskReader loads the submission files for a correction folder.
type TaskReader interface {
	ReadTasks(folderPath string) map[string]string
}

// ArtifactWriter persists the response artifact of a run.
type ArtifactWriter interface {
	Write(folderPath string, content []byte) error
}

// RunSource hands out queued run messages.
type RunSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.RunMessage, error)
}

// Runner executes evaluation runs outside the request cycle: it reads
// the task folder, invokes the LLM and persists the response artifact,
// driving the correction record through its run-state transitions.
type Runner struct {
	corrections repository.CorrectionRepository
	tasks       TaskReader
	artifacts   ArtifactWriter
	generator   llm.Generator
	notifier    *pubsub.Notifier
	logger      zerolog.Logger
	timeout     time.Duration
}

// NewRunner constructs an evaluation runner.
func NewRunner(corrections repository.CorrectionRepository, tasks TaskReader, artifacts ArtifactWriter, generator llm.Generator, notifier *pubsub.Notifier, timeout time.Duration, logger zerolog.Logger) *Runner {
	return &Runner{
		corrections: corrections,
		tasks:       tasks,
		artifacts:   artifacts,
		generator:   generator,
		notifier:    notifier,
		logger:      logger.With().Str("component", "runner").Logger(),
		timeout:     timeout,
	}
}

// Run consumes the queue until the context is cancelled. Failed runs
// are logged and the loop keeps going; there is no automatic retry.
func (r *Runner) Run(ctx context.Context, source RunSource) {
	r.logger.Info().Msg("evaluation worker started")

	for {
		msg, err := source.Pop(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Info().Msg("evaluation worker stopping")
				return
			}
			r.logger.Error().Err(err).Msg("failed to read run queue")
			continue
		}
		if msg == nil {
			if ctx.Err() != nil {
				r.logger.Info().Msg("evaluation worker stopping")
				return
			}
			continue
		}

		if err := r.Process(ctx, *msg); err != nil {
			r.logger.Error().Err(err).Uint("correction_id", msg.CorrectionID).Msg("evaluation run failed")
		}
	}
}

// Process executes a single queued run to completion or failure.
func (r *Runner) Process(ctx context.Context, msg queue.RunMessage) error {
	correction, err := r.corrections.GetForRun(ctx, msg.CorrectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: id %d", ErrCorrectionGone, msg.CorrectionID)
		}
		return fmt.Errorf("load correction %d: %w", msg.CorrectionID, err)
	}

	// Duration is measured from dispatch, so queue wait counts toward
	// the recorded execution time.
	started := msg.EnqueuedAt
	if started.IsZero() {
		started = time.Now()
	}
	if err := r.evaluate(ctx, correction, started); err != nil {
		r.fail(ctx, correction, err)
		return fmt.Errorf("correction %d: %w", correction.ID, err)
	}

	observability.RunsCompleted().Inc()
	r.notifier.Publish(pubsub.Event{
		Type:         pubsub.EventRunCompleted,
		CorrectionID: correction.ID,
		UserID:       correction.UserID,
		Model:        correction.LLMModel,
	})

	r.logger.Info().
		Uint("correction_id", correction.ID).
		Str("model", correction.LLMModel).
		Dur("elapsed", time.Since(started)).
		Msg("evaluation run completed")
	return nil
}

func (r *Runner) evaluate(ctx context.Context, correction models.Correction, started time.Time) error {
	tasks := r.tasks.ReadTasks(correction.FolderPath)
	prompt := ComposePrompt(correction.Prompt.Prompt, correction.Rubric.Content, tasks)

	genCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	result, err := r.generator.Generate(genCtx, llm.GenerationRequest{
		Model:  correction.LLMModel,
		Prompt: prompt,
		Params: llm.GenerationParams{
			Temperature:   correction.ModelTemp,
			TopP:          correction.ModelTopP,
			TopK:          correction.ModelTopK,
			ContextLength: correction.ModelContextLength,
			OutputFormat:  correction.OutputFormat,
		},
	})
	if err != nil {
		return err
	}

	if correction.OutputFormat == models.OutputFormatJSON {
		if err := validateStructuredOutput(result.Text); err != nil {
			return err
		}
	}

	if err := r.artifacts.Write(correction.FolderPath, []byte(result.Text)); err != nil {
		return err
	}

	return r.corrections.FinishSuccess(ctx, correction.ID, correction.LLMModel, started, datatypes.JSONMap(result.Usage))
}

func (r *Runner) fail(ctx context.Context, correction models.Correction, cause error) {
	// The failure may be the shutdown signal itself; the running-flag
	// reset must still land or the record stays stuck.
	ctx = context.WithoutCancel(ctx)
	if err := r.corrections.FinishFailure(ctx, correction.ID, cause.Error()); err != nil {
		r.logger.Error().Err(err).Uint("correction_id", correction.ID).Msg("failed to reset running flag")
	}

	observability.RunsFailed().Inc()
	r.notifier.Publish(pubsub.Event{
		Type:         pubsub.EventRunFailed,
		CorrectionID: correction.ID,
		UserID:       correction.UserID,
		Model:        correction.LLMModel,
		Error:        cause.Error(),
	})
}

// ComposePrompt concatenates the prompt, the rubric and the serialized
// task files. Files are serialized name-sorted so the composed text is
// deterministic for a given folder.
func ComposePrompt(prompt, rubric string, tasks map[string]string) string {
	builder := strings.Builder{}
	builder.WriteString(prompt)
	builder.WriteString(rubric)
	builder.WriteString("\n")

	for _, name := range storage.SortedNames(tasks) {
		builder.WriteString(name)
		builder.WriteString(":\n")
		builder.WriteString(tasks[name])
		builder.WriteString("\n")
	}

	return builder.String()
}

func validateStructuredOutput(text string) error {
	var value interface{}
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return fmt.Errorf("structured output is not valid JSON: %w", err)
	}
	if err := structuredOutputSchema.Validate(value); err != nil {
		return fmt.Errorf("structured output rejected: %w", err)
	}
	return nil
}
