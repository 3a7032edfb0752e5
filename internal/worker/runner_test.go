package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gradecore/gradecore-api/internal/models"
	"github.com/gradecore/gradecore-api/internal/queue"
	"github.com/gradecore/gradecore-api/pkg/llm"
)

type stubCorrectionRepo struct {
	stored        models.Correction
	loadErr       error
	succeededID   uint
	successModel  string
	successStart  time.Time
	failedID      uint
	failureCause  string
	failureCtxErr error
}

func (s *stubCorrectionRepo) CreateWithFolder(ctx context.Context, correction *models.Correction, attach func(id uint) (string, error)) error {
	return errors.New("not implemented")
}

func (s *stubCorrectionRepo) GetByID(ctx context.Context, id uint, userID uint) (models.Correction, error) {
	return models.Correction{}, errors.New("not implemented")
}

func (s *stubCorrectionRepo) GetForRun(ctx context.Context, id uint) (models.Correction, error) {
	if s.loadErr != nil {
		return models.Correction{}, s.loadErr
	}
	return s.stored, nil
}

func (s *stubCorrectionRepo) ListByUser(ctx context.Context, userID uint) ([]models.Correction, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCorrectionRepo) ListByPrompt(ctx context.Context, promptID uint) ([]models.Correction, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCorrectionRepo) ListByRubric(ctx context.Context, rubricID uint) ([]models.Correction, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCorrectionRepo) Delete(ctx context.Context, correction *models.Correction) error {
	return errors.New("not implemented")
}

func (s *stubCorrectionRepo) MarkRunning(ctx context.Context, id uint) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubCorrectionRepo) ClearRunning(ctx context.Context, id uint) error {
	return errors.New("not implemented")
}

func (s *stubCorrectionRepo) FinishSuccess(ctx context.Context, id uint, model string, startedAt time.Time, usage datatypes.JSONMap) error {
	s.succeededID = id
	s.successModel = model
	s.successStart = startedAt
	return nil
}

func (s *stubCorrectionRepo) FinishFailure(ctx context.Context, id uint, cause string) error {
	s.failedID = id
	s.failureCause = cause
	s.failureCtxErr = ctx.Err()
	return nil
}

type stubTaskReader struct {
	tasks map[string]string
}

func (s stubTaskReader) ReadTasks(folderPath string) map[string]string {
	return s.tasks
}

type stubArtifactWriter struct {
	folder  string
	content []byte
	err     error
}

func (s *stubArtifactWriter) Write(folderPath string, content []byte) error {
	if s.err != nil {
		return s.err
	}
	s.folder = folderPath
	s.content = content
	return nil
}

type stubGenerator struct {
	result  llm.GenerationResult
	err     error
	request llm.GenerationRequest
}

func (s *stubGenerator) Generate(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResult, error) {
	s.request = req
	if s.err != nil {
		return llm.GenerationResult{}, s.err
	}
	return s.result, nil
}

func (s *stubGenerator) ListModels(ctx context.Context) (map[string]struct{}, error) {
	return nil, errors.New("not implemented")
}

func testCorrection() models.Correction {
	return models.Correction{
		ID:                 5,
		UserID:             2,
		LLMModel:           "llama3",
		ModelTemp:          0.8,
		ModelTopP:          0.9,
		ModelTopK:          40,
		ModelContextLength: 4096,
		OutputFormat:       models.OutputFormatText,
		FolderPath:         "corrections/2/5",
		Running:            true,
		Prompt:             models.Prompt{Prompt: "Grade this code. "},
		Rubric:             models.Rubric{Content: "Rubric: correctness."},
	}
}

func newTestRunner(repo *stubCorrectionRepo, generator *stubGenerator, artifacts *stubArtifactWriter, tasks map[string]string) *Runner {
	return NewRunner(repo, stubTaskReader{tasks: tasks}, artifacts, generator, nil, time.Minute, zerolog.Nop())
}

func TestRunnerProcessCompletesRun(t *testing.T) {
	repo := &stubCorrectionRepo{stored: testCorrection()}
	generator := &stubGenerator{result: llm.GenerationResult{Text: "8/10, solid work", Usage: map[string]interface{}{"total_tokens": 120}}}
	artifacts := &stubArtifactWriter{}
	runner := newTestRunner(repo, generator, artifacts, map[string]string{"Main.java": "class Main {}"})

	err := runner.Process(context.Background(), runMessage(5))
	require.NoError(t, err)

	require.EqualValues(t, 5, repo.succeededID)
	require.Equal(t, "llama3", repo.successModel)
	require.Zero(t, repo.failedID)
	require.Equal(t, "corrections/2/5", artifacts.folder)
	require.Equal(t, "8/10, solid work", string(artifacts.content))
	require.Equal(t, "llama3", generator.request.Model)
	require.Contains(t, generator.request.Prompt, "class Main {}")
}

func TestRunnerProcessRecordsFailure(t *testing.T) {
	repo := &stubCorrectionRepo{stored: testCorrection()}
	generator := &stubGenerator{err: errors.New("backend refused")}
	artifacts := &stubArtifactWriter{}
	runner := newTestRunner(repo, generator, artifacts, nil)

	err := runner.Process(context.Background(), runMessage(5))
	require.Error(t, err)

	require.EqualValues(t, 5, repo.failedID)
	require.Contains(t, repo.failureCause, "backend refused")
	require.Zero(t, repo.succeededID)
	require.Empty(t, artifacts.folder)
}

func TestRunnerProcessStampsDurationFromDispatch(t *testing.T) {
	repo := &stubCorrectionRepo{stored: testCorrection()}
	generator := &stubGenerator{result: llm.GenerationResult{Text: "done"}}
	runner := newTestRunner(repo, generator, &stubArtifactWriter{}, nil)

	dispatched := time.Now().Add(-10 * time.Second).UTC()
	msg := runMessage(5)
	msg.EnqueuedAt = dispatched

	require.NoError(t, runner.Process(context.Background(), msg))
	require.Equal(t, dispatched, repo.successStart)
}

func TestRunnerProcessFallsBackToNowWithoutDispatchStamp(t *testing.T) {
	repo := &stubCorrectionRepo{stored: testCorrection()}
	generator := &stubGenerator{result: llm.GenerationResult{Text: "done"}}
	runner := newTestRunner(repo, generator, &stubArtifactWriter{}, nil)

	before := time.Now()
	require.NoError(t, runner.Process(context.Background(), runMessage(5)))
	require.False(t, repo.successStart.Before(before))
}

func TestRunnerRecordsFailureAfterCancellation(t *testing.T) {
	repo := &stubCorrectionRepo{stored: testCorrection()}
	generator := &stubGenerator{err: context.Canceled}
	runner := newTestRunner(repo, generator, &stubArtifactWriter{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.Process(ctx, runMessage(5))
	require.Error(t, err)
	require.EqualValues(t, 5, repo.failedID)
	require.NoError(t, repo.failureCtxErr)
}

func TestRunnerProcessMissingCorrection(t *testing.T) {
	repo := &stubCorrectionRepo{loadErr: gorm.ErrRecordNotFound}
	runner := newTestRunner(repo, &stubGenerator{}, &stubArtifactWriter{}, nil)

	err := runner.Process(context.Background(), runMessage(99))
	require.ErrorIs(t, err, ErrCorrectionGone)
}

func TestRunnerRejectsMalformedStructuredOutput(t *testing.T) {
	correction := testCorrection()
	correction.OutputFormat = models.OutputFormatJSON
	repo := &stubCorrectionRepo{stored: correction}
	generator := &stubGenerator{result: llm.GenerationResult{Text: "this is not json"}}
	artifacts := &stubArtifactWriter{}
	runner := newTestRunner(repo, generator, artifacts, nil)

	err := runner.Process(context.Background(), runMessage(5))
	require.Error(t, err)
	require.EqualValues(t, 5, repo.failedID)
	require.Empty(t, artifacts.folder)
}

func TestRunnerAcceptsStructuredOutputObject(t *testing.T) {
	correction := testCorrection()
	correction.OutputFormat = models.OutputFormatJSON
	repo := &stubCorrectionRepo{stored: correction}
	generator := &stubGenerator{result: llm.GenerationResult{Text: `{"score": 8, "feedback": "good"}`}}
	artifacts := &stubArtifactWriter{}
	runner := newTestRunner(repo, generator, artifacts, nil)

	err := runner.Process(context.Background(), runMessage(5))
	require.NoError(t, err)
	require.EqualValues(t, 5, repo.succeededID)
}

func TestComposePromptSerializesTasksInOrder(t *testing.T) {
	tasks := map[string]string{
		"b.java": "class B {}",
		"a.java": "class A {}",
	}

	composed := ComposePrompt("Grade it. ", "Rubric.", tasks)
	require.Equal(t, "Grade it. Rubric.\na.java:\nclass A {}\nb.java:\nclass B {}\n", composed)
}

func runMessage(id uint) queue.RunMessage {
	return queue.RunMessage{CorrectionID: id, UserID: 2}
}
