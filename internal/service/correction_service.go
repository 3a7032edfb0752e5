package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradecore/gradecore-api/internal/dto"
	"github.com/gradecore/gradecore-api/internal/models"
	"github.com/gradecore/gradecore-api/internal/observability"
	"github.com/gradecore/gradecore-api/internal/queue"
	"github.com/gradecore/gradecore-api/internal/repository"
	"github.com/gradecore/gradecore-api/internal/storage"
	"github.com/gradecore/gradecore-api/pkg/llm"
)

// Sentinel errors surfaced by the correction service.
var (
	ErrCorrectionNotFound = errors.New("correction not found")
	ErrPromptNotFound     = errors.New("prompt not found")
	ErrRubricNotFound     = errors.New("rubric not found")
	ErrCorrectionRunning  = errors.New("correction already running")
	ErrModelUnavailable   = errors.New("requested model is not available")
	ErrResponseNotFound   = errors.New("no response artifact for this correction")
)

// ArchiveUpload is the uploaded submission archive handed to Create.
type ArchiveUpload struct {
	Filename string
	Content  io.Reader
}

// Extractor unpacks a submission archive into the media tree.
type Extractor interface {
	Extract(name string, r io.Reader, userID, correctionID uint) (string, error)
}

// ResponseStore serves the response artifact and owns folder cleanup.
// It is registered as the on-delete collaborator of a correction.
type ResponseStore interface {
	Open(folderPath string) (io.ReadCloser, error)
	DeleteAll(folderPath string)
}

// RunDispatcher enqueues evaluation runs for the worker pool.
type RunDispatcher interface {
	Push(ctx context.Context, msg queue.RunMessage) error
}

// CorrectionService exposes the correction lifecycle operations.
type CorrectionService interface {
	Create(ctx context.Context, userID uint, payload dto.CreateCorrectionRequest, archive ArchiveUpload) (dto.CorrectionResponse, error)
	List(ctx context.Context, userID uint) ([]dto.CorrectionResponse, error)
	Get(ctx context.Context, id uint, userID uint) (dto.CorrectionResponse, error)
	Run(ctx context.Context, id uint, userID uint) error
	OpenResponse(ctx context.Context, id uint, userID uint) (io.ReadCloser, error)
	Delete(ctx context.Context, id uint, userID uint) error
}

type correctionService struct {
	corrections repository.CorrectionRepository
	prompts     repository.PromptRepository
	rubrics     repository.RubricRepository
	extractor   Extractor
	responses   ResponseStore
	dispatcher  RunDispatcher
	generator   llm.Generator
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewCorrectionService constructs the correction service.
func NewCorrectionService(corrections repository.CorrectionRepository, prompts repository.PromptRepository, rubrics repository.RubricRepository, extractor Extractor, responses ResponseStore, dispatcher RunDispatcher, generator llm.Generator, validate *validator.Validate, logger zerolog.Logger) CorrectionService {
	return &correctionService{
		corrections: corrections,
		prompts:     prompts,
		rubrics:     rubrics,
		extractor:   extractor,
		responses:   responses,
		dispatcher:  dispatcher,
		generator:   generator,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "correction_service").Logger(),
	}
}

// Create validates the form, checks prompt and rubric ownership and
// inserts the record together with its extracted folder in one
// transaction, so no correction is ever visible without its files.
func (s *correctionService) Create(ctx context.Context, userID uint, payload dto.CreateCorrectionRequest, archive ArchiveUpload) (dto.CorrectionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CorrectionResponse{}, err
	}

	if _, err := s.prompts.GetByID(ctx, payload.PromptID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CorrectionResponse{}, ErrPromptNotFound
		}
		return dto.CorrectionResponse{}, err
	}
	if _, err := s.rubrics.GetByID(ctx, payload.RubricID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CorrectionResponse{}, ErrRubricNotFound
		}
		return dto.CorrectionResponse{}, err
	}

	correction := models.Correction{
		UserID:             userID,
		PromptID:           payload.PromptID,
		RubricID:           payload.RubricID,
		Description:        s.sanitizer.Sanitize(payload.Description),
		LLMModel:           payload.LLMModel,
		ModelTemp:          0.8,
		ModelTopP:          0.9,
		ModelTopK:          40,
		ModelContextLength: 4096,
		OutputFormat:       models.OutputFormatText,
	}
	if payload.ModelTemp != nil {
		correction.ModelTemp = *payload.ModelTemp
	}
	if payload.ModelTopP != nil {
		correction.ModelTopP = *payload.ModelTopP
	}
	if payload.ModelTopK != nil {
		correction.ModelTopK = *payload.ModelTopK
	}
	if payload.ModelContextLength != nil {
		correction.ModelContextLength = *payload.ModelContextLength
	}
	if payload.OutputFormat != "" {
		correction.OutputFormat = payload.OutputFormat
	}

	var extractedFolder string
	err := s.corrections.CreateWithFolder(ctx, &correction, func(id uint) (string, error) {
		folder, err := s.extractor.Extract(archive.Filename, archive.Content, userID, id)
		if err != nil {
			return "", err
		}
		extractedFolder = folder
		return folder, nil
	})
	if err != nil {
		// A rollback after extraction leaves the folder with no owning
		// row; sweep it.
		if extractedFolder != "" {
			s.responses.DeleteAll(extractedFolder)
		}
		s.countRejection(err)
		return dto.CorrectionResponse{}, err
	}

	s.logger.Info().Uint("correction_id", correction.ID).Uint("user_id", userID).Msg("correction created")
	return dto.NewCorrectionResponse(correction), nil
}

func (s *correctionService) List(ctx context.Context, userID uint) ([]dto.CorrectionResponse, error) {
	corrections, err := s.corrections.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewCorrectionResponses(corrections), nil
}

func (s *correctionService) Get(ctx context.Context, id uint, userID uint) (dto.CorrectionResponse, error) {
	correction, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return dto.CorrectionResponse{}, err
	}
	return dto.NewCorrectionResponse(correction), nil
}

// Run dispatches an evaluation for the correction. The requested model
// must be loaded on the backend, and the running flag is flipped with a
// compare-and-set before the task is enqueued, so a concurrent trigger
// for the same id gets ErrCorrectionRunning instead of a second task.
func (s *correctionService) Run(ctx context.Context, id uint, userID uint) error {
	correction, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	available, err := s.generator.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if _, ok := available[correction.LLMModel]; !ok {
		return fmt.Errorf("%w: %s", ErrModelUnavailable, correction.LLMModel)
	}

	marked, err := s.corrections.MarkRunning(ctx, correction.ID)
	if err != nil {
		return err
	}
	if !marked {
		return ErrCorrectionRunning
	}

	msg := queue.RunMessage{
		CorrectionID: correction.ID,
		UserID:       userID,
		EnqueuedAt:   time.Now().UTC(),
	}
	if err := s.dispatcher.Push(ctx, msg); err != nil {
		if clearErr := s.corrections.ClearRunning(ctx, correction.ID); clearErr != nil {
			s.logger.Error().Err(clearErr).Uint("correction_id", correction.ID).Msg("failed to clear running flag after enqueue failure")
		}
		return fmt.Errorf("dispatch run: %w", err)
	}

	observability.RunsEnqueued().Inc()
	s.logger.Info().Uint("correction_id", correction.ID).Str("model", correction.LLMModel).Msg("evaluation run enqueued")
	return nil
}

// OpenResponse returns the response artifact for download.
func (s *correctionService) OpenResponse(ctx context.Context, id uint, userID uint) (io.ReadCloser, error) {
	correction, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	stream, err := s.responses.Open(correction.FolderPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrResponseNotFound
		}
		return nil, err
	}
	return stream, nil
}

// Delete removes the record after firing the folder cleanup hook. The
// cleanup is best effort and never blocks the deletion itself.
func (s *correctionService) Delete(ctx context.Context, id uint, userID uint) error {
	correction, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	s.responses.DeleteAll(correction.FolderPath)

	if err := s.corrections.Delete(ctx, &correction); err != nil {
		return err
	}

	s.logger.Info().Uint("correction_id", id).Uint("user_id", userID).Msg("correction deleted")
	return nil
}

func (s *correctionService) getOwned(ctx context.Context, id uint, userID uint) (models.Correction, error) {
	correction, err := s.corrections.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Correction{}, ErrCorrectionNotFound
		}
		return models.Correction{}, err
	}
	return correction, nil
}

func (s *correctionService) countRejection(err error) {
	switch {
	case errors.Is(err, storage.ErrArchiveType):
		observability.ArchivesRejected().WithLabelValues("type").Inc()
	case errors.Is(err, storage.ErrArchiveTooLarge):
		observability.ArchivesRejected().WithLabelValues("size").Inc()
	case errors.Is(err, storage.ErrArchiveCorrupt):
		observability.ArchivesRejected().WithLabelValues("corrupt").Inc()
	}
}
