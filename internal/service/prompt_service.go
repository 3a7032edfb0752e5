package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradecore/gradecore-api/internal/dto"
	"github.com/gradecore/gradecore-api/internal/models"
	"github.com/gradecore/gradecore-api/internal/repository"
)

// ErrPromptNameTaken indicates the user already owns a prompt with that name.
var ErrPromptNameTaken = errors.New("prompt name already in use")

// FolderCleanup removes a correction's media folder tree. The database
// cascade only removes rows; the files must be swept explicitly.
type FolderCleanup interface {
	DeleteAll(folderPath string)
}

// PromptService exposes CRUD over a user's prompts.
type PromptService interface {
	Create(ctx context.Context, userID uint, payload dto.PromptRequest) (dto.PromptResponse, error)
	List(ctx context.Context, userID uint) ([]dto.PromptResponse, error)
	Get(ctx context.Context, id uint, userID uint) (dto.PromptResponse, error)
	Update(ctx context.Context, id uint, userID uint, payload dto.PromptRequest) (dto.PromptResponse, error)
	Delete(ctx context.Context, id uint, userID uint) error
}

type promptService struct {
	prompts     repository.PromptRepository
	corrections repository.CorrectionRepository
	cleanup     FolderCleanup
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewPromptService constructs a prompt service.
func NewPromptService(prompts repository.PromptRepository, corrections repository.CorrectionRepository, cleanup FolderCleanup, validate *validator.Validate, logger zerolog.Logger) PromptService {
	return &promptService{
		prompts:     prompts,
		corrections: corrections,
		cleanup:     cleanup,
		validator:   validate,
		logger:      logger.With().Str("component", "prompt_service").Logger(),
	}
}

func (s *promptService) Create(ctx context.Context, userID uint, payload dto.PromptRequest) (dto.PromptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PromptResponse{}, err
	}

	prompt := models.Prompt{
		UserID: userID,
		Name:   payload.Name,
		Prompt: payload.Prompt,
	}
	if err := s.prompts.Create(ctx, &prompt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.PromptResponse{}, ErrPromptNameTaken
		}
		return dto.PromptResponse{}, err
	}

	return dto.NewPromptResponse(prompt), nil
}

func (s *promptService) List(ctx context.Context, userID uint) ([]dto.PromptResponse, error) {
	prompts, err := s.prompts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewPromptResponses(prompts), nil
}

func (s *promptService) Get(ctx context.Context, id uint, userID uint) (dto.PromptResponse, error) {
	prompt, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return dto.PromptResponse{}, err
	}
	return dto.NewPromptResponse(prompt), nil
}

func (s *promptService) Update(ctx context.Context, id uint, userID uint, payload dto.PromptRequest) (dto.PromptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PromptResponse{}, err
	}

	prompt, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return dto.PromptResponse{}, err
	}

	prompt.Name = payload.Name
	prompt.Prompt = payload.Prompt
	if err := s.prompts.Update(ctx, &prompt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.PromptResponse{}, ErrPromptNameTaken
		}
		return dto.PromptResponse{}, err
	}

	return dto.NewPromptResponse(prompt), nil
}

// Delete removes the prompt. Corrections referencing it are removed by
// the database cascade, so their folders are swept here first.
func (s *promptService) Delete(ctx context.Context, id uint, userID uint) error {
	prompt, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	corrections, err := s.corrections.ListByPrompt(ctx, prompt.ID)
	if err != nil {
		return err
	}
	for _, correction := range corrections {
		s.cleanup.DeleteAll(correction.FolderPath)
	}

	return s.prompts.Delete(ctx, &prompt)
}

func (s *promptService) getOwned(ctx context.Context, id uint, userID uint) (models.Prompt, error) {
	prompt, err := s.prompts.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Prompt{}, ErrPromptNotFound
		}
		return models.Prompt{}, err
	}
	return prompt, nil
}
