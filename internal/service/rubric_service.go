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

// ErrRubricNameTaken indicates the user already owns a rubric with that name.
var ErrRubricNameTaken = errors.New("rubric name already in use")

// RubricService exposes CRUD over a user's rubrics.
type RubricService interface {
	Create(ctx context.Context, userID uint, payload dto.RubricRequest) (dto.RubricResponse, error)
	List(ctx context.Context, userID uint) ([]dto.RubricResponse, error)
	Get(ctx context.Context, id uint, userID uint) (dto.RubricResponse, error)
	Update(ctx context.Context, id uint, userID uint, payload dto.RubricRequest) (dto.RubricResponse, error)
	Delete(ctx context.Context, id uint, userID uint) error
}

type rubricService struct {
	rubrics     repository.RubricRepository
	corrections repository.CorrectionRepository
	cleanup     FolderCleanup
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewRubricService constructs a rubric service.
func NewRubricService(rubrics repository.RubricRepository, corrections repository.CorrectionRepository, cleanup FolderCleanup, validate *validator.Validate, logger zerolog.Logger) RubricService {
	return &rubricService{
		rubrics:     rubrics,
		corrections: corrections,
		cleanup:     cleanup,
		validator:   validate,
		logger:      logger.With().Str("component", "rubric_service").Logger(),
	}
}

func (s *rubricService) Create(ctx context.Context, userID uint, payload dto.RubricRequest) (dto.RubricResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricResponse{}, err
	}

	rubric := models.Rubric{
		UserID:  userID,
		Name:    payload.Name,
		Content: payload.Content,
	}
	if err := s.rubrics.Create(ctx, &rubric); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.RubricResponse{}, ErrRubricNameTaken
		}
		return dto.RubricResponse{}, err
	}

	return dto.NewRubricResponse(rubric), nil
}

func (s *rubricService) List(ctx context.Context, userID uint) ([]dto.RubricResponse, error) {
	rubrics, err := s.rubrics.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewRubricResponses(rubrics), nil
}

func (s *rubricService) Get(ctx context.Context, id uint, userID uint) (dto.RubricResponse, error) {
	rubric, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return dto.RubricResponse{}, err
	}
	return dto.NewRubricResponse(rubric), nil
}

func (s *rubricService) Update(ctx context.Context, id uint, userID uint, payload dto.RubricRequest) (dto.RubricResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricResponse{}, err
	}

	rubric, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return dto.RubricResponse{}, err
	}

	rubric.Name = payload.Name
	rubric.Content = payload.Content
	if err := s.rubrics.Update(ctx, &rubric); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.RubricResponse{}, ErrRubricNameTaken
		}
		return dto.RubricResponse{}, err
	}

	return dto.NewRubricResponse(rubric), nil
}

// Delete removes the rubric. Corrections referencing it are removed by
// the database cascade, so their folders are swept here first.
func (s *rubricService) Delete(ctx context.Context, id uint, userID uint) error {
	rubric, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	corrections, err := s.corrections.ListByRubric(ctx, rubric.ID)
	if err != nil {
		return err
	}
	for _, correction := range corrections {
		s.cleanup.DeleteAll(correction.FolderPath)
	}

	return s.rubrics.Delete(ctx, &rubric)
}

func (s *rubricService) getOwned(ctx context.Context, id uint, userID uint) (models.Rubric, error) {
	rubric, err := s.rubrics.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Rubric{}, ErrRubricNotFound
		}
		return models.Rubric{}, err
	}
	return rubric, nil
}
