package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradecore/gradecore-api/internal/models"
)

// RubricRepository exposes persistence helpers for rubrics.
type RubricRepository interface {
	Create(ctx context.Context, rubric *models.Rubric) error
	GetByID(ctx context.Context, id uint, userID uint) (models.Rubric, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Rubric, error)
	Update(ctx context.Context, rubric *models.Rubric) error
	Delete(ctx context.Context, rubric *models.Rubric) error
}

// NewRubricRepository constructs a rubric repository.
func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

type rubricRepository struct {
	db *gorm.DB
}

func (r *rubricRepository) Create(ctx context.Context, rubric *models.Rubric) error {
	return r.db.WithContext(ctx).Create(rubric).Error
}

func (r *rubricRepository) GetByID(ctx context.Context, id uint, userID uint) (models.Rubric, error) {
	var rubric models.Rubric
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&rubric).Error
	if err != nil {
		return models.Rubric{}, err
	}
	return rubric, nil
}

func (r *rubricRepository) ListByUser(ctx context.Context, userID uint) ([]models.Rubric, error) {
	var rubrics []models.Rubric
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&rubrics).Error
	return rubrics, err
}

func (r *rubricRepository) Update(ctx context.Context, rubric *models.Rubric) error {
	return r.db.WithContext(ctx).Save(rubric).Error
}

func (r *rubricRepository) Delete(ctx context.Context, rubric *models.Rubric) error {
	return r.db.WithContext(ctx).Delete(rubric).Error
}
