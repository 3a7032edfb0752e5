package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradecore/gradecore-api/internal/models"
)

// PromptRepository exposes persistence helpers for prompts.
type PromptRepository interface {
	Create(ctx context.Context, prompt *models.Prompt) error
	GetByID(ctx context.Context, id uint, userID uint) (models.Prompt, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Prompt, error)
	Update(ctx context.Context, prompt *models.Prompt) error
	Delete(ctx context.Context, prompt *models.Prompt) error
}

// NewPromptRepository constructs a prompt repository.
func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &promptRepository{db: db}
}

type promptRepository struct {
	db *gorm.DB
}

func (r *promptRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	return r.db.WithContext(ctx).Create(prompt).Error
}

func (r *promptRepository) GetByID(ctx context.Context, id uint, userID uint) (models.Prompt, error) {
	var prompt models.Prompt
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&prompt).Error
	if err != nil {
		return models.Prompt{}, err
	}
	return prompt, nil
}

func (r *promptRepository) ListByUser(ctx context.Context, userID uint) ([]models.Prompt, error) {
	var prompts []models.Prompt
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&prompts).Error
	return prompts, err
}

func (r *promptRepository) Update(ctx context.Context, prompt *models.Prompt) error {
	return r.db.WithContext(ctx).Save(prompt).Error
}

func (r *promptRepository) Delete(ctx context.Context, prompt *models.Prompt) error {
	return r.db.WithContext(ctx).Delete(prompt).Error
}
