package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gradecore/gradecore-api/internal/models"
)

// CorrectionRepository exposes persistence helpers for corrections,
// including the run-state transitions of the record.
type CorrectionRepository interface {
	CreateWithFolder(ctx context.Context, correction *models.Correction, attach func(id uint) (string, error)) error
	GetByID(ctx context.Context, id uint, userID uint) (models.Correction, error)
	GetForRun(ctx context.Context, id uint) (models.Correction, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Correction, error)
	ListByPrompt(ctx context.Context, promptID uint) ([]models.Correction, error)
	ListByRubric(ctx context.Context, rubricID uint) ([]models.Correction, error)
	Delete(ctx context.Context, correction *models.Correction) error
	MarkRunning(ctx context.Context, id uint) (bool, error)
	ClearRunning(ctx context.Context, id uint) error
	FinishSuccess(ctx context.Context, id uint, model string, startedAt time.Time, usage datatypes.JSONMap) error
	FinishFailure(ctx context.Context, id uint, cause string) error
}

// NewCorrectionRepository constructs a correction repository.
func NewCorrectionRepository(db *gorm.DB) CorrectionRepository {
	return &correctionRepository{db: db}
}

type correctionRepository struct {
	db *gorm.DB
}

// CreateWithFolder inserts the correction and attaches the folder path
// produced by attach in a single transaction, so a row never becomes
// visible without its extracted files.
func (r *correctionRepository) CreateWithFolder(ctx context.Context, correction *models.Correction, attach func(id uint) (string, error)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(correction).Error; err != nil {
			return err
		}

		folderPath, err := attach(correction.ID)
		if err != nil {
			return err
		}

		correction.FolderPath = folderPath
		return tx.Model(correction).Update("folder_path", folderPath).Error
	})
}

func (r *correctionRepository) GetByID(ctx context.Context, id uint, userID uint) (models.Correction, error) {
	var correction models.Correction
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&correction).Error
	if err != nil {
		return models.Correction{}, err
	}
	return correction, nil
}

// GetForRun loads the correction together with its prompt and rubric
// texts. It is not scoped by user: the worker trusts the queued message.
func (r *correctionRepository) GetForRun(ctx context.Context, id uint) (models.Correction, error) {
	var correction models.Correction
	err := r.db.WithContext(ctx).
		Preload("Prompt").
		Preload("Rubric").
		First(&correction, id).Error
	if err != nil {
		return models.Correction{}, err
	}
	return correction, nil
}

func (r *correctionRepository) ListByUser(ctx context.Context, userID uint) ([]models.Correction, error) {
	var corrections []models.Correction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&corrections).Error
	return corrections, err
}

// ListByPrompt returns the corrections the prompt is attached to, so
// their folders can be swept before the cascade removes the rows.
func (r *correctionRepository) ListByPrompt(ctx context.Context, promptID uint) ([]models.Correction, error) {
	var corrections []models.Correction
	err := r.db.WithContext(ctx).
		Where("prompt_id = ?", promptID).
		Find(&corrections).Error
	return corrections, err
}

// ListByRubric returns the corrections the rubric is attached to.
func (r *correctionRepository) ListByRubric(ctx context.Context, rubricID uint) ([]models.Correction, error) {
	var corrections []models.Correction
	err := r.db.WithContext(ctx).
		Where("rubric_id = ?", rubricID).
		Find(&corrections).Error
	return corrections, err
}

func (r *correctionRepository) Delete(ctx context.Context, correction *models.Correction) error {
	return r.db.WithContext(ctx).Delete(correction).Error
}

// MarkRunning flips the running flag with a compare-and-set update. It
// returns false when the record is already running, so two concurrent
// run triggers cannot both dispatch a task for the same id.
func (r *correctionRepository) MarkRunning(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Correction{}).
		Where("id = ? AND running = ?", id, false).
		Update("running", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *correctionRepository) ClearRunning(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Correction{}).
		Where("id = ?", id).
		Update("running", false).Error
}

// FinishSuccess applies the success transition as one record update:
// timing stamps, the model actually used, token usage, and the cleared
// running flag and error field.
func (r *correctionRepository) FinishSuccess(ctx context.Context, id uint, model string, startedAt time.Time, usage datatypes.JSONMap) error {
	now := time.Now().UTC()
	elapsed := now.Sub(startedAt).Seconds()
	return r.db.WithContext(ctx).
		Model(&models.Correction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"running":             false,
			"llm_model":           model,
			"last_execution_date": now,
			"time_last_execution": elapsed,
			"last_error":          "",
			"last_usage":          usage,
		}).Error
}

// FinishFailure applies the failure transition: the running flag is
// cleared and the cause recorded, while the previous execution stamps
// stay untouched.
func (r *correctionRepository) FinishFailure(ctx context.Context, id uint, cause string) error {
	return r.db.WithContext(ctx).
		Model(&models.Correction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"running":    false,
			"last_error": cause,
		}).Error
}
