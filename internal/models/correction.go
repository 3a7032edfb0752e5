package models

import (
	"time"

	"gorm.io/datatypes"
)

// OutputFormat values accepted for a correction run.
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// ContextLengths enumerates the accepted model context window sizes.
var ContextLengths = []int{2048, 4096, 8192}

// Correction represents one grading run: the uploaded submission batch,
// the decoding parameters for the LLM and the execution bookkeeping.
// Deleting the owning user, prompt or rubric cascades to the correction.
type Correction struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	UserID             uint              `gorm:"not null;index" json:"user_id"`
	PromptID           uint              `gorm:"not null" json:"prompt_id"`
	RubricID           uint              `gorm:"not null" json:"rubric_id"`
	Description        string            `gorm:"type:text" json:"description"`
	LLMModel           string            `gorm:"size:255;not null" json:"llm_model"`
	ModelTemp          float32           `gorm:"default:0.8" json:"model_temp"`
	ModelTopP          float32           `gorm:"default:0.9" json:"model_top_p"`
	ModelTopK          int               `gorm:"default:40" json:"model_top_k"`
	ModelContextLength int               `gorm:"default:4096" json:"model_context_length"`
	OutputFormat       string            `gorm:"size:16;default:text" json:"output_format"`
	FolderPath         string            `gorm:"size:255" json:"folder_path"`
	Running            bool              `gorm:"default:false" json:"running"`
	LastExecutionDate  *time.Time        `json:"last_execution_date,omitempty"`
	TimeLastExecution  *float64          `json:"time_last_execution,omitempty"`
	LastError          string            `gorm:"type:text" json:"last_error,omitempty"`
	LastUsage          datatypes.JSONMap `json:"last_usage,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	User               User              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Prompt             Prompt            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Rubric             Rubric            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// HasRun reports whether the correction has completed at least one run.
func (c Correction) HasRun() bool {
	return c.LastExecutionDate != nil
}

// ValidContextLength reports whether n is one of the accepted window sizes.
func ValidContextLength(n int) bool {
	for _, allowed := range ContextLengths {
		if n == allowed {
			return true
		}
	}
	return false
}
