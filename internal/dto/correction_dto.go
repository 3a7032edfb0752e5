package dto

import (
	"time"

	"github.com/gradecore/gradecore-api/internal/models"
)

// CreateCorrectionRequest carries the form fields of a new correction.
// The archive itself travels separately as a multipart file.
type CreateCorrectionRequest struct {
	Description        string   `json:"description" form:"description" validate:"required"`
	LLMModel           string   `json:"llm_model" form:"llm_model" validate:"required"`
	PromptID           uint     `json:"prompt_id" form:"prompt_id" validate:"required"`
	RubricID           uint     `json:"rubric_id" form:"rubric_id" validate:"required"`
	ModelTemp          *float32 `json:"model_temp" form:"model_temp" validate:"omitempty,gte=0,lte=1"`
	ModelTopP          *float32 `json:"model_top_p" form:"model_top_p" validate:"omitempty,gte=0,lte=1"`
	ModelTopK          *int     `json:"model_top_k" form:"model_top_k" validate:"omitempty,gte=0,lte=100"`
	ModelContextLength *int     `json:"model_context_length" form:"model_context_length" validate:"omitempty,oneof=2048 4096 8192"`
	OutputFormat       string   `json:"output_format" form:"output_format" validate:"omitempty,oneof=text json"`
}

// CorrectionResponse is the API representation of a correction record.
type CorrectionResponse struct {
	ID                 uint                   `json:"id"`
	Description        string                 `json:"description"`
	LLMModel           string                 `json:"llm_model"`
	PromptID           uint                   `json:"prompt_id"`
	RubricID           uint                   `json:"rubric_id"`
	ModelTemp          float32                `json:"model_temp"`
	ModelTopP          float32                `json:"model_top_p"`
	ModelTopK          int                    `json:"model_top_k"`
	ModelContextLength int                    `json:"model_context_length"`
	OutputFormat       string                 `json:"output_format"`
	FolderPath         string                 `json:"folder_path"`
	Running            bool                   `json:"running"`
	LastExecutionDate  *time.Time             `json:"last_execution_date,omitempty"`
	TimeLastExecution  *float64               `json:"time_last_execution,omitempty"`
	LastError          string                 `json:"last_error,omitempty"`
	LastUsage          map[string]interface{} `json:"last_usage,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

// NewCorrectionResponse maps a correction model onto its API shape.
func NewCorrectionResponse(c models.Correction) CorrectionResponse {
	return CorrectionResponse{
		ID:                 c.ID,
		Description:        c.Description,
		LLMModel:           c.LLMModel,
		PromptID:           c.PromptID,
		RubricID:           c.RubricID,
		ModelTemp:          c.ModelTemp,
		ModelTopP:          c.ModelTopP,
		ModelTopK:          c.ModelTopK,
		ModelContextLength: c.ModelContextLength,
		OutputFormat:       c.OutputFormat,
		FolderPath:         c.FolderPath,
		Running:            c.Running,
		LastExecutionDate:  c.LastExecutionDate,
		TimeLastExecution:  c.TimeLastExecution,
		LastError:          c.LastError,
		LastUsage:          c.LastUsage,
		CreatedAt:          c.CreatedAt,
	}
}

// NewCorrectionResponses maps a slice of corrections.
func NewCorrectionResponses(items []models.Correction) []CorrectionResponse {
	responses := make([]CorrectionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewCorrectionResponse(item))
	}
	return responses
}
