package dto

import (
	"time"

	"github.com/gradecore/gradecore-api/internal/models"
)

// PromptRequest carries the fields for creating or updating a prompt.
type PromptRequest struct {
	Name   string `json:"name" validate:"required,max=255"`
	Prompt string `json:"prompt" validate:"required"`
}

// PromptResponse is the API representation of a prompt.
type PromptResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPromptResponse maps a prompt model onto its API shape.
func NewPromptResponse(p models.Prompt) PromptResponse {
	return PromptResponse{
		ID:        p.ID,
		Name:      p.Name,
		Prompt:    p.Prompt,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// NewPromptResponses maps a slice of prompts.
func NewPromptResponses(items []models.Prompt) []PromptResponse {
	responses := make([]PromptResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewPromptResponse(item))
	}
	return responses
}
