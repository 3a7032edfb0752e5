package dto

import (
	"time"

	"github.com/gradecore/gradecore-api/internal/models"
)

// RubricRequest carries the fields for creating or updating a rubric.
type RubricRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

// RubricResponse is the API representation of a rubric.
type RubricResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRubricResponse maps a rubric model onto its API shape.
func NewRubricResponse(r models.Rubric) RubricResponse {
	return RubricResponse{
		ID:        r.ID,
		Name:      r.Name,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// NewRubricResponses maps a slice of rubrics.
func NewRubricResponses(items []models.Rubric) []RubricResponse {
	responses := make([]RubricResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewRubricResponse(item))
	}
	return responses
}
