package models

import "time"

// Rubric is a named grading criteria text concatenated after the prompt
// when composing an evaluation request. Names are unique per owner.
type Rubric struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_rubrics_user_name" json:"user_id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_rubrics_user_name" json:"name"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
