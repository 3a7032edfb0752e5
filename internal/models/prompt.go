package models

import "time"

// Prompt is a named instruction text that is prepended to every
// evaluation request sent to the LLM. Names are unique per owner.
type Prompt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_prompts_user_name" json:"user_id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_prompts_user_name" json:"name"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
