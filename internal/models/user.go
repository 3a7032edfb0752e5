package models

import "time"

// User is the owner of prompts, rubrics and corrections. Account
// management lives elsewhere; the row exists for referential integrity.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"size:255" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
