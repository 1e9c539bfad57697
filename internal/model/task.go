package model

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User       User       `gorm:"foreignKey:UserID"`
	Categories []Category `gorm:"many2many:task_categories"`
}

// PrimaryCategoryID returns the category the task is shown under on a board.
// The link table is many-to-many, but the API only ever attaches or syncs a
// single category, so the first link is the only meaningful one.
func (t *Task) PrimaryCategoryID() *uuid.UUID {
	if len(t.Categories) == 0 {
		return nil
	}
	id := t.Categories[0].ID
	return &id
}
