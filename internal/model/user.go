package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns tasks and categories. Emails are stored normalized, so sign-in is
// case-insensitive.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Email          string    `gorm:"uniqueIndex;not null"`
	HashedPassword string    `gorm:"not null"`
	Name           string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (u *User) BeforeSave(*gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
