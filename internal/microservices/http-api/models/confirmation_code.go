package models

import (
	"time"
)

// ConfirmationCode is a pending one-time code waiting to be exchanged for a token.
// Only the bcrypt hash of the code is stored.
type ConfirmationCode struct {
	Email     string    `gorm:"primaryKey;size:254" json:"email"`
	CodeHash  string    `gorm:"not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (ConfirmationCode) TableName() string {
	return "confirmation_codes"
}

func (c *ConfirmationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
