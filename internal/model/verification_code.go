package model

import "time"

// VerificationEmailIndex enforces one code row per email.
const VerificationEmailIndex = "uidx_verification_codes_email"

// VerificationCode is a short-lived signup challenge keyed by normalized email.
type VerificationCode struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"size:255;not null;uniqueIndex:uidx_verification_codes_email"`
	Code      string    `gorm:"size:6;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Attempts  int       `gorm:"not null"`
	CreatedAt time.Time
}

// TableName pins the table to the name used by the rest of the platform.
func (VerificationCode) TableName() string {
	return "email_verification_codes"
}
