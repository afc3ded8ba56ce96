package model

import (
	"strings"
	"time"
)

// Provider values recorded on users.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// User represents an account holder. Email is stored lowercased.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash *string   `json:"-" gorm:"size:255"` // nil for OAuth-provisioned accounts
	Name         string    `json:"name" gorm:"size:255;not null"`
	ImageURL     *string   `json:"image_url,omitempty" gorm:"size:512"`
	Provider     string    `json:"provider" gorm:"size:32;not null;default:'email'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Active subscription, populated by repository lookups.
	Subscription *Subscription `json:"-" gorm:"-"`
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.Provider != ProviderGoogle && u.PasswordHash != nil && *u.PasswordHash != ""
}

// NormalizeEmail lowercases and trims an address before any lookup or write.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserView is the sanitized representation returned to clients.
type UserView struct {
	ID           uint              `json:"id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	Image        string            `json:"image,omitempty"`
	Provider     string            `json:"provider"`
	Subscription *SubscriptionView `json:"subscription,omitempty"`
}

// View strips credentials from the user.
func (u *User) View() *UserView {
	v := &UserView{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Provider: u.Provider,
	}
	if u.ImageURL != nil {
		v.Image = *u.ImageURL
	}
	if u.Subscription != nil {
		v.Subscription = u.Subscription.View()
	}
	return v
}
