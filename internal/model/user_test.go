package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@example.com", NormalizeEmail("  Ann@Example.COM "))
}

func TestUser_HasPassword(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{"email account", User{Provider: ProviderEmail, PasswordHash: strPtr("$2a$12$abc")}, true},
		{"nil hash", User{Provider: ProviderEmail}, false},
		{"empty hash", User{Provider: ProviderEmail, PasswordHash: strPtr("")}, false},
		{"google account with stray hash", User{Provider: ProviderGoogle, PasswordHash: strPtr("$2a$12$abc")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.HasPassword())
		})
	}
}

func TestUser_ViewStripsHash(t *testing.T) {
	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	u := &User{
		ID:           7,
		Email:        "ann@example.com",
		Name:         "Ann",
		PasswordHash: strPtr("secret-hash"),
		ImageURL:     strPtr("https://img/ann.png"),
		Provider:     ProviderEmail,
		Subscription: &Subscription{Plan: PlanPro, Status: StatusActive, BillingCycle: BillingYearly, ExpiresAt: &expires},
	}

	v := u.View()

	assert.Equal(t, uint(7), v.ID)
	assert.Equal(t, "https://img/ann.png", v.Image)
	if assert.NotNil(t, v.Subscription) {
		assert.Equal(t, PlanPro, v.Subscription.Plan)
		assert.Equal(t, BillingYearly, v.Subscription.BillingCycle)
	}
}
