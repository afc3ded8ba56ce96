package model

import "time"

// Plan is a subscription tier.
type Plan string

const (
	PlanBasic    Plan = "basic"
	PlanPro      Plan = "pro"
	PlanExpert   Plan = "expert"
	PlanBusiness Plan = "business"
)

// SubscriptionStatus values.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"
)

// BillingCycle values.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// Subscription links a user to a plan. At most one row per user may be active.
type Subscription struct {
	ID           uint               `json:"id" gorm:"primaryKey"`
	UserID       uint               `json:"user_id" gorm:"not null;index"`
	Plan         Plan               `json:"plan" gorm:"size:32;not null"`
	Status       SubscriptionStatus `json:"status" gorm:"size:32;not null;index"`
	BillingCycle BillingCycle       `json:"billing_cycle" gorm:"size:32;not null"`
	ExpiresAt    *time.Time         `json:"expires_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// SubscriptionView is the client-facing subscription shape.
type SubscriptionView struct {
	Plan         Plan               `json:"plan"`
	Status       SubscriptionStatus `json:"status"`
	BillingCycle BillingCycle       `json:"billingCycle"`
	ExpiresAt    *time.Time         `json:"expiresAt,omitempty"`
}

// View converts the subscription for client responses.
func (s *Subscription) View() *SubscriptionView {
	return &SubscriptionView{
		Plan:         s.Plan,
		Status:       s.Status,
		BillingCycle: s.BillingCycle,
		ExpiresAt:    s.ExpiresAt,
	}
}
