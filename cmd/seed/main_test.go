package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"makeitreel/internal/model"
)

type memUsers struct {
	byEmail map[string]*model.User
	nextID  uint
}

func (m *memUsers) Create(ctx context.Context, user *model.User) error {
	m.nextID++
	user.ID = m.nextID
	m.byEmail[user.Email] = user
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id uint) (*model.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *memUsers) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	return nil
}

func (m *memUsers) Update(ctx context.Context, user *model.User) error {
	m.byEmail[user.Email] = user
	return nil
}

type memSubs struct {
	active map[uint]*model.Subscription
}

func (m *memSubs) CreateActive(ctx context.Context, sub *model.Subscription) error {
	sub.Status = model.StatusActive
	m.active[sub.UserID] = sub
	return nil
}

func (m *memSubs) FindActiveByUserID(ctx context.Context, userID uint) (*model.Subscription, error) {
	if sub, ok := m.active[userID]; ok {
		return sub, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memSubs) Save(ctx context.Context, sub *model.Subscription) error {
	m.active[sub.UserID] = sub
	return nil
}

type memViews struct {
	invalidated []uint
}

func (m *memViews) Invalidate(ctx context.Context, id uint) {
	m.invalidated = append(m.invalidated, id)
}

func TestSeedTestAccounts(t *testing.T) {
	googleHash := ""
	users := &memUsers{byEmail: map[string]*model.User{
		"expert@example.com": {ID: 50, Email: "expert@example.com", Name: "Old", Provider: model.ProviderGoogle, PasswordHash: &googleHash},
	}, nextID: 100}
	subs := &memSubs{active: map[uint]*model.Subscription{
		50: {UserID: 50, Plan: model.PlanBasic, Status: model.StatusActive, BillingCycle: model.BillingMonthly},
	}}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	views := &memViews{}

	seeded, updated, err := seedTestAccounts(context.Background(), users, subs, views, testAccounts, "hashed", now)

	require.NoError(t, err)
	assert.Equal(t, 2, seeded)
	assert.Equal(t, 1, updated)
	assert.ElementsMatch(t, []uint{101, 50, 102}, views.invalidated)

	for _, account := range testAccounts {
		user := users.byEmail[account.Email]
		require.NotNil(t, user, account.Email)
		assert.Equal(t, account.Name, user.Name)
		assert.Equal(t, model.ProviderEmail, user.Provider)
		require.NotNil(t, user.PasswordHash)
		assert.Equal(t, "hashed", *user.PasswordHash)

		sub := subs.active[user.ID]
		require.NotNil(t, sub, account.Email)
		assert.Equal(t, account.Plan, sub.Plan)
		assert.Equal(t, model.BillingYearly, sub.BillingCycle)
		assert.Equal(t, now.AddDate(1, 0, 0), *sub.ExpiresAt)
	}
}
