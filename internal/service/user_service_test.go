package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"makeitreel/internal/auth"
	apperrors "makeitreel/internal/errors"
	"makeitreel/internal/logger"
	"makeitreel/internal/model"
	"makeitreel/internal/oauth"
)

func TestUserService_GetUserView(t *testing.T) {
	repo := new(MockUserRepository)
	hash := "hash"
	repo.On("FindByID", mock.Anything, uint(3)).Return(&model.User{
		ID:           3,
		Email:        "ann@example.com",
		Name:         "Ann",
		PasswordHash: &hash,
		Provider:     model.ProviderEmail,
		Subscription: &model.Subscription{Plan: model.PlanExpert, Status: model.StatusActive, BillingCycle: model.BillingMonthly},
	}, nil)

	svc := NewUserService(repo, nil, logger.Discard())
	view, err := svc.GetUserView(context.Background(), &auth.Claims{UserID: 3})

	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", view.Email)
	require.NotNil(t, view.Subscription)
	assert.Equal(t, model.PlanExpert, view.Subscription.Plan)
	repo.AssertExpectations(t)
}

func TestUserService_GetUserViewErrors(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		expected error
	}{
		{"not found", gorm.ErrRecordNotFound, apperrors.ErrUserNotFound},
		{"database failure", errors.New("i/o timeout"), apperrors.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			repo.On("FindByID", mock.Anything, uint(9)).Return(nil, tt.repoErr)

			_, err := NewUserService(repo, nil, logger.Discard()).GetUserView(context.Background(), &auth.Claims{UserID: 9})

			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestUserService_GoogleSessionHidesSubscription(t *testing.T) {
	subscriber := func() *model.User {
		hash := "hash"
		return &model.User{
			ID:           5,
			Email:        "test@example.com",
			Name:         "Test User",
			PasswordHash: &hash,
			Provider:     model.ProviderEmail,
			Subscription: &model.Subscription{Plan: model.PlanPro, Status: model.StatusActive, BillingCycle: model.BillingYearly},
		}
	}

	f := newAuthFixture(nil)
	f.users.On("FindByEmail", mock.Anything, "test@example.com").Return(subscriber(), nil)
	f.users.On("FindByID", mock.Anything, uint(5)).Return(subscriber(), nil)
	users := NewUserService(f.users, nil, logger.Discard())
	ctx := context.Background()

	result, err := f.svc.OAuthLogin(ctx, &oauth.Profile{Email: "test@example.com", Name: "Test"})
	require.NoError(t, err)
	claims, ok := f.tokens.Verify(result.Token)
	require.True(t, ok)

	view, err := users.GetUserView(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, uint(5), view.ID)
	assert.Nil(t, view.Subscription)

	passwordToken, err := f.tokens.Issue(subscriber())
	require.NoError(t, err)
	passwordClaims, ok := f.tokens.Verify(passwordToken)
	require.True(t, ok)

	view, err = users.GetUserView(ctx, passwordClaims)
	require.NoError(t, err)
	require.NotNil(t, view.Subscription)
	assert.Equal(t, model.PlanPro, view.Subscription.Plan)
}

func TestPlanGrants(t *testing.T) {
	grants := DefaultTestAccounts()

	plan, ok := grants.PlanFor(" EXPERT@example.com")
	assert.True(t, ok)
	assert.Equal(t, model.PlanExpert, plan)

	_, ok = grants.PlanFor("someone@example.com")
	assert.False(t, ok)

	_, ok = NoGrants{}.PlanFor("test@example.com")
	assert.False(t, ok)
}
