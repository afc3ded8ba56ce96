package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"makeitreel/internal/auth"
	"makeitreel/internal/cache"
	apperrors "makeitreel/internal/errors"
	"makeitreel/internal/model"
	"makeitreel/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService resolves authenticated identities to client views.
type UserService interface {
	GetUserView(ctx context.Context, claims *auth.Claims) (*model.UserView, error)
	Invalidate(ctx context.Context, id uint)
}

type userService struct {
	repo   repository.UserRepository
	cache  *cache.Client
	logger *slog.Logger
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client, logger *slog.Logger) UserService {
	return &userService{repo: repo, cache: cache, logger: logger}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user_view:%d", id)
}

// GetUserView returns the session's user. Sessions opened through Google
// never carry a subscription, even when the account holds one.
func (s *userService) GetUserView(ctx context.Context, claims *auth.Claims) (*model.UserView, error) {
	view, err := s.loadView(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if claims.ViaOAuth() {
		view.Subscription = nil
	}
	return view, nil
}

func (s *userService) loadView(ctx context.Context, id uint) (*model.UserView, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.UserView
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "find user by id", "user_id", id, "error", err)
		return nil, apperrors.Internal(err)
	}

	view := user.View()
	if payload, err := json.Marshal(view); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return view, nil
}

// Invalidate drops the cached view after the user's record changed.
func (s *userService) Invalidate(ctx context.Context, id uint) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}
