package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"makeitreel/internal/auth"
	"makeitreel/internal/email"
	apperrors "makeitreel/internal/errors"
	"makeitreel/internal/model"
	"makeitreel/internal/oauth"
	"makeitreel/internal/repository"
)

const bcryptCost = 12

// AuthResult is a freshly issued session token and the user it belongs to.
type AuthResult struct {
	Token string
	User  *model.User
}

// AuthService handles authentication operations.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Signup(ctx context.Context, email, password, name string) (*AuthResult, error)
	SendVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email, code, password, name string) (*AuthResult, error)
	OAuthLogin(ctx context.Context, profile *oauth.Profile) (*AuthResult, error)
	ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
}

// AuthDeps bundles the collaborators of the auth service.
type AuthDeps struct {
	Users         repository.UserRepository
	Subscriptions repository.SubscriptionRepository
	Verification  VerificationService
	Mailer        email.Sender
	Tokens        *auth.TokenService
	Grants        PlanGrants
	Logger        *slog.Logger
}

type authService struct {
	users         repository.UserRepository
	subscriptions repository.SubscriptionRepository
	verification  VerificationService
	mailer        email.Sender
	tokens        *auth.TokenService
	grants        PlanGrants
	logger        *slog.Logger
	bcryptCost    int
	now           func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(deps AuthDeps) AuthService {
	grants := deps.Grants
	if grants == nil {
		grants = NoGrants{}
	}
	return &authService{
		users:         deps.Users,
		subscriptions: deps.Subscriptions,
		verification:  deps.Verification,
		mailer:        deps.Mailer,
		tokens:        deps.Tokens,
		grants:        grants,
		logger:        deps.Logger,
		bcryptCost:    bcryptCost,
		now:           time.Now,
	}
}

// Login authenticates a password account. Unknown emails and wrong
// passwords produce the same error.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, model.NormalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, s.internal(ctx, "find user by email", err)
	}

	if !user.HasPassword() {
		return nil, apperrors.ErrWrongProvider
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Signup creates a password account and signs it in.
func (s *authService) Signup(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = model.NormalizeEmail(email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, s.internal(ctx, "check email existence", err)
	}
	if exists {
		return nil, apperrors.ErrEmailExists
	}

	user, err := s.createPasswordUser(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// SendVerification starts the two-phase signup by mailing a fresh code.
func (s *authService) SendVerification(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return s.internal(ctx, "check email existence", err)
	}
	if exists {
		return apperrors.ErrEmailExists
	}

	code, err := s.verification.Generate()
	if err != nil {
		return s.internal(ctx, "generate verification code", err)
	}
	if err := s.verification.Store(ctx, email, code); err != nil {
		return err
	}

	if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
		s.logger.ErrorContext(ctx, "verification email delivery failed", "email", email, "error", err)
		return apperrors.ErrDeliveryFailed
	}
	return nil
}

// VerifyEmail completes the two-phase signup. The account is only created
// once the submitted code is accepted.
func (s *authService) VerifyEmail(ctx context.Context, email, code, password, name string) (*AuthResult, error) {
	email = model.NormalizeEmail(email)

	result, err := s.verification.Verify(ctx, email, code)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		if result.Exhausted() {
			return nil, &apperrors.VerificationFailure{Attempts: result.Attempts, Err: apperrors.ErrTooManyAttempts}
		}
		return nil, &apperrors.VerificationFailure{Attempts: result.Attempts, Err: apperrors.ErrInvalidCode}
	}

	user, err := s.createPasswordUser(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// OAuthLogin signs in a provider identity, provisioning a google account on
// first visit. The returned user never carries a subscription, and the token
// records the google origin so later session checks strip it too.
func (s *authService) OAuthLogin(ctx context.Context, profile *oauth.Profile) (*AuthResult, error) {
	email := model.NormalizeEmail(profile.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &model.User{
			Email:    email,
			Name:     profile.Name,
			Provider: model.ProviderGoogle,
		}
		if profile.Picture != "" {
			picture := profile.Picture
			user.ImageURL = &picture
		}
		err = s.users.Create(ctx, user)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent first login
			user, err = s.users.FindByEmail(ctx, email)
		}
	}
	if err != nil {
		return nil, s.internal(ctx, "provision oauth user", err)
	}

	user.Subscription = nil
	token, err := s.tokens.IssueFor(user, model.ProviderGoogle)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("issue token: %w", err))
	}
	return &AuthResult{Token: token, User: user}, nil
}

// ChangePassword replaces the password of an already authenticated user.
func (s *authService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	if err != nil {
		return s.internal(ctx, "find user by id", err)
	}

	if !user.HasPassword() {
		return apperrors.ErrGoogleAccountNoPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.ErrIncorrectPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return s.internal(ctx, "hash password", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return s.internal(ctx, "update password", err)
	}
	return nil
}

func (s *authService) createPasswordUser(ctx context.Context, email, password, name string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}
	hashed := string(hash)

	user := &model.User{
		Email:        email,
		PasswordHash: &hashed,
		Name:         name,
		Provider:     model.ProviderEmail,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailExists
		}
		return nil, s.internal(ctx, "create user", err)
	}

	if plan, ok := s.grants.PlanFor(email); ok {
		expires := s.now().AddDate(1, 0, 0)
		sub := &model.Subscription{
			UserID:       user.ID,
			Plan:         plan,
			Status:       model.StatusActive,
			BillingCycle: model.BillingYearly,
			ExpiresAt:    &expires,
		}
		if err := s.subscriptions.CreateActive(ctx, sub); err != nil {
			return nil, s.internal(ctx, "grant test subscription", err)
		}
		user.Subscription = sub
		s.logger.InfoContext(ctx, "granted test account subscription", "user_id", user.ID, "plan", plan)
	}
	return user, nil
}

func (s *authService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("issue token: %w", err))
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *authService) internal(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, op, "error", err)
	return apperrors.Internal(fmt.Errorf("%s: %w", op, err))
}
