package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"gorm.io/gorm"

	apperrors "makeitreel/internal/errors"
	"makeitreel/internal/model"
	"makeitreel/internal/repository"
)

// VerificationCodeTTL is how long a stored code stays live.
const VerificationCodeTTL = 10 * time.Minute

var codeSpace = big.NewInt(1_000_000)

// VerificationResult is the outcome of a code submission. Attempts is 0
// when there was no live code.
type VerificationResult struct {
	Valid    bool
	Attempts int
}

// Exhausted reports whether the code was discarded for too many attempts.
func (r VerificationResult) Exhausted() bool {
	return r.Attempts > apperrors.MaxVerificationAttempts
}

// VerificationService manages the signup email-verification challenge.
type VerificationService interface {
	Generate() (string, error)
	Store(ctx context.Context, email, code string) error
	Verify(ctx context.Context, email, code string) (VerificationResult, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type verificationService struct {
	repo   repository.VerificationRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewVerificationService creates the verification code ledger.
func NewVerificationService(repo repository.VerificationRepository, logger *slog.Logger) VerificationService {
	return &verificationService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Generate returns a uniformly random six digit code, zero padded.
func (s *verificationService) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Store replaces any code held for email with a fresh one. The upsert on
// the unique email index keeps concurrent sends to a single row.
func (s *verificationService) Store(ctx context.Context, email, code string) error {
	email = model.NormalizeEmail(email)
	now := s.now()

	err := s.repo.Upsert(ctx, &model.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(VerificationCodeTTL),
		Attempts:  0,
		CreatedAt: now,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "store verification code", "email", email, "error", err)
		return apperrors.Internal(err)
	}
	return nil
}

// Verify counts the attempt before comparing, so a correct code submitted
// after the fifth attempt is still rejected and the record discarded. A
// consumed or exhausted code clears every row held for the email.
func (s *verificationService) Verify(ctx context.Context, email, code string) (VerificationResult, error) {
	email = model.NormalizeEmail(email)
	var result VerificationResult

	err := s.repo.WithTransaction(ctx, func(repo repository.VerificationRepository) error {
		record, err := repo.FindLiveForUpdate(ctx, email, s.now())
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = VerificationResult{Valid: false, Attempts: 0}
			return nil
		}
		if err != nil {
			return fmt.Errorf("find live code: %w", err)
		}

		attempts := record.Attempts + 1
		if err := repo.UpdateAttempts(ctx, record.ID, attempts); err != nil {
			return fmt.Errorf("update attempts: %w", err)
		}

		if attempts > apperrors.MaxVerificationAttempts {
			if err := repo.DeleteByEmail(ctx, email); err != nil {
				return fmt.Errorf("discard exhausted code: %w", err)
			}
			result = VerificationResult{Valid: false, Attempts: attempts}
			return nil
		}

		if record.Code != code {
			result = VerificationResult{Valid: false, Attempts: attempts}
			return nil
		}

		if err := repo.DeleteByEmail(ctx, email); err != nil {
			return fmt.Errorf("consume code: %w", err)
		}
		result = VerificationResult{Valid: true, Attempts: attempts}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "verify code", "email", email, "error", err)
		return VerificationResult{}, apperrors.Internal(err)
	}
	return result, nil
}

// CleanupExpired removes every record whose expiry has passed.
func (s *verificationService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "cleanup expired codes", "error", err)
		return 0, apperrors.Internal(err)
	}
	return n, nil
}
