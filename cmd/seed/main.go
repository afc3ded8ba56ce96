package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"makeitreel/internal/cache"
	"makeitreel/internal/config"
	"makeitreel/internal/db"
	"makeitreel/internal/logger"
	"makeitreel/internal/model"
	"makeitreel/internal/repository"
	"makeitreel/internal/service"
)

const testAccountPassword = "Example1!"

// testAccount is a demo login with a paid tier.
type testAccount struct {
	Email string
	Name  string
	Plan  model.Plan
}

// viewCache drops cached session views of rewritten users.
type viewCache interface {
	Invalidate(ctx context.Context, id uint)
}

var testAccounts = []testAccount{
	{Email: "test@example.com", Name: "Test User", Plan: model.PlanPro},
	{Email: "expert@example.com", Name: "Expert User", Plan: model.PlanExpert},
	{Email: "business@example.com", Name: "Business User", Plan: model.PlanBusiness},
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	log.Info("starting seed script")

	if cfg.IsProduction() && !cfg.EnableTestAccounts {
		log.Error("refusing to seed test accounts in production; set ENABLE_TEST_ACCOUNTS=true to override")
		os.Exit(1)
	}

	ctx := context.Background()
	gormDB, err := db.OpenWithRetry(ctx, cfg.DatabaseDSN, db.PoolConfig{}, 3, log)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}

	// Run migrations to ensure schema is up to date
	if err := db.Migrate(gormDB); err != nil {
		log.Error("run migrations", "error", err)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testAccountPassword), 12)
	if err != nil {
		log.Error("hash password", "error", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	userRepo := repository.NewUserRepository(gormDB)
	seeded, updated, err := seedTestAccounts(ctx,
		userRepo,
		repository.NewSubscriptionRepository(gormDB),
		service.NewUserService(userRepo, cacheClient, log),
		testAccounts, string(hash), time.Now())
	if err != nil {
		log.Error("seed test accounts", "error", err)
		os.Exit(1)
	}

	log.Info("seed completed", "created", seeded, "updated", updated, "password", testAccountPassword)
}

// seedTestAccounts creates the demo users or resets existing ones, and makes
// sure each holds an active yearly subscription at its tier. Cached views of
// reset users are dropped so session checks see the new plan.
func seedTestAccounts(
	ctx context.Context,
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	views viewCache,
	accounts []testAccount,
	passwordHash string,
	now time.Time,
) (seeded int, updated int, err error) {
	expires := now.AddDate(1, 0, 0)

	for _, account := range accounts {
		hash := passwordHash
		existing, err := users.FindByEmail(ctx, account.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return seeded, updated, fmt.Errorf("error checking user %s: %w", account.Email, err)
		}

		var user *model.User
		if existing != nil {
			existing.Name = account.Name
			existing.PasswordHash = &hash
			existing.Provider = model.ProviderEmail
			if err := users.Update(ctx, existing); err != nil {
				return seeded, updated, fmt.Errorf("error updating user %s: %w", account.Email, err)
			}
			user = existing
			updated++
		} else {
			user = &model.User{
				Email:        account.Email,
				Name:         account.Name,
				PasswordHash: &hash,
				Provider:     model.ProviderEmail,
			}
			if err := users.Create(ctx, user); err != nil {
				return seeded, updated, fmt.Errorf("error creating user %s: %w", account.Email, err)
			}
			seeded++
		}

		sub, err := subs.FindActiveByUserID(ctx, user.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			err = subs.CreateActive(ctx, &model.Subscription{
				UserID:       user.ID,
				Plan:         account.Plan,
				BillingCycle: model.BillingYearly,
				ExpiresAt:    &expires,
			})
		case err == nil:
			sub.Plan = account.Plan
			sub.BillingCycle = model.BillingYearly
			sub.ExpiresAt = &expires
			err = subs.Save(ctx, sub)
		}
		if err != nil {
			return seeded, updated, fmt.Errorf("error granting %s plan to %s: %w", account.Plan, account.Email, err)
		}
		views.Invalidate(ctx, user.ID)
	}

	return seeded, updated, nil
}
