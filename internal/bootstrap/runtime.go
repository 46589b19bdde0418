// Package bootstrap wires the process-level dependencies shared by the server and the CLI tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"threadboard/internal/config"
	"threadboard/internal/database"
	"threadboard/internal/middleware"
	"threadboard/internal/models"
	"threadboard/internal/repository"
	"threadboard/internal/tokenstore"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis and makes sure the configured admin exists.
// The Redis client is nil when REDIS_URL is unset or unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := tokenstore.Connect(cfg.RedisURL)

	if err := EnsureAdmin(ctx, cfg, repository.NewUserRepository(db)); err != nil {
		_ = database.Close(db)
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	return db, rdb, nil
}

// EnsureAdmin creates the account named by ADMIN_EMAIL, or promotes it when it already exists.
// It is a no-op when no admin email is configured.
func EnsureAdmin(ctx context.Context, cfg *config.Config, users repository.UserRepository) error {
	if cfg == nil || users == nil {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		return nil
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return nil
		}
		if err := users.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		middleware.Logger.Info("Promoted existing user to admin", slog.Uint64("user_id", uint64(existing.ID)))
		return nil
	case !isNotFound(err):
		return err
	}

	if cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD must be set when ADMIN_EMAIL is configured")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = "Administrator"
	}
	admin := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	middleware.Logger.Info("Created admin account", slog.Uint64("user_id", uint64(admin.ID)), slog.String("email", email))
	return nil
}

func isNotFound(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeNotFound
}
