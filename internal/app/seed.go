package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

type adminStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// seedAdmin creates an admin account or promotes, re-enables and resets the
// password of an existing one. It reports whether a new account was created.
func seedAdmin(ctx context.Context, users adminStore, email, password string, cost int) (models.User, bool, error) {
	email = auth.NormalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, false, errors.New("email and password are required")
	}
	if err := auth.CheckPasswordLength(password); err != nil {
		return models.User{}, false, err
	}

	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return models.User{}, false, fmt.Errorf("hash admin password: %w", err)
	}
	now := time.Now().UTC()

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		existing.Role = models.RoleAdmin
		existing.IsActive = true
		existing.PasswordHash = hash
		existing.UpdatedAt = now
		if err := users.Update(ctx, existing); err != nil {
			return models.User{}, false, fmt.Errorf("promote admin: %w", err)
		}
		return existing, false, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return models.User{}, false, fmt.Errorf("look up admin: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, user); err != nil {
		return models.User{}, false, fmt.Errorf("create admin: %w", err)
	}
	return user, true, nil
}
