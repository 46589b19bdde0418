package auth

import (
	"context"
	"errors"
	"log/slog"

	"threadboard/internal/middleware"
	"threadboard/internal/models"
)

// UserLookup loads the user backing a token subject.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// RevocationChecker reports whether a token id was revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Resolver validates bearer tokens and yields the acting principal.
type Resolver struct {
	tokens  *TokenManager
	revoked RevocationChecker
	users   UserLookup
}

// NewResolver wires a Resolver. revoked may be nil when no revocation store is configured.
func NewResolver(tokens *TokenManager, revoked RevocationChecker, users UserLookup) *Resolver {
	return &Resolver{tokens: tokens, revoked: revoked, users: users}
}

// Resolve returns the principal for token. The role is read from the store on
// every call so demotions take effect without reissuing tokens.
func (r *Resolver) Resolve(ctx context.Context, token string) (models.Principal, error) {
	claims, err := r.tokens.Parse(token)
	if err != nil {
		return models.Principal{}, models.NewUnauthorizedError("Not authorized, token failed")
	}

	if r.revoked != nil {
		revoked, err := r.revoked.IsRevoked(ctx, claims.JTI)
		switch {
		case err != nil:
			// Revocation store outage must not lock every user out.
			middleware.Logger.WarnContext(ctx, "token revocation check failed",
				slog.String("error", err.Error()))
		case revoked:
			return models.Principal{}, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return models.Principal{}, models.NewUnauthorizedError("Not authorized, user not found")
		}
		return models.Principal{}, models.NewInternalError(err)
	}

	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	return models.Principal{ID: user.ID, Role: role}, nil
}
