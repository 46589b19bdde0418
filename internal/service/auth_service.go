package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"threadboard/internal/auth"
	"threadboard/internal/middleware"
	"threadboard/internal/models"
	"threadboard/internal/repository"
	"threadboard/internal/tokenstore"
	"threadboard/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// TokenRevoker records revoked token ids until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type AuthService struct {
	users    repository.UserRepository
	tokens   *auth.TokenManager
	revoker  TokenRevoker
	hashCost int
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// NewAuthService wires authentication. revoker may be nil, which disables logout.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, revoker TokenRevoker) *AuthService {
	return &AuthService{users: users, tokens: tokens, revoker: revoker, hashCost: bcrypt.DefaultCost}
}

// HashPassword hashes a plaintext password with the service's bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Name, email, and password are required")
	}
	if err := validation.ValidateDisplayName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, models.NewConflictError("User already exists")
	} else if !isNotFound(err) {
		return nil, err
	}

	hashed, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hashed,
		Role:     models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, models.NewValidationError("Please provide email and password")
	}

	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Me loads the principal's user record.
func (s *AuthService) Me(ctx context.Context, p models.Principal) (*models.User, error) {
	if p.ID == 0 {
		return nil, models.NewUnauthorizedError("Not authorized to access this route")
	}
	return s.users.GetByID(ctx, p.ID)
}

// Logout revokes token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return models.NewUnauthorizedError("Not authorized, token failed")
	}
	if s.revoker == nil {
		return models.NewServiceUnavailableError("Token revocation unavailable")
	}

	if err := s.revoker.Revoke(ctx, claims.JTI, s.tokens.Remaining(claims)); err != nil {
		if errors.Is(err, tokenstore.ErrUnavailable) {
			return models.NewServiceUnavailableError("Token revocation unavailable")
		}
		middleware.Logger.ErrorContext(ctx, "token revocation failed", slog.String("error", err.Error()))
		return models.NewInternalError(err)
	}
	return nil
}

func isNotFound(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeNotFound
}
