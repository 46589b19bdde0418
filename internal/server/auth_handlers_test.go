package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"threadboard/internal/auth"
	"threadboard/internal/models"
	"threadboard/internal/service"
	"threadboard/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockUserRepository) SetAvatar(ctx context.Context, id uint, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (*http.Response, envelope) {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func newAuthOnlyServer(repo *MockUserRepository) *Server {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	return &Server{authService: service.NewAuthService(repo, tokens, nil), tokens: tokens}
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func(*MockUserRepository)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Success",
			body: map[string]string{
				"name":     "Test User",
				"email":    "Test@Example.com",
				"password": "Sup3r-Secret-Pass!",
			},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "test@example.com").
					Return(nil, models.NewNotFoundError("User", "test@example.com"))
				m.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Email == "test@example.com" && u.Role == models.RoleUser &&
						bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("Sup3r-Secret-Pass!")) == nil
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*models.User).ID = 7
				}).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Duplicate User",
			body: map[string]string{
				"name":     "Test User",
				"email":    "exists@example.com",
				"password": "Sup3r-Secret-Pass!",
			},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "exists@example.com").Return(&models.User{ID: 1}, nil)
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   models.CodeConflict,
		},
		{
			name: "Weak Password",
			body: map[string]string{
				"name":     "Test User",
				"email":    "weak@example.com",
				"password": "short",
			},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.CodeValidation,
		},
		{
			name:           "Missing Fields",
			body:           map[string]string{"email": "x@example.com"},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.CodeValidation,
		},
		{
			name: "Lookup Failure",
			body: map[string]string{
				"name":     "Test User",
				"email":    "down@example.com",
				"password": "Sup3r-Secret-Pass!",
			},
			mockSetup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "down@example.com").
					Return(nil, models.NewInternalError(errors.New("connection reset")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			s := newAuthOnlyServer(repo)
			app := fiber.New()
			app.Post("/signup", s.Signup)

			resp, env := postJSON(t, app, "/signup", tt.body)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			repo.AssertExpectations(t)

			if tt.expectedStatus != http.StatusCreated {
				assert.False(t, env.Success)
				assert.Equal(t, tt.expectedCode, env.Code)
				assert.NotContains(t, env.Message, "connection reset")
				return
			}
			result := decodeData[service.AuthResult](t, env)
			claims, err := s.tokens.Parse(result.Token)
			require.NoError(t, err)
			assert.Equal(t, uint(7), claims.UserID)
		})
	}
}

func TestLogin(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("Sup3r-Secret-Pass!"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 3, Name: "Member", Email: "member@example.com", Password: string(hashed)}

	tests := []struct {
		name           string
		email          string
		password       string
		expectedStatus int
	}{
		{"valid credentials", "member@example.com", "Sup3r-Secret-Pass!", http.StatusOK},
		{"wrong password", "member@example.com", "nope", http.StatusUnauthorized},
		{"unknown email", "ghost@example.com", "Sup3r-Secret-Pass!", http.StatusUnauthorized},
		{"missing password", "member@example.com", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			repo.On("GetByEmail", mock.Anything, "member@example.com").Return(stored, nil).Maybe()
			repo.On("GetByEmail", mock.Anything, "ghost@example.com").
				Return(nil, models.NewNotFoundError("User", "ghost@example.com")).Maybe()

			app := fiber.New()
			app.Post("/login", newAuthOnlyServer(repo).Login)

			resp, env := postJSON(t, app, "/login", map[string]string{"email": tt.email, "password": tt.password})
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.Equal(t, "Invalid credentials", env.Message)
			}
			if tt.expectedStatus == http.StatusOK {
				result := decodeData[service.AuthResult](t, env)
				assert.NotEmpty(t, result.Token)
				assert.Equal(t, "member@example.com", result.User.Email)
			}
		})
	}
}

func TestAuthSession(t *testing.T) {
	e := newTestEnv(t)

	resp, env := postJSON(t, e.app, "/api/auth/signup", map[string]string{
		"name": "Session User", "email": "session@example.com", "password": "Sup3r-Secret-Pass!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	token := decodeData[service.AuthResult](t, env).Token

	resp, _ = postJSON(t, e.app, "/api/auth/signup", map[string]string{
		"name": "Again", "email": "SESSION@example.com", "password": "Sup3r-Secret-Pass!",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, env = postJSON(t, e.app, "/api/auth/login", map[string]string{
		"email": "session@example.com", "password": "Sup3r-Secret-Pass!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decodeData[service.AuthResult](t, env).Token)

	status, env := e.do(http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, status)
	me := decodeData[models.User](t, env)
	assert.Equal(t, "session@example.com", me.Email)
	assert.Equal(t, models.RoleUser, me.Role)

	status, env = e.do(http.MethodGet, "/api/auth/validate", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Token is valid", env.Message)

	status, env = e.do(http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", env.Message)

	status, env = e.do(http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", env.Message)
}

func TestAuth_DeletedUserToken(t *testing.T) {
	e := newTestEnv(t)
	user := testutil.CreateUser(t, e.db, "Gone", models.RoleUser)
	token := e.tokenFor(user)
	require.NoError(t, e.db.Delete(&models.User{}, user.ID).Error)

	status, env := e.do(http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authorized, user not found", env.Message)
}
