package server

import (
	"io"

	"threadboard/internal/middleware"
	"threadboard/internal/models"
	"threadboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signupRequest true "Signup request"
// @Success 201 {object} models.DataResponse{data=service.AuthResult}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.authService.Signup(c.UserContext(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, result)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login credentials"
// @Success 200 {object} models.DataResponse{data=service.AuthResult}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, result)
}

// GetMe handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DataResponse{data=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.authService.Me(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, user)
}

// ValidateToken handles GET /api/auth/validate
// @Summary Validate token
// @Description Succeeds while the bearer token is valid and not revoked
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DataResponse{data=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/validate [get]
func (s *Server) ValidateToken(c *fiber.Ctx) error {
	user, err := s.authService.Me(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(models.DataResponse{Success: true, Message: "Token is valid", Data: user})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revokes the bearer token until it would have expired
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DataResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authService.Logout(c.UserContext(), middleware.BearerToken(c)); err != nil {
		return fail(c, err)
	}
	return respondMessage(c, "Logged out successfully")
}

// UploadAvatar handles PUT /api/auth/avatar
// @Summary Upload avatar
// @Description Accepts a JPEG, PNG, GIF or WebP image in the "avatar" form field and stores a 256px WebP copy
// @Tags auth
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Image file"
// @Success 200 {object} models.DataResponse{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/avatar [put]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(io.LimitReader(src, s.avatarService.MaxBytes()+1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	user, err := s.avatarService.Upload(c.UserContext(), service.AvatarInput{
		UserID:      principal(c).ID,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, user)
}

// ServeAvatar handles GET /media/avatars/:name
func (s *Server) ServeAvatar(c *fiber.Ctx) error {
	path, err := s.avatarService.Resolve(c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	c.Type("webp")
	return c.SendFile(path)
}
