package server

import (
	"threadboard/internal/models"
	"threadboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type threadRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
	Status   *string   `json:"status"`
	IsPinned *bool     `json:"is_pinned"`
	IsLocked *bool     `json:"is_locked"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// GetThreads handles GET /api/threads
// @Summary List threads
// @Description Filter, search, sort and paginate threads
// @Tags threads
// @Produce json
// @Param filter query string false "recent, popular, trending or unanswered"
// @Param category query string false "Category name"
// @Param search query string false "Full-text query"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} models.DataResponse{data=[]models.Thread}
// @Router /threads [get]
func (s *Server) GetThreads(c *fiber.Ctx) error {
	p := parsePagination(c, service.DefaultPageSize)

	page, err := s.threadService.ListThreads(c.UserContext(), service.ListThreadsInput{
		Filter:   c.Query("filter"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		return fail(c, err)
	}

	count := int(page.Total)
	return c.JSON(models.DataResponse{
		Success: true,
		Count:   &count,
		Pagination: &models.Pagination{
			Page:  page.Page,
			Limit: page.Limit,
			Total: page.Pages,
		},
		Data: page.Threads,
	})
}

// GetThread handles GET /api/threads/:id
// @Summary Get thread
// @Description Fetch a thread and count the view
// @Tags threads
// @Produce json
// @Param id path int true "Thread ID"
// @Success 200 {object} models.DataResponse{data=models.Thread}
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id} [get]
func (s *Server) GetThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	thread, err := s.threadService.GetThread(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, thread)
}

// CreateThread handles POST /api/threads
// @Summary Create thread
// @Tags threads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body threadRequest true "Thread"
// @Success 201 {object} models.DataResponse{data=models.Thread}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /threads [post]
func (s *Server) CreateThread(c *fiber.Ctx) error {
	var req threadRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	thread, err := s.threadService.CreateThread(c.UserContext(), principal(c), service.CreateThreadInput{
		Title:    deref(req.Title),
		Content:  deref(req.Content),
		Category: deref(req.Category),
		Tags:     deref(req.Tags),
		Status:   deref(req.Status),
		IsPinned: deref(req.IsPinned),
		IsLocked: deref(req.IsLocked),
	})
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, thread)
}

// UpdateThread handles PUT /api/threads/:id
// @Summary Update thread
// @Description Author or admin only; omitted fields are left unchanged
// @Tags threads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Param request body threadRequest true "Fields to change"
// @Success 200 {object} models.DataResponse{data=models.Thread}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id} [put]
func (s *Server) UpdateThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req threadRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	thread, err := s.threadService.UpdateThread(c.UserContext(), principal(c), id, service.UpdateThreadInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
		Status:   req.Status,
		IsPinned: req.IsPinned,
		IsLocked: req.IsLocked,
	})
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, thread)
}

// DeleteThread handles DELETE /api/threads/:id
// @Summary Delete thread
// @Description Author or admin only; the thread's replies are removed with it
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Success 200 {object} models.DataResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id} [delete]
func (s *Server) DeleteThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.threadService.DeleteThread(c.UserContext(), principal(c), id); err != nil {
		return fail(c, err)
	}
	return respondMessage(c, "Thread deleted successfully")
}

// LikeThread handles POST /api/threads/:id/like
// @Summary Toggle thread like
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Success 200 {object} models.DataResponse{data=models.LikeResult}
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id}/like [post]
func (s *Server) LikeThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.threadService.ToggleLike(c.UserContext(), principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, result)
}

// GetCategories handles GET /api/categories
// @Summary List categories
// @Tags threads
// @Produce json
// @Success 200 {object} models.DataResponse{data=[]string}
// @Router /categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	return respondList(c, models.Categories)
}
