package server

import (
	"log/slog"

	"threadboard/internal/middleware"
	"threadboard/internal/models"
	"threadboard/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// ReindexSearch handles POST /api/admin/search/reindex
// @Summary Rebuild the search index
// @Description Admin only; pushes every thread to the full-text index
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DataResponse{data=object{indexed=int}}
// @Failure 403 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse "Search index not configured"
// @Router /admin/search/reindex [post]
func (s *Server) ReindexSearch(c *fiber.Ctx) error {
	enabled, healthy := s.search.Healthy()
	if !enabled {
		return fail(c, models.NewServiceUnavailableError("Search index not configured"))
	}
	if !healthy {
		return fail(c, models.NewServiceUnavailableError("Search index unavailable"))
	}

	indexed, err := s.search.ReindexAll(c.UserContext(), repository.PageRecent(s.threadRepo))
	if err != nil {
		return fail(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "search index rebuilt", slog.Int("threads", indexed))
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"indexed": indexed})
}
