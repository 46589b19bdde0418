package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck handles GET /api/health
// @Summary API health
// @Tags health
// @Produce json
// @Success 200 {object} object{success=bool,message=string,timestamp=string}
// @Router /health [get]
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Forum API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// LivenessCheck handles GET /health/live
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports dependency health. The database is required; Redis
// and the search index are optional and only fail readiness when configured
// but unreachable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.tokenStore.Available() {
		redisStatus = "healthy"
		if err := s.tokenStore.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
		}
	}

	// The index falls back to SQL matching, so it never fails readiness.
	searchStatus := "disabled"
	if enabled, healthy := s.search.Healthy(); enabled {
		searchStatus = "degraded"
		if healthy {
			searchStatus = "healthy"
		}
	}

	aiStatus := "disabled"
	if s.assistService.Configured() {
		aiStatus = "configured"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"search":   searchStatus,
			"ai":       aiStatus,
		},
		"time": time.Now(),
	})
}
