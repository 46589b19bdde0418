package server

import (
	"threadboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

type chatRequest struct {
	Message string `json:"message"`
}

type suggestionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ChatWithAI handles POST /api/ai/chat
// @Summary Chat with the assistant
// @Tags ai
// @Accept json
// @Produce json
// @Param request body chatRequest true "Message"
// @Success 200 {object} models.DataResponse{data=service.ChatReply}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse "AI service not configured or failed"
// @Failure 503 {object} models.ErrorResponse "Disabled by feature flag"
// @Router /ai/chat [post]
func (s *Server) ChatWithAI(c *fiber.Ctx) error {
	var req chatRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	reply, err := s.assistService.Chat(c.UserContext(), req.Message)
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, reply)
}

// GetSuggestions handles POST /api/ai/suggestions
// @Summary Suggest tags, category and summary for a draft thread
// @Tags ai
// @Accept json
// @Produce json
// @Param request body suggestionRequest true "Draft"
// @Success 200 {object} models.DataResponse{data=service.Suggestion}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse "Disabled by feature flag"
// @Router /ai/suggestions [post]
func (s *Server) GetSuggestions(c *fiber.Ctx) error {
	var req suggestionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	suggestion, err := s.assistService.Suggest(c.UserContext(), req.Title, req.Content)
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, suggestion)
}
