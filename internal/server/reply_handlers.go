package server

import (
	"threadboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

type replyRequest struct {
	Content string `json:"content"`
}

// GetReplies handles GET /api/threads/:threadId/replies
// @Summary List replies
// @Description Replies of a thread, oldest first
// @Tags replies
// @Produce json
// @Param threadId path int true "Thread ID"
// @Success 200 {object} models.DataResponse{data=[]models.Reply}
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{threadId}/replies [get]
func (s *Server) GetReplies(c *fiber.Ctx) error {
	threadID, err := s.parseID(c, "threadId")
	if err != nil {
		return nil
	}

	replies, err := s.replyService.ListReplies(c.UserContext(), threadID)
	if err != nil {
		return fail(c, err)
	}
	return respondList(c, replies)
}

// CreateReply handles POST /api/threads/:threadId/replies
// @Summary Create reply
// @Tags replies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param threadId path int true "Thread ID"
// @Param request body replyRequest true "Reply"
// @Success 201 {object} models.DataResponse{data=models.Reply}
// @Failure 403 {object} models.ErrorResponse "Thread is locked"
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{threadId}/replies [post]
func (s *Server) CreateReply(c *fiber.Ctx) error {
	threadID, err := s.parseID(c, "threadId")
	if err != nil {
		return nil
	}
	var req replyRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	reply, err := s.replyService.CreateReply(c.UserContext(), principal(c), threadID, req.Content)
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, reply)
}

// UpdateReply handles PUT /api/replies/:id
// @Summary Update reply
// @Tags replies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reply ID"
// @Param request body replyRequest true "Reply"
// @Success 200 {object} models.DataResponse{data=models.Reply}
// @Failure 403 {object} models.ErrorResponse
// @Router /replies/{id} [put]
func (s *Server) UpdateReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req replyRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	reply, err := s.replyService.UpdateReply(c.UserContext(), principal(c), id, req.Content)
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, reply)
}

// DeleteReply handles DELETE /api/replies/:id
// @Summary Delete reply
// @Tags replies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reply ID"
// @Success 200 {object} models.DataResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /replies/{id} [delete]
func (s *Server) DeleteReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.replyService.DeleteReply(c.UserContext(), principal(c), id); err != nil {
		return fail(c, err)
	}
	return respondMessage(c, "Reply deleted successfully")
}

// LikeReply handles POST /api/replies/:id/like
// @Summary Toggle reply like
// @Tags replies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reply ID"
// @Success 200 {object} models.DataResponse{data=models.LikeResult}
// @Router /replies/{id}/like [post]
func (s *Server) LikeReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.replyService.ToggleLike(c.UserContext(), principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, result)
}

// AcceptReply handles POST /api/replies/:id/accept
// @Summary Accept reply
// @Description Thread author or admin marks the answer; the thread becomes solved
// @Tags replies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reply ID"
// @Success 200 {object} models.DataResponse{data=models.Reply}
// @Failure 403 {object} models.ErrorResponse
// @Router /replies/{id}/accept [post]
func (s *Server) AcceptReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	reply, err := s.replyService.AcceptReply(c.UserContext(), principal(c), id)
	if err != nil {
		return fail(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, reply)
}
