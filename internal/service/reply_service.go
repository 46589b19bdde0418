package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"threadboard/internal/models"
	"threadboard/internal/repository"
)

type ReplyService struct {
	replies repository.ReplyRepository
	threads repository.ThreadRepository
	likes   repository.LikeRepository
}

func NewReplyService(
	replies repository.ReplyRepository,
	threads repository.ThreadRepository,
	likes repository.LikeRepository,
) *ReplyService {
	return &ReplyService{replies: replies, threads: threads, likes: likes}
}

func validateReplyContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Please provide reply content")
	}
	if utf8.RuneCountInString(content) > models.MaxReplyLength {
		return models.NewValidationError("Reply cannot be more than 5000 characters")
	}
	return nil
}

// ListReplies returns the thread's replies, oldest first.
func (s *ReplyService) ListReplies(ctx context.Context, threadID uint) ([]*models.Reply, error) {
	if _, err := s.threads.GetByID(ctx, threadID); err != nil {
		return nil, err
	}
	return s.replies.ListByThread(ctx, threadID)
}

func (s *ReplyService) CreateReply(ctx context.Context, p models.Principal, threadID uint, content string) (*models.Reply, error) {
	if p.ID == 0 {
		return nil, models.NewUnauthorizedError("Not authorized to access this route")
	}

	reply := &models.Reply{ThreadID: threadID, AuthorID: p.ID, Content: content}
	err := s.replies.Create(ctx, reply, func(thread *models.Thread) error {
		if thread.IsLocked {
			return models.NewThreadLockedError()
		}
		return validateReplyContent(content)
	})
	if err != nil {
		return nil, err
	}
	return s.replies.GetByID(ctx, reply.ID)
}

func (s *ReplyService) UpdateReply(ctx context.Context, p models.Principal, id uint, content string) (*models.Reply, error) {
	reply, err := s.replies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, reply.AuthorID, "update this reply"); err != nil {
		return nil, err
	}
	if err := validateReplyContent(content); err != nil {
		return nil, err
	}

	if err := s.replies.UpdateContent(ctx, id, content); err != nil {
		return nil, err
	}
	return s.replies.GetByID(ctx, id)
}

// DeleteReply removes exactly this reply; the thread and sibling replies are untouched.
func (s *ReplyService) DeleteReply(ctx context.Context, p models.Principal, id uint) error {
	reply, err := s.replies.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(p, reply.AuthorID, "delete this reply"); err != nil {
		return err
	}
	return s.replies.Delete(ctx, id)
}

func (s *ReplyService) ToggleLike(ctx context.Context, p models.Principal, id uint) (*models.LikeResult, error) {
	return toggleLike(ctx, s.likes, models.LikeTargetReply, id, p)
}

// AcceptReply marks a reply as the answer. Only the thread's author or an admin may accept.
func (s *ReplyService) AcceptReply(ctx context.Context, p models.Principal, id uint) (*models.Reply, error) {
	reply, err := s.replies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	thread, err := s.threads.GetByID(ctx, reply.ThreadID)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, thread.AuthorID, "accept replies on this thread"); err != nil {
		return nil, err
	}
	if err := s.replies.Accept(ctx, reply); err != nil {
		return nil, err
	}
	return s.replies.GetByID(ctx, id)
}
