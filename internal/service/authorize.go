// Package service holds the forum's business rules on top of the repositories.
package service

import (
	"context"

	"threadboard/internal/models"
	"threadboard/internal/observability"
	"threadboard/internal/repository"
)

// authorize allows the resource's author or an admin.
func authorize(p models.Principal, authorID uint, action string) error {
	if p.ID == 0 {
		return models.NewUnauthorizedError("Not authorized to access this route")
	}
	if !p.CanModify(authorID) {
		return models.NewForbiddenError("Not authorized to " + action)
	}
	return nil
}

// toggleLike is the single like-toggle path shared by threads and replies.
func toggleLike(ctx context.Context, likes repository.LikeRepository, target models.LikeTarget, id uint, p models.Principal) (*models.LikeResult, error) {
	if p.ID == 0 {
		return nil, models.NewUnauthorizedError("Not authorized to access this route")
	}
	result, err := likes.Toggle(ctx, target, id, p.ID)
	if err != nil {
		return nil, err
	}
	direction := "unlike"
	if result.Liked {
		direction = "like"
	}
	observability.LikeToggles.WithLabelValues(string(target), direction).Inc()
	return result, nil
}
