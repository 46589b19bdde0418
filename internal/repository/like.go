package repository

import (
	"context"

	"threadboard/internal/models"
	"threadboard/internal/observability"

	"gorm.io/gorm"
)

// LikeRepository flips like membership for threads and replies.
type LikeRepository interface {
	Toggle(ctx context.Context, target models.LikeTarget, targetID, userID uint) (*models.LikeResult, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

type likeCounter struct {
	ID    uint
	Likes int64
}

// Toggle removes the user's like if present and adds it otherwise. The target
// row stays locked for the whole transaction so the counter and the like rows
// always commit together.
func (r *likeRepository) Toggle(ctx context.Context, target models.LikeTarget, targetID, userID uint) (*models.LikeResult, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Toggle", "likes")
	defer span.End()
	defer observability.TrackQuery("toggle", target.Table())()

	table := target.Table()
	result := &models.LikeResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row likeCounter
		if err := forUpdate(tx.Table(table)).Select("id", "likes").Where("id = ?", targetID).Take(&row).Error; err != nil {
			return lookupError(err, target.Resource(), targetID)
		}

		removed := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, string(target), targetID).
			Delete(&models.Like{})
		if removed.Error != nil {
			return removed.Error
		}

		delta := gorm.Expr("likes - 1")
		if removed.RowsAffected == 0 {
			like := &models.Like{UserID: userID, TargetType: string(target), TargetID: targetID}
			if err := tx.Create(like).Error; err != nil {
				return err
			}
			delta = gorm.Expr("likes + 1")
			result.Liked = true
		}

		if err := tx.Table(table).Where("id = ?", targetID).UpdateColumn("likes", delta).Error; err != nil {
			return err
		}
		return tx.Table(table).Select("likes").Where("id = ?", targetID).Row().Scan(&result.Likes)
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return result, nil
}
