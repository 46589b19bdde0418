package repository

import (
	"context"

	"threadboard/internal/models"
	"threadboard/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReplyRepository defines persistence operations for replies.
type ReplyRepository interface {
	ListByThread(ctx context.Context, threadID uint) ([]*models.Reply, error)
	GetByID(ctx context.Context, id uint) (*models.Reply, error)
	Create(ctx context.Context, reply *models.Reply, admit func(*models.Thread) error) error
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
	Accept(ctx context.Context, reply *models.Reply) error
}

type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new reply repository
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) ListByThread(ctx context.Context, threadID uint) ([]*models.Reply, error) {
	defer observability.TrackQuery("list", "replies")()

	replies := []*models.Reply{}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Likers").
		Where("thread_id = ?", threadID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return replies, nil
}

func (r *replyRepository) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	var reply models.Reply
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Likers").
		First(&reply, id).Error
	if err != nil {
		return nil, lookupError(err, "Reply", id)
	}
	return &reply, nil
}

// Create inserts reply while holding a lock on its parent thread. admit sees
// the locked row and may veto the insert; a thread deleted or locked
// concurrently is therefore never replied to.
func (r *replyRepository) Create(ctx context.Context, reply *models.Reply, admit func(*models.Thread) error) error {
	ctx, span := observability.StartRepositorySpan(ctx, "Create", "replies")
	defer span.End()
	defer observability.TrackQuery("create", "replies")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent models.Thread
		if err := forUpdate(tx).Where("id = ?", reply.ThreadID).Take(&parent).Error; err != nil {
			return lookupError(err, "Thread", reply.ThreadID)
		}
		if admit != nil {
			if err := admit(&parent); err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Create(reply).Error
	})
	return asAppError(err)
}

func (r *replyRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	result := r.db.WithContext(ctx).Model(&models.Reply{}).Where("id = ?", id).Update("content", content)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Reply", id)
	}
	return nil
}

// Delete removes exactly one reply and its like rows.
func (r *replyRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("target_type = ? AND target_id = ?", models.LikeTargetReply, id).
			Delete(&models.Like{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Reply{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Reply", id)
		}
		return nil
	})
	return asAppError(err)
}

// Accept marks reply as the thread's answer, clears any previous answer and
// moves the thread to solved, all in one transaction.
func (r *replyRepository) Accept(ctx context.Context, reply *models.Reply) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Reply{}).
			Where("thread_id = ? AND id <> ? AND is_accepted = ?", reply.ThreadID, reply.ID, true).
			Update("is_accepted", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Reply{}).Where("id = ?", reply.ID).Update("is_accepted", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Thread{}).
			Where("id = ?", reply.ThreadID).
			Update("status", models.ThreadStatusSolved).Error
	})
	if err != nil {
		return asAppError(err)
	}
	reply.IsAccepted = true
	return nil
}
