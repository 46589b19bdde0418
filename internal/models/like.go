package models

import "time"

// LikeTarget names the kind of entity a like row points at.
type LikeTarget string

const (
	LikeTargetThread LikeTarget = "thread"
	LikeTargetReply  LikeTarget = "reply"
)

// Table returns the table holding the like counter for the target kind.
func (t LikeTarget) Table() string {
	switch t {
	case LikeTargetReply:
		return "replies"
	default:
		return "threads"
	}
}

// Resource is the human-readable resource name used in errors.
func (t LikeTarget) Resource() string {
	switch t {
	case LikeTargetReply:
		return "Reply"
	default:
		return "Thread"
	}
}

// Like records that a user liked a thread or a reply.
// One row per (user, target); the unique index keeps the liked-by set a set.
type Like struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_likes_user_target,priority:1" json:"user_id"`
	TargetType string    `gorm:"size:16;not null;uniqueIndex:idx_likes_user_target,priority:2;index:idx_likes_target,priority:1" json:"target_type"`
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_likes_user_target,priority:3;index:idx_likes_target,priority:2" json:"target_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// LikeResult is returned by a like toggle.
type LikeResult struct {
	Likes int64 `json:"likes"`
	Liked bool  `json:"liked"`
}
