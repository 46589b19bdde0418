package models

import (
	"time"

	"gorm.io/gorm"
)

// Reply is a response posted under a thread.
type Reply struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ThreadID   uint      `gorm:"not null;index:idx_replies_thread_created,priority:1" json:"thread_id"`
	AuthorID   uint      `gorm:"not null;index" json:"author_id"`
	Author     *Author   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Likes      int64     `gorm:"not null;default:0" json:"likes"`
	IsAccepted bool      `gorm:"not null;default:false" json:"is_accepted"`
	Likers     []Like    `gorm:"polymorphic:Target;polymorphicValue:reply" json:"-"`
	LikedBy    []uint    `gorm:"-" json:"liked_by"`
	CreatedAt  time.Time `gorm:"index:idx_replies_thread_created,priority:2" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AfterFind flattens the preloaded like rows into LikedBy.
func (r *Reply) AfterFind(_ *gorm.DB) error {
	r.LikedBy = likerIDs(r.Likers)
	return nil
}
