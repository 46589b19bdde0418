package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Thread categories accepted by the forum.
const (
	CategoryGeneral  = "General Discussion"
	CategorySupport  = "Technical Support"
	CategoryFeature  = "Feature Requests"
	CategoryAnnounce = "Announcements"
	DefaultCategory  = CategoryGeneral
)

const (
	ThreadStatusOpen   = "open"
	ThreadStatusSolved = "solved"
	ThreadStatusClosed = "closed"
)

// Length limits in characters.
const (
	MaxTitleLength   = 200
	MaxContentLength = 10000
	MaxReplyLength   = 5000
)

// Categories lists every valid thread category in display order.
var Categories = []string{CategoryGeneral, CategorySupport, CategoryFeature, CategoryAnnounce}

// IsValidCategory reports whether c is one of Categories.
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// IsValidThreadStatus reports whether s is open, solved or closed.
func IsValidThreadStatus(s string) bool {
	switch s {
	case ThreadStatusOpen, ThreadStatusSolved, ThreadStatusClosed:
		return true
	}
	return false
}

// Tags is a list of thread tags stored as a JSON array.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("tags: unsupported scan type")
	}
	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*t = out
	return nil
}

// NormalizeTags trims every tag and drops empty entries.
func NormalizeTags(in []string) Tags {
	out := make(Tags, 0, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// Thread is a top-level discussion post.
type Thread struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Title    string  `gorm:"size:200;not null" json:"title"`
	Content  string  `gorm:"type:text;not null" json:"content"`
	AuthorID uint    `gorm:"not null;index:idx_threads_author_created,priority:1" json:"author_id"`
	Author   *Author `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Category string  `gorm:"size:64;not null;default:'General Discussion';index:idx_threads_category_created,priority:1" json:"category"`
	Tags     Tags    `gorm:"type:text" json:"tags"`
	Status   string  `gorm:"size:16;not null;default:open" json:"status"`
	Views    int64   `gorm:"not null;default:0" json:"views"`
	Likes    int64   `gorm:"not null;default:0" json:"likes"`
	IsPinned bool    `gorm:"not null;default:false" json:"is_pinned"`
	IsLocked bool    `gorm:"not null;default:false" json:"is_locked"`
	// ReplyCount is not persisted; computed at query time
	ReplyCount int64 `gorm:"->" json:"reply_count"`
	// Likers backs LikedBy; loaded through the polymorphic like rows.
	Likers    []Like    `gorm:"polymorphic:Target;polymorphicValue:thread" json:"-"`
	LikedBy   []uint    `gorm:"-" json:"liked_by"`
	CreatedAt time.Time `gorm:"index:idx_threads_author_created,priority:2;index:idx_threads_category_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AfterFind flattens the preloaded like rows into LikedBy.
func (t *Thread) AfterFind(_ *gorm.DB) error {
	t.LikedBy = likerIDs(t.Likers)
	return nil
}

func likerIDs(likes []Like) []uint {
	ids := make([]uint, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.UserID)
	}
	return ids
}
