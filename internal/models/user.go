// Package models contains data structures for the forum's domain models.
package models

import (
	"time"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered forum member.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	Avatar     string    `json:"avatar"`
	Reputation int       `gorm:"not null;default:0" json:"reputation"`
	Role       Role      `gorm:"type:varchar(16);not null;default:user" json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the elevated role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Author is the denormalized identity attached to threads and replies.
type Author struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar"`
	Reputation int    `json:"reputation"`
}

// TableName maps Author onto the users table so it can be preloaded directly.
func (Author) TableName() string {
	return "users"
}

// Principal is the authenticated actor performing a request.
type Principal struct {
	ID   uint
	Role Role
}

// IsAdmin reports whether the principal holds the elevated role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanModify reports whether the principal may update or delete a resource owned by authorID.
func (p Principal) CanModify(authorID uint) bool {
	return p.ID == authorID || p.IsAdmin()
}
