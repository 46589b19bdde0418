// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"threadboard/internal/database"
	"threadboard/internal/middleware"
	"threadboard/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewSQLiteDB opens a private in-memory SQLite database with the forum schema applied.
// The pool is pinned to one connection so every statement sees the same memory database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=off", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: database.NewGormLogger(middleware.Logger, logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with the given name and role and returns it.
func CreateUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "$2a$10$abcdefghijklmnopqrstuu0123456789012345678901234567890",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateThread inserts a thread owned by authorID.
func CreateThread(t *testing.T, db *gorm.DB, authorID uint, title string) *models.Thread {
	t.Helper()
	thread := &models.Thread{
		Title:    title,
		Content:  "Content for " + title,
		AuthorID: authorID,
		Category: models.DefaultCategory,
		Tags:     models.Tags{},
		Status:   models.ThreadStatusOpen,
	}
	require.NoError(t, db.Create(thread).Error)
	return thread
}

// CreateReply inserts a reply under threadID.
func CreateReply(t *testing.T, db *gorm.DB, threadID, authorID uint, content string) *models.Reply {
	t.Helper()
	reply := &models.Reply{ThreadID: threadID, AuthorID: authorID, Content: content}
	require.NoError(t, db.Create(reply).Error)
	return reply
}
