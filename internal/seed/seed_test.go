package seed

import (
	"context"
	"testing"
	"time"

	"threadboard/internal/models"
	"threadboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestFactory_BuildThread(t *testing.T) {
	f := NewFactory(nil, Options{MaxDays: 30, RandSeed: 7, FastHash: true})
	author := &models.User{ID: 3, Role: models.RoleUser}

	for i := 0; i < 50; i++ {
		thread := f.BuildThread(author)

		assert.Equal(t, author.ID, thread.AuthorID)
		assert.True(t, models.IsValidCategory(thread.Category), thread.Category)
		assert.NotEqual(t, models.CategoryAnnounce, thread.Category, "announcements are reserved for admins")
		assert.NotEmpty(t, thread.Title)
		assert.LessOrEqual(t, len(thread.Title), models.MaxTitleLength)
		assert.LessOrEqual(t, len(thread.Tags), 3)
		assert.Equal(t, models.ThreadStatusOpen, thread.Status)
		assert.WithinDuration(t, time.Now(), thread.CreatedAt, 31*24*time.Hour)
	}
}

func TestFactory_BuildReplyAfterThread(t *testing.T) {
	f := NewFactory(nil, Options{RandSeed: 11})
	thread := &models.Thread{ID: 9, CreatedAt: time.Now().Add(-2 * time.Hour)}

	for i := 0; i < 20; i++ {
		reply := f.BuildReply(thread, &models.User{ID: 4})
		assert.Equal(t, thread.ID, reply.ThreadID)
		assert.False(t, reply.CreatedAt.Before(thread.CreatedAt))
		assert.NotEmpty(t, reply.Content)
	}
}

func TestFactory_UsersShareLoginPassword(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := NewFactory(db, Options{FastHash: true, RandSeed: 3})

	a, err := f.CreateUser(context.Background())
	require.NoError(t, err)
	b, err := f.CreateUser(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, a.Email, b.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(DefaultPassword)))
}

func TestSeed_PopulatesConsistentForum(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	res, err := Seed(context.Background(), db, Options{
		NumUsers:   6,
		NumThreads: 8,
		MaxReplies: 4,
		FastHash:   true,
		RandSeed:   42,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Users)
	assert.Equal(t, 8, res.Threads)

	var users, threads, replies, likes int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Thread{}).Count(&threads).Error)
	require.NoError(t, db.Model(&models.Reply{}).Count(&replies).Error)
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	assert.EqualValues(t, res.Users, users)
	assert.EqualValues(t, res.Threads, threads)
	assert.EqualValues(t, res.Replies, replies)
	assert.EqualValues(t, res.Likes, likes)

	var all []models.Thread
	require.NoError(t, db.Find(&all).Error)
	for _, thread := range all {
		var likeRows int64
		require.NoError(t, db.Model(&models.Like{}).
			Where("target_type = ? AND target_id = ?", string(models.LikeTargetThread), thread.ID).
			Count(&likeRows).Error)
		assert.Equal(t, likeRows, thread.Likes, "thread %d like counter", thread.ID)

		var accepted int64
		require.NoError(t, db.Model(&models.Reply{}).
			Where("thread_id = ? AND is_accepted = ?", thread.ID, true).
			Count(&accepted).Error)
		assert.LessOrEqual(t, accepted, int64(1))
		if accepted == 1 {
			assert.Equal(t, models.ThreadStatusSolved, thread.Status)
		}
	}
}

func TestSeed_CleanReplacesData(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	_, err := Seed(ctx, db, Options{NumUsers: 4, NumThreads: 3, MaxReplies: 2, FastHash: true, RandSeed: 1})
	require.NoError(t, err)

	res, err := Seed(ctx, db, Options{NumUsers: 2, NumThreads: 1, FastHash: true, ShouldClean: true, RandSeed: 2})
	require.NoError(t, err)

	var users, threads, replies int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Thread{}).Count(&threads).Error)
	require.NoError(t, db.Model(&models.Reply{}).Count(&replies).Error)
	assert.EqualValues(t, 2, users)
	assert.EqualValues(t, 1, threads)
	assert.Zero(t, res.Replies)
	assert.Zero(t, replies)
}
