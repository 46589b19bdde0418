package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"threadboard/internal/models"
	"threadboard/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestThreadRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewThreadRepository(db)
	ctx := context.Background()

	thread := &models.Thread{Title: "Hello", Content: "World", AuthorID: 1, Category: models.DefaultCategory}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "threads"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(ctx, thread))
	assert.Equal(t, uint(7), thread.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThreadRepository_IncrementViewsIsSingleStatement(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewThreadRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "threads" SET "views"=views + 1 WHERE id = $1`)).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := repo.GetAndIncrementViews(context.Background(), 42)
	requireAppCode(t, err, models.CodeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThreadRepository_GetAndIncrementViews(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewThreadRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "Author", models.RoleUser)
	thread := testutil.CreateThread(t, db, author.ID, "Viewed")
	testutil.CreateReply(t, db, thread.ID, author.ID, "first")

	for want := int64(1); want <= 3; want++ {
		got, err := repo.GetAndIncrementViews(ctx, thread.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Views)
		assert.Equal(t, int64(1), got.ReplyCount)
		require.NotNil(t, got.Author)
		assert.Equal(t, "Author", got.Author.Name)
	}

	plain, err := repo.GetByID(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), plain.Views, "GetByID must not count as a view")
}

func seedListing(t *testing.T, db *gorm.DB) (a, b, c *models.Thread) {
	t.Helper()
	author := testutil.CreateUser(t, db, "Lister", models.RoleUser)

	base := time.Now().Add(-time.Hour)
	a = testutil.CreateThread(t, db, author.ID, "Postgres tuning tips")
	b = testutil.CreateThread(t, db, author.ID, "Feature wishlist")
	c = testutil.CreateThread(t, db, author.ID, "Release announcement")

	require.NoError(t, db.Model(a).UpdateColumns(map[string]interface{}{"likes": 5, "views": 1, "created_at": base}).Error)
	require.NoError(t, db.Model(b).UpdateColumns(map[string]interface{}{
		"likes": 1, "views": 50, "created_at": base.Add(time.Minute), "category": models.CategoryFeature,
	}).Error)
	require.NoError(t, db.Model(c).UpdateColumns(map[string]interface{}{"likes": 3, "views": 10, "created_at": base.Add(2 * time.Minute)}).Error)

	testutil.CreateReply(t, db, a.ID, author.ID, "reply one")
	testutil.CreateReply(t, db, a.ID, author.ID, "reply two")
	return a, b, c
}

func titles(threads []*models.Thread) []string {
	out := make([]string, 0, len(threads))
	for _, th := range threads {
		out = append(out, th.Title)
	}
	return out
}

func TestThreadRepository_List(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewThreadRepository(db)
	ctx := context.Background()
	a, b, c := seedListing(t, db)

	tests := []struct {
		name      string
		query     ThreadListQuery
		wantTotal int64
		want      []string
	}{
		{"recent", ThreadListQuery{Limit: 20}, 3, []string{c.Title, b.Title, a.Title}},
		{"popular", ThreadListQuery{Sort: SortPopular, Limit: 20}, 3, []string{a.Title, c.Title, b.Title}},
		{"trending", ThreadListQuery{Sort: SortTrending, Limit: 20}, 3, []string{b.Title, c.Title, a.Title}},
		{"unanswered", ThreadListQuery{Sort: SortUnanswered, Limit: 20}, 2, []string{c.Title, b.Title}},
		{"category", ThreadListQuery{Category: models.CategoryFeature, Limit: 20}, 1, []string{b.Title}},
		{"search", ThreadListQuery{Search: "POSTGRES", Limit: 20}, 1, []string{a.Title}},
		{"match ids", ThreadListQuery{MatchIDs: []uint{c.ID, a.ID}, Limit: 20}, 2, []string{c.Title, a.Title}},
		{"empty match ids", ThreadListQuery{MatchIDs: []uint{}, Limit: 20}, 0, []string{}},
		{"second page", ThreadListQuery{Limit: 2, Offset: 2}, 3, []string{a.Title}},
		{"no hits", ThreadListQuery{Search: "nothing like this", Limit: 20}, 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			threads, total, err := repo.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.want, titles(threads))
		})
	}

	threads, _, err := repo.List(ctx, ThreadListQuery{Sort: SortPopular, Limit: 1})
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, int64(2), threads[0].ReplyCount)
	require.NotNil(t, threads[0].Author)
}

func TestThreadRepository_Update(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewThreadRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "Writer", models.RoleUser)
	thread := testutil.CreateThread(t, db, author.ID, "Before")

	err := repo.Update(ctx, thread.ID, map[string]interface{}{
		"title":     "After",
		"is_pinned": true,
		"views":     1000,
		"likes":     1000,
		"author_id": 999,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.True(t, got.IsPinned)
	assert.Zero(t, got.Views)
	assert.Zero(t, got.Likes)
	assert.Equal(t, author.ID, got.AuthorID)

	requireAppCode(t, repo.Update(ctx, 999, map[string]interface{}{"title": "x"}), models.CodeNotFound)
}

func TestThreadRepository_DeleteCascade(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	threads := NewThreadRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "Owner", models.RoleUser)
	fan := testutil.CreateUser(t, db, "Fan", models.RoleUser)
	doomed := testutil.CreateThread(t, db, author.ID, "Doomed")
	kept := testutil.CreateThread(t, db, author.ID, "Kept")
	r1 := testutil.CreateReply(t, db, doomed.ID, fan.ID, "one")
	testutil.CreateReply(t, db, doomed.ID, fan.ID, "two")
	survivor := testutil.CreateReply(t, db, kept.ID, fan.ID, "stays")

	_, err := likes.Toggle(ctx, models.LikeTargetThread, doomed.ID, fan.ID)
	require.NoError(t, err)
	_, err = likes.Toggle(ctx, models.LikeTargetReply, r1.ID, author.ID)
	require.NoError(t, err)
	_, err = likes.Toggle(ctx, models.LikeTargetReply, survivor.ID, author.ID)
	require.NoError(t, err)

	require.NoError(t, threads.Delete(ctx, doomed.ID))
	removed, err := threads.DeleteReplies(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var replyCount, likeCount int64
	require.NoError(t, db.Model(&models.Reply{}).Where("thread_id = ?", doomed.ID).Count(&replyCount).Error)
	assert.Zero(t, replyCount)
	require.NoError(t, db.Model(&models.Like{}).Count(&likeCount).Error)
	assert.Equal(t, int64(1), likeCount, "only the like on the surviving reply remains")

	_, err = threads.GetByID(ctx, doomed.ID)
	requireAppCode(t, err, models.CodeNotFound)
	requireAppCode(t, threads.Delete(ctx, doomed.ID), models.CodeNotFound)

	_, err = threads.GetByID(ctx, kept.ID)
	assert.NoError(t, err)
}
