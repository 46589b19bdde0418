package repository

import (
	"context"
	"strings"

	"threadboard/internal/models"
	"threadboard/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Thread list sort keys.
const (
	SortRecent     = "recent"
	SortPopular    = "popular"
	SortTrending   = "trending"
	SortUnanswered = "unanswered"
)

// threadColumns selects every stored column plus the derived reply count.
const threadColumns = "threads.*, (SELECT COUNT(*) FROM replies WHERE replies.thread_id = threads.id) AS reply_count"

// ThreadListQuery narrows and orders a thread listing.
type ThreadListQuery struct {
	Sort     string
	Category string
	// Search is matched in SQL unless MatchIDs is set.
	Search string
	// MatchIDs restricts the listing to ids returned by an external search index.
	MatchIDs []uint
	Limit    int
	Offset   int
}

// ThreadRepository defines persistence operations for threads.
type ThreadRepository interface {
	List(ctx context.Context, q ThreadListQuery) ([]*models.Thread, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Thread, error)
	GetAndIncrementViews(ctx context.Context, id uint) (*models.Thread, error)
	Create(ctx context.Context, thread *models.Thread) error
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	DeleteReplies(ctx context.Context, threadID uint) (int64, error)
}

type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository creates a new thread repository
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) List(ctx context.Context, q ThreadListQuery) ([]*models.Thread, int64, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "List", "threads")
	defer span.End()
	defer observability.TrackQuery("list", "threads")()

	filters := r.filters(q)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Thread{}).Scopes(filters).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	threads := []*models.Thread{}
	if total == 0 {
		return threads, 0, nil
	}

	err := r.withDetails(r.db.WithContext(ctx)).
		Scopes(filters).
		Order(sortClause(q.Sort)).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&threads).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return threads, total, nil
}

func (r *threadRepository) filters(q ThreadListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.Category != "" {
			db = db.Where("threads.category = ?", q.Category)
		}
		switch {
		case q.MatchIDs != nil:
			db = db.Where("threads.id IN ?", append([]uint{0}, q.MatchIDs...))
		case strings.TrimSpace(q.Search) != "":
			db = r.matchText(db, strings.TrimSpace(q.Search))
		}
		if q.Sort == SortUnanswered {
			db = db.Where("NOT EXISTS (SELECT 1 FROM replies WHERE replies.thread_id = threads.id)")
		}
		return db
	}
}

// matchText uses the expression behind idx_threads_fts on PostgreSQL and a
// case-insensitive substring match elsewhere.
func (r *threadRepository) matchText(db *gorm.DB, term string) *gorm.DB {
	if isPostgres(r.db) {
		return db.Where(
			"to_tsvector('english', coalesce(threads.title, '') || ' ' || coalesce(threads.content, '')) @@ plainto_tsquery('english', ?)",
			term,
		)
	}
	like := "%" + strings.ToLower(term) + "%"
	return db.Where("LOWER(threads.title) LIKE ? OR LOWER(threads.content) LIKE ?", like, like)
}

func sortClause(sort string) string {
	switch sort {
	case SortPopular:
		return "threads.likes DESC, threads.created_at DESC, threads.id DESC"
	case SortTrending:
		return "threads.views DESC, threads.created_at DESC, threads.id DESC"
	default: // recent, unanswered and anything unrecognized
		return "threads.created_at DESC, threads.id DESC"
	}
}

// withDetails selects the reply count and preloads the author and liker rows.
func (r *threadRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Thread{}).
		Select(threadColumns).
		Preload("Author").
		Preload("Likers")
}

func (r *threadRepository) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	var thread models.Thread
	if err := r.withDetails(r.db.WithContext(ctx)).Where("threads.id = ?", id).Take(&thread).Error; err != nil {
		return nil, lookupError(err, "Thread", id)
	}
	return &thread, nil
}

// GetAndIncrementViews bumps the view counter in a single statement, then loads the thread.
func (r *threadRepository) GetAndIncrementViews(ctx context.Context, id uint) (*models.Thread, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetAndIncrementViews", "threads")
	defer span.End()

	result := r.db.WithContext(ctx).
		Model(&models.Thread{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if result.Error != nil {
		return nil, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Thread", id)
	}
	observability.ThreadViews.Inc()

	return r.GetByID(ctx, id)
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	defer observability.TrackQuery("create", "threads")()
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(thread).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes the given columns. Counters and authorship are never accepted here.
func (r *threadRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	for _, col := range []string{"id", "author_id", "views", "likes", "created_at"} {
		delete(fields, col)
	}
	if len(fields) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Thread", id)
	}
	return nil
}

// Delete removes the thread and its like rows. Replies are left to DeleteReplies.
func (r *threadRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("target_type = ? AND target_id = ?", models.LikeTargetThread, id).
			Delete(&models.Like{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Thread{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Thread", id)
		}
		return nil
	})
	return asAppError(err)
}

// DeleteReplies removes every reply of threadID together with their like rows.
func (r *threadRepository) DeleteReplies(ctx context.Context, threadID uint) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		replyIDs := tx.Model(&models.Reply{}).Select("id").Where("thread_id = ?", threadID)
		if err := tx.Where("target_type = ? AND target_id IN (?)", models.LikeTargetReply, replyIDs).
			Delete(&models.Like{}).Error; err != nil {
			return err
		}
		result := tx.Where("thread_id = ?", threadID).Delete(&models.Reply{})
		removed = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, asAppError(err)
	}
	return removed, nil
}

// PageRecent adapts repo to an offset pager over every thread, newest first.
func PageRecent(repo ThreadRepository) func(ctx context.Context, offset, limit int) ([]*models.Thread, error) {
	return func(ctx context.Context, offset, limit int) ([]*models.Thread, error) {
		threads, _, err := repo.List(ctx, ThreadListQuery{Sort: SortRecent, Limit: limit, Offset: offset})
		return threads, err
	}
}
