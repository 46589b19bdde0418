package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"threadboard/internal/middleware"
	"threadboard/internal/models"
	"threadboard/internal/observability"
	"threadboard/internal/repository"
)

// Listing page sizes.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ThreadSearcher is the optional full-text index kept in step with thread writes.
type ThreadSearcher interface {
	MatchThreads(ctx context.Context, query string) ([]uint, bool)
	IndexThread(thread *models.Thread)
	DeleteThread(id uint)
}

type noopSearcher struct{}

func (noopSearcher) MatchThreads(context.Context, string) ([]uint, bool) { return nil, false }
func (noopSearcher) IndexThread(*models.Thread)                          {}
func (noopSearcher) DeleteThread(uint)                                   {}

type ThreadService struct {
	threads repository.ThreadRepository
	likes   repository.LikeRepository
	search  ThreadSearcher
}

type ListThreadsInput struct {
	Filter   string
	Category string
	Search   string
	Page     int
	Limit    int
}

// ThreadPage is one page of a thread listing. Pages is the total page count.
type ThreadPage struct {
	Threads []*models.Thread
	Total   int64
	Page    int
	Limit   int
	Pages   int
}

type CreateThreadInput struct {
	Title    string
	Content  string
	Category string
	Tags     []string
	Status   string
	IsPinned bool
	IsLocked bool
}

// UpdateThreadInput carries a partial update; nil fields are left untouched.
type UpdateThreadInput struct {
	Title    *string
	Content  *string
	Category *string
	Tags     *[]string
	Status   *string
	IsPinned *bool
	IsLocked *bool
}

// NewThreadService wires the thread service. search may be nil.
func NewThreadService(
	threads repository.ThreadRepository,
	likes repository.LikeRepository,
	search ThreadSearcher,
) *ThreadService {
	if search == nil {
		search = noopSearcher{}
	}
	return &ThreadService{threads: threads, likes: likes, search: search}
}

// normalizePage clamps page to >= 1 and limit to [1, MaxPageSize], defaulting limit.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func (s *ThreadService) ListThreads(ctx context.Context, in ListThreadsInput) (*ThreadPage, error) {
	page, limit := normalizePage(in.Page, in.Limit)

	q := repository.ThreadListQuery{
		Sort:     in.Filter,
		Category: strings.TrimSpace(in.Category),
		Search:   strings.TrimSpace(in.Search),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}
	if q.Search != "" {
		if ids, ok := s.search.MatchThreads(ctx, q.Search); ok {
			q.MatchIDs = ids
		}
	}

	threads, total, err := s.threads.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if threads == nil {
		threads = []*models.Thread{}
	}

	return &ThreadPage{
		Threads: threads,
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// GetThread returns the thread and counts the read as one view.
func (s *ThreadService) GetThread(ctx context.Context, id uint) (*models.Thread, error) {
	return s.threads.GetAndIncrementViews(ctx, id)
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", models.NewValidationError("Please provide a title")
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return "", models.NewValidationError("Title cannot be more than 200 characters")
	}
	return title, nil
}

func validateThreadContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Please provide content")
	}
	if utf8.RuneCountInString(content) > models.MaxContentLength {
		return models.NewValidationError("Content cannot be more than 10000 characters")
	}
	return nil
}

func validateCategory(category string) error {
	if !models.IsValidCategory(category) {
		return models.NewValidationError("Please select a valid category")
	}
	return nil
}

func validateStatus(status string) error {
	if !models.IsValidThreadStatus(status) {
		return models.NewValidationError("Status must be one of open, solved, closed")
	}
	return nil
}

func (s *ThreadService) CreateThread(ctx context.Context, p models.Principal, in CreateThreadInput) (*models.Thread, error) {
	if p.ID == 0 {
		return nil, models.NewUnauthorizedError("Not authorized to access this route")
	}

	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := validateThreadContent(in.Content); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = models.ThreadStatusOpen
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	thread := &models.Thread{
		Title:    title,
		Content:  in.Content,
		AuthorID: p.ID,
		Category: category,
		Tags:     models.NormalizeTags(in.Tags),
		Status:   status,
		IsPinned: in.IsPinned,
		IsLocked: in.IsLocked,
	}
	if err := s.threads.Create(ctx, thread); err != nil {
		return nil, err
	}

	created, err := s.threads.GetByID(ctx, thread.ID)
	if err != nil {
		return nil, err
	}
	s.search.IndexThread(created)
	return created, nil
}

func (s *ThreadService) UpdateThread(ctx context.Context, p models.Principal, id uint, in UpdateThreadInput) (*models.Thread, error) {
	thread, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, thread.AuthorID, "update this thread"); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if in.Content != nil {
		if err := validateThreadContent(*in.Content); err != nil {
			return nil, err
		}
		fields["content"] = *in.Content
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if err := validateCategory(category); err != nil {
			return nil, err
		}
		fields["category"] = category
	}
	if in.Tags != nil {
		fields["tags"] = models.NormalizeTags(*in.Tags)
	}
	if in.Status != nil {
		status := strings.TrimSpace(*in.Status)
		if err := validateStatus(status); err != nil {
			return nil, err
		}
		fields["status"] = status
	}
	if in.IsPinned != nil {
		fields["is_pinned"] = *in.IsPinned
	}
	if in.IsLocked != nil {
		fields["is_locked"] = *in.IsLocked
	}

	if len(fields) > 0 {
		if err := s.threads.Update(ctx, id, fields); err != nil {
			return nil, err
		}
	}

	updated, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.search.IndexThread(updated)
	return updated, nil
}

// DeleteThread removes the thread, then its replies. The two steps are not one
// transaction: if the reply cascade fails the thread stays deleted and the
// leftover replies are reported as orphans.
func (s *ThreadService) DeleteThread(ctx context.Context, p models.Principal, id uint) error {
	thread, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(p, thread.AuthorID, "delete this thread"); err != nil {
		return err
	}

	if err := s.threads.Delete(ctx, id); err != nil {
		return err
	}
	s.search.DeleteThread(id)

	removed, err := s.threads.DeleteReplies(ctx, id)
	if err != nil {
		observability.OrphanedReplyCascades.Inc()
		middleware.Logger.ErrorContext(ctx, "thread deleted but reply cascade failed; replies orphaned",
			slog.Uint64("thread_id", uint64(id)),
			slog.String("error", err.Error()),
		)
		return nil
	}
	observability.CascadeDeletedReplies.Add(float64(removed))
	return nil
}

func (s *ThreadService) ToggleLike(ctx context.Context, p models.Principal, id uint) (*models.LikeResult, error) {
	return toggleLike(ctx, s.likes, models.LikeTargetThread, id, p)
}
