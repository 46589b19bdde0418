package search

import (
	"context"
	"log/slog"
	"strings"

	"threadboard/internal/middleware"
	"threadboard/internal/models"
	"threadboard/internal/observability"
)

// maxHits caps how many ids one query pulls from the index; paging happens in SQL.
const maxHits = 1000

// Service is the facade the thread service talks to. A nil backend disables
// the index entirely.
type Service struct {
	backend Backend
	launch  func(name string, fn func())
}

// NewService creates a search service. backend may be nil if Meilisearch is not configured.
func NewService(backend Backend) *Service {
	return &Service{backend: backend, launch: func(_ string, fn func()) { go fn() }}
}

// LaunchWith routes the fire-and-forget index writes through launch, typically
// a supervisor that recovers panics.
func (s *Service) LaunchWith(launch func(name string, fn func())) {
	if launch != nil {
		s.launch = launch
	}
}

func (s *Service) available() bool {
	return s != nil && s.backend != nil && s.backend.Healthy()
}

// MatchThreads returns matching thread ids from the index. ok is false when
// the caller must fall back to SQL matching.
func (s *Service) MatchThreads(ctx context.Context, query string) (ids []uint, ok bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false
	}
	if !s.available() {
		observability.SearchBackend.WithLabelValues("sql").Inc()
		return nil, false
	}

	ids, err := s.backend.SearchThreadIDs(query, maxHits)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "search index failed, falling back to sql",
			slog.String("error", err.Error()))
		observability.SearchBackend.WithLabelValues("sql").Inc()
		return nil, false
	}
	observability.SearchBackend.WithLabelValues("meilisearch").Inc()
	if ids == nil {
		ids = []uint{}
	}
	return ids, true
}

// IndexThread indexes a thread (fire-and-forget).
func (s *Service) IndexThread(t *models.Thread) {
	if !s.available() || t == nil {
		return
	}
	doc := DocumentFromThread(t)
	s.launch("search-index", func() {
		if err := s.backend.IndexThreads([]ThreadDocument{doc}); err != nil {
			middleware.Logger.Warn("search: index thread", slog.Uint64("thread_id", uint64(doc.ID)), slog.String("error", err.Error()))
		}
	})
}

// DeleteThread removes a thread from the index (fire-and-forget).
func (s *Service) DeleteThread(id uint) {
	if !s.available() {
		return
	}
	s.launch("search-delete", func() {
		if err := s.backend.DeleteThread(id); err != nil {
			middleware.Logger.Warn("search: delete thread", slog.Uint64("thread_id", uint64(id)), slog.String("error", err.Error()))
		}
	})
}

// Reindex pushes every given thread to the index synchronously.
func (s *Service) Reindex(threads []*models.Thread) error {
	if !s.available() || len(threads) == 0 {
		return nil
	}
	docs := make([]ThreadDocument, 0, len(threads))
	for _, t := range threads {
		docs = append(docs, DocumentFromThread(t))
	}
	return s.backend.IndexThreads(docs)
}

// ThreadPager returns one page of threads. An empty page ends the walk.
type ThreadPager func(ctx context.Context, offset, limit int) ([]*models.Thread, error)

const reindexBatchSize = 200

// ReindexAll walks every page from next and pushes it to the index, returning
// how many threads were indexed. Listing errors are returned unchanged; index
// failures come back as upstream errors.
func (s *Service) ReindexAll(ctx context.Context, next ThreadPager) (int, error) {
	indexed := 0
	for offset := 0; ; offset += reindexBatchSize {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		threads, err := next(ctx, offset, reindexBatchSize)
		if err != nil {
			return indexed, err
		}
		if len(threads) == 0 {
			return indexed, nil
		}
		if err := s.Reindex(threads); err != nil {
			return indexed, models.NewUpstreamError("Search index", err)
		}
		indexed += len(threads)
		if len(threads) < reindexBatchSize {
			return indexed, nil
		}
	}
}

// Healthy reports index health for the readiness check. A disabled index is not an error.
func (s *Service) Healthy() (enabled, healthy bool) {
	if s == nil || s.backend == nil {
		return false, false
	}
	return true, s.backend.Healthy()
}
