package search

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"threadboard/internal/models"

	meili "github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	healthy  bool
	ids      []uint
	err      error
	indexed  []ThreadDocument
	deleted  []uint
	queries  []string
	indexErr error
}

func (f *fakeBackend) Healthy() bool { return f.healthy }

func (f *fakeBackend) SearchThreadIDs(query string, _ int64) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.ids, f.err
}

func (f *fakeBackend) IndexThreads(docs []ThreadDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, docs...)
	return f.indexErr
}

func (f *fakeBackend) DeleteThread(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func syncService(b Backend) *Service {
	s := NewService(b)
	s.LaunchWith(func(_ string, fn func()) { fn() })
	return s
}

func TestService_MatchThreads(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		ids, ok := NewService(nil).MatchThreads(ctx, "golang")
		assert.False(t, ok)
		assert.Nil(t, ids)
	})

	t.Run("blank query", func(t *testing.T) {
		b := &fakeBackend{healthy: true}
		_, ok := syncService(b).MatchThreads(ctx, "   ")
		assert.False(t, ok)
		assert.Empty(t, b.queries)
	})

	t.Run("unhealthy", func(t *testing.T) {
		b := &fakeBackend{healthy: false, ids: []uint{1}}
		_, ok := syncService(b).MatchThreads(ctx, "golang")
		assert.False(t, ok)
		assert.Empty(t, b.queries)
	})

	t.Run("backend error falls back", func(t *testing.T) {
		b := &fakeBackend{healthy: true, err: errors.New("boom")}
		_, ok := syncService(b).MatchThreads(ctx, "golang")
		assert.False(t, ok)
	})

	t.Run("hits", func(t *testing.T) {
		b := &fakeBackend{healthy: true, ids: []uint{3, 1}}
		ids, ok := syncService(b).MatchThreads(ctx, "  golang ")
		assert.True(t, ok)
		assert.Equal(t, []uint{3, 1}, ids)
		assert.Equal(t, []string{"golang"}, b.queries)
	})

	t.Run("no hits is an empty match, not a fallback", func(t *testing.T) {
		b := &fakeBackend{healthy: true}
		ids, ok := syncService(b).MatchThreads(ctx, "golang")
		assert.True(t, ok)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
	})
}

func TestService_IndexAndDelete(t *testing.T) {
	b := &fakeBackend{healthy: true}
	s := syncService(b)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.IndexThread(&models.Thread{ID: 9, Title: "T", Content: "C", Category: models.CategorySupport, AuthorID: 4, CreatedAt: created})
	s.DeleteThread(9)

	require.Len(t, b.indexed, 1)
	assert.Equal(t, ThreadDocument{
		ID: 9, Title: "T", Content: "C", Category: models.CategorySupport,
		Tags: []string{}, AuthorID: 4, CreatedAt: created.Unix(),
	}, b.indexed[0])
	assert.Equal(t, []uint{9}, b.deleted)
}

func TestService_SkipsWritesWhenUnhealthy(t *testing.T) {
	b := &fakeBackend{healthy: false}
	s := syncService(b)

	s.IndexThread(&models.Thread{ID: 1})
	s.DeleteThread(1)
	require.NoError(t, s.Reindex([]*models.Thread{{ID: 1}}))

	assert.Empty(t, b.indexed)
	assert.Empty(t, b.deleted)
}

func TestService_Reindex(t *testing.T) {
	b := &fakeBackend{healthy: true}
	s := syncService(b)

	require.NoError(t, s.Reindex([]*models.Thread{{ID: 1, Tags: models.Tags{"go"}}, {ID: 2}}))
	require.Len(t, b.indexed, 2)
	assert.Equal(t, []string{"go"}, b.indexed[0].Tags)

	b.indexErr = errors.New("full")
	assert.Error(t, s.Reindex([]*models.Thread{{ID: 3}}))
}

func TestService_ReindexAll(t *testing.T) {
	ctx := context.Background()
	all := make([]*models.Thread, 0, 450)
	for i := 1; i <= 450; i++ {
		all = append(all, &models.Thread{ID: uint(i)})
	}
	pager := func(_ context.Context, offset, limit int) ([]*models.Thread, error) {
		if offset >= len(all) {
			return nil, nil
		}
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		return all[offset:end], nil
	}

	t.Run("walks every page", func(t *testing.T) {
		b := &fakeBackend{healthy: true}
		n, err := syncService(b).ReindexAll(ctx, pager)
		require.NoError(t, err)
		assert.Equal(t, 450, n)
		assert.Len(t, b.indexed, 450)
	})

	t.Run("listing error", func(t *testing.T) {
		listErr := models.NewInternalError(errors.New("db down"))
		_, err := syncService(&fakeBackend{healthy: true}).ReindexAll(ctx, func(context.Context, int, int) ([]*models.Thread, error) {
			return nil, listErr
		})
		assert.ErrorIs(t, err, listErr)
	})

	t.Run("index error is upstream", func(t *testing.T) {
		b := &fakeBackend{healthy: true, indexErr: errors.New("full")}
		n, err := syncService(b).ReindexAll(ctx, pager)
		require.Error(t, err)
		assert.Zero(t, n)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeUpstream, appErr.Code)
	})
}

func TestService_Healthy(t *testing.T) {
	enabled, healthy := NewService(nil).Healthy()
	assert.False(t, enabled)
	assert.False(t, healthy)

	enabled, healthy = NewService(&fakeBackend{healthy: true}).Healthy()
	assert.True(t, enabled)
	assert.True(t, healthy)
}

func TestDecodeID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want uint
		ok   bool
	}{
		{"number", `17`, 17, true},
		{"string", `"23"`, 23, true},
		{"garbage", `"abc"`, 0, false},
		{"object", `{}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := decodeID(meili.Hit{"id": json.RawMessage(tt.raw)})
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, id)
		})
	}

	_, ok := decodeID(meili.Hit{})
	assert.False(t, ok)
}
