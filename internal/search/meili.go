package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"threadboard/internal/middleware"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxThreads = "threadboard_threads"

var errUnhealthy = errors.New("meilisearch unhealthy")

// Meili implements Backend via Meilisearch.
type Meili struct {
	client    meili.ServiceManager
	healthy   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewMeili creates a Meilisearch client and configures the thread index.
// The client starts unhealthy when the first health check fails; long-running
// callers run Monitor so it can recover.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		middleware.Logger.Warn("meilisearch unavailable", slog.String("url", url), slog.String("error", err.Error()))
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxThreads,
		PrimaryKey: "id",
	}); err != nil {
		middleware.Logger.Debug("meilisearch create index (may already exist)", slog.String("error", err.Error()))
	}

	index := m.client.Index(idxThreads)
	filterable := []interface{}{"category", "authorId"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		middleware.Logger.Warn("meilisearch update filterable attributes", slog.String("error", err.Error()))
	}
	searchable := []string{"title", "content", "tags"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		middleware.Logger.Warn("meilisearch update searchable attributes", slog.String("error", err.Error()))
	}
}

// Monitor re-checks health every 10s and reconfigures the index after an
// outage. It blocks until Close.
func (m *Meili) Monitor() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				middleware.Logger.Info("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops Monitor. It is safe to call more than once.
func (m *Meili) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// SearchThreadIDs returns the ids of matching threads in relevance order.
func (m *Meili) SearchThreadIDs(query string, limit int64) ([]uint, error) {
	if !m.healthy.Load() {
		return nil, errUnhealthy
	}

	resp, err := m.client.Index(idxThreads).Search(query, &meili.SearchRequest{
		Limit:                limit,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	ids := make([]uint, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if id, ok := decodeID(hit); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func decodeID(hit meili.Hit) (uint, bool) {
	raw, ok := hit["id"]
	if !ok {
		return 0, false
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return uint(n), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

// IndexThreads adds or replaces thread documents.
func (m *Meili) IndexThreads(docs []ThreadDocument) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := m.client.Index(idxThreads).AddDocuments(docs, nil)
	return err
}

// DeleteThread removes a thread from the index.
func (m *Meili) DeleteThread(id uint) error {
	_, err := m.client.Index(idxThreads).DeleteDocument(strconv.FormatUint(uint64(id), 10), nil)
	return err
}
