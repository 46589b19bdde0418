// Package search keeps an optional Meilisearch index of threads. When the
// index is absent or unhealthy, thread search falls back to SQL matching in
// the repository.
package search

import (
	"time"

	"threadboard/internal/models"
)

// ThreadDocument is the data we index for a thread.
type ThreadDocument struct {
	ID        uint     `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	AuthorID  uint     `json:"authorId"`
	CreatedAt int64    `json:"createdAt"`
}

// DocumentFromThread builds the index record for t.
func DocumentFromThread(t *models.Thread) ThreadDocument {
	tags := []string(t.Tags)
	if tags == nil {
		tags = []string{}
	}
	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return ThreadDocument{
		ID:        t.ID,
		Title:     t.Title,
		Content:   t.Content,
		Category:  t.Category,
		Tags:      tags,
		AuthorID:  t.AuthorID,
		CreatedAt: created.Unix(),
	}
}

// Backend is a full-text index able to answer thread queries.
type Backend interface {
	Healthy() bool
	SearchThreadIDs(query string, limit int64) ([]uint, error)
	IndexThreads(docs []ThreadDocument) error
	DeleteThread(id uint) error
}
