package documents

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps documents in a map. It is used for local
// development and tests; data is lost on restart.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]models.Document
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string]models.Document), now: time.Now}
}

func clone(d models.Document) *models.Document {
	if d.Views != nil {
		v := *d.Views
		d.Views = &v
	}
	return &d
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.docs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(d), nil
}

func (r *MemoryRepository) FindByTitle(ctx context.Context, table, title string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []models.Document
	for _, d := range r.docs {
		if d.Table == table && d.Title == title {
			matches = append(matches, d)
		}
	}
	if len(matches) == 0 {
		return nil, common.ErrorNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return clone(matches[0]), nil
}

func (r *MemoryRepository) SetViews(ctx context.Context, id string, views int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[id]
	if !ok {
		return common.ErrorNotFound
	}
	d.Views = &views
	r.docs[id] = d
	return nil
}

// Create stores doc, assigning an id when empty. Existing documents keep
// their counter and creation time.
func (r *MemoryRepository) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if existing, ok := r.docs[doc.ID]; ok {
		existing.Table = doc.Table
		existing.Title = doc.Title
		r.docs[doc.ID] = existing
		doc.CreatedAt = existing.CreatedAt
		return nil
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = r.now()
	}
	r.docs[doc.ID] = *clone(*doc)
	return nil
}
