package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/logging"
	"github.com/dmitrijs2005/viewkeeper/internal/server/models"
	"github.com/dmitrijs2005/viewkeeper/internal/server/repositories/documents"
)

// SeedPost is one record of a post table export, the same shape the post
// directory serves: [{"id":..,"title":..,"created":..,"views":..}].
type SeedPost struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
	Views   *int64    `json:"views,omitempty"`
}

// SeedService creates or refreshes documents from a post table export.
type SeedService struct {
	repo   documents.Repository
	table  string
	logger logging.Logger
}

func NewSeedService(repo documents.Repository, table string, logger logging.Logger) *SeedService {
	return &SeedService{repo: repo, table: table, logger: logger.With("module", "seed_service")}
}

// ParseSeed decodes a JSON post table.
func ParseSeed(data []byte) ([]SeedPost, error) {
	var posts []SeedPost
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

// ErrNegativeViews rejects a seed record whose views is below zero.
var ErrNegativeViews = errors.New("negative views")

// Seed upserts every post as a document of the service's table. Counters of
// existing documents are kept; Views only initialises new ones. A record
// with negative views fails the whole run before anything is written.
func (s *SeedService) Seed(ctx context.Context, posts []SeedPost) (int, error) {
	for _, p := range posts {
		if p.Views != nil && *p.Views < 0 {
			return 0, fmt.Errorf("seed %s: %w: %d", p.ID, ErrNegativeViews, *p.Views)
		}
	}

	n := 0
	for _, p := range posts {
		if p.ID == "" {
			s.logger.Warn(ctx, "skipping post without id", "title", p.Title)
			continue
		}
		doc := &models.Document{ID: p.ID, Table: s.table, Title: p.Title, Views: p.Views, CreatedAt: p.Created}
		if err := s.repo.Create(ctx, doc); err != nil {
			return n, fmt.Errorf("seed %s: %w", p.ID, err)
		}
		n++
	}
	s.logger.Info(ctx, "seeded documents", "count", n, "table", s.table)
	return n, nil
}
