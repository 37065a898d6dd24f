// Package services holds the server-side view counter logic: the remote
// counter store used by the Counter API, plus the operator tools that merge
// exported offline counts and seed documents.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
	"github.com/dmitrijs2005/viewkeeper/internal/server/models"
	"github.com/dmitrijs2005/viewkeeper/internal/server/repositories/documents"
)

// CounterService reads and bumps per-document view counters.
//
// Increment is read-then-write: it loads the current value and stores
// current+1. Two concurrent increments of the same document can both read
// the same value and both write the same result, losing one view.
// documents.Repository has no atomic add; the race is accepted.
type CounterService struct {
	repo   documents.Repository
	logger logging.Logger
}

func NewCounterService(repo documents.Repository, logger logging.Logger) *CounterService {
	return &CounterService{repo: repo, logger: logger.With("module", "counter_service")}
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}

func isInvalidSelector(err error) bool {
	return errors.Is(err, common.ErrorInvalidSelector)
}

// storeError keeps NotFound and invalid selectors as they are and classifies
// everything else as the remote store being unavailable.
func storeError(err error) error {
	if err == nil || isNotFound(err) || isInvalidSelector(err) || errors.Is(err, common.ErrRemoteUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
}

func (s *CounterService) resolve(ctx context.Context, sel common.Selector) (*models.Document, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if sel.IsTitle() {
		return s.repo.FindByTitle(ctx, sel.Table, sel.Title)
	}
	return s.repo.GetByID(ctx, sel.ID)
}

// Get returns the counter of the selected document; an unset counter is 0.
func (s *CounterService) Get(ctx context.Context, sel common.Selector) (int64, error) {
	doc, err := s.resolve(ctx, sel)
	err = storeError(err)
	counterOps.WithLabelValues(common.ActionGet, resultLabel(err)).Inc()
	if err != nil {
		return 0, err
	}
	return doc.ViewCount(), nil
}

// Increment adds one view to the selected document and returns the value written.
func (s *CounterService) Increment(ctx context.Context, sel common.Selector) (int64, error) {
	n, err := s.add(ctx, sel, 1)
	counterOps.WithLabelValues(common.ActionIncrement, resultLabel(err)).Inc()
	return n, err
}

func (s *CounterService) add(ctx context.Context, sel common.Selector, delta int64) (int64, error) {
	doc, err := s.resolve(ctx, sel)
	if err != nil {
		return 0, storeError(err)
	}

	next := doc.ViewCount() + delta
	if err := s.repo.SetViews(ctx, doc.ID, next); err != nil {
		return 0, storeError(err)
	}

	s.logger.Debug(ctx, "views updated", "selector", sel.String(), "views", next)
	return next, nil
}
