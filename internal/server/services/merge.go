package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/dmitrijs2005/viewkeeper/internal/logging"
	"github.com/dmitrijs2005/viewkeeper/internal/submission"
)

// MergeReport summarizes one merge run.
type MergeReport struct {
	Applied map[string]int64 // key -> counter after merge
	Missing []string
	Failed  map[string]error
}

// Added is the total number of views written by the merge.
func (r *MergeReport) Added(sub *submission.Submission) int64 {
	var n int64
	for key := range r.Applied {
		n += sub.Counts[key]
	}
	return n
}

// MergeService applies exported offline counts to the document store. It is
// the operator half of the export/import workflow; clients never call it.
type MergeService struct {
	counters *CounterService
	logger   logging.Logger
}

func NewMergeService(counters *CounterService, logger logging.Logger) *MergeService {
	return &MergeService{counters: counters, logger: logger.With("module", "merge_service")}
}

// Merge adds each submitted count to the document addressed by resolve(key).
// Unknown documents are reported in Missing and do not stop the run; a store
// outage aborts it with ErrRemoteUnavailable and the partial report.
//
// Applying the same submission twice adds the counts twice; operators close
// the issue once merged.
func (m *MergeService) Merge(ctx context.Context, sub *submission.Submission, resolve func(key string) common.Selector) (*MergeReport, error) {
	report := &MergeReport{Applied: map[string]int64{}, Failed: map[string]error{}}

	for _, key := range sub.PostIDs() {
		delta := sub.Counts[key]
		if delta == 0 {
			continue
		}

		n, err := m.counters.add(ctx, resolve(key), delta)
		switch {
		case err == nil:
			report.Applied[key] = n
			mergedViews.Add(float64(delta))
			m.logger.Info(ctx, "merged", "key", key, "added", delta, "views", n)
		case isNotFound(err):
			report.Missing = append(report.Missing, key)
			m.logger.Warn(ctx, "merge target not found", "key", key)
		case errors.Is(err, common.ErrRemoteUnavailable):
			report.Failed[key] = err
			return report, fmt.Errorf("merge %s: %w", key, err)
		default:
			report.Failed[key] = err
			m.logger.Warn(ctx, "merge entry rejected", "key", key, "err", err)
		}
	}

	return report, nil
}
