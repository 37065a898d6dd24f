package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var counterOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "viewkeeper_counter_ops_total",
	Help: "Number of counter operations by op and result",
}, []string{"op", "result"})

var mergedViews = promauto.NewCounter(prometheus.CounterOpts{
	Name: "viewkeeper_merged_views_total",
	Help: "Number of offline views merged into the store",
})

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isNotFound(err):
		return "not_found"
	case isInvalidSelector(err):
		return "invalid"
	default:
		return "unavailable"
	}
}
