package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

var issueOperations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "issuetracker_issue_operations_total",
		Help: "Issue service operations by operation and outcome (ok, rejected, error).",
	},
	[]string{"operation", "outcome"},
)

func recordOperation(op, outcome string) {
	issueOperations.WithLabelValues(op, outcome).Inc()
}
