package patch

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	promotemetrics "github.com/fluxcd/promote/pkg/metrics"
)

const (
	outcomeApplied   = "applied"
	outcomeDuplicate = "duplicate"
	outcomeNotFound  = "not-found"
	outcomeInvalid   = "invalid"
)

var (
	recordsTotal = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: promotemetrics.Namespace,
		Subsystem: "patch",
		Name:      "records_total",
		Help:      "Change records replayed onto a tree, by outcome.",
	}, []string{promotemetrics.LabelAction, promotemetrics.LabelOutcome})
)
