package diff

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	promotemetrics "github.com/fluxcd/promote/pkg/metrics"
)

var (
	recordsTotal = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: promotemetrics.Namespace,
		Subsystem: "diff",
		Name:      "records_total",
		Help:      "Change records produced by comparing trees.",
	}, []string{promotemetrics.LabelAction})
)
