package git

import (
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/fluxcd/promote/pkg/metrics"
)

const (
	LabelCommand = "command"
	LabelSuccess = metrics.LabelSuccess
)

var (
	commandDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: "git",
		Name:      "command_duration_seconds",
		Help:      "Duration of git commands, in seconds.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{LabelCommand, LabelSuccess})
)
