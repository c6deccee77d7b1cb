package promote

import (
	"fmt"
	"time"

	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/fluxcd/promote/pkg/metrics"
)

const (
	StageLoad     = "load"
	StageSnapshot = "snapshot"
	StageDiff     = "diff"
	StageWrite    = "write-note"
	StageRead     = "read-note"
	StagePatch    = "patch"
	StageEmit     = "emit"
)

var (
	stageDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of each stage of a promotion, in seconds.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{metrics.LabelStage, metrics.LabelSuccess})
)

func observeStage(stage string, start time.Time, err error) {
	stageDuration.With(
		metrics.LabelStage, stage,
		metrics.LabelSuccess, fmt.Sprint(err == nil),
	).Observe(time.Since(start).Seconds())
}
