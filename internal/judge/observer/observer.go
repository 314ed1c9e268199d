// Package observer defines metrics hooks for the judge pipeline.
package observer

import (
	"context"

	"liva/pkg/utils/logger"

	"go.uber.org/zap"
)

// MetricsRecorder records judge pipeline metrics.
type MetricsRecorder interface {
	ObserveCompile(ctx context.Context, language string, ok bool, timeMs int64)
	ObserveJudge(ctx context.Context, language string, verdict string, score float64, totalTimeMs int64)
}

// NoopMetricsRecorder discards all observations.
type NoopMetricsRecorder struct{}

func (NoopMetricsRecorder) ObserveCompile(ctx context.Context, language string, ok bool, timeMs int64) {
}

func (NoopMetricsRecorder) ObserveJudge(ctx context.Context, language string, verdict string, score float64, totalTimeMs int64) {
}

// LogMetricsRecorder emits observations to the structured log.
type LogMetricsRecorder struct{}

func (LogMetricsRecorder) ObserveCompile(ctx context.Context, language string, ok bool, timeMs int64) {
	logger.Info(ctx, "compile observed",
		zap.String("language", language),
		zap.Bool("ok", ok),
		zap.Int64("time_ms", timeMs))
}

func (LogMetricsRecorder) ObserveJudge(ctx context.Context, language string, verdict string, score float64, totalTimeMs int64) {
	logger.Info(ctx, "judge observed",
		zap.String("language", language),
		zap.String("verdict", verdict),
		zap.Float64("score", score),
		zap.Int64("total_time_ms", totalTimeMs))
}
