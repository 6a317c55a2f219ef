package lint

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("lintdiff.lint")
	meter  = otel.Meter("lintdiff.lint")
)

var (
	lintLatency   metric.Float64Histogram
	lintTotal     metric.Int64Counter
	offensesFound metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments on first use so that a meter provider
// installed by telemetry.Init is picked up.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		lintLatency, err = meter.Float64Histogram(
			"lintdiff_lint_duration_seconds",
			metric.WithDescription("Duration of one linter invocation"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		lintTotal, err = meter.Int64Counter(
			"lintdiff_lint_total",
			metric.WithDescription("Linter invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		offensesFound, err = meter.Int64Counter(
			"lintdiff_offenses_reported_total",
			metric.WithDescription("Offenses reported by the linter before line filtering"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

func startSpan(ctx context.Context, op, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "lint."+op,
		trace.WithAttributes(attribute.String("lint.path", path)),
	)
}

func endSpan(span trace.Span, offenses int, err error) {
	span.SetAttributes(attribute.Int("lint.offense_count", offenses))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func recordLint(ctx context.Context, op string, d time.Duration, offenses int, ok bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.Bool("success", ok),
	)
	lintLatency.Record(ctx, d.Seconds(), attrs)
	lintTotal.Add(ctx, 1, attrs)
	if ok {
		offensesFound.Add(ctx, int64(offenses))
	}
}
