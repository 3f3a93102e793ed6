// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("aleutian.depmap.scoring")
	meter  = otel.Meter("aleutian.depmap.scoring")

	scoreDuration metric.Float64Histogram
	scoreValues   metric.Int64Histogram
	scoreTotal    metric.Int64Counter

	metricsOnce sync.Once
)

func initMetrics() {
	metricsOnce.Do(func() {
		var err error

		scoreDuration, err = meter.Float64Histogram(
			"depscore_calc_duration_seconds",
			metric.WithDescription("Time to compute a confidence score"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
		}

		scoreValues, err = meter.Int64Histogram(
			"depscore_value",
			metric.WithDescription("Distribution of computed confidence values"),
		)
		if err != nil {
			otel.Handle(err)
		}

		scoreTotal, err = meter.Int64Counter(
			"depscore_calc_total",
			metric.WithDescription("Total confidence score calculations"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

func recordScoreMetrics(ctx context.Context, d time.Duration, value, evidenceCount int) {
	initMetrics()
	attrs := metric.WithAttributes(
		attribute.Int("evidence.count", evidenceCount),
	)
	if scoreDuration != nil {
		scoreDuration.Record(ctx, d.Seconds(), attrs)
	}
	if scoreValues != nil {
		scoreValues.Record(ctx, int64(value), attrs)
	}
	if scoreTotal != nil {
		scoreTotal.Add(ctx, 1, attrs)
	}
}

func startScoreSpan(ctx context.Context, evidenceCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "scoring.Calculate",
		trace.WithAttributes(
			attribute.Int("evidence.count", evidenceCount),
		),
	)
}

func setScoreSpanResult(span trace.Span, value int, level string) {
	span.SetAttributes(
		attribute.Int("score.value", value),
		attribute.String("score.level", level),
	)
}
