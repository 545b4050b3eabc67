// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package tracking records OpenTelemetry metrics and spans for
// credential refresh cycles.
package tracking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ScopeName is the instrumentation scope of the meter and tracer.
	ScopeName = "github.com/gogama/httpx-authrefresh"

	MetricCycles   = "authrefresh.refresh.cycles"
	MetricDuration = "authrefresh.refresh.duration"
	MetricJoins    = "authrefresh.refresh.joins"
	MetricGate     = "authrefresh.gate.requests"
	MetricReplays  = "authrefresh.replays"

	SpanRefresh = "authrefresh.refresh"

	AttrOutcome    = "outcome"
	AttrAction     = "action"
	AttrCycleID    = "authrefresh.cycle_id"
	AttrStatusCode = "http.response.status_code"
)

// Refresh cycle and replay outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePanic   = "panic"
	OutcomeTimeout = "timeout"
)

// Request gate actions.
const (
	ActionReleased    = "released"
	ActionCanceled    = "canceled"
	ActionBypassed    = "bypassed"
	ActionPassthrough = "passthrough"
	ActionAbandoned   = "abandoned"
)

// Refresh durations range from a cached-token round trip to a slow
// identity provider.
var durationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// A Recorder records refresh cycle telemetry. A nil *Recorder records
// nothing, and so does a Recorder whose instruments failed to
// initialize.
type Recorder struct {
	tracer   trace.Tracer
	cycles   metric.Int64Counter
	duration metric.Float64Histogram
	joins    metric.Int64Counter
	gate     metric.Int64Counter
	replays  metric.Int64Counter
}

// New creates a Recorder. Nil providers fall back to the global
// providers registered with package otel. Instrument creation failures
// are logged to log and otherwise ignored.
func New(mp metric.MeterProvider, tp trace.TracerProvider, log zerolog.Logger) *Recorder {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	meter := mp.Meter(ScopeName)
	r := &Recorder{
		tracer: tp.Tracer(ScopeName),
	}

	logMetricError := func(name string, err error) {
		if err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to initialize metric")
		}
	}

	var err error
	r.cycles, err = meter.Int64Counter(
		MetricCycles,
		metric.WithDescription("Number of credential refresh cycles, by outcome"),
		metric.WithUnit("{cycle}"),
	)
	logMetricError(MetricCycles, err)

	r.duration, err = meter.Float64Histogram(
		MetricDuration,
		metric.WithDescription("Duration of credential refresh cycles"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	logMetricError(MetricDuration, err)

	r.joins, err = meter.Int64Counter(
		MetricJoins,
		metric.WithDescription("Number of failed requests that joined an in-flight refresh cycle"),
		metric.WithUnit("{request}"),
	)
	logMetricError(MetricJoins, err)

	r.gate, err = meter.Int64Counter(
		MetricGate,
		metric.WithDescription("Number of requests seen by the request gate, by action"),
		metric.WithUnit("{request}"),
	)
	logMetricError(MetricGate, err)

	r.replays, err = meter.Int64Counter(
		MetricReplays,
		metric.WithDescription("Number of failed requests replayed after a refresh, by outcome"),
		metric.WithUnit("{request}"),
	)
	logMetricError(MetricReplays, err)

	return r
}

// StartCycle starts the span covering one refresh cycle.
func (r *Recorder) StartCycle(ctx context.Context, cycleID string, status int) (context.Context, trace.Span) {
	if r == nil || r.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return r.tracer.Start(ctx, SpanRefresh,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrCycleID, cycleID),
			attribute.Int(AttrStatusCode, status),
		))
}

// EndCycle ends span and records the cycle count and duration under
// outcome. err is the refresh failure reason, if any.
func (r *Recorder) EndCycle(ctx context.Context, span trace.Span, elapsed time.Duration, outcome string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.String(AttrOutcome, outcome))
	span.End()

	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrOutcome, outcome))
	if r.cycles != nil {
		r.cycles.Add(ctx, 1, attrs)
	}
	if r.duration != nil {
		r.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// Join records a failed request joining an in-flight cycle.
func (r *Recorder) Join(ctx context.Context) {
	if r != nil && r.joins != nil {
		r.joins.Add(ctx, 1)
	}
}

// Gate records a request gate decision.
func (r *Recorder) Gate(ctx context.Context, action string) {
	if r != nil && r.gate != nil {
		r.gate.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrAction, action)))
	}
}

// Replay records the outcome of replaying a failed request.
func (r *Recorder) Replay(ctx context.Context, outcome string) {
	if r != nil && r.replays != nil {
		r.replays.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
	}
}
