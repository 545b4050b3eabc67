// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authrefresh

import (
	"context"

	httpx "github.com/gogama/httpx-authrefresh"
	"github.com/gogama/httpx-authrefresh/internal/tracking"
	"github.com/gogama/httpx-authrefresh/request"
	"github.com/gogama/httpx-authrefresh/timeout"
	"github.com/gogama/httpx-authrefresh/trigger"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// A RefreshFunc refreshes credentials. It receives a copy of the failed
// execution that started the refresh cycle, with its own plan.
//
// The function runs on its own goroutine, exactly once per cycle, and
// every request which joined the cycle observes its result. ctx carries
// the values of the triggering plan's context but is never canceled by
// it, so one caller giving up does not abort a refresh others are
// waiting on. Without Options.RefreshTimeout, a RefreshFunc which never
// returns holds those requests forever.
//
// The refresh function may update e.Plan, for example with
// SetBearerToken, before returning; the replay of the triggering
// request clones e.Plan after the refresh succeeds. Changes to e
// never reach the caller's own execution. Any request the
// function sends through the registered instance must set
// SkipAuthRefresh on its plan, or it will wait on itself.
type RefreshFunc func(ctx context.Context, e *request.Execution) error

// Options configures a registration. The zero value, and a nil
// *Options, refresh on status code 401 only.
type Options struct {
	// StatusCodes lists the response status codes which trigger a
	// refresh. If nil, trigger.DefaultStatusCodes is used. A non-nil
	// empty slice matches no status code.
	//
	// StatusCodes is ignored if ShouldRefresh is set.
	StatusCodes []int

	// ShouldRefresh, if set, decides whether a failed execution with a
	// response triggers a refresh, in place of StatusCodes.
	ShouldRefresh trigger.Decider

	// PauseInstanceWhileRefreshing stops further failures on the
	// instance from joining the refresh cycle which is already in
	// progress. They are passed through to their callers unchanged.
	PauseInstanceWhileRefreshing bool

	// SkipWhileRefreshing is an alias for PauseInstanceWhileRefreshing.
	// If either is true, the instance is paused.
	//
	// Deprecated: use PauseInstanceWhileRefreshing.
	SkipWhileRefreshing bool

	// InterceptNetworkError makes a transport failure with no response
	// trigger a refresh, as though it had a qualifying status code.
	// Cancellations never trigger a refresh.
	InterceptNetworkError bool

	// RetryInstance, if set, replays the failed request instead of the
	// registered instance.
	RetryInstance httpx.Doer

	// OnRetry, if set, transforms each request held by the request gate
	// before it is released after a successful refresh. It receives a
	// clone of the held plan and returns the plan to send. A non-nil
	// error aborts the request. The gate sits at the front of the
	// request interceptor chain, so the instance's other request
	// interceptors run after OnRetry.
	OnRetry func(p *request.Plan) (*request.Plan, error)

	// RefreshTimeout, if set, bounds each refresh cycle. The policy is
	// consulted with the triggering execution, and a zero or negative
	// duration means no bound. A cycle which exceeds its bound fails
	// with ErrRefreshTimeout. The refresh function's context is canceled
	// at the same time, but the cycle does not wait for it to return.
	RefreshTimeout timeout.Policy

	// Logger receives diagnostics. If nil, nothing is logged.
	Logger *zerolog.Logger

	// MeterProvider and TracerProvider receive refresh telemetry. If
	// nil, the global providers registered with package otel are used.
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

var defaultOptions = Options{
	StatusCodes: trigger.DefaultStatusCodes,
}

// mergeOptions overlays o on defaults. Only fields which o sets take
// effect.
func mergeOptions(defaults Options, o *Options) Options {
	merged := defaults
	if o == nil {
		return merged
	}

	if o.StatusCodes != nil {
		merged.StatusCodes = append(o.StatusCodes[:0:0], o.StatusCodes...)
	}
	if o.ShouldRefresh != nil {
		merged.ShouldRefresh = o.ShouldRefresh
	}
	merged.PauseInstanceWhileRefreshing = defaults.PauseInstanceWhileRefreshing ||
		o.PauseInstanceWhileRefreshing || o.SkipWhileRefreshing
	merged.SkipWhileRefreshing = merged.PauseInstanceWhileRefreshing
	merged.InterceptNetworkError = defaults.InterceptNetworkError || o.InterceptNetworkError
	if o.RetryInstance != nil {
		merged.RetryInstance = o.RetryInstance
	}
	if o.OnRetry != nil {
		merged.OnRetry = o.OnRetry
	}
	if o.RefreshTimeout != nil {
		merged.RefreshTimeout = o.RefreshTimeout
	}
	if o.Logger != nil {
		merged.Logger = o.Logger
	}
	if o.MeterProvider != nil {
		merged.MeterProvider = o.MeterProvider
	}
	if o.TracerProvider != nil {
		merged.TracerProvider = o.TracerProvider
	}

	return merged
}

// settings is the immutable, ready-to-use form of merged Options.
type settings struct {
	decider        trigger.Decider
	network        bool
	pause          bool
	retry          httpx.Doer
	onRetry        func(p *request.Plan) (*request.Plan, error)
	refreshTimeout timeout.Policy
	log            zerolog.Logger
	rec            *tracking.Recorder
}

func newSettings(o Options) settings {
	s := settings{
		decider:        o.ShouldRefresh,
		network:        o.InterceptNetworkError,
		pause:          o.PauseInstanceWhileRefreshing,
		retry:          o.RetryInstance,
		onRetry:        o.OnRetry,
		refreshTimeout: o.RefreshTimeout,
		log:            zerolog.Nop(),
	}
	if s.decider == nil {
		s.decider = trigger.StatusCode(o.StatusCodes...)
	}
	if o.Logger != nil {
		s.log = o.Logger.With().Str("component", "authrefresh").Logger()
	}
	s.rec = tracking.New(o.MeterProvider, o.TracerProvider, s.log)
	return s
}
