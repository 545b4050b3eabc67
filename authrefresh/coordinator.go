// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authrefresh

import (
	"context"
	"errors"
	"time"

	"github.com/gogama/httpx-authrefresh/internal/tracking"
	"github.com/gogama/httpx-authrefresh/request"
	"github.com/gogama/httpx-authrefresh/timeout"
	"github.com/gogama/httpx-authrefresh/transient"
	"github.com/gogama/httpx-authrefresh/trigger"
	"github.com/google/uuid"
)

// A flight is one in-flight refresh. It settles exactly once, when done
// is closed, and err is immutable from then on.
//
// trigger is the refresh goroutine's private copy of the execution which
// started the cycle. Only that goroutine touches it until done is
// closed.
type flight struct {
	id      string
	start   time.Time
	done    chan struct{}
	err     error
	trigger *request.Execution
}

// wait blocks until f settles or ctx is done, whichever is first.
// settled is false if ctx ended the wait, in which case err is the
// context's error.
func (f *flight) wait(ctx context.Context) (settled bool, err error) {
	select {
	case <-f.done:
		return true, f.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// getOrStartRefresh returns the active flight, starting one if there is
// none. A newly started flight runs the refresh function on its own
// goroutine, which tears the cycle down before settling the flight.
//
// The refresh goroutine works on a snapshot of e with its own plan, so
// that the caller may stop waiting and go on updating e.
//
// Must be called with st.mu held.
func (r *Registration) getOrStartRefresh(e *request.Execution) (f *flight, started bool) {
	if r.st.active != nil {
		return r.st.active, false
	}

	snapshot := *e
	snapshot.Plan = e.Plan.Clone()
	f = &flight{
		id:      uuid.NewString(),
		start:   time.Now(),
		done:    make(chan struct{}),
		trigger: &snapshot,
	}
	r.st.active = f
	status, category := trigger.Status(e), transient.Categorize(e.Err)
	go r.run(context.WithoutCancel(e.Plan.Context()), f, status, category)
	return f, true
}

func (r *Registration) run(ctx context.Context, f *flight, status int, category transient.Category) {
	log := r.s.log.With().Str("cycle_id", f.id).Logger()
	ctx, span := r.s.rec.StartCycle(ctx, f.id, status)
	log.Debug().
		Int("status", status).
		Str("error_category", category.String()).
		Msg("Credential refresh started")

	err := r.callRefresh(ctx, f, f.trigger)

	r.st.mu.Lock()
	held := r.st.held
	r.st.teardown()
	r.st.mu.Unlock()

	elapsed := time.Since(f.start)
	outcome := tracking.OutcomeSuccess
	switch {
	case errors.Is(err, ErrRefreshPanicked):
		outcome = tracking.OutcomePanic
	case errors.Is(err, ErrRefreshTimeout):
		outcome = tracking.OutcomeTimeout
	case err != nil:
		outcome = tracking.OutcomeFailure
	}
	r.s.rec.EndCycle(ctx, span, elapsed, outcome, err)

	if err != nil {
		log.Warn().Err(err).Dur("elapsed", elapsed).Int("held", held).Str("outcome", outcome).Msg("Credential refresh failed")
	} else {
		log.Debug().Dur("elapsed", elapsed).Int("held", held).Msg("Credential refresh succeeded")
	}

	f.err = err
	close(f.done)
}

// callRefresh runs the refresh function, bounded by the refresh
// timeout if one is configured.
func (r *Registration) callRefresh(ctx context.Context, f *flight, e *request.Execution) error {
	if r.s.refreshTimeout == nil {
		return r.safeRefresh(ctx, f, e)
	}

	ctx, cancel := timeout.Context(ctx, r.s.refreshTimeout, e)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		result <- r.safeRefresh(ctx, f, e)
	}()

	select {
	case err := <-result:
		if err != nil && ctx.Err() == context.DeadlineExceeded {
			return ErrRefreshTimeout
		}
		return err
	case <-ctx.Done():
		return ErrRefreshTimeout
	}
}

// safeRefresh converts a panic in the refresh function into a failed
// cycle, so a misbehaving function never leaves state behind.
func (r *Registration) safeRefresh(ctx context.Context, f *flight, e *request.Execution) (err error) {
	defer func() {
		if v := recover(); v != nil {
			r.s.log.Error().
				Str("cycle_id", f.id).
				Interface("panic", v).
				Msg("Refresh function panicked; failing the refresh cycle")
			err = panicError(v)
		}
	}()

	return r.refresh(ctx, e)
}
