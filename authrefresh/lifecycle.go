// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authrefresh

import (
	"sync"

	httpx "github.com/gogama/httpx-authrefresh"
	"github.com/gogama/httpx-authrefresh/internal/tracking"
	"github.com/gogama/httpx-authrefresh/request"
	"github.com/gogama/httpx-authrefresh/trigger"
)

// An Instance is a client which can both execute request plans and
// host interceptors. *httpx.Client is an Instance.
//
// The dynamic type of an Instance must be comparable, as a pointer
// type is.
type Instance interface {
	httpx.Doer
	httpx.Interceptable
}

// A Registration binds a refresh function to an instance. It is created
// by Register and lives until Eject is called.
type Registration struct {
	inst    Instance
	refresh RefreshFunc
	s       settings

	st coordinationState

	ejectOnce sync.Once
	id        httpx.InterceptorID
}

// Register installs an error interceptor on inst which refreshes
// credentials, by calling refresh, when a request fails in a way that
// Options describes, and then replays the failed request.
//
// Failures which arrive while a refresh is in progress join it rather
// than starting another, and requests sent on inst during the refresh
// are held until it settles. If the refresh succeeds, every joined
// failure is replayed once and the replay's outcome is returned to its
// caller. If the refresh fails, every joined caller receives the
// refresh function's error unchanged, and every held request is
// canceled with a *CanceledError.
//
// opts may be nil. Register returns ErrNilRefreshFunc if refresh is nil
// and ErrNilInstance if inst is nil.
func Register(inst Instance, refresh RefreshFunc, opts *Options) (*Registration, error) {
	if refresh == nil {
		return nil, ErrNilRefreshFunc
	}
	if inst == nil {
		return nil, ErrNilInstance
	}

	r := &Registration{
		inst:    inst,
		refresh: refresh,
		s:       newSettings(mergeOptions(defaultOptions, opts)),
	}
	r.id = inst.UseError(httpx.ErrorInterceptorFunc(r.intercept))
	return r, nil
}

// ID returns the ID of the error interceptor installed on the instance.
func (r *Registration) ID() httpx.InterceptorID {
	return r.id
}

// Refreshing reports whether a refresh cycle is in progress.
func (r *Registration) Refreshing() bool {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.st.active != nil
}

// Eject removes the registration's error interceptor from the
// instance, so no new refresh cycle can start. A cycle already in
// progress runs to completion: its waiters still observe its outcome,
// and its request gate is removed when it ends. Eject is idempotent.
func (r *Registration) Eject() {
	r.ejectOnce.Do(func() {
		r.inst.Eject(r.id)
	})
}

// intercept is the error interceptor. Classification and starting or
// joining the refresh cycle happen under one lock, so no failure can
// observe a half-started cycle.
func (r *Registration) intercept(e *request.Execution) (*request.Execution, error) {
	r.st.mu.Lock()
	if !r.st.shouldInterceptError(e, &r.s, r.inst) {
		r.st.mu.Unlock()
		return e, nil
	}
	if r.s.pause {
		r.st.pause(r.inst)
	}
	f, started := r.getOrStartRefresh(e)
	r.st.installGate(r.inst, httpx.RequestInterceptorFunc(r.gate))
	r.st.mu.Unlock()

	ctx := e.Plan.Context()
	log := r.s.log.With().Str("cycle_id", f.id).Logger()
	if !started {
		r.s.rec.Join(ctx)
		log.Debug().Int("status", trigger.Status(e)).Msg("Joined credential refresh")
	}

	settled, err := f.wait(ctx)
	if !settled || err != nil {
		return e, err
	}

	d := r.s.retry
	if d == nil {
		d = r.inst
	}
	// The starter replays the refresh function's copy, which may carry
	// new credentials.
	failed := e
	if started {
		failed = f.trigger
	}
	replay, err := resendFailedRequest(failed, d)
	if replay == nil {
		return e, err
	}

	outcome := tracking.OutcomeSuccess
	if replay.Failed() {
		outcome = tracking.OutcomeFailure
	}
	r.s.rec.Replay(ctx, outcome)
	log.Debug().Int("status", replay.StatusCode()).Str("outcome", outcome).Msg("Replayed failed request")
	return replay, err
}
