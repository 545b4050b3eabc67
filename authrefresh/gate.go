// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authrefresh

import (
	httpx "github.com/gogama/httpx-authrefresh"
	"github.com/gogama/httpx-authrefresh/internal/tracking"
	"github.com/gogama/httpx-authrefresh/request"
)

// installGate installs gate at the front of inst's request chain unless
// a gate is already installed, and returns the installed gate's ID.
// Request interceptors installed by the user run after the gate, so a
// released request picks up credentials refreshed while it was held.
//
// Must be called with mu held.
func (st *coordinationState) installGate(inst httpx.Interceptable, gate httpx.RequestInterceptor) httpx.InterceptorID {
	if st.gateID != 0 {
		return st.gateID
	}

	st.gateID = inst.PrependRequest(gate)
	st.gated = inst
	return st.gateID
}

// uninstallGate ejects the request gate if it is installed.
//
// Must be called with mu held.
func (st *coordinationState) uninstallGate() {
	if st.gateID == 0 {
		return
	}

	st.gated.Eject(st.gateID)
	st.gateID = 0
	st.gated = nil
}

// gate holds p until the active refresh settles. It releases p, passed
// through OnRetry if set, when the refresh succeeds, and cancels it with
// a *CanceledError when the refresh fails.
func (r *Registration) gate(p *request.Plan) (*request.Plan, error) {
	ctx := p.Context()

	if p.SkipAuthRefresh {
		r.s.rec.Gate(ctx, tracking.ActionBypassed)
		return p, nil
	}

	r.st.mu.Lock()
	f := r.st.active
	if f != nil {
		r.st.held++
	}
	r.st.mu.Unlock()

	// The cycle may have ended between the snapshot of the client's
	// interceptors and now.
	if f == nil {
		r.s.rec.Gate(ctx, tracking.ActionPassthrough)
		return p, nil
	}

	settled, err := f.wait(ctx)
	r.st.mu.Lock()
	r.st.held--
	r.st.mu.Unlock()
	if !settled {
		r.s.rec.Gate(ctx, tracking.ActionAbandoned)
		return nil, err
	}

	log := r.s.log.With().Str("cycle_id", f.id).Logger()
	if err != nil {
		r.s.rec.Gate(ctx, tracking.ActionCanceled)
		log.Debug().Str("url", p.URL.String()).Msg("Held request canceled")
		return nil, &CanceledError{Err: err}
	}

	r.s.rec.Gate(ctx, tracking.ActionReleased)
	log.Debug().Str("url", p.URL.String()).Msg("Held request released")
	if r.s.onRetry == nil {
		return p, nil
	}
	return r.s.onRetry(p.Clone())
}
