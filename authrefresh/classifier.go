// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authrefresh

import (
	"net/http"

	"github.com/gogama/httpx-authrefresh/request"
	"github.com/gogama/httpx-authrefresh/trigger"
)

// qualifies reports whether a failed execution is the kind of failure
// that calls for a credential refresh. It does not look at the
// coordination state.
func qualifies(e *request.Execution, s *settings) bool {
	if e == nil || e.Plan == nil {
		return false
	}

	if e.Plan.SkipAuthRefresh {
		return false
	}

	if e.Response == nil {
		return s.network && trigger.NetworkErr(e)
	}

	return s.decider.Decide(e)
}

// shouldInterceptError reports whether e should start or join a refresh
// cycle on inst. A network failure which is accepted gets a synthetic
// empty response, so that later stages always find one to replay from.
// Rejected executions are left untouched.
//
// Must be called with st.mu held.
func (st *coordinationState) shouldInterceptError(e *request.Execution, s *settings, inst Instance) bool {
	if !qualifies(e, s) {
		return false
	}

	if s.pause && st.isPaused(inst) {
		return false
	}

	if e.Response == nil {
		e.Response = &http.Response{
			Request: e.Request,
			Header:  make(http.Header),
			Body:    http.NoBody,
		}
	}

	return true
}
