// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"context"
	"time"

	"github.com/gogama/httpx-authrefresh/request"
)

// A Policy decides how long an operation tied to an execution may run.
// A zero or negative duration means the operation has no deadline.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the time limit for the next operation on e: the
	// HTTP request attempt when consulted by the client, or the
	// credential refresh triggered by e when consulted by an auth
	// refresh registration.
	Timeout(e *request.Execution) time.Duration
}

// The PolicyFunc type is an adapter to allow the use of ordinary
// functions as timeout policies.
type PolicyFunc func(e *request.Execution) time.Duration

// Timeout returns f(e).
func (f PolicyFunc) Timeout(e *request.Execution) time.Duration {
	return f(e)
}

// DefaultPolicy is the client's default attempt timeout policy. It sets
// a fixed timeout of 5 seconds.
var DefaultPolicy Policy = Fixed(5 * time.Second)

// Infinite is a policy which never sets a deadline.
var Infinite Policy = Fixed(0)

// Fixed constructs a policy that always returns d.
func Fixed(d time.Duration) Policy {
	return fixed(d)
}

type fixed time.Duration

func (d fixed) Timeout(_ *request.Execution) time.Duration {
	return time.Duration(d)
}

// Context derives a context from parent bounded by the duration p
// returns for e. If p is nil, or returns a non-positive duration, the
// derived context has no deadline of its own.
//
// The returned cancel function must always be called.
func Context(parent context.Context, p Policy, e *request.Execution) (context.Context, context.CancelFunc) {
	if p != nil {
		if d := p.Timeout(e); d > 0 {
			return context.WithTimeout(parent, d)
		}
	}
	return context.WithCancel(parent)
}
