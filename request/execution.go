// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/httpx-authrefresh/transient"
)

// An Execution represents the state of one execution of a Plan.
//
// The client creates an Execution when it starts executing a plan,
// updates it as the attempt progresses, hands it to every interceptor
// and event handler, and finally returns it to the caller.
//
// Error interceptors receive the Execution of a failed request. They
// may return it unchanged (pass-through), decorate it, or return a
// different Execution altogether, which is how a replayed request's
// result reaches the original caller.
type Execution struct {
	// Plan is the plan being executed. It is never nil on an Execution
	// produced by the client.
	//
	// If a request interceptor replaced the plan before the attempt,
	// Plan is the replacement.
	Plan *Plan

	// Start is the time the execution started.
	Start time.Time

	// End is the time the execution ended, or the zero value while it
	// is still in flight.
	End time.Time

	// Request is the lower-level HTTP request sent for the attempt. It
	// is nil if a request interceptor aborted the execution before an
	// attempt could be made.
	Request *http.Request

	// Response is the HTTP response received, or nil if the attempt
	// ended in an error before any response was received.
	Response *http.Response

	// Err is the error the attempt ended with, if any.
	Err error

	// Body is the complete response body, or nil if the attempt ended
	// in an error.
	Body []byte

	data context.Context
}

// StatusCode returns the HTTP status code of the response, or 0 if
// there is no response.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the HTTP response headers, or a nil header if there is
// no response.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		return nil
	}

	return e.Response.Header
}

// Failed reports whether the execution counts as a failure for the
// purposes of the client's error interceptor chain: either the attempt
// ended in error, or the server answered with a status code of 400 or
// above.
func (e *Execution) Failed() bool {
	return e.Err != nil || e.StatusCode() >= 400
}

// Duration returns the duration of the execution. It is zero before the
// execution starts and grows until the execution ends.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return 0
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether Err currently holds a timeout error.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// SetValue stores arbitrary data in the execution. The key follows the
// rules of context.WithValue: it must be comparable, and should be of
// an unexported type to avoid collisions.
func (e *Execution) SetValue(key, value any) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with key, or nil.
func (e *Execution) Value(key any) any {
	if e.data == nil {
		return nil
	}

	return e.data.Value(key)
}
