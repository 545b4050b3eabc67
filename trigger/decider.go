// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package trigger

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gogama/httpx-authrefresh/request"
)

// A Decider decides whether a failed execution should trigger a
// credential refresh.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines, must return quickly, and must not send requests.
type Decider interface {
	Decide(e *request.Execution) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as deciders. It also provides the logical composition
// methods And, Or and Not.
type DeciderFunc func(e *request.Execution) bool

// DefaultStatusCodes is the set of response status codes which trigger
// a refresh unless configured otherwise.
var DefaultStatusCodes = []int{http.StatusUnauthorized}

// NetworkErr is a decider that returns true if an HTTP request was sent
// and the attempt ended in an error without any HTTP response, unless
// the error is a cancellation. An execution aborted by a request
// interceptor never sent a request, so its error is not a network
// error.
//
// A cancellation is either context.Canceled, or any error in the chain
// having a Canceled method that reports true.
var NetworkErr DeciderFunc = networkErr

// Decide returns f(e).
func (f DeciderFunc) Decide(e *request.Execution) bool {
	return f(e)
}

// And composes two deciders into one which returns true only if both
// do. g is not evaluated if f returns false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) && g(e)
	}
}

// Or composes two deciders into one which returns true if either does.
// g is not evaluated if f returns true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(e *request.Execution) bool {
		return f(e) || g(e)
	}
}

// Not returns a decider which negates f.
func (f DeciderFunc) Not() DeciderFunc {
	return func(e *request.Execution) bool {
		return !f(e)
	}
}

// StatusCode constructs a decider which returns true if the execution
// received an HTTP response whose status, as reported by Status, is one
// of ss.
func StatusCode(ss ...int) DeciderFunc {
	set := make(map[int]struct{}, len(ss))
	for _, s := range ss {
		set[s] = struct{}{}
	}
	return func(e *request.Execution) bool {
		if e.Response == nil {
			return false
		}
		_, ok := set[Status(e)]
		return ok
	}
}

// HeaderContains constructs a decider which returns true if the
// response header named key contains substr.
func HeaderContains(key, substr string) DeciderFunc {
	return func(e *request.Execution) bool {
		for _, v := range e.Header().Values(key) {
			if strings.Contains(v, substr) {
				return true
			}
		}
		return false
	}
}

// Status returns the response status code of e, coercing it from the
// numeric prefix of the response's Status text (for example "401" or
// "401 Unauthorized") when StatusCode is not set. It returns 0 if there
// is no response or no status can be recovered.
func Status(e *request.Execution) int {
	if e == nil || e.Response == nil {
		return 0
	}
	if e.Response.StatusCode != 0 {
		return e.Response.StatusCode
	}
	fields := strings.Fields(e.Response.Status)
	if len(fields) == 0 {
		return 0
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return code
}

// IsCanceled reports whether err is a cancellation rather than a
// failure to reach the server.
func IsCanceled(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var c canceler
	return errors.As(err, &c) && c.Canceled()
}

type canceler interface {
	Canceled() bool
}

func networkErr(e *request.Execution) bool {
	return e.Request != nil && e.Response == nil && e.Err != nil && !IsCanceled(e.Err)
}
