// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpx

import (
	"sync"

	"github.com/gogama/httpx-authrefresh/request"
)

// An InterceptorID identifies an interceptor installed in an
// InterceptorGroup. The zero value never identifies an installed
// interceptor.
type InterceptorID uint64

// A RequestInterceptor intercepts a request plan before the client
// sends it.
//
// InterceptRequest may block, for example to hold the request until
// some shared condition settles. It returns the plan to execute, which
// may be p itself or a replacement. A nil plan with a nil error means
// "use p unchanged". A non-nil error aborts the execution before any
// HTTP request is sent.
type RequestInterceptor interface {
	InterceptRequest(p *request.Plan) (*request.Plan, error)
}

// The RequestInterceptorFunc type is an adapter to allow the use of
// ordinary functions as request interceptors.
type RequestInterceptorFunc func(p *request.Plan) (*request.Plan, error)

// InterceptRequest calls f(p).
func (f RequestInterceptorFunc) InterceptRequest(p *request.Plan) (*request.Plan, error) {
	return f(p)
}

// An ErrorInterceptor intercepts a failed execution, meaning one whose
// Failed method returns true, after the client has finished the HTTP
// request attempt.
//
// InterceptError returns the execution that should continue down the
// chain, which may be e itself or a different execution altogether
// (for example the result of replaying the request). A nil execution
// means "keep e". A non-nil error becomes the continuing execution's
// Err and is returned to the caller as-is.
//
// The chain stops as soon as the continuing execution no longer fails.
type ErrorInterceptor interface {
	InterceptError(e *request.Execution) (*request.Execution, error)
}

// The ErrorInterceptorFunc type is an adapter to allow the use of
// ordinary functions as error interceptors.
type ErrorInterceptorFunc func(e *request.Execution) (*request.Execution, error)

// InterceptError calls f(e).
func (f ErrorInterceptorFunc) InterceptError(e *request.Execution) (*request.Execution, error) {
	return f(e)
}

// Interceptable is the interface that wraps the interceptor
// registration methods of a client.
//
// UseRequest and UseError append an interceptor to the back of the
// request or error chain respectively, and PrependRequest puts one at
// the front of the request chain. Each returns an ID which may later be
// passed to Eject to remove the interceptor again. Eject reports
// whether an interceptor with the given ID was installed.
//
// All four methods must be safe for concurrent use, including while
// requests are executing. An execution which is already in progress
// keeps running against the chains that were installed when it started.
type Interceptable interface {
	UseRequest(ri RequestInterceptor) InterceptorID
	PrependRequest(ri RequestInterceptor) InterceptorID
	UseError(ei ErrorInterceptor) InterceptorID
	Eject(id InterceptorID) bool
}

// An InterceptorGroup holds a request interceptor chain and an error
// interceptor chain. It implements Interceptable. The zero value is an
// empty group ready to use.
//
// An InterceptorGroup must not be copied after first use.
type InterceptorGroup struct {
	mu       sync.Mutex
	lastID   InterceptorID
	requests []requestEntry
	errs     []errorEntry
}

type requestEntry struct {
	id InterceptorID
	ri RequestInterceptor
}

type errorEntry struct {
	id InterceptorID
	ei ErrorInterceptor
}

// UseRequest adds a request interceptor to the back of the request
// interceptor chain.
func (g *InterceptorGroup) UseRequest(ri RequestInterceptor) InterceptorID {
	if ri == nil {
		panic("httpx: nil request interceptor")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastID++
	g.requests = append(g.requests[:len(g.requests):len(g.requests)], requestEntry{g.lastID, ri})
	return g.lastID
}

// PrependRequest adds a request interceptor to the front of the request
// interceptor chain, ahead of every interceptor already installed.
func (g *InterceptorGroup) PrependRequest(ri RequestInterceptor) InterceptorID {
	if ri == nil {
		panic("httpx: nil request interceptor")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastID++
	requests := make([]requestEntry, 0, len(g.requests)+1)
	requests = append(requests, requestEntry{g.lastID, ri})
	g.requests = append(requests, g.requests...)
	return g.lastID
}

// UseError adds an error interceptor to the back of the error
// interceptor chain.
func (g *InterceptorGroup) UseError(ei ErrorInterceptor) InterceptorID {
	if ei == nil {
		panic("httpx: nil error interceptor")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastID++
	g.errs = append(g.errs[:len(g.errs):len(g.errs)], errorEntry{g.lastID, ei})
	return g.lastID
}

// Eject removes the interceptor identified by id from whichever chain
// it is installed in. It returns false if no such interceptor is
// installed, for example because it was already ejected.
func (g *InterceptorGroup) Eject(id InterceptorID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.requests {
		if g.requests[i].id == id {
			g.requests = remove(g.requests, i)
			return true
		}
	}

	for i := range g.errs {
		if g.errs[i].id == id {
			g.errs = remove(g.errs, i)
			return true
		}
	}

	return false
}

// Len returns the number of installed request and error interceptors.
func (g *InterceptorGroup) Len() (requests, errs int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests), len(g.errs)
}

// snapshot returns the chains as they stand. The returned slices are
// never written to again: every change to the group allocates anew.
func (g *InterceptorGroup) snapshot() ([]requestEntry, []errorEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests, g.errs
}

func remove[T any](s []T, i int) []T {
	t := make([]T, 0, len(s)-1)
	t = append(t, s[:i]...)
	return append(t, s[i+1:]...)
}

func interceptRequest(chain []requestEntry, e *request.Execution) error {
	for _, entry := range chain {
		p, err := entry.ri.InterceptRequest(e.Plan)
		if err != nil {
			return err
		}
		if p != nil {
			e.Plan = p
		}
	}

	return nil
}

func interceptError(chain []errorEntry, e *request.Execution) *request.Execution {
	for _, entry := range chain {
		if !e.Failed() {
			break
		}
		next, err := entry.ei.InterceptError(e)
		if next != nil {
			e = next
		}
		if err != nil {
			e.Err = err
		}
	}

	return e
}
