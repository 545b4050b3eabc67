// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpx

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gogama/httpx-authrefresh/request"
	"github.com/gogama/httpx-authrefresh/timeout"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// A Client is an HTTP client with an interceptor pipeline. Its zero
// value is a valid configuration.
//
// The zero value client uses http.DefaultClient (from net/http) as the
// HTTPDoer, timeout.DefaultPolicy as the timeout policy, no event
// handlers, and empty interceptor chains.
//
// Client's HTTPDoer typically has an internal state (cached TCP
// connections) so Client instances should be reused instead of created
// as needed. Client is safe for concurrent use by multiple goroutines,
// but must not be copied after first use.
//
// On top of the HTTP request features provided by the HTTPDoer, Client
// adds the following features:
//
// • Client reads and buffers the entire HTTP response body into a
// []byte (returned as the Execution.Body field);
//
// • Client sets request attempt timeouts using a customizable timeout
// policy;
//
// • Client runs request interceptors before each request is sent, and
// error interceptors after a request fails, allowing requests to be
// held, rewritten, aborted, recovered, or replayed from outside
// libraries (see package authrefresh for one such library); and
//
// • Client invokes user-provided handler functions at designated plug-in
// points within the execution.
//
// Instead of consuming an http.Request, which is only suitable for a
// one-off attempt, Client.Do consumes a request.Plan which can be
// cloned and replayed. Instead of producing an http.Response, Client
// returns a request.Execution, which carries the plan, the response,
// the fully-buffered body, and any error.
type Client struct {
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If HTTPDoer is nil, http.DefaultClient from the standard net/http
	// package is used.
	HTTPDoer HTTPDoer
	// TimeoutPolicy specifies how to set the timeout on the request
	// attempt.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during execution of a request plan.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup

	interceptors InterceptorGroup
}

// Do executes an HTTP request plan and returns the results, following
// the timeout policy and interceptors set on Client, and low-level
// policy set on the underlying HTTPDoer.
//
// Execution proceeds in three stages. First, the request interceptors
// run in the order they were installed. Any of them may replace the
// plan, and if any returns an error the execution is aborted without
// sending a request. Second, unless aborted, the plan is converted to
// an HTTP request and sent, and the response body is read. Third, if
// the execution failed, meaning it ended in error or received a status
// code of 400 or above, the error interceptors run in the order they
// were installed until one of them recovers the execution.
//
// The returned Execution is never nil. If an error interceptor replaced
// the execution, for example by replaying the request, the returned
// Execution is the replacement. If an error was returned, the Err field
// of the Execution always references the same error.
//
// Errors produced by the client itself, including errors returned by
// request interceptors, are of type *url.Error. Errors returned by error
// interceptors are passed through as-is. A status code of 400 or above
// never of itself produces an error.
//
// For simple use cases, the Get, Head, Post, and PostForm methods may
// prove easier to use than Do.
func (c *Client) Do(p *request.Plan) (*request.Execution, error) {
	e := &request.Execution{
		Plan: p,
	}

	doer := c.doer()

	timeoutPolicy := c.TimeoutPolicy
	if timeoutPolicy == nil {
		timeoutPolicy = timeout.DefaultPolicy
	}

	handlers := c.Handlers
	requestChain, errorChain := c.interceptors.snapshot()

	handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()

	err := interceptRequest(requestChain, e)
	if err != nil {
		e.Err = urlErrorWrap(e.Plan, err)
	}
	handlers.run(AfterRequestIntercept, e)

	if err == nil {
		sendAndReceive(e, doer, handlers, timeoutPolicy)
		if e.Timeout() {
			handlers.run(AfterAttemptTimeout, e)
		}
		handlers.run(AfterAttempt, e)
		if e.Plan.Context().Err() == context.DeadlineExceeded {
			handlers.run(AfterPlanTimeout, e)
		}
	}

	if len(errorChain) > 0 && e.Failed() {
		handlers.run(BeforeErrorIntercept, e)
		e = interceptError(errorChain, e)
	}

	if !e.Ended() {
		e.End = time.Now()
	}
	handlers.run(AfterExecutionEnd, e)
	return e, e.Err
}

// UseRequest installs a request interceptor at the back of the client's
// request interceptor chain.
func (c *Client) UseRequest(ri RequestInterceptor) InterceptorID {
	return c.interceptors.UseRequest(ri)
}

// PrependRequest installs a request interceptor at the front of the
// client's request interceptor chain.
func (c *Client) PrependRequest(ri RequestInterceptor) InterceptorID {
	return c.interceptors.PrependRequest(ri)
}

// UseError installs an error interceptor at the back of the client's
// error interceptor chain.
func (c *Client) UseError(ei ErrorInterceptor) InterceptorID {
	return c.interceptors.UseError(ei)
}

// Eject removes a request or error interceptor previously installed by
// UseRequest or UseError.
func (c *Client) Eject(id InterceptorID) bool {
	return c.interceptors.Eject(id)
}

func sendAndReceive(e *request.Execution, doer HTTPDoer, handlers *HandlerGroup, timeoutPolicy timeout.Policy) {
	p := e.Plan
	ctx, cancel := timeout.Context(p.Context(), timeoutPolicy, e)
	defer cancel()
	e.Request = p.ToRequest(ctx)
	handlers.run(BeforeAttempt, e)
	var err error
	e.Response, err = doer.Do(e.Request)
	if err != nil {
		e.Err = urlErrorWrap(p, err)
	} else {
		readBody(p, e, handlers)
	}
}

func readBody(p *request.Plan, e *request.Execution, handlers *HandlerGroup) {
	defer func() {
		_ = e.Response.Body.Close()
	}()
	handlers.run(BeforeReadBody, e)
	var err error
	e.Body, err = io.ReadAll(e.Response.Body)
	if err != nil {
		e.Body = nil
		e.Err = urlErrorWrap(p, err)
	}
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
func (c *Client) Get(url string) (*request.Execution, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
func (c *Client) Head(url string) (*request.Execution, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.BodyBytes, namely: string; []byte;
// io.Reader; and io.ReadCloser.
func (c *Client) Post(url, contentType string, body any) (*request.Execution, error) {
	return Post(c, url, contentType, body)
}

// PostForm issues a POST to the specified URL, with data's keys and
// values URL-encoded as the request body.
func (c *Client) PostForm(url string, data url.Values) (*request.Execution, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections invokes the same method on the client's
// underlying HTTPDoer.
//
// If the HTTPDoer has no CloseIdleConnections method, this method does
// nothing.
func (c *Client) CloseIdleConnections() {
	doer := c.doer()
	if ic, ok := doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Client) doer() HTTPDoer {
	if c.HTTPDoer == nil {
		return http.DefaultClient
	}

	return c.HTTPDoer
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp mirrors the Op naming used by net/http's own client.
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
