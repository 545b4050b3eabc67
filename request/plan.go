// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

var errNilCtx = errors.New("httpx/request: nil context")

// A Plan describes a logical HTTP request which may be sent more than
// once.
//
// Plan mirrors the client-side fields of http.Request, except that the
// body is a pre-buffered []byte. Buffering the body is what allows a
// request that failed authentication to be replayed, verbatim, once
// credentials have been refreshed.
//
// Like http.Request, a Plan has a context which bounds the whole
// logical request, including any time spent waiting for a credential
// refresh to finish.
type Plan struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.). An empty
	// string means GET.
	Method string

	// URL specifies the URL to access.
	URL *urlpkg.URL

	// Header contains the request header fields to send.
	Header http.Header

	// Body is the pre-buffered request body. A nil or empty body means
	// no body is sent.
	Body []byte

	// Close indicates whether to close the connection after the
	// response is read.
	Close bool

	// Host optionally overrides the Host header to send. If empty, the
	// value of URL.Host is sent.
	Host string

	// SkipAuthRefresh marks the plan as exempt from auth refresh
	// handling. A marked plan is never held back while credentials are
	// being refreshed, and a failure of a marked plan never starts or
	// joins a refresh.
	//
	// The auth refresh machinery sets this marker on every request it
	// replays, which is what stops a replayed request from looping back
	// into another refresh. Set it yourself on the request that fetches
	// new credentials.
	SkipAuthRefresh bool

	ctx context.Context
}

// NewPlan wraps NewPlanWithContext using the background context.
func NewPlan(method, url string, body any) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url, body)
}

// NewPlanWithContext returns a new Plan given a context, method, URL,
// and optional body.
//
// The body may be nil, a string, a []byte, an io.Reader or an
// io.ReadCloser; see BodyBytes.
func NewPlanWithContext(ctx context.Context, method, url string, body any) (*Plan, error) {
	if ctx == nil {
		return nil, errNilCtx
	}
	if method == "" {
		method = http.MethodGet
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("httpx/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Plan{
		ctx:    ctx,
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   b,
		Host:   u.Host,
	}, nil
}

// Context returns the plan's context, which is never nil.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p with its context changed to
// ctx, which must be non-nil.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(errNilCtx.Error())
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// Clone returns a copy of p whose URL and Header may be modified
// without affecting p. The body slice and context are shared.
//
// Clone is how a queued or replayed request is given its own copy of
// the headers, so that injecting a fresh Authorization header into one
// request never leaks into another.
func (p *Plan) Clone() *Plan {
	p2 := new(Plan)
	*p2 = *p
	if p.URL != nil {
		u := *p.URL
		p2.URL = &u
	}
	p2.Header = p.Header.Clone()
	if p2.Header == nil {
		p2.Header = make(http.Header)
	}
	return p2
}

// AddCookie adds a cookie to the plan. All cookies are written into a
// single Cookie header, separated by semicolons.
func (p *Plan) AddCookie(c *http.Cookie) {
	s := (&http.Cookie{Name: c.Name, Value: c.Value}).String()
	if h := p.Header.Get("Cookie"); h != "" {
		p.Header.Set("Cookie", h+"; "+s)
	} else {
		p.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the plan's Authorization header to use HTTP Basic
// Authentication with the provided username and password.
func (p *Plan) SetBasicAuth(username, password string) {
	p.Header.Set("Authorization", "Basic "+basicAuth(username, password))
}

// SetBearerToken sets the plan's Authorization header to carry token
// as an RFC 6750 bearer token.
func (p *Plan) SetBearerToken(token string) {
	p.Header.Set("Authorization", "Bearer "+token)
}

// ToRequest creates the lower-level HTTP request for one attempt at
// the plan. The new request's context is ctx, which may not be nil.
func (p *Plan) ToRequest(ctx context.Context) *http.Request {
	r := &http.Request{
		Method:     p.Method,
		URL:        p.URL,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     p.Header,
		Close:      p.Close,
		Host:       p.Host,
	}
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	if len(p.Body) > 0 {
		r.Body = io.NopCloser(bytes.NewReader(p.Body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(p.Body)), nil
		}
		r.ContentLength = int64(len(p.Body))
	}
	return r.WithContext(ctx)
}

// basicAuth is lifted from net/http/client.go.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// validMethod reports whether method is an RFC 7230 token. The empty
// string is interpreted as GET before this is called.
func validMethod(method string) bool {
	return strings.IndexFunc(method, func(r rune) bool {
		return !httpguts.IsTokenRune(r)
	}) == -1
}

// removeEmptyPort is lifted from net/http/http.go. It strips the empty
// port in "host:" as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if strings.LastIndex(host, ":") > strings.LastIndex(host, "]") {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
