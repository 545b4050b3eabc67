// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authrefresh

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	httpx "github.com/gogama/httpx-authrefresh"
	"github.com/gogama/httpx-authrefresh/internal/tracking"
	"github.com/gogama/httpx-authrefresh/request"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// api is a fake API server which accepts exactly one bearer token at a
// time. Paths starting with /forbidden always answer 403.
type api struct {
	srv *httptest.Server

	mu       sync.Mutex
	valid    string
	hits     map[string]int
	auths    map[string][]string
	barriers map[string]*barrier
}

// A barrier holds the first n requests to a path until all n arrive.
type barrier struct {
	n       int
	arrived int
	ch      chan struct{}
}

func newAPI(t *testing.T, valid string) *api {
	t.Helper()

	a := &api{
		valid:    valid,
		hits:     map[string]int{},
		auths:    map[string][]string{},
		barriers: map[string]*barrier{},
	}
	a.srv = httptest.NewServer(http.HandlerFunc(a.serve))
	t.Cleanup(a.srv.Close)
	return a
}

func (a *api) serve(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")

	a.mu.Lock()
	a.hits[r.URL.Path]++
	a.auths[r.URL.Path] = append(a.auths[r.URL.Path], auth)
	var wait chan struct{}
	if b := a.barriers[r.URL.Path]; b != nil && b.arrived < b.n {
		b.arrived++
		if b.arrived == b.n {
			close(b.ch)
		}
		wait = b.ch
	}
	valid := a.valid
	a.mu.Unlock()

	if wait != nil {
		select {
		case <-wait:
		case <-r.Context().Done():
			return
		}
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/forbidden"):
		w.WriteHeader(http.StatusForbidden)
	case auth != "Bearer "+valid:
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "expired")
	default:
		_, _ = io.WriteString(w, "ok "+r.URL.Path)
	}
}

func (a *api) url(path string) string {
	return a.srv.URL + path
}

func (a *api) rotate(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.valid = token
}

func (a *api) hold(path string, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.barriers[path] = &barrier{n: n, ch: make(chan struct{})}
}

func (a *api) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[path]
}

func (a *api) authorizations(path string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.auths[path]...)
}

// creds is the client side token store.
type creds struct {
	mu    sync.Mutex
	token string
	n     int
}

func (c *creds) get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// next issues and stores a new token.
func (c *creds) next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	c.token = fmt.Sprintf("token-%d", c.n)
	return c.token
}

// newClient returns a client whose first request interceptor stamps
// every request with the current token.
func newClient(a *api, c *creds) *httpx.Client {
	cl := &httpx.Client{HTTPDoer: a.srv.Client()}
	cl.UseRequest(httpx.RequestInterceptorFunc(func(p *request.Plan) (*request.Plan, error) {
		p.SetBearerToken(c.get())
		return p, nil
	}))
	return cl
}

// heldCount returns the number of requests r's gate is holding.
func heldCount(r *Registration) int {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.st.held
}

// gateInstalled reports whether r currently has a request gate on its
// instance.
func gateInstalled(r *Registration) bool {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.st.gateID != 0
}

type telemetry struct {
	reader   *sdkmetric.ManualReader
	exporter *tracetest.InMemoryExporter
	mp       *sdkmetric.MeterProvider
	tp       *sdktrace.TracerProvider
}

func newTelemetry(t *testing.T) *telemetry {
	t.Helper()

	tel := &telemetry{
		reader:   sdkmetric.NewManualReader(),
		exporter: tracetest.NewInMemoryExporter(),
	}
	tel.mp = sdkmetric.NewMeterProvider(sdkmetric.WithReader(tel.reader))
	tel.tp = sdktrace.NewTracerProvider(sdktrace.WithSyncer(tel.exporter))
	t.Cleanup(func() {
		_ = tel.mp.Shutdown(context.Background())
		_ = tel.tp.Shutdown(context.Background())
	})
	return tel
}

func (tel *telemetry) options(o *Options) *Options {
	if o == nil {
		o = &Options{}
	}
	o.MeterProvider = tel.mp
	o.TracerProvider = tel.tp
	return o
}

// counter sums the data points of the named counter. If attrKey is not
// empty, only points whose attrKey attribute equals attrVal count.
func (tel *telemetry) counter(t *testing.T, name, attrKey, attrVal string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, tel.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != tracking.ScopeName {
			continue
		}
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if attrKey != "" {
					v, _ := dp.Attributes.Value(attribute.Key(attrKey))
					if v.AsString() != attrVal {
						continue
					}
				}
				total += dp.Value
			}
		}
	}
	return total
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeInstance is an Instance whose Do is scripted.
type fakeInstance struct {
	httpx.InterceptorGroup
	do func(p *request.Plan) (*request.Execution, error)
}

func (f *fakeInstance) Do(p *request.Plan) (*request.Execution, error) {
	return f.do(p)
}

func failedExecution(t *testing.T, status int) *request.Execution {
	t.Helper()

	p, err := request.NewPlan("GET", "https://api.example.com/thing", nil)
	require.NoError(t, err)
	return &request.Execution{
		Plan:     p,
		Request:  p.ToRequest(context.Background()),
		Response: &http.Response{StatusCode: status, Header: http.Header{}},
	}
}
