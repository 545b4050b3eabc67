// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package trigger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"syscall"
	"testing"

	"github.com/gogama/httpx-authrefresh/request"
	"github.com/stretchr/testify/assert"
)

func TestDeciderAnd(t *testing.T) {
	true_ := DeciderFunc(func(_ *request.Execution) bool { return true })
	false_ := DeciderFunc(func(_ *request.Execution) bool { return false })
	assert.True(t, true_.And(true_)(&request.Execution{}))
	assert.False(t, true_.And(false_)(&request.Execution{}))
	assert.False(t, false_.And(true_)(&request.Execution{}))
	assert.False(t, false_.And(false_)(&request.Execution{}))
}

func TestDeciderOr(t *testing.T) {
	true_ := DeciderFunc(func(_ *request.Execution) bool { return true })
	false_ := DeciderFunc(func(_ *request.Execution) bool { return false })
	assert.True(t, true_.Or(true_)(&request.Execution{}))
	assert.True(t, true_.Or(false_)(&request.Execution{}))
	assert.True(t, false_.Or(true_)(&request.Execution{}))
	assert.False(t, false_.Or(false_)(&request.Execution{}))
}

func TestDeciderNot(t *testing.T) {
	true_ := DeciderFunc(func(_ *request.Execution) bool { return true })
	assert.False(t, true_.Not().Decide(&request.Execution{}))
	assert.True(t, true_.Not().Not().Decide(&request.Execution{}))
}

func TestStatusCode(t *testing.T) {
	empty := StatusCode()
	assert.False(t, empty(&request.Execution{}))
	one := StatusCode(401)
	assert.False(t, one(&request.Execution{}))
	r := http.Response{}
	e := request.Execution{Response: &r}
	assert.False(t, empty(&e))
	assert.False(t, one(&e))
	r.StatusCode = 401
	assert.True(t, one(&e))
	assert.False(t, empty(&e))
	two := StatusCode(401, 419)
	assert.True(t, two(&e))
	r.StatusCode = 419
	assert.True(t, two(&e))
	r.StatusCode = 403
	assert.False(t, two(&e))
	t.Run("string status", func(t *testing.T) {
		e := request.Execution{Response: &http.Response{Status: "401"}}
		assert.True(t, one(&e))
		e.Response.Status = "401 Unauthorized"
		assert.True(t, one(&e))
		e.Response.Status = "403 Forbidden"
		assert.False(t, one(&e))
	})
	t.Run("defaults", func(t *testing.T) {
		d := StatusCode(DefaultStatusCodes...)
		assert.True(t, d(&request.Execution{Response: &http.Response{StatusCode: 401}}))
		assert.False(t, d(&request.Execution{Response: &http.Response{StatusCode: 403}}))
	})
}

func TestStatus(t *testing.T) {
	testCases := []struct {
		resp     *http.Response
		expected int
	}{
		{nil, 0},
		{&http.Response{}, 0},
		{&http.Response{StatusCode: 401}, 401},
		{&http.Response{StatusCode: 401, Status: "500"}, 401},
		{&http.Response{Status: "401"}, 401},
		{&http.Response{Status: " 419 Authentication Timeout"}, 419},
		{&http.Response{Status: "Unauthorized"}, 0},
	}
	for i, testCase := range testCases {
		t.Run(fmt.Sprintf("testCases[%d]", i), func(t *testing.T) {
			assert.Equal(t, testCase.expected, Status(&request.Execution{Response: testCase.resp}))
		})
	}
	assert.Equal(t, 0, Status(nil))
}

func TestHeaderContains(t *testing.T) {
	d := HeaderContains("WWW-Authenticate", "invalid_token")
	assert.False(t, d(&request.Execution{}))
	e := &request.Execution{Response: &http.Response{Header: http.Header{}}}
	assert.False(t, d(e))
	e.Response.Header.Add("WWW-Authenticate", `Basic realm="x"`)
	assert.False(t, d(e))
	e.Response.Header.Add("WWW-Authenticate", `Bearer error="invalid_token"`)
	assert.True(t, d(e))
}

func TestNetworkErr(t *testing.T) {
	sent := httptest.NewRequest("GET", "http://example.com/", nil)
	testCases := []struct {
		name     string
		e        request.Execution
		expected bool
	}{
		{"no error", request.Execution{}, false},
		{"response", request.Execution{Response: &http.Response{StatusCode: 502}}, false},
		{"error with response", request.Execution{Err: errors.New("body"), Response: &http.Response{StatusCode: 200}}, false},
		{"connection refused", request.Execution{Request: sent, Err: &url.Error{Err: syscall.ECONNREFUSED}}, true},
		{"generic", request.Execution{Request: sent, Err: errors.New("dial")}, true},
		{"context canceled", request.Execution{Request: sent, Err: &url.Error{Err: context.Canceled}}, false},
		{"canceler", request.Execution{Request: sent, Err: &url.Error{Err: cancelErr{true}}}, false},
		{"non-canceling canceler", request.Execution{Request: sent, Err: cancelErr{false}}, true},
		{"aborted before attempt", request.Execution{Err: &url.Error{Err: errors.New("interceptor")}}, false},
		{"deadline before attempt", request.Execution{Err: &url.Error{Err: context.DeadlineExceeded}}, false},
		{"deadline during attempt", request.Execution{Request: sent, Err: &url.Error{Err: context.DeadlineExceeded}}, true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, NetworkErr.Decide(&testCase.e))
		})
	}
}

type cancelErr struct {
	canceled bool
}

func (err cancelErr) Error() string {
	return fmt.Sprintf("cancelErr(%t)", err.canceled)
}

func (err cancelErr) Canceled() bool {
	return err.canceled
}
