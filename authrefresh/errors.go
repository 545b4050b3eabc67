// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authrefresh

import (
	"errors"
	"fmt"
)

var (
	// ErrNilRefreshFunc is returned by Register when no refresh function
	// is given.
	ErrNilRefreshFunc = errors.New("authrefresh: nil refresh function")

	// ErrNilInstance is returned by Register when no instance is given.
	ErrNilInstance = errors.New("authrefresh: nil instance")

	// ErrCanceled is the cancellation signal delivered to requests that
	// were held by the request gate while a refresh failed. Test for it
	// with IsCanceled or errors.Is.
	ErrCanceled = errors.New("authrefresh: request canceled because credential refresh failed")

	// ErrRefreshPanicked is the failure reason observed by every
	// request in a refresh cycle whose refresh function panicked.
	ErrRefreshPanicked = errors.New("authrefresh: refresh function panicked")

	// ErrRefreshTimeout is the failure reason observed by every request
	// in a refresh cycle which outlived Options.RefreshTimeout.
	ErrRefreshTimeout = errors.New("authrefresh: credential refresh timed out")
)

// A CanceledError is returned to a request held by the request gate
// when the refresh it was waiting on fails. Err is the refresh failure
// reason.
//
// CanceledError matches both ErrCanceled and Err under errors.Is.
type CanceledError struct {
	Err error
}

func (err *CanceledError) Error() string {
	if err.Err == nil {
		return ErrCanceled.Error()
	}
	return ErrCanceled.Error() + ": " + err.Err.Error()
}

// Unwrap returns ErrCanceled and the refresh failure reason.
func (err *CanceledError) Unwrap() []error {
	if err.Err == nil {
		return []error{ErrCanceled}
	}
	return []error{ErrCanceled, err.Err}
}

// Canceled always returns true. It marks CanceledError as a
// cancellation rather than a network failure, so that a canceled
// request never triggers a refresh of its own.
func (err *CanceledError) Canceled() bool {
	return true
}

// IsCanceled reports whether err, or any error it wraps, is the
// cancellation signal of a request held during a failed refresh.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("%w: %w", ErrRefreshPanicked, err)
	}
	return fmt.Errorf("%w: %v", ErrRefreshPanicked, v)
}
