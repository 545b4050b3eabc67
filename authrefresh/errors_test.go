// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authrefresh

import (
	"errors"
	"testing"

	"github.com/gogama/httpx-authrefresh/trigger"
	"github.com/stretchr/testify/assert"
)

func TestCanceledError(t *testing.T) {
	t.Run("with reason", func(t *testing.T) {
		reason := errors.New("goodbye")
		err := &CanceledError{Err: reason}
		assert.Equal(t, ErrCanceled.Error()+": goodbye", err.Error())
		assert.ErrorIs(t, err, ErrCanceled)
		assert.ErrorIs(t, err, reason)
		assert.True(t, IsCanceled(err))
		assert.True(t, trigger.IsCanceled(err))
	})
	t.Run("without reason", func(t *testing.T) {
		err := &CanceledError{}
		assert.Equal(t, ErrCanceled.Error(), err.Error())
		assert.True(t, IsCanceled(err))
	})
}

func TestIsCanceled(t *testing.T) {
	assert.False(t, IsCanceled(nil))
	assert.False(t, IsCanceled(errors.New("foo")))
	assert.True(t, IsCanceled(ErrCanceled))
	assert.True(t, IsCanceled(&CanceledError{Err: ErrRefreshTimeout}))
}

func TestPanicError(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		err := panicError("boom")
		assert.ErrorIs(t, err, ErrRefreshPanicked)
		assert.Contains(t, err.Error(), "boom")
	})
	t.Run("error", func(t *testing.T) {
		cause := errors.New("kaboom")
		err := panicError(cause)
		assert.ErrorIs(t, err, ErrRefreshPanicked)
		assert.ErrorIs(t, err, cause)
	})
}
