// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authrefresh

import (
	"sync"

	httpx "github.com/gogama/httpx-authrefresh"
)

// coordinationState is the mutable state of one registration.
//
// Invariants, all holding whenever mu is not held:
//   - active is non-nil exactly while a refresh cycle is in progress;
//   - gateID is non-zero exactly when active is non-nil;
//   - paused is empty whenever active is nil.
//
// held counts the requests the gate is holding on a flight. It can
// outlive the flight briefly, while released requests leave the gate.
type coordinationState struct {
	mu     sync.Mutex
	active *flight
	gateID httpx.InterceptorID
	gated  httpx.Interceptable
	paused map[Instance]struct{}
	held   int
}

// pause marks inst as refreshing. Must be called with mu held.
func (st *coordinationState) pause(inst Instance) {
	if st.paused == nil {
		st.paused = make(map[Instance]struct{})
	}
	st.paused[inst] = struct{}{}
}

// isPaused must be called with mu held.
func (st *coordinationState) isPaused(inst Instance) bool {
	_, ok := st.paused[inst]
	return ok
}

// teardown ends the current cycle: it ejects the gate, forgets the
// active flight, and unpauses every instance. Must be called with mu
// held.
func (st *coordinationState) teardown() {
	st.uninstallGate()
	st.active = nil
	clear(st.paused)
}
