// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package trigger provides composable deciders which examine a failed
// request execution and decide whether it should trigger a credential
// refresh.
//
// The built-in deciders cover the usual cases, and DeciderFunc.And,
// DeciderFunc.Or and DeciderFunc.Not compose them into richer rules:
//
//	d := trigger.StatusCode(401, 419).
//		Or(trigger.StatusCode(403).And(trigger.HeaderContains("WWW-Authenticate", "invalid_token")))
//
// A decider only ever sees executions the client has already judged to
// have failed. Loop prevention (the SkipAuthRefresh marker) and pausing
// are applied by the caller, not by deciders.
package trigger
