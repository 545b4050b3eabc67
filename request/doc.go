// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the two value types which flow through the
client's interceptor pipeline: Plan, a replayable description of a
logical HTTP request, and Execution, the state of one attempt to carry
out a Plan.

A Plan is what an auth refresh cycle replays. Because its body is
pre-buffered, a Plan can be sent, fail with 401 Unauthorized, sit in a
queue while credentials are refreshed, and be sent again unchanged:

	p, err := request.NewPlan("GET", "https://api.example.com/me", nil)
	...
	e, err := client.Do(p)

Set SkipAuthRefresh on a plan to mark it as exempt from auth refresh
handling. The refresh call itself must carry the marker, otherwise it
would wait behind the very refresh it is performing:

	p, _ := request.NewPlanWithContext(ctx, "POST", tokenURL, form)
	p.SkipAuthRefresh = true

An Execution is returned by the client and handed to every interceptor
and event handler. It carries the Plan, the lower-level http.Request
and http.Response of the attempt, the buffered response body, and the
error (if any). Interceptors and handlers may attach their own data to
an execution using SetValue and Value.
*/
package request
