// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authrefresh

import (
	httpx "github.com/gogama/httpx-authrefresh"
	"github.com/gogama/httpx-authrefresh/request"
)

// resendFailedRequest replays the plan of the failed execution e on d,
// marked with SkipAuthRefresh so the replay can neither be held by the
// gate nor start another refresh.
//
// It returns a nil execution, and sends nothing, if e has no plan or no
// response to replay from.
func resendFailedRequest(e *request.Execution, d httpx.Doer) (*request.Execution, error) {
	if e == nil || e.Plan == nil || e.Response == nil {
		return nil, nil
	}

	p := e.Plan.Clone()
	p.SkipAuthRefresh = true
	return d.Do(p)
}
