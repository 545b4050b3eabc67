// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package authrefresh refreshes expired credentials for an httpx client
and transparently replays the requests that failed because of them.

Register a refresh function on a client:

	client := &httpx.Client{}
	reg, err := authrefresh.Register(client,
		func(ctx context.Context, e *request.Execution) error {
			tok, err := source.Token()
			if err != nil {
				return err
			}
			e.Plan.SetBearerToken(tok.AccessToken)
			return nil
		},
		&authrefresh.Options{
			OnRetry: func(p *request.Plan) (*request.Plan, error) {
				p.SetBearerToken(current())
				return p, nil
			},
		})

When a request fails with a qualifying status code (401 by default),
the registration starts a refresh cycle:

  - the refresh function runs once, on its own goroutine;
  - failures arriving during the cycle join it instead of starting
    another;
  - requests sent on the client during the cycle are held until it
    ends, ahead of the client's other request interceptors;
  - when the cycle ends its state is cleared, after which the next
    qualifying failure starts a new cycle.

If the refresh succeeds, each joined failure is replayed once with
request.Plan.SkipAuthRefresh set, and held requests are released
through Options.OnRetry. If it fails, joined callers receive the
refresh error and held requests are canceled with a *CanceledError,
which IsCanceled detects.

Set SkipAuthRefresh on a plan to exempt it from both holding and
refreshing. The refresh function must do so for any request it sends
through the same client.

There is no refresh timeout by default. Set Options.RefreshTimeout, or
cancel the plan contexts of individual requests, to bound how long
requests wait.

Configuration can be loaded with koanf through LoadConfig and LoadEnv.
Diagnostics are logged with zerolog through Options.Logger, and refresh
cycles are measured with OpenTelemetry metrics and spans.
*/
package authrefresh
