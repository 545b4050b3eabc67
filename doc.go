// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpx provides an HTTP client with request and error interceptor
chains, within a simple and familiar interface.

Create a Client to begin making requests.

	client := &httpx.Client{}
	e, err := client.Get("https://www.example.com")
	...
	e, err := client.PostForm("http://example.com/form",
		url.Values{"key": {"Value"}, "id": {"123"}})

For control over how the client sends HTTP requests and receives HTTP
responses, use a custom HTTPDoer, typically a GoLang standard HTTP
client:

	client := &httpx.Client{
		HTTPDoer: &http.Client{...},
	}

To hold, rewrite, or abort requests before they are sent, install a
request interceptor:

	id := client.UseRequest(httpx.RequestInterceptorFunc(
		func(p *request.Plan) (*request.Plan, error) {
			p.SetBearerToken(tokens.Current())
			return p, nil
		}))
	...
	client.Eject(id)

To recover or replay failed requests, install an error interceptor. An
execution counts as failed if it ended in error or received a status
code of 400 or above. Package authrefresh builds on both chains to
refresh expired credentials and replay the requests that failed
because of them.

To observe the fine-grained details of the client's request execution
logic, install a handler into the appropriate handler chain:

	handlers := &httpx.HandlerGroup{}
	handlers.PushBack(httpx.BeforeAttempt, httpx.HandlerFunc(
		func(_ httpx.Event, e *request.Execution) {
			log.Printf("Sending %s", e.Request.URL)
		}))
	client := &httpx.Client{
		Handlers: handlers,
	}
*/
package httpx
