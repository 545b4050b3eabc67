// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpx

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to observe or extend the
// execution of request plans.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// plan execution starts.
	//
	// When Client fires BeforeExecutionStart, the execution is
	// non-nil but the only field that has been set is the plan.
	BeforeExecutionStart Event = iota
	// AfterRequestIntercept identifies the event that occurs after the
	// request interceptor chain has run, whether or not any request
	// interceptors are installed.
	//
	// When Client fires AfterRequestIntercept, the execution's plan is
	// the plan that will be sent, which may differ from the plan passed
	// to Do if an interceptor replaced it. If an interceptor aborted
	// the execution, the execution's error field is set and no
	// BeforeAttempt, BeforeReadBody, AfterAttemptTimeout, AfterAttempt
	// or AfterPlanTimeout event will follow.
	AfterRequestIntercept
	// BeforeAttempt identifies the event that occurs before the HTTP
	// request attempt.
	//
	// When Client fires BeforeAttempt, the execution's request
	// field is set to the HTTP request that WILL BE sent after all
	// BeforeAttempt handlers have finished.
	//
	// BeforeAttempt handlers may modify the execution's request, or
	// some of its fields, thus changing the HTTP request that will be
	// sent. However, they should clone request fields which have
	// reference types (URL and Header) before changing them, as these
	// fields initially reference the same-named fields in the plan.
	BeforeAttempt
	// BeforeReadBody identifies the event that occurs after an HTTP
	// request attempt has resulted in an HTTP response (as opposed to
	// an error) but before the response body is read and buffered.
	//
	// BeforeReadBody never fires if the HTTP request attempt ended in
	// error, but always fires if an HTTP response is received,
	// regardless of status code.
	BeforeReadBody
	// AfterAttemptTimeout identifies the event that occurs after the
	// HTTP request attempt failed because of a timeout error.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after the HTTP
	// request attempt concludes, regardless of whether it concluded
	// successfully or not.
	//
	// When Client fires AfterAttempt, either the execution's response
	// field or its error field OR BOTH may be set to non-nil values,
	// but it will never be the case that both are nil. The response is
	// only non-nil when the error is also non-nil if there was an error
	// reading the response body.
	AfterAttempt
	// AfterPlanTimeout identifies the event that occurs after a timeout
	// on the request plan level, not just the request attempt level
	// (i.e. the context deadline on the plan's context is exceeded).
	//
	// AfterPlanTimeout always occurs after AfterAttempt.
	AfterPlanTimeout
	// BeforeErrorIntercept identifies the event that occurs before the
	// error interceptor chain runs. It only fires if the execution
	// failed and at least one error interceptor is installed.
	BeforeErrorIntercept
	// AfterExecutionEnd identifies the event that occurs after the plan
	// execution ends.
	//
	// When Client fires AfterExecutionEnd, the execution is the one
	// that will be returned to the caller, which may be a replacement
	// produced by an error interceptor, and its end time is set.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"AfterRequestIntercept",
	"BeforeAttempt",
	"BeforeReadBody",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"AfterPlanTimeout",
	"BeforeErrorIntercept",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in an
// HTTP request plan execution by Client, in the order in which
// they would occur.
func Events() []Event {
	evts := make([]Event, numEvents)
	for i := range evts {
		evts[i] = Event(i)
	}
	return evts
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
