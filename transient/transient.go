// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"net"
	"syscall"
)

// A Category is the transience category of an error, as reported by
// Categorize.
//
// The category Not means the error is not a recognized transport
// failure, or in other words that sending the same request again is
// unlikely to help. Every other category names a failure to reach the
// server or to hear back from it.
type Category int

const (
	// Not indicates a nil error or one that is not a recognized
	// transport failure.
	Not Category = iota
	// Timeout indicates a client-side timeout. Categorize returns
	// Timeout if the error or any error it wraps has a Timeout method
	// reporting true.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (ECONNREFUSED), typically because the service is restarting.
	ConnRefused
	// ConnReset indicates the remote host reset a previously active
	// connection (ECONNRESET).
	ConnReset
	// Unreachable indicates the remote host or network could not be
	// reached at all (EHOSTUNREACH, ENETUNREACH or ENETDOWN).
	Unreachable
	// NameResolution indicates the host name could not be resolved.
	NameResolution
)

var categoryNames = [...]string{
	Not:            "not",
	Timeout:        "timeout",
	ConnRefused:    "conn_refused",
	ConnReset:      "conn_reset",
	Unreachable:    "unreachable",
	NameResolution: "name_resolution",
}

// String returns a short snake_case name for the category, suitable as
// a log field or metric attribute value.
func (cat Category) String() string {
	if cat < 0 || int(cat) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[cat]
}

// Categorize returns the transience category of err. It looks through
// wrapped errors, not just err itself, but it never consults a
// Temporary method because the semantics of Temporary are unclear.
//
// Timeouts take precedence over every other category.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET:
			return ConnReset
		case syscall.ECONNREFUSED:
			return ConnRefused
		case syscall.EHOSTUNREACH, syscall.ENETUNREACH, syscall.ENETDOWN:
			return Unreachable
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NameResolution
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
