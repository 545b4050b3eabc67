// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient sorts the errors produced by failed HTTP request
// attempts into a small set of categories. The auth refresh machinery
// reports the category when a network failure triggers a credential
// refresh, and the client uses it to recognize attempt timeouts.
//
// Package transient depends only on the standard library.
package transient
