// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines timeout policies. The client consults a
// Policy to bound each HTTP request attempt, and an auth refresh
// registration may consult one to bound a credential refresh.
package timeout
