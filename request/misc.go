// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
)

var errBadBodyType = errors.New("httpx/request: invalid type (for body use nil, " +
	"string, []byte, io.Reader or io.ReadCloser)")

// BodyBytes converts a generic body parameter into the pre-buffered
// byte slice held by a Plan.
//
// The body may be nil, a string, a []byte, an io.Reader or an
// io.ReadCloser. Readers are read to the end, and ReadClosers are
// closed afterward. Any other type produces an error.
func BodyBytes(body any) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case io.ReadCloser:
		b, err := io.ReadAll(x)
		if closeErr := x.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return nil, err
		}
		return b, nil
	case io.Reader:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errBadBodyType
	}
}
