// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package cerr provides a string-backed error type so that sentinel errors can
// be declared as constants.
package cerr

import "fmt"

type Error string

func (e Error) Error() string {
	return string(e)
}

// With returns an error that matches e under [errors.Is] and carries
// additional detail after the sentinel text.
func (e Error) With(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{e}, args...)...)
}
