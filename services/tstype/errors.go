// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tstype

import (
	"errors"
	"fmt"
)

var (
	// ErrIO matches every *IOError.
	ErrIO = errors.New("io error")

	// ErrNoPaths is returned when Analyze is called without paths.
	ErrNoPaths = errors.New("no paths to analyze")
)

// IOError reports a source file that could not be read. It stops the
// remaining files of the Analyze call.
type IOError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying read error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is matches ErrIO.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}
