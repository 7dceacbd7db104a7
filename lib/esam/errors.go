//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCigar flags a CIGAR string with an operation this package
	// cannot place on the reference.
	ErrInvalidCigar = errors.New("invalid CIGAR")
	// ErrUnknownAlignmentLength flags an alignment whose covered length is
	// undeterminable, i.e. both CIGAR and sequence are "*".
	ErrUnknownAlignmentLength = errors.New("unknown alignment length")
)

// ParseError reports a malformed record with its source location.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s: line %d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ToolError reports an external alignment-query command that failed,
// keeping whatever the tool wrote to stderr.
type ToolError struct {
	Cmd    string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Cmd, e.Err, e.Stderr)
}

func (e *ToolError) Unwrap() error { return e.Err }
