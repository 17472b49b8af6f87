// Copyright 2023 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regex

import (
	"errors"

	"github.com/Retropikzel/STklos/internal/engine"
)

var (
	// ErrInvalidArgument is wrapped by errors reporting a value of the
	// wrong kind, such as a non-string subject or a nil Pattern.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrReleased is returned when matching a Pattern whose compiled
	// program was already released by Close or Shutdown.
	ErrReleased = errors.New("regex: use of released pattern")
)

// A CompileError reports a pattern the engine refused to compile.
type CompileError struct {
	Pattern string // source text
	Message string // engine diagnostic

	code engine.Code
}

func (e *CompileError) Error() string {
	return "error parsing regexp: " + e.Message
}

// A MatchError reports an engine failure during a match. Not finding a
// match is not an error.
type MatchError struct {
	Pattern string
	Message string

	code engine.Code
}

func (e *MatchError) Error() string {
	return "error matching regexp " + quote(e.Pattern) + ": " + e.Message
}

// Timeout reports whether the match was abandoned because it exceeded
// Options.MatchTimeout.
func (e *MatchError) Timeout() bool { return e.code == engine.ErrTimeout }
