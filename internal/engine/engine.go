// Copyright 2023 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engine defines the narrow interface through which patterns are
// compiled and executed by a third-party matching engine.
//
// An engine never returns Go errors to its callers. Compilation and
// execution report a Status whose Code classifies the outcome; callers
// that need text ask the engine to Describe the status. Keeping the two
// steps apart lets the message formatting change with the engine while
// the classification stays stable.
package engine // import "github.com/Retropikzel/STklos/internal/engine"

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// A Code classifies the outcome of a compile or exec call.
type Code int

const (
	OK Code = iota
	NoMatch

	// compile failures
	ErrMissingParen
	ErrUnexpectedParen
	ErrMissingBracket
	ErrInvalidEscape
	ErrInvalidCharRange
	ErrInvalidRepeat
	ErrInvalidNamedCapture
	ErrInvalidPerlOp
	ErrTrailingBackslash
	ErrInvalidUTF8
	ErrTooLarge
	ErrSyntax

	// exec failures
	ErrTimeout
	ErrInternal
)

var codeNames = [...]string{
	OK:                     "ok",
	NoMatch:                "no match",
	ErrMissingParen:        "missing closing )",
	ErrUnexpectedParen:     "unexpected )",
	ErrMissingBracket:      "missing closing ]",
	ErrInvalidEscape:       "invalid escape sequence",
	ErrInvalidCharRange:    "invalid character class range",
	ErrInvalidRepeat:       "invalid repetition",
	ErrInvalidNamedCapture: "invalid named capture",
	ErrInvalidPerlOp:       "invalid or unsupported Perl syntax",
	ErrTrailingBackslash:   "trailing backslash at end of expression",
	ErrInvalidUTF8:         "invalid UTF-8",
	ErrTooLarge:            "expression too large",
	ErrSyntax:              "syntax error",
	ErrTimeout:             "match timeout",
	ErrInternal:            "internal error",
}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Status is the result of an engine call. Arg carries the engine's
// context for a failure, usually the offending fragment of the pattern.
type Status struct {
	Code Code
	Arg  string
}

// Failed reports whether the status is neither OK nor NoMatch.
func (s Status) Failed() bool { return s.Code != OK && s.Code != NoMatch }

// Flags are the compile options understood by every engine.
// The zero value is the default: case sensitive, no timeout.
type Flags struct {
	IgnoreCase bool
	Multiline  bool
	DotAll     bool

	// MatchTimeout bounds a single Exec call on engines that can
	// interrupt a search. Zero means no limit.
	MatchTimeout time.Duration
}

// An Engine compiles patterns into Programs.
type Engine interface {
	Name() string
	Compile(expr string, flags Flags) (Program, Status)
	Describe(st Status) string
}

// A Program is a compiled pattern owned by exactly one caller.
// Exec must be safe for concurrent use; Release must be called at most
// once and no Exec may follow it.
type Program interface {
	// NumGroups is the number of capture groups, not counting group 0.
	NumGroups() int

	// Exec runs the program against subject and stores byte offsets of
	// the leftmost match into spans: spans[2*i], spans[2*i+1] hold group
	// i, or -1, -1 when the group did not participate. At most
	// len(spans)/2 groups are reported.
	Exec(subject string, spans []int) Status

	Release()
}

// Default is the name of the engine used when none is configured.
const Default = "re2"

var engines = map[string]Engine{
	re2Name:  re2Engine{},
	pcreName: pcreEngine{},
}

// Lookup returns the engine registered under name.
// The empty name selects Default.
func Lookup(name string) (Engine, error) {
	if name == "" {
		name = Default
	}
	e, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown regexp engine %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return e, nil
}

// Names returns the sorted names of the registered engines.
func Names() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// describe is the message format shared by the bundled engines.
func describe(st Status) string {
	switch {
	case st.Code == ErrSyntax && st.Arg != "":
		return st.Arg
	case st.Arg != "":
		return st.Code.String() + ": `" + st.Arg + "`"
	}
	return st.Code.String()
}

// clearSpans marks every group in spans as unparticipating.
func clearSpans(spans []int) {
	for i := range spans {
		spans[i] = -1
	}
}
