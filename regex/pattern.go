// Copyright 2023 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regex compiles regular expressions into Patterns and matches
// them against text, reporting either the matched substrings or their
// character positions.
//
// Matching is delegated to a third-party engine (RE2 syntax by default,
// Perl syntax with lookaround when the "pcre" engine is selected). This
// package owns what surrounds the engine: the lifetime of compiled
// programs, the shape of match results, and the translation of the
// engine's byte offsets into character positions.
//
// A Pattern is not cached: compiling the same source twice yields two
// independent Patterns. Callers that match the same expression many
// times should compile it once and keep the Pattern.
package regex // import "github.com/Retropikzel/STklos/regex"

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Retropikzel/STklos/internal/engine"
)

// DefaultEngine is the engine used when Options.Engine is empty.
const DefaultEngine = engine.Default

// Engines returns the names of the available engines.
func Engines() []string { return engine.Names() }

// Options control how a Pattern is compiled.
// The zero value selects the default engine and default flags.
type Options struct {
	// Engine names the matching engine, "re2" or "pcre".
	Engine string

	IgnoreCase bool
	Multiline  bool
	DotAll     bool

	// MatchTimeout bounds each match on engines that support it ("pcre").
	MatchTimeout time.Duration
}

func (o Options) flags() engine.Flags {
	return engine.Flags{
		IgnoreCase:   o.IgnoreCase,
		Multiline:    o.Multiline,
		DotAll:       o.DotAll,
		MatchTimeout: o.MatchTimeout,
	}
}

// A Pattern is a compiled regular expression.
//
// A Pattern is immutable and safe for concurrent use by multiple
// goroutines. It must not be copied; use it through its pointer.
type Pattern struct {
	_ noCopy

	src    string
	eng    engine.Engine
	groups int

	h       *handle
	cleanup runtime.Cleanup
}

// Compile compiles src with the default engine and flags.
func Compile(src string) (*Pattern, error) {
	return CompileOptions(src, Options{})
}

// CompileOptions compiles src as directed by opts.
// If the engine rejects src, the error is a *CompileError carrying the
// engine's diagnostic, and no Pattern is returned.
func CompileOptions(src string, opts Options) (*Pattern, error) {
	eng, err := engine.Lookup(opts.Engine)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	prog, st := eng.Compile(src, opts.flags())
	if st.Code != engine.OK {
		return nil, &CompileError{Pattern: src, Message: eng.Describe(st), code: st.Code}
	}
	p := &Pattern{src: src, eng: eng, groups: prog.NumGroups()}
	track(p, prog)
	return p, nil
}

// MustCompile is like Compile but panics if src cannot be compiled.
func MustCompile(src string) *Pattern {
	p, err := Compile(src)
	if err != nil {
		panic("regex: Compile(" + quote(src) + "): " + err.Error())
	}
	return p
}

func quote(s string) string {
	return "`" + s + "`"
}

// IsPattern reports whether v is a non-nil *Pattern.
func IsPattern(v interface{}) bool {
	p, ok := v.(*Pattern)
	return ok && p != nil
}

// Source returns the text the Pattern was compiled from.
func (p *Pattern) Source() string { return p.src }

// NumGroups returns the number of capture groups, not counting the
// whole match. Only the first MaxGroups-1 of them are ever reported.
func (p *Pattern) NumGroups() int { return p.groups }

// Engine returns the name of the engine that compiled the Pattern.
func (p *Pattern) Engine() string { return p.eng.Name() }

// String returns the printed form of the Pattern, #[regexp 'SRC'].
func (p *Pattern) String() string { return "#[regexp '" + p.src + "']" }

// noCopy may be embedded into structs which must not be copied
// after first use. See go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
