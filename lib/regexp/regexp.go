// Copyright 2021 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regexp provides functions related to regular expressions.
package regexp // import "github.com/Retropikzel/STklos/lib/regexp"

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/Retropikzel/STklos/regex"
)

// ModuleName defines the expected name for this Module when used in the
// starlark runtime.
const ModuleName = "regexp"

// Module regexp is a Starlark module of functions related to regular expressions.
// It compiles patterns with the default engine and flags.
// The module defines the following functions:
//
//     compile(pattern) - Compiles pattern to a value of type 'regexp'. Each call
//                        returns a distinct regexp value; compile a pattern once
//                        and reuse it when matching many strings.
//
//     is_regexp(x) - Reports whether x is a regexp value.
//
//     match(pattern, string) - Matches pattern, a string or a regexp value, against
//                              string. Returns None if there is no match, otherwise a
//                              list holding the text of the whole match followed by the
//                              text of each parenthesized group, in the order of their
//                              opening parentheses. A group that did not take part in
//                              the match is None.
//
//     match_positions(pattern, string) - Like match, but each element is a
//                                        (start, end) tuple of character positions.
//                                        A group that did not take part in the match
//                                        is reported as (0, 0).
//
//     quote(string) - Returns string with a backslash before each of the
//                     characters \ . ? * + | [ ] { } ( ) so that the result,
//                     used as a pattern, matches string literally.
//
// At most MAX_GROUPS groups, the whole match included, are reported.
var Module = NewModule(regex.Options{})

// LoadModule loads the regexp module.
// It is concurrency-safe and idempotent.
func LoadModule() (starlark.StringDict, error) {
	return starlark.StringDict{
		ModuleName: Module,
	}, nil
}

// NewModule returns a regexp module whose compile and match functions
// compile patterns as directed by opts.
func NewModule(opts regex.Options) *starlarkstruct.Module {
	m := &module{opts: opts}
	name := opts.Engine
	if name == "" {
		name = regex.DefaultEngine
	}
	return &starlarkstruct.Module{
		Name: ModuleName,
		Members: starlark.StringDict{
			"compile":         starlark.NewBuiltin("compile", m.compile),
			"is_regexp":       starlark.NewBuiltin("is_regexp", isRegexp),
			"match":           starlark.NewBuiltin("match", m.match),
			"match_positions": starlark.NewBuiltin("match_positions", m.matchPositions),
			"quote":           starlark.NewBuiltin("quote", quote),

			"ENGINE":     starlark.String(name),
			"MAX_GROUPS": starlark.MakeInt(regex.MaxGroups),
		},
	}
}

type module struct {
	opts regex.Options
}

// argError reports an argument of the wrong kind.
type argError struct {
	msg string
}

func (e *argError) Error() string { return e.msg }
func (e *argError) Unwrap() error { return regex.ErrInvalidArgument }

func badString(fnname string, v starlark.Value) error {
	return &argError{fmt.Sprintf("%s: bad string %s", fnname, v)}
}

func (m *module) compile(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var src starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &src); err != nil {
		return nil, err
	}
	s, ok := src.(starlark.String)
	if !ok {
		return nil, badString(b.Name(), src)
	}
	p, err := regex.CompileOptions(string(s), m.opts)
	if err != nil {
		return nil, err
	}
	return &Regexp{p: p}, nil
}

// pattern returns the Pattern designated by v, compiling it when v is a
// string. The returned function releases an ephemeral Pattern.
func (m *module) pattern(fnname string, v starlark.Value) (*regex.Pattern, func(), error) {
	switch v := v.(type) {
	case *Regexp:
		return v.p, func() {}, nil
	case starlark.String:
		p, err := regex.CompileOptions(string(v), m.opts)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	}
	return nil, nil, &argError{fmt.Sprintf("%s: bad compiled regexp %s", fnname, v)}
}

func (m *module) match(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return m.exec(b, args, kwargs, matchSubstrings)
}

func (m *module) matchPositions(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return m.exec(b, args, kwargs, matchPositions)
}

func (m *module) exec(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple, run matcher) (starlark.Value, error) {
	var pat, subject starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &pat, &subject); err != nil {
		return nil, err
	}
	p, done, err := m.pattern(b.Name(), pat)
	if err != nil {
		return nil, err
	}
	defer done()
	s, ok := subject.(starlark.String)
	if !ok {
		return nil, badString(b.Name(), subject)
	}
	return run(p, string(s))
}

// A matcher runs p against s and converts the result to Starlark values.
type matcher func(p *regex.Pattern, s string) (starlark.Value, error)

func matchSubstrings(p *regex.Pattern, s string) (starlark.Value, error) {
	subs, err := p.Match(s)
	if err != nil {
		return nil, err
	}
	return Substrings(subs), nil
}

func matchPositions(p *regex.Pattern, s string) (starlark.Value, error) {
	spans, err := p.MatchPositions(s)
	if err != nil {
		return nil, err
	}
	return Positions(spans), nil
}

// Substrings converts the result of regex.Pattern.Match to the value
// returned by regexp.match: None for no match, otherwise a list of
// strings with None for each group that did not participate.
func Substrings(subs []regex.Substring) starlark.Value {
	if subs == nil {
		return starlark.None
	}
	elems := make([]starlark.Value, len(subs))
	for i, sub := range subs {
		if !sub.Valid {
			elems[i] = starlark.None
			continue
		}
		elems[i] = starlark.String(sub.Text)
	}
	return starlark.NewList(elems)
}

// Positions converts the result of regex.Pattern.MatchPositions to the
// value returned by regexp.match_positions: None for no match, otherwise
// a list of (start, end) tuples.
func Positions(spans []regex.Span) starlark.Value {
	if spans == nil {
		return starlark.None
	}
	elems := make([]starlark.Value, len(spans))
	for i, sp := range spans {
		elems[i] = starlark.Tuple{starlark.MakeInt(sp.Start), starlark.MakeInt(sp.End)}
	}
	return starlark.NewList(elems)
}

func isRegexp(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &x); err != nil {
		return nil, err
	}
	_, ok := x.(*Regexp)
	return starlark.Bool(ok), nil
}

func quote(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &x); err != nil {
		return nil, err
	}
	s, ok := x.(starlark.String)
	if !ok {
		return nil, badString(b.Name(), x)
	}
	return starlark.String(regex.Quote(string(s))), nil
}

// A Regexp is a compiled regular expression.
// Its compiled program is released once the value is unreachable.
type Regexp struct {
	p *regex.Pattern
}

var (
	_ starlark.Value    = (*Regexp)(nil)
	_ starlark.HasAttrs = (*Regexp)(nil)
)

// Pattern returns the compiled pattern behind r.
func (r *Regexp) Pattern() *regex.Pattern { return r.p }

// String implements the Stringer interface.
func (r *Regexp) String() string { return r.p.String() }

// Type returns a short string describing the value's type.
func (r *Regexp) Type() string { return "regexp" }

// Freeze is a no-op: a regexp is immutable.
func (r *Regexp) Freeze() {}

// Hash returns a function of x such that Equals(x, y) => Hash(x) == Hash(y)
// required by starlark.Value interface.
func (r *Regexp) Hash() (uint32, error) { return starlark.String(r.p.Source()).Hash() }

// Truth always returns true for a Regexp.
func (r *Regexp) Truth() starlark.Bool { return true }

// Attr gets a value for a string attribute, implementing dot expression support
// in Starklark. required by starlark.HasAttrs interface.
func (r *Regexp) Attr(name string) (starlark.Value, error) {
	switch name {
	case "pattern":
		return starlark.String(r.p.Source()), nil
	case "groups":
		return starlark.MakeInt(r.p.NumGroups()), nil
	case "engine":
		return starlark.String(r.p.Engine()), nil
	}
	return builtinAttr(r, name, regexpMethods)
}

// AttrNames lists available dot expression strings for a regexp. Required by
// starlark.HasAttrs interface.
func (r *Regexp) AttrNames() []string {
	names := append(builtinAttrNames(regexpMethods), "engine", "groups", "pattern")
	sort.Strings(names)
	return names
}

var regexpMethods = map[string]*starlark.Builtin{
	"match":           starlark.NewBuiltin("match", methodMatch),
	"match_positions": starlark.NewBuiltin("match_positions", methodMatchPositions),
}

func builtinAttr(recv starlark.Value, name string, methods map[string]*starlark.Builtin) (starlark.Value, error) {
	b := methods[name]
	if b == nil {
		return nil, nil // no such method
	}
	return b.BindReceiver(recv), nil
}

func builtinAttrNames(methods map[string]*starlark.Builtin) []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func methodMatch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return method(b, args, kwargs, matchSubstrings)
}

func methodMatchPositions(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return method(b, args, kwargs, matchPositions)
}

func method(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple, run matcher) (starlark.Value, error) {
	var subject starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &subject); err != nil {
		return nil, err
	}
	s, ok := subject.(starlark.String)
	if !ok {
		return nil, badString(b.Name(), subject)
	}
	return run(b.Receiver().(*Regexp).p, string(s))
}
