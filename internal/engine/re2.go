// Copyright 2023 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"errors"
	"regexp/syntax"
	"strings"
	"unicode/utf8"

	"github.com/coregx/coregex"
	"github.com/dlclark/regexp2"

	"github.com/Retropikzel/STklos/internal/runes"
)

const re2Name = "re2"

// re2Engine compiles RE2 syntax with coregex, which matches bytes: on
// subjects that are not ASCII its "." and negated classes can split a
// character. Such subjects are matched instead by regexp2 in its RE2
// compatibility mode, which works on characters. Flags.MatchTimeout
// applies only to that path; coregex runs in time linear in the subject.
type re2Engine struct{}

func (re2Engine) Name() string { return re2Name }

func (re2Engine) Compile(expr string, flags Flags) (Program, Status) {
	re, err := coregex.Compile(inlineFlags(flags) + expr)
	if err != nil {
		return nil, re2Status(err)
	}
	// SubexpNames has one entry per group, group 0 included.
	p := &re2Program{re: re, ngroups: len(re.SubexpNames()) - 1}
	if wide, err := compileRunes(expr, regexp2.RE2, flags); err == nil && wide.NumGroups() == p.ngroups {
		p.wide = wide
	}
	return p, Status{}
}

func (re2Engine) Describe(st Status) string { return describe(st) }

// inlineFlags renders flags as an RE2 flag group prefix such as "(?is)".
func inlineFlags(flags Flags) string {
	var b strings.Builder
	if flags.IgnoreCase {
		b.WriteByte('i')
	}
	if flags.Multiline {
		b.WriteByte('m')
	}
	if flags.DotAll {
		b.WriteByte('s')
	}
	if b.Len() == 0 {
		return ""
	}
	return "(?" + b.String() + ")"
}

var re2Codes = map[syntax.ErrorCode]Code{
	syntax.ErrMissingParen:          ErrMissingParen,
	syntax.ErrUnexpectedParen:       ErrUnexpectedParen,
	syntax.ErrMissingBracket:        ErrMissingBracket,
	syntax.ErrInvalidEscape:         ErrInvalidEscape,
	syntax.ErrInvalidCharRange:      ErrInvalidCharRange,
	syntax.ErrInvalidCharClass:      ErrInvalidCharRange,
	syntax.ErrMissingRepeatArgument: ErrInvalidRepeat,
	syntax.ErrInvalidRepeatOp:       ErrInvalidRepeat,
	syntax.ErrInvalidRepeatSize:     ErrInvalidRepeat,
	syntax.ErrInvalidNamedCapture:   ErrInvalidNamedCapture,
	syntax.ErrInvalidPerlOp:         ErrInvalidPerlOp,
	syntax.ErrTrailingBackslash:     ErrTrailingBackslash,
	syntax.ErrInvalidUTF8:           ErrInvalidUTF8,
	syntax.ErrLarge:                 ErrTooLarge,
	syntax.ErrNestingDepth:          ErrTooLarge,
	syntax.ErrInternalError:         ErrInternal,
}

func re2Status(err error) Status {
	var serr *syntax.Error
	if errors.As(err, &serr) {
		if code, ok := re2Codes[serr.Code]; ok {
			return Status{Code: code, Arg: serr.Expr}
		}
	}
	return Status{Code: ErrSyntax, Arg: err.Error()}
}

type re2Program struct {
	re      *coregex.Regex
	ngroups int

	// wide matches subjects that are not ASCII. It is nil when regexp2
	// does not accept the pattern.
	wide *runeProgram
}

func (p *re2Program) NumGroups() int { return p.ngroups }

func (p *re2Program) Exec(subject string, spans []int) Status {
	ascii := runes.SingleByte(subject)
	if !ascii && p.wide != nil {
		return p.wide.Exec(subject, spans)
	}

	clearSpans(spans)
	loc := p.re.FindStringSubmatchIndex(subject)
	if loc == nil {
		return Status{Code: NoMatch}
	}
	if !ascii && !onBoundaries(subject, loc) {
		return Status{Code: ErrInternal, Arg: "match offset inside a multi-byte character"}
	}
	copy(spans, loc)
	return Status{}
}

// onBoundaries reports whether every offset in loc starts a character
// of s or is its end.
func onBoundaries(s string, loc []int) bool {
	for _, off := range loc {
		if off > 0 && off < len(s) && !utf8.RuneStart(s[off]) {
			return false
		}
	}
	return true
}

// Release drops the compiled programs; neither engine keeps resources
// outside the Go heap.
func (p *re2Program) Release() {
	p.re = nil
	if p.wide != nil {
		p.wide.Release()
	}
}
