// Copyright 2023 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"errors"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	pcresyntax "github.com/dlclark/regexp2/syntax"

	"github.com/Retropikzel/STklos/internal/runes"
)

const pcreName = "pcre"

// pcreEngine compiles Perl-style patterns, including lookaround and
// backreferences, with regexp2. regexp2 reports rune offsets; Exec
// converts them back to byte offsets so that every engine speaks bytes.
type pcreEngine struct{}

func (pcreEngine) Name() string { return pcreName }

func (pcreEngine) Compile(expr string, flags Flags) (Program, Status) {
	prog, err := compileRunes(expr, regexp2.None, flags)
	if err != nil {
		return nil, pcreStatus(err)
	}
	return &pcreProgram{prog}, Status{}
}

func (pcreEngine) Describe(st Status) string { return describe(st) }

var pcreCodes = map[pcresyntax.ErrorCode]Code{
	pcresyntax.ErrMissingParen:          ErrMissingParen,
	pcresyntax.ErrUnexpectedParen:       ErrUnexpectedParen,
	pcresyntax.ErrUnterminatedBracket:   ErrMissingBracket,
	pcresyntax.ErrInvalidCharRange:      ErrInvalidCharRange,
	pcresyntax.ErrReversedCharRange:     ErrInvalidCharRange,
	pcresyntax.ErrInvalidRepeatSize:     ErrInvalidRepeat,
	pcresyntax.ErrInvalidRepeatOp:       ErrInvalidRepeat,
	pcresyntax.ErrMissingRepeatArgument: ErrInvalidRepeat,
	pcresyntax.ErrInvalidGroupName:      ErrInvalidNamedCapture,
	pcresyntax.ErrIllegalEndEscape:      ErrTrailingBackslash,
	pcresyntax.ErrUnrecognizedEscape:    ErrInvalidEscape,
	pcresyntax.ErrInvalidUTF8:           ErrInvalidUTF8,
	pcresyntax.ErrInternalError:         ErrInternal,
}

func pcreStatus(err error) Status {
	var serr *pcresyntax.Error
	if errors.As(err, &serr) {
		if code, ok := pcreCodes[serr.Code]; ok {
			return Status{Code: code, Arg: serr.Expr}
		}
	}
	return Status{Code: ErrSyntax, Arg: err.Error()}
}

type pcreProgram struct {
	*runeProgram
}

// A runeProgram runs a regexp2 program. It serves the pcre engine and
// the re2 engine's multi-byte subjects.
type runeProgram struct {
	re *regexp2.Regexp

	// order[k] is regexp2's number for the group whose opening
	// parenthesis comes k-th; order[0] is 0.
	order []int
}

func compileRunes(expr string, opts regexp2.RegexOptions, flags Flags) (*runeProgram, error) {
	if flags.IgnoreCase {
		opts |= regexp2.IgnoreCase
	}
	if flags.Multiline {
		opts |= regexp2.Multiline
	}
	if flags.DotAll {
		opts |= regexp2.Singleline
	}
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, err
	}
	if flags.MatchTimeout > 0 {
		re.MatchTimeout = flags.MatchTimeout
	}
	return &runeProgram{re: re, order: groupOrder(expr, re)}, nil
}

func (p *runeProgram) NumGroups() int { return len(p.order) - 1 }

func (p *runeProgram) Exec(subject string, spans []int) Status {
	clearSpans(spans)
	m, err := p.re.FindStringMatch(subject)
	if err != nil {
		// regexp2 only fails a search when MatchTimeout expires.
		if p.re.MatchTimeout > 0 && p.re.MatchTimeout < regexp2.DefaultMatchTimeout {
			return Status{Code: ErrTimeout, Arg: p.re.MatchTimeout.Round(time.Millisecond).String()}
		}
		return Status{Code: ErrInternal, Arg: err.Error()}
	}
	if m == nil {
		return Status{Code: NoMatch}
	}

	var offsets []int
	if !runes.SingleByte(subject) {
		offsets = runes.Offsets(subject)
	}
	toByte := func(r int) int {
		if offsets == nil {
			return r
		}
		return offsets[r]
	}

	for i, num := range p.order {
		if 2*i+1 >= len(spans) {
			break
		}
		g := m.GroupByNumber(num)
		if g == nil || len(g.Captures) == 0 {
			continue
		}
		spans[2*i] = toByte(g.Index)
		spans[2*i+1] = toByte(g.Index + g.Length)
	}
	return Status{}
}

func (p *runeProgram) Release() { p.re = nil }

// groupOrder lists regexp2's group numbers by position of the opening
// parenthesis. regexp2 numbers unnamed groups first and named groups
// after them; results are reported in the order the groups are written.
// If the scan disagrees with regexp2 about the number of groups, the
// engine's own numbering is kept.
func groupOrder(expr string, re *regexp2.Regexp) []int {
	numbers := re.GetGroupNumbers()
	order := []int{0}
	unnamed := 0
	inClass := false
	for i := 0; i < len(expr); i++ {
		switch c := expr[i]; {
		case c == '\\':
			i++
		case inClass:
			inClass = c != ']'
		case c == '[':
			inClass = true
			// ']' first in a class is a literal
			if strings.HasPrefix(expr[i+1:], "^") {
				i++
			}
			if strings.HasPrefix(expr[i+1:], "]") {
				i++
			}
		case c == '(':
			rest := expr[i+1:]
			if name, ok := groupName(rest); ok {
				order = append(order, re.GroupNumberFromName(name))
			} else if strings.HasPrefix(rest, "?#") {
				if end := strings.IndexByte(rest, ')'); end >= 0 {
					i += end + 1
				}
			} else if !strings.HasPrefix(rest, "?") {
				unnamed++
				order = append(order, unnamed)
			}
		}
	}
	if len(order) != len(numbers) {
		return numbers
	}
	return order
}

// groupName returns the name of the group whose text, after the opening
// parenthesis, is rest: (?<name>...), (?'name'...) or (?P<name>...).
// Lookbehind assertions are not groups.
func groupName(rest string) (string, bool) {
	var end byte
	switch {
	case strings.HasPrefix(rest, "?P<"):
		rest, end = rest[3:], '>'
	case strings.HasPrefix(rest, "?<=") || strings.HasPrefix(rest, "?<!"):
		return "", false
	case strings.HasPrefix(rest, "?<"):
		rest, end = rest[2:], '>'
	case strings.HasPrefix(rest, "?'"):
		rest, end = rest[2:], '\''
	default:
		return "", false
	}
	n := strings.IndexByte(rest, end)
	if n <= 0 {
		return "", false
	}
	return rest[:n], true
}
