// Copyright 2023 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regex

import (
	"fmt"
	"runtime"

	"github.com/Retropikzel/STklos/internal/engine"
)

// MaxGroups is the capacity of the capture buffer used by a match,
// group 0 included. Groups numbered MaxGroups and above are silently
// not reported.
const MaxGroups = 30

// A Substring is the text of one group of a match.
// Valid is false when the group did not participate in the match.
type Substring struct {
	Text  string
	Valid bool
}

// A Span is the half-open character range [Start, End) of one group of
// a match. A group that did not participate is reported as Span{0, 0}.
type Span struct {
	Start, End int
}

// Match matches the Pattern against subject and returns the text of the
// whole match followed by the text of each capture group, in the order
// of their opening parentheses. It returns nil, nil when there is no
// match.
func (p *Pattern) Match(subject string) ([]Substring, error) {
	return execute[Substring](p, subject, substrings{})
}

// MatchPositions is like Match but reports character positions in
// subject instead of text.
func (p *Pattern) MatchPositions(subject string) ([]Span, error) {
	return execute[Span](p, subject, positions{singleByte: SingleByte(subject)})
}

// Match compiles src and matches it against subject. The Pattern is
// released before Match returns.
func Match(src, subject string) ([]Substring, error) {
	p, err := Compile(src)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Match(subject)
}

// MatchPositions compiles src and reports the positions of its match
// in subject. The Pattern is released before MatchPositions returns.
func MatchPositions(src, subject string) ([]Span, error) {
	p, err := Compile(src)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.MatchPositions(subject)
}

// A projection turns the engine's byte span of one group into a result
// element.
type projection[T any] interface {
	absent() T
	span(subject string, from, to int) T
}

type substrings struct{}

func (substrings) absent() Substring { return Substring{} }

// span slices by byte offset whatever the encoding of subject.
func (substrings) span(subject string, from, to int) Substring {
	return Substring{Text: subject[from:to], Valid: true}
}

type positions struct {
	singleByte bool
}

func (positions) absent() Span { return Span{} }

func (pr positions) span(subject string, from, to int) Span {
	if pr.singleByte {
		return Span{Start: from, End: to}
	}
	return Span{Start: CharIndex(subject, from), End: CharIndex(subject, to)}
}

// execute is the single traversal behind Match and MatchPositions.
func execute[T any](p *Pattern, subject string, proj projection[T]) ([]T, error) {
	if p == nil {
		return nil, fmt.Errorf("bad compiled regexp <nil>: %w", ErrInvalidArgument)
	}
	if p.h.released.Load() {
		return nil, ErrReleased
	}

	var spans [2 * MaxGroups]int
	st := p.h.prog.Exec(subject, spans[:])
	runtime.KeepAlive(p) // the program must outlive Exec

	switch st.Code {
	case engine.OK:
	case engine.NoMatch:
		return nil, nil
	default:
		return nil, &MatchError{Pattern: p.src, Message: p.eng.Describe(st), code: st.Code}
	}

	n := min(p.groups, MaxGroups-1) + 1
	result := make([]T, n)
	for i := range result {
		from, to := spans[2*i], spans[2*i+1]
		if from < 0 {
			result[i] = proj.absent()
			continue
		}
		result[i] = proj.span(subject, from, to)
	}
	return result, nil
}
