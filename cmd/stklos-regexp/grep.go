// Copyright 2023 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Retropikzel/STklos/internal/config"
	"github.com/Retropikzel/STklos/lib/regexp"
	"github.com/Retropikzel/STklos/regex"
)

// maxLine bounds the length of an input line in --match mode.
const maxLine = 1 << 20

// A grepper prints the match of one pattern against input lines.
type grepper struct {
	p         *regex.Pattern
	positions bool
	json      bool
	names     bool // prefix each record with the input name
	out       io.Writer
}

// grepMain matches src against every line of the named files, or of
// standard input when there are none. Like grep, it returns 0 if some
// line matched, 1 if none did and 2 on error.
func grepMain(cfg *config.Config, src string, files []string, out io.Writer) int {
	p, err := regex.CompileOptions(src, cfg.Options())
	if err != nil {
		log.Print(err)
		return 2
	}
	defer p.Close()

	g := &grepper{
		p:         p,
		positions: *positions,
		json:      *jsonOutput,
		names:     len(files) > 1,
		out:       out,
	}

	if len(files) == 0 {
		return g.status(g.scan("<stdin>", os.Stdin))
	}

	matched, failed := false, false
	for _, name := range files {
		ok, err := g.scanFile(name)
		if err != nil {
			log.Print(err)
			failed = true
		}
		matched = matched || ok
	}
	switch {
	case failed:
		return 2
	case matched:
		return 0
	}
	return 1
}

func (g *grepper) status(matched bool, err error) int {
	if err != nil {
		log.Print(err)
		return 2
	}
	if matched {
		return 0
	}
	return 1
}

func (g *grepper) scanFile(name string) (bool, error) {
	f, err := os.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return g.scan(name, f)
}

// scan reports whether any line of r matched.
func (g *grepper) scan(name string, r io.Reader) (bool, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	matched := false
	for lineno := 1; sc.Scan(); lineno++ {
		ok, err := g.line(name, lineno, sc.Text())
		if err != nil {
			return matched, fmt.Errorf("%s:%d: %w", name, lineno, err)
		}
		matched = matched || ok
	}
	if err := sc.Err(); err != nil {
		return matched, fmt.Errorf("%s: %w", name, err)
	}
	return matched, nil
}

// line matches one input line and prints the result if there is one.
func (g *grepper) line(name string, lineno int, text string) (bool, error) {
	var (
		subs  []regex.Substring
		spans []regex.Span
		err   error
	)
	if g.positions {
		spans, err = g.p.MatchPositions(text)
	} else {
		subs, err = g.p.Match(text)
	}
	if err != nil || (subs == nil && spans == nil) {
		return false, err
	}

	if g.json {
		rec, err := record(name, lineno, subs, spans)
		if err != nil {
			return false, err
		}
		data, err := protojson.Marshal(rec)
		if err != nil {
			return false, err
		}
		_, err = fmt.Fprintf(g.out, "%s\n", data)
		return true, err
	}

	result := regexp.Substrings(subs)
	if g.positions {
		result = regexp.Positions(spans)
	}
	if g.names {
		_, err = fmt.Fprintf(g.out, "%s:%d:%s\n", name, lineno, result)
	} else {
		_, err = fmt.Fprintf(g.out, "%d:%s\n", lineno, result)
	}
	return true, err
}

// record builds the JSON form of one matching line. Groups that did not
// participate are null in substrings mode and [0, 0] in positions mode.
func record(name string, lineno int, subs []regex.Substring, spans []regex.Span) (*structpb.Struct, error) {
	var groups []interface{}
	for _, s := range subs {
		if !s.Valid {
			groups = append(groups, nil)
			continue
		}
		groups = append(groups, s.Text)
	}
	for _, sp := range spans {
		groups = append(groups, []interface{}{sp.Start, sp.End})
	}
	return structpb.NewStruct(map[string]interface{}{
		"file":  name,
		"line":  lineno,
		"match": groups,
	})
}
