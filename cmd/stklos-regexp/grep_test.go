package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Retropikzel/STklos/internal/config"
	"github.com/Retropikzel/STklos/regex"
)

const input = `mail eg@stklos.com
no address here
café au lait
`

func newGrepper(t *testing.T, src string, positions, json bool) (*grepper, *bytes.Buffer) {
	t.Helper()
	p, err := regex.Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	var out bytes.Buffer
	return &grepper{p: p, positions: positions, json: json, out: &out}, &out
}

func TestScanText(t *testing.T) {
	for _, test := range []struct {
		src       string
		positions bool
		want      string
	}{
		{`(\w+)@(\w+)\.com`, false, `1:["eg@stklos.com", "eg", "stklos"]` + "\n"},
		{`(\w+)@(\w+)\.com`, true, "1:[(5, 18), (5, 7), (8, 14)]\n"},
		{`(x)|(é)`, false, `3:["é", None, "é"]` + "\n"},
		{`(x)|(é)`, true, "3:[(3, 4), (0, 0), (3, 4)]\n"},
	} {
		g, out := newGrepper(t, test.src, test.positions, false)
		matched, err := g.scan("input", strings.NewReader(input))
		if err != nil {
			t.Fatal(err)
		}
		if !matched {
			t.Errorf("%s: no line matched", test.src)
		}
		if diff := cmp.Diff(test.want, out.String()); diff != "" {
			t.Errorf("%s positions=%t output mismatch (-want +got):\n%s", test.src, test.positions, diff)
		}
	}
}

func TestScanNoMatch(t *testing.T) {
	g, out := newGrepper(t, `\d+`, false, false)
	matched, err := g.scan("input", strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if matched || out.Len() != 0 {
		t.Errorf("scan = %t, output %q; want no match and no output", matched, out)
	}
	if got := g.status(matched, err); got != 1 {
		t.Errorf("status = %d, want 1", got)
	}
}

func TestScanJSON(t *testing.T) {
	for _, test := range []struct {
		positions bool
		match     []interface{}
	}{
		{false, []interface{}{"é", nil, "é"}},
		{true, []interface{}{[]interface{}{3, 4}, []interface{}{0, 0}, []interface{}{3, 4}}},
	} {
		g, out := newGrepper(t, `(x)|(é)`, test.positions, true)
		if _, err := g.scan("input", strings.NewReader(input)); err != nil {
			t.Fatal(err)
		}

		got := new(structpb.Struct)
		if err := protojson.Unmarshal(bytes.TrimSpace(out.Bytes()), got); err != nil {
			t.Fatalf("output %q: %v", out, err)
		}
		want, err := structpb.NewStruct(map[string]interface{}{
			"file":  "input",
			"line":  3,
			"match": test.match,
		})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got, protocmp.Transform()); diff != "" {
			t.Errorf("positions=%t record mismatch (-want +got):\n%s", test.positions, diff)
		}
	}
}

func TestGrepMainFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("alpha\nbeta\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("gamma\nzeta\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if got := grepMain(config.DefaultConfig(), "(?i)ETA", []string{a, b}, &out); got != 0 {
		t.Errorf("grepMain = %d, want 0", got)
	}
	want := a + `:2:["eta"]` + "\n" + b + `:2:["eta"]` + "\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	out.Reset()
	if got := grepMain(config.DefaultConfig(), "(", []string{a}, &out); got != 2 {
		t.Errorf("grepMain with a bad pattern = %d, want 2", got)
	}
	if got := grepMain(config.DefaultConfig(), "x", []string{filepath.Join(dir, "absent")}, &out); got != 2 {
		t.Errorf("grepMain with a missing file = %d, want 2", got)
	}
}
