package regexp

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.starlark.net/starlark"

	"github.com/Retropikzel/STklos/regex"
)

const reporterKey = "Reporter"

// TestScript runs the assertions in testdata/regexp.star against the
// default module and a module backed by the pcre engine.
func TestScript(t *testing.T) {
	thread := &starlark.Thread{Name: "regexp.star"}
	thread.SetLocal(reporterKey, t)
	predeclared := starlark.StringDict{
		"regexp":       Module,
		"pcre":         NewModule(regex.Options{Engine: "pcre"}),
		"assert_eq":    starlark.NewBuiltin("assert_eq", assertEq),
		"assert_fails": starlark.NewBuiltin("assert_fails", assertFails),
	}
	if _, err := starlark.ExecFile(thread, filepath.Join("testdata", "regexp.star"), nil, predeclared); err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			t.Fatal(evalErr.Backtrace())
		}
		t.Fatal(err)
	}
}

func reportf(thread *starlark.Thread, format string, args ...interface{}) {
	t := thread.Local(reporterKey).(*testing.T)
	t.Helper()
	pos := thread.CallFrame(1).Pos
	t.Errorf("%s: %s", pos, fmt.Sprintf(format, args...))
}

func assertEq(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var got, want starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &got, &want); err != nil {
		return nil, err
	}
	eq, err := starlark.Equal(got, want)
	if err != nil {
		return nil, err
	}
	if !eq {
		reportf(thread, "got %s, want %s", got, want)
	}
	return starlark.None, nil
}

// assertFails calls fn and checks that it fails with an error whose
// message matches the pattern.
func assertFails(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Callable
	var pattern string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &fn, &pattern); err != nil {
		return nil, err
	}
	_, err := starlark.Call(thread, fn, nil, nil)
	if err == nil {
		reportf(thread, "evaluation succeeded unexpectedly (want error matching %q)", pattern)
		return starlark.None, nil
	}
	subs, merr := regex.Match(pattern, err.Error())
	if merr != nil {
		return nil, merr
	}
	if subs == nil {
		reportf(thread, "regular expression (%s) did not match error (%s)", pattern, err)
	}
	return starlark.None, nil
}

func call(t *testing.T, fn starlark.Value, args ...starlark.Value) (starlark.Value, error) {
	t.Helper()
	return starlark.Call(&starlark.Thread{Name: t.Name()}, fn, starlark.Tuple(args), nil)
}

func TestMatchResults(t *testing.T) {
	got, err := call(t, Module.Members["match"], starlark.String("(x)|(y)"), starlark.String("y"))
	if err != nil {
		t.Fatal(err)
	}
	want := starlark.NewList([]starlark.Value{starlark.String("y"), starlark.None, starlark.String("y")})
	if eq, _ := starlark.Equal(got, want); !eq {
		t.Errorf("match = %s, want %s", got, want)
	}

	got, err = call(t, Module.Members["match_positions"], starlark.String("b(.)"), starlark.String("aéb€c"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("[(2, 4), (3, 4)]", got.String()); diff != "" {
		t.Errorf("match_positions mismatch (-want +got):\n%s", diff)
	}

	got, err = call(t, Module.Members["match"], starlark.String("z"), starlark.String("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if got != starlark.None {
		t.Errorf("match without a match = %s, want None", got)
	}
}

func TestArgumentErrors(t *testing.T) {
	for _, test := range []struct {
		fn   string
		args starlark.Tuple
		want string
	}{
		{"compile", starlark.Tuple{starlark.MakeInt(1)}, "compile: bad string 1"},
		{"match", starlark.Tuple{starlark.MakeInt(1), starlark.String("a")}, "match: bad compiled regexp 1"},
		{"match", starlark.Tuple{starlark.String("a"), starlark.None}, "match: bad string None"},
		{"match_positions", starlark.Tuple{starlark.True, starlark.String("a")}, "match_positions: bad compiled regexp True"},
		{"quote", starlark.Tuple{starlark.MakeInt(2)}, "quote: bad string 2"},
	} {
		_, err := call(t, Module.Members[test.fn], test.args...)
		if err == nil {
			t.Errorf("%s%s succeeded, want error %q", test.fn, test.args, test.want)
			continue
		}
		if err.Error() != test.want {
			t.Errorf("%s%s: got error %q, want %q", test.fn, test.args, err, test.want)
		}
		if !errors.Is(err, regex.ErrInvalidArgument) {
			t.Errorf("%s%s: error %v does not wrap ErrInvalidArgument", test.fn, test.args, err)
		}
	}
}

func TestCompileError(t *testing.T) {
	_, err := call(t, Module.Members["compile"], starlark.String("(abc"))
	var cerr *regex.CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("compile: got error %v, want *regex.CompileError", err)
	}
	if cerr.Pattern != "(abc" {
		t.Errorf("CompileError.Pattern = %q, want %q", cerr.Pattern, "(abc")
	}
}

func TestNewModuleOptions(t *testing.T) {
	m := NewModule(regex.Options{Engine: "pcre", IgnoreCase: true})
	if got := m.Members["ENGINE"]; got != starlark.String("pcre") {
		t.Errorf("ENGINE = %s, want \"pcre\"", got)
	}
	v, err := call(t, m.Members["compile"], starlark.String("ABC"))
	if err != nil {
		t.Fatal(err)
	}
	r := v.(*Regexp)
	defer r.Pattern().Close()
	if r.Pattern().Engine() != "pcre" {
		t.Errorf("engine = %q, want pcre", r.Pattern().Engine())
	}
	spans, err := r.Pattern().MatchPositions("xabcx")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]regex.Span{{Start: 1, End: 4}}, spans); diff != "" {
		t.Errorf("case-insensitive match mismatch (-want +got):\n%s", diff)
	}

	_, err = call(t, NewModule(regex.Options{Engine: "awk"}).Members["compile"], starlark.String("a"))
	if !errors.Is(err, regex.ErrInvalidArgument) {
		t.Errorf("compile with unknown engine: got %v, want ErrInvalidArgument", err)
	}
}

func TestLoadModule(t *testing.T) {
	globals, err := LoadModule()
	if err != nil {
		t.Fatal(err)
	}
	if globals[ModuleName] != Module {
		t.Errorf("LoadModule()[%q] is not Module", ModuleName)
	}
}
