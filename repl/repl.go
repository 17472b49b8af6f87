// Package repl provides a read/eval/print loop for experimenting with
// the regexp module.
//
// It supports readline-style command editing, a persistent history
// file, and interrupts through Control-C.
//
// If an input line can be parsed as an expression,
// the REPL parses and evaluates it and prints its result.
// Otherwise the REPL reads lines until a blank line,
// then tries again to parse the multi-line input as an
// expression. If the input still cannot be parsed as an expression,
// the REPL parses and executes it as a file (a list of statements),
// for side effects.
package repl // import "github.com/Retropikzel/STklos/repl"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/chzyer/readline"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var interrupted = make(chan os.Signal, 1)

// Config controls a REPL session.
type Config struct {
	// HistoryFile, if set, is where input lines are saved between sessions.
	HistoryFile string

	// Predeclared holds the names visible to every input, typically the
	// regexp module. They are copied into the session's globals.
	Predeclared starlark.StringDict
}

// REPL executes a read, eval, print loop.
//
// Before evaluating each expression, it sets the Starlark thread local
// variable named "context" to a context.Context that is cancelled by a
// SIGINT (Control-C).
func REPL(thread *starlark.Thread, globals starlark.StringDict, cfg Config) {
	signal.Notify(interrupted, os.Interrupt)
	defer signal.Stop(interrupted)

	for name, v := range cfg.Predeclared {
		if _, ok := globals[name]; !ok {
			globals[name] = v
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
	})
	if err != nil {
		PrintError(err)
		return
	}
	defer rl.Close()
	for {
		if err := rep(rl, thread, globals); err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println(err)
				continue
			}
			break
		}
	}
	fmt.Println()
}

// rep reads, evaluates, and prints one item.
//
// It returns an error (possibly readline.ErrInterrupt)
// only if readline failed. Starlark errors are printed.
func rep(rl *readline.Instance, thread *starlark.Thread, globals starlark.StringDict) error {
	// Control-C during Readline returns ErrInterrupt without a SIGINT.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-interrupted:
			cancel()
		case <-ctx.Done():
		}
	}()

	thread.SetLocal("context", ctx)

	eof := false

	// readline returns EOF, ErrInterrupted, or a line including "\n".
	rl.SetPrompt(">>> ")
	readline := func() ([]byte, error) {
		line, err := rl.Readline()
		rl.SetPrompt("... ")
		if err != nil {
			if err == io.EOF {
				eof = true
			}
			return nil, err
		}
		return []byte(line + "\n"), nil
	}

	f, err := syntax.ParseCompoundStmt("<stdin>", readline)
	if err != nil {
		if eof {
			return io.EOF
		}
		PrintError(err)
		return nil
	}
	eval(thread, f, globals, os.Stdout)
	return nil
}

// eval evaluates one parsed input. The value of a sole expression other
// than None is printed to out; Starlark errors are printed to stderr.
func eval(thread *starlark.Thread, f *syntax.File, globals starlark.StringDict, out io.Writer) {
	// Treat load bindings as global in the REPL.
	defer func(prev bool) { resolve.LoadBindsGlobally = prev }(resolve.LoadBindsGlobally)
	resolve.LoadBindsGlobally = true

	if expr := soleExpr(f); expr != nil {
		v, err := starlark.EvalExpr(thread, expr, globals)
		if err != nil {
			PrintError(err)
			return
		}
		if v != starlark.None {
			fmt.Fprintln(out, v)
		}
	} else if err := starlark.ExecREPLChunk(f, thread, globals); err != nil {
		PrintError(err)
	}
}

func soleExpr(f *syntax.File) syntax.Expr {
	if len(f.Stmts) == 1 {
		if stmt, ok := f.Stmts[0].(*syntax.ExprStmt); ok {
			return stmt.X
		}
	}
	return nil
}

// PrintError prints the error to stderr,
// or its backtrace if it is a Starlark evaluation error.
func PrintError(err error) {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		fmt.Fprintln(os.Stderr, evalErr.Backtrace())
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
}

// MakeLoad returns a simple sequential implementation of module loading.
// A module name found in builtins is served from it; any other name is
// read as a Starlark file executed with predeclared in scope.
// Each function returned by MakeLoad accesses a distinct private cache.
func MakeLoad(builtins map[string]func() (starlark.StringDict, error), predeclared starlark.StringDict) func(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	type entry struct {
		globals starlark.StringDict
		err     error
	}

	var cache = make(map[string]*entry)

	return func(thread *starlark.Thread, module string) (starlark.StringDict, error) {
		e, ok := cache[module]
		if e == nil {
			if ok {
				// request for package whose loading is in progress
				return nil, fmt.Errorf("cycle in load graph")
			}

			// Add a placeholder to indicate "load in progress".
			cache[module] = nil

			if load, ok := builtins[module]; ok {
				globals, err := load()
				e = &entry{globals, err}
			} else {
				thread := &starlark.Thread{Name: "exec " + module, Load: thread.Load}
				globals, err := starlark.ExecFile(thread, module, nil, predeclared)
				e = &entry{globals, err}
			}

			cache[module] = e
		}
		return e.globals, e.err
	}
}
