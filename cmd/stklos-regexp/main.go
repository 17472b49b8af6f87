// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The stklos-regexp command interprets a Starlark file with the regexp
// module predeclared. With no arguments it starts a read-eval-print loop
// (REPL) when standard input is a terminal, and otherwise executes the
// program read from standard input.
//
// With --match it instead behaves like grep, printing the match of a
// pattern against each line of the named files:
//
//	stklos-regexp --match '(\w+)@(\w+)' [--positions] [--json] [FILE...]
package main // import "github.com/Retropikzel/STklos/cmd/stklos-regexp"

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	flag "github.com/spf13/pflag"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"golang.org/x/term"

	"github.com/Retropikzel/STklos/internal/config"
	"github.com/Retropikzel/STklos/lib/regexp"
	"github.com/Retropikzel/STklos/regex"
	"github.com/Retropikzel/STklos/repl"
)

// flags
var (
	cpuprofile = flag.String("cpuprofile", "", "gather Go CPU profile in this file")
	memprofile = flag.String("memprofile", "", "gather Go memory profile in this file")
	profile    = flag.String("profile", "", "gather Starlark time profile in this file")
	showenv    = flag.Bool("showenv", false, "on success, print final global environment")
	execprog   = flag.StringP("command", "c", "", "execute program `prog`")
	configFile = flag.String("config", "", "read settings from this YAML `file`")

	engineName  = flag.String("engine", regex.DefaultEngine, "regexp engine: "+strings.Join(regex.Engines(), " or "))
	timeout     = flag.Duration("timeout", 0, "abandon a match after this long (pcre engine only)")
	ignoreCase  = flag.BoolP("ignore-case", "i", false, "compile patterns case-insensitively")
	matchPat    = flag.StringP("match", "e", "", "print the match of `pattern` against each input line")
	positions   = flag.Bool("positions", false, "with --match, print character positions instead of text")
	jsonOutput  = flag.Bool("json", false, "with --match, print one JSON object per matching line")
	historyFile = flag.String("history", "", "REPL history `file`")
)

func init() {
	// non-standard dialect flags
	flag.BoolVar(&resolve.AllowSet, "set", resolve.AllowSet, "allow set data type")
	flag.BoolVar(&resolve.AllowRecursion, "recursion", resolve.AllowRecursion, "allow while statements and recursive functions")
	flag.BoolVar(&resolve.AllowGlobalReassign, "globalreassign", resolve.AllowGlobalReassign, "allow reassignment of globals, and if/for/while statements at top level")
}

func main() {
	os.Exit(doMain())
}

func doMain() int {
	log.SetPrefix("stklos-regexp: ")
	log.SetFlags(0)
	flag.Parse()

	// Release every compiled program still held when the command exits.
	defer regex.Shutdown()

	cfg, err := loadConfig()
	if err != nil {
		log.Print(err)
		return 2
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		check(err)
		err = pprof.StartCPUProfile(f)
		check(err)
		defer func() {
			pprof.StopCPUProfile()
			err := f.Close()
			check(err)
		}()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		check(err)
		defer func() {
			runtime.GC()
			err := pprof.Lookup("heap").WriteTo(f, 0)
			check(err)
			err = f.Close()
			check(err)
		}()
	}

	if *profile != "" {
		f, err := os.Create(*profile)
		check(err)
		err = starlark.StartProfile(f)
		check(err)
		defer func() {
			err := starlark.StopProfile()
			check(err)
		}()
	}

	if flag.CommandLine.Changed("match") {
		return grepMain(cfg, *matchPat, flag.Args(), os.Stdout)
	}

	module := regexp.NewModule(cfg.Options())
	predeclared := starlark.StringDict{regexp.ModuleName: module}
	if cfg.PredeclareQuote {
		predeclared["quote"] = module.Members["quote"]
	}
	builtins := map[string]func() (starlark.StringDict, error){
		regexp.ModuleName: func() (starlark.StringDict, error) {
			return starlark.StringDict{regexp.ModuleName: module}, nil
		},
	}

	thread := &starlark.Thread{Load: repl.MakeLoad(builtins, predeclared)}
	globals := make(starlark.StringDict)

	switch {
	case flag.NArg() == 1 || *execprog != "":
		var (
			filename string
			src      interface{}
		)
		if *execprog != "" {
			// Execute provided program.
			filename = "cmdline"
			src = *execprog
		} else {
			// Execute specified file.
			filename = flag.Arg(0)
		}
		thread.Name = "exec " + filename
		globals, err = starlark.ExecFile(thread, filename, src, predeclared)
		if err != nil {
			repl.PrintError(err)
			return 1
		}
	case flag.NArg() == 0 && term.IsTerminal(int(os.Stdin.Fd())):
		fmt.Printf("Welcome to stklos-regexp (engine %s)\n", cfg.Engine)
		thread.Name = "REPL"
		repl.REPL(thread, globals, repl.Config{
			HistoryFile: cfg.HistoryFile,
			Predeclared: predeclared,
		})
	case flag.NArg() == 0:
		src, err := io.ReadAll(os.Stdin)
		check(err)
		thread.Name = "exec <stdin>"
		globals, err = starlark.ExecFile(thread, "<stdin>", src, predeclared)
		if err != nil {
			repl.PrintError(err)
			return 1
		}
	default:
		log.Print("want at most one Starlark file name")
		return 1
	}

	// Print the global environment.
	if *showenv {
		for _, name := range globals.Keys() {
			if !strings.HasPrefix(name, "_") {
				fmt.Fprintf(os.Stderr, "%s = %s\n", name, globals[name])
			}
		}
	}

	return 0
}

// loadConfig reads the configuration file and applies the flags that
// were set on the command line over it.
func loadConfig() (*config.Config, error) {
	path := config.Path()
	if *configFile != "" {
		path = *configFile
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	fs := flag.CommandLine
	if fs.Changed("engine") {
		cfg.Engine = *engineName
	}
	if fs.Changed("timeout") {
		cfg.MatchTimeout = *timeout
	}
	if fs.Changed("ignore-case") {
		cfg.IgnoreCase = *ignoreCase
	}
	if fs.Changed("history") {
		cfg.HistoryFile = *historyFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
