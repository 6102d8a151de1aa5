// Command prancer is a minimal CLI boundary exercising the core
// lexer/parser/interpreter/runner pipeline end to end: solve mode, test
// mode, and inline source via -e. It deliberately does not implement the
// fuller front-end (colour, JSON/JSONL, REPL) left to the enclosing
// collaborator.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/eddmann/santa-lang-prancer/pkg/driver"
	"github.com/eddmann/santa-lang-prancer/pkg/interpreter"
	"github.com/eddmann/santa-lang-prancer/pkg/iohandle"
	"github.com/eddmann/santa-lang-prancer/pkg/parser"
	"github.com/eddmann/santa-lang-prancer/pkg/runner"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("prancer", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	inline := fs.String("e", "", "evaluate inline source instead of a file")
	testMode := fs.Bool("test", false, "run test sections instead of solving")
	runSlow := fs.Bool("slow", false, "also run @slow-annotated test sections")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	var source string
	if *inline != "" {
		source = *inline
	} else {
		rest := fs.Args()
		if len(rest) != 1 {
			fmt.Fprintln(os.Stderr, "usage: prancer [-test] [-slow] (-e SOURCE | FILE)")
			return 1
		}
		data, err := os.ReadFile(rest[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		source = string(data)
	}

	cfg, err := driver.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	p, err := parser.New(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	program, err := p.ParseProgram()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	env := interpreter.NewGlobalEnvironment()
	env.SetIO(iohandle.New(cfg.CacheDir, cfg.AocSession))

	history, histErr := runner.LoadHistory(cfg.CacheDir)
	if histErr != nil {
		fmt.Fprintf(os.Stderr, "warning: run history unavailable: %v\n", histErr)
	}

	if *testMode {
		result := runner.Test(program, env, *runSlow || cfg.RunSlow)
		if history != nil {
			if err := history.Record(runner.RunFromTest(result, time.Now())); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to record run history: %v\n", err)
			}
		}
		return reportTest(result)
	}

	result := runner.Solve(program, env)
	if history != nil {
		if err := history.Record(runner.RunFromSolve(result, time.Now())); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to record run history: %v\n", err)
		}
	}
	return reportSolve(result)
}

func reportSolve(result *runner.SolveResult) int {
	if result.Err != nil {
		fmt.Fprintf(os.Stderr, "%s at %d:%d: %s\n", result.Err.ErrKind, result.Err.Line(), result.Err.Column(), result.Err.Message())
		return 2
	}
	for _, part := range result.Parts {
		fmt.Printf("%s: %s (%dms)\n", part.Name, part.Value, part.DurationMS)
	}
	return 0
}

func reportTest(result *runner.TestResult) int {
	if result.Err != nil {
		fmt.Fprintf(os.Stderr, "%s at %d:%d: %s\n", result.Err.ErrKind, result.Err.Line(), result.Err.Column(), result.Err.Message())
		return 2
	}
	failed := false
	for _, t := range result.Tests {
		switch {
		case t.Skipped:
			fmt.Printf("test[%d]: skipped (slow)\n", t.Index)
		case t.Passed:
			fmt.Printf("test[%d]: ok (%dms)\n", t.Index, t.DurationMS)
		default:
			failed = true
			fmt.Printf("test[%d]: FAILED %s\n", t.Index, t.Message)
		}
	}
	if failed {
		return 3
	}
	return 0
}
