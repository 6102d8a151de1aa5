package runner

import (
	"testing"

	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/interpreter"
	"github.com/eddmann/santa-lang-prancer/pkg/parser"
)

func parseProgram(t *testing.T, source string) *ast.Program {
	t.Helper()
	p, err := parser.New(source)
	if err != nil {
		t.Fatalf("parser.New(%q): %v", source, err)
	}
	program, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("ParseProgram(%q): %v", source, err)
	}
	return program
}

func TestSolveScriptMode(t *testing.T) {
	prog := parseProgram(t, `1 + 2 * 3`)
	result := Solve(prog, interpreter.NewGlobalEnvironment())
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !result.IsScript {
		t.Fatalf("expected a section-less program to run in script mode")
	}
	if len(result.Parts) != 1 || result.Parts[0].Value != "7" {
		t.Fatalf("expected a single script part with value 7, got %+v", result.Parts)
	}
}

func TestSolvePartOnePartTwoMode(t *testing.T) {
	src := `
		input: "3"
		part_one: { int(input) * 2 }
		part_two: { int(input) * 3 }
	`
	prog := parseProgram(t, src)
	result := Solve(prog, interpreter.NewGlobalEnvironment())
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.IsScript {
		t.Fatalf("expected a program declaring part_one/part_two to not run as a script")
	}
	if len(result.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d: %+v", len(result.Parts), result.Parts)
	}
	if result.Parts[0].Name != "part_one" || result.Parts[0].Value != "6" {
		t.Fatalf("expected part_one => 6, got %+v", result.Parts[0])
	}
	if result.Parts[1].Name != "part_two" || result.Parts[1].Value != "9" {
		t.Fatalf("expected part_two => 9, got %+v", result.Parts[1])
	}
}

func TestSolveReportsRuntimeErrorAsErrNotPart(t *testing.T) {
	prog := parseProgram(t, `1 / 0`)
	result := Solve(prog, interpreter.NewGlobalEnvironment())
	if result.Err == nil {
		t.Fatalf("expected a runtime error to be reported")
	}
	if len(result.Parts) != 0 {
		t.Fatalf("expected no parts when the script itself errors, got %+v", result.Parts)
	}
}

func TestTestSectionsPassAndFail(t *testing.T) {
	src := `
		part_one: { input * 2 }
		test: { #{"input": 3, "part_one": 6} }
		test: { #{"input": 3, "part_one": 7} }
	`
	prog := parseProgram(t, src)
	result := Test(prog, interpreter.NewGlobalEnvironment(), false)
	if result.Err != nil {
		t.Fatalf("unexpected registration error: %v", result.Err)
	}
	if len(result.Tests) != 2 {
		t.Fatalf("expected 2 test results, got %d", len(result.Tests))
	}
	if !result.Tests[0].Passed {
		t.Fatalf("expected the first test (6 == 6) to pass, got message %q", result.Tests[0].Message)
	}
	if result.Tests[1].Passed {
		t.Fatalf("expected the second test (7 != 6) to fail")
	}
}

func TestSlowTestSkippedUnlessRunSlowRequested(t *testing.T) {
	src := `
		part_one: { input }
		@slow test: { #{"input": 1, "part_one": 1} }
	`
	prog := parseProgram(t, src)

	skipped := Test(prog, interpreter.NewGlobalEnvironment(), false)
	if len(skipped.Tests) != 1 || !skipped.Tests[0].Skipped {
		t.Fatalf("expected the slow test to be skipped by default, got %+v", skipped.Tests)
	}

	ran := Test(prog, interpreter.NewGlobalEnvironment(), true)
	if len(ran.Tests) != 1 || ran.Tests[0].Skipped {
		t.Fatalf("expected the slow test to run when runSlow is set, got %+v", ran.Tests)
	}
	if !ran.Tests[0].Passed {
		t.Fatalf("expected the slow test to pass once run, got message %q", ran.Tests[0].Message)
	}
}

func TestTestRegistrationFailureSetsErrNotAFailedTest(t *testing.T) {
	prog := parseProgram(t, `1 / 0; part_one: { input }`)
	result := Test(prog, interpreter.NewGlobalEnvironment(), false)
	if result.Err == nil {
		t.Fatalf("expected a top-level registration error to be reported via Err")
	}
	if len(result.Tests) != 0 {
		t.Fatalf("expected no test entries when registration itself fails, got %+v", result.Tests)
	}
}
