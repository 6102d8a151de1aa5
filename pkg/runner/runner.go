// Package runner drives a parsed program's sections (input, part_one,
// part_two, test) the way the source material's solution runner does:
// registering sections by evaluating the top-level statement list once,
// then sequencing, timing, and packaging each relevant section's result.
package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/interpreter"
	"github.com/eddmann/santa-lang-prancer/pkg/runtime"
)

// Part is one named section's evaluated result.
type Part struct {
	Name       string
	Value      string
	DurationMS int64
}

// SolveResult is the result of running a source in solve mode.
type SolveResult struct {
	RunID    string
	IsScript bool
	Parts    []Part
	Err      *runtime.Error
}

// TestCase is one evaluated (or skipped) `test` section's outcome.
type TestCase struct {
	Index      int
	Slow       bool
	Skipped    bool
	Passed     bool
	Message    string
	DurationMS int64
}

// TestResult is the result of running a source's test sections. Err is
// only set when registering the program's top-level statements itself
// failed (a parse-adjacent runtime error, §6 exit code 2) — distinct from
// individual test failures, which are reported per-Test (exit code 3).
type TestResult struct {
	RunID string
	Tests []TestCase
	Err   *runtime.Error
}

// registerTopLevel evaluates every top-level statement exactly once,
// which runs let-bindings for their side effect on env, registers every
// section declaration (including @slow-annotated ones) in env's section
// registry, and (for a script with no sections at all) produces the
// program's overall value. It stops and returns the first evaluator
// error encountered.
func registerTopLevel(program *ast.Program, env *runtime.Environment) (runtime.Value, *runtime.Error) {
	var last runtime.Value = runtime.Nil
	for _, stmt := range program.Statements {
		result := interpreter.Eval(stmt, env)
		if err, ok := result.(*runtime.Error); ok {
			return nil, err
		}
		last = result
	}
	return last, nil
}

// declaresSection statically scans a program's top-level statement list
// for a Section declaration named name, unwrapping any @annotation, the
// way §4.8 describes the runner doing before it decides solve vs. script
// mode — done before evaluation so a script's timing window covers the
// whole run rather than being split by a discovery pass.
func declaresSection(program *ast.Program, name string) bool {
	for _, stmt := range program.Statements {
		s := stmt
		if ann, ok := s.(*ast.AnnotatedStatement); ok {
			s = ann.Stmt
		}
		if sec, ok := s.(*ast.SectionStatement); ok && sec.Name == name {
			return true
		}
	}
	return false
}

// Solve runs a program in solve mode: if the program declares neither
// part_one nor part_two it is a script, evaluated as a plain sequence
// whose last value is the result; otherwise input is bound once and each
// of part_one/part_two is timed and evaluated against it.
func Solve(program *ast.Program, env *runtime.Environment) *SolveResult {
	result := &SolveResult{RunID: uuid.New().String()}

	result.IsScript = !declaresSection(program, "part_one") && !declaresSection(program, "part_two")
	if result.IsScript {
		start := time.Now()
		last, err := registerTopLevel(program, env)
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			result.Err = err
			return result
		}
		result.Parts = []Part{{Name: "script", Value: last.Inspect(), DurationMS: elapsed}}
		return result
	}

	if _, err := registerTopLevel(program, env); err != nil {
		result.Err = err
		return result
	}
	partOne, hasPartOne := env.LastSection("part_one")
	partTwo, hasPartTwo := env.LastSection("part_two")

	inputVal := runtime.Value(runtime.Nil)
	if inputSection, ok := env.LastSection("input"); ok {
		v := interpreter.Eval(inputSection.Body, env.NewChild())
		if err, ok := v.(*runtime.Error); ok {
			result.Err = err
			return result
		}
		inputVal = v
	}

	for _, part := range []struct {
		name string
		sec  *runtime.Section
		has  bool
	}{
		{"part_one", partOne, hasPartOne},
		{"part_two", partTwo, hasPartTwo},
	} {
		if !part.has {
			continue
		}
		scope := env.NewChild()
		scope.Declare("input", inputVal, false)
		start := time.Now()
		v := interpreter.Eval(part.sec.Body, scope)
		elapsed := time.Since(start).Milliseconds()
		if err, ok := v.(*runtime.Error); ok {
			result.Err = err
			return result
		}
		result.Parts = append(result.Parts, Part{Name: part.name, Value: v.Inspect(), DurationMS: elapsed})
	}
	return result
}

// Test runs every `test` section declared in the program against the
// enclosing part_one/part_two sections. A test section must evaluate to a
// Dict carrying at least `input`, plus whichever of `part_one`/`part_two`
// expectations it wants checked. runSlow controls whether @slow-annotated
// tests actually execute or are reported as skipped.
func Test(program *ast.Program, env *runtime.Environment, runSlow bool) *TestResult {
	result := &TestResult{RunID: uuid.New().String()}

	if _, err := registerTopLevel(program, env); err != nil {
		result.Err = err
		return result
	}

	partOne, hasPartOne := env.LastSection("part_one")
	partTwo, hasPartTwo := env.LastSection("part_two")
	tests := env.GetSections("test")

	for i, t := range tests {
		tr := TestCase{Index: i, Slow: t.Slow}
		if t.Slow && !runSlow {
			tr.Skipped = true
			result.Tests = append(result.Tests, tr)
			continue
		}

		start := time.Now()
		caseScope := env.NewChild()
		caseVal := interpreter.Eval(t.Body, caseScope)
		if err, ok := caseVal.(*runtime.Error); ok {
			tr.Message = err.Message()
			result.Tests = append(result.Tests, tr)
			continue
		}
		cases, ok := caseVal.(*runtime.Dict)
		if !ok {
			tr.Message = "test section must evaluate to a Dict"
			result.Tests = append(result.Tests, tr)
			continue
		}

		inputVal, _ := cases.Get(runtime.NewString("input"))
		if inputVal == nil {
			inputVal = runtime.Nil
		}

		passed := true
		var messages []string
		for _, part := range []struct {
			name string
			sec  *runtime.Section
			has  bool
		}{
			{"part_one", partOne, hasPartOne},
			{"part_two", partTwo, hasPartTwo},
		} {
			expected, hasExpected := cases.Get(runtime.NewString(part.name))
			if !part.has || !hasExpected {
				continue
			}
			scope := env.NewChild()
			scope.Declare("input", inputVal, false)
			actual := interpreter.Eval(part.sec.Body, scope)
			if err, ok := actual.(*runtime.Error); ok {
				passed = false
				messages = append(messages, err.Message())
				continue
			}
			if actual.Inspect() != expected.Inspect() {
				passed = false
				messages = append(messages, part.name+": expected "+expected.Inspect()+", got "+actual.Inspect())
			}
		}

		tr.Passed = passed
		tr.DurationMS = time.Since(start).Milliseconds()
		if len(messages) > 0 {
			tr.Message = messages[0]
		}
		result.Tests = append(result.Tests, tr)
	}
	return result
}
