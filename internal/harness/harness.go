package harness

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/cuecontext"

	"github.com/wirecue/wirecue/internal/compiler"
	"github.com/wirecue/wirecue/internal/emit"
	"github.com/wirecue/wirecue/internal/source"
)

// Result is the outcome of one scenario execution.
type Result struct {
	// Pass reports whether every expectation held.
	Pass bool

	// Failures lists the expectations that did not hold.
	Failures []string

	// Code is the diagnostic code the pipeline failed with, "" on
	// success or for errors carrying no code.
	Code string

	// Routine is the lowered registration routine, nil when the
	// pipeline failed.
	Routine *emit.Routine

	// Source is the rendered Go file, nil when the pipeline failed.
	Source []byte
}

func (r *Result) fail(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run feeds the scenario's manifest through the full pipeline and
// evaluates its expectations. Infrastructure problems return an error;
// expectation mismatches come back in the result.
func Run(scenario *Scenario) (*Result, error) {
	result := &Result{Pass: true}

	routine, src, err := generate(scenario.Manifest)
	if err != nil {
		result.Code = diagnosticCode(err)
		switch {
		case scenario.Error == "":
			result.fail("pipeline failed: %v", err)
		case result.Code != scenario.Error:
			result.fail("expected diagnostic %s, got: %v", scenario.Error, err)
		}
		return result, nil
	}

	if scenario.Error != "" {
		result.fail("expected diagnostic %s, pipeline succeeded", scenario.Error)
		return result, nil
	}

	result.Routine = routine
	result.Source = src
	evaluate(scenario.Expect, result)
	return result, nil
}

// generate compiles the inline manifest and lowers it down to rendered
// Go source, the same path the generate command takes.
func generate(manifest string) (*emit.Routine, []byte, error) {
	v := cuecontext.New().CompileString(manifest)
	if err := v.Err(); err != nil {
		return nil, nil, &source.LoadError{
			Code:    source.ErrCodeBuildFailed,
			Message: fmt.Sprintf("building CUE value: %v", err),
		}
	}

	raws, err := source.FromValue(v)
	if err != nil {
		return nil, nil, err
	}

	compiled, err := compiler.Generate(source.SliceSource(raws))
	if err != nil {
		return nil, nil, err
	}

	routine, err := emit.EmitPlan(compiled.Plan)
	if err != nil {
		return nil, nil, err
	}

	src, err := emit.RenderGo(routine, emit.RenderOptions{})
	if err != nil {
		return nil, nil, err
	}
	return routine, src, nil
}

// evaluate checks the routine against the expect clause.
func evaluate(expect *ExpectClause, result *Result) {
	if expect == nil {
		return
	}

	if result.Routine.Async != expect.Async {
		result.fail("async: expected %v, got %v", expect.Async, result.Routine.Async)
	}

	got := statementNames(&result.Routine.Unconditional)
	if !equalStrings(got, expect.Unconditional) {
		result.fail("unconditional statements: expected %v, got %v", expect.Unconditional, got)
	}

	if len(result.Routine.Envs) != len(expect.Environments) {
		result.fail("environment blocks: expected %d, got %d", len(expect.Environments), len(result.Routine.Envs))
		return
	}
	for i, env := range expect.Environments {
		block := &result.Routine.Envs[i]
		if block.Label != env.Label {
			result.fail("environment[%d]: expected label %q, got %q", i, env.Label, block.Label)
			continue
		}
		got := statementNames(block)
		if !equalStrings(got, env.Statements) {
			result.fail("environment %q statements: expected %v, got %v", env.Label, env.Statements, got)
		}
	}
}

// statementNames lists the declaration names of a block in statement
// order.
func statementNames(block *emit.Block) []string {
	names := make([]string, len(block.Actions))
	for i := range block.Actions {
		names[i] = block.Actions[i].Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diagnosticCode extracts the stable diagnostic code of a pipeline
// error, "" when the error carries none.
func diagnosticCode(err error) string {
	var verr *compiler.ValidationError
	if errors.As(err, &verr) {
		return verr.Kind.Code()
	}
	var cerr *compiler.CycleError
	if errors.As(err, &cerr) {
		return compiler.ErrCodeCycle
	}
	var lerr *source.LoadError
	if errors.As(err, &lerr) {
		return lerr.Code
	}
	return ""
}
