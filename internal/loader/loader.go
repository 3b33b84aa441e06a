// Package loader feeds source text to the evaluator. File and stdin input
// may hold several top-level forms, so it is wrapped in an implicit
// (progn ...) before parsing; the core itself never splits forms.
package loader

import (
	"fmt"
	"io"
	"os"

	"crisp/internal/evaluator"
	"crisp/internal/parser"
	"crisp/internal/value"
)

// EvalString parses and evaluates exactly one form.
func EvalString(ev *evaluator.Evaluator, src string) (value.Value, error) {
	parsed, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return ev.Eval(parsed)
}

// EvalBuffer evaluates multi-form source as one sequential program.
func EvalBuffer(ev *evaluator.Evaluator, src string) (value.Value, error) {
	return EvalString(ev, "(progn "+src+"\n)")
}

func EvalFile(ev *evaluator.Evaluator, path string) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return EvalBuffer(ev, string(data))
}

func EvalReader(ev *evaluator.Evaluator, r io.Reader) (value.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return EvalBuffer(ev, string(data))
}

func EvalStdin(ev *evaluator.Evaluator) (value.Value, error) {
	return EvalReader(ev, os.Stdin)
}
