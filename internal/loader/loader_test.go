package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crisp/internal/builtins"
	"crisp/internal/evaluator"
	"crisp/internal/value"
)

func newTestEvaluator() *evaluator.Evaluator {
	env := value.NewEnvironment()
	builtins.Register(env)
	return evaluator.New(env)
}

const fibonacciSrc = `(defun fibonacci [n]
	(if (= n 0) 0
		(if (= n 1) 1
			(+ (fibonacci (- n 1)) (fibonacci (- n 2))))))
`

func TestEvalFile(t *testing.T) {
	ev := newTestEvaluator()

	path := filepath.Join(t.TempDir(), "fibonacci.cr")
	if err := os.WriteFile(path, []byte(fibonacciSrc), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := EvalFile(ev, path); err != nil {
		t.Fatalf("EvalFile: %v", err)
	}

	result, err := EvalString(ev, "(fibonacci 5)")
	if err != nil {
		t.Fatalf("(fibonacci 5): %v", err)
	}
	if n := result.(*value.Integer); n.Value != 5 {
		t.Errorf("(fibonacci 5) = %d, want 5", n.Value)
	}
}

func TestEvalBufferSequencesForms(t *testing.T) {
	ev := newTestEvaluator()

	result, err := EvalBuffer(ev, "(set 'a 1)\n(set 'b 2)\n(+ a b)")
	if err != nil {
		t.Fatalf("EvalBuffer: %v", err)
	}
	if n := result.(*value.Integer); n.Value != 3 {
		t.Errorf("buffer result = %d, want 3", n.Value)
	}
}

func TestEvalBufferEmptyInput(t *testing.T) {
	ev := newTestEvaluator()
	result, err := EvalBuffer(ev, "")
	if err != nil {
		t.Fatalf("EvalBuffer(\"\"): %v", err)
	}
	if result != value.NIL {
		t.Errorf("empty buffer = %s, want nil", result.Inspect())
	}
}

func TestEvalBufferAbortsOnFirstError(t *testing.T) {
	ev := newTestEvaluator()

	_, err := EvalBuffer(ev, "(set 'a 1)\n(no-such-fn)\n(set 'b 2)")
	var fnVoid *value.VoidFunctionError
	if !errors.As(err, &fnVoid) {
		t.Fatalf("error = %v, want void function", err)
	}
	// Forms after the failure never ran.
	if _, err := EvalString(ev, "b"); err == nil {
		t.Error("b was bound despite the earlier failure")
	}
}

func TestEvalStringWrapsParseFailures(t *testing.T) {
	ev := newTestEvaluator()
	_, err := EvalString(ev, "(+ 1")
	if err == nil || !strings.Contains(err.Error(), "parse failed") {
		t.Errorf("error = %v, want wrapped parse failure", err)
	}
}

func TestEvalFileReadFailure(t *testing.T) {
	ev := newTestEvaluator()
	path := filepath.Join(t.TempDir(), "missing.cr")

	_, err := EvalFile(ev, path)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("error = %v, want wrapped fs.ErrNotExist", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the path", err)
	}
}

func TestEvalReader(t *testing.T) {
	ev := newTestEvaluator()
	result, err := EvalReader(ev, strings.NewReader("(* 6 7)"))
	if err != nil {
		t.Fatalf("EvalReader: %v", err)
	}
	if n := result.(*value.Integer); n.Value != 42 {
		t.Errorf("EvalReader = %d, want 42", n.Value)
	}
}
