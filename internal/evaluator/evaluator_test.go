package evaluator

import (
	"errors"
	"testing"

	"crisp/internal/builtins"
	"crisp/internal/parser"
	"crisp/internal/value"
)

func newTestEvaluator() *Evaluator {
	env := value.NewEnvironment()
	builtins.Register(env)
	return New(env)
}

func evalSrc(t *testing.T, ev *Evaluator, src string) value.Value {
	t.Helper()
	parsed, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	result, err := ev.Eval(parsed)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return result
}

func evalErr(t *testing.T, ev *Evaluator, src string) error {
	t.Helper()
	parsed, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	_, err = ev.Eval(parsed)
	if err == nil {
		t.Fatalf("eval %q succeeded, want error", src)
	}
	return err
}

func wantInteger(t *testing.T, ev *Evaluator, src string, want int32) {
	t.Helper()
	result := evalSrc(t, ev, src)
	n, ok := result.(*value.Integer)
	if !ok {
		t.Fatalf("eval %q = %s (%T), want integer %d", src, result.Inspect(), result, want)
	}
	if n.Value != want {
		t.Errorf("eval %q = %d, want %d", src, n.Value, want)
	}
}

func TestSelfEvaluatingAtomsAreIdempotent(t *testing.T) {
	ev := newTestEvaluator()

	for _, src := range []string{"42", `"meh"`, "t", "nil"} {
		first := evalSrc(t, ev, src)
		second, err := ev.Eval(first)
		if err != nil {
			t.Fatalf("re-eval of %q: %v", src, err)
		}
		if !value.Equals(first, second) {
			t.Errorf("%q is not idempotent: %s vs %s", src, first.Inspect(), second.Inspect())
		}
	}
}

func TestQuotingAlgebra(t *testing.T) {
	ev := newTestEvaluator()
	ev.Env().TopLevel().Put("the-answer", &value.Integer{Value: 42})
	ev.Env().TopLevel().Put("pointer", value.NewSymbol("the-answer"))

	// Unquoted: resolves to the bound value.
	wantInteger(t, ev, "the-answer", 42)

	// Single-quoted: the symbol itself, unevaluated.
	result := evalSrc(t, ev, "'the-answer")
	sym, ok := result.(*value.Symbol)
	if !ok || sym.Name != "the-answer" || sym.Quote != value.QuoteSingle {
		t.Errorf("eval 'the-answer = %s", result.Inspect())
	}

	// Eval-quoted: resolves, then evaluates the found value.
	wantInteger(t, ev, ",pointer", 42)
}

func TestArithmetic(t *testing.T) {
	ev := newTestEvaluator()

	tests := []struct {
		src  string
		want int32
	}{
		{"(+ 1 2 3)", 6},
		{"(+ 10 -5)", 5},
		{"(- 10)", -10},
		{"(- 10 3)", 7},
		{"(* 2 -2)", -4},
		{"(/ 10 2)", 5},
		{"(/ 5)", 5},
	}
	for _, tt := range tests {
		wantInteger(t, ev, tt.src, tt.want)
	}

	err := evalErr(t, ev, "(/ 1 0)")
	var argsErr *value.ArgsError
	if !errors.As(err, &argsErr) {
		t.Errorf("(/ 1 0) error = %v, want ArgsError", err)
	}

	err = evalErr(t, ev, `(+ 1 "two")`)
	if !errors.As(err, &argsErr) {
		t.Errorf("(+ 1 \"two\") error = %v, want ArgsError", err)
	}
}

func TestEquality(t *testing.T) {
	ev := newTestEvaluator()

	truthy := []string{"(= 1 1)", "(= 1 1 1)", `(= "a" "a")`, "(= 'a 'a)", "(/= 1 2)", "(= [1 2] [1 2])"}
	for _, src := range truthy {
		if result := evalSrc(t, ev, src); !value.IsTruthy(result) {
			t.Errorf("eval %q = %s, want t", src, result.Inspect())
		}
	}

	falsy := []string{"(= 1 2)", "(= 1 1 2)", `(= "a" "b")`, "(/= 1 1)", "(= 1 \"1\")"}
	for _, src := range falsy {
		if result := evalSrc(t, ev, src); value.IsTruthy(result) {
			t.Errorf("eval %q = %s, want nil", src, result.Inspect())
		}
	}
}

func TestIf(t *testing.T) {
	ev := newTestEvaluator()

	if result := evalSrc(t, ev, "(if nil 100)"); result != value.NIL {
		t.Errorf("(if nil 100) = %s", result.Inspect())
	}
	wantInteger(t, ev, "(if nil 1 2)", 2)
	wantInteger(t, ev, "(if t 1 0)", 1)
	// Integer 0 is truthy; only nil, empty list and empty string are false.
	wantInteger(t, ev, "(if 0 1 2)", 1)
	wantInteger(t, ev, `(if "" 1 2)`, 2)
	wantInteger(t, ev, "(if [] 1 2)", 2)
	wantInteger(t, ev, `(if "x" 1 2)`, 1)
	// Multi-form else is an implicit progn.
	wantInteger(t, ev, "(if nil 1 2 3 4)", 4)
}

func TestIfSkipsUntakenBranch(t *testing.T) {
	ev := newTestEvaluator()
	// The then-branch would fail if evaluated; the else path must not touch it.
	wantInteger(t, ev, "(if nil (no-such-fn) 7)", 7)
}

func TestWhen(t *testing.T) {
	ev := newTestEvaluator()
	wantInteger(t, ev, "(when t 1 2 3)", 3)
	if result := evalSrc(t, ev, "(when nil 1 2 3)"); result != value.NIL {
		t.Errorf("(when nil ...) = %s", result.Inspect())
	}
}

func TestWhile(t *testing.T) {
	ev := newTestEvaluator()
	evalSrc(t, ev, "(set 'i 0)")
	result := evalSrc(t, ev, "(while (/= i 5) (set 'i (+ i 1)))")
	if result != value.NIL {
		t.Errorf("while returned %s, want nil", result.Inspect())
	}
	wantInteger(t, ev, "i", 5)
}

func TestProgn(t *testing.T) {
	ev := newTestEvaluator()
	wantInteger(t, ev, "(progn 1 2 3 4 5)", 5)
	wantInteger(t, ev, "(progn (+ 1 2 3) (- 1 2 3))", -4)
	if result := evalSrc(t, ev, "(progn)"); result != value.NIL {
		t.Errorf("(progn) = %s", result.Inspect())
	}
}

func TestCarCdr(t *testing.T) {
	ev := newTestEvaluator()

	result := evalSrc(t, ev, `(car ['a 'b 'c 10 -10 "meh"])`)
	sym, ok := result.(*value.Symbol)
	if !ok || sym.Name != "a" || sym.Quote != value.QuoteSingle {
		t.Errorf("car = %s", result.Inspect())
	}

	result = evalSrc(t, ev, "(car [[10 20] [30 40]])")
	want := &value.List{Elements: []value.Value{&value.Integer{Value: 10}, &value.Integer{Value: 20}}}
	if !value.Equals(result, want) {
		t.Errorf("car of nested = %s", result.Inspect())
	}

	result = evalSrc(t, ev, `(cdr ['hello-world "foo" "bar"])`)
	want = &value.List{Elements: []value.Value{&value.String{Value: "foo"}, &value.String{Value: "bar"}}}
	if !value.Equals(result, want) {
		t.Errorf("cdr = %s", result.Inspect())
	}

	if result := evalSrc(t, ev, "(car [])"); result != value.NIL {
		t.Errorf("(car []) = %s", result.Inspect())
	}
	result = evalSrc(t, ev, "(cdr [])")
	if list, ok := result.(*value.List); !ok || len(list.Elements) != 0 {
		t.Errorf("(cdr []) = %s", result.Inspect())
	}
}

func TestDefunAndCall(t *testing.T) {
	ev := newTestEvaluator()
	evalSrc(t, ev, "(defun add1 [n] (+ n 1))")
	wantInteger(t, ev, "(add1 41)", 42)

	err := evalErr(t, ev, "(add1)")
	var argsErr *value.ArgsError
	if !errors.As(err, &argsErr) {
		t.Errorf("(add1) error = %v, want ArgsError", err)
	}
}

func TestDefunRedefinitionOverwrites(t *testing.T) {
	ev := newTestEvaluator()
	evalSrc(t, ev, "(defun f [] 1)")
	evalSrc(t, ev, "(defun f [] 2)")
	wantInteger(t, ev, "(f)", 2)
}

func TestQuotedParameters(t *testing.T) {
	ev := newTestEvaluator()

	// A single-quoted parameter receives the argument expression verbatim.
	evalSrc(t, ev, "(defun hold ['v] v)")
	result := evalSrc(t, ev, "(hold (+ 1 2))")
	call, ok := result.(*value.Funcall)
	if !ok || call.Name.Name != "+" {
		t.Fatalf("(hold (+ 1 2)) = %s, want the unevaluated call", result.Inspect())
	}

	// An eval-quoted body reference forces the held expression.
	evalSrc(t, ev, "(defun force ['v] ,v)")
	wantInteger(t, ev, "(force (+ 1 2))", 3)
}

func TestRestParameters(t *testing.T) {
	ev := newTestEvaluator()

	evalSrc(t, ev, "(defun rcar [args...] (car args))")
	evalSrc(t, ev, "(defun rcdr [args...] (cdr args))")

	wantInteger(t, ev, "(rcar 1 2 3)", 1)
	result := evalSrc(t, ev, "(rcdr 1 2 3)")
	want := &value.List{Elements: []value.Value{&value.Integer{Value: 2}, &value.Integer{Value: 3}}}
	if !value.Equals(result, want) {
		t.Errorf("(rcdr 1 2 3) = %s", result.Inspect())
	}

	// Rest arguments are evaluated on capture.
	evalSrc(t, ev, "(defun grab [all...] all)")
	result = evalSrc(t, ev, "(grab (+ 1 1) (+ 2 2))")
	want = &value.List{Elements: []value.Value{&value.Integer{Value: 2}, &value.Integer{Value: 4}}}
	if !value.Equals(result, want) {
		t.Errorf("(grab ...) = %s", result.Inspect())
	}

	// A single-quoted rest parameter captures the raw expressions.
	evalSrc(t, ev, "(defun stash ['all...] all)")
	result = evalSrc(t, ev, "(stash (+ 1 1) x)")
	list, ok := result.(*value.List)
	if !ok || len(list.Elements) != 2 {
		t.Fatalf("(stash ...) = %s", result.Inspect())
	}
	if _, ok := list.Elements[0].(*value.Funcall); !ok {
		t.Errorf("first captured element = %T, want unevaluated call", list.Elements[0])
	}
}

func TestDoubleRestParameterFailsAtDefinition(t *testing.T) {
	ev := newTestEvaluator()
	err := evalErr(t, ev, "(defun buggy [a... b...])")
	var argsErr *value.ArgsError
	if !errors.As(err, &argsErr) {
		t.Fatalf("double rest error = %v, want ArgsError", err)
	}
	// The erroring definition must not be registered.
	if _, ok := ev.Env().Function("buggy"); ok {
		t.Error("buggy was registered despite the definition error")
	}
}

func TestLetBindsIntoCallerFrame(t *testing.T) {
	ev := newTestEvaluator()

	// At top level the enclosing frame is frame 0.
	evalSrc(t, ev, "(let 'x 42)")
	wantInteger(t, ev, "x", 42)

	// Within one form, a let binding is visible to later forms.
	wantInteger(t, ev, "(progn (let 'y 7) (+ y 1))", 8)

	// A binding made inside a user-defined call dies with that call's frame.
	evalSrc(t, ev, "(defun stash [] (let 'z 9))")
	evalSrc(t, ev, "(stash)")
	err := evalErr(t, ev, "z")
	var void *value.VoidVariableError
	if !errors.As(err, &void) || void.Name != "z" {
		t.Errorf("z after (stash) = %v, want void variable", err)
	}
}

func TestSetMutatesNearestOrCreatesGlobal(t *testing.T) {
	ev := newTestEvaluator()

	// No existing binding anywhere: created in frame 0, even from a callee.
	evalSrc(t, ev, "(defun setter [] (set 'g 9))")
	evalSrc(t, ev, "(setter)")
	wantInteger(t, ev, "g", 9)

	// An existing binding is mutated in place, nearest frame first.
	evalSrc(t, ev, "(defun clobber [n] (set 'n 99) n)")
	wantInteger(t, ev, "(clobber 1)", 99)
	// The parameter was mutated, not a global of the same name.
	err := evalErr(t, ev, "n")
	var void *value.VoidVariableError
	if !errors.As(err, &void) {
		t.Errorf("n leaked to top level: %v", err)
	}

	evalSrc(t, ev, "(set 'g 10)")
	wantInteger(t, ev, "g", 10)
}

func TestFrameKeysIgnoreQuoteMode(t *testing.T) {
	ev := newTestEvaluator()

	// The descriptor 'v stores under the plain name "v"; an unquoted body
	// reference finds it. Quote mode is a use-site property, not part of
	// binding identity.
	evalSrc(t, ev, "(defun hold ['v] v)")
	result := evalSrc(t, ev, "(hold foo)")
	sym, ok := result.(*value.Symbol)
	if !ok || sym.Name != "foo" {
		t.Errorf("(hold foo) = %s, want the symbol foo", result.Inspect())
	}
}

func TestUnboundSymbolAndUnknownFunction(t *testing.T) {
	ev := newTestEvaluator()

	err := evalErr(t, ev, "nope")
	var void *value.VoidVariableError
	if !errors.As(err, &void) || void.Name != "nope" {
		t.Errorf("unbound symbol error = %v", err)
	}

	err = evalErr(t, ev, "(nope 1)")
	var fnVoid *value.VoidFunctionError
	if !errors.As(err, &fnVoid) || fnVoid.Name != "nope" {
		t.Errorf("unknown function error = %v", err)
	}

	// An unknown callee fails before any frame is pushed.
	if depth := ev.Env().Depth(); depth != 1 {
		t.Errorf("frame depth after failed call = %d, want 1", depth)
	}
}

func TestListEvaluationIsFailFast(t *testing.T) {
	ev := newTestEvaluator()
	err := evalErr(t, ev, "[1 nope 3]")
	var void *value.VoidVariableError
	if !errors.As(err, &void) {
		t.Errorf("list eval error = %v, want void variable", err)
	}
}

func TestFramesPopOnErrorExit(t *testing.T) {
	ev := newTestEvaluator()
	evalSrc(t, ev, "(defun boom [] (no-such-fn))")
	evalErr(t, ev, "(boom)")
	if depth := ev.Env().Depth(); depth != 1 {
		t.Errorf("frame depth after error = %d, want 1", depth)
	}
}

func TestRecursion(t *testing.T) {
	ev := newTestEvaluator()
	evalSrc(t, ev, `(defun fibonacci [n]
		(if (= n 0) 0
			(if (= n 1) 1
				(+ (fibonacci (- n 1)) (fibonacci (- n 2))))))`)
	wantInteger(t, ev, "(fibonacci 5)", 5)
	wantInteger(t, ev, "(fibonacci 10)", 55)
}
