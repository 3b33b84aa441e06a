package evaluator

import (
	"fmt"
	"log/slog"

	"crisp/internal/value"
)

// Evaluator reduces a Value against one Environment. It is single-threaded
// and purely recursive: depth tracks source nesting, and there is no state
// machine beyond the frame stack's push/pop.
type Evaluator struct {
	env *value.Environment
}

func New(env *value.Environment) *Evaluator {
	return &Evaluator{env: env}
}

func (e *Evaluator) Env() *value.Environment {
	return e.env
}

// Eval applies one rule per variant. Compound forms are fail-fast and
// left-to-right: the first failing sub-evaluation aborts the whole form.
func (e *Evaluator) Eval(v value.Value) (value.Value, error) {
	switch v := v.(type) {
	case *value.Nil, *value.True, *value.Integer, *value.String:
		return v, nil

	case *value.Symbol:
		return e.evalSymbol(v)

	case *value.List:
		elements := make([]value.Value, 0, len(v.Elements))
		for _, elem := range v.Elements {
			evaluated, err := e.Eval(elem)
			if err != nil {
				return nil, err
			}
			elements = append(elements, evaluated)
		}
		return &value.List{Elements: elements}, nil

	case *value.Funcall:
		return e.Call(v.Name.Name, v.Args)
	}

	return nil, fmt.Errorf("cannot evaluate value of type %s", v.Type())
}

func (e *Evaluator) evalSymbol(sym *value.Symbol) (value.Value, error) {
	switch sym.Quote {
	case value.QuoteSingle:
		// A literal name reference, never resolved.
		return sym, nil

	case value.QuoteEval:
		found, ok := e.env.Lookup(sym)
		if !ok {
			return nil, &value.VoidVariableError{Name: sym.Name}
		}
		return e.Eval(found)

	default:
		found, ok := e.env.Lookup(sym)
		if !ok {
			return nil, &value.VoidVariableError{Name: sym.Name}
		}
		return found, nil
	}
}

// Call dispatches a named operation. An unknown name fails before any frame
// is pushed; otherwise exactly one labeled frame wraps the invocation and is
// popped on every exit path.
func (e *Evaluator) Call(name string, args []value.Value) (value.Value, error) {
	fn, ok := e.env.Function(name)
	if !ok {
		return nil, &value.VoidFunctionError{Name: name}
	}

	slog.Debug("dispatching call",
		slog.String("name", name),
		slog.Int("args", len(args)))

	e.env.Push(name)
	defer e.env.Pop()

	switch fn := fn.(type) {
	case *value.Native:
		return fn.Fn(e, args)
	case *value.Defun:
		return e.applyDefun(name, fn, args)
	}

	return nil, fmt.Errorf("unsupported function kind for %s", name)
}

// applyDefun binds actual arguments to parameter descriptors in the already
// pushed call frame, then evaluates the body in that same frame.
func (e *Evaluator) applyDefun(name string, fn *value.Defun, args []value.Value) (value.Value, error) {
	frame := e.env.Current()
	remaining := args

	for _, param := range fn.Params {
		if param.Rest {
			bound, err := e.bindArgument(param, &value.List{Elements: remaining})
			if err != nil {
				return nil, err
			}
			frame.Put(param.Name, bound)
			remaining = nil
			break
		}

		if len(remaining) == 0 {
			return nil, value.Argsf(name, "missing argument for parameter %s", param.Name)
		}
		bound, err := e.bindArgument(param, remaining[0])
		if err != nil {
			return nil, err
		}
		frame.Put(param.Name, bound)
		remaining = remaining[1:]
	}

	return e.Eval(fn.Body)
}

// bindArgument evaluates the actual argument unless the parameter descriptor
// is single-quoted, in which case the expression is passed through verbatim.
func (e *Evaluator) bindArgument(param *value.Symbol, arg value.Value) (value.Value, error) {
	if param.Quote == value.QuoteSingle {
		return arg, nil
	}
	return e.Eval(arg)
}
