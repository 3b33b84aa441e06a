// Package builtins populates an Environment's function table before any user
// code runs. Native operations receive their argument expressions
// unevaluated plus the live evaluation context, so control forms choose
// evaluation order or skip branches entirely.
package builtins

import (
	"fmt"

	"crisp/internal/value"
)

func Register(env *value.Environment) {
	natives := []struct {
		name string
		fn   value.NativeFn
	}{
		{"progn", progn},
		{"debug", debug},
		{"if", ifForm},
		{"when", when},
		{"while", while},
		{"set", set},
		{"let", let},
		{"defun", defun},
		{"=", eq},
		{"/=", neq},
		{"+", add},
		{"-", sub},
		{"*", mul},
		{"/", div},
		{"car", car},
		{"cdr", cdr},
	}

	for _, n := range natives {
		env.RegisterFunction(n.name, &value.Native{Name: n.name, Fn: n.fn})
	}

	registerDB(env)
}

// makeProgn wraps forms in an implicit progn call.
func makeProgn(args []value.Value) value.Value {
	return &value.Funcall{Name: value.NewSymbol("progn"), Args: args}
}

func progn(ctx value.Context, args []value.Value) (value.Value, error) {
	var result value.Value = value.NIL
	for _, arg := range args {
		var err error
		result, err = ctx.Eval(arg)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func debug(ctx value.Context, args []value.Value) (value.Value, error) {
	for _, arg := range args {
		evaluated, err := ctx.Eval(arg)
		if err != nil {
			return nil, err
		}
		fmt.Println(evaluated.Inspect())
	}
	return value.NIL, nil
}

func ifForm(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, value.Argsf("if", "expected a condition and a then-branch, got %d arguments", len(args))
	}

	condition, err := ctx.Eval(args[0])
	if err != nil {
		return nil, err
	}

	if value.IsTruthy(condition) {
		return ctx.Eval(args[1])
	}
	// The else part is an implicit progn over the remaining forms.
	return progn(ctx, args[2:])
}

func when(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, value.Argsf("when", "expected a condition and a body, got %d arguments", len(args))
	}
	return ifForm(ctx, []value.Value{args[0], makeProgn(args[1:])})
}

func while(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, value.Argsf("while", "expected a condition and a body, got %d arguments", len(args))
	}

	body := makeProgn(args[1:])
	for {
		condition, err := ctx.Eval(args[0])
		if err != nil {
			return nil, err
		}
		if !value.IsTruthy(condition) {
			return value.NIL, nil
		}
		if _, err := ctx.Eval(body); err != nil {
			return nil, err
		}
	}
}

// symbolBinding evaluates a (symbol, value) argument pair; the first must
// reduce to a Symbol, so callers write (set 'x 1).
func symbolBinding(ctx value.Context, fnName string, symArg, valArg value.Value) (*value.Symbol, value.Value, error) {
	evaluated, err := ctx.Eval(symArg)
	if err != nil {
		return nil, nil, err
	}
	sym, ok := evaluated.(*value.Symbol)
	if !ok {
		return nil, nil, value.Argsf(fnName, "first argument must evaluate to a symbol, got %s", evaluated.Type())
	}

	val, err := ctx.Eval(valArg)
	if err != nil {
		return nil, nil, err
	}
	return sym, val, nil
}

func set(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, value.Argsf("set", "expected a symbol and a value, got %d arguments", len(args))
	}
	sym, val, err := symbolBinding(ctx, "set", args[0], args[1])
	if err != nil {
		return nil, err
	}

	if frame, ok := ctx.Env().FindFrame(sym); ok {
		frame.Put(sym.Name, val)
	} else {
		ctx.Env().TopLevel().Put(sym.Name, val)
	}
	return val, nil
}

func let(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, value.Argsf("let", "expected a symbol and a value, got %d arguments", len(args))
	}

	// One frame up from let's own call frame: the frame of the body the
	// (let ...) form appears in, frame 0 at top level.
	caller, ok := ctx.Env().Caller()
	if !ok {
		return nil, value.Argsf("let", "requires at least two live frames")
	}

	sym, val, err := symbolBinding(ctx, "let", args[0], args[1])
	if err != nil {
		return nil, err
	}
	caller.Put(sym.Name, val)
	return val, nil
}

func defun(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, value.Argsf("defun", "expected a name and a parameter list, got %d arguments", len(args))
	}

	name, ok := args[0].(*value.Symbol)
	if !ok {
		return nil, value.Argsf("defun", "name must be a literal symbol, got %s", args[0].Type())
	}

	paramList, ok := args[1].(*value.List)
	if !ok {
		return nil, value.Argsf("defun", "parameter list must be a literal list, got %s", args[1].Type())
	}

	params := make([]*value.Symbol, 0, len(paramList.Elements))
	for i, p := range paramList.Elements {
		sym, ok := p.(*value.Symbol)
		if !ok {
			return nil, value.Argsf("defun", "parameter %d must be a symbol, got %s", i, p.Type())
		}
		if sym.Rest && i != len(paramList.Elements)-1 {
			return nil, value.Argsf("defun", "rest parameter %s must be last", sym.Name)
		}
		params = append(params, sym)
	}

	ctx.Env().RegisterFunction(name.Name, &value.Defun{
		Body:   makeProgn(args[2:]),
		Params: params,
	})
	return value.NIL, nil
}

func eq(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, value.Argsf("=", "expected at least one argument")
	}

	first, err := ctx.Eval(args[0])
	if err != nil {
		return nil, err
	}
	for _, arg := range args[1:] {
		evaluated, err := ctx.Eval(arg)
		if err != nil {
			return nil, err
		}
		if !value.Equals(first, evaluated) {
			return value.NIL, nil
		}
	}
	return value.TRUE, nil
}

func neq(ctx value.Context, args []value.Value) (value.Value, error) {
	result, err := eq(ctx, args)
	if err != nil {
		return nil, err
	}
	if value.IsTruthy(result) {
		return value.NIL, nil
	}
	return value.TRUE, nil
}

func evalInteger(ctx value.Context, fnName string, arg value.Value) (int32, error) {
	evaluated, err := ctx.Eval(arg)
	if err != nil {
		return 0, err
	}
	i, ok := evaluated.(*value.Integer)
	if !ok {
		return 0, value.Argsf(fnName, "expected an integer, got %s", evaluated.Type())
	}
	return i.Value, nil
}

// reduceIntegers folds evaluated integer arguments left to right.
func reduceIntegers(ctx value.Context, fnName string, acc int32, args []value.Value, op func(int32, int32) (int32, error)) (value.Value, error) {
	for _, arg := range args {
		i, err := evalInteger(ctx, fnName, arg)
		if err != nil {
			return nil, err
		}
		acc, err = op(acc, i)
		if err != nil {
			return nil, err
		}
	}
	return &value.Integer{Value: acc}, nil
}

func add(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, value.Argsf("+", "expected at least one argument")
	}
	return reduceIntegers(ctx, "+", 0, args, func(a, b int32) (int32, error) { return a + b, nil })
}

func sub(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, value.Argsf("-", "expected at least one argument")
	}

	first, err := evalInteger(ctx, "-", args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return &value.Integer{Value: -first}, nil
	}
	return reduceIntegers(ctx, "-", first, args[1:], func(a, b int32) (int32, error) { return a - b, nil })
}

func mul(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, value.Argsf("*", "expected at least one argument")
	}
	return reduceIntegers(ctx, "*", 1, args, func(a, b int32) (int32, error) { return a * b, nil })
}

func div(ctx value.Context, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, value.Argsf("/", "expected at least one argument")
	}

	first, err := evalInteger(ctx, "/", args[0])
	if err != nil {
		return nil, err
	}
	return reduceIntegers(ctx, "/", first, args[1:], func(a, b int32) (int32, error) {
		if b == 0 {
			return 0, value.Argsf("/", "division by zero")
		}
		return a / b, nil
	})
}

func listArg(ctx value.Context, fnName string, args []value.Value) (*value.List, error) {
	if len(args) != 1 {
		return nil, value.Argsf(fnName, "expected exactly one argument, got %d", len(args))
	}
	evaluated, err := ctx.Eval(args[0])
	if err != nil {
		return nil, err
	}
	list, ok := evaluated.(*value.List)
	if !ok {
		return nil, value.Argsf(fnName, "expected a list, got %s", evaluated.Type())
	}
	return list, nil
}

func car(ctx value.Context, args []value.Value) (value.Value, error) {
	list, err := listArg(ctx, "car", args)
	if err != nil {
		return nil, err
	}
	if len(list.Elements) == 0 {
		return value.NIL, nil
	}
	return ctx.Eval(list.Elements[0])
}

func cdr(ctx value.Context, args []value.Value) (value.Value, error) {
	list, err := listArg(ctx, "cdr", args)
	if err != nil {
		return nil, err
	}
	if len(list.Elements) == 0 {
		return &value.List{}, nil
	}
	return ctx.Eval(&value.List{Elements: list.Elements[1:]})
}
