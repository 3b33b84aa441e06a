package value

// Context is the bridge handed to native operations. It exposes the live
// Environment and evaluation against it, so control operations can decide
// argument evaluation order themselves or skip branches entirely.
type Context interface {
	Env() *Environment
	Eval(v Value) (Value, error)
	Call(name string, args []Value) (Value, error)
}

// NativeFn receives the unevaluated argument expressions.
type NativeFn func(ctx Context, args []Value) (Value, error)

// Function is the two-case variant behind the function table: a native
// callback or a user-defined body with parameter descriptors.
type Function interface {
	function()
}

type Native struct {
	Name string
	Fn   NativeFn
}

func (n *Native) function() {}

type Defun struct {
	Body   Value
	Params []*Symbol
}

func (d *Defun) function() {}
