package value

import "fmt"

// VoidVariableError reports a reference to a symbol with no binding on the
// frame stack.
type VoidVariableError struct {
	Name string
}

func (e *VoidVariableError) Error() string {
	return fmt.Sprintf("variable is void: %s", e.Name)
}

// VoidFunctionError reports a call to a name absent from the function table.
type VoidFunctionError struct {
	Name string
}

func (e *VoidFunctionError) Error() string {
	return fmt.Sprintf("function definition is void: %s", e.Name)
}

// ArgsError reports an arity or type mismatch against a named operation.
type ArgsError struct {
	Fn     string
	Reason string
}

func (e *ArgsError) Error() string {
	return fmt.Sprintf("wrong arguments for %s: %s", e.Fn, e.Reason)
}

func Argsf(fn, format string, a ...interface{}) error {
	return &ArgsError{Fn: fn, Reason: fmt.Sprintf(format, a...)}
}
