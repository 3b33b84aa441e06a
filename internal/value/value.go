package value

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	NIL_VALUE     = "NIL"
	TRUE_VALUE    = "TRUE"
	INTEGER_VALUE = "INTEGER"
	STRING_VALUE  = "STRING"
	SYMBOL_VALUE  = "SYMBOL"
	LIST_VALUE    = "LIST"
	FUNCALL_VALUE = "FUNCALL"
)

var (
	NIL  = &Nil{}
	TRUE = &True{}
)

type ValueType string

// Value is the closed variant set the parser produces and the evaluator
// reduces. Values are immutable; evaluation builds new ones.
type Value interface {
	Type() ValueType
	Inspect() string
}

type Nil struct{}

func (n *Nil) Type() ValueType { return NIL_VALUE }
func (n *Nil) Inspect() string { return "nil" }

type True struct{}

func (t *True) Type() ValueType { return TRUE_VALUE }
func (t *True) Inspect() string { return "t" }

type Integer struct {
	Value int32
}

func (i *Integer) Type() ValueType { return INTEGER_VALUE }
func (i *Integer) Inspect() string { return fmt.Sprintf("%d", i.Value) }

type String struct {
	Value string
}

func (s *String) Type() ValueType { return STRING_VALUE }
func (s *String) Inspect() string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s.Value) + `"`
}

type List struct {
	Elements []Value
}

func (l *List) Type() ValueType { return LIST_VALUE }
func (l *List) Inspect() string {
	var out bytes.Buffer

	elements := []string{}
	for _, e := range l.Elements {
		elements = append(elements, e.Inspect())
	}

	out.WriteString("[")
	out.WriteString(strings.Join(elements, " "))
	out.WriteString("]")

	return out.String()
}

// Funcall is an instruction to call a named operation, syntactically
// distinct from a literal List.
type Funcall struct {
	Name *Symbol
	Args []Value
}

func (f *Funcall) Type() ValueType { return FUNCALL_VALUE }
func (f *Funcall) Inspect() string {
	var out bytes.Buffer

	parts := []string{f.Name.Inspect()}
	for _, a := range f.Args {
		parts = append(parts, a.Inspect())
	}

	out.WriteString("(")
	out.WriteString(strings.Join(parts, " "))
	out.WriteString(")")

	return out.String()
}

// IsTruthy reports the condition semantics used by if/when/while: only nil,
// the empty list and the empty string are false. Integer 0 is true.
func IsTruthy(v Value) bool {
	switch v := v.(type) {
	case *Nil:
		return false
	case *List:
		return len(v.Elements) > 0
	case *String:
		return len(v.Value) > 0
	default:
		return true
	}
}

// Equals compares two values structurally. Symbols compare on the full
// (name, quote mode, rest) triplet.
func Equals(a, b Value) bool {
	switch a := a.(type) {
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *True:
		_, ok := b.(*True)
		return ok
	case *Integer:
		other, ok := b.(*Integer)
		return ok && a.Value == other.Value
	case *String:
		other, ok := b.(*String)
		return ok && a.Value == other.Value
	case *Symbol:
		other, ok := b.(*Symbol)
		return ok && a.Name == other.Name && a.Quote == other.Quote && a.Rest == other.Rest
	case *List:
		other, ok := b.(*List)
		if !ok || len(a.Elements) != len(other.Elements) {
			return false
		}
		for i, e := range a.Elements {
			if !Equals(e, other.Elements[i]) {
				return false
			}
		}
		return true
	case *Funcall:
		other, ok := b.(*Funcall)
		if !ok || !Equals(a.Name, other.Name) || len(a.Args) != len(other.Args) {
			return false
		}
		for i, arg := range a.Args {
			if !Equals(arg, other.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}
