package value

import (
	"log/slog"
)

// Frame is one call's bindings, labeled with the name of the call that
// created it. Storage keys on the symbol name only; quote mode and the rest
// marker are use-site properties, not part of binding identity.
type Frame struct {
	Label    string
	Bindings map[string]Value
}

func NewFrame(label string) *Frame {
	return &Frame{
		Label:    label,
		Bindings: make(map[string]Value),
	}
}

func (f *Frame) Get(name string) (Value, bool) {
	v, ok := f.Bindings[name]
	return v, ok
}

func (f *Frame) Put(name string, val Value) {
	f.Bindings[name] = val
}

// Environment owns the frame stack and the global function table. It is not
// ambient state: every evaluation receives the Environment it runs against,
// and independent instances are fully isolated.
type Environment struct {
	frames    []*Frame
	functions map[string]Function
}

const topLevelLabel = "top-level"

// NewEnvironment creates an environment with the persistent frame 0 and an
// empty function table.
func NewEnvironment() *Environment {
	return &Environment{
		frames:    []*Frame{NewFrame(topLevelLabel)},
		functions: make(map[string]Function),
	}
}

func (e *Environment) Push(label string) *Frame {
	frame := NewFrame(label)
	e.frames = append(e.frames, frame)
	slog.Debug("frame pushed",
		slog.String("label", label),
		slog.Int("depth", len(e.frames)))
	return frame
}

func (e *Environment) Pop() {
	if len(e.frames) <= 1 {
		panic("attempted to pop the top-level frame")
	}
	slog.Debug("frame popped",
		slog.String("label", e.frames[len(e.frames)-1].Label),
		slog.Int("depth", len(e.frames)-1))
	e.frames = e.frames[:len(e.frames)-1]
}

func (e *Environment) Depth() int {
	return len(e.frames)
}

// Current returns the innermost frame.
func (e *Environment) Current() *Frame {
	return e.frames[len(e.frames)-1]
}

// Caller returns the frame one level up from the innermost one. It reports
// false when only the top-level frame is live.
func (e *Environment) Caller() (*Frame, bool) {
	if len(e.frames) < 2 {
		return nil, false
	}
	return e.frames[len(e.frames)-2], true
}

func (e *Environment) TopLevel() *Frame {
	return e.frames[0]
}

// Lookup resolves a symbol by scanning frames innermost to outermost.
func (e *Environment) Lookup(sym *Symbol) (Value, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if v, ok := e.frames[i].Get(sym.Name); ok {
			slog.Debug("symbol resolved",
				slog.String("name", sym.Name),
				slog.String("frame", e.frames[i].Label))
			return v, true
		}
	}
	return nil, false
}

// FindFrame returns the innermost frame that already binds the symbol, for
// in-place mutation by set.
func (e *Environment) FindFrame(sym *Symbol) (*Frame, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if _, ok := e.frames[i].Get(sym.Name); ok {
			return e.frames[i], true
		}
	}
	return nil, false
}

// RegisterFunction installs a named operation; re-registration overwrites.
func (e *Environment) RegisterFunction(name string, fn Function) {
	if _, exists := e.functions[name]; exists {
		slog.Debug("function overwritten", slog.String("name", name))
	}
	e.functions[name] = fn
}

func (e *Environment) Function(name string) (Function, bool) {
	fn, ok := e.functions[name]
	return fn, ok
}
