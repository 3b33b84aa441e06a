package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"crisp/internal/value"
)

// Parse error taxonomy. Callers match with errors.Is.
var (
	ErrNoParser        = errors.New("no recognizer accepts the input")
	ErrMalformed       = errors.New("malformed input")
	ErrIntegerOverflow = errors.New("integer literal out of range")
	ErrInvalidEscape   = errors.New("invalid escape sequence")
	ErrUnbalanced      = errors.New("unbalanced brackets")
	ErrEmptyCall       = errors.New("empty call")
	ErrInvalidCallHead = errors.New("call head must be an unquoted symbol")
)

// Punctuation allowed inside symbol names, next to ASCII letters and digits.
// Whitespace, brackets, the quote markers and string syntax are excluded.
const symbolPunctuation = "!#$%&*+,-./:;<=>?@^_|~"

// Parse turns one s-expression into exactly one Value. Recognizers are tried
// in fixed priority; the first one whose precondition matches owns the
// buffer, and its parse failure is final. Multi-form text must be wrapped in
// an implicit (progn ...) by the caller.
func Parse(text string) (value.Value, error) {
	buffer := strings.TrimSpace(text)
	if buffer == "" {
		return nil, fmt.Errorf("%w: empty input", ErrNoParser)
	}

	switch {
	case integerPrefix(buffer):
		return parseInteger(buffer)
	case buffer == "t":
		return value.TRUE, nil
	case buffer == "nil":
		return value.NIL, nil
	case buffer[0] == '"':
		return parseString(buffer)
	case symbolPrefix(buffer):
		return parseSymbol(buffer)
	case buffer[0] == '(' || buffer[0] == '[':
		return parseBracketed(buffer)
	}

	return nil, fmt.Errorf("%w: %q", ErrNoParser, buffer)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSymbolChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case isDigit(c):
		return true
	}
	return strings.IndexByte(symbolPunctuation, c) >= 0
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// integerPrefix claims buffers starting with a digit, or a sign followed by
// a digit. A bare sign falls through to the symbol recognizer.
func integerPrefix(buffer string) bool {
	if isDigit(buffer[0]) {
		return true
	}
	return (buffer[0] == '+' || buffer[0] == '-') && len(buffer) > 1 && isDigit(buffer[1])
}

func parseInteger(buffer string) (value.Value, error) {
	i, err := strconv.ParseInt(strings.TrimPrefix(buffer, "+"), 10, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("%w: %s", ErrIntegerOverflow, buffer)
		}
		return nil, fmt.Errorf("%w: bad integer literal %q", ErrMalformed, buffer)
	}
	return &value.Integer{Value: int32(i)}, nil
}

func parseString(buffer string) (value.Value, error) {
	var out strings.Builder

	for i := 1; i < len(buffer); i++ {
		c := buffer[i]
		switch c {
		case '\\':
			if i+1 >= len(buffer) {
				return nil, fmt.Errorf("%w: dangling backslash", ErrInvalidEscape)
			}
			i++
			switch buffer[i] {
			case '"':
				out.WriteByte('"')
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			case '\\':
				out.WriteByte('\\')
			default:
				return nil, fmt.Errorf("%w: \\%c", ErrInvalidEscape, buffer[i])
			}
		case '"':
			if i != len(buffer)-1 {
				return nil, fmt.Errorf("%w: content after closing quote in %q", ErrMalformed, buffer)
			}
			return &value.String{Value: out.String()}, nil
		default:
			out.WriteByte(c)
		}
	}

	return nil, fmt.Errorf("%w: unterminated string %q", ErrMalformed, buffer)
}

func symbolPrefix(buffer string) bool {
	c := buffer[0]
	return c == value.SingleQuoteMarker || c == value.EvalQuoteMarker || isSymbolChar(c)
}

func parseSymbol(buffer string) (value.Value, error) {
	quote := value.QuoteNone
	name := buffer

	switch name[0] {
	case value.SingleQuoteMarker:
		quote = value.QuoteSingle
		name = name[1:]
	case value.EvalQuoteMarker:
		quote = value.QuoteEval
		name = name[1:]
	}

	rest := strings.HasSuffix(name, value.RestMarker)
	if rest {
		name = strings.TrimSuffix(name, value.RestMarker)
	}

	if name == "" {
		return nil, fmt.Errorf("%w: empty symbol name in %q", ErrMalformed, buffer)
	}
	for i := 0; i < len(name); i++ {
		if !isSymbolChar(name[i]) {
			return nil, fmt.Errorf("%w: illegal character %q in symbol %q", ErrMalformed, name[i], buffer)
		}
	}

	return &value.Symbol{Name: name, Quote: quote, Rest: rest}, nil
}

// checkBalance walks the whole buffer with a stack of expected closers and
// demands that the opening bracket closes exactly at the final character.
func checkBalance(buffer string) error {
	var closers []byte

	for i := 0; i < len(buffer); i++ {
		switch buffer[i] {
		case '(':
			closers = append(closers, ')')
		case '[':
			closers = append(closers, ']')
		case ')', ']':
			if len(closers) == 0 || closers[len(closers)-1] != buffer[i] {
				return fmt.Errorf("%w: unexpected %q at offset %d", ErrUnbalanced, buffer[i], i)
			}
			closers = closers[:len(closers)-1]
			if len(closers) == 0 && i != len(buffer)-1 {
				return fmt.Errorf("%w: content after closing bracket in %q", ErrMalformed, buffer)
			}
		}
	}

	if len(closers) > 0 {
		return fmt.Errorf("%w: missing %q in %q", ErrUnbalanced, closers[len(closers)-1], buffer)
	}
	return nil
}

type span struct {
	start, end int
}

// splitTopLevel splits the bracket interior on whitespace at nesting depth
// zero, so nested forms survive intact. String literals are not tracked
// here; pieces broken inside a string are reassembled by the caller.
func splitTopLevel(interior string) []span {
	var pieces []span
	depth := 0
	start := -1

	for i := 0; i < len(interior); i++ {
		c := interior[i]
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
		if depth == 0 && isWhitespace(c) {
			if start >= 0 {
				pieces = append(pieces, span{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		pieces = append(pieces, span{start, len(interior)})
	}

	return pieces
}

func parseBracketed(buffer string) (value.Value, error) {
	if err := checkBalance(buffer); err != nil {
		return nil, err
	}

	closer := buffer[len(buffer)-1]
	interior := buffer[1 : len(buffer)-1]
	pieces := splitTopLevel(interior)

	// Parse each piece recursively. A piece that fails standing alone (a
	// string literal with embedded whitespace, say) is grown by accumulating
	// the original text through to the next piece until a parse succeeds.
	var elements []value.Value
	for i := 0; i < len(pieces); {
		j := i
		var elem value.Value
		var err error
		for {
			elem, err = Parse(interior[pieces[i].start:pieces[j].end])
			if err == nil {
				break
			}
			j++
			if j >= len(pieces) {
				return nil, err
			}
		}
		elements = append(elements, elem)
		i = j + 1
	}

	if closer == ']' {
		return &value.List{Elements: elements}, nil
	}

	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: ()", ErrEmptyCall)
	}
	head, ok := elements[0].(*value.Symbol)
	if !ok || head.Quote != value.QuoteNone {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidCallHead, elements[0].Inspect())
	}

	return &value.Funcall{Name: head, Args: elements[1:]}, nil
}
