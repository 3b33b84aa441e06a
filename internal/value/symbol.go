package value

// Quote selects how a symbol behaves under evaluation: eager resolution
// (QuoteNone), never evaluated (QuoteSingle), or resolved and the found
// value evaluated again (QuoteEval).
type Quote int

const (
	QuoteNone Quote = iota
	QuoteSingle
	QuoteEval
)

const (
	SingleQuoteMarker = '\''
	EvalQuoteMarker   = ','
	RestMarker        = "..."
)

type Symbol struct {
	Name  string
	Quote Quote
	Rest  bool
}

func NewSymbol(name string) *Symbol {
	return &Symbol{Name: name}
}

func (s *Symbol) Type() ValueType { return SYMBOL_VALUE }

func (s *Symbol) Inspect() string {
	out := s.Name
	switch s.Quote {
	case QuoteSingle:
		out = string(SingleQuoteMarker) + out
	case QuoteEval:
		out = string(EvalQuoteMarker) + out
	}
	if s.Rest {
		out += RestMarker
	}
	return out
}
