package dataprocessing

import (
	"regexp"
	"strconv"

	"optscan/pkg/contracts/domain"
)

// symbolPattern matches the composite contract symbol grammar used in F&O
// bhav copies: <KIND><TICKER><DD-MMM-YYYY><CE|PE><STRIKE>. Boundary ambiguity
// between ticker and the date token is resolved by the anchored structure of
// the pattern alone; a ticker containing digits would not match.
var symbolPattern = regexp.MustCompile(`^(OPTSTK|OPTIDX)([A-Z]+)(\d{2}-[A-Z]{3}-\d{4})(CE|PE)([\d.]+)$`)

// Decomposition is the five-way breakdown of a composite contract symbol.
// StrikeLabel preserves the strike exactly as printed so the original symbol
// can be reassembled without float formatting drift.
type Decomposition struct {
	Kind        domain.OptionKind
	Ticker      string
	Expiry      string
	Type        domain.OptionType
	Strike      float64
	StrikeLabel string
}

// ParseSymbol decomposes a composite contract symbol. The second return value
// is false when the symbol does not match the grammar; this is not an error,
// merely an unparsed row that callers retain with a zero-value decomposition.
func ParseSymbol(symbol string) (Decomposition, bool) {
	m := symbolPattern.FindStringSubmatch(symbol)
	if m == nil {
		return Decomposition{}, false
	}

	strike, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		// Degenerate numerals like "..." slip through the character class.
		return Decomposition{}, false
	}

	return Decomposition{
		Kind:        domain.OptionKind(m[1]),
		Ticker:      m[2],
		Expiry:      m[3],
		Type:        domain.OptionType(m[4]),
		Strike:      strike,
		StrikeLabel: m[5],
	}, true
}

// Symbol reassembles the composite symbol from its decomposition.
func (d Decomposition) Symbol() string {
	return string(d.Kind) + d.Ticker + d.Expiry + string(d.Type) + d.StrikeLabel
}
