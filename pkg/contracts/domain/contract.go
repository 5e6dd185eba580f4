package domain

import (
	"fmt"
	"strconv"
)

// OptionKind distinguishes stock options from index options in a bhav copy.
type OptionKind string

const (
	KindStockOption OptionKind = "OPTSTK"
	KindIndexOption OptionKind = "OPTIDX"
)

// OptionType is the exercise side of an option contract.
type OptionType string

const (
	TypeCall OptionType = "CE"
	TypePut  OptionType = "PE"
)

// ContractKey uniquely identifies one option contract across trading dates.
// Expiry keeps the DD-MMM-YYYY form printed inside the composite symbol so a
// decomposition can be reassembled into the original symbol string.
type ContractKey struct {
	Ticker string     `json:"ticker" validate:"required"`
	Expiry string     `json:"expiry" validate:"required"`
	Type   OptionType `json:"type" validate:"required,oneof=CE PE"`
	Strike float64    `json:"strike" validate:"gt=0"`
}

// IsComplete reports whether all four key fields are populated. Rows whose
// composite symbol did not match the contract grammar carry a zero-value key
// and are excluded from per-contract aggregation.
func (k ContractKey) IsComplete() bool {
	return k.Ticker != "" && k.Expiry != "" && k.Type != "" && k.Strike > 0
}

// String renders the key in a stable, human-readable form.
func (k ContractKey) String() string {
	return fmt.Sprintf("%s %s %s %s", k.Ticker, k.Expiry, k.Type, FormatStrike(k.Strike))
}

// Less imposes a total order on keys (ticker, expiry, type, strike) so derived
// tables come out in a deterministic sequence.
func (k ContractKey) Less(other ContractKey) bool {
	if k.Ticker != other.Ticker {
		return k.Ticker < other.Ticker
	}
	if k.Expiry != other.Expiry {
		return k.Expiry < other.Expiry
	}
	if k.Type != other.Type {
		return k.Type < other.Type
	}
	return k.Strike < other.Strike
}

// FormatStrike renders a strike price the way bhav copies print it: no
// exponent, no trailing zeros beyond what the value needs.
func FormatStrike(strike float64) string {
	return strconv.FormatFloat(strike, 'f', -1, 64)
}
