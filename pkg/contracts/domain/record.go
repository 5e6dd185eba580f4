package domain

import (
	"time"
)

// BhavDateLayout is the DD-MMM-YYYY form used for dates throughout the merged
// table, matching the expiry component of composite symbols.
const BhavDateLayout = "02-Jan-2006"

// OptionRecord is one row of the merged table: a single contract's prices on a
// single trading date, augmented with the decomposed instrument key. Rows whose
// symbol failed to parse keep the raw symbol and prices with a zero-value key.
type OptionRecord struct {
	Symbol     string     `json:"symbol"`
	Kind       OptionKind `json:"kind,omitempty"`
	Ticker     string     `json:"ticker,omitempty"`
	Expiry     string     `json:"expiry,omitempty"`
	Type       OptionType `json:"type,omitempty"`
	Strike     float64    `json:"strike,omitempty"`
	PrevSettle float64    `json:"prev_settle"`
	Open       float64    `json:"open"`
	High       float64    `json:"high"`
	Low        float64    `json:"low"`
	Close      float64    `json:"close"`

	// Underlying is the reference price of the asset under the contract.
	// HasUnderlying is false when the source cell was empty or unparsable.
	Underlying    float64 `json:"underlying,omitempty"`
	HasUnderlying bool    `json:"has_underlying"`

	// Date is the trading date extracted from the archive or folder name.
	// Zero when the entry name carried no recognizable date suffix.
	Date time.Time `json:"date"`
}

// Key returns the instrument key for this record.
func (r OptionRecord) Key() ContractKey {
	return ContractKey{Ticker: r.Ticker, Expiry: r.Expiry, Type: r.Type, Strike: r.Strike}
}

// DateLabel renders the trading date as it appears in the merged CSV, or an
// empty string for rows without a date.
func (r OptionRecord) DateLabel() string {
	if r.Date.IsZero() {
		return ""
	}
	return formatBhavDate(r.Date)
}

// GainRecord is one derived row per instrument key: the percentage change from
// a reference low price to the latest close price.
type GainRecord struct {
	ContractKey
	Kind         OptionKind `json:"kind,omitempty"`
	ReferenceLow float64    `json:"reference_low"`
	LatestClose  float64    `json:"latest_close"`
	GainPercent  float64    `json:"gain_percent"`
	Observations int        `json:"observations"`

	// InsufficientHistory is set when a day window was requested but the group
	// holds fewer observations, so ReferenceLow fell back to the earliest row.
	InsufficientHistory bool `json:"insufficient_history,omitempty"`

	// DisplayUnderlying carries the resolver's best-effort underlying value
	// when the gain table is joined for display. Zero/false when unresolved.
	DisplayUnderlying    float64 `json:"display_underlying,omitempty"`
	HasDisplayUnderlying bool    `json:"has_display_underlying,omitempty"`
}

// UnderlyingQuote is the resolver's view of the underlying reference price for
// one (ticker, strike) pair: the most recent observation, a one-day-old
// fallback, and the display value derived from the two.
type UnderlyingQuote struct {
	Ticker string  `json:"ticker"`
	Strike float64 `json:"strike"`

	MostRecent    float64 `json:"most_recent,omitempty"`
	HasMostRecent bool    `json:"has_most_recent"`
	Fallback      float64 `json:"fallback,omitempty"`
	HasFallback   bool    `json:"has_fallback"`
	Display       float64 `json:"display,omitempty"`
	HasDisplay    bool    `json:"has_display"`
}

// formatBhavDate uppercases the month code, e.g. 25-JAN-2024 rather than the
// 25-Jan-2024 Go's reference layout produces.
func formatBhavDate(t time.Time) string {
	b := []byte(t.Format(BhavDateLayout))
	for i := 3; i < 6 && i < len(b); i++ {
		if b[i] >= 'a' && b[i] <= 'z' {
			b[i] -= 'a' - 'A'
		}
	}
	return string(b)
}

// ParseBhavDate parses a DD-MMM-YYYY date label with an uppercase month code.
func ParseBhavDate(label string) (time.Time, error) {
	return time.Parse(BhavDateLayout, normalizeMonthCase(label))
}

func normalizeMonthCase(label string) string {
	if len(label) < 6 {
		return label
	}
	b := []byte(label)
	for i := 4; i < 6; i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
