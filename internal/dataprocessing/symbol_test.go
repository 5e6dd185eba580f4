package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optscan/pkg/contracts/domain"
)

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		want   Decomposition
		ok     bool
	}{
		{
			name:   "stock call",
			symbol: "OPTSTKRELIANCE25-JAN-2024CE2500",
			want: Decomposition{
				Kind:        domain.KindStockOption,
				Ticker:      "RELIANCE",
				Expiry:      "25-JAN-2024",
				Type:        domain.TypeCall,
				Strike:      2500,
				StrikeLabel: "2500",
			},
			ok: true,
		},
		{
			name:   "index put with fractional strike",
			symbol: "OPTIDXNIFTY29-FEB-2024PE21050.50",
			want: Decomposition{
				Kind:        domain.KindIndexOption,
				Ticker:      "NIFTY",
				Expiry:      "29-FEB-2024",
				Type:        domain.TypePut,
				Strike:      21050.5,
				StrikeLabel: "21050.50",
			},
			ok: true,
		},
		{
			name:   "futures row does not match",
			symbol: "FUTSTKRELIANCE25-JAN-2024XX0",
		},
		{
			name:   "lowercase ticker does not match",
			symbol: "OPTSTKreliance25-JAN-2024CE2500",
		},
		{
			name:   "missing strike does not match",
			symbol: "OPTSTKRELIANCE25-JAN-2024CE",
		},
		{
			name:   "trailing junk does not match",
			symbol: "OPTSTKRELIANCE25-JAN-2024CE2500XX",
		},
		{
			name:   "empty symbol",
			symbol: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSymbol(tt.symbol)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecomposition_SymbolRoundTrip(t *testing.T) {
	symbols := []string{
		"OPTSTKRELIANCE25-JAN-2024CE2500",
		"OPTIDXBANKNIFTY29-FEB-2024PE44100.25",
		"OPTSTKM25-JAN-2024CE50",
	}

	for _, symbol := range symbols {
		d, ok := ParseSymbol(symbol)
		require.True(t, ok, symbol)
		assert.Equal(t, symbol, d.Symbol())
	}
}
