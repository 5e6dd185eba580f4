package gains

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optscan/pkg/contracts/domain"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func contractRow(ticker string, strike float64, d time.Time, low, close float64) domain.OptionRecord {
	return domain.OptionRecord{
		Symbol: "OPTSTK" + ticker + "25-JAN-2024CE" + domain.FormatStrike(strike),
		Kind:   domain.KindStockOption,
		Ticker: ticker,
		Expiry: "25-JAN-2024",
		Type:   domain.TypeCall,
		Strike: strike,
		Low:    low,
		Close:  close,
		Date:   d,
	}
}

func TestCalculate_ReferenceLowSelection(t *testing.T) {
	history := []domain.OptionRecord{
		contractRow("ABC", 100, day(1), 10, 11),
		contractRow("ABC", 100, day(2), 8, 9),
		contractRow("ABC", 100, day(3), 12, 15),
	}

	tests := []struct {
		name             string
		days             int
		wantLow          float64
		wantGain         float64
		wantInsufficient bool
	}{
		{
			name:     "full history uses minimum low",
			days:     0,
			wantLow:  8,
			wantGain: 87.5,
		},
		{
			name:     "window of two uses low two days back",
			days:     2,
			wantLow:  8,
			wantGain: 87.5,
		},
		{
			name:     "window equal to history length uses earliest low",
			days:     3,
			wantLow:  10,
			wantGain: 50,
		},
		{
			name:             "window longer than history falls back to earliest low",
			days:             5,
			wantLow:          10,
			wantGain:         50,
			wantInsufficient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gains := Calculate(history, tt.days)
			require.Len(t, gains, 1)

			g := gains[0]
			assert.Equal(t, "ABC", g.Ticker)
			assert.Equal(t, tt.wantLow, g.ReferenceLow)
			assert.Equal(t, 15.0, g.LatestClose)
			assert.InDelta(t, tt.wantGain, g.GainPercent, 1e-9)
			assert.Equal(t, 3, g.Observations)
			assert.Equal(t, tt.wantInsufficient, g.InsufficientHistory)
		})
	}
}

func TestCalculate_ZeroLowYieldsZeroGain(t *testing.T) {
	history := []domain.OptionRecord{
		contractRow("XYZ", 50, day(1), 0, 4),
	}

	gains := Calculate(history, 0)
	require.Len(t, gains, 1)
	assert.Zero(t, gains[0].GainPercent)
	assert.Zero(t, gains[0].ReferenceLow)
}

func TestCalculate_SkipsIncompleteKeys(t *testing.T) {
	records := []domain.OptionRecord{
		{Symbol: "GARBLED-ROW", Low: 1, Close: 2, Date: day(1)},
		contractRow("ABC", 100, day(1), 10, 12),
	}

	gains := Calculate(records, 0)
	require.Len(t, gains, 1)
	assert.Equal(t, "ABC", gains[0].Ticker)
}

func TestCalculate_OrdersRowsByDateBeforeWindowing(t *testing.T) {
	// Rows arrive newest first; the window must still count from the
	// chronological end.
	history := []domain.OptionRecord{
		contractRow("ABC", 100, day(3), 12, 15),
		contractRow("ABC", 100, day(1), 10, 11),
		contractRow("ABC", 100, day(2), 8, 9),
	}

	gains := Calculate(history, 1)
	require.Len(t, gains, 1)
	assert.Equal(t, 12.0, gains[0].ReferenceLow)
	assert.Equal(t, 15.0, gains[0].LatestClose)
}

func TestCalculate_DeterministicKeyOrder(t *testing.T) {
	records := []domain.OptionRecord{
		contractRow("ZEE", 100, day(1), 5, 6),
		contractRow("ABC", 200, day(1), 5, 6),
		contractRow("ABC", 100, day(1), 5, 6),
	}

	first := Calculate(records, 0)
	second := Calculate(records, 0)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, "ABC", first[0].Ticker)
	assert.Equal(t, 100.0, first[0].Strike)
	assert.Equal(t, 200.0, first[1].Strike)
	assert.Equal(t, "ZEE", first[2].Ticker)
}

func TestCalculate_SeparatesContractsByType(t *testing.T) {
	call := contractRow("ABC", 100, day(1), 10, 20)
	put := call
	put.Type = domain.TypePut
	put.Low = 4
	put.Close = 5

	gains := Calculate([]domain.OptionRecord{call, put}, 0)
	require.Len(t, gains, 2)
	assert.InDelta(t, 100.0, gains[0].GainPercent, 1e-9)
	assert.InDelta(t, 25.0, gains[1].GainPercent, 1e-9)
}
