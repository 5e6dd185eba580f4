package gains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optscan/pkg/contracts/domain"
)

func quoteRow(ticker string, strike float64, dayN int, underlying float64, has bool) domain.OptionRecord {
	rec := contractRow(ticker, strike, day(dayN), 1, 2)
	rec.Underlying = underlying
	rec.HasUnderlying = has
	return rec
}

func TestResolveUnderlying_PrefersMostRecentQuote(t *testing.T) {
	records := []domain.OptionRecord{
		quoteRow("ABC", 100, 1, 95, true),
		quoteRow("ABC", 100, 2, 98, true),
	}

	quotes := ResolveUnderlying(records)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.True(t, q.HasMostRecent)
	assert.Equal(t, 98.0, q.MostRecent)
	assert.True(t, q.HasFallback)
	assert.Equal(t, 95.0, q.Fallback)
	assert.Equal(t, 98.0, q.Display)
}

func TestResolveUnderlying_FallsBackWhenLatestMissing(t *testing.T) {
	records := []domain.OptionRecord{
		quoteRow("ABC", 100, 1, 95, true),
		quoteRow("ABC", 100, 2, 0, false),
	}

	quotes := ResolveUnderlying(records)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.False(t, q.HasMostRecent)
	assert.True(t, q.HasFallback)
	assert.Equal(t, 95.0, q.Fallback)
	assert.True(t, q.HasDisplay)
	assert.Equal(t, 95.0, q.Display)
}

func TestResolveUnderlying_SingleMissingRowHasNoDisplay(t *testing.T) {
	quotes := ResolveUnderlying([]domain.OptionRecord{
		quoteRow("ABC", 100, 1, 0, false),
	})
	require.Len(t, quotes, 1)
	assert.False(t, quotes[0].HasDisplay)
}

func TestResolveUnderlying_GroupsAcrossExpiries(t *testing.T) {
	// Same ticker and strike on two expiries is still one underlying pair.
	a := quoteRow("ABC", 100, 1, 95, true)
	b := quoteRow("ABC", 100, 2, 98, true)
	b.Expiry = "29-FEB-2024"

	quotes := ResolveUnderlying([]domain.OptionRecord{a, b})
	require.Len(t, quotes, 1)
	assert.Equal(t, 98.0, quotes[0].Display)
}

func TestAttachUnderlying(t *testing.T) {
	records := []domain.OptionRecord{
		quoteRow("ABC", 100, 1, 95, true),
		quoteRow("XYZ", 50, 1, 0, false),
	}

	gainRecords := Calculate(records, 0)
	require.Len(t, gainRecords, 2)

	AttachUnderlying(gainRecords, ResolveUnderlying(records))

	assert.True(t, gainRecords[0].HasDisplayUnderlying)
	assert.Equal(t, 95.0, gainRecords[0].DisplayUnderlying)
	assert.False(t, gainRecords[1].HasDisplayUnderlying)
}
