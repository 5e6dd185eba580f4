package gains

import (
	"sort"

	"optscan/pkg/contracts/domain"
)

// underlyingKey identifies one (ticker, strike) pair. Expiry and type are
// deliberately absent: the underlying asset does not depend on them, and
// quotes for the same pair across contracts reinforce each other.
type underlyingKey struct {
	Ticker string
	Strike float64
}

// ResolveUnderlying derives the underlying reference price per (ticker,
// strike) pair from merged records. For each pair, rows are ordered newest
// first; the most recent row supplies the primary quote and the next row a
// fallback for dates where the exchange left the cell blank. The display
// value prefers the primary quote and falls back otherwise.
func ResolveUnderlying(records []domain.OptionRecord) []domain.UnderlyingQuote {
	groups := make(map[underlyingKey][]domain.OptionRecord)
	for _, rec := range records {
		if rec.Ticker == "" || rec.Strike <= 0 {
			continue
		}
		k := underlyingKey{Ticker: rec.Ticker, Strike: rec.Strike}
		groups[k] = append(groups[k], rec)
	}

	quotes := make([]domain.UnderlyingQuote, 0, len(groups))
	for k, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Date.After(group[j].Date)
		})

		q := domain.UnderlyingQuote{Ticker: k.Ticker, Strike: k.Strike}
		q.MostRecent, q.HasMostRecent = group[0].Underlying, group[0].HasUnderlying

		if len(group) > 1 && group[1].HasUnderlying {
			q.Fallback, q.HasFallback = group[1].Underlying, true
		} else {
			q.Fallback, q.HasFallback = q.MostRecent, q.HasMostRecent
		}

		if q.HasMostRecent {
			q.Display, q.HasDisplay = q.MostRecent, true
		} else {
			q.Display, q.HasDisplay = q.Fallback, q.HasFallback
		}

		quotes = append(quotes, q)
	}

	sort.Slice(quotes, func(i, j int) bool {
		if quotes[i].Ticker != quotes[j].Ticker {
			return quotes[i].Ticker < quotes[j].Ticker
		}
		return quotes[i].Strike < quotes[j].Strike
	})
	return quotes
}

// AttachUnderlying joins resolved quotes onto gain records in place, filling
// DisplayUnderlying for every record whose (ticker, strike) pair resolved.
func AttachUnderlying(gainRecords []domain.GainRecord, quotes []domain.UnderlyingQuote) {
	index := make(map[underlyingKey]domain.UnderlyingQuote, len(quotes))
	for _, q := range quotes {
		index[underlyingKey{Ticker: q.Ticker, Strike: q.Strike}] = q
	}
	for i := range gainRecords {
		q, ok := index[underlyingKey{Ticker: gainRecords[i].Ticker, Strike: gainRecords[i].Strike}]
		if ok && q.HasDisplay {
			gainRecords[i].DisplayUnderlying = q.Display
			gainRecords[i].HasDisplayUnderlying = true
		}
	}
}
