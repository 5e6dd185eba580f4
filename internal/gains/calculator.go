package gains

import (
	"sort"

	"optscan/pkg/contracts/domain"
)

// Calculate builds the day-wise gain report from merged option records.
//
// Records are grouped by contract key; rows with an incomplete key (the
// symbol never decomposed) are excluded. Within each group, rows are ordered
// by trading date and the gain is the percentage change from a reference low
// to the group's latest close.
//
// days selects the reference low: days <= 0 takes the minimum low over the
// whole history, days > 0 takes the low observed days trading days back. A
// group shorter than the requested window falls back to its earliest low and
// is flagged with InsufficientHistory.
func Calculate(records []domain.OptionRecord, days int) []domain.GainRecord {
	groups := make(map[domain.ContractKey][]domain.OptionRecord)
	for _, rec := range records {
		key := rec.Key()
		if !key.IsComplete() {
			continue
		}
		groups[key] = append(groups[key], rec)
	}

	gains := make([]domain.GainRecord, 0, len(groups))
	for key, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Date.Before(group[j].Date)
		})

		g := domain.GainRecord{
			ContractKey:  key,
			Kind:         group[len(group)-1].Kind,
			LatestClose:  group[len(group)-1].Close,
			Observations: len(group),
		}
		g.ReferenceLow, g.InsufficientHistory = referenceLow(group, days)
		g.GainPercent = gainPercent(g.ReferenceLow, g.LatestClose)

		gains = append(gains, g)
	}

	sort.Slice(gains, func(i, j int) bool {
		return gains[i].ContractKey.Less(gains[j].ContractKey)
	})
	return gains
}

// referenceLow picks the low price the gain is measured against. The group
// must be non-empty and date-ordered.
func referenceLow(group []domain.OptionRecord, days int) (low float64, insufficient bool) {
	if days <= 0 {
		low = group[0].Low
		for _, rec := range group[1:] {
			if rec.Low < low {
				low = rec.Low
			}
		}
		return low, false
	}
	if len(group) >= days {
		return group[len(group)-days].Low, false
	}
	return group[0].Low, true
}

// gainPercent returns the percentage change from low to close, zero when the
// low itself is zero.
func gainPercent(low, close float64) float64 {
	if low == 0 {
		return 0
	}
	return (close - low) / low * 100
}
