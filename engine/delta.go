/*
delta.go - Per-reading consumption deltas

PURPOSE:
  Computes the cached derived fields of every reading relative to its
  immediate chronological predecessor. This is the single shared
  implementation behind reading creation, update and deletion: the
  whole series is recomputed so neighboring values can never drift.

EDGE CASES:
  - The first reading has no predecessor: Derived stays nil.
  - DaysSince <= 0 yields PerDay 0, never a division blow-up.
  - A meter regression keeps its exact negative consumption but is
    flagged AnomalyMeterRegression and contributes zero cost.
*/
package engine

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// ComputeDeltas returns the readings sorted chronologically with all
// derived fields recomputed against the given tariffs. The input slice
// is not modified.
func ComputeDeltas(readings []Reading, tariffs []Tariff) []Reading {
	out := make([]Reading, len(readings))
	copy(out, readings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	for i := range out {
		if i == 0 {
			out[i].Derived = nil
			continue
		}
		d := computeDerived(&out[i], &out[i-1], tariffs)
		out[i].Derived = &d
	}
	return out
}

func computeDerived(r, prev *Reading, tariffs []Tariff) Derived {
	consumption := r.MeterValue.Sub(prev.MeterValue)

	elapsed := r.Timestamp.Sub(prev.Timestamp)
	hours := int(math.Round(elapsed.Hours()))
	days := decimal.NewFromFloat(elapsed.Hours() / 24)

	perDay := decimal.Zero
	if days.IsPositive() {
		perDay = consumption.Div(days)
	}

	d := Derived{
		Consumption: consumption,
		HoursSince:  hours,
		DaysSince:   days,
		PerDay:      perDay,
	}

	if consumption.IsNegative() {
		d.Anomaly = AnomalyMeterRegression
		return d
	}

	if consumption.IsPositive() {
		rate := EffectiveRate(TariffFor(r.Timestamp, tariffs))
		d.Cost = consumption.Mul(rate)
	}
	return d
}
