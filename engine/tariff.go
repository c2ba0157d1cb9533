/*
tariff.go - Tariff lookup policy

PURPOSE:
  Answers "which tariff prices this instant?" for delta computation,
  monthly aggregation and forecasting. All three call sites share this
  one implementation.

POLICY (deliberate, documented approximations):
  1. Filter tariffs whose validity interval contains the date.
  2. On overlap, the tariff with the latest ValidFrom wins - the most
     recent override is the most specific.
  3. When nothing matches, fall back to the tariff whose ValidFrom is
     closest to the date. Historical consumption always gets SOME price
     rather than zero; figures for out-of-range dates are approximate.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// TariffFor returns the tariff applicable at the given instant, or nil
// when no tariffs exist at all.
func TariffFor(at time.Time, tariffs []Tariff) *Tariff {
	var match *Tariff
	for i := range tariffs {
		t := &tariffs[i]
		if !t.Contains(at) {
			continue
		}
		if match == nil || t.ValidFrom.After(match.ValidFrom) {
			match = t
		}
	}
	if match != nil {
		return match
	}

	// ClosestTariff fallback: no interval contains the date, so pick
	// the tariff starting nearest to it.
	var closest *Tariff
	var closestDist time.Duration
	for i := range tariffs {
		t := &tariffs[i]
		dist := at.Sub(t.ValidFrom)
		if dist < 0 {
			dist = -dist
		}
		if closest == nil || dist < closestDist {
			closest = t
			closestDist = dist
		}
	}
	return closest
}

// EffectiveRate is the per-kWh price of a tariff lookup result: the
// total price when surcharges are present, zero when no tariff exists.
func EffectiveRate(t *Tariff) decimal.Decimal {
	if t == nil {
		return decimal.Zero
	}
	return t.TotalPricePerKwh()
}

// AdvanceFor returns the standing order applicable at the given
// instant using the same validity-interval rule as tariffs: the latest
// matching ValidFrom wins. Nil when no order matches (no closest
// fallback here - the forecast substitutes its own default instead).
func AdvanceFor(at time.Time, orders []AdvancePayment) *AdvancePayment {
	var match *AdvancePayment
	for i := range orders {
		a := &orders[i]
		if !a.Contains(at) {
			continue
		}
		if match == nil || a.ValidFrom.After(match.ValidFrom) {
			match = a
		}
	}
	return match
}
