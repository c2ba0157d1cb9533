package engine_test

import (
	"testing"
	"time"

	"github.com/ctcoding/hometracker/engine"
	"github.com/shopspring/decimal"
)

// monthHistory builds n chronological aggregates ending at the month
// before "end", with a flat consumption and the given rate and fixed
// charge applied to every month.
func monthHistory(end time.Time, n int, consumption, rate, fixed, payments float64) []engine.MonthAggregate {
	months := make([]engine.MonthAggregate, 0, n)
	start := end.AddDate(0, -n, 0)
	y, m := start.Year(), start.Month()
	for i := 0; i < n; i++ {
		c := dec(consumption)
		cost := c.Mul(dec(rate)).Add(dec(fixed))
		months = append(months, engine.MonthAggregate{
			Year:         y,
			Month:        m,
			Consumption:  c,
			PricePerKwh:  dec(rate),
			FixedMonthly: dec(fixed),
			Cost:         cost,
			Payments:     dec(payments),
		})
		if m == time.December {
			y, m = y+1, time.January
		} else {
			m++
		}
	}
	return months
}

func TestForecastYear_RequiresFullYearOfHistory(t *testing.T) {
	// GIVEN: Only 12 months of aggregates
	// WHEN: Forecasting
	// THEN: The forecast is empty with a neutral trend factor

	now := date(2024, time.June, 15)
	months := monthHistory(now, 12, 300, 0.15, 20, 95)

	fc := engine.ForecastYear(months, nil, now)

	if len(fc.Months) != 0 {
		t.Fatalf("got %d forecast months, want 0", len(fc.Months))
	}
	assertDecimal(t, 1, fc.TrendFactor, "TrendFactor")
}

func TestForecastYear_TwelveMonthsStartingNext(t *testing.T) {
	// GIVEN: Two years of flat history
	// WHEN: Forecasting from mid June
	// THEN: Twelve months starting July, each repeating the year-ago
	//       consumption at the last known prices

	now := date(2024, time.June, 15)
	months := monthHistory(date(2024, time.July, 1), 24, 300, 0.15, 20, 95)

	fc := engine.ForecastYear(months, nil, now)

	if len(fc.Months) != 12 {
		t.Fatalf("got %d forecast months, want 12", len(fc.Months))
	}
	first := fc.Months[0]
	if first.Year != 2024 || first.Month != time.July {
		t.Fatalf("forecast starts %d-%s, want 2024-July", first.Year, first.Month)
	}
	last := fc.Months[11]
	if last.Year != 2025 || last.Month != time.June {
		t.Fatalf("forecast ends %d-%s, want 2025-June", last.Year, last.Month)
	}

	// Flat history: trend 1.0, every month repeats itself.
	assertDecimal(t, 1, fc.TrendFactor, "TrendFactor")
	assertDecimal(t, 300, first.Consumption, "projected consumption")
	assertDecimal(t, 65, first.Cost, "projected cost") // 300 x 0.15 + 20
	assertDecimal(t, 95, first.Advance, "projected advance")
}

func TestForecastYear_TrendFactor(t *testing.T) {
	// GIVEN: The trailing window consuming 10% more than a year prior
	// WHEN: Forecasting
	// THEN: The trend factor lifts every projection by 10%

	now := date(2024, time.June, 15)
	months := monthHistory(now, 24, 300, 0.15, 20, 95)
	for i := len(months) - 6; i < len(months); i++ {
		months[i].Consumption = dec(330)
	}

	fc := engine.ForecastYear(months, nil, now)

	assertDecimal(t, 1.1, fc.TrendFactor, "TrendFactor")
	// July projects from July 2023 (300 kWh) lifted by the trend.
	assertDecimal(t, 330, fc.Months[0].Consumption, "projected consumption")
}

func TestForecastYear_StandingOrderOverridesDefault(t *testing.T) {
	// GIVEN: A standing order valid from next month
	// WHEN: Forecasting
	// THEN: The order amount replaces the last realized net payment

	now := date(2024, time.June, 15)
	months := monthHistory(now, 24, 300, 0.15, 20, 95)
	orders := []engine.AdvancePayment{{
		MonthlyAmount: dec(120),
		ValidFrom:     date(2024, time.July, 1),
	}}

	fc := engine.ForecastYear(months, orders, now)

	for i, m := range fc.Months {
		if !m.Advance.Equal(dec(120)) {
			t.Fatalf("month %d advance = %s, want 120", i, m.Advance)
		}
	}
}

func TestForecastYear_FallbacksWhenHistoryIsHollow(t *testing.T) {
	// GIVEN: Enough months, but with zero rates, charges and payments
	// WHEN: Forecasting
	// THEN: The documented defaults keep the projection plausible

	now := date(2024, time.June, 15)
	months := monthHistory(now, 13, 0, 0, 0, 0)

	fc := engine.ForecastYear(months, nil, now)

	first := fc.Months[0]
	assertDecimal(t, 200, first.Consumption, "fallback consumption")
	// 200 x 0.14 + 50
	assertDecimal(t, 78, first.Cost, "fallback cost")
	assertDecimal(t, 173, first.Advance, "fallback advance")
}

func TestForecastYear_RunningBalanceCarriesForward(t *testing.T) {
	// GIVEN: Flat history ending at a known running balance
	// WHEN: Forecasting
	// THEN: Each month adds advance minus cost onto the carried balance

	now := date(2024, time.June, 15)
	months := monthHistory(date(2024, time.July, 1), 24, 300, 0.15, 20, 95)
	months[len(months)-1].RunningBalance = dec(100)

	fc := engine.ForecastYear(months, nil, now)

	// Per month: +95 advance, -65 cost.
	want := decimal.NewFromInt(100)
	for i, m := range fc.Months {
		want = want.Add(dec(95)).Sub(dec(65))
		if !m.RunningBalance.Equal(want) {
			t.Fatalf("month %d running balance = %s, want %s", i, m.RunningBalance, want)
		}
	}
	if !fc.ProjectedBalance.Equal(want) {
		t.Errorf("ProjectedBalance = %s, want %s", fc.ProjectedBalance, want)
	}
}
