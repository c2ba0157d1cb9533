package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ctcoding/hometracker/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func testReading(ts time.Time, meterValue float64) engine.Reading {
	return engine.Reading{
		Timestamp:  ts,
		MeterValue: dec(meterValue),
		Unit:       "kWh",
		Source:     engine.SourceManual,
	}
}

// testTariff builds a tariff with only a working price and base price.
func testTariff(name string, from time.Time, until *time.Time, workingPrice, basePrice float64) engine.Tariff {
	return engine.Tariff{
		Name:         name,
		ValidFrom:    from,
		ValidUntil:   until,
		WorkingPrice: dec(workingPrice),
		BasePrice:    dec(basePrice),
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func assertDecimal(t *testing.T, want float64, got decimal.Decimal, label string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %v", label, got, want)
	}
}

// =============================================================================
// TARIFF LOOKUP TESTS
// =============================================================================

func TestTariffFor_IntervalMatch(t *testing.T) {
	// GIVEN: Two adjacent tariff periods
	// WHEN: Looking up a date inside the second period
	// THEN: The second tariff is selected

	tariffs := []engine.Tariff{
		testTariff("old", date(2023, time.January, 1), timePtr(date(2023, time.December, 31)), 0.10, 120),
		testTariff("new", date(2024, time.January, 1), nil, 0.14, 144),
	}

	got := engine.TariffFor(date(2024, time.June, 15), tariffs)
	if got == nil || got.Name != "new" {
		t.Fatalf("TariffFor = %+v, want tariff 'new'", got)
	}
}

func TestTariffFor_OverlapLatestValidFromWins(t *testing.T) {
	// GIVEN: Two overlapping tariffs
	// WHEN: Looking up a date covered by both
	// THEN: The one with the later ValidFrom wins

	tariffs := []engine.Tariff{
		testTariff("base", date(2024, time.January, 1), nil, 0.10, 120),
		testTariff("override", date(2024, time.June, 1), nil, 0.12, 120),
	}

	got := engine.TariffFor(date(2024, time.August, 1), tariffs)
	if got == nil || got.Name != "override" {
		t.Fatalf("TariffFor = %+v, want 'override'", got)
	}
}

func TestTariffFor_NoMatchFallsBackToClosest(t *testing.T) {
	// GIVEN: Tariffs that all start after the lookup date
	// WHEN: Looking up a date before any validity interval
	// THEN: The closest-by-ValidFrom tariff is returned, never nil

	tariffs := []engine.Tariff{
		testTariff("near", date(2024, time.January, 1), timePtr(date(2024, time.June, 30)), 0.12, 120),
		testTariff("far", date(2025, time.January, 1), nil, 0.15, 150),
	}

	got := engine.TariffFor(date(2023, time.November, 1), tariffs)
	if got == nil || got.Name != "near" {
		t.Fatalf("TariffFor = %+v, want closest tariff 'near'", got)
	}
}

func TestTariffFor_NoTariffs(t *testing.T) {
	if got := engine.TariffFor(date(2024, time.January, 1), nil); got != nil {
		t.Fatalf("TariffFor with no tariffs = %+v, want nil", got)
	}
}

func TestEffectiveRate_SumsAllPerKwhComponents(t *testing.T) {
	tariff := engine.Tariff{
		ValidFrom:    date(2024, time.January, 1),
		WorkingPrice: dec(0.10),
		CO2Price:     dec(0.02),
		GasLevy:      dec(0.005),
	}

	assertDecimal(t, 0.125, engine.EffectiveRate(&tariff), "EffectiveRate")
	assertDecimal(t, 0, engine.EffectiveRate(nil), "EffectiveRate(nil)")
}

func TestFixedMonthly_SplitsYearlyCharges(t *testing.T) {
	tariff := engine.Tariff{
		ValidFrom:     date(2024, time.January, 1),
		BasePrice:     dec(180),
		MeteringPrice: dec(60),
	}

	assertDecimal(t, 20, tariff.FixedMonthly(), "FixedMonthly")
}

// =============================================================================
// ADVANCE ORDER LOOKUP TESTS
// =============================================================================

func TestAdvanceFor_MatchesIntervalWithoutFallback(t *testing.T) {
	// GIVEN: A standing order valid through 2024 only
	// WHEN: Looking up a date in 2025
	// THEN: No order matches (unlike tariffs, there is no closest fallback)

	orders := []engine.AdvancePayment{
		{
			ValidFrom:     date(2024, time.January, 1),
			ValidUntil:    timePtr(date(2024, time.December, 31)),
			MonthlyAmount: dec(95),
		},
	}

	if got := engine.AdvanceFor(date(2024, time.May, 1), orders); got == nil {
		t.Fatal("AdvanceFor inside interval = nil, want the order")
	}
	if got := engine.AdvanceFor(date(2025, time.May, 1), orders); got != nil {
		t.Fatalf("AdvanceFor outside interval = %+v, want nil", got)
	}
}

func TestAdvanceFor_LatestValidFromWins(t *testing.T) {
	orders := []engine.AdvancePayment{
		{ValidFrom: date(2024, time.January, 1), MonthlyAmount: dec(80)},
		{ValidFrom: date(2024, time.July, 1), MonthlyAmount: dec(110)},
	}

	got := engine.AdvanceFor(date(2024, time.September, 1), orders)
	if got == nil {
		t.Fatal("AdvanceFor = nil, want the newer order")
	}
	assertDecimal(t, 110, got.MonthlyAmount, "MonthlyAmount")
}
