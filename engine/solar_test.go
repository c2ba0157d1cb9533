package engine_test

import (
	"testing"
	"time"

	"github.com/ctcoding/hometracker/engine"
)

func TestValueSolarReadings_PricedAtDailyTariff(t *testing.T) {
	// GIVEN: Telemetry days straddling a tariff change
	// WHEN: Valuing them
	// THEN: Each day uses the tariff in effect on that day

	until := date(2024, time.March, 31)
	tariffs := []engine.Tariff{
		testTariff("old", date(2023, time.January, 1), &until, 0.10, 120),
		testTariff("new", date(2024, time.April, 1), nil, 0.20, 120),
	}
	readings := []engine.SolarReading{
		{Date: date(2024, time.March, 30), EnergyKwh: 5, Source: engine.SourceCloud},
		{Date: date(2024, time.April, 2), EnergyKwh: 5, Source: engine.SourceCloud},
	}

	out := engine.ValueSolarReadings(readings, tariffs)

	assertDecimal(t, 0.5, out[0].Savings, "March savings")
	assertDecimal(t, 1, out[1].Savings, "April savings")
	if out[0].MonthKey != "2024-03" || out[1].MonthKey != "2024-04" {
		t.Errorf("month keys = %q, %q", out[0].MonthKey, out[1].MonthKey)
	}
}

func TestValueSolarReadings_DefaultRateWithoutTariffs(t *testing.T) {
	// GIVEN: No tariff data at all
	// WHEN: Valuing a telemetry day
	// THEN: The fixed default grid rate applies

	out := engine.ValueSolarReadings([]engine.SolarReading{
		{Date: date(2024, time.June, 1), EnergyKwh: 10},
	}, nil)

	assertDecimal(t, 1.2, out[0].Savings, "savings at default rate")
}
