/*
solar.go - Solar water-heater telemetry valuation

The hot-water element consumes surplus PV energy that would otherwise
have been bought from the grid, so every imported kWh is valued at the
tariff applicable on its day. Uses the same tariff lookup policy as the
billing aggregation.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// defaultSolarRate prices solar telemetry days that predate all
// tariffs.
var defaultSolarRate = decimal.NewFromFloat(0.12)

// SolarReading is one day of water-heater telemetry from the cloud API
// or manual entry.
type SolarReading struct {
	ID        int64
	Date      time.Time // day granularity
	EnergyKwh float64
	Temp1     *float64 // water temperature bottom, degC
	Temp2     *float64 // water temperature top, degC
	Source    Source
	Notes     string
	CreatedAt time.Time
}

// SolarValuation is a solar reading priced against the applicable
// tariff.
type SolarValuation struct {
	SolarReading
	MonthKey    string
	PricePerKwh decimal.Decimal
	Savings     decimal.Decimal
}

// ValueSolarReadings prices each telemetry day at the tariff in effect
// on that day, falling back to a fixed default rate when no tariff
// data exists.
func ValueSolarReadings(readings []SolarReading, tariffs []Tariff) []SolarValuation {
	out := make([]SolarValuation, 0, len(readings))
	for _, r := range readings {
		rate := EffectiveRate(TariffFor(r.Date, tariffs))
		if rate.IsZero() {
			rate = defaultSolarRate
		}
		savings := decimal.NewFromFloat(r.EnergyKwh).Mul(rate)
		out = append(out, SolarValuation{
			SolarReading: r,
			MonthKey:     monthKey(r.Date.Year(), r.Date.Month()),
			PricePerKwh:  rate,
			Savings:      savings,
		})
	}
	return out
}
