/*
stats.go - Dashboard summary statistics

Averages only consider readings with positive deltas so a single
anomalous entry never drags the dashboard figures negative.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statistics is the dashboard summary over all readings.
type Statistics struct {
	TotalReadings            int
	AverageConsumption       decimal.Decimal // mean delta between readings, kWh
	AverageConsumptionPerDay decimal.Decimal // kWh/day
	TotalConsumption         decimal.Decimal // last meter value - first
	LastReading              *Reading
	DaysSinceLastReading     int
}

// ComputeStatistics summarizes a chronologically computed reading
// series (the output of ComputeDeltas).
func ComputeStatistics(readings []Reading, now time.Time) Statistics {
	stats := Statistics{
		TotalReadings:            len(readings),
		AverageConsumption:       decimal.Zero,
		AverageConsumptionPerDay: decimal.Zero,
		TotalConsumption:         decimal.Zero,
	}
	if len(readings) == 0 {
		return stats
	}

	sumConsumption, nConsumption := decimal.Zero, 0
	sumPerDay, nPerDay := decimal.Zero, 0
	for _, r := range readings {
		if r.Derived == nil {
			continue
		}
		if r.Derived.Consumption.IsPositive() {
			sumConsumption = sumConsumption.Add(r.Derived.Consumption)
			nConsumption++
		}
		if r.Derived.PerDay.IsPositive() {
			sumPerDay = sumPerDay.Add(r.Derived.PerDay)
			nPerDay++
		}
	}
	if nConsumption > 0 {
		stats.AverageConsumption = sumConsumption.Div(decimal.NewFromInt(int64(nConsumption)))
	}
	if nPerDay > 0 {
		stats.AverageConsumptionPerDay = sumPerDay.Div(decimal.NewFromInt(int64(nPerDay)))
	}

	if len(readings) > 1 {
		stats.TotalConsumption = readings[len(readings)-1].MeterValue.Sub(readings[0].MeterValue)
	}

	last := readings[len(readings)-1]
	stats.LastReading = &last
	stats.DaysSinceLastReading = int(now.Sub(last.Timestamp).Hours() / 24)
	return stats
}
