/*
forecast.go - Seasonal-naive 12-month projection

PURPOSE:
  Projects the next 12 calendar months of consumption, cost and running
  balance from the monthly aggregates and the standing advance-payment
  orders. This is a simple multiplicative seasonal-naive forecast, not
  a statistical model.

ALGORITHM:
  - Trend factor: average ratio of each of the last 6 non-projected
    months' consumption to the same calendar month one year prior,
    defaulting to 1.0 when no year-ago data matches.
  - Projected consumption: same month last year x trend factor, with a
    fixed fallback when the year-ago month is missing.
  - Projected cost: consumption x last known rate + last known fixed
    charge.
  - Advance: standing order matched by validity interval, else the most
    recent realized month's net payment, else a fixed default.
  - Running balance carries forward from the last realized balance.

GUARD:
  Fewer than 13 months of history returns an empty forecast - one full
  year of same-month comparisons plus the month being projected.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// minForecastHistory is the number of monthly aggregates required
// before a forecast is attempted.
const minForecastHistory = 13

// trendWindow is how many trailing months feed the trend factor.
const trendWindow = 6

// Fallbacks when history or tariff data is missing. These mirror the
// long-run averages of a single-household installation and keep the
// forecast plausible rather than zeroed.
var (
	fallbackConsumption = decimal.NewFromInt(200)    // kWh/month
	fallbackRate        = decimal.NewFromFloat(0.14) // EUR/kWh
	fallbackFixed       = decimal.NewFromInt(50)     // EUR/month
	fallbackAdvance     = decimal.NewFromInt(173)    // EUR/month
)

// ForecastMonth is one projected calendar month.
type ForecastMonth struct {
	Year  int
	Month time.Month

	Consumption     decimal.Decimal // projected kWh, whole units
	BaseConsumption decimal.Decimal // same month last year, pre-trend
	Cost            decimal.Decimal
	Advance         decimal.Decimal
	RunningBalance  decimal.Decimal
}

// Forecast is the 12-month projection result.
type Forecast struct {
	Months           []ForecastMonth
	TrendFactor      decimal.Decimal
	ProjectedBalance decimal.Decimal
}

// ForecastYear projects the next 12 calendar months following now.
// months must be the chronological output of AggregateMonths.
func ForecastYear(months []MonthAggregate, orders []AdvancePayment, now time.Time) Forecast {
	if len(months) < minForecastHistory {
		return Forecast{TrendFactor: decimal.NewFromInt(1)}
	}

	trend := trendFactor(months)

	last := months[len(months)-1]
	balance := last.RunningBalance

	rate := last.PricePerKwh
	if rate.IsZero() {
		rate = fallbackRate
	}
	fixed := last.FixedMonthly
	if fixed.IsZero() {
		fixed = fallbackFixed
	}
	defaultAdvance := last.Payments
	if defaultAdvance.IsZero() {
		defaultAdvance = fallbackAdvance
	}

	fc := Forecast{TrendFactor: trend}

	year, month := nextMonth(now.Year(), now.Month())
	for i := 0; i < 12; i++ {
		base := fallbackConsumption
		if prior := findMonth(months, year-1, month); prior != nil && !prior.Consumption.IsZero() {
			base = prior.Consumption
		}
		consumption := base.Mul(trend).Round(0)
		cost := consumption.Mul(rate).Add(fixed)

		advance := defaultAdvance
		if order := AdvanceFor(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), orders); order != nil {
			advance = order.MonthlyAmount
		}

		balance = balance.Add(advance).Sub(cost)

		fc.Months = append(fc.Months, ForecastMonth{
			Year:            year,
			Month:           month,
			Consumption:     consumption,
			BaseConsumption: base,
			Cost:            cost,
			Advance:         advance,
			RunningBalance:  balance,
		})
		year, month = nextMonth(year, month)
	}

	fc.ProjectedBalance = balance
	return fc
}

// trendFactor averages the consumption ratio of recent non-projected
// months against the same calendar month one year earlier.
func trendFactor(months []MonthAggregate) decimal.Decimal {
	start := len(months) - trendWindow
	if start < 0 {
		start = 0
	}

	sum := decimal.Zero
	count := 0
	for _, m := range months[start:] {
		if m.IsProjected {
			continue
		}
		prior := findMonth(months, m.Year-1, m.Month)
		if prior == nil || !prior.Consumption.IsPositive() {
			continue
		}
		sum = sum.Add(m.Consumption.Div(prior.Consumption))
		count++
	}
	if count == 0 {
		return decimal.NewFromInt(1)
	}
	return sum.Div(decimal.NewFromInt(int64(count)))
}

func findMonth(months []MonthAggregate, year int, month time.Month) *MonthAggregate {
	for i := range months {
		if months[i].Year == year && months[i].Month == month {
			return &months[i]
		}
	}
	return nil
}
