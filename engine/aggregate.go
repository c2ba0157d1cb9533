/*
aggregate.go - Monthly aggregation and running balance

PURPOSE:
  Folds the three input sequences into one MonthAggregate per calendar
  month that contains at least one reading, chronologically ascending,
  with the running balance accumulated across months.

ALGORITHM (per month, in order):
  1. StartValue = previous month's EndValue when available, else the
     month's first reading. EndValue = the month's last reading.
  2. Consumption = EndValue - StartValue. The current, in-progress
     month is linearly extrapolated to the full month length and
     flagged IsProjected; extrapolation is skipped when the covered
     span already reaches the month length or is not positive.
  3. Cost = Consumption x rate(mid-month tariff) + fixed monthly
     charge. The 15th is the deliberate lookup anchor so a mid-month
     tariff change never splits a month's cost.
  4. Payments net refunds against advances and settlements.
  5. RunningBalance accumulates (payments - cost), seeded at zero.

  Recomputation over an unchanged snapshot is bit-identical: this is a
  pure projection that never mutates its inputs.
*/
package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AggregateMonths computes the full balance sheet from a snapshot of
// readings, tariffs and payments. now anchors the detection of the
// current (projected) month; callers pass request time so the engine
// stays a pure function. Fixed monthly charges accrue in every covered
// month, including months without a consumption delta.
func AggregateMonths(readings []Reading, tariffs []Tariff, payments []Payment, now time.Time) BalanceSheet {
	sheet := BalanceSheet{
		TotalCost:     decimal.Zero,
		TotalPayments: decimal.Zero,
		Balance:       decimal.Zero,
	}
	if len(readings) < 2 {
		return sheet
	}

	sorted := make([]Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	// Group by calendar month, keeping chronological key order.
	byMonth := make(map[string][]Reading)
	var keys []string
	for _, r := range sorted {
		k := monthKey(r.Timestamp.Year(), r.Timestamp.Month())
		if _, ok := byMonth[k]; !ok {
			keys = append(keys, k)
		}
		byMonth[k] = append(byMonth[k], r)
	}
	sort.Strings(keys)

	currentKey := monthKey(now.Year(), now.Month())

	var prevEndValue *decimal.Decimal
	var prevEndTime *time.Time

	for _, key := range keys {
		monthReadings := byMonth[key]
		first := monthReadings[0]
		last := monthReadings[len(monthReadings)-1]
		year, month := first.Timestamp.Year(), first.Timestamp.Month()

		startValue := first.MeterValue
		if prevEndValue != nil {
			startValue = *prevEndValue
		}
		endValue := last.MeterValue
		consumption := endValue.Sub(startValue)
		projected := false

		// Extrapolate the in-progress month to a full-month estimate.
		if key == currentKey && consumption.IsPositive() {
			spanStart := first.Timestamp
			if prevEndTime != nil {
				spanStart = *prevEndTime
			}
			daysCovered := last.Timestamp.Sub(spanStart).Hours() / 24
			monthDays := float64(daysInMonth(year, month))
			if daysCovered > 0 && daysCovered < monthDays {
				dailyRate := consumption.Div(decimal.NewFromFloat(daysCovered))
				consumption = dailyRate.Mul(decimal.NewFromFloat(monthDays))
				projected = true
			}
		}

		endVal := endValue
		endTime := last.Timestamp
		prevEndValue = &endVal
		prevEndTime = &endTime

		tariff := TariffFor(midMonth(year, month), tariffs)
		rate := EffectiveRate(tariff)
		fixed := decimal.Zero
		tariffName := "no tariff"
		if tariff != nil {
			fixed = tariff.FixedMonthly()
			tariffName = tariff.Name
		}
		cost := consumption.Mul(rate).Add(fixed)
		sheet.TotalCost = sheet.TotalCost.Add(cost)

		paymentsIn, refunds := sumPaymentsIn(payments, year, month)
		net := paymentsIn.Sub(refunds)
		sheet.TotalPayments = sheet.TotalPayments.Add(net)

		sheet.Months = append(sheet.Months, MonthAggregate{
			Year:           year,
			Month:          month,
			StartValue:     startValue,
			EndValue:       endValue,
			Consumption:    consumption,
			IsProjected:    projected,
			TariffName:     tariffName,
			PricePerKwh:    rate,
			FixedMonthly:   fixed,
			Cost:           cost,
			PaymentsIn:     paymentsIn,
			Refunds:        refunds,
			Payments:       net,
			RunningBalance: sheet.TotalPayments.Sub(sheet.TotalCost),
		})
	}

	sheet.Balance = sheet.TotalPayments.Sub(sheet.TotalCost)
	return sheet
}

// sumPaymentsIn splits a month's realized payments into inflows
// (advances and settlements) and refunds.
func sumPaymentsIn(payments []Payment, year int, month time.Month) (in, refunds decimal.Decimal) {
	in, refunds = decimal.Zero, decimal.Zero
	for _, p := range payments {
		if p.Date.Year() != year || p.Date.Month() != month {
			continue
		}
		if p.Type == PaymentRefund {
			refunds = refunds.Add(p.Amount)
		} else {
			in = in.Add(p.Amount)
		}
	}
	return in, refunds
}
