/*
Package engine implements the tariff-aware consumption and balance
reconciliation engine.

PURPOSE:
  This package contains the pure domain types and algorithms for turning
  three chronological input sequences - meter readings, tariffs and
  payments - into derived consumption figures, monthly cost aggregates,
  a running account balance and a forward 12-month forecast.

KEY CONCEPTS IN THIS FILE (types.go):
  - Reading: A meter observation with cached derived fields
  - Tariff: A priced plan valid over a date interval
  - Payment: A dated, signed monetary event (advance/settlement/refund)
  - AdvancePayment: A standing monthly order, used only for forecasting
  - MonthAggregate: A derived per-month view, never stored authoritatively

DESIGN PRINCIPLES:
  1. Purity: every computation is a function of its inputs; the engine
     owns no mutable state and performs no I/O.
  2. Precision: decimal.Decimal for all money and meter arithmetic.
  3. Idempotence: recomputing over an unchanged snapshot yields
     identical output.
  4. Derived values are cache: Reading.Derived and MonthAggregate are
     recomputed whenever inputs change and must never be treated as
     independently authoritative.

SEE ALSO:
  - tariff.go:    Tariff lookup policy (latest-wins, closest fallback)
  - delta.go:     Per-reading consumption deltas and anomaly flagging
  - aggregate.go: Monthly aggregation and running balance
  - forecast.go:  Seasonal-naive 12-month projection
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// READING - Meter observation with cached derived fields
// =============================================================================

// Source tags where a reading came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceOCR    Source = "ocr"
	SourceImport Source = "import"
	SourceCloud  Source = "cloud"
)

// Anomaly classifies data-quality problems detected during delta
// computation. An anomalous reading keeps its exact computed values but
// is surfaced distinctly instead of silently corrupting aggregates.
type Anomaly string

const (
	// AnomalyMeterRegression marks a reading whose meter value is below
	// its chronological predecessor (meter reset, billing correction or
	// manual entry error). The negative delta is preserved as computed.
	AnomalyMeterRegression Anomaly = "meter_regression"
)

// Reading is a single meter observation. MeterValue is a monotonic
// counter in kWh; a decrease is flagged, not silently accepted.
type Reading struct {
	ID         int64
	Timestamp  time.Time
	MeterValue decimal.Decimal
	Unit       string // always "kWh"

	// Optional covariates captured from Home Assistant.
	OutdoorTemp      *float64
	OutdoorTempNight *float64
	WeatherCondition string
	BrightnessAvg    *float64

	Source Source
	Notes  string
	Synced bool

	// Derived is computed relative to the chronologically previous
	// reading. Nil for the very first reading - "no predecessor" must
	// not be conflated with zero consumption.
	Derived *Derived
}

// Derived holds the cache values computed from a reading and its
// immediate predecessor.
type Derived struct {
	Consumption decimal.Decimal // kWh delta, exact, may be negative
	HoursSince  int             // rounded
	DaysSince   decimal.Decimal // fractional
	PerDay      decimal.Decimal // kWh/day, 0 when DaysSince <= 0
	Cost        decimal.Decimal // consumption x effective rate
	Anomaly     Anomaly         // "" when the reading is clean
}

// =============================================================================
// TARIFF - Priced plan over a validity interval
// =============================================================================

// Tariff combines a per-kWh working price, optional additive per-kWh
// surcharges and yearly fixed components normalized to a monthly charge.
// ValidUntil == nil means open-ended.
type Tariff struct {
	ID         int64
	Name       string
	Provider   string
	ValidFrom  time.Time
	ValidUntil *time.Time

	WorkingPrice  decimal.Decimal // EUR/kWh
	BasePrice     decimal.Decimal // EUR/year
	CO2Price      decimal.Decimal // EUR/kWh
	GasLevy       decimal.Decimal // EUR/kWh
	MeteringPrice decimal.Decimal // EUR/year

	Notes string
}

// TotalPricePerKwh is the full variable rate: working price plus all
// per-kWh surcharges.
func (t Tariff) TotalPricePerKwh() decimal.Decimal {
	return t.WorkingPrice.Add(t.CO2Price).Add(t.GasLevy)
}

// FixedMonthly normalizes the yearly fixed components to one month.
func (t Tariff) FixedMonthly() decimal.Decimal {
	return t.BasePrice.Add(t.MeteringPrice).Div(decimal.NewFromInt(12))
}

// Contains reports whether the instant falls inside the validity
// interval [ValidFrom, ValidUntil], treating nil ValidUntil as open.
func (t Tariff) Contains(at time.Time) bool {
	if at.Before(t.ValidFrom) {
		return false
	}
	return t.ValidUntil == nil || !at.After(*t.ValidUntil)
}

// =============================================================================
// PAYMENT - Realized monetary event
// =============================================================================

// PaymentType is a tagged variant with explicit sign handling.
// Advances and settlements add to the realized total, refunds subtract.
type PaymentType string

const (
	PaymentAdvance    PaymentType = "advance"
	PaymentSettlement PaymentType = "settlement"
	PaymentRefund     PaymentType = "refund"
)

// Sign returns +1 for money paid to the supplier, -1 for money paid
// back. Unknown types count as +1 so a bad tag never drops a payment.
func (t PaymentType) Sign() decimal.Decimal {
	if t == PaymentRefund {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Valid reports whether the type is one of the known variants.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentAdvance, PaymentSettlement, PaymentRefund:
		return true
	}
	return false
}

// Payment is a realized, dated monetary event.
type Payment struct {
	ID            int64
	Date          time.Time
	Type          PaymentType
	Amount        decimal.Decimal // always recorded positive
	Description   string
	InvoiceNumber string
}

// =============================================================================
// ADVANCE PAYMENT - Standing monthly order
// =============================================================================

// AdvancePayment is a validity-dated recurring monthly amount. It is
// distinct from realized Payments and only feeds the forecast, never
// the realized balance.
type AdvancePayment struct {
	ID            int64
	ValidFrom     time.Time
	ValidUntil    *time.Time
	MonthlyAmount decimal.Decimal
	Notes         string
}

// Contains mirrors Tariff.Contains for the order's validity interval.
func (a AdvancePayment) Contains(at time.Time) bool {
	if at.Before(a.ValidFrom) {
		return false
	}
	return a.ValidUntil == nil || !at.After(*a.ValidUntil)
}

// =============================================================================
// MONTH AGGREGATE - Derived per-month view
// =============================================================================

// MonthAggregate is one calendar month of the reconciliation output.
// It is a pure projection of readings+tariffs+payments: safe to discard
// and recompute at any time.
type MonthAggregate struct {
	Year  int
	Month time.Month

	StartValue  decimal.Decimal
	EndValue    decimal.Decimal
	Consumption decimal.Decimal
	IsProjected bool // current month, linearly extrapolated

	TariffName   string
	PricePerKwh  decimal.Decimal
	FixedMonthly decimal.Decimal
	Cost         decimal.Decimal

	PaymentsIn decimal.Decimal // advances + settlements
	Refunds    decimal.Decimal
	Payments   decimal.Decimal // net: PaymentsIn - Refunds

	RunningBalance decimal.Decimal // cumulative payments - cost
}

// Key returns the "YYYY-MM" month key used across the API.
func (m MonthAggregate) Key() string {
	return monthKey(m.Year, m.Month)
}

// BalanceSheet is the full reconciliation result: the chronological
// month sequence plus totals. RunningBalance of the last month equals
// Balance.
type BalanceSheet struct {
	TotalCost     decimal.Decimal
	TotalPayments decimal.Decimal
	Balance       decimal.Decimal
	Months        []MonthAggregate
}

// =============================================================================
// CALENDAR HELPERS
// =============================================================================

func monthKey(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// midMonth returns the 15th of the given month, the deliberate tariff
// lookup anchor that avoids splitting cost across a mid-month tariff
// change.
func midMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 15, 0, 0, 0, 0, time.UTC)
}

// daysInMonth returns the number of calendar days in the month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// nextMonth advances a year/month pair by one calendar month.
func nextMonth(year int, month time.Month) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return t.Year(), t.Month()
}
