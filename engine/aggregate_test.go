package engine_test

import (
	"testing"
	"time"

	"github.com/ctcoding/hometracker/engine"
)

func testPayment(d time.Time, typ engine.PaymentType, amount float64) engine.Payment {
	return engine.Payment{Date: d, Type: typ, Amount: dec(amount)}
}

func TestAggregateMonths_NeedsTwoReadings(t *testing.T) {
	// GIVEN: Fewer than two readings
	// WHEN: Aggregating
	// THEN: The sheet is empty, consumption needs a delta

	now := date(2024, time.June, 1)
	sheet := engine.AggregateMonths([]engine.Reading{
		testReading(date(2024, time.January, 1), 1000),
	}, nil, nil, now)

	if len(sheet.Months) != 0 {
		t.Fatalf("got %d months, want 0", len(sheet.Months))
	}
	assertDecimal(t, 0, sheet.Balance, "Balance")
}

func TestAggregateMonths_CarryoverAndCost(t *testing.T) {
	// GIVEN: Readings on Jan 1 and Feb 1 with a 0.15/kWh + 20/month tariff
	// WHEN: Aggregating well after February
	// THEN: February starts from January's end value, consumes 200 kWh
	//       and costs 50.00; January has no delta but still carries the
	//       fixed monthly charge

	tariffs := []engine.Tariff{
		testTariff("flat", date(2023, time.January, 1), nil, 0.15, 240),
	}
	readings := []engine.Reading{
		testReading(date(2024, time.January, 1), 1000),
		testReading(date(2024, time.February, 1), 1200),
	}
	sheet := engine.AggregateMonths(readings, tariffs, nil, date(2024, time.June, 1))

	if len(sheet.Months) != 2 {
		t.Fatalf("got %d months, want 2", len(sheet.Months))
	}

	jan := sheet.Months[0]
	if jan.Key() != "2024-01" {
		t.Errorf("first month key = %q, want 2024-01", jan.Key())
	}
	assertDecimal(t, 0, jan.Consumption, "January consumption")
	assertDecimal(t, 20, jan.Cost, "January cost")

	feb := sheet.Months[1]
	assertDecimal(t, 1000, feb.StartValue, "February start value")
	assertDecimal(t, 200, feb.Consumption, "February consumption")
	assertDecimal(t, 50, feb.Cost, "February cost")
	if feb.IsProjected {
		t.Error("February flagged projected, but it is fully in the past")
	}
	assertDecimal(t, -70, sheet.Balance, "Balance")
}

func TestAggregateMonths_RefundsNetAgainstPayments(t *testing.T) {
	// GIVEN: A month with an advance, a settlement and a refund
	// WHEN: Aggregating
	// THEN: The refund reduces the month's net payments

	readings := []engine.Reading{
		testReading(date(2024, time.January, 1), 1000),
		testReading(date(2024, time.January, 31), 1100),
	}
	payments := []engine.Payment{
		testPayment(date(2024, time.January, 5), engine.PaymentAdvance, 95),
		testPayment(date(2024, time.January, 20), engine.PaymentSettlement, 40),
		testPayment(date(2024, time.January, 25), engine.PaymentRefund, 30),
	}
	sheet := engine.AggregateMonths(readings, nil, payments, date(2024, time.June, 1))

	m := sheet.Months[0]
	assertDecimal(t, 135, m.PaymentsIn, "PaymentsIn")
	assertDecimal(t, 30, m.Refunds, "Refunds")
	assertDecimal(t, 105, m.Payments, "net Payments")
	assertDecimal(t, 105, sheet.TotalPayments, "TotalPayments")
}

func TestAggregateMonths_CurrentMonthProjected(t *testing.T) {
	// GIVEN: The current month covered only up to the 10th
	// WHEN: Aggregating with "now" inside that month
	// THEN: Consumption is linearly extrapolated to 30 days and the
	//       month is flagged projected

	readings := []engine.Reading{
		testReading(date(2024, time.May, 31), 1000),
		testReading(date(2024, time.June, 10), 1100), // 10 kWh/day over 10 days
	}
	sheet := engine.AggregateMonths(readings, nil, nil, date(2024, time.June, 12))

	june := sheet.Months[len(sheet.Months)-1]
	if !june.IsProjected {
		t.Fatal("June not flagged projected")
	}
	assertDecimal(t, 300, june.Consumption, "June projected consumption")
	assertDecimal(t, 1100, june.EndValue, "June end value stays the raw reading")
}

func TestAggregateMonths_RunningBalanceAccumulates(t *testing.T) {
	// GIVEN: Three months of readings and monthly advances
	// WHEN: Aggregating
	// THEN: RunningBalance carries the deficit forward and the final
	//       month matches the sheet balance

	tariffs := []engine.Tariff{
		testTariff("flat", date(2023, time.January, 1), nil, 0.20, 0),
	}
	readings := []engine.Reading{
		testReading(date(2024, time.January, 1), 1000),
		testReading(date(2024, time.February, 1), 1200), // 40.00 cost
		testReading(date(2024, time.March, 1), 1500),    // 60.00 cost
	}
	payments := []engine.Payment{
		testPayment(date(2024, time.January, 2), engine.PaymentAdvance, 50),
		testPayment(date(2024, time.February, 2), engine.PaymentAdvance, 50),
		testPayment(date(2024, time.March, 2), engine.PaymentAdvance, 50),
	}
	sheet := engine.AggregateMonths(readings, tariffs, payments, date(2024, time.June, 1))

	if len(sheet.Months) != 3 {
		t.Fatalf("got %d months, want 3", len(sheet.Months))
	}
	assertDecimal(t, 50, sheet.Months[0].RunningBalance, "January running balance")
	assertDecimal(t, 60, sheet.Months[1].RunningBalance, "February running balance")
	assertDecimal(t, 50, sheet.Months[2].RunningBalance, "March running balance")
	if !sheet.Months[2].RunningBalance.Equal(sheet.Balance) {
		t.Errorf("last RunningBalance %s != Balance %s",
			sheet.Months[2].RunningBalance, sheet.Balance)
	}
}

func TestAggregateMonths_MidMonthTariffAnchor(t *testing.T) {
	// GIVEN: A tariff change on the 20th of a month
	// WHEN: Aggregating that month
	// THEN: The tariff valid on the 15th prices the whole month

	until := date(2024, time.January, 19)
	tariffs := []engine.Tariff{
		testTariff("old", date(2023, time.January, 1), &until, 0.10, 0),
		testTariff("new", date(2024, time.January, 20), nil, 0.30, 0),
	}
	readings := []engine.Reading{
		testReading(date(2024, time.January, 1), 1000),
		testReading(date(2024, time.January, 31), 1100),
	}
	sheet := engine.AggregateMonths(readings, tariffs, nil, date(2024, time.June, 1))

	m := sheet.Months[0]
	if m.TariffName != "old" {
		t.Errorf("TariffName = %q, want old", m.TariffName)
	}
	assertDecimal(t, 10, m.Cost, "January cost") // 100 kWh x 0.10
}

func TestAggregateMonths_PureFunction(t *testing.T) {
	// GIVEN: A computed sheet
	// WHEN: Recomputing over the same snapshot
	// THEN: Totals are identical and inputs are untouched

	readings := []engine.Reading{
		testReading(date(2024, time.January, 1), 1000),
		testReading(date(2024, time.February, 1), 1200),
	}
	before := readings[0].MeterValue.String()

	a := engine.AggregateMonths(readings, nil, nil, date(2024, time.June, 1))
	b := engine.AggregateMonths(readings, nil, nil, date(2024, time.June, 1))

	if !a.Balance.Equal(b.Balance) || len(a.Months) != len(b.Months) {
		t.Error("recompute drifted")
	}
	if readings[0].MeterValue.String() != before {
		t.Error("input slice mutated")
	}
}
