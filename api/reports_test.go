/*
reports_test.go - Aggregate report endpoint tests

These tests run in the api package so the handler clock can be pinned,
keeping current-month projection and forecast output deterministic.
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctcoding/hometracker/engine"
	"github.com/ctcoding/hometracker/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newReportHandler(t *testing.T, now time.Time) *Handler {
	t.Helper()
	return &Handler{
		Store: memory.New(),
		Log:   zerolog.Nop(),
		now:   func() time.Time { return now },
	}
}

func get(t *testing.T, fn http.HandlerFunc, target string, out any) {
	t.Helper()
	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func seedReading(t *testing.T, h *Handler, ts time.Time, value float64) {
	t.Helper()
	r := engine.Reading{
		Timestamp:  ts,
		MeterValue: decimal.NewFromFloat(value),
		Unit:       "kWh",
		Source:     engine.SourceManual,
	}
	require.NoError(t, h.Store.CreateReading(context.Background(), &r))
}

func seedMonthlyReadings(t *testing.T, h *Handler, start time.Time, n int, startValue, monthlyKwh float64) {
	t.Helper()
	for i := 0; i <= n; i++ {
		seedReading(t, h, start.AddDate(0, i, 0), startValue+float64(i)*monthlyKwh)
	}
}

func seedFlatTariff(t *testing.T, h *Handler) {
	t.Helper()
	tariff := engine.Tariff{
		Name:         "flat",
		ValidFrom:    time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		WorkingPrice: decimal.NewFromFloat(0.15),
		BasePrice:    decimal.NewFromInt(240),
	}
	require.NoError(t, h.Store.CreateTariff(context.Background(), &tariff))
}

// =============================================================================
// MONTHLY STATS AND BALANCE
// =============================================================================

func TestGetMonthlyStats_NewestFirstWithCosts(t *testing.T) {
	// GIVEN: Two months of readings and a flat tariff
	// WHEN: Fetching monthly stats
	// THEN: Months come newest first with cost and per-day figures

	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newReportHandler(t, now)
	seedFlatTariff(t, h)
	seedReading(t, h, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 1000)
	seedReading(t, h, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), 1200)

	var stats []MonthlyStatDTO
	get(t, h.GetMonthlyStats, "/api/monthly-stats", &stats)

	require.Len(t, stats, 2)
	feb := stats[0]
	assert.Equal(t, 2, feb.Month)
	assert.Equal(t, 200.0, feb.Consumption)
	assert.Equal(t, 50.0, feb.CalculatedCost) // 200 x 0.15 + 20 fixed
	assert.Equal(t, 6.9, feb.ConsumptionPerDay)
	assert.Equal(t, -50.0, feb.Balance)

	jan := stats[1]
	assert.Equal(t, 0.0, jan.Consumption)
	assert.Equal(t, 20.0, jan.CalculatedCost) // fixed charge only
}

func TestGetBalance_RunningBalanceAndRefunds(t *testing.T) {
	// GIVEN: Readings, a tariff, an advance and a refund
	// WHEN: Fetching the balance
	// THEN: Refunds net against payments and the running balance carries

	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newReportHandler(t, now)
	seedFlatTariff(t, h)
	seedReading(t, h, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 1000)
	seedReading(t, h, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), 1200)

	for _, p := range []engine.Payment{
		{Date: time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC), Type: engine.PaymentAdvance, Amount: decimal.NewFromInt(95)},
		{Date: time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC), Type: engine.PaymentRefund, Amount: decimal.NewFromInt(30)},
	} {
		payment := p
		require.NoError(t, h.Store.CreatePayment(context.Background(), &payment))
	}

	var dto BalanceDTO
	get(t, h.GetBalance, "/api/balance", &dto)

	assert.Equal(t, 70.0, dto.TotalCost)
	assert.Equal(t, 65.0, dto.TotalPayments)
	assert.Equal(t, -5.0, dto.Balance)

	require.Len(t, dto.MonthlyBreakdown, 2)
	feb := dto.MonthlyBreakdown[1]
	assert.Equal(t, "2024-02", feb.Month)
	assert.Equal(t, 95.0, feb.PaymentsIn)
	assert.Equal(t, 30.0, feb.Refunds)
	assert.Equal(t, 65.0, feb.Payments)
	assert.Equal(t, -5.0, feb.RunningBalance)
	assert.Equal(t, "flat", feb.TariffName)
	assert.Equal(t, 0.15, feb.PricePerKwh)
}

func TestGetBalance_CurrentMonthProjected(t *testing.T) {
	// GIVEN: The current month only partially covered
	// WHEN: Fetching the balance mid-month
	// THEN: That month is flagged projected

	now := time.Date(2024, time.February, 12, 0, 0, 0, 0, time.UTC)
	h := newReportHandler(t, now)
	seedReading(t, h, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), 1000)
	seedReading(t, h, time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC), 1100)

	var dto BalanceDTO
	get(t, h.GetBalance, "/api/balance", &dto)

	feb := dto.MonthlyBreakdown[len(dto.MonthlyBreakdown)-1]
	assert.True(t, feb.IsProjected)
	assert.Equal(t, 290.0, feb.Consumption) // 10 kWh/day over 29 days
}

// =============================================================================
// FORECAST
// =============================================================================

func TestGetForecast_EmptyWithoutFullYear(t *testing.T) {
	// GIVEN: Only a few months of history
	// WHEN: Fetching the forecast
	// THEN: No months are projected

	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	h := newReportHandler(t, now)
	seedMonthlyReadings(t, h, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 4, 1000, 200)

	var dto ForecastDTO
	get(t, h.GetForecast, "/api/forecast", &dto)

	assert.Empty(t, dto.Months)
	assert.Equal(t, 1.0, dto.TrendFactor)
}

func TestGetForecast_ProjectsNextTwelveMonths(t *testing.T) {
	// GIVEN: Two years of flat monthly readings and a standing order
	// WHEN: Fetching the forecast
	// THEN: Twelve months follow the current one, repeating last year's
	//       consumption with the standing order as advance

	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	h := newReportHandler(t, now)
	seedFlatTariff(t, h)
	seedMonthlyReadings(t, h, time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC), 24, 10000, 200)

	order := engine.AdvancePayment{
		ValidFrom:     time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MonthlyAmount: decimal.NewFromInt(95),
	}
	require.NoError(t, h.Store.CreateAdvancePayment(context.Background(), &order))

	var dto ForecastDTO
	get(t, h.GetForecast, "/api/forecast", &dto)

	require.Len(t, dto.Months, 12)
	assert.Equal(t, "2024-07", dto.Months[0].Month)
	assert.Equal(t, "2025-06", dto.Months[11].Month)
	assert.Equal(t, 1.0, dto.TrendFactor)

	first := dto.Months[0]
	assert.Equal(t, 200.0, first.Consumption)
	assert.Equal(t, 50.0, first.Cost) // 200 x 0.15 + 20 fixed
	assert.Equal(t, 95.0, first.Advance)
}

// =============================================================================
// STATISTICS
// =============================================================================

func TestGetStatistics_Summary(t *testing.T) {
	// GIVEN: Three readings
	// WHEN: Fetching statistics
	// THEN: Totals, averages and the last reading come back

	now := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	h := newReportHandler(t, now)
	seedReading(t, h, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 1000)
	seedReading(t, h, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), 1200)
	seedReading(t, h, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 1500)

	var dto StatisticsDTO
	get(t, h.GetStatistics, "/api/statistics", &dto)

	assert.Equal(t, 3, dto.TotalReadings)
	assert.Equal(t, 250.0, dto.AverageConsumption)
	assert.Equal(t, 500.0, dto.TotalConsumption)
	assert.Equal(t, 10, dto.DaysSinceLastReading)
	require.NotNil(t, dto.LastReading)
	assert.Equal(t, 1500.0, dto.LastReading.MeterValue)
}
