/*
reports.go - Read-only aggregate endpoints

PURPOSE:
  Serves the dashboard's computed views: monthly consumption/cost
  stats, the running account balance, the 12-month forecast, and
  overall statistics. All four are projections over the same inputs
  (readings, tariffs, payments) and share one aggregation pass through
  the engine instead of re-deriving months per endpoint.

SEE ALSO:
  - handlers.go: CRUD endpoints and shared helpers
*/
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ctcoding/hometracker/engine"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// MonthlyStatDTO is one month's consumption and cost summary.
type MonthlyStatDTO struct {
	Year              int     `json:"year"`
	Month             int     `json:"month"`
	StartReading      float64 `json:"startReading"`
	EndReading        float64 `json:"endReading"`
	Consumption       float64 `json:"consumption"`
	ConsumptionPerDay float64 `json:"consumptionPerDay"`
	CalculatedCost    float64 `json:"calculatedCost"`
	PaidAdvances      float64 `json:"paidAdvances"`
	Balance           float64 `json:"balance"`
	IsProjected       bool    `json:"isProjected"`
}

// BalanceMonthDTO is one month in the balance breakdown.
type BalanceMonthDTO struct {
	Month          string  `json:"month"`
	Year           int     `json:"year"`
	MonthNum       int     `json:"monthNum"`
	Consumption    float64 `json:"consumption"`
	EndReading     float64 `json:"endReading"`
	Cost           float64 `json:"cost"`
	Payments       float64 `json:"payments"`
	PaymentsIn     float64 `json:"paymentsIn"`
	Refunds        float64 `json:"refunds"`
	RunningBalance float64 `json:"runningBalance"`
	IsProjected    bool    `json:"isProjected"`
	TariffName     string  `json:"tariffName"`
	PricePerKwh    float64 `json:"pricePerKwh"`
	FixedMonthly   float64 `json:"fixedMonthly"`
}

// BalanceDTO is the account overview.
type BalanceDTO struct {
	TotalCost        float64           `json:"totalCost"`
	TotalPayments    float64           `json:"totalPayments"`
	Balance          float64           `json:"balance"`
	MonthlyBreakdown []BalanceMonthDTO `json:"monthlyBreakdown"`
}

// ForecastMonthDTO is one projected month.
type ForecastMonthDTO struct {
	Month           string  `json:"month"`
	Year            int     `json:"year"`
	MonthNum        int     `json:"monthNum"`
	Consumption     float64 `json:"consumption"`
	BaseConsumption float64 `json:"baseConsumption"`
	Cost            float64 `json:"cost"`
	Advance         float64 `json:"advance"`
	RunningBalance  float64 `json:"runningBalance"`
}

// ForecastDTO is the 12-month projection.
type ForecastDTO struct {
	Months           []ForecastMonthDTO `json:"months"`
	TrendFactor      float64            `json:"trendFactor"`
	ProjectedBalance float64            `json:"projectedBalance"`
}

// StatisticsDTO is the dashboard summary.
type StatisticsDTO struct {
	TotalReadings            int         `json:"totalReadings"`
	AverageConsumption       float64     `json:"averageConsumption"`
	AverageConsumptionPerDay float64     `json:"averageConsumptionPerDay"`
	TotalConsumption         float64     `json:"totalConsumption"`
	LastReading              *ReadingDTO `json:"lastReading,omitempty"`
	DaysSinceLastReading     int         `json:"daysSinceLastReading"`
}

// =============================================================================
// HANDLERS
// =============================================================================

// loadBalanceInputs reads everything the aggregation needs.
func (h *Handler) loadBalanceInputs(r *http.Request) ([]engine.Reading, []engine.Tariff, []engine.Payment, error) {
	ctx := r.Context()
	readings, err := h.Store.ListReadings(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	tariffs, err := h.Store.ListTariffs(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	payments, err := h.Store.ListPayments(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return readings, tariffs, payments, nil
}

// GetMonthlyStats returns per-month consumption and cost, newest first.
func (h *Handler) GetMonthlyStats(w http.ResponseWriter, r *http.Request) {
	readings, tariffs, payments, err := h.loadBalanceInputs(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}

	sheet := engine.AggregateMonths(readings, tariffs, payments, h.now())
	stats := make([]MonthlyStatDTO, len(sheet.Months))
	for i, m := range sheet.Months {
		days := daysIn(m.Year, int(m.Month))
		stats[len(sheet.Months)-1-i] = MonthlyStatDTO{
			Year:              m.Year,
			Month:             int(m.Month),
			StartReading:      round2(m.StartValue),
			EndReading:        round2(m.EndValue),
			Consumption:       round0(m.Consumption),
			ConsumptionPerDay: round1(m.Consumption.Div(days)),
			CalculatedCost:    round2(m.Cost),
			PaidAdvances:      round2(m.Payments),
			Balance:           round2(m.Payments.Sub(m.Cost)),
			IsProjected:       m.IsProjected,
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetBalance returns the running account balance with monthly breakdown.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	readings, tariffs, payments, err := h.loadBalanceInputs(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}

	sheet := engine.AggregateMonths(readings, tariffs, payments, h.now())

	dto := BalanceDTO{
		TotalCost:        round2(sheet.TotalCost),
		TotalPayments:    round2(sheet.TotalPayments),
		Balance:          round2(sheet.Balance),
		MonthlyBreakdown: make([]BalanceMonthDTO, len(sheet.Months)),
	}
	for i, m := range sheet.Months {
		dto.MonthlyBreakdown[i] = BalanceMonthDTO{
			Month:          m.Key(),
			Year:           m.Year,
			MonthNum:       int(m.Month),
			Consumption:    round0(m.Consumption),
			EndReading:     round0(m.EndValue),
			Cost:           round2(m.Cost),
			Payments:       round2(m.Payments),
			PaymentsIn:     round2(m.PaymentsIn),
			Refunds:        round2(m.Refunds),
			RunningBalance: round2(m.RunningBalance),
			IsProjected:    m.IsProjected,
			TariffName:     m.TariffName,
			PricePerKwh:    round4(m.PricePerKwh),
			FixedMonthly:   round2(m.FixedMonthly),
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetForecast returns the 12-month forward projection.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	readings, tariffs, payments, err := h.loadBalanceInputs(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}
	orders, err := h.Store.ListAdvancePayments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load advance payments", err)
		return
	}

	now := h.now()
	sheet := engine.AggregateMonths(readings, tariffs, payments, now)
	forecast := engine.ForecastYear(sheet.Months, orders, now)

	dto := ForecastDTO{
		Months:           make([]ForecastMonthDTO, len(forecast.Months)),
		TrendFactor:      round2(forecast.TrendFactor),
		ProjectedBalance: round2(forecast.ProjectedBalance),
	}
	for i, m := range forecast.Months {
		dto.Months[i] = ForecastMonthDTO{
			Month:           fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)),
			Year:            m.Year,
			MonthNum:        int(m.Month),
			Consumption:     round0(m.Consumption),
			BaseConsumption: round0(m.BaseConsumption),
			Cost:            round2(m.Cost),
			Advance:         round2(m.Advance),
			RunningBalance:  round2(m.RunningBalance),
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetStatistics returns the dashboard summary.
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	readings, err := h.Store.ListReadings(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load readings", err)
		return
	}
	tariffs, err := h.Store.ListTariffs(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load tariffs", err)
		return
	}

	computed := engine.ComputeDeltas(readings, tariffs)
	stats := engine.ComputeStatistics(computed, h.now())

	dto := StatisticsDTO{
		TotalReadings:            stats.TotalReadings,
		AverageConsumption:       round0(stats.AverageConsumption),
		AverageConsumptionPerDay: round1(stats.AverageConsumptionPerDay),
		TotalConsumption:         round0(stats.TotalConsumption),
		DaysSinceLastReading:     stats.DaysSinceLastReading,
	}
	if stats.LastReading != nil {
		last := toReadingDTO(*stats.LastReading)
		dto.LastReading = &last
	}
	writeJSON(w, http.StatusOK, dto)
}

// daysIn counts the calendar days of a month.
func daysIn(year, month int) decimal.Decimal {
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return decimal.NewFromInt(int64(last.Day()))
}
