/*
scenarios.go - Demo data loader for testing and demonstrations

PURPOSE:

	Populates the database with two years of realistic household data:
	a tariff change, monthly meter readings with a winter/summer curve,
	advance payments, a yearly settlement with refund, solar production
	days, and a few sensor snapshots. Enough history for the forecast
	to produce a non-empty projection.

USAGE VIA API:

	POST /api/demo/load

NOTE:

	Loading adds on top of existing data. Only use in development/demo
	environments on an empty database.

SEE ALSO:
  - handlers.go: Shared helpers
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ctcoding/hometracker/engine"
	"github.com/ctcoding/hometracker/store"
)

// seasonal consumption shape in kWh per month, January first
var demoMonthlyKwh = [12]float64{620, 540, 460, 330, 210, 140, 120, 130, 220, 380, 520, 600}

// LoadDemoData seeds the database with a two-year sample household.
func (h *Handler) LoadDemoData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()

	if err := h.seedTariffs(ctx, now); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed tariffs", err)
		return
	}
	if err := h.seedReadings(ctx, now); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed readings", err)
		return
	}
	if err := h.seedPayments(ctx, now); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed payments", err)
		return
	}
	if err := h.seedSolar(ctx, now); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed solar data", err)
		return
	}
	if err := h.seedMetrics(ctx, now); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed sensor metrics", err)
		return
	}
	if err := h.recomputeDerived(r); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to recompute derived fields", err)
		return
	}

	h.Log.Info().Msg("Demo data loaded")
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *Handler) seedTariffs(ctx context.Context, now time.Time) error {
	start := monthStart(now).AddDate(-2, 0, 0)
	cut := start.AddDate(1, 0, 0)
	cutEnd := cut.AddDate(0, 0, -1)

	old := engine.Tariff{
		Name:          "District Heat 2023",
		Provider:      "Stadtwerke",
		ValidFrom:     start,
		ValidUntil:    &cutEnd,
		WorkingPrice:  decimal.NewFromFloat(0.1180),
		BasePrice:     decimal.NewFromFloat(180),
		CO2Price:      decimal.NewFromFloat(0.0120),
		GasLevy:       decimal.NewFromFloat(0.0060),
		MeteringPrice: decimal.NewFromFloat(60),
	}
	current := engine.Tariff{
		Name:          "District Heat 2024",
		Provider:      "Stadtwerke",
		ValidFrom:     cut,
		WorkingPrice:  decimal.NewFromFloat(0.1320),
		BasePrice:     decimal.NewFromFloat(192),
		CO2Price:      decimal.NewFromFloat(0.0145),
		GasLevy:       decimal.NewFromFloat(0.0060),
		MeteringPrice: decimal.NewFromFloat(66),
	}
	if err := h.Store.CreateTariff(ctx, &old); err != nil {
		return err
	}
	return h.Store.CreateTariff(ctx, &current)
}

func (h *Handler) seedReadings(ctx context.Context, now time.Time) error {
	ts := monthStart(now).AddDate(-2, 0, 0)
	meter := decimal.NewFromInt(18000)

	for ts.Before(now) {
		reading := engine.Reading{
			Timestamp:  ts.Add(8 * time.Hour),
			MeterValue: meter,
			Unit:       "kWh",
			Source:     engine.SourceImport,
		}
		if err := h.Store.CreateReading(ctx, &reading); err != nil {
			return err
		}
		meter = meter.Add(decimal.NewFromFloat(demoMonthlyKwh[int(ts.Month())-1]))
		ts = ts.AddDate(0, 1, 0)
	}
	return nil
}

func (h *Handler) seedPayments(ctx context.Context, now time.Time) error {
	start := monthStart(now).AddDate(-2, 0, 0)

	// Standing order covering the whole window.
	order := engine.AdvancePayment{
		ValidFrom:     start,
		MonthlyAmount: decimal.NewFromInt(95),
		Notes:         "monthly budget plan",
	}
	if err := h.Store.CreateAdvancePayment(ctx, &order); err != nil {
		return err
	}

	// One realized advance per elapsed month.
	ts := start
	for ts.Before(now) {
		p := engine.Payment{
			Date:        ts.AddDate(0, 0, 2),
			Type:        engine.PaymentAdvance,
			Amount:      decimal.NewFromInt(95),
			Description: "monthly advance",
		}
		if err := h.Store.CreatePayment(ctx, &p); err != nil {
			return err
		}
		ts = ts.AddDate(0, 1, 0)
	}

	// Yearly settlement with a small refund.
	settleDate := start.AddDate(1, 1, 14)
	settlement := engine.Payment{
		Date:          settleDate,
		Type:          engine.PaymentSettlement,
		Amount:        decimal.NewFromFloat(86.40),
		Description:   "annual settlement",
		InvoiceNumber: "INV-2024-0117",
	}
	if err := h.Store.CreatePayment(ctx, &settlement); err != nil {
		return err
	}
	refund := engine.Payment{
		Date:        settleDate.AddDate(0, 1, 0),
		Type:        engine.PaymentRefund,
		Amount:      decimal.NewFromFloat(42.10),
		Description: "credit from settlement",
	}
	return h.Store.CreatePayment(ctx, &refund)
}

func (h *Handler) seedSolar(ctx context.Context, now time.Time) error {
	for i := 30; i >= 1; i-- {
		day := now.AddDate(0, 0, -i)
		// crude seasonal yield: more in summer
		yield := 2.0 + 4.0*seasonFactor(day.Month())
		t1 := 42.0 + 10*seasonFactor(day.Month())
		t2 := t1 + 6
		if err := h.Store.UpsertSolarReading(ctx, engine.SolarReading{
			Date:      time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
			EnergyKwh: yield,
			Temp1:     &t1,
			Temp2:     &t2,
			Source:    engine.SourceCloud,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedMetrics(ctx context.Context, now time.Time) error {
	for i := 6; i >= 0; i-- {
		ts := now.Add(-time.Duration(i) * time.Hour).Truncate(time.Hour)
		east, south, west := 12000.0, 28000.0, 9000.0
		wind, tempS, tempN := 3.4, 18.5, 15.2
		pv, sp := 1.8, 0.4
		if err := h.Store.UpsertSensorMetrics(ctx, store.SensorMetrics{
			Timestamp:        ts,
			BrightnessEast:   &east,
			BrightnessSouth:  &south,
			BrightnessWest:   &west,
			WindSpeed:        &wind,
			TempOutdoorSouth: &tempS,
			TempOutdoorNorth: &tempN,
			PVProduction:     &pv,
			SolarPower:       &sp,
		}); err != nil {
			return err
		}
	}
	return nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// seasonFactor is 1 in midsummer, 0 in midwinter.
func seasonFactor(m time.Month) float64 {
	d := int(m) - 7
	if d < 0 {
		d = -d
	}
	return 1 - float64(d)/6
}
