/*
solar.go - Solar production endpoints

PURPOSE:
  Serves stored solar water heater production data, prices it against
  the heat tariff for the savings view, and exposes manual triggers
  for the cloud importer (normally driven by the nightly schedule).

SEE ALSO:
  - solar/importer.go: Import logic
  - engine/solar.go: Savings valuation
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ctcoding/hometracker/engine"
)

// ListSolarReadings returns all production days, newest first.
func (h *Handler) ListSolarReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := h.Store.ListSolarReadings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list solar readings", err)
		return
	}

	dtos := make([]SolarReadingDTO, len(readings))
	for i, rd := range readings {
		dtos[len(readings)-1-i] = toSolarReadingDTO(rd)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSolarMonthly returns production days priced at the tariff in
// effect, for the monthly savings view.
func (h *Handler) GetSolarMonthly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	readings, err := h.Store.ListSolarReadings(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list solar readings", err)
		return
	}
	tariffs, err := h.Store.ListTariffs(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tariffs", err)
		return
	}

	valuations := engine.ValueSolarReadings(readings, tariffs)
	dtos := make([]SolarMonthlyDTO, len(valuations))
	for i, v := range valuations {
		dtos[i] = SolarMonthlyDTO{
			SolarReadingDTO: toSolarReadingDTO(v.SolarReading),
			Month:           v.MonthKey,
			PricePerKwh:     round4(v.PricePerKwh),
			Savings:         round2(v.Savings),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ImportSolarYesterday triggers an immediate import of yesterday's data.
func (h *Handler) ImportSolarYesterday(w http.ResponseWriter, r *http.Request) {
	result := h.Importer.ImportYesterday(r.Context())
	writeJSON(w, http.StatusOK, result)
}

// ImportSolarRange triggers an import for an explicit date window.
func (h *Handler) ImportSolarRange(w http.ResponseWriter, r *http.Request) {
	var req ImportRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest, "startDate and endDate required", nil)
		return
	}
	if _, err := parseDate(req.StartDate); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid startDate", err)
		return
	}
	if _, err := parseDate(req.EndDate); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid endDate", err)
		return
	}

	result := h.Importer.ImportRange(r.Context(), req.StartDate, req.EndDate)
	writeJSON(w, http.StatusOK, result)
}

// FillSolarGaps imports any missing days since the last cloud entry.
func (h *Handler) FillSolarGaps(w http.ResponseWriter, r *http.Request) {
	result := h.Importer.FillGaps(r.Context())
	writeJSON(w, http.StatusOK, result)
}

// GetSolarStatus reports the importer's last scheduled run.
func (h *Handler) GetSolarStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Importer.Status())
}
