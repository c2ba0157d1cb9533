/*
handlers.go - HTTP API handlers for the energy tracking system

PURPOSE:
  Exposes the tracking engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Readings:
    GET    /api/readings               List all readings (newest first)
    POST   /api/readings               Create reading
    GET    /api/readings/{id}          Get reading
    PUT    /api/readings/{id}          Update reading
    DELETE /api/readings/{id}          Delete reading

  Tariffs:     GET/POST /api/tariffs, PUT/DELETE /api/tariffs/{id}
  Payments:    GET/POST /api/payments, PUT/DELETE /api/payments/{id}
  Advance:     GET/POST /api/advance-payments, PUT/DELETE /api/advance-payments/{id}
  Settings:    GET/PUT /api/settings

  Reports (reports.go):
    GET /api/monthly-stats, /api/balance, /api/forecast, /api/statistics

DERIVED FIELDS:
  Every mutation of readings or tariffs invalidates the cached
  per-reading deltas, so handlers recompute the whole series through
  the engine and persist it in one place (recomputeDerived). The series
  is small (a household reads its meter weekly) so full recomputation
  is cheap and keeps the cache impossible to desynchronize.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - reports.go: Aggregate endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ctcoding/hometracker/engine"
	"github.com/ctcoding/hometracker/homeassistant"
	"github.com/ctcoding/hometracker/solar"
	"github.com/ctcoding/hometracker/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    store.Store
	Importer *solar.Importer
	HA       *homeassistant.Client
	Log      zerolog.Logger

	// env-derived Home Assistant defaults, applied when a proxy
	// request omits the instance URL or token
	HADefaultURL   string
	HADefaultToken string

	// injectable clock for deterministic tests
	now func() time.Time
}

// NewHandler creates a new handler over the given store.
func NewHandler(st store.Store, importer *solar.Importer, log zerolog.Logger) *Handler {
	return &Handler{
		Store:    st,
		Importer: importer,
		HA:       homeassistant.NewClient(),
		Log:      log.With().Str("component", "api").Logger(),
		now:      time.Now,
	}
}

// recomputeDerived reloads the reading series, recomputes all derived
// fields against the current tariffs, and persists them. Called after
// every reading or tariff mutation.
func (h *Handler) recomputeDerived(r *http.Request) error {
	ctx := r.Context()
	readings, err := h.Store.ListReadings(ctx)
	if err != nil {
		return err
	}
	tariffs, err := h.Store.ListTariffs(ctx)
	if err != nil {
		return err
	}
	return h.Store.ReplaceDerived(ctx, engine.ComputeDeltas(readings, tariffs))
}

// =============================================================================
// READING HANDLERS
// =============================================================================

// ListReadings returns all readings, newest first.
func (h *Handler) ListReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := h.Store.ListReadings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list readings", err)
		return
	}

	dtos := make([]ReadingDTO, len(readings))
	for i, rd := range readings {
		dtos[len(readings)-1-i] = toReadingDTO(rd)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetReading returns a single reading.
func (h *Handler) GetReading(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	reading, err := h.Store.GetReading(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get reading", err)
		return
	}
	writeJSON(w, http.StatusOK, toReadingDTO(*reading))
}

// CreateReading creates a reading and recomputes derived fields.
func (h *Handler) CreateReading(w http.ResponseWriter, r *http.Request) {
	var req SaveReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	reading, err := readingFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid reading", err)
		return
	}

	if err := h.Store.CreateReading(r.Context(), reading); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create reading", err)
		return
	}
	if err := h.recomputeDerived(r); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to recompute derived fields", err)
		return
	}

	h.Log.Info().Int64("id", reading.ID).Str("value", reading.MeterValue.String()).Msg("Reading created")
	writeJSON(w, http.StatusCreated, IDResponse{ID: reading.ID})
}

// UpdateReading updates a reading and recomputes derived fields.
func (h *Handler) UpdateReading(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SaveReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	existing, err := h.Store.GetReading(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get reading", err)
		return
	}

	// Partial update: absent fields keep their stored value.
	if req.Timestamp != "" {
		ts, err := parseTimestamp(req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid timestamp", err)
			return
		}
		existing.Timestamp = ts
	}
	if req.MeterValue != nil {
		v := decimal.NewFromFloat(*req.MeterValue)
		if err := engine.ValidateMeterValue(v); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid meter value", err)
			return
		}
		existing.MeterValue = v
	}
	if req.Notes != "" {
		existing.Notes = req.Notes
	}
	existing.Synced = req.Synced

	if err := h.Store.UpdateReading(r.Context(), existing); err != nil {
		writeStoreError(w, "Failed to update reading", err)
		return
	}
	if err := h.recomputeDerived(r); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to recompute derived fields", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// DeleteReading deletes a reading and recomputes derived fields.
func (h *Handler) DeleteReading(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteReading(r.Context(), id); err != nil {
		writeStoreError(w, "Failed to delete reading", err)
		return
	}
	if err := h.recomputeDerived(r); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to recompute derived fields", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func readingFromRequest(req SaveReadingRequest) (*engine.Reading, error) {
	if req.MeterValue == nil {
		return nil, &engine.ValidationError{Field: "meterValue", Message: "is required"}
	}
	value := decimal.NewFromFloat(*req.MeterValue)
	if err := engine.ValidateMeterValue(value); err != nil {
		return nil, err
	}
	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		return nil, &engine.ValidationError{Field: "timestamp", Message: "must be RFC 3339 or 2006-01-02"}
	}

	unit := req.Unit
	if unit == "" {
		unit = "kWh"
	}
	source := engine.Source(req.Source)
	if source == "" {
		source = engine.SourceManual
	}

	return &engine.Reading{
		Timestamp:        ts,
		MeterValue:       value,
		Unit:             unit,
		OutdoorTemp:      req.OutdoorTemp,
		OutdoorTempNight: req.OutdoorTempNight,
		WeatherCondition: req.WeatherCondition,
		BrightnessAvg:    req.BrightnessAvg,
		Source:           source,
		Notes:            req.Notes,
		Synced:           req.Synced,
	}, nil
}

// =============================================================================
// TARIFF HANDLERS
// =============================================================================

// ListTariffs returns all tariffs, newest first.
func (h *Handler) ListTariffs(w http.ResponseWriter, r *http.Request) {
	tariffs, err := h.Store.ListTariffs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tariffs", err)
		return
	}

	dtos := make([]TariffDTO, len(tariffs))
	for i, t := range tariffs {
		dtos[len(tariffs)-1-i] = toTariffDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTariff creates a tariff and recomputes derived fields.
func (h *Handler) CreateTariff(w http.ResponseWriter, r *http.Request) {
	var req SaveTariffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	tariff, err := tariffFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tariff", err)
		return
	}

	if err := h.Store.CreateTariff(r.Context(), tariff); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create tariff", err)
		return
	}
	if err := h.recomputeDerived(r); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to recompute derived fields", err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: tariff.ID})
}

// UpdateTariff updates a tariff and recomputes derived fields.
func (h *Handler) UpdateTariff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SaveTariffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	tariff, err := tariffFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tariff", err)
		return
	}
	tariff.ID = id

	if err := h.Store.UpdateTariff(r.Context(), tariff); err != nil {
		writeStoreError(w, "Failed to update tariff", err)
		return
	}
	if err := h.recomputeDerived(r); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to recompute derived fields", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// DeleteTariff deletes a tariff and recomputes derived fields.
func (h *Handler) DeleteTariff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteTariff(r.Context(), id); err != nil {
		writeStoreError(w, "Failed to delete tariff", err)
		return
	}
	if err := h.recomputeDerived(r); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to recompute derived fields", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func tariffFromRequest(req SaveTariffRequest) (*engine.Tariff, error) {
	if req.Name == "" {
		return nil, &engine.ValidationError{Field: "name", Message: "is required"}
	}
	if req.WorkingPrice == nil || req.BasePrice == nil {
		return nil, &engine.ValidationError{Field: "workingPrice", Message: "workingPrice and basePrice are required"}
	}
	from, err := parseDate(req.ValidFrom)
	if err != nil {
		return nil, &engine.ValidationError{Field: "validFrom", Message: "must be 2006-01-02"}
	}

	t := &engine.Tariff{
		Name:          req.Name,
		Provider:      req.Provider,
		ValidFrom:     from,
		WorkingPrice:  decimal.NewFromFloat(*req.WorkingPrice),
		BasePrice:     decimal.NewFromFloat(*req.BasePrice),
		CO2Price:      decimalOrZero(req.CO2Price),
		GasLevy:       decimalOrZero(req.GasLevy),
		MeteringPrice: decimalOrZero(req.MeteringPrice),
		Notes:         req.Notes,
	}
	if req.ValidUntil != nil && *req.ValidUntil != "" {
		until, err := parseDate(*req.ValidUntil)
		if err != nil {
			return nil, &engine.ValidationError{Field: "validUntil", Message: "must be 2006-01-02"}
		}
		t.ValidUntil = &until
	}
	return t, nil
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns all payments, newest first.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.ListPayments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[len(payments)-1-i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePayment creates a payment.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req SavePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	payment, err := paymentFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment", err)
		return
	}

	if err := h.Store.CreatePayment(r.Context(), payment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: payment.ID})
}

// UpdatePayment updates a payment.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SavePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	payment, err := paymentFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment", err)
		return
	}
	payment.ID = id

	if err := h.Store.UpdatePayment(r.Context(), payment); err != nil {
		writeStoreError(w, "Failed to update payment", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// DeletePayment deletes a payment.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeletePayment(r.Context(), id); err != nil {
		writeStoreError(w, "Failed to delete payment", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func paymentFromRequest(req SavePaymentRequest) (*engine.Payment, error) {
	if req.Amount == nil {
		return nil, &engine.ValidationError{Field: "amount", Message: "is required"}
	}
	amount := decimal.NewFromFloat(*req.Amount)
	if amount.IsNegative() {
		return nil, &engine.ValidationError{Field: "amount", Message: "must not be negative; use type=refund"}
	}
	ptype := engine.PaymentType(req.Type)
	if !ptype.Valid() {
		return nil, &engine.ValidationError{Field: "type", Message: "must be advance, settlement, or refund"}
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, &engine.ValidationError{Field: "date", Message: "must be 2006-01-02"}
	}

	desc := req.Description
	if desc == "" {
		desc = req.Notes
	}
	return &engine.Payment{
		Date:          date,
		Type:          ptype,
		Amount:        amount,
		Description:   desc,
		InvoiceNumber: req.InvoiceNumber,
	}, nil
}

// =============================================================================
// ADVANCE PAYMENT HANDLERS
// =============================================================================

// ListAdvancePayments returns all standing orders, newest first.
func (h *Handler) ListAdvancePayments(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.ListAdvancePayments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list advance payments", err)
		return
	}

	dtos := make([]AdvancePaymentDTO, len(orders))
	for i, a := range orders {
		dtos[len(orders)-1-i] = toAdvancePaymentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAdvancePayment creates a standing order.
func (h *Handler) CreateAdvancePayment(w http.ResponseWriter, r *http.Request) {
	var req SaveAdvancePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	order, err := advanceFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid advance payment", err)
		return
	}

	if err := h.Store.CreateAdvancePayment(r.Context(), order); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create advance payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: order.ID})
}

// UpdateAdvancePayment updates a standing order.
func (h *Handler) UpdateAdvancePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SaveAdvancePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	order, err := advanceFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid advance payment", err)
		return
	}
	order.ID = id

	if err := h.Store.UpdateAdvancePayment(r.Context(), order); err != nil {
		writeStoreError(w, "Failed to update advance payment", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// DeleteAdvancePayment deletes a standing order.
func (h *Handler) DeleteAdvancePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteAdvancePayment(r.Context(), id); err != nil {
		writeStoreError(w, "Failed to delete advance payment", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func advanceFromRequest(req SaveAdvancePaymentRequest) (*engine.AdvancePayment, error) {
	amount := req.MonthlyAmount
	if amount == nil {
		amount = req.Amount
	}
	if amount == nil {
		return nil, &engine.ValidationError{Field: "monthlyAmount", Message: "is required"}
	}
	from, err := parseDate(req.ValidFrom)
	if err != nil {
		return nil, &engine.ValidationError{Field: "validFrom", Message: "must be 2006-01-02"}
	}

	a := &engine.AdvancePayment{
		ValidFrom:     from,
		MonthlyAmount: decimal.NewFromFloat(*amount),
		Notes:         req.Notes,
	}
	if req.ValidUntil != nil && *req.ValidUntil != "" {
		until, err := parseDate(*req.ValidUntil)
		if err != nil {
			return nil, &engine.ValidationError{Field: "validUntil", Message: "must be 2006-01-02"}
		}
		a.ValidUntil = &until
	}
	return a, nil
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the settings row.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Store.GetSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(cfg))
}

// UpdateSettings replaces the settings row.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	cfg := store.Settings{
		HomeAssistantURL:           req.HomeAssistantURL,
		HomeAssistantToken:         req.HomeAssistantToken,
		HomeAssistantAPIToken:      req.HomeAssistantAPIToken,
		TemperatureSensorEntity:    req.TemperatureSensorEntity,
		IndoorTempSensorEntity:     req.IndoorTempSensorEntity,
		BrightnessSensorEntities:   req.BrightnessSensorEntities,
		SolarPowerSensorEntity:     req.SolarPowerSensorEntity,
		SolarWaterTempBottomEntity: req.SolarWaterTempBottomEntity,
		SolarWaterTempTopEntity:    req.SolarWaterTempTopEntity,
		SolarCloudAPIKey:           req.SolarCloudAPIKey,
		SolarSerialNumber:          req.SolarSerialNumber,
		ReminderIntervalDays:       req.ReminderIntervalDays,
		ReminderEnabled:            req.ReminderEnabled,
		TargetConsumptionMonthly:   req.TargetConsumptionMonthly,
		TargetConsumptionYearly:    req.TargetConsumptionYearly,
	}
	if err := h.Store.UpdateSettings(r.Context(), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func toSettingsDTO(cfg store.Settings) SettingsDTO {
	return SettingsDTO{
		HomeAssistantURL:           cfg.HomeAssistantURL,
		HomeAssistantToken:         cfg.HomeAssistantToken,
		HomeAssistantAPIToken:      cfg.HomeAssistantAPIToken,
		TemperatureSensorEntity:    cfg.TemperatureSensorEntity,
		IndoorTempSensorEntity:     cfg.IndoorTempSensorEntity,
		BrightnessSensorEntities:   cfg.BrightnessSensorEntities,
		SolarPowerSensorEntity:     cfg.SolarPowerSensorEntity,
		SolarWaterTempBottomEntity: cfg.SolarWaterTempBottomEntity,
		SolarWaterTempTopEntity:    cfg.SolarWaterTempTopEntity,
		SolarCloudAPIKey:           cfg.SolarCloudAPIKey,
		SolarSerialNumber:          cfg.SolarSerialNumber,
		ReminderIntervalDays:       cfg.ReminderIntervalDays,
		ReminderEnabled:            cfg.ReminderEnabled,
		TargetConsumptionMonthly:   cfg.TargetConsumptionMonthly,
		TargetConsumptionYearly:    cfg.TargetConsumptionYearly,
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeStoreError maps store errors to 404 or 500.
func writeStoreError(w http.ResponseWriter, message string, err error) {
	if errors.Is(err, engine.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found", nil)
		return
	}
	writeError(w, http.StatusInternalServerError, message, err)
}

// pathID parses the {id} route parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID", err)
		return 0, false
	}
	return id, true
}

// parseTimestamp accepts RFC 3339 or a bare date.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(dateFormat, s)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateFormat, s)
}

func decimalOrZero(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}
