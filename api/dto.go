/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ROUNDING:
  Domain arithmetic runs on decimals; the DTO boundary converts to
  float64 at fixed precision:
  - currency: 2 decimals
  - per-day rates: 1 decimal
  - unit prices: 4 decimals
  - monthly consumption: whole kWh

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - reports.go: Aggregate response types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ctcoding/hometracker/engine"
)

const dateFormat = "2006-01-02"

// =============================================================================
// READINGS
// =============================================================================

// ReadingDTO represents a meter reading in API responses.
type ReadingDTO struct {
	ID               int64    `json:"id"`
	Timestamp        string   `json:"timestamp"`
	MeterValue       float64  `json:"meterValue"`
	Unit             string   `json:"unit"`
	OutdoorTemp      *float64 `json:"outdoorTemp,omitempty"`
	OutdoorTempNight *float64 `json:"outdoorTempNight,omitempty"`
	WeatherCondition string   `json:"weatherCondition,omitempty"`
	BrightnessAvg    *float64 `json:"brightnessAvg,omitempty"`
	Source           string   `json:"source"`
	Notes            string   `json:"notes,omitempty"`
	Synced           bool     `json:"synced"`

	Consumption           *float64 `json:"consumption,omitempty"`
	HoursSinceLastReading *int     `json:"hoursSinceLastReading,omitempty"`
	DaysSinceLastReading  *float64 `json:"daysSinceLastReading,omitempty"`
	ConsumptionPerDay     *float64 `json:"consumptionPerDay,omitempty"`
	CostSinceLastReading  *float64 `json:"costSinceLastReading,omitempty"`
	Anomaly               string   `json:"anomaly,omitempty"`
}

// SaveReadingRequest is the request to create or update a reading.
type SaveReadingRequest struct {
	Timestamp        string   `json:"timestamp"`
	MeterValue       *float64 `json:"meterValue"`
	Unit             string   `json:"unit,omitempty"`
	OutdoorTemp      *float64 `json:"outdoorTemp,omitempty"`
	OutdoorTempNight *float64 `json:"outdoorTempNight,omitempty"`
	WeatherCondition string   `json:"weatherCondition,omitempty"`
	BrightnessAvg    *float64 `json:"brightnessAvg,omitempty"`
	Source           string   `json:"source,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	Synced           bool     `json:"synced,omitempty"`
}

func toReadingDTO(r engine.Reading) ReadingDTO {
	dto := ReadingDTO{
		ID:               r.ID,
		Timestamp:        r.Timestamp.UTC().Format(time.RFC3339),
		MeterValue:       r.MeterValue.InexactFloat64(),
		Unit:             r.Unit,
		OutdoorTemp:      r.OutdoorTemp,
		OutdoorTempNight: r.OutdoorTempNight,
		WeatherCondition: r.WeatherCondition,
		BrightnessAvg:    r.BrightnessAvg,
		Source:           string(r.Source),
		Notes:            r.Notes,
		Synced:           r.Synced,
	}
	if d := r.Derived; d != nil {
		dto.Consumption = f64Ptr(round2(d.Consumption))
		dto.HoursSinceLastReading = intPtr(d.HoursSince)
		dto.DaysSinceLastReading = f64Ptr(round2(d.DaysSince))
		dto.ConsumptionPerDay = f64Ptr(round1(d.PerDay))
		dto.CostSinceLastReading = f64Ptr(round2(d.Cost))
		dto.Anomaly = string(d.Anomaly)
	}
	return dto
}

// =============================================================================
// TARIFFS
// =============================================================================

// TariffDTO represents a tariff in API responses. The derived unit
// price and fixed charge are computed server-side.
type TariffDTO struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Provider      string  `json:"provider,omitempty"`
	ValidFrom     string  `json:"validFrom"`
	ValidUntil    *string `json:"validUntil,omitempty"`
	WorkingPrice  float64 `json:"workingPrice"`
	BasePrice     float64 `json:"basePrice"`
	CO2Price      float64 `json:"co2Price"`
	GasLevy       float64 `json:"gasLevy"`
	MeteringPrice float64 `json:"meteringPrice"`

	TotalPricePerKwh float64 `json:"totalPricePerKwh"`
	FixedMonthly     float64 `json:"fixedMonthly"`
	Notes            string  `json:"notes,omitempty"`
}

// SaveTariffRequest is the request to create or update a tariff.
type SaveTariffRequest struct {
	Name          string   `json:"name"`
	Provider      string   `json:"provider,omitempty"`
	ValidFrom     string   `json:"validFrom"`
	ValidUntil    *string  `json:"validUntil,omitempty"`
	WorkingPrice  *float64 `json:"workingPrice"`
	BasePrice     *float64 `json:"basePrice"`
	CO2Price      *float64 `json:"co2Price,omitempty"`
	GasLevy       *float64 `json:"gasLevy,omitempty"`
	MeteringPrice *float64 `json:"meteringPrice,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

func toTariffDTO(t engine.Tariff) TariffDTO {
	dto := TariffDTO{
		ID:               t.ID,
		Name:             t.Name,
		Provider:         t.Provider,
		ValidFrom:        t.ValidFrom.Format(dateFormat),
		WorkingPrice:     round4(t.WorkingPrice),
		BasePrice:        round2(t.BasePrice),
		CO2Price:         round4(t.CO2Price),
		GasLevy:          round4(t.GasLevy),
		MeteringPrice:    round2(t.MeteringPrice),
		TotalPricePerKwh: round4(t.TotalPricePerKwh()),
		FixedMonthly:     round2(t.FixedMonthly()),
		Notes:            t.Notes,
	}
	if t.ValidUntil != nil {
		dto.ValidUntil = strPtr(t.ValidUntil.Format(dateFormat))
	}
	return dto
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentDTO represents a realized payment in API responses.
type PaymentDTO struct {
	ID            int64   `json:"id"`
	Date          string  `json:"date"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description,omitempty"`
	InvoiceNumber string  `json:"invoiceNumber,omitempty"`
}

// SavePaymentRequest is the request to create or update a payment.
type SavePaymentRequest struct {
	Date          string   `json:"date"`
	Type          string   `json:"type"`
	Amount        *float64 `json:"amount"`
	Description   string   `json:"description,omitempty"`
	Notes         string   `json:"notes,omitempty"` // alias for description
	InvoiceNumber string   `json:"invoiceNumber,omitempty"`
}

func toPaymentDTO(p engine.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID,
		Date:          p.Date.Format(dateFormat),
		Type:          string(p.Type),
		Amount:        round2(p.Amount),
		Description:   p.Description,
		InvoiceNumber: p.InvoiceNumber,
	}
}

// AdvancePaymentDTO represents a standing monthly order.
type AdvancePaymentDTO struct {
	ID            int64   `json:"id"`
	ValidFrom     string  `json:"validFrom"`
	ValidUntil    *string `json:"validUntil,omitempty"`
	MonthlyAmount float64 `json:"monthlyAmount"`
	Notes         string  `json:"notes,omitempty"`
}

// SaveAdvancePaymentRequest is the request to create or update a
// standing order. "amount" is accepted as an alias for monthlyAmount.
type SaveAdvancePaymentRequest struct {
	ValidFrom     string   `json:"validFrom"`
	ValidUntil    *string  `json:"validUntil,omitempty"`
	MonthlyAmount *float64 `json:"monthlyAmount"`
	Amount        *float64 `json:"amount,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

func toAdvancePaymentDTO(a engine.AdvancePayment) AdvancePaymentDTO {
	dto := AdvancePaymentDTO{
		ID:            a.ID,
		ValidFrom:     a.ValidFrom.Format(dateFormat),
		MonthlyAmount: round2(a.MonthlyAmount),
		Notes:         a.Notes,
	}
	if a.ValidUntil != nil {
		dto.ValidUntil = strPtr(a.ValidUntil.Format(dateFormat))
	}
	return dto
}

// =============================================================================
// SOLAR
// =============================================================================

// SolarReadingDTO represents one day of solar production.
type SolarReadingDTO struct {
	ID        int64    `json:"id"`
	Date      string   `json:"date"`
	EnergyKwh float64  `json:"energyKwh"`
	Temp1     *float64 `json:"temp1,omitempty"`
	Temp2     *float64 `json:"temp2,omitempty"`
	Source    string   `json:"source"`
	Notes     string   `json:"notes,omitempty"`
}

// SolarMonthlyDTO is a production day priced against the tariff.
type SolarMonthlyDTO struct {
	SolarReadingDTO
	Month       string  `json:"month"`
	PricePerKwh float64 `json:"pricePerKwh"`
	Savings     float64 `json:"savings"`
}

func toSolarReadingDTO(r engine.SolarReading) SolarReadingDTO {
	return SolarReadingDTO{
		ID:        r.ID,
		Date:      r.Date.Format(dateFormat),
		EnergyKwh: r.EnergyKwh,
		Temp1:     r.Temp1,
		Temp2:     r.Temp2,
		Source:    string(r.Source),
		Notes:     r.Notes,
	}
}

// ImportRangeRequest selects the date window for a manual solar import.
type ImportRangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// =============================================================================
// SETTINGS
// =============================================================================

// SettingsDTO represents the single settings row. Secrets are included
// because the dashboard edits them in place.
type SettingsDTO struct {
	HomeAssistantURL      string `json:"homeAssistantUrl"`
	HomeAssistantToken    string `json:"homeAssistantToken,omitempty"`
	HomeAssistantAPIToken string `json:"homeAssistantApiToken,omitempty"`

	TemperatureSensorEntity  string   `json:"temperatureSensorEntity,omitempty"`
	IndoorTempSensorEntity   string   `json:"indoorTempSensorEntity,omitempty"`
	BrightnessSensorEntities []string `json:"brightnessSensorEntities,omitempty"`

	SolarPowerSensorEntity     string `json:"solarPowerSensorEntity,omitempty"`
	SolarWaterTempBottomEntity string `json:"solarWaterTempBottomEntity,omitempty"`
	SolarWaterTempTopEntity    string `json:"solarWaterTempTopEntity,omitempty"`
	SolarCloudAPIKey           string `json:"solarCloudApiKey,omitempty"`
	SolarSerialNumber          string `json:"solarSerialNumber,omitempty"`

	ReminderIntervalDays int  `json:"reminderIntervalDays"`
	ReminderEnabled      bool `json:"reminderEnabled"`

	TargetConsumptionMonthly *float64 `json:"targetConsumptionMonthly,omitempty"`
	TargetConsumptionYearly  *float64 `json:"targetConsumptionYearly,omitempty"`
}

// =============================================================================
// GENERIC
// =============================================================================

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// IDResponse acknowledges a create with the new row ID.
type IDResponse struct {
	ID int64 `json:"id"`
}

// SuccessResponse acknowledges an update or delete.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// =============================================================================
// ROUNDING / POINTER HELPERS
// =============================================================================

func round0(d decimal.Decimal) float64 { return d.Round(0).InexactFloat64() }
func round1(d decimal.Decimal) float64 { return d.Round(1).InexactFloat64() }
func round2(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }
func round4(d decimal.Decimal) float64 { return d.Round(4).InexactFloat64() }

func f64Ptr(f float64) *float64 { return &f }
func intPtr(i int) *int         { return &i }
func strPtr(s string) *string   { return &s }
