/*
Package store defines the persistence interface of the tracker and the
record types that are storage concerns rather than engine domain.

Two implementations exist:
  - store/sqlite: the production SQLite store (WAL, auto-migrated)
  - store/memory: an in-memory store for handler and importer tests

The reconciliation engine never touches a Store: handlers fetch a
snapshot up front and hand plain slices to the engine.
*/
package store

import (
	"context"
	"time"

	"github.com/ctcoding/hometracker/engine"
)

// Settings is the single-row application configuration. All fields are
// optional; zero values mean "not configured".
type Settings struct {
	HomeAssistantURL      string
	HomeAssistantToken    string
	HomeAssistantAPIToken string // authenticates pushed metrics

	TemperatureSensorEntity  string
	IndoorTempSensorEntity   string
	BrightnessSensorEntities []string

	SolarPowerSensorEntity     string
	SolarWaterTempBottomEntity string
	SolarWaterTempTopEntity    string
	SolarCloudAPIKey           string
	SolarSerialNumber          string

	ReminderIntervalDays int
	ReminderEnabled      bool

	TargetConsumptionMonthly *float64
	TargetConsumptionYearly  *float64
}

// SensorMetrics is one pushed Home Assistant metrics row. Unique per
// timestamp; re-pushing replaces the row.
type SensorMetrics struct {
	ID               int64
	Timestamp        time.Time
	BrightnessEast   *float64
	BrightnessSouth  *float64
	BrightnessWest   *float64
	WindSpeed        *float64
	TempOutdoorSouth *float64
	TempOutdoorNorth *float64
	PVProduction     *float64
	SolarPower       *float64
	CreatedAt        time.Time
}

// MetricsFilter narrows ListSensorMetrics. Zero time bounds and a zero
// limit mean unbounded.
type MetricsFilter struct {
	Start time.Time
	End   time.Time
	Limit int
}

// Store is the full persistence surface. List methods return
// chronologically ascending slices unless noted.
type Store interface {
	// Readings
	ListReadings(ctx context.Context) ([]engine.Reading, error)
	GetReading(ctx context.Context, id int64) (*engine.Reading, error)
	CreateReading(ctx context.Context, r *engine.Reading) error
	UpdateReading(ctx context.Context, r *engine.Reading) error
	DeleteReading(ctx context.Context, id int64) error
	// ReplaceDerived rewrites the cached derived columns of the whole
	// series after any mutation, so neighbors can never drift.
	ReplaceDerived(ctx context.Context, readings []engine.Reading) error

	// Tariffs
	ListTariffs(ctx context.Context) ([]engine.Tariff, error)
	GetTariff(ctx context.Context, id int64) (*engine.Tariff, error)
	CreateTariff(ctx context.Context, t *engine.Tariff) error
	UpdateTariff(ctx context.Context, t *engine.Tariff) error
	DeleteTariff(ctx context.Context, id int64) error

	// Payments
	ListPayments(ctx context.Context) ([]engine.Payment, error)
	CreatePayment(ctx context.Context, p *engine.Payment) error
	UpdatePayment(ctx context.Context, p *engine.Payment) error
	DeletePayment(ctx context.Context, id int64) error

	// Advance payment orders
	ListAdvancePayments(ctx context.Context) ([]engine.AdvancePayment, error)
	CreateAdvancePayment(ctx context.Context, a *engine.AdvancePayment) error
	UpdateAdvancePayment(ctx context.Context, a *engine.AdvancePayment) error
	DeleteAdvancePayment(ctx context.Context, id int64) error

	// Solar telemetry
	ListSolarReadings(ctx context.Context) ([]engine.SolarReading, error)
	// UpsertSolarReading inserts or replaces by date.
	UpsertSolarReading(ctx context.Context, r engine.SolarReading) error
	// LastSolarDate returns the newest telemetry date for a source, or
	// the zero time when none exists.
	LastSolarDate(ctx context.Context, source engine.Source) (time.Time, error)

	// Sensor metrics
	UpsertSensorMetrics(ctx context.Context, m SensorMetrics) error
	ListSensorMetrics(ctx context.Context, f MetricsFilter) ([]SensorMetrics, error)

	// Settings
	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, s Settings) error

	Close() error
}
