/*
Package sqlite provides the SQLite-backed implementation of the store
interfaces.

WAL MODE:
  The database is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

DERIVED COLUMNS:
  The readings table carries the cached derived fields (consumption,
  cost since last reading, per-day rate). They are cache values owned
  by the engine: ReplaceDerived rewrites them for the whole series
  after any mutation and nothing else ever writes them.

DECIMAL STORAGE:
  Meter values and money are stored as TEXT and parsed back through
  shopspring/decimal, so no precision is lost round-tripping.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

USAGE:
  st, err := sqlite.New("./data/tracker.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/ctcoding/hometracker/engine"
	"github.com/ctcoding/hometracker/store"
)

const dateFormat = "2006-01-02"

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		meter_value TEXT NOT NULL,
		unit TEXT DEFAULT 'kWh',
		outdoor_temp REAL,
		outdoor_temp_night REAL,
		weather_condition TEXT,
		brightness_avg REAL,
		source TEXT DEFAULT 'manual',
		notes TEXT,
		synced INTEGER DEFAULT 0,
		-- cached derived fields, rewritten by ReplaceDerived
		consumption TEXT,
		hours_since INTEGER,
		days_since TEXT,
		per_day TEXT,
		cost TEXT,
		anomaly TEXT,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_readings_timestamp ON readings(timestamp);

	CREATE TABLE IF NOT EXISTS tariffs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		provider TEXT,
		valid_from TEXT NOT NULL,
		valid_until TEXT,
		working_price TEXT NOT NULL,
		base_price TEXT NOT NULL,
		co2_price TEXT DEFAULT '0',
		gas_levy TEXT DEFAULT '0',
		metering_price TEXT DEFAULT '0',
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_tariffs_valid_from ON tariffs(valid_from);

	CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT,
		invoice_number TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_payments_date ON payments(date);

	CREATE TABLE IF NOT EXISTS advance_payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		valid_from TEXT NOT NULL,
		valid_until TEXT,
		monthly_amount TEXT NOT NULL,
		notes TEXT
	);

	CREATE TABLE IF NOT EXISTS solar_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		energy_kwh REAL NOT NULL,
		temp1 REAL,
		temp2 REAL,
		source TEXT DEFAULT 'manual',
		notes TEXT,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(date)
	);

	CREATE TABLE IF NOT EXISTS sensor_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		brightness_east REAL,
		brightness_south REAL,
		brightness_west REAL,
		wind_speed REAL,
		temp_outdoor_south REAL,
		temp_outdoor_north REAL,
		pv_production REAL,
		solar_power REAL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_sensor_metrics_timestamp ON sensor_metrics(timestamp);

	CREATE TABLE IF NOT EXISTS settings (
		id TEXT PRIMARY KEY DEFAULT 'main',
		home_assistant_url TEXT,
		home_assistant_token TEXT,
		home_assistant_api_token TEXT,
		temperature_sensor_entity TEXT,
		indoor_temp_sensor_entity TEXT,
		brightness_sensor_entities TEXT,
		solar_power_sensor_entity TEXT,
		solar_water_temp_bottom_entity TEXT,
		solar_water_temp_top_entity TEXT,
		solar_cloud_api_key TEXT,
		solar_serial_number TEXT,
		reminder_interval_days INTEGER DEFAULT 7,
		reminder_enabled INTEGER DEFAULT 1,
		target_consumption_monthly REAL,
		target_consumption_yearly REAL
	);

	INSERT OR IGNORE INTO settings (id) VALUES ('main');
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// READINGS
// =============================================================================

const readingColumns = `id, timestamp, meter_value, unit, outdoor_temp,
	outdoor_temp_night, weather_condition, brightness_avg, source, notes,
	synced, consumption, hours_since, days_since, per_day, cost, anomaly`

func (s *Store) ListReadings(ctx context.Context) ([]engine.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+readingColumns+` FROM readings ORDER BY timestamp ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []engine.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func (s *Store) GetReading(ctx context.Context, id int64) (*engine.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+readingColumns+` FROM readings WHERE id = ?`, id)
	r, err := scanReading(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateReading(ctx context.Context, r *engine.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO readings (
			timestamp, meter_value, unit, outdoor_temp, outdoor_temp_night,
			weather_condition, brightness_avg, source, notes, synced
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Timestamp.UTC().Format(time.RFC3339),
		r.MeterValue.String(),
		r.Unit,
		nullFloat(r.OutdoorTemp),
		nullFloat(r.OutdoorTempNight),
		nullString(r.WeatherCondition),
		nullFloat(r.BrightnessAvg),
		string(r.Source),
		nullString(r.Notes),
		boolToInt(r.Synced),
	)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateReading(ctx context.Context, r *engine.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE readings SET
			timestamp = ?, meter_value = ?, notes = ?, synced = ?
		WHERE id = ?`,
		r.Timestamp.UTC().Format(time.RFC3339),
		r.MeterValue.String(),
		nullString(r.Notes),
		boolToInt(r.Synced),
		r.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteReading(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM readings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ReplaceDerived(ctx context.Context, readings []engine.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE readings SET
			consumption = ?, hours_since = ?, days_since = ?,
			per_day = ?, cost = ?, anomaly = ?
		WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range readings {
		if r.Derived == nil {
			if _, err := stmt.ExecContext(ctx, nil, nil, nil, nil, nil, nil, r.ID); err != nil {
				return err
			}
			continue
		}
		d := r.Derived
		_, err := stmt.ExecContext(ctx,
			d.Consumption.String(),
			d.HoursSince,
			d.DaysSince.String(),
			d.PerDay.String(),
			d.Cost.String(),
			nullString(string(d.Anomaly)),
			r.ID,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// TARIFFS
// =============================================================================

const tariffColumns = `id, name, provider, valid_from, valid_until,
	working_price, base_price, co2_price, gas_levy, metering_price, notes`

func (s *Store) ListTariffs(ctx context.Context) ([]engine.Tariff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tariffColumns+` FROM tariffs ORDER BY valid_from ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tariffs []engine.Tariff
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, err
		}
		tariffs = append(tariffs, t)
	}
	return tariffs, rows.Err()
}

func (s *Store) GetTariff(ctx context.Context, id int64) (*engine.Tariff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+tariffColumns+` FROM tariffs WHERE id = ?`, id)
	t, err := scanTariff(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTariff(ctx context.Context, t *engine.Tariff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tariffs (
			name, provider, valid_from, valid_until, working_price,
			base_price, co2_price, gas_levy, metering_price, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name,
		nullString(t.Provider),
		t.ValidFrom.UTC().Format(dateFormat),
		nullDate(t.ValidUntil),
		t.WorkingPrice.String(),
		t.BasePrice.String(),
		t.CO2Price.String(),
		t.GasLevy.String(),
		t.MeteringPrice.String(),
		nullString(t.Notes),
	)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateTariff(ctx context.Context, t *engine.Tariff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE tariffs SET
			name = ?, provider = ?, valid_from = ?, valid_until = ?,
			working_price = ?, base_price = ?, co2_price = ?,
			gas_levy = ?, metering_price = ?, notes = ?
		WHERE id = ?`,
		t.Name,
		nullString(t.Provider),
		t.ValidFrom.UTC().Format(dateFormat),
		nullDate(t.ValidUntil),
		t.WorkingPrice.String(),
		t.BasePrice.String(),
		t.CO2Price.String(),
		t.GasLevy.String(),
		t.MeteringPrice.String(),
		nullString(t.Notes),
		t.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteTariff(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tariffs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (s *Store) ListPayments(ctx context.Context) ([]engine.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, type, amount, description, invoice_number
		FROM payments ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []engine.Payment
	for rows.Next() {
		var (
			p           engine.Payment
			date        string
			typ, amount string
			desc, inv   sql.NullString
		)
		if err := rows.Scan(&p.ID, &date, &typ, &amount, &desc, &inv); err != nil {
			return nil, err
		}
		p.Date, err = time.Parse(dateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("payment %d: bad date %q: %w", p.ID, date, err)
		}
		p.Type = engine.PaymentType(typ)
		p.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("payment %d: bad amount %q: %w", p.ID, amount, err)
		}
		p.Description = desc.String
		p.InvoiceNumber = inv.String
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *Store) CreatePayment(ctx context.Context, p *engine.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (date, type, amount, description, invoice_number)
		VALUES (?, ?, ?, ?, ?)`,
		p.Date.UTC().Format(dateFormat),
		string(p.Type),
		p.Amount.String(),
		nullString(p.Description),
		nullString(p.InvoiceNumber),
	)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdatePayment(ctx context.Context, p *engine.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE payments SET
			date = ?, type = ?, amount = ?, description = ?, invoice_number = ?
		WHERE id = ?`,
		p.Date.UTC().Format(dateFormat),
		string(p.Type),
		p.Amount.String(),
		nullString(p.Description),
		nullString(p.InvoiceNumber),
		p.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeletePayment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// =============================================================================
// ADVANCE PAYMENTS
// =============================================================================

func (s *Store) ListAdvancePayments(ctx context.Context) ([]engine.AdvancePayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, valid_from, valid_until, monthly_amount, notes
		FROM advance_payments ORDER BY valid_from ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []engine.AdvancePayment
	for rows.Next() {
		var (
			a      engine.AdvancePayment
			from   string
			until  sql.NullString
			amount string
			notes  sql.NullString
		)
		if err := rows.Scan(&a.ID, &from, &until, &amount, &notes); err != nil {
			return nil, err
		}
		a.ValidFrom, err = time.Parse(dateFormat, from)
		if err != nil {
			return nil, fmt.Errorf("advance payment %d: bad date %q: %w", a.ID, from, err)
		}
		if until.Valid {
			t, err := time.Parse(dateFormat, until.String)
			if err != nil {
				return nil, fmt.Errorf("advance payment %d: bad date %q: %w", a.ID, until.String, err)
			}
			a.ValidUntil = &t
		}
		a.MonthlyAmount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("advance payment %d: bad amount %q: %w", a.ID, amount, err)
		}
		a.Notes = notes.String
		orders = append(orders, a)
	}
	return orders, rows.Err()
}

func (s *Store) CreateAdvancePayment(ctx context.Context, a *engine.AdvancePayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO advance_payments (valid_from, valid_until, monthly_amount, notes)
		VALUES (?, ?, ?, ?)`,
		a.ValidFrom.UTC().Format(dateFormat),
		nullDate(a.ValidUntil),
		a.MonthlyAmount.String(),
		nullString(a.Notes),
	)
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateAdvancePayment(ctx context.Context, a *engine.AdvancePayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE advance_payments SET
			valid_from = ?, valid_until = ?, monthly_amount = ?, notes = ?
		WHERE id = ?`,
		a.ValidFrom.UTC().Format(dateFormat),
		nullDate(a.ValidUntil),
		a.MonthlyAmount.String(),
		nullString(a.Notes),
		a.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteAdvancePayment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM advance_payments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// =============================================================================
// SOLAR TELEMETRY
// =============================================================================

func (s *Store) ListSolarReadings(ctx context.Context) ([]engine.SolarReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, energy_kwh, temp1, temp2, source, notes, created_at
		FROM solar_readings ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []engine.SolarReading
	for rows.Next() {
		var (
			r       engine.SolarReading
			date    string
			temp1   sql.NullFloat64
			temp2   sql.NullFloat64
			source  string
			notes   sql.NullString
			created sql.NullString
		)
		if err := rows.Scan(&r.ID, &date, &r.EnergyKwh, &temp1, &temp2, &source, &notes, &created); err != nil {
			return nil, err
		}
		r.Date, err = time.Parse(dateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("solar reading %d: bad date %q: %w", r.ID, date, err)
		}
		r.Temp1 = floatPtr(temp1)
		r.Temp2 = floatPtr(temp2)
		r.Source = engine.Source(source)
		r.Notes = notes.String
		if created.Valid {
			if t, err := time.Parse("2006-01-02 15:04:05", created.String); err == nil {
				r.CreatedAt = t
			}
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func (s *Store) UpsertSolarReading(ctx context.Context, r engine.SolarReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO solar_readings (date, energy_kwh, temp1, temp2, source, notes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			energy_kwh = excluded.energy_kwh,
			temp1 = excluded.temp1,
			temp2 = excluded.temp2,
			source = excluded.source`,
		r.Date.UTC().Format(dateFormat),
		r.EnergyKwh,
		nullFloat(r.Temp1),
		nullFloat(r.Temp2),
		string(r.Source),
		nullString(r.Notes),
	)
	return err
}

func (s *Store) LastSolarDate(ctx context.Context, source engine.Source) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var date sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM solar_readings WHERE source = ?`, string(source)).Scan(&date)
	if err != nil {
		return time.Time{}, err
	}
	if !date.Valid {
		return time.Time{}, nil
	}
	return time.Parse(dateFormat, date.String)
}

// =============================================================================
// SENSOR METRICS
// =============================================================================

func (s *Store) UpsertSensorMetrics(ctx context.Context, m store.SensorMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sensor_metrics (
			timestamp, brightness_east, brightness_south, brightness_west,
			wind_speed, temp_outdoor_south, temp_outdoor_north,
			pv_production, solar_power
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Timestamp.UTC().Format(time.RFC3339),
		nullFloat(m.BrightnessEast),
		nullFloat(m.BrightnessSouth),
		nullFloat(m.BrightnessWest),
		nullFloat(m.WindSpeed),
		nullFloat(m.TempOutdoorSouth),
		nullFloat(m.TempOutdoorNorth),
		nullFloat(m.PVProduction),
		nullFloat(m.SolarPower),
	)
	return err
}

func (s *Store) ListSensorMetrics(ctx context.Context, f store.MetricsFilter) ([]store.SensorMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, timestamp, brightness_east, brightness_south, brightness_west,
			wind_speed, temp_outdoor_south, temp_outdoor_north,
			pv_production, solar_power
		FROM sensor_metrics`
	var args []any
	var conds []string
	if !f.Start.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.Start.UTC().Format(time.RFC3339))
	}
	if !f.End.IsZero() {
		conds = append(conds, "timestamp <= ?")
		args = append(args, f.End.UTC().Format(time.RFC3339))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY timestamp DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []store.SensorMetrics
	for rows.Next() {
		var (
			m                              store.SensorMetrics
			ts                             string
			be, bs, bw, ws, t1, t2, pv, sp sql.NullFloat64
		)
		if err := rows.Scan(&m.ID, &ts, &be, &bs, &bw, &ws, &t1, &t2, &pv, &sp); err != nil {
			return nil, err
		}
		m.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("sensor metrics %d: bad timestamp %q: %w", m.ID, ts, err)
		}
		m.BrightnessEast = floatPtr(be)
		m.BrightnessSouth = floatPtr(bs)
		m.BrightnessWest = floatPtr(bw)
		m.WindSpeed = floatPtr(ws)
		m.TempOutdoorSouth = floatPtr(t1)
		m.TempOutdoorNorth = floatPtr(t2)
		m.PVProduction = floatPtr(pv)
		m.SolarPower = floatPtr(sp)
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// =============================================================================
// SETTINGS
// =============================================================================

func (s *Store) GetSettings(ctx context.Context) (store.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		cfg                               store.Settings
		haURL, haToken, haAPIToken        sql.NullString
		tempEntity, indoorEntity          sql.NullString
		brightnessJSON                    sql.NullString
		solarPower, solarBottom, solarTop sql.NullString
		solarKey, solarSerial             sql.NullString
		reminderDays                      sql.NullInt64
		reminderEnabled                   sql.NullInt64
		targetMonthly, targetYearly       sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT home_assistant_url, home_assistant_token, home_assistant_api_token,
			temperature_sensor_entity, indoor_temp_sensor_entity,
			brightness_sensor_entities, solar_power_sensor_entity,
			solar_water_temp_bottom_entity, solar_water_temp_top_entity,
			solar_cloud_api_key, solar_serial_number,
			reminder_interval_days, reminder_enabled,
			target_consumption_monthly, target_consumption_yearly
		FROM settings WHERE id = 'main'`).Scan(
		&haURL, &haToken, &haAPIToken, &tempEntity, &indoorEntity,
		&brightnessJSON, &solarPower, &solarBottom, &solarTop,
		&solarKey, &solarSerial, &reminderDays, &reminderEnabled,
		&targetMonthly, &targetYearly,
	)
	if err != nil {
		return cfg, err
	}

	cfg.HomeAssistantURL = haURL.String
	cfg.HomeAssistantToken = haToken.String
	cfg.HomeAssistantAPIToken = haAPIToken.String
	cfg.TemperatureSensorEntity = tempEntity.String
	cfg.IndoorTempSensorEntity = indoorEntity.String
	if brightnessJSON.Valid && brightnessJSON.String != "" {
		// Stored as a JSON array; a corrupt value degrades to empty.
		_ = json.Unmarshal([]byte(brightnessJSON.String), &cfg.BrightnessSensorEntities)
	}
	cfg.SolarPowerSensorEntity = solarPower.String
	cfg.SolarWaterTempBottomEntity = solarBottom.String
	cfg.SolarWaterTempTopEntity = solarTop.String
	cfg.SolarCloudAPIKey = solarKey.String
	cfg.SolarSerialNumber = solarSerial.String
	cfg.ReminderIntervalDays = int(reminderDays.Int64)
	cfg.ReminderEnabled = reminderEnabled.Int64 != 0
	cfg.TargetConsumptionMonthly = floatPtr(targetMonthly)
	cfg.TargetConsumptionYearly = floatPtr(targetYearly)
	return cfg, nil
}

func (s *Store) UpdateSettings(ctx context.Context, cfg store.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var brightnessJSON any
	if len(cfg.BrightnessSensorEntities) > 0 {
		b, err := json.Marshal(cfg.BrightnessSensorEntities)
		if err != nil {
			return err
		}
		brightnessJSON = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE settings SET
			home_assistant_url = ?, home_assistant_token = ?,
			home_assistant_api_token = ?, temperature_sensor_entity = ?,
			indoor_temp_sensor_entity = ?, brightness_sensor_entities = ?,
			solar_power_sensor_entity = ?, solar_water_temp_bottom_entity = ?,
			solar_water_temp_top_entity = ?, solar_cloud_api_key = ?,
			solar_serial_number = ?, reminder_interval_days = ?,
			reminder_enabled = ?, target_consumption_monthly = ?,
			target_consumption_yearly = ?
		WHERE id = 'main'`,
		nullString(cfg.HomeAssistantURL),
		nullString(cfg.HomeAssistantToken),
		nullString(cfg.HomeAssistantAPIToken),
		nullString(cfg.TemperatureSensorEntity),
		nullString(cfg.IndoorTempSensorEntity),
		brightnessJSON,
		nullString(cfg.SolarPowerSensorEntity),
		nullString(cfg.SolarWaterTempBottomEntity),
		nullString(cfg.SolarWaterTempTopEntity),
		nullString(cfg.SolarCloudAPIKey),
		nullString(cfg.SolarSerialNumber),
		cfg.ReminderIntervalDays,
		boolToInt(cfg.ReminderEnabled),
		nullFloat(cfg.TargetConsumptionMonthly),
		nullFloat(cfg.TargetConsumptionYearly),
	)
	return err
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (engine.Reading, error) {
	var (
		r                                    engine.Reading
		ts                                   string
		meterValue                           string
		unit                                 sql.NullString
		oTemp, oNight, bAvg                  sql.NullFloat64
		weather, notes                       sql.NullString
		source                               string
		synced                               int
		consumption, daysSince, perDay, cost sql.NullString
		hoursSince                           sql.NullInt64
		anomaly                              sql.NullString
	)
	err := row.Scan(&r.ID, &ts, &meterValue, &unit, &oTemp, &oNight, &weather,
		&bAvg, &source, &notes, &synced, &consumption, &hoursSince,
		&daysSince, &perDay, &cost, &anomaly)
	if err != nil {
		return r, err
	}

	r.Timestamp, err = time.Parse(time.RFC3339, ts)
	if err != nil {
		return r, fmt.Errorf("reading %d: bad timestamp %q: %w", r.ID, ts, err)
	}
	r.MeterValue, err = decimal.NewFromString(meterValue)
	if err != nil {
		return r, fmt.Errorf("reading %d: bad meter value %q: %w", r.ID, meterValue, err)
	}
	r.Unit = unit.String
	r.OutdoorTemp = floatPtr(oTemp)
	r.OutdoorTempNight = floatPtr(oNight)
	r.WeatherCondition = weather.String
	r.BrightnessAvg = floatPtr(bAvg)
	r.Source = engine.Source(source)
	r.Notes = notes.String
	r.Synced = synced != 0

	if consumption.Valid {
		d := engine.Derived{HoursSince: int(hoursSince.Int64)}
		if d.Consumption, err = decimal.NewFromString(consumption.String); err != nil {
			return r, err
		}
		if daysSince.Valid {
			if d.DaysSince, err = decimal.NewFromString(daysSince.String); err != nil {
				return r, err
			}
		}
		if perDay.Valid {
			if d.PerDay, err = decimal.NewFromString(perDay.String); err != nil {
				return r, err
			}
		}
		if cost.Valid {
			if d.Cost, err = decimal.NewFromString(cost.String); err != nil {
				return r, err
			}
		}
		d.Anomaly = engine.Anomaly(anomaly.String)
		r.Derived = &d
	}
	return r, nil
}

func scanTariff(row rowScanner) (engine.Tariff, error) {
	var (
		t                                  engine.Tariff
		provider                           sql.NullString
		from                               string
		until                              sql.NullString
		working, base, co2, levy, metering string
		notes                              sql.NullString
	)
	err := row.Scan(&t.ID, &t.Name, &provider, &from, &until,
		&working, &base, &co2, &levy, &metering, &notes)
	if err != nil {
		return t, err
	}

	t.Provider = provider.String
	t.ValidFrom, err = time.Parse(dateFormat, from)
	if err != nil {
		return t, fmt.Errorf("tariff %d: bad date %q: %w", t.ID, from, err)
	}
	if until.Valid {
		u, err := time.Parse(dateFormat, until.String)
		if err != nil {
			return t, fmt.Errorf("tariff %d: bad date %q: %w", t.ID, until.String, err)
		}
		t.ValidUntil = &u
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&t.WorkingPrice, working},
		{&t.BasePrice, base},
		{&t.CO2Price, co2},
		{&t.GasLevy, levy},
		{&t.MeteringPrice, metering},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return t, fmt.Errorf("tariff %d: bad price %q: %w", t.ID, f.src, err)
		}
	}
	t.Notes = notes.String
	return t, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateFormat)
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
