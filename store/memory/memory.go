// Package memory provides an in-memory store implementation (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ctcoding/hometracker/engine"
	"github.com/ctcoding/hometracker/store"
)

// Memory implements store.Store with plain maps. Not persisted.
type Memory struct {
	mu sync.RWMutex

	nextID   int64
	readings map[int64]engine.Reading
	tariffs  map[int64]engine.Tariff
	payments map[int64]engine.Payment
	advances map[int64]engine.AdvancePayment
	solar    map[string]engine.SolarReading // keyed by date (2006-01-02)
	metrics  map[string]store.SensorMetrics // keyed by RFC3339 timestamp
	settings store.Settings
}

func New() *Memory {
	return &Memory{
		nextID:   1,
		readings: make(map[int64]engine.Reading),
		tariffs:  make(map[int64]engine.Tariff),
		payments: make(map[int64]engine.Payment),
		advances: make(map[int64]engine.AdvancePayment),
		solar:    make(map[string]engine.SolarReading),
		metrics:  make(map[string]store.SensorMetrics),
		settings: store.Settings{ReminderIntervalDays: 7, ReminderEnabled: true},
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) allocID() int64 {
	id := m.nextID
	m.nextID++
	return id
}

// =============================================================================
// READINGS
// =============================================================================

func (m *Memory) ListReadings(_ context.Context) ([]engine.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.Reading, 0, len(m.readings))
	for _, r := range m.readings {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *Memory) GetReading(_ context.Context, id int64) (*engine.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.readings[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return &r, nil
}

func (m *Memory) CreateReading(_ context.Context, r *engine.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = m.allocID()
	m.readings[r.ID] = *r
	return nil
}

func (m *Memory) UpdateReading(_ context.Context, r *engine.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.readings[r.ID]; !ok {
		return engine.ErrNotFound
	}
	m.readings[r.ID] = *r
	return nil
}

func (m *Memory) DeleteReading(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.readings[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.readings, id)
	return nil
}

func (m *Memory) ReplaceDerived(_ context.Context, readings []engine.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range readings {
		if stored, ok := m.readings[r.ID]; ok {
			stored.Derived = r.Derived
			m.readings[r.ID] = stored
		}
	}
	return nil
}

// =============================================================================
// TARIFFS
// =============================================================================

func (m *Memory) ListTariffs(_ context.Context) ([]engine.Tariff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.Tariff, 0, len(m.tariffs))
	for _, t := range m.tariffs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidFrom.Before(out[j].ValidFrom) })
	return out, nil
}

func (m *Memory) GetTariff(_ context.Context, id int64) (*engine.Tariff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tariffs[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return &t, nil
}

func (m *Memory) CreateTariff(_ context.Context, t *engine.Tariff) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.ID = m.allocID()
	m.tariffs[t.ID] = *t
	return nil
}

func (m *Memory) UpdateTariff(_ context.Context, t *engine.Tariff) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tariffs[t.ID]; !ok {
		return engine.ErrNotFound
	}
	m.tariffs[t.ID] = *t
	return nil
}

func (m *Memory) DeleteTariff(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tariffs[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.tariffs, id)
	return nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (m *Memory) ListPayments(_ context.Context) ([]engine.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) CreatePayment(_ context.Context, p *engine.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.allocID()
	m.payments[p.ID] = *p
	return nil
}

func (m *Memory) UpdatePayment(_ context.Context, p *engine.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payments[p.ID]; !ok {
		return engine.ErrNotFound
	}
	m.payments[p.ID] = *p
	return nil
}

func (m *Memory) DeletePayment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.payments[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.payments, id)
	return nil
}

// =============================================================================
// ADVANCE PAYMENTS
// =============================================================================

func (m *Memory) ListAdvancePayments(_ context.Context) ([]engine.AdvancePayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.AdvancePayment, 0, len(m.advances))
	for _, a := range m.advances {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidFrom.Before(out[j].ValidFrom) })
	return out, nil
}

func (m *Memory) CreateAdvancePayment(_ context.Context, a *engine.AdvancePayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.ID = m.allocID()
	m.advances[a.ID] = *a
	return nil
}

func (m *Memory) UpdateAdvancePayment(_ context.Context, a *engine.AdvancePayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.advances[a.ID]; !ok {
		return engine.ErrNotFound
	}
	m.advances[a.ID] = *a
	return nil
}

func (m *Memory) DeleteAdvancePayment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.advances[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.advances, id)
	return nil
}

// =============================================================================
// SOLAR TELEMETRY
// =============================================================================

const dateFormat = "2006-01-02"

func (m *Memory) ListSolarReadings(_ context.Context) ([]engine.SolarReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.SolarReading, 0, len(m.solar))
	for _, r := range m.solar {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) UpsertSolarReading(_ context.Context, r engine.SolarReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := r.Date.Format(dateFormat)
	if prev, ok := m.solar[key]; ok {
		r.ID = prev.ID
	} else {
		r.ID = m.allocID()
	}
	m.solar[key] = r
	return nil
}

func (m *Memory) LastSolarDate(_ context.Context, source engine.Source) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last time.Time
	for _, r := range m.solar {
		if r.Source == source && r.Date.After(last) {
			last = r.Date
		}
	}
	return last, nil
}

// =============================================================================
// SENSOR METRICS
// =============================================================================

func (m *Memory) UpsertSensorMetrics(_ context.Context, sm store.SensorMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sm.Timestamp.UTC().Format(time.RFC3339)
	if prev, ok := m.metrics[key]; ok {
		sm.ID = prev.ID
	} else {
		sm.ID = m.allocID()
	}
	m.metrics[key] = sm
	return nil
}

func (m *Memory) ListSensorMetrics(_ context.Context, f store.MetricsFilter) ([]store.SensorMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]store.SensorMetrics, 0, len(m.metrics))
	for _, sm := range m.metrics {
		if !f.Start.IsZero() && sm.Timestamp.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && sm.Timestamp.After(f.End) {
			continue
		}
		out = append(out, sm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (m *Memory) GetSettings(_ context.Context) (store.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings, nil
}

func (m *Memory) UpdateSettings(_ context.Context, s store.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}
