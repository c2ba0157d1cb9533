package solar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ctcoding/hometracker/engine"
	"github.com/ctcoding/hometracker/store"
)

// Result reports the outcome of an import run.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// Status reports the importer's last scheduled run.
type Status struct {
	LastRun *time.Time `json:"lastRun"`
	Success bool       `json:"success"`
}

// Importer pulls daily production data from the cloud into the store.
// Credentials come from settings on every run so updates through the
// API take effect without a restart.
type Importer struct {
	store store.Store
	log   zerolog.Logger

	// overridable for tests
	newClient func(apiKey, serial string) *Client
	now       func() time.Time

	// env-derived credentials, used when settings are empty
	fallbackAPIKey string
	fallbackSerial string

	mu          sync.Mutex
	lastRun     *time.Time
	lastSuccess bool
}

// NewImporter creates an importer over the given store.
func NewImporter(st store.Store, log zerolog.Logger) *Importer {
	l := log.With().Str("component", "solar-import").Logger()
	return &Importer{
		store:     st,
		log:       l,
		newClient: func(apiKey, serial string) *Client { return NewClient(apiKey, serial, l) },
		now:       time.Now,
	}
}

// SetFallbackCredentials supplies environment-derived cloud
// credentials. Settings stored in the database take precedence; the
// fallback only applies while the corresponding settings are empty.
// Call before the scheduler starts.
func (i *Importer) SetFallbackCredentials(apiKey, serial string) {
	i.fallbackAPIKey = apiKey
	i.fallbackSerial = serial
}

// Name implements scheduler.Job.
func (i *Importer) Name() string { return "solar-import" }

// Run implements scheduler.Job. It imports yesterday's production data.
func (i *Importer) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res := i.ImportYesterday(ctx)
	if !res.Success {
		i.log.Warn().Str("message", res.Message).Msg("Scheduled import did not succeed")
	}
	return nil
}

// Status returns the outcome of the last scheduled run.
func (i *Importer) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Status{LastRun: i.lastRun, Success: i.lastSuccess}
}

// runLog returns a logger tagged with a fresh run ID so log lines
// from overlapping manual and scheduled imports stay distinguishable.
func (i *Importer) runLog() zerolog.Logger {
	return i.log.With().Str("run_id", uuid.New().String()).Logger()
}

func (i *Importer) setOutcome(success bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := i.now()
	i.lastRun = &now
	i.lastSuccess = success
}

func (i *Importer) client(ctx context.Context) (*Client, error) {
	cfg, err := i.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	key, serial := cfg.SolarCloudAPIKey, cfg.SolarSerialNumber
	if key == "" {
		key = i.fallbackAPIKey
	}
	if serial == "" {
		serial = i.fallbackSerial
	}
	if key == "" || serial == "" {
		return nil, nil
	}
	return i.newClient(key, serial), nil
}

// ImportYesterday fetches and stores the previous day's data.
func (i *Importer) ImportYesterday(ctx context.Context) Result {
	log := i.runLog()

	client, err := i.client(ctx)
	if err != nil {
		i.setOutcome(false)
		return Result{Message: "failed to load settings: " + err.Error()}
	}
	if client == nil {
		i.setOutcome(false)
		return Result{Message: "cloud API key or serial number not configured"}
	}

	data, err := client.GetYesterdayData(ctx, i.now())
	if err != nil {
		i.setOutcome(false)
		log.Error().Err(err).Msg("Import failed")
		return Result{Message: err.Error()}
	}
	if data == nil {
		// Empty response is normal when the device is offline or the
		// aggregate is not published yet.
		i.setOutcome(true)
		log.Info().Msg("No data available for yesterday")
		return Result{Success: true, Message: "no data available for yesterday"}
	}

	if err := i.upsert(ctx, *data); err != nil {
		i.setOutcome(false)
		return Result{Message: err.Error()}
	}

	i.setOutcome(true)
	log.Info().Str("date", data.Date).Float64("kwh", data.EnergyKwh).Msg("Imported daily production")
	return Result{Success: true, Message: "imported " + data.Date, Count: 1}
}

// ImportRange fetches and stores all days in [startDate, endDate].
// Days with neither energy nor temperature data are skipped.
func (i *Importer) ImportRange(ctx context.Context, startDate, endDate string) Result {
	log := i.runLog()

	client, err := i.client(ctx)
	if err != nil {
		return Result{Message: "failed to load settings: " + err.Error()}
	}
	if client == nil {
		return Result{Message: "cloud API key or serial number not configured"}
	}

	days, err := client.GetDailyData(ctx, startDate, endDate)
	if err != nil {
		log.Error().Err(err).Msg("Range import failed")
		return Result{Message: err.Error()}
	}
	if len(days) == 0 {
		return Result{Success: true, Message: "no data available for this period"}
	}

	count := 0
	for _, d := range days {
		if d.EnergyKwh <= 0 && d.Temp1 == nil && d.Temp2 == nil {
			continue
		}
		if err := i.upsert(ctx, d); err != nil {
			return Result{Message: err.Error(), Count: count}
		}
		count++
	}

	log.Info().Int("days", count).Str("from", startDate).Str("to", endDate).Msg("Imported range")
	return Result{Success: true, Message: "imported date range", Count: count}
}

// FillGaps imports everything between the last cloud entry and
// yesterday. The last 48 hours are always re-requested because the
// API publishes aggregates with delay.
func (i *Importer) FillGaps(ctx context.Context) Result {
	client, err := i.client(ctx)
	if err != nil {
		return Result{Message: "failed to load settings: " + err.Error()}
	}
	if client == nil {
		return Result{Message: "cloud API key or serial number not configured"}
	}

	now := i.now()
	yesterday := now.AddDate(0, 0, -1)
	twoDaysAgo := now.AddDate(0, 0, -2)

	last, err := i.store.LastSolarDate(ctx, engine.SourceCloud)
	if err != nil {
		return Result{Message: err.Error()}
	}

	start := twoDaysAgo
	if !last.IsZero() {
		recheckFrom := last.AddDate(0, 0, -2)
		if recheckFrom.Before(twoDaysAgo) {
			start = recheckFrom
		}
	}

	startStr := start.Format("2006-01-02")
	endStr := yesterday.Format("2006-01-02")
	if startStr >= endStr {
		return Result{Success: true, Message: "no check needed"}
	}

	log := i.runLog()
	log.Info().Str("from", startStr).Str("to", endStr).Msg("Checking for gaps")
	return i.ImportRange(ctx, startStr, endStr)
}

func (i *Importer) upsert(ctx context.Context, d DayData) error {
	date, err := time.Parse("2006-01-02", d.Date)
	if err != nil {
		return err
	}
	return i.store.UpsertSolarReading(ctx, engine.SolarReading{
		Date:      date,
		EnergyKwh: d.EnergyKwh,
		Temp1:     d.Temp1,
		Temp2:     d.Temp2,
		Source:    engine.SourceCloud,
	})
}
