/*
importer_test.go - Importer tests

These run inside the package so the client factory and clock hooks can
be replaced with a local vendor stub.
*/
package solar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctcoding/hometracker/engine"
	"github.com/ctcoding/hometracker/store/memory"
)

func configuredStore(t *testing.T) *memory.Memory {
	t.Helper()
	st := memory.New()
	cfg, err := st.GetSettings(context.Background())
	require.NoError(t, err)
	cfg.SolarCloudAPIKey = "key"
	cfg.SolarSerialNumber = "serial"
	require.NoError(t, st.UpdateSettings(context.Background(), cfg))
	return st
}

func stubImporter(t *testing.T, st *memory.Memory, vendorURL string, now time.Time) *Importer {
	t.Helper()
	imp := NewImporter(st, zerolog.Nop())
	imp.newClient = func(apiKey, serial string) *Client {
		return NewClient(apiKey, serial, zerolog.Nop(), WithBaseURL(vendorURL))
	}
	imp.now = func() time.Time { return now }
	return imp
}

func TestImportYesterday_Unconfigured(t *testing.T) {
	// GIVEN: No cloud credentials in settings
	// WHEN: Importing
	// THEN: The run fails without touching the network

	imp := NewImporter(memory.New(), zerolog.Nop())
	res := imp.ImportYesterday(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "not configured")

	status := imp.Status()
	require.NotNil(t, status.LastRun)
	assert.False(t, status.Success)
}

func TestImportYesterday_EmptyResponseIsSuccess(t *testing.T) {
	// GIVEN: The vendor has not published yesterday's aggregate yet
	// WHEN: Importing
	// THEN: The run counts as successful with nothing stored

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	st := configuredStore(t)
	now := time.Date(2024, time.June, 15, 2, 0, 0, 0, time.UTC)
	imp := stubImporter(t, st, srv.URL, now)

	res := imp.ImportYesterday(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.Count)

	readings, err := st.ListSolarReadings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, readings)
	assert.True(t, imp.Status().Success)
}

func TestImportYesterday_FallbackCredentialsFromEnv(t *testing.T) {
	// GIVEN: Empty cloud settings but env-derived fallback credentials
	// WHEN: Importing
	// THEN: The fallback is used and the run succeeds

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	imp := stubImporter(t, memory.New(), srv.URL, time.Date(2024, time.June, 15, 2, 0, 0, 0, time.UTC))
	imp.SetFallbackCredentials("env-key", "1601234567")

	res := imp.ImportYesterday(context.Background())
	assert.True(t, res.Success, res.Message)
	assert.Equal(t, "env-key", gotAuth)
}

func TestImportYesterday_SettingsOverrideFallback(t *testing.T) {
	// GIVEN: Credentials both in settings and in the env fallback
	// WHEN: Importing
	// THEN: The settings values win

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	imp := stubImporter(t, configuredStore(t), srv.URL, time.Date(2024, time.June, 15, 2, 0, 0, 0, time.UTC))
	imp.SetFallbackCredentials("env-key", "9999999999")

	res := imp.ImportYesterday(context.Background())
	assert.True(t, res.Success, res.Message)
	assert.Equal(t, "key", gotAuth)
}

func TestImportRange_StoresCloudDays(t *testing.T) {
	// GIVEN: Credentials in settings and a vendor serving three days,
	//        one of them empty
	// WHEN: Importing the range
	// THEN: Only the non-empty days land in the store, source=cloud

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"2024-06-01": {"i_power": {"sum": 3149}, "i_temp1": {"mean": 485}},
			"2024-06-02": {"i_power": {"sum": 0}},
			"2024-06-03": {"i_power": {"sum": 4712}}
		}`))
	}))
	defer srv.Close()

	st := configuredStore(t)
	imp := stubImporter(t, st, srv.URL, time.Date(2024, time.June, 15, 2, 0, 0, 0, time.UTC))

	res := imp.ImportRange(context.Background(), "2024-06-01", "2024-06-03")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 2, res.Count)

	readings, err := st.ListSolarReadings(context.Background())
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, engine.SourceCloud, readings[0].Source)
	assert.Equal(t, 3.15, readings[0].EnergyKwh)
	require.NotNil(t, readings[0].Temp1)
	assert.Equal(t, 48.5, *readings[0].Temp1)
}

func TestFillGaps_RechecksLastTwoDays(t *testing.T) {
	// GIVEN: Cloud data current through yesterday
	// WHEN: Filling gaps
	// THEN: The last two days are still re-requested, because the
	//       vendor publishes aggregates with delay

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	st := configuredStore(t)
	now := time.Date(2024, time.June, 15, 3, 0, 0, 0, time.UTC)
	require.NoError(t, st.UpsertSolarReading(context.Background(), engine.SolarReading{
		Date:      time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC),
		EnergyKwh: 3,
		Source:    engine.SourceCloud,
	}))

	imp := stubImporter(t, st, srv.URL, now)
	res := imp.FillGaps(context.Background())
	require.True(t, res.Success, res.Message)
	assert.Contains(t, gotPath, "beginDate=2024-06-12")
	assert.Contains(t, gotPath, "endDate=2024-06-14")
}

func TestFillGaps_BackfillsFromWatermark(t *testing.T) {
	// GIVEN: The newest cloud entry a week old
	// WHEN: Filling gaps
	// THEN: The request starts two days before the watermark

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	st := configuredStore(t)
	now := time.Date(2024, time.June, 15, 3, 0, 0, 0, time.UTC)
	require.NoError(t, st.UpsertSolarReading(context.Background(), engine.SolarReading{
		Date:      time.Date(2024, time.June, 8, 0, 0, 0, 0, time.UTC),
		EnergyKwh: 3,
		Source:    engine.SourceCloud,
	}))

	imp := stubImporter(t, st, srv.URL, now)
	res := imp.FillGaps(context.Background())
	require.True(t, res.Success, res.Message)
	assert.Contains(t, gotPath, "beginDate=2024-06-06")
	assert.Contains(t, gotPath, "endDate=2024-06-14")
}
