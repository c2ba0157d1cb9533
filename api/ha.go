/*
ha.go - Home Assistant proxy and metric ingestion

PURPOSE:
  The dashboard cannot call a Home Assistant instance directly (CORS,
  token exposure), so three read paths are proxied through the server.
  Separately, an automation inside Home Assistant pushes periodic
  sensor snapshots to /api/homeassistant/metrics; that path is the
  only authenticated one, guarded by a bearer token from settings.

SEE ALSO:
  - homeassistant/client.go: REST client
  - store/store.go: SensorMetrics persistence
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ctcoding/hometracker/store"
)

// =============================================================================
// PROXY ENDPOINTS
// =============================================================================

// haTargetRequest carries the instance credentials for a proxy call.
type haTargetRequest struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// haTarget fills in the configured defaults for omitted credentials.
func (h *Handler) haTarget(url, token string) (string, string) {
	if url == "" {
		url = h.HADefaultURL
	}
	if token == "" {
		token = h.HADefaultToken
	}
	return url, token
}

// HATest checks connectivity to a Home Assistant instance.
func (h *Handler) HATest(w http.ResponseWriter, r *http.Request) {
	var req haTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	url, token := h.haTarget(req.URL, req.Token)
	ok := h.HA.Test(r.Context(), url, token)
	writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

// HASensors lists the instance's sensor entities.
func (h *Handler) HASensors(w http.ResponseWriter, r *http.Request) {
	var req haTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	url, token := h.haTarget(req.URL, req.Token)
	sensors, err := h.HA.Sensors(r.Context(), url, token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch sensors", err)
		return
	}
	writeJSON(w, http.StatusOK, sensors)
}

// haValuesRequest resolves current values for entities. Each entry is
// either a single entity ID or a list whose values are averaged.
type haValuesRequest struct {
	URL      string            `json:"url"`
	Token    string            `json:"token"`
	Entities []json.RawMessage `json:"entities"`
}

// HAValues returns current numeric sensor values.
func (h *Handler) HAValues(w http.ResponseWriter, r *http.Request) {
	var req haValuesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	groups := make([][]string, 0, len(req.Entities))
	for _, raw := range req.Entities {
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			groups = append(groups, []string{single})
			continue
		}
		var multi []string
		if err := json.Unmarshal(raw, &multi); err == nil {
			groups = append(groups, multi)
			continue
		}
		writeError(w, http.StatusBadRequest, "Invalid entity entry", nil)
		return
	}

	url, token := h.haTarget(req.URL, req.Token)
	values, err := h.HA.Values(r.Context(), url, token, groups)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch values", err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// =============================================================================
// METRIC INGESTION
// =============================================================================

// RequireAPIToken guards metric ingestion with the bearer token stored
// in settings. 401 when the token is missing, unconfigured, or wrong.
func (h *Handler) RequireAPIToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid Authorization header", nil)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		cfg, err := h.Store.GetSettings(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
			return
		}
		if cfg.HomeAssistantAPIToken == "" {
			writeError(w, http.StatusUnauthorized, "API token not configured in settings", nil)
			return
		}
		if token != cfg.HomeAssistantAPIToken {
			writeError(w, http.StatusUnauthorized, "Invalid API token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsRequest is the snapshot pushed by the Home Assistant
// automation. Values arrive as strings or numbers depending on the
// template, so they are parsed leniently.
type metricsRequest struct {
	Timestamp string                     `json:"timestamp"`
	Metrics   map[string]json.RawMessage `json:"metrics"`
}

// IngestMetrics stores one sensor snapshot, replacing any snapshot
// with the same timestamp.
func (h *Handler) IngestMetrics(w http.ResponseWriter, r *http.Request) {
	var req metricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if req.Timestamp == "" || req.Metrics == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields: timestamp, metrics", nil)
		return
	}
	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid timestamp format", err)
		return
	}

	m := store.SensorMetrics{
		Timestamp:        ts,
		BrightnessEast:   metricValue(req.Metrics, "brightness_east"),
		BrightnessSouth:  metricValue(req.Metrics, "brightness_south"),
		BrightnessWest:   metricValue(req.Metrics, "brightness_west"),
		WindSpeed:        metricValue(req.Metrics, "wind_speed"),
		TempOutdoorSouth: metricValue(req.Metrics, "temp_outdoor_south"),
		TempOutdoorNorth: metricValue(req.Metrics, "temp_outdoor_north"),
		PVProduction:     metricValue(req.Metrics, "pv_production"),
		SolarPower:       metricValue(req.Metrics, "solar_power"),
	}
	if err := h.Store.UpsertSensorMetrics(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store metrics", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ListMetrics returns stored snapshots, newest first. Supports
// ?start=, ?end= (RFC 3339) and ?limit=.
func (h *Handler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	var filter store.MetricsFilter
	q := r.URL.Query()
	if s := q.Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start", err)
			return
		}
		filter.Start = t
	}
	if s := q.Get("end"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end", err)
			return
		}
		filter.End = t
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filter.Limit = n
	}

	metrics, err := h.Store.ListSensorMetrics(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list metrics", err)
		return
	}

	type metricsDTO struct {
		ID               int64    `json:"id"`
		Timestamp        string   `json:"timestamp"`
		BrightnessEast   *float64 `json:"brightnessEast,omitempty"`
		BrightnessSouth  *float64 `json:"brightnessSouth,omitempty"`
		BrightnessWest   *float64 `json:"brightnessWest,omitempty"`
		WindSpeed        *float64 `json:"windSpeed,omitempty"`
		TempOutdoorSouth *float64 `json:"tempOutdoorSouth,omitempty"`
		TempOutdoorNorth *float64 `json:"tempOutdoorNorth,omitempty"`
		PVProduction     *float64 `json:"pvProduction,omitempty"`
		SolarPower       *float64 `json:"solarPower,omitempty"`
	}
	dtos := make([]metricsDTO, len(metrics))
	for i, m := range metrics {
		dtos[i] = metricsDTO{
			ID:               m.ID,
			Timestamp:        m.Timestamp.UTC().Format(time.RFC3339),
			BrightnessEast:   m.BrightnessEast,
			BrightnessSouth:  m.BrightnessSouth,
			BrightnessWest:   m.BrightnessWest,
			WindSpeed:        m.WindSpeed,
			TempOutdoorSouth: m.TempOutdoorSouth,
			TempOutdoorNorth: m.TempOutdoorNorth,
			PVProduction:     m.PVProduction,
			SolarPower:       m.SolarPower,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// metricValue parses one metric field, accepting numbers and numeric
// strings. Missing or unparseable values become nil.
func metricValue(metrics map[string]json.RawMessage, key string) *float64 {
	raw, ok := metrics[key]
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return &v
		}
	}
	return nil
}
