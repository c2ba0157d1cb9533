// Package homeassistant is a small REST client for a Home Assistant
// instance. The server only proxies three read paths: a connectivity
// check, the sensor catalog, and current sensor values.
package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// State is one entity state as Home Assistant reports it.
type State struct {
	EntityID   string `json:"entity_id"`
	State      string `json:"state"`
	Attributes struct {
		FriendlyName      string `json:"friendly_name"`
		UnitOfMeasurement string `json:"unit_of_measurement"`
		DeviceClass       string `json:"device_class"`
	} `json:"attributes"`
}

// Sensor is the trimmed view of a sensor entity served to clients.
type Sensor struct {
	EntityID    string `json:"entity_id"`
	Name        string `json:"name"`
	State       string `json:"state"`
	Unit        string `json:"unit,omitempty"`
	DeviceClass string `json:"device_class,omitempty"`
}

// Client calls the Home Assistant REST API. URL and token are passed
// per call because they live in mutable settings.
type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

func (c *Client) get(ctx context.Context, baseURL, token, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(baseURL, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.httpClient.Do(req)
}

// Test checks whether the instance is reachable with the given token.
func (c *Client) Test(ctx context.Context, baseURL, token string) bool {
	resp, err := c.get(ctx, baseURL, token, "/api/")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) states(ctx context.Context, baseURL, token string) ([]State, error) {
	resp, err := c.get(ctx, baseURL, token, "/api/states")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("home assistant returned %d", resp.StatusCode)
	}
	var states []State
	if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
		return nil, err
	}
	return states, nil
}

// Sensors lists all sensor.* entities sorted by display name.
func (c *Client) Sensors(ctx context.Context, baseURL, token string) ([]Sensor, error) {
	states, err := c.states(ctx, baseURL, token)
	if err != nil {
		return nil, err
	}

	sensors := make([]Sensor, 0, len(states))
	for _, s := range states {
		if !strings.HasPrefix(s.EntityID, "sensor.") {
			continue
		}
		name := s.Attributes.FriendlyName
		if name == "" {
			name = s.EntityID
		}
		sensors = append(sensors, Sensor{
			EntityID:    s.EntityID,
			Name:        name,
			State:       s.State,
			Unit:        s.Attributes.UnitOfMeasurement,
			DeviceClass: s.Attributes.DeviceClass,
		})
	}
	sort.Slice(sensors, func(i, j int) bool { return sensors[i].Name < sensors[j].Name })
	return sensors, nil
}

// Values resolves current numeric values for entity groups. A group
// with several entities yields their average; the result is keyed by
// the comma-joined group. Unparseable or missing states yield nil.
func (c *Client) Values(ctx context.Context, baseURL, token string, groups [][]string) (map[string]*float64, error) {
	states, err := c.states(ctx, baseURL, token)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]string, len(states))
	for _, s := range states {
		byID[s.EntityID] = s.State
	}

	result := make(map[string]*float64, len(groups))
	for _, group := range groups {
		var sum float64
		var n int
		for _, id := range group {
			if raw, ok := byID[id]; ok {
				if v, err := strconv.ParseFloat(raw, 64); err == nil {
					sum += v
					n++
				}
			}
		}
		key := strings.Join(group, ",")
		if n == 0 {
			result[key] = nil
			continue
		}
		avg := sum / float64(n)
		result[key] = &avg
	}
	return result, nil
}
