package ha

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/banshee-data/presence.report/internal/httputil"
	"github.com/banshee-data/presence.report/internal/ld2410"
)

// DefaultEntityID is the entity updated when no override is configured.
const DefaultEntityID = "binary_sensor.mmwave_presence"

// Settings keys for the Home Assistant connection, stored in the settings
// table and editable over the API.
const (
	SettingURL    = "ha_url"
	SettingToken  = "ha_token"
	SettingEntity = "ha_entity"
)

// ErrNotConfigured is returned when no Home Assistant URL is set.
var ErrNotConfigured = errors.New("ha: no home assistant url configured")

// Config holds the Home Assistant connection parameters.
type Config struct {
	BaseURL  string `json:"base_url"`
	Token    string `json:"-"`
	EntityID string `json:"entity_id"`
}

// ConfigFromSettings builds a Config from the daemon settings map.
func ConfigFromSettings(settings map[string]string) Config {
	cfg := Config{
		BaseURL:  settings[SettingURL],
		Token:    settings[SettingToken],
		EntityID: settings[SettingEntity],
	}
	if cfg.EntityID == "" {
		cfg.EntityID = DefaultEntityID
	}
	return cfg
}

// Configured reports whether a push target has been set up.
func (c Config) Configured() bool {
	return c.BaseURL != ""
}

// Client pushes entity states to one Home Assistant instance.
type Client struct {
	cfg  Config
	http httputil.HTTPClient
}

// NewClient creates a Client. A nil httpClient uses the default client.
func NewClient(cfg Config, httpClient httputil.HTTPClient) *Client {
	if cfg.EntityID == "" {
		cfg.EntityID = DefaultEntityID
	}
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(nil)
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Config returns the client's connection parameters.
func (c *Client) Config() Config {
	return c.cfg
}

// PushState posts the reading as the entity's new state.
func (c *Client) PushState(ctx context.Context, r ld2410.SensorReading) error {
	if !c.cfg.Configured() {
		return ErrNotConfigured
	}

	body, err := FormatState(r)
	if err != nil {
		return fmt.Errorf("ha: encode state: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/api/states/" + c.cfg.EntityID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ha: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ha: push state: %w", err)
	}
	defer resp.Body.Close()

	// 200 updates an existing entity, 201 creates it.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("ha: push state: unexpected status %d", resp.StatusCode)
	}
	return nil
}
