// Package autobuy implements an unattended purchasing agent.
// It observes the economy via the API, ranks generator purchases by output
// gained per unit of cost, and buys through the admin buy endpoint.
package autobuy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/idle-economy/internal/engine"
)

// Snapshot holds all data collected during an observation cycle.
type Snapshot struct {
	Status     Status
	Resources  []engine.ResourceView
	Generators []engine.GeneratorView
}

// Status mirrors GET /api/v1/status.
type Status struct {
	Status  engine.Status `json:"status"`
	Speed   float64       `json:"speed"`
	Running bool          `json:"running"`
}

// Observer fetches economy state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches status, resources and generators.
func (o *Observer) Observe(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := o.fetchJSON(ctx, "/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/resources", &snap.Resources); err != nil {
		return nil, fmt.Errorf("fetch resources: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/generators", &snap.Generators); err != nil {
		return nil, fmt.Errorf("fetch generators: %w", err)
	}

	return snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
