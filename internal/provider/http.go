package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTP source adapters for the cell gateway endpoints. Every call carries
// a bounded timeout: a collaborator that does not answer is treated as
// empty, never blocks the planner.

const sourceTimeout = 10 * time.Second

type httpClient struct {
	base   string
	client *http.Client
}

func newHTTPClient(base string) httpClient {
	return httpClient{
		base:   base,
		client: &http.Client{Timeout: sourceTimeout},
	}
}

// getRows fetches a JSON array of objects from base+path.
func (c httpClient) getRows(ctx context.Context, path string, query url.Values) ([]Row, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch %s: status %d", path, resp.StatusCode)
	}

	var rows []Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rows, nil
}

// HTTPWorkOrderSource reads routing lines from the ERP gateway.
type HTTPWorkOrderSource struct{ httpClient }

// NewHTTPWorkOrderSource creates a source for the given base URL.
func NewHTTPWorkOrderSource(base string) *HTTPWorkOrderSource {
	return &HTTPWorkOrderSource{newHTTPClient(base)}
}

func (s *HTTPWorkOrderSource) ListActiveOperations(ctx context.Context) ([]Row, error) {
	return s.getRows(ctx, "/operations/active", nil)
}

// HTTPFixtureSource reads the fixture/pallet matrix and the static
// pallet catalog from the fixture gateway.
type HTTPFixtureSource struct{ httpClient }

// NewHTTPFixtureSource creates a source for the given base URL.
func NewHTTPFixtureSource(base string) *HTTPFixtureSource {
	return &HTTPFixtureSource{newHTTPClient(base)}
}

func (s *HTTPFixtureSource) GetFixtureMatrix(ctx context.Context, pieceCode string) ([]Row, error) {
	return s.getRows(ctx, "/matrix", url.Values{"piece": {pieceCode}})
}

func (s *HTTPFixtureSource) ListMachinePallets(ctx context.Context) ([]Row, error) {
	return s.getRows(ctx, "/pallets", nil)
}

// HTTPToolSource reads tool requirements and machine tool inventory.
type HTTPToolSource struct{ httpClient }

// NewHTTPToolSource creates a source for the given base URL.
func NewHTTPToolSource(base string) *HTTPToolSource {
	return &HTTPToolSource{newHTTPClient(base)}
}

func (s *HTTPToolSource) GetToolRequirements(ctx context.Context, program string) ([]Row, error) {
	return s.getRows(ctx, "/programs/tools", url.Values{"program": {program}})
}

func (s *HTTPToolSource) ListMachineTools(ctx context.Context, machineID string) ([]Row, error) {
	return s.getRows(ctx, "/machines/tools", url.Values{"machine": {machineID}})
}

// HTTPMaterialSource reads raw-material stock pallets.
type HTTPMaterialSource struct{ httpClient }

// NewHTTPMaterialSource creates a source for the given base URL.
func NewHTTPMaterialSource(base string) *HTTPMaterialSource {
	return &HTTPMaterialSource{newHTTPClient(base)}
}

func (s *HTTPMaterialSource) ListStorage(ctx context.Context) ([]Row, error) {
	return s.getRows(ctx, "/storage", nil)
}

// HTTPRouteSource reads live pallet route telemetry.
type HTTPRouteSource struct{ httpClient }

// NewHTTPRouteSource creates a source for the given base URL.
func NewHTTPRouteSource(base string) *HTTPRouteSource {
	return &HTTPRouteSource{newHTTPClient(base)}
}

func (s *HTTPRouteSource) ListRoutes(ctx context.Context) ([]Row, error) {
	return s.getRows(ctx, "/routes", nil)
}

// CatalogOverrideSource serves the fixture matrix from an inner source
// while answering the static pallet catalog from profile-supplied rows.
// Used when the cell profile carries its own catalog.
type CatalogOverrideSource struct {
	Matrix  FixtureSource
	Pallets []Row
}

func (s *CatalogOverrideSource) GetFixtureMatrix(ctx context.Context, pieceCode string) ([]Row, error) {
	if s.Matrix == nil {
		return nil, nil
	}
	return s.Matrix.GetFixtureMatrix(ctx, pieceCode)
}

func (s *CatalogOverrideSource) ListMachinePallets(ctx context.Context) ([]Row, error) {
	return s.Pallets, nil
}
