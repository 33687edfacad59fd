package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/askwhyharsh/proxipal/internal/config"
	"github.com/askwhyharsh/proxipal/internal/location"
	apperrors "github.com/askwhyharsh/proxipal/pkg/errors"
)

// Geocoder turns coordinates into a human readable address.
type Geocoder interface {
	Reverse(ctx context.Context, c location.Coordinates) (string, error)
}

// Client talks to a Nominatim compatible /reverse endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(cfg config.GeocoderConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// checkResp returns an error carrying the upstream body if the status is not 2xx.
func checkResp(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("geocoder %s returned %d: %s", path, resp.StatusCode, string(body))
}

// Reverse calls GET /reverse. A response without an address yields
// ErrNoGeocodeResult.
func (c *Client) Reverse(ctx context.Context, coords location.Coordinates) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	q.Set("accept-language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build reverse request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "/reverse"); err != nil {
		return "", err
	}

	var result struct {
		DisplayName string `json:"display_name"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode reverse response: %w", err)
	}

	if result.Error != "" || result.DisplayName == "" {
		return "", apperrors.ErrNoGeocodeResult
	}

	return result.DisplayName, nil
}
