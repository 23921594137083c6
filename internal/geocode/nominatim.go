package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

// NominatimProvider resolves addresses through the OpenStreetMap Nominatim
// API. Requests are throttled to one per second, which is the usage policy of
// the public endpoint.
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatimProvider creates a Nominatim provider identifying itself with
// userAgent. An empty baseURL selects the public endpoint.
func NewNominatimProvider(baseURL, userAgent string) *NominatimProvider {
	if baseURL == "" {
		baseURL = defaultNominatimBaseURL
	}

	return &NominatimProvider{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
}

// Geocode resolves address to coordinates, waiting for rate-limiter
// permission first. Returns ErrNoMatch when the service has no result.
func (p *NominatimProvider) Geocode(ctx context.Context, address string) (float64, float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, 0, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	params := url.Values{}
	params.Add("q", address)
	params.Add("format", "jsonv2")
	params.Add("limit", "1")

	endpoint := fmt.Sprintf("%s/search?%s", p.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoding API error (status %d): %s", resp.StatusCode, string(body))
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return 0, 0, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(results) == 0 {
		return 0, 0, ErrNoMatch
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q in response: %w", results[0].Lat, err)
	}

	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q in response: %w", results[0].Lon, err)
	}

	return lat, lon, nil
}

// Verify the provider satisfies the interface.
var _ Provider = (*NominatimProvider)(nil)
