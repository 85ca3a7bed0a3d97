package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
)

type httpProvider struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProvider talks to a geocoding service over JSON. The endpoint
// receives the address and answers with a lat/lng pair.
func NewHTTPProvider(endpoint string) Geocoder {
	return &httpProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type geocodeResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p *httpProvider) Geocode(ctx context.Context, addr territorydomain.Address) (territorydomain.Coordinates, error) {
	body, err := json.Marshal(addr)
	if err != nil {
		return territorydomain.Coordinates{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return territorydomain.Coordinates{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return territorydomain.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return territorydomain.Coordinates{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return territorydomain.Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return territorydomain.Coordinates{Lat: out.Lat, Lng: out.Lng}, nil
}
