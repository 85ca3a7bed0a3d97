package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	territorydomain "github.com/northlink/partnerhub/internal/territory/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProviderGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var addr territorydomain.Address
		require.NoError(t, json.NewDecoder(r.Body).Decode(&addr))
		assert.Equal(t, "Atlanta", addr.City)

		_ = json.NewEncoder(w).Encode(map[string]float64{"lat": 33.75, "lng": -84.39})
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL)
	coords, err := provider.Geocode(context.Background(), territorydomain.Address{
		Street:  "123 Peachtree St",
		City:    "Atlanta",
		State:   "GA",
		ZipCode: "30301",
	})
	require.NoError(t, err)
	assert.InDelta(t, 33.75, coords.Lat, 0.0001)
	assert.InDelta(t, -84.39, coords.Lng, 0.0001)
}

func TestHTTPProviderUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL)
	_, err := provider.Geocode(context.Background(), territorydomain.Address{City: "Atlanta"})
	assert.ErrorIs(t, err, ErrUnavailable)
}
