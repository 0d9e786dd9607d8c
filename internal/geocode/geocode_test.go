package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/monitoring"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
	"status": "OK",
	"results": [{
		"formatted_address": "Av. Paulista, 1000 - Bela Vista, São Paulo - SP, Brasil",
		"geometry": {"location": {"lat": -23.5651, "lng": -46.6519}}
	}]
}`

type fakeMaps struct {
	server *httptest.Server
	calls  int32
}

// newFakeMaps serves the given bodies in order, repeating the last one
func newFakeMaps(t *testing.T, bodies ...string) *fakeMaps {
	t.Helper()
	f := &fakeMaps{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&f.calls, 1))
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "br", r.URL.Query().Get("region"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		body := bodies[len(bodies)-1]
		if n <= len(bodies) {
			body = bodies[n-1]
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeMaps) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig("test-key")
	cfg.BaseURL = baseURL
	cfg.RequestsPerSecond = 0
	cfg.Retry.InitialDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond
	cfg.Breaker.Timeout = time.Hour
	return cfg
}

func TestNewGoogleGeocoderRequiresKey(t *testing.T) {
	_, err := NewGoogleGeocoder(DefaultConfig(""), nil, nil)
	assert.Error(t, err)
}

func TestGeocodeSuccessIsCached(t *testing.T) {
	fake := newFakeMaps(t, okBody)
	metrics := monitoring.NewMetrics()

	g, err := NewGoogleGeocoder(testConfig(fake.server.URL), metrics, nil)
	require.NoError(t, err)

	loc, err := g.Geocode(context.Background(), "Av. Paulista, 1000, São Paulo")
	require.NoError(t, err)
	assert.InDelta(t, -23.5651, loc.Lat, 1e-9)
	assert.InDelta(t, -46.6519, loc.Lng, 1e-9)
	assert.Contains(t, loc.FormattedAddress, "Paulista")

	// same address modulo case and spacing hits the cache
	again, err := g.Geocode(context.Background(), "  av. paulista,   1000, são paulo ")
	require.NoError(t, err)
	assert.Equal(t, loc, again)
	assert.Equal(t, 1, fake.callCount())
}

func TestGeocodeZeroResults(t *testing.T) {
	fake := newFakeMaps(t, `{"status":"ZERO_RESULTS","results":[]}`)

	g, err := NewGoogleGeocoder(testConfig(fake.server.URL), nil, nil)
	require.NoError(t, err)

	_, err = g.Geocode(context.Background(), "Rua que não existe")
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Equal(t, 1, fake.callCount(), "no results must not be retried")
	assert.Equal(t, "closed", g.BreakerState())
}

func TestGeocodeRetriesTransientFailures(t *testing.T) {
	fake := newFakeMaps(t,
		`{"status":"OVER_QUERY_LIMIT","error_message":"slow down","results":[]}`,
		`{"status":"UNKNOWN_ERROR","results":[]}`,
		okBody,
	)

	g, err := NewGoogleGeocoder(testConfig(fake.server.URL), nil, nil)
	require.NoError(t, err)

	loc, err := g.Geocode(context.Background(), "Av. Paulista, 1000")
	require.NoError(t, err)
	assert.InDelta(t, -23.5651, loc.Lat, 1e-9)
	assert.Equal(t, 3, fake.callCount())
}

func TestGeocodeDoesNotRetryDeniedRequests(t *testing.T) {
	fake := newFakeMaps(t, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`)

	g, err := NewGoogleGeocoder(testConfig(fake.server.URL), nil, nil)
	require.NoError(t, err)

	_, err = g.Geocode(context.Background(), "Av. Paulista, 1000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.Equal(t, 1, fake.callCount())
}

func TestGeocodeCircuitOpens(t *testing.T) {
	fake := newFakeMaps(t, `{"status":"REQUEST_DENIED","results":[]}`)

	cfg := testConfig(fake.server.URL)
	cfg.Breaker = resilience.DefaultCircuitBreakerConfig("geocode-test")
	cfg.Breaker.FailureThreshold = 2
	cfg.Breaker.Timeout = time.Hour

	g, err := NewGoogleGeocoder(cfg, monitoring.NewMetrics(), nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = g.Geocode(context.Background(), fmt.Sprintf("Rua %d", i))
		require.Error(t, err)
	}
	assert.Equal(t, "open", g.BreakerState())

	_, err = g.Geocode(context.Background(), "Rua 3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, 2, fake.callCount())
}

func TestGeocodeEmptyAddress(t *testing.T) {
	fake := newFakeMaps(t, okBody)

	g, err := NewGoogleGeocoder(testConfig(fake.server.URL), nil, nil)
	require.NoError(t, err)

	_, err = g.Geocode(context.Background(), "   ")
	assert.Error(t, err)
	assert.Equal(t, 0, fake.callCount())
}
