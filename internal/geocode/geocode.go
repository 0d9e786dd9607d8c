// Package geocode resolves donation point addresses to coordinates.
package geocode

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/errors"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/monitoring"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/resilience"
	"github.com/hashicorp/golang-lru/v2/expirable"
	gobreaker "github.com/sony/gobreaker/v2"
	"googlemaps.github.io/maps"
)

// ErrNoResults is returned when the address matched nothing
var ErrNoResults = stderrors.New("geocode: no results")

// Location is a resolved coordinate pair
type Location struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
}

// Geocoder resolves a free-form address
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Location, error)
}

// Config configures the Google geocoder
type Config struct {
	APIKey            string
	BaseURL           string // overrides the Google endpoint, used by tests
	Region            string
	Language          string
	RequestsPerSecond int
	CacheSize         int
	CacheTTL          time.Duration
	Retry             resilience.RetryConfig
	Breaker           resilience.CircuitBreakerConfig
}

// DefaultConfig returns the configuration used in production
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:            apiKey,
		Region:            "br",
		Language:          "pt-BR",
		RequestsPerSecond: 10,
		CacheSize:         1024,
		CacheTTL:          24 * time.Hour,
		Retry:             resilience.DefaultRetryConfig(),
		Breaker:           resilience.DefaultCircuitBreakerConfig("google-geocoding"),
	}
}

// GoogleGeocoder calls the Google Geocoding API behind a cache, a retry and
// a circuit breaker.
type GoogleGeocoder struct {
	client   *maps.Client
	region   string
	language string
	cache    *expirable.LRU[string, Location]
	breaker  *gobreaker.CircuitBreaker[Location]
	retry    resilience.RetryConfig
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
}

// NewGoogleGeocoder creates a geocoder; it fails when no API key is set
func NewGoogleGeocoder(cfg Config, metrics *monitoring.Metrics, logger *monitoring.Logger) (*GoogleGeocoder, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigurationError("Google Maps API key is not configured", nil)
	}

	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, maps.WithRateLimit(cfg.RequestsPerSecond))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	if logger == nil {
		logger = monitoring.NewLogger()
	}

	breakerCfg := cfg.Breaker
	if breakerCfg.Name == "" {
		breakerCfg = resilience.DefaultCircuitBreakerConfig("google-geocoding")
	}
	// an address that matches nothing says nothing about the API's health
	breakerCfg.IsSuccessful = func(err error) bool {
		return err == nil || stderrors.Is(err, ErrNoResults)
	}

	return &GoogleGeocoder{
		client:   client,
		region:   cfg.Region,
		language: cfg.Language,
		cache:    expirable.NewLRU[string, Location](cfg.CacheSize, nil, cfg.CacheTTL),
		breaker:  resilience.NewBreaker[Location](breakerCfg, metrics),
		retry:    cfg.Retry,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Geocode returns the first match for address
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (Location, error) {
	key := normalizeAddress(address)
	if key == "" {
		return Location{}, errors.NewValidationError("address is empty", nil)
	}

	if loc, ok := g.cache.Get(key); ok {
		g.metrics.RecordGeocode("cache_hit")
		return loc, nil
	}

	start := time.Now()
	loc, err := g.breaker.Execute(func() (Location, error) {
		var result Location
		err := resilience.RetryWithConfig(ctx, g.retry, func() error {
			var lookupErr error
			result, lookupErr = g.lookup(ctx, address)
			return lookupErr
		})
		return result, err
	})
	g.logger.ExternalAPILogger("google_geocoding", "geocode", time.Since(start), err)

	switch {
	case err == nil:
		g.metrics.RecordGeocode("success")
		g.cache.Add(key, loc)
		return loc, nil
	case stderrors.Is(err, ErrNoResults):
		g.metrics.RecordGeocode("no_results")
		return Location{}, err
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		g.metrics.RecordGeocode("circuit_open")
		return Location{}, errors.NewExternalAPIError("Google Maps", err)
	default:
		g.metrics.RecordGeocode("error")
		return Location{}, err
	}
}

// BreakerState reports the circuit breaker state for health checks
func (g *GoogleGeocoder) BreakerState() string {
	return g.breaker.State().String()
}

func (g *GoogleGeocoder) lookup(ctx context.Context, address string) (Location, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address:  address,
		Region:   g.region,
		Language: g.language,
	})
	if err != nil {
		return Location{}, classify(err)
	}
	if len(results) == 0 {
		return Location{}, ErrNoResults
	}

	first := results[0]
	return Location{
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}, nil
}

// classify marks transient API failures as retryable external errors.
// Rejected keys and malformed requests are returned unchanged.
func classify(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	for _, permanent := range []string{"REQUEST_DENIED", "INVALID_REQUEST"} {
		if strings.Contains(msg, permanent) {
			return fmt.Errorf("google geocoding rejected request: %w", err)
		}
	}

	return errors.NewExternalAPIError("Google Maps", err)
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
