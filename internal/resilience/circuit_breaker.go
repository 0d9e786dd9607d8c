package resilience

import (
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/monitoring"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = gobreaker.ErrOpenState

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold uint32        // consecutive failures before opening
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state counter reset, 0 keeps counts
	Timeout          time.Duration // open duration before probing
	IsSuccessful     func(error) bool
}

// DefaultCircuitBreakerConfig returns defaults for external API calls
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
	}
}

// NewBreaker builds a gobreaker circuit breaker that logs transitions and
// publishes its state to metrics.
func NewBreaker[T any](cfg CircuitBreakerConfig, metrics *monitoring.Metrics) *gobreaker.CircuitBreaker[T] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: cfg.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
			metrics.SetCircuitBreakerState(name, to.String())
		},
	}

	metrics.SetCircuitBreakerState(cfg.Name, gobreaker.StateClosed.String())
	return gobreaker.NewCircuitBreaker[T](settings)
}
