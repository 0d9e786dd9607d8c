package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/ZanzyTHEbar/pontos-doacao/internal/errors"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/monitoring"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

func TestRetryWithConfig(t *testing.T) {
	transient := apperrors.NewExternalAPIError("Google Maps", errors.New("503"))
	permanent := errors.New("REQUEST_DENIED")

	tests := []struct {
		name          string
		failures      []error
		expectedCalls int
		expectError   bool
	}{
		{name: "succeeds first try", failures: nil, expectedCalls: 1},
		{name: "recovers after transient failures", failures: []error{transient, transient}, expectedCalls: 3},
		{name: "gives up after max attempts", failures: []error{transient, transient, transient, transient}, expectedCalls: 3, expectError: true},
		{name: "stops on permanent error", failures: []error{permanent}, expectedCalls: 1, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithConfig(context.Background(), fastConfig(), func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})

			assert.Equal(t, tt.expectedCalls, calls)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryWithConfig(ctx, DefaultRetryConfig(), func() error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestCalculateDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}

	assert.Equal(t, 100*time.Millisecond, calculateDelay(cfg, 0))
	assert.Equal(t, 400*time.Millisecond, calculateDelay(cfg, 2))
	assert.Equal(t, time.Second, calculateDelay(cfg, 10))

	cfg.JitterEnabled = true
	d := calculateDelay(cfg, 0)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.Less(t, d, 110*time.Millisecond)

	cfg.InitialDelay = 0
	assert.Equal(t, time.Duration(0), calculateDelay(cfg, 0))
}

func TestNewBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("test-breaker")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour

	cb := NewBreaker[int](cfg, monitoring.NewMetrics())
	failure := errors.New("upstream down")

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, failure })
		require.ErrorIs(t, err, failure)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	calls := 0
	_, err := cb.Execute(func() (int, error) {
		calls++
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 0, calls)
}

func TestNewBreakerIsSuccessful(t *testing.T) {
	notFound := errors.New("no results")
	cfg := DefaultCircuitBreakerConfig("filtered")
	cfg.FailureThreshold = 1
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, notFound) }

	cb := NewBreaker[string](cfg, nil)
	_, err := cb.Execute(func() (string, error) { return "", notFound })
	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
