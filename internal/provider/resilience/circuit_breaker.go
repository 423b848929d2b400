// Package resilience wraps outbound provider calls in a circuit breaker,
// exponential backoff retries and optional request pacing.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker thresholds. A planner request fans out into many calls, so the
// breaker only trips on a sustained failure ratio over a window that spans
// more than one request, or on a run of consecutive failures.
const (
	DefaultMinRequests         = 20
	DefaultFailureRatio        = 0.6
	DefaultConsecutiveFailures = 12
	DefaultCountInterval       = time.Minute
	DefaultOpenTimeout         = 30 * time.Second
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in the registry and in logs.
	Name string

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval is the window after which counts are cleared while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before half-opening.
	Timeout time.Duration

	// ReadyToTrip decides when to open. Defaults to DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// OnStateChange is called when the breaker changes state.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig returns the breaker settings for a provider
// called once per request.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Interval:    DefaultCountInterval,
		Timeout:     DefaultOpenTimeout,
		ReadyToTrip: DefaultReadyToTrip,
	}
}

// FanOutCircuitBreakerConfig returns breaker settings for a provider that
// receives callsPerRequest calls for every inbound request, each retried up
// to attemptsPerCall times. The trip window covers at least two inbound
// requests and the consecutive limit a third of one, so a single failing
// mode combination cannot open the breaker. Half-open lets one request's
// worth of calls through.
func FanOutCircuitBreakerConfig(name string, callsPerRequest, attemptsPerCall int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig(name)
	if callsPerRequest <= 1 {
		return cfg
	}
	n := uint32(callsPerRequest)
	executions := n * uint32(max(attemptsPerCall, 1))
	cfg.MaxRequests = n
	cfg.ReadyToTrip = TripAfter(
		max(2*executions, DefaultMinRequests),
		DefaultFailureRatio,
		max(executions/3, DefaultConsecutiveFailures),
	)
	return cfg
}

// DefaultReadyToTrip opens the breaker after DefaultConsecutiveFailures
// failures in a row, or once DefaultMinRequests requests have been seen and
// at least DefaultFailureRatio of them failed.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	return TripAfter(DefaultMinRequests, DefaultFailureRatio, DefaultConsecutiveFailures)(counts)
}

// TripAfter builds a ReadyToTrip function from a minimum request count, a
// failure ratio and a consecutive failure limit.
func TripAfter(minRequests uint32, ratio float64, consecutive uint32) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if consecutive > 0 && counts.ConsecutiveFailures >= consecutive {
			return true
		}
		if counts.Requests < minRequests || counts.Requests == 0 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
	}
}

// isSuccessful keeps caller cancellations out of the failure counts; an
// abandoned request says nothing about the provider.
func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	readyToTrip := cfg.ReadyToTrip
	if readyToTrip == nil {
		readyToTrip = DefaultReadyToTrip
	}

	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		ReadyToTrip:  readyToTrip,
		IsSuccessful: isSuccessful,
	}

	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}
