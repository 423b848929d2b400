package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ProviderHealth is a point-in-time view of one provider's breaker and of
// the outcomes its client reported.
type ProviderHealth struct {
	Name         string
	CircuitState gobreaker.State
	Counts       gobreaker.Counts

	// Trips is how often the breaker has opened since the process started.
	Trips int

	// OpenedAt is when the breaker last opened; nil if it never has.
	OpenedAt *time.Time

	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// IsHealthy reports whether the breaker is closed.
func (h *ProviderHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded reports whether the breaker is probing (half-open).
func (h *ProviderHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy reports whether the breaker is open.
func (h *ProviderHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// FailureRatio is the share of failed executions in the breaker's current
// counting window.
func (h *ProviderHealth) FailureRatio() float64 {
	if h.Counts.Requests == 0 {
		return 0
	}
	return float64(h.Counts.TotalFailures) / float64(h.Counts.Requests)
}

// Registry tracks the resilient clients of the process so the status
// endpoint can report their breakers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*registeredProvider
}

type registeredProvider struct {
	client        *Client
	trips         int
	openedAt      *time.Time
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*registeredProvider),
	}
}

// Register adds a client under name, replacing any previous one.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &registeredProvider{client: client}
}

// RecordSuccess notes a successful call for name.
func (r *Registry) RecordSuccess(name string) {
	r.update(name, func(p *registeredProvider, now time.Time) {
		p.lastSuccessAt = &now
	})
}

// RecordFailure notes a failed call for name.
func (r *Registry) RecordFailure(name string, err error) {
	r.update(name, func(p *registeredProvider, now time.Time) {
		p.lastFailureAt = &now
		if err != nil {
			p.lastError = err.Error()
		}
	})
}

// RecordStateChange notes a breaker transition for name. Clients created
// with a Registry report their transitions here.
func (r *Registry) RecordStateChange(name string, _, to gobreaker.State) {
	if to != gobreaker.StateOpen {
		return
	}
	r.update(name, func(p *registeredProvider, now time.Time) {
		p.trips++
		p.openedAt = &now
	})
}

func (r *Registry) update(name string, fn func(p *registeredProvider, now time.Time)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		fn(p, time.Now())
	}
}

// Health returns the health of name, or nil if it is not registered.
func (r *Registry) Health(name string) *ProviderHealth {
	r.mu.RLock()
	p, ok := r.providers[name]
	var snap registeredProvider
	if ok {
		snap = *p
	}
	r.mu.RUnlock()

	if !ok {
		return nil
	}
	return snap.health(name)
}

// All returns the health of every registered provider, ordered by name.
func (r *Registry) All() []*ProviderHealth {
	r.mu.RLock()
	snaps := make(map[string]registeredProvider, len(r.providers))
	for name, p := range r.providers {
		snaps[name] = *p
	}
	r.mu.RUnlock()

	health := make([]*ProviderHealth, 0, len(snaps))
	for name, p := range snaps {
		health = append(health, p.health(name))
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })
	return health
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// health reads the breaker outside the registry lock: breakers report state
// changes to the registry while holding their own lock.
func (p registeredProvider) health(name string) *ProviderHealth {
	return &ProviderHealth{
		Name:          name,
		CircuitState:  p.client.CircuitBreakerState(),
		Counts:        p.client.CircuitBreakerCounts(),
		Trips:         p.trips,
		OpenedAt:      p.openedAt,
		LastSuccessAt: p.lastSuccessAt,
		LastFailureAt: p.lastFailureAt,
		LastError:     p.lastError,
	}
}
