package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Role says which part of the service depends on a provider.
type Role string

const (
	// RoleDirectory feeds the station directory refresh.
	RoleDirectory Role = "directory"
	// RolePredictions serves per-request tide predictions.
	RolePredictions Role = "predictions"
)

// Call is the outcome of one upstream call. StatusCode is zero when no
// response arrived.
type Call struct {
	StatusCode int
	Err        error
}

// ProviderHealth is a point-in-time view of one provider.
type ProviderHealth struct {
	Name string
	Role Role

	// CircuitState and ConsecutiveFailures come from the breaker itself.
	CircuitState        gobreaker.State
	ConsecutiveFailures uint32

	// Calls and Failures count every recorded call since startup.
	Calls    uint64
	Failures uint64

	LastStatusCode int
	LastSuccessAt  *time.Time
	LastFailureAt  *time.Time
	LastError      string
}

// IsHealthy reports a closed breaker whose latest call succeeded.
func (h *ProviderHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed && !h.lastCallFailed()
}

// IsDegraded reports a half-open breaker, or a closed one whose latest call
// failed.
func (h *ProviderHealth) IsDegraded() bool {
	switch h.CircuitState {
	case gobreaker.StateHalfOpen:
		return true
	case gobreaker.StateClosed:
		return h.lastCallFailed()
	default:
		return false
	}
}

// IsUnhealthy reports an open breaker.
func (h *ProviderHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Status summarizes the health as "OK", "DEGRADED" or "FAIL".
func (h *ProviderHealth) Status() string {
	switch {
	case h.IsUnhealthy():
		return "FAIL"
	case h.IsDegraded():
		return "DEGRADED"
	default:
		return "OK"
	}
}

func (h *ProviderHealth) lastCallFailed() bool {
	if h.LastFailureAt == nil {
		return false
	}
	return h.LastSuccessAt == nil || h.LastFailureAt.After(*h.LastSuccessAt)
}

// Registry keeps the health of every upstream client the service talks to.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*trackedProvider
}

type trackedProvider struct {
	client         *Client
	calls          uint64
	failures       uint64
	lastStatusCode int
	lastSuccessAt  *time.Time
	lastFailureAt  *time.Time
	lastError      string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*trackedProvider),
	}
}

// Register starts tracking client under its name. Registering a name again
// replaces the earlier client and resets its history.
func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[client.Name()] = &trackedProvider{client: client}
}

// Record adds the outcome of one call. Calls for unknown names are dropped.
func (r *Registry) Record(name string, call Call) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[name]
	if !ok {
		return
	}

	now := time.Now()
	p.calls++
	p.lastStatusCode = call.StatusCode
	if call.Err != nil {
		p.failures++
		p.lastFailureAt = &now
		p.lastError = call.Err.Error()
		return
	}
	p.lastSuccessAt = &now
}

// GetHealth returns the health of one provider, or nil if it is unknown.
func (r *Registry) GetHealth(name string) *ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil
	}
	return p.health(name)
}

// GetAllHealth returns the health of every provider, ordered by name.
func (r *Registry) GetAllHealth() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*ProviderHealth, 0, len(r.providers))
	for name, p := range r.providers {
		health = append(health, p.health(name))
	}

	sort.Slice(health, func(i, j int) bool {
		return health[i].Name < health[j].Name
	})

	return health
}

func (p *trackedProvider) health(name string) *ProviderHealth {
	return &ProviderHealth{
		Name:                name,
		Role:                p.client.Role(),
		CircuitState:        p.client.CircuitBreakerState(),
		ConsecutiveFailures: p.client.CircuitBreakerCounts().ConsecutiveFailures,
		Calls:               p.calls,
		Failures:            p.failures,
		LastStatusCode:      p.lastStatusCode,
		LastSuccessAt:       p.lastSuccessAt,
		LastFailureAt:       p.lastFailureAt,
		LastError:           p.lastError,
	}
}
