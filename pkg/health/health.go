// Package health tracks readiness and serves the liveness and readiness
// endpoints.
package health

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	mwhttp "github.com/txn2/chat-platform/pkg/http"
)

const (
	stateStarting int32 = iota
	stateReady
	stateDraining
)

// DefaultProbeTimeout bounds each dependency probe during a readiness check.
const DefaultProbeTimeout = 2 * time.Second

// Probe checks one dependency. A nil error means healthy.
type Probe func(ctx context.Context) error

// Checker tracks the readiness state of the server and the health of its
// dependencies. It is safe for concurrent use.
type Checker struct {
	state   atomic.Int32
	timeout time.Duration

	mu     sync.RWMutex
	probes map[string]Probe
}

// NewChecker creates a Checker in the starting state.
func NewChecker() *Checker {
	return &Checker{timeout: DefaultProbeTimeout, probes: make(map[string]Probe)}
}

// AddProbe registers a dependency checked on every readiness request, for
// example a database ping.
func (c *Checker) AddProbe(name string, p Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = p
}

// SetReady transitions to the ready state.
func (c *Checker) SetReady() {
	c.state.Store(stateReady)
}

// SetDraining transitions to the draining state. Readiness fails from here on
// so load balancers stop routing new requests during shutdown.
func (c *Checker) SetDraining() {
	c.state.Store(stateDraining)
}

// IsReady returns true when the state is ready.
func (c *Checker) IsReady() bool {
	return c.state.Load() == stateReady
}

// State returns the current state as a human-readable string.
func (c *Checker) State() string {
	switch c.state.Load() {
	case stateReady:
		return "ready"
	case stateDraining:
		return "draining"
	default:
		return "starting"
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler always responds 200 (/healthz).
func (*Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		mwhttp.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// ReadinessHandler responds 200 when ready and every probe passes, 503
// otherwise (/readyz).
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.IsReady() {
			mwhttp.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: c.State()})
			return
		}

		checks, healthy := c.runProbes(r.Context())
		if !healthy {
			mwhttp.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Checks: checks})
			return
		}
		mwhttp.WriteJSON(w, http.StatusOK, healthResponse{Status: c.State(), Checks: checks})
	}
}

func (c *Checker) runProbes(ctx context.Context) (map[string]string, bool) {
	c.mu.RLock()
	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	probes := maps.Clone(c.probes)
	c.mu.RUnlock()

	if len(names) == 0 {
		return nil, true
	}
	slices.Sort(names)

	checks := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := probes[name](pctx)
		cancel()
		if err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}
	return checks, healthy
}
