package federation

import (
	"errors"
	"fmt"
	"robosync/internal/platform"
	"strings"
	"sync"
)

// ResolveBaseURL picks the endpoint in effect for network and the coordinator at index.
// Onion capable hosts use the onion endpoint, other native hosts the clearnet
// endpoint, and anything else talks to its own origin.
func ResolveBaseURL(coordinators []Coordinator, network Network, index int, caps platform.Capabilities) (string, error) {
	if index < 0 || index >= len(coordinators) {
		return "", fmt.Errorf("coordinator index %d out of range", index)
	}
	c := coordinators[index]

	var host string
	switch {
	case caps.Onion:
		host = c.Endpoint(network, true)
	case caps.Native:
		host = c.Endpoint(network, false)
	default:
		host = caps.Origin
	}
	if host == "" {
		return "", fmt.Errorf("coordinator %s has no %s endpoint for this host", c.Alias, network)
	}
	if strings.Contains(host, "://") {
		return strings.TrimRight(host, "/"), nil
	}
	return "http://" + strings.TrimRight(host, "/"), nil
}

// Registry holds the federation and the single active coordinator.
type Registry struct {
	coordinators []Coordinator
	caps         platform.Capabilities

	mu      sync.RWMutex
	network Network
	active  int
	baseURL string
}

func NewRegistry(coordinators []Coordinator, network Network, active int, caps platform.Capabilities) (*Registry, error) {
	if len(coordinators) == 0 {
		return nil, errors.New("federation is empty")
	}
	baseURL, err := ResolveBaseURL(coordinators, network, active, caps)
	if err != nil {
		return nil, err
	}
	return &Registry{
		coordinators: coordinators,
		caps:         caps,
		network:      network,
		active:       active,
		baseURL:      baseURL,
	}, nil
}

func (r *Registry) Coordinators() []Coordinator {
	out := make([]Coordinator, len(r.coordinators))
	copy(out, r.coordinators)
	return out
}

func (r *Registry) Active() Coordinator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.coordinators[r.active]
}

func (r *Registry) ActiveIndex() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Registry) Network() Network {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.network
}

func (r *Registry) BaseURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseURL
}

// SetNetwork re-resolves the endpoint and reports whether it changed.
func (r *Registry) SetNetwork(network Network) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(network, r.active)
}

// SetActive switches the active coordinator and reports whether the endpoint changed.
func (r *Registry) SetActive(index int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(r.network, index)
}

func (r *Registry) resolve(network Network, index int) (bool, error) {
	baseURL, err := ResolveBaseURL(r.coordinators, network, index, r.caps)
	if err != nil {
		return false, err
	}
	changed := baseURL != r.baseURL
	r.network = network
	r.active = index
	r.baseURL = baseURL
	return changed, nil
}
