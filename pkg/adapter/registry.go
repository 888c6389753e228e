package adapter

import (
	"errors"
	"sort"
	"sync"

	"github.com/whereissam/chainsearch/pkg/types"
	"go.uber.org/zap"
)

// Sentinel errors for the registry.
var (
	ErrChainNotFound      = errors.New("chain not found")
	ErrChainAlreadyExists = errors.New("chain already registered")
	ErrNilAdapter         = errors.New("adapter is nil")
)

// Registry maps chain identifiers to adapter instances. It is constructed
// explicitly and injected into the coordinators; there is no package-level
// registry.
type Registry struct {
	adapters map[types.ChainID]ChainAdapter
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewRegistry creates an empty adapter registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		adapters: make(map[types.ChainID]ChainAdapter),
		logger:   logger.Named("registry"),
	}
}

// Register adds an adapter under its own chain ID.
func (r *Registry) Register(a ChainAdapter) error {
	if a == nil {
		return ErrNilAdapter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.ChainID()
	if _, exists := r.adapters[id]; exists {
		return ErrChainAlreadyExists
	}

	r.adapters[id] = a
	r.logger.Info("adapter registered",
		zap.String("chain", string(id)),
		zap.Bool("configured", a.IsConfigured()),
	)

	return nil
}

// Unregister removes the adapter for a chain.
func (r *Registry) Unregister(chain types.ChainID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[chain]; !exists {
		return ErrChainNotFound
	}

	delete(r.adapters, chain)
	r.logger.Info("adapter unregistered", zap.String("chain", string(chain)))

	return nil
}

// Get returns the adapter for a chain.
func (r *Registry) Get(chain types.ChainID) (ChainAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.adapters[chain]
	if !exists {
		return nil, ErrChainNotFound
	}

	return a, nil
}

// Exists checks whether a chain is registered.
func (r *Registry) Exists(chain types.ChainID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.adapters[chain]
	return exists
}

// Count returns the number of registered adapters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}

// Chains returns the registered chain IDs in stable order.
func (r *Registry) Chains() []types.ChainID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]types.ChainID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Configured returns the chain IDs whose adapters report a usable
// configuration, in stable order.
func (r *Registry) Configured() []types.ChainID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]types.ChainID, 0, len(r.adapters))
	for id, a := range r.adapters {
		if a.IsConfigured() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
