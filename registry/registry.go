// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package registry

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/namechain/namechain-core/config"
	"github.com/namechain/namechain-core/db"
	"github.com/namechain/namechain-core/pkg/hash"
)

// StateNamespace is the db namespace holding name states keyed by name hash
const StateNamespace = "NameState"

const _stateCacheSize = 4096

var (
	// ErrNameNotExist indicates no state exists for the name
	ErrNameNotExist = errors.New("name does not exist in registry")

	_transitionMtc = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "namechain_registry_transition_metrics",
		Help: "registry covenant transition metrics.",
	}, []string{"tag", "result"})
)

func init() {
	prometheus.MustRegister(_transitionMtc)
}

// Registry is the name registry ledger. Reads may run concurrently; staging
// and cache refresh happen under the chain's block-apply lock.
type Registry struct {
	mutex     sync.RWMutex
	kv        db.KVStore
	validator *Validator
	cache     *lru.Cache[hash.Hash256, *NameState]
	names     config.Names
}

// NewRegistry creates a registry ledger on top of the given KV store
func NewRegistry(kv db.KVStore, names config.Names) (*Registry, error) {
	cache, err := lru.New[hash.Hash256, *NameState](_stateCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create name state cache")
	}
	return &Registry{
		kv:        kv,
		validator: NewValidator(names),
		cache:     cache,
		names:     names,
	}, nil
}

// Names returns the network's auction windows
func (r *Registry) Names() config.Names { return r.names }

// GetState returns the state of a name, or ErrNameNotExist
func (r *Registry) GetState(name []byte) (*NameState, error) {
	return r.GetStateByHash(hash.Hash256b(name))
}

// GetStateByHash returns the state keyed by name hash, or ErrNameNotExist
func (r *Registry) GetStateByHash(h hash.Hash256) (*NameState, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.getStateByHash(h)
}

func (r *Registry) getStateByHash(h hash.Hash256) (*NameState, error) {
	if s, ok := r.cache.Get(h); ok {
		return s.Clone(), nil
	}
	raw, err := r.kv.Get(StateNamespace, h[:])
	if err != nil {
		cause := errors.Cause(err)
		if cause == db.ErrNotExist || cause == db.ErrBucketNotExist {
			return nil, errors.Wrapf(ErrNameNotExist, "name hash = %x", h)
		}
		return nil, err
	}
	s := &NameState{}
	if err := s.Deserialize(raw); err != nil {
		return nil, err
	}
	r.cache.Add(h, s)
	return s.Clone(), nil
}

// Phase computes the auction phase of a state at the given height
func (r *Registry) Phase(s *NameState, height uint64) Phase {
	return PhaseOf(r.names, s, height)
}

// ApplyCovenant validates a transition against the current state and returns
// the derived next state without committing it. Callers stage and commit.
func (r *Registry) ApplyCovenant(t Transition) (*NameState, error) {
	prior, err := r.GetStateByHash(t.Covenant.NameHash)
	if err != nil && errors.Cause(err) != ErrNameNotExist {
		return nil, err
	}
	return r.ApplyCovenantOn(t, prior)
}

// ApplyCovenantOn validates a transition against an explicit prior state,
// which lets a block apply chain several transitions of the same name.
func (r *Registry) ApplyCovenantOn(t Transition, prior *NameState) (*NameState, error) {
	next, err := r.validator.Validate(t, prior)
	if err != nil {
		_transitionMtc.WithLabelValues(t.Covenant.Type.String(), "rejected").Inc()
		return nil, err
	}
	_transitionMtc.WithLabelValues(t.Covenant.Type.String(), "applied").Inc()
	return next, nil
}

// StageState stages a derived state into a write batch
func (r *Registry) StageState(b db.KVStoreBatch, s *NameState) error {
	raw, err := s.Serialize()
	if err != nil {
		return err
	}
	b.Put(StateNamespace, s.NameHash[:], raw, "failed to stage state of name %s", s.Name)
	return nil
}

// Refresh replaces cached entries after a batch holding staged states was
// committed, so readers observe the post-block view.
func (r *Registry) Refresh(states []*NameState) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, s := range states {
		r.cache.Add(s.NameHash, s.Clone())
	}
}
