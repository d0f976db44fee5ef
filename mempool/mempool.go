// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package mempool keeps unconfirmed transactions, de-duplicated by hash, and
// re-notifies the wallet through a mutable subscriber channel. Muting the
// channel only suppresses pool-to-wallet notifications; consensus-level
// validation is untouched.
package mempool

import (
	"context"
	"sync"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/namechain/namechain-core/blockchain"
	"github.com/namechain/namechain-core/blockchain/block"
	"github.com/namechain/namechain-core/config"
	"github.com/namechain/namechain-core/pkg/hash"
	"github.com/namechain/namechain-core/pkg/lifecycle"
	"github.com/namechain/namechain-core/pkg/log"
	"github.com/namechain/namechain-core/pkg/routine"
)

var (
	_mempoolMtc = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "namechain_mempool_metrics",
		Help: "mempool metrics.",
	}, []string{"type"})

	// ErrTxExists indicates the transaction is already in the pool
	ErrTxExists = errors.New("transaction already exists in pool")
	// ErrPoolFull indicates the pool reached its capacity
	ErrPoolFull = errors.New("mempool is full")
)

func init() {
	prometheus.MustRegister(_mempoolMtc)
}

type (
	// TxSubscriber is notified of transactions accepted into the pool
	TxSubscriber interface {
		HandleTx(*block.Transaction)
	}

	// MemPool is the interface of the relay pool
	MemPool interface {
		lifecycle.StartStopper

		// Submit validates and accepts a transaction, or rejects it with a reason
		Submit(*block.Transaction) error
		// Has returns whether a transaction is pending
		Has(hash.Hash256) bool
		// PendingTxs returns all pending transactions in submission order
		PendingTxs() []*block.Transaction
		// Remove drops a single pending transaction, so later rebroadcasts
		// will not carry it
		Remove(hash.Hash256)
		// RemoveAll flushes the pool
		RemoveAll()
		// AddSubscriber registers a pool-to-wallet notification target
		AddSubscriber(TxSubscriber)
		// Mute suppresses subscriber notifications, including rebroadcasts
		Mute()
		// Unmute restores subscriber notifications
		Unmute()
	}

	memPool struct {
		mutex       sync.RWMutex
		cfg         config.MemPool
		chain       blockchain.Blockchain
		all         map[hash.Hash256]*block.Transaction
		order       []hash.Hash256
		subscribers []TxSubscriber
		muted       atomic.Bool
		rebroadcast *routine.RecurringTask
	}
)

// Option sets a mempool construction parameter
type Option func(*memPool)

// WithClock overrides the rebroadcast clock, for tests
func WithClock(c clock.Clock) Option {
	return func(m *memPool) {
		m.rebroadcast = routine.NewRecurringTask(m.notifyPending, m.cfg.RebroadcastInterval, routine.WithClock(c))
	}
}

// NewMemPool creates a mempool validating against the given chain
func NewMemPool(cfg config.MemPool, bc blockchain.Blockchain, opts ...Option) MemPool {
	m := &memPool{
		cfg:   cfg,
		chain: bc,
		all:   make(map[hash.Hash256]*block.Transaction),
	}
	m.rebroadcast = routine.NewRecurringTask(m.notifyPending, cfg.RebroadcastInterval)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start starts the rebroadcast task
func (m *memPool) Start(ctx context.Context) error {
	return m.rebroadcast.Start(ctx)
}

// Stop stops the rebroadcast task
func (m *memPool) Stop(ctx context.Context) error {
	return m.rebroadcast.Stop(ctx)
}

// Submit validates and accepts a transaction into the pool
func (m *memPool) Submit(tx *block.Transaction) error {
	h := tx.Hash()
	m.mutex.Lock()
	if uint64(len(m.all)) >= m.cfg.MaxTxs {
		m.mutex.Unlock()
		_mempoolMtc.WithLabelValues("overflow").Inc()
		return errors.Wrapf(ErrPoolFull, "pool holds %d txs", len(m.all))
	}
	if _, ok := m.all[h]; ok {
		m.mutex.Unlock()
		_mempoolMtc.WithLabelValues("duplicate").Inc()
		return errors.Wrapf(ErrTxExists, "tx = %x", h)
	}
	m.mutex.Unlock()

	// validation happens outside the pool lock; the chain serializes itself
	if err := m.chain.ValidateTx(tx); err != nil {
		_mempoolMtc.WithLabelValues("rejected").Inc()
		return err
	}

	m.mutex.Lock()
	if _, ok := m.all[h]; ok {
		m.mutex.Unlock()
		return errors.Wrapf(ErrTxExists, "tx = %x", h)
	}
	m.all[h] = tx
	m.order = append(m.order, h)
	m.mutex.Unlock()
	_mempoolMtc.WithLabelValues("accepted").Inc()

	m.notify(tx)
	return nil
}

// Has returns whether a transaction is pending
func (m *memPool) Has(h hash.Hash256) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.all[h]
	return ok
}

// PendingTxs returns all pending transactions in submission order
func (m *memPool) PendingTxs() []*block.Transaction {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	txs := make([]*block.Transaction, 0, len(m.order))
	for _, h := range m.order {
		if tx, ok := m.all[h]; ok {
			txs = append(txs, tx)
		}
	}
	return txs
}

// Remove drops a single pending transaction
func (m *memPool) Remove(h hash.Hash256) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.all[h]; !ok {
		return
	}
	delete(m.all, h)
	kept := m.order[:0]
	for _, o := range m.order {
		if o != h {
			kept = append(kept, o)
		}
	}
	m.order = kept
	_mempoolMtc.WithLabelValues("removed").Inc()
}

// RemoveAll flushes the pool
func (m *memPool) RemoveAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.all = make(map[hash.Hash256]*block.Transaction)
	m.order = nil
}

// AddSubscriber registers a pool-to-wallet notification target
func (m *memPool) AddSubscriber(s TxSubscriber) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.subscribers = append(m.subscribers, s)
}

// Mute suppresses subscriber notifications
func (m *memPool) Mute() { m.muted.Store(true) }

// Unmute restores subscriber notifications
func (m *memPool) Unmute() { m.muted.Store(false) }

// HandleBlock drops transactions confirmed by the committed block
func (m *memPool) HandleBlock(blk *block.Block) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, tx := range blk.Txs {
		h := tx.Hash()
		if _, ok := m.all[h]; ok {
			delete(m.all, h)
		}
	}
	if len(m.all) == 0 {
		m.order = nil
		return nil
	}
	kept := m.order[:0]
	for _, h := range m.order {
		if _, ok := m.all[h]; ok {
			kept = append(kept, h)
		}
	}
	m.order = kept
	return nil
}

var _ blockchain.BlockCreationSubscriber = (*memPool)(nil)

func (m *memPool) notify(tx *block.Transaction) {
	if m.muted.Load() {
		return
	}
	m.mutex.RLock()
	subs := make([]TxSubscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mutex.RUnlock()
	for _, s := range subs {
		s.HandleTx(tx)
	}
}

func (m *memPool) notifyPending() {
	if m.muted.Load() {
		return
	}
	pending := m.PendingTxs()
	if len(pending) == 0 {
		return
	}
	log.Logger("mempool").Debug("Rebroadcasting pending transactions.", zap.Int("count", len(pending)))
	for _, tx := range pending {
		m.notify(tx)
	}
}
