// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package node assembles the chain, relay pool and wallet into one runnable
// process.
package node

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/namechain/namechain-core/blockchain"
	"github.com/namechain/namechain-core/config"
	"github.com/namechain/namechain-core/db"
	"github.com/namechain/namechain-core/mempool"
	"github.com/namechain/namechain-core/pkg/lifecycle"
	"github.com/namechain/namechain-core/pkg/log"
	"github.com/namechain/namechain-core/registry"
	"github.com/namechain/namechain-core/wallet"
)

// Node is the top-level handle of a running namechain process
type Node struct {
	cfg    config.Config
	chain  blockchain.Blockchain
	pool   mempool.MemPool
	wallet *wallet.Wallet
	lc     lifecycle.Lifecycle
}

// NewNode wires a node out of the configured components. The chain and the
// wallet each own a bolt store; the pool and the wallet subscribe to chain
// commits, and the wallet additionally watches the pool for pending credits.
func NewNode(cfg config.Config) (*Node, error) {
	chainDBCfg := cfg.DB
	chainDBCfg.DbPath = cfg.Chain.ChainDBPath
	var chainKV db.KVStore = db.NewBoltDB(chainDBCfg)
	if cfg.DB.ReadCacheSize > 0 {
		chainKV = db.NewKVStoreWithCache(chainKV, cfg.DB.ReadCacheSize)
	}
	reg, err := registry.NewRegistry(chainKV, cfg.Chain.Names)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create registry")
	}
	chain := blockchain.NewBlockchain(cfg.Chain, chainKV, reg)
	pool := mempool.NewMemPool(cfg.MemPool, chain)

	walletDBCfg := cfg.DB
	walletDBCfg.DbPath = cfg.Wallet.WalletDBPath
	w := wallet.NewWallet(cfg.Wallet, cfg.Chain, db.NewBoltDB(walletDBCfg), chain, pool)

	chain.AddSubscriber(pool.(blockchain.BlockCreationSubscriber))
	chain.AddSubscriber(w)
	pool.AddSubscriber(w)

	n := &Node{
		cfg:    cfg,
		chain:  chain,
		pool:   pool,
		wallet: w,
	}
	n.lc.AddModels(chain, pool, w)
	return n, nil
}

// Start starts the node components in wiring order
func (n *Node) Start(ctx context.Context) error {
	if err := n.lc.OnStart(ctx); err != nil {
		return errors.Wrap(err, "failed to start node")
	}
	log.L().Info("Node started.", zap.Uint32("chainID", n.cfg.Chain.ID))
	return nil
}

// Stop stops the node components in reverse order
func (n *Node) Stop(ctx context.Context) error {
	return errors.Wrap(n.lc.OnStop(ctx), "failed to stop node")
}

// Blockchain returns the chain component
func (n *Node) Blockchain() blockchain.Blockchain { return n.chain }

// MemPool returns the relay pool component
func (n *Node) MemPool() mempool.MemPool { return n.pool }

// Wallet returns the wallet component
func (n *Node) Wallet() *wallet.Wallet { return n.wallet }
