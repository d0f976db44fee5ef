// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package blockchain connects blocks sequentially and replays confirmed
// covenants through the registry validator. Block apply is single-threaded;
// reads are excluded while a block is being applied.
package blockchain

import (
	"bytes"
	"context"
	"encoding/gob"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/namechain/namechain-core/blockchain/block"
	"github.com/namechain/namechain-core/config"
	"github.com/namechain/namechain-core/covenant"
	"github.com/namechain/namechain-core/db"
	"github.com/namechain/namechain-core/pkg/compress"
	"github.com/namechain/namechain-core/pkg/hash"
	"github.com/namechain/namechain-core/pkg/lifecycle"
	"github.com/namechain/namechain-core/pkg/log"
	"github.com/namechain/namechain-core/pkg/unit"
	"github.com/namechain/namechain-core/pkg/util/byteutil"
	"github.com/namechain/namechain-core/registry"
)

const (
	// BlockNamespace is the db namespace holding blocks keyed by height
	BlockNamespace = "Block"
	// UTXONamespace is the db namespace holding unspent outputs keyed by outpoint
	UTXONamespace = "UTXO"
	// MetaNamespace is the db namespace holding the chain tip
	MetaNamespace = "ChainMeta"
)

var (
	_tipHeightKey = []byte("tipHeight")
	_tipHashKey   = []byte("tipHash")

	// ErrInvalidBlock indicates a block that cannot extend the chain
	ErrInvalidBlock = errors.New("invalid block")
	// ErrUTXONotExist indicates the referenced output is unknown or already spent
	ErrUTXONotExist = errors.New("output does not exist or is already spent")
)

type (
	// BlockCreationSubscriber is notified after a block is committed
	BlockCreationSubscriber interface {
		HandleBlock(*block.Block) error
	}

	// Blockchain is the interface of the chain component
	Blockchain interface {
		lifecycle.StartStopper

		// TipHeight returns the height of the committed tip
		TipHeight() uint64
		// AddBlock connects a block, replaying its covenants in tx order
		AddBlock(*block.Block) error
		// MintBlock assembles the next block out of the given transactions
		MintBlock(rewardAddress string, txs ...*block.Transaction) (*block.Block, error)
		// GetBlockByHeight returns a committed block
		GetBlockByHeight(height uint64) (*block.Block, error)
		// GetNameState returns the current auction record of a name
		GetNameState(name []byte) (*registry.NameState, error)
		// GetUTXO returns an unspent output
		GetUTXO(op block.Outpoint) (*block.Output, error)
		// ValidateTx checks all covenants of a candidate tx at the next height
		ValidateTx(tx *block.Transaction) error
		// Registry exposes the name registry ledger
		Registry() *registry.Registry
		// AddSubscriber registers a block subscriber
		AddSubscriber(BlockCreationSubscriber)
	}

	chain struct {
		mutex       sync.RWMutex
		kv          db.KVStore
		registry    *registry.Registry
		cfg         config.Chain
		tipHeight   uint64
		tipHash     hash.Hash256
		subscribers []BlockCreationSubscriber
		lc          lifecycle.Lifecycle
	}
)

// NewBlockchain creates a chain on top of the given KV store and registry
func NewBlockchain(cfg config.Chain, kv db.KVStore, reg *registry.Registry) Blockchain {
	bc := &chain{
		kv:       kv,
		registry: reg,
		cfg:      cfg,
	}
	bc.lc.Add(kv)
	return bc
}

// Start starts the chain and restores the tip from storage
func (bc *chain) Start(ctx context.Context) error {
	if err := bc.lc.OnStart(ctx); err != nil {
		return err
	}
	raw, err := bc.kv.Get(MetaNamespace, _tipHeightKey)
	switch errors.Cause(err) {
	case nil:
		bc.tipHeight = byteutil.BytesToUint64BigEndian(raw)
		h, err := bc.kv.Get(MetaNamespace, _tipHashKey)
		if err != nil {
			return err
		}
		bc.tipHash = hash.BytesToHash256(h)
	case db.ErrNotExist, db.ErrBucketNotExist:
		// fresh chain, tip stays at genesis
	default:
		return err
	}
	log.Logger("chain").Info("Blockchain started.", zap.Uint64("tipHeight", bc.tipHeight))
	return nil
}

// Stop stops the chain
func (bc *chain) Stop(ctx context.Context) error {
	return bc.lc.OnStop(ctx)
}

// TipHeight returns the height of the committed tip
func (bc *chain) TipHeight() uint64 {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.tipHeight
}

// Registry exposes the name registry ledger
func (bc *chain) Registry() *registry.Registry { return bc.registry }

// AddSubscriber registers a block subscriber
func (bc *chain) AddSubscriber(s BlockCreationSubscriber) {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	bc.subscribers = append(bc.subscribers, s)
}

// GetNameState returns the current auction record of a name
func (bc *chain) GetNameState(name []byte) (*registry.NameState, error) {
	return bc.registry.GetState(name)
}

// GetUTXO returns an unspent output
func (bc *chain) GetUTXO(op block.Outpoint) (*block.Output, error) {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.getUTXO(op)
}

func (bc *chain) getUTXO(op block.Outpoint) (*block.Output, error) {
	raw, err := bc.kv.Get(UTXONamespace, op.Bytes())
	if err != nil {
		cause := errors.Cause(err)
		if cause == db.ErrNotExist || cause == db.ErrBucketNotExist {
			return nil, errors.Wrapf(ErrUTXONotExist, "outpoint = %x:%d", op.TxHash, op.Index)
		}
		return nil, err
	}
	return decodeOutput(raw)
}

// GetBlockByHeight returns a committed block
func (bc *chain) GetBlockByHeight(height uint64) (*block.Block, error) {
	raw, err := bc.kv.Get(BlockNamespace, byteutil.Uint64ToBytesBigEndian(height))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get block at height %d", height)
	}
	data, err := compress.Decompress(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decompress block at height %d", height)
	}
	blk := &block.Block{}
	if err := blk.Deserialize(data); err != nil {
		return nil, err
	}
	return blk, nil
}

// MintBlock assembles the next block: a coinbase paying the block reward to
// the given address, followed by the given transactions.
func (bc *chain) MintBlock(rewardAddress string, txs ...*block.Transaction) (*block.Block, error) {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	height := bc.tipHeight + 1
	coinbase := block.NewCoinbase(rewardAddress, unit.FromCoins(bc.cfg.BlockReward), height)
	blk := &block.Block{
		Height:    height,
		PrevHash:  bc.tipHash,
		Timestamp: time.Now().Unix(),
		Txs:       append([]*block.Transaction{coinbase}, txs...),
	}
	return blk, nil
}

// ValidateTx checks all covenants of a candidate tx at the next height. It
// shares the transition-building code with AddBlock, so the pool and the
// consensus path cannot drift apart.
func (bc *chain) ValidateTx(tx *block.Transaction) error {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	_, _, err := bc.applyTx(tx, bc.tipHeight+1, newWorkingView(bc))
	return err
}

// AddBlock connects a block at tip+1. Within the block, covenant transitions
// for the same name apply in the block's transaction order; this order is
// part of the consensus contract. A rejected block leaves no partial state.
func (bc *chain) AddBlock(blk *block.Block) error {
	if err := bc.commitBlock(blk); err != nil {
		return err
	}
	bc.mutex.RLock()
	subs := make([]BlockCreationSubscriber, len(bc.subscribers))
	copy(subs, bc.subscribers)
	bc.mutex.RUnlock()
	for _, sub := range subs {
		if err := sub.HandleBlock(blk); err != nil {
			log.Logger("chain").Error("Subscriber failed to handle block.",
				zap.Uint64("height", blk.Height), zap.Error(err))
		}
	}
	return nil
}

func (bc *chain) commitBlock(blk *block.Block) error {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	if blk.Height != bc.tipHeight+1 {
		return errors.Wrapf(ErrInvalidBlock, "block height %d does not extend tip %d", blk.Height, bc.tipHeight)
	}
	if blk.PrevHash != bc.tipHash {
		return errors.Wrapf(ErrInvalidBlock, "block prev hash does not match tip at height %d", bc.tipHeight)
	}

	view := newWorkingView(bc)
	for _, tx := range blk.Txs {
		spends, creates, err := bc.applyTx(tx, blk.Height, view)
		if err != nil {
			return err
		}
		view.commitTx(tx, spends, creates)
	}

	// all transitions validated; persist the whole block atomically
	batch := db.NewBatch()
	for op := range view.spent {
		batch.Delete(UTXONamespace, op.Bytes(), "failed to stage spend of outpoint %x", op.TxHash)
	}
	for op, out := range view.created {
		raw, err := encodeOutput(out)
		if err != nil {
			return err
		}
		batch.Put(UTXONamespace, op.Bytes(), raw, "failed to stage outpoint %x", op.TxHash)
	}
	states := make([]*registry.NameState, 0, len(view.states))
	for _, s := range view.states {
		if err := bc.registry.StageState(batch, s); err != nil {
			return err
		}
		states = append(states, s)
	}
	rawBlk, err := blk.Serialize()
	if err != nil {
		return err
	}
	batch.Put(BlockNamespace, byteutil.Uint64ToBytesBigEndian(blk.Height), compress.Compress(rawBlk), "failed to stage block %d", blk.Height)
	blkHash := blk.Hash()
	batch.Put(MetaNamespace, _tipHeightKey, byteutil.Uint64ToBytesBigEndian(blk.Height), "failed to stage tip height")
	batch.Put(MetaNamespace, _tipHashKey, blkHash[:], "failed to stage tip hash")

	if err := bc.kv.Commit(batch); err != nil {
		return err
	}
	bc.registry.Refresh(states)
	bc.tipHeight = blk.Height
	bc.tipHash = blkHash
	return nil
}

// applyTx resolves a transaction's inputs against the working view and runs
// every covenant output through the registry validator. It returns the spent
// outpoints and created outputs without mutating the view.
func (bc *chain) applyTx(tx *block.Transaction, height uint64, view *workingView) ([]block.Outpoint, map[block.Outpoint]*block.Output, error) {
	var (
		txHash    = tx.Hash()
		spends    = make([]block.Outpoint, 0, len(tx.Inputs))
		spentOuts = make([]*block.Output, len(tx.Inputs))
	)
	if !tx.Coinbase() {
		if len(tx.Inputs) == 0 {
			return nil, nil, errors.Wrapf(ErrInvalidBlock, "tx %x has no inputs", txHash)
		}
		var inSum, outSum uint64
		seen := make(map[block.Outpoint]struct{}, len(tx.Inputs))
		for i, in := range tx.Inputs {
			if _, ok := seen[in.PrevOutpoint]; ok {
				return nil, nil, errors.Wrapf(ErrInvalidBlock, "tx %x double spends outpoint %x:%d", txHash, in.PrevOutpoint.TxHash, in.PrevOutpoint.Index)
			}
			seen[in.PrevOutpoint] = struct{}{}
			out, err := view.getUTXO(in.PrevOutpoint)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "tx %x input %d", txHash, i)
			}
			spentOuts[i] = out
			spends = append(spends, in.PrevOutpoint)
			inSum += out.Value
		}
		for _, out := range tx.Outputs {
			outSum += out.Value
		}
		if outSum > inSum {
			return nil, nil, errors.Wrapf(ErrInvalidBlock, "tx %x outputs %d exceed inputs %d", txHash, outSum, inSum)
		}
	}

	creates := make(map[block.Outpoint]*block.Output, len(tx.Outputs))
	for i := range tx.Outputs {
		out := tx.Outputs[i]
		op := block.Outpoint{TxHash: txHash, Index: uint32(i)}
		creates[op] = &out
		if out.Covenant.Type == covenant.None {
			continue
		}
		t := registry.Transition{
			Covenant: &out.Covenant,
			Height:   height,
			Self:     op,
			Value:    out.Value,
		}
		// covenant outputs pair positionally with the input providing their
		// prior covenant output
		if i < len(spentOuts) && spentOuts[i] != nil {
			t.Spent = spentOuts[i]
			t.SpentOp = tx.Inputs[i].PrevOutpoint
		}
		prior, err := view.getState(out.Covenant.NameHash)
		if err != nil {
			return nil, nil, err
		}
		next, err := bc.registry.ApplyCovenantOn(t, prior)
		if err != nil {
			return nil, nil, err
		}
		view.states[out.Covenant.NameHash] = next
	}
	return spends, creates, nil
}

// workingView overlays a block's in-flight spends, creates and name states on
// the committed chain, so later txs in the block observe earlier ones.
type workingView struct {
	bc      *chain
	spent   map[block.Outpoint]struct{}
	created map[block.Outpoint]*block.Output
	states  map[hash.Hash256]*registry.NameState
}

func newWorkingView(bc *chain) *workingView {
	return &workingView{
		bc:      bc,
		spent:   make(map[block.Outpoint]struct{}),
		created: make(map[block.Outpoint]*block.Output),
		states:  make(map[hash.Hash256]*registry.NameState),
	}
}

func (v *workingView) getUTXO(op block.Outpoint) (*block.Output, error) {
	if _, ok := v.spent[op]; ok {
		return nil, errors.Wrapf(ErrUTXONotExist, "outpoint %x:%d already spent in block", op.TxHash, op.Index)
	}
	if out, ok := v.created[op]; ok {
		return out, nil
	}
	return v.bc.getUTXO(op)
}

func (v *workingView) getState(h hash.Hash256) (*registry.NameState, error) {
	if s, ok := v.states[h]; ok {
		return s, nil
	}
	s, err := v.bc.registry.GetStateByHash(h)
	if err != nil {
		if errors.Cause(err) == registry.ErrNameNotExist {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (v *workingView) commitTx(tx *block.Transaction, spends []block.Outpoint, creates map[block.Outpoint]*block.Output) {
	for _, op := range spends {
		delete(v.created, op)
		v.spent[op] = struct{}{}
	}
	for op, out := range creates {
		v.created[op] = out
	}
}

func encodeOutput(out *block.Output) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(out); err != nil {
		return nil, errors.Wrap(err, "failed to encode output")
	}
	return buf.Bytes(), nil
}

func decodeOutput(raw []byte) (*block.Output, error) {
	out := &block.Output{}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(out); err != nil {
		return nil, errors.Wrap(err, "failed to decode output")
	}
	return out, nil
}
