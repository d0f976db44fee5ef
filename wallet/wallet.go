// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/gob"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/namechain/namechain-core/auction"
	"github.com/namechain/namechain-core/blockchain"
	"github.com/namechain/namechain-core/blockchain/block"
	"github.com/namechain/namechain-core/config"
	"github.com/namechain/namechain-core/covenant"
	"github.com/namechain/namechain-core/db"
	"github.com/namechain/namechain-core/pkg/hash"
	"github.com/namechain/namechain-core/pkg/log"
	"github.com/namechain/namechain-core/pkg/util/byteutil"
)

const (
	// AccountNamespace is the KV namespace of account records
	AccountNamespace = "WalletAccount"
	// CoinNamespace is the KV namespace of confirmed coins
	CoinNamespace = "WalletCoin"
	// BidNamespace is the KV namespace of local bid commitments
	BidNamespace = "WalletBid"
	// MetaNamespace is the KV namespace of the wallet seed and markers
	MetaNamespace = "WalletMeta"
)

var (
	_seedKey = []byte("seed")

	// ErrInsufficientFunds indicates the account cannot cover the requested amount
	ErrInsufficientFunds = errors.New("insufficient spendable funds in account")
	// ErrNoBids indicates the account holds no bid eligible for the operation
	ErrNoBids = errors.New("no eligible bids for name")
)

type (
	// Balance is the two-stage account balance. Confirmed counts free coins
	// settled on chain, Unconfirmed adds credits still sitting in the relay
	// pool. Coins reserved by an in-flight transaction and coins locked under
	// a covenant are counted in neither.
	Balance struct {
		Confirmed   uint64
		Unconfirmed uint64
	}

	// walletBid is the durable record of one blind bid placed by an account.
	// It holds the nonce needed to reveal, so losing it means losing the
	// locked coins. Revealed flips once the reveal settles on chain.
	walletBid struct {
		AccountIndex uint32
		Outpoint     block.Outpoint
		Commitment   *auction.BidCommitment
		Revealed     bool
	}

	// pendingTx tracks a transaction this wallet built and submitted, until
	// it either confirms or is abandoned
	pendingTx struct {
		tx          *block.Transaction
		reservation *uuid.UUID
		bidOps      []block.Outpoint
		bidAccount  uint32
	}

	// Wallet is the account coin ledger. It tracks confirmed and pending
	// coins per account by watching the chain and the relay pool, persists
	// bid commitments, and funds the transactions built by the send flows.
	Wallet struct {
		mutex    sync.RWMutex
		cfg      config.Wallet
		chainCfg config.Chain
		kv       db.KVStore
		chain    blockchain.Blockchain
		pool     mempool
		seed     hash.Hash256

		accounts  []*Account
		byAddress map[string]uint32
		coins     map[uint32]map[block.Outpoint]*AccountCoin
		bids      map[uint32]map[block.Outpoint]*walletBid
		pending   map[hash.Hash256]*pendingTx
	}

	// mempool is the slice of the relay pool the wallet depends on
	mempool interface {
		Submit(*block.Transaction) error
		Remove(hash.Hash256)
	}
)

// NewWallet creates a wallet over the given stores. The wallet loads its
// accounts and coins on Start and registers itself as a chain and pool
// subscriber through the node wiring.
func NewWallet(cfg config.Wallet, chainCfg config.Chain, kv db.KVStore, chain blockchain.Blockchain, pool mempool) *Wallet {
	return &Wallet{
		cfg:       cfg,
		chainCfg:  chainCfg,
		kv:        kv,
		chain:     chain,
		pool:      pool,
		byAddress: make(map[string]uint32),
		coins:     make(map[uint32]map[block.Outpoint]*AccountCoin),
		bids:      make(map[uint32]map[block.Outpoint]*walletBid),
		pending:   make(map[hash.Hash256]*pendingTx),
	}
}

// Start starts the wallet store and loads accounts, coins and bids
func (w *Wallet) Start(ctx context.Context) error {
	if err := w.kv.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start wallet store")
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if err := w.loadSeed(); err != nil {
		return err
	}
	if err := w.loadAccounts(); err != nil {
		return err
	}
	if len(w.accounts) == 0 {
		if _, err := w.createAccount(DefaultAccountName); err != nil {
			return err
		}
	}
	if err := w.loadCoins(); err != nil {
		return err
	}
	if err := w.loadBids(); err != nil {
		return err
	}
	log.Logger("wallet").Info("Wallet started.",
		zap.Int("accounts", len(w.accounts)))
	return nil
}

// Stop stops the wallet store
func (w *Wallet) Stop(ctx context.Context) error {
	return w.kv.Stop(ctx)
}

func (w *Wallet) loadSeed() error {
	raw, err := w.kv.Get(MetaNamespace, _seedKey)
	switch errors.Cause(err) {
	case nil:
		copy(w.seed[:], raw)
		return nil
	case db.ErrNotExist, db.ErrBucketNotExist:
		if _, err := rand.Read(w.seed[:]); err != nil {
			return errors.Wrap(err, "failed to generate wallet seed")
		}
		return w.kv.Put(MetaNamespace, _seedKey, w.seed[:])
	default:
		return errors.Wrap(err, "failed to load wallet seed")
	}
}

func (w *Wallet) loadAccounts() error {
	keys, values, err := w.kv.Filter(AccountNamespace, nil)
	switch errors.Cause(err) {
	case nil:
	case db.ErrNotExist, db.ErrBucketNotExist:
		return nil
	default:
		return errors.Wrap(err, "failed to load wallet accounts")
	}
	w.accounts = make([]*Account, len(keys))
	for i, key := range keys {
		index := byteutil.BytesToUint32BigEndian(key)
		if index >= uint32(len(w.accounts)) {
			return errors.Errorf("corrupted account index = %d", index)
		}
		acct := &Account{
			Index:   index,
			Name:    string(values[i]),
			Address: deriveAddress(w.seed, index),
		}
		w.accounts[index] = acct
		w.byAddress[acct.Address] = index
	}
	return nil
}

func (w *Wallet) loadCoins() error {
	_, values, err := w.kv.Filter(CoinNamespace, nil)
	switch errors.Cause(err) {
	case nil:
	case db.ErrNotExist, db.ErrBucketNotExist:
		return nil
	default:
		return errors.Wrap(err, "failed to load wallet coins")
	}
	for _, v := range values {
		coin := &AccountCoin{}
		if err := coin.Deserialize(v); err != nil {
			return err
		}
		w.creditLocked(coin)
	}
	return nil
}

func (w *Wallet) loadBids() error {
	_, values, err := w.kv.Filter(BidNamespace, nil)
	switch errors.Cause(err) {
	case nil:
	case db.ErrNotExist, db.ErrBucketNotExist:
		return nil
	default:
		return errors.Wrap(err, "failed to load wallet bids")
	}
	for _, v := range values {
		bid := &walletBid{}
		if err := gob.NewDecoder(bytes.NewBuffer(v)).Decode(bid); err != nil {
			return errors.Wrap(err, "failed to decode wallet bid")
		}
		w.putBidLocked(bid)
	}
	return nil
}

// CreateAccount creates a new named account. Account names are unique within
// the wallet and accounts are never removed.
func (w *Wallet) CreateAccount(name string) (*Account, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.createAccount(name)
}

func (w *Wallet) createAccount(name string) (*Account, error) {
	if name == "" {
		return nil, errors.Wrap(ErrAccountNotExist, "empty account name")
	}
	for _, acct := range w.accounts {
		if acct.Name == name {
			return nil, errors.Wrapf(ErrAccountExists, "name = %s", name)
		}
	}
	index := uint32(len(w.accounts))
	acct := &Account{
		Index:   index,
		Name:    name,
		Address: deriveAddress(w.seed, index),
	}
	if err := w.kv.Put(AccountNamespace, byteutil.Uint32ToBytesBigEndian(index), []byte(name)); err != nil {
		return nil, errors.Wrapf(err, "failed to persist account %s", name)
	}
	w.accounts = append(w.accounts, acct)
	w.byAddress[acct.Address] = index
	return acct, nil
}

// GetAccount resolves a ref to its account
func (w *Wallet) GetAccount(ref AccountRef) (*Account, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.resolve(ref)
}

// Accounts returns all accounts in creation order
func (w *Wallet) Accounts() []*Account {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	accts := make([]*Account, len(w.accounts))
	copy(accts, w.accounts)
	return accts
}

// GetBalance returns the two-stage balance of an account
func (w *Wallet) GetBalance(ref AccountRef) (Balance, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	acct, err := w.resolve(ref)
	if err != nil {
		return Balance{}, err
	}
	var b Balance
	for _, coin := range w.coins[acct.Index] {
		if coin.Covenant != covenant.None || coin.ReservedBy != nil {
			continue
		}
		if coin.Confirmed {
			b.Confirmed += coin.Value
		}
		b.Unconfirmed += coin.Value
	}
	return b, nil
}

// SelectCoins reserves free confirmed coins of the account summing to at
// least target, largest first. The returned reservation stays in force until
// the funded transaction confirms, is abandoned, or ReleaseCoins is called.
func (w *Wallet) SelectCoins(ref AccountRef, target uint64) ([]*AccountCoin, uuid.UUID, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	acct, err := w.resolve(ref)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return w.selectCoinsLocked(acct, target)
}

func (w *Wallet) selectCoinsLocked(acct *Account, target uint64) ([]*AccountCoin, uuid.UUID, error) {
	tip := w.chain.TipHeight()
	candidates := make([]*AccountCoin, 0, len(w.coins[acct.Index]))
	for _, coin := range w.coins[acct.Index] {
		if coin.spendable(tip, w.chainCfg.CoinbaseMaturity) {
			candidates = append(candidates, coin)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Value != candidates[j].Value {
			return candidates[i].Value > candidates[j].Value
		}
		return bytes.Compare(candidates[i].Outpoint.Bytes(), candidates[j].Outpoint.Bytes()) < 0
	})
	var (
		selected []*AccountCoin
		sum      uint64
	)
	for _, coin := range candidates {
		selected = append(selected, coin)
		if sum += coin.Value; sum >= target {
			break
		}
	}
	if sum < target {
		return nil, uuid.Nil, errors.Wrapf(ErrInsufficientFunds, "account = %s, target = %d, spendable = %d", acct.Name, target, sum)
	}
	id := uuid.New()
	for _, coin := range selected {
		coin.ReservedBy = &id
	}
	return selected, id, nil
}

// ReleaseCoins drops a reservation, freeing its coins for selection again
func (w *Wallet) ReleaseCoins(id uuid.UUID) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.releaseLocked(id)
}

func (w *Wallet) releaseLocked(id uuid.UUID) {
	for _, byOp := range w.coins {
		for _, coin := range byOp {
			if coin.ReservedBy != nil && *coin.ReservedBy == id {
				coin.ReservedBy = nil
			}
		}
	}
}

// OwnsOutpoint returns whether the account holds the coin at op
func (w *Wallet) OwnsOutpoint(ref AccountRef, op block.Outpoint) (bool, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	acct, err := w.resolve(ref)
	if err != nil {
		return false, err
	}
	_, ok := w.coins[acct.Index][op]
	return ok, nil
}

// ownerOfLocked returns the account holding the coin at op, if any
func (w *Wallet) ownerOfLocked(op block.Outpoint) (*Account, *AccountCoin, bool) {
	for index, byOp := range w.coins {
		if coin, ok := byOp[op]; ok {
			return w.accounts[index], coin, true
		}
	}
	return nil, nil, false
}

// Abandon forgets a pending transaction built by this wallet: its input
// reservation is released, any bid commitments it created are erased, and the
// transaction is pulled out of the relay pool so rebroadcasts stop carrying
// it. Abandoning an unknown or already-settled hash is a no-op, so the call is
// idempotent and never double-credits.
func (w *Wallet) Abandon(txHash hash.Hash256) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	p, ok := w.pending[txHash]
	if !ok {
		return nil
	}
	w.pool.Remove(txHash)
	if p.reservation != nil {
		w.releaseLocked(*p.reservation)
	}
	for _, op := range p.bidOps {
		if err := w.deleteBidLocked(p.bidAccount, op); err != nil {
			return err
		}
	}
	// drop unconfirmed credits minted by the abandoned tx
	for _, byOp := range w.coins {
		for op, coin := range byOp {
			if !coin.Confirmed && op.TxHash == txHash {
				delete(byOp, op)
			}
		}
	}
	delete(w.pending, txHash)
	log.Logger("wallet").Info("Abandoned pending transaction.", log.Hex("txHash", txHash[:]))
	return nil
}

// HandleTx credits unconfirmed outputs paying this wallet. It implements the
// relay pool's subscriber interface.
func (w *Wallet) HandleTx(tx *block.Transaction) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	for i, out := range tx.Outputs {
		index, ok := w.byAddress[out.Address]
		if !ok {
			continue
		}
		op := tx.OutPoint(uint32(i))
		if _, exists := w.coins[index][op]; exists {
			continue
		}
		w.creditLocked(&AccountCoin{
			AccountIndex: index,
			Outpoint:     op,
			Value:        out.Value,
			Covenant:     out.Covenant.Type,
			NameHash:     out.Covenant.NameHash[:],
			Confirmed:    false,
		})
	}
}

// HandleBlock settles a committed block into the coin ledger. It implements
// the chain's subscriber interface.
func (w *Wallet) HandleBlock(blk *block.Block) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	batch := db.NewBatch()
	for _, tx := range blk.Txs {
		w.settleTxLocked(tx, blk.Height, batch)
	}
	if err := w.kv.Commit(batch); err != nil {
		return errors.Wrapf(err, "failed to persist coins of block %d", blk.Height)
	}
	return nil
}

func (w *Wallet) settleTxLocked(tx *block.Transaction, height uint64, batch db.KVStoreBatch) {
	txHash := tx.Hash()
	coinbase := tx.Coinbase()
	for i, in := range tx.Inputs {
		if coinbase {
			break
		}
		acct, coin, ok := w.ownerOfLocked(in.PrevOutpoint)
		if !ok {
			continue
		}
		delete(w.coins[acct.Index], in.PrevOutpoint)
		batch.Delete(CoinNamespace, coinKey(acct.Index, in.PrevOutpoint), "failed to delete spent coin")
		// a reveal settling on chain retires the matching bid commitment
		if coin.Covenant == covenant.Bid && i < len(tx.Outputs) && tx.Outputs[i].Covenant.Type == covenant.Reveal {
			w.markRevealedLocked(acct.Index, in.PrevOutpoint, batch)
		}
	}
	for i, out := range tx.Outputs {
		index, ok := w.byAddress[out.Address]
		if !ok {
			continue
		}
		op := tx.OutPoint(uint32(i))
		coin := &AccountCoin{
			AccountIndex: index,
			Outpoint:     op,
			Value:        out.Value,
			Covenant:     out.Covenant.Type,
			NameHash:     out.Covenant.NameHash[:],
			Height:       height,
			Coinbase:     coinbase,
			Confirmed:    true,
		}
		w.creditLocked(coin)
		if raw, err := coin.Serialize(); err == nil {
			batch.Put(CoinNamespace, coinKey(index, op), raw, "failed to put coin")
		}
	}
	delete(w.pending, txHash)
}

func (w *Wallet) creditLocked(coin *AccountCoin) {
	byOp, ok := w.coins[coin.AccountIndex]
	if !ok {
		byOp = make(map[block.Outpoint]*AccountCoin)
		w.coins[coin.AccountIndex] = byOp
	}
	byOp[coin.Outpoint] = coin
}

func (w *Wallet) putBidLocked(bid *walletBid) {
	byOp, ok := w.bids[bid.AccountIndex]
	if !ok {
		byOp = make(map[block.Outpoint]*walletBid)
		w.bids[bid.AccountIndex] = byOp
	}
	byOp[bid.Outpoint] = bid
}

func (w *Wallet) persistBidLocked(bid *walletBid) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(bid); err != nil {
		return errors.Wrap(err, "failed to encode wallet bid")
	}
	if err := w.kv.Put(BidNamespace, coinKey(bid.AccountIndex, bid.Outpoint), buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to persist wallet bid")
	}
	w.putBidLocked(bid)
	return nil
}

func (w *Wallet) deleteBidLocked(index uint32, op block.Outpoint) error {
	if byOp, ok := w.bids[index]; ok {
		delete(byOp, op)
	}
	err := w.kv.Delete(BidNamespace, coinKey(index, op))
	switch errors.Cause(err) {
	case nil, db.ErrNotExist, db.ErrBucketNotExist:
		return nil
	default:
		return errors.Wrap(err, "failed to delete wallet bid")
	}
}

func (w *Wallet) markRevealedLocked(index uint32, op block.Outpoint, batch db.KVStoreBatch) {
	byOp, ok := w.bids[index]
	if !ok {
		return
	}
	bid, ok := byOp[op]
	if !ok {
		return
	}
	bid.Revealed = true
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(bid); err != nil {
		return
	}
	batch.Put(BidNamespace, coinKey(index, op), buf.Bytes(), "failed to put wallet bid")
}

// sortedCoinsLocked returns the account's coins in outpoint order, so plans
// built from them are deterministic
func (w *Wallet) sortedCoinsLocked(index uint32) []*AccountCoin {
	coins := make([]*AccountCoin, 0, len(w.coins[index]))
	for _, coin := range w.coins[index] {
		coins = append(coins, coin)
	}
	sort.Slice(coins, func(i, j int) bool {
		return bytes.Compare(coins[i].Outpoint.Bytes(), coins[j].Outpoint.Bytes()) < 0
	})
	return coins
}

// sortedBidsLocked returns the account's bids in outpoint order
func (w *Wallet) sortedBidsLocked(index uint32) []*walletBid {
	bids := make([]*walletBid, 0, len(w.bids[index]))
	for _, bid := range w.bids[index] {
		bids = append(bids, bid)
	}
	sort.Slice(bids, func(i, j int) bool {
		return bytes.Compare(bids[i].Outpoint.Bytes(), bids[j].Outpoint.Bytes()) < 0
	})
	return bids
}

// Rescan drops every coin minted at or above fromHeight, then replays the
// chain from that height through the regular settlement path. Spends of older
// coins recorded in the replayed blocks are applied again, so the ledger
// converges to the chain regardless of what was missed. All reservations and
// pending transactions are dropped.
func (w *Wallet) Rescan(fromHeight uint64) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if fromHeight == 0 {
		fromHeight = 1
	}
	batch := db.NewBatch()
	for index, byOp := range w.coins {
		for op, coin := range byOp {
			coin.ReservedBy = nil
			if !coin.Confirmed || coin.Height >= fromHeight {
				delete(byOp, op)
				batch.Delete(CoinNamespace, coinKey(uint32(index), op), "failed to delete coin on rescan")
			}
		}
	}
	w.pending = make(map[hash.Hash256]*pendingTx)
	tip := w.chain.TipHeight()
	for height := fromHeight; height <= tip; height++ {
		blk, err := w.chain.GetBlockByHeight(height)
		if err != nil {
			return errors.Wrapf(err, "failed to read block %d on rescan", height)
		}
		for _, tx := range blk.Txs {
			w.settleTxLocked(tx, height, batch)
		}
	}
	if err := w.kv.Commit(batch); err != nil {
		return errors.Wrap(err, "failed to persist rescan")
	}
	log.Logger("wallet").Info("Rescan complete.",
		zap.Uint64("fromHeight", fromHeight),
		zap.Uint64("tipHeight", tip))
	return nil
}
