// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package wallet

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/namechain/namechain-core/auction"
	"github.com/namechain/namechain-core/blockchain/block"
	"github.com/namechain/namechain-core/covenant"
	"github.com/namechain/namechain-core/pkg/log"
	"github.com/namechain/namechain-core/registry"
)

var _sendMtc = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "namechain_wallet_send_total",
		Help: "Wallet send operations",
	},
	[]string{"action", "result"},
)

func init() {
	prometheus.MustRegister(_sendMtc)
}

// BidInfo is one bid of this wallet on a name, as returned by GetBidsByName
type BidInfo struct {
	Name         []byte
	AccountIndex uint32
	AccountName  string
	Outpoint     block.Outpoint
	BidValue     uint64
	LockupValue  uint64
	Revealed     bool
	Own          bool
}

// SendOpen broadcasts an OPEN for the name, funded by the given account. The
// name must be available at the next height.
func (w *Wallet) SendOpen(ref AccountRef, name []byte) (*block.Transaction, error) {
	if err := covenant.ValidateName(name); err != nil {
		return nil, err
	}
	if err := w.checkPhase(name, registry.PhaseAvailable); err != nil {
		return nil, w.observe("open", err)
	}
	acct, tx, resID, err := func() (*Account, *block.Transaction, uuid.UUID, error) {
		w.mutex.Lock()
		defer w.mutex.Unlock()
		acct, err := w.resolve(ref)
		if err != nil {
			return nil, nil, uuid.Nil, err
		}
		// an open carries no value, one coin anchors the transaction
		coins, resID, err := w.selectCoinsLocked(acct, 1)
		if err != nil {
			return nil, nil, uuid.Nil, err
		}
		tx := &block.Transaction{
			Outputs: []block.Output{
				{
					Value:   0,
					Address: acct.Address,
					Covenant: covenant.Covenant{
						Type:     covenant.Open,
						NameHash: covenant.HashName(name),
						Name:     name,
					},
				},
			},
		}
		fundTx(tx, coins, acct.Address)
		return acct, tx, resID, nil
	}()
	if err != nil {
		return nil, w.observe("open", err)
	}
	return tx, w.observe("open", w.submit(acct, tx, &resID, nil))
}

// SendBid places a blind bid on the name: bidValue is hidden inside a lockup
// of lockupValue, and the commitment needed to reveal later is persisted
// before the transaction is handed to the relay pool.
func (w *Wallet) SendBid(ref AccountRef, name []byte, bidValue, lockupValue uint64) (*block.Transaction, error) {
	if err := covenant.ValidateName(name); err != nil {
		return nil, err
	}
	if err := w.checkPhase(name, registry.PhaseBidding); err != nil {
		return nil, w.observe("bid", err)
	}
	commitment, err := auction.NewBlindBid(name, bidValue, lockupValue)
	if err != nil {
		return nil, w.observe("bid", err)
	}
	acct, tx, resID, bidOp, err := func() (*Account, *block.Transaction, uuid.UUID, block.Outpoint, error) {
		w.mutex.Lock()
		defer w.mutex.Unlock()
		acct, err := w.resolve(ref)
		if err != nil {
			return nil, nil, uuid.Nil, block.Outpoint{}, err
		}
		coins, resID, err := w.selectCoinsLocked(acct, lockupValue)
		if err != nil {
			return nil, nil, uuid.Nil, block.Outpoint{}, err
		}
		tx := &block.Transaction{
			Outputs: []block.Output{
				{
					Value:   lockupValue,
					Address: acct.Address,
					Covenant: covenant.Covenant{
						Type:       covenant.Bid,
						NameHash:   covenant.HashName(name),
						Name:       name,
						Commitment: commitment.Commitment,
					},
				},
			},
		}
		fundTx(tx, coins, acct.Address)
		bidOp := tx.OutPoint(0)
		if err := w.persistBidLocked(&walletBid{
			AccountIndex: acct.Index,
			Outpoint:     bidOp,
			Commitment:   commitment,
		}); err != nil {
			w.releaseLocked(resID)
			return nil, nil, uuid.Nil, block.Outpoint{}, err
		}
		return acct, tx, resID, bidOp, nil
	}()
	if err != nil {
		return nil, w.observe("bid", err)
	}
	return tx, w.observe("bid", w.submit(acct, tx, &resID, []block.Outpoint{bidOp}))
}

// SendReveal reveals all of the account's outstanding bids on the name in a
// single transaction
func (w *Wallet) SendReveal(ref AccountRef, name []byte) (*block.Transaction, error) {
	if err := covenant.ValidateName(name); err != nil {
		return nil, err
	}
	if err := w.checkPhase(name, registry.PhaseReveal); err != nil {
		return nil, w.observe("reveal", err)
	}
	acct, tx, err := func() (*Account, *block.Transaction, error) {
		w.mutex.Lock()
		defer w.mutex.Unlock()
		acct, err := w.resolve(ref)
		if err != nil {
			return nil, nil, err
		}
		ins, outs := w.revealPlanLocked(acct, name)
		if len(ins) == 0 {
			return nil, nil, errors.Wrapf(ErrNoBids, "account = %s, name = %s", acct.Name, name)
		}
		return acct, &block.Transaction{Inputs: ins, Outputs: outs}, nil
	}()
	if err != nil {
		return nil, w.observe("reveal", err)
	}
	return tx, w.observe("reveal", w.submit(acct, tx, nil, nil))
}

// SendRevealAll reveals every outstanding bid of every account whose name is
// currently in its reveal window, batched into one transaction. Per-account
// reveal legs are planned concurrently and concatenated in account order, so
// the result is deterministic.
func (w *Wallet) SendRevealAll() (*block.Transaction, error) {
	acct, tx, err := func() (*Account, *block.Transaction, error) {
		w.mutex.Lock()
		defer w.mutex.Unlock()
		type leg struct {
			ins  []block.Input
			outs []block.Output
		}
		legs := make([]leg, len(w.accounts))
		var g errgroup.Group
		for _, acct := range w.accounts {
			acct := acct
			g.Go(func() error {
				ins, outs, err := w.revealAllPlanLocked(acct)
				if err != nil {
					return err
				}
				legs[acct.Index] = leg{ins: ins, outs: outs}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
		tx := &block.Transaction{}
		for _, l := range legs {
			tx.Inputs = append(tx.Inputs, l.ins...)
			tx.Outputs = append(tx.Outputs, l.outs...)
		}
		if len(tx.Inputs) == 0 {
			return nil, nil, errors.Wrap(ErrNoBids, "no account has bids to reveal")
		}
		return w.accounts[0], tx, nil
	}()
	if err != nil {
		return nil, w.observe("revealAll", err)
	}
	return tx, w.observe("revealAll", w.submit(acct, tx, nil, nil))
}

// revealPlanLocked builds the reveal legs of one account for one name. Input
// i spends the bid and output i discloses its value and nonce, keeping the
// two positionally aligned.
func (w *Wallet) revealPlanLocked(acct *Account, name []byte) ([]block.Input, []block.Output) {
	var (
		ins  []block.Input
		outs []block.Output
	)
	for _, bid := range w.sortedBidsLocked(acct.Index) {
		if bid.Revealed || string(bid.Commitment.Name) != string(name) {
			continue
		}
		coin, ok := w.coins[acct.Index][bid.Outpoint]
		if !ok || !coin.Confirmed {
			continue
		}
		ins = append(ins, block.Input{PrevOutpoint: bid.Outpoint})
		outs = append(outs, block.Output{
			Value:   bid.Commitment.LockupValue,
			Address: acct.Address,
			Covenant: covenant.Covenant{
				Type:     covenant.Reveal,
				NameHash: covenant.HashName(name),
				Name:     name,
				BidValue: bid.Commitment.BidValue,
				Nonce:    bid.Commitment.Nonce,
			},
		})
	}
	return ins, outs
}

// revealAllPlanLocked builds reveal legs for every name of the account that
// is inside its reveal window
func (w *Wallet) revealAllPlanLocked(acct *Account) ([]block.Input, []block.Output, error) {
	var (
		ins  []block.Input
		outs []block.Output
	)
	height := w.chain.TipHeight() + 1
	for _, bid := range w.sortedBidsLocked(acct.Index) {
		if bid.Revealed {
			continue
		}
		coin, ok := w.coins[acct.Index][bid.Outpoint]
		if !ok || !coin.Confirmed {
			continue
		}
		s, err := w.chain.GetNameState(bid.Commitment.Name)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to load state of %s", bid.Commitment.Name)
		}
		if registry.PhaseOf(w.chainCfg.Names, s, height) != registry.PhaseReveal {
			continue
		}
		ins = append(ins, block.Input{PrevOutpoint: bid.Outpoint})
		outs = append(outs, block.Output{
			Value:   bid.Commitment.LockupValue,
			Address: acct.Address,
			Covenant: covenant.Covenant{
				Type:     covenant.Reveal,
				NameHash: covenant.HashName(bid.Commitment.Name),
				Name:     bid.Commitment.Name,
				BidValue: bid.Commitment.BidValue,
				Nonce:    bid.Commitment.Nonce,
			},
		})
	}
	return ins, outs, nil
}

// SendUpdate replaces the resource record of a registered name. With a nil
// ref the owning account is resolved automatically; with an explicit ref the
// call fails before any coin is touched if that account does not own the
// name.
func (w *Wallet) SendUpdate(ref *AccountRef, name, resource []byte) (*block.Transaction, error) {
	if err := covenant.ValidateName(name); err != nil {
		return nil, err
	}
	if len(resource) > covenant.MaxResourceLength {
		return nil, errors.Wrapf(registry.ErrInvalidTransition, "resource length = %d", len(resource))
	}
	s, err := w.chain.GetNameState(name)
	if err != nil {
		return nil, w.observe("update", err)
	}
	if !s.Registered() {
		return nil, w.observe("update", errors.Wrapf(registry.ErrPhaseMismatch, "name %s is not registered", name))
	}
	owner, tx, resID, err := func() (*Account, *block.Transaction, uuid.UUID, error) {
		w.mutex.Lock()
		defer w.mutex.Unlock()
		owner, coin, ok := w.ownerOfLocked(s.Owner)
		if !ok {
			return nil, nil, uuid.Nil, errors.Wrapf(registry.ErrOwnershipViolation, "wallet does not own %s", name)
		}
		if ref != nil {
			acct, err := w.resolve(*ref)
			if err != nil {
				return nil, nil, uuid.Nil, err
			}
			if acct.Index != owner.Index {
				return nil, nil, uuid.Nil, errors.Wrapf(registry.ErrOwnershipViolation,
					"account %s does not own %s, owner is %s", acct.Name, name, owner.Name)
			}
		}
		resID := uuid.New()
		coin.ReservedBy = &resID
		tx := &block.Transaction{
			Inputs: []block.Input{{PrevOutpoint: s.Owner}},
			Outputs: []block.Output{
				{
					Value:   coin.Value,
					Address: owner.Address,
					Covenant: covenant.Covenant{
						Type:     covenant.Update,
						NameHash: covenant.HashName(name),
						Name:     name,
						Resource: resource,
					},
				},
			},
		}
		return owner, tx, resID, nil
	}()
	if err != nil {
		return nil, w.observe("update", err)
	}
	return tx, w.observe("update", w.submit(owner, tx, &resID, nil))
}

// SendRegister claims a won auction: the winning reveal is spent into a
// REGISTER output locking the settlement price, and the overpaid remainder
// returns to the account as change.
func (w *Wallet) SendRegister(ref *AccountRef, name, resource []byte) (*block.Transaction, error) {
	if err := covenant.ValidateName(name); err != nil {
		return nil, err
	}
	if err := w.checkPhase(name, registry.PhaseClosed); err != nil {
		return nil, w.observe("register", err)
	}
	s, err := w.chain.GetNameState(name)
	if err != nil {
		return nil, w.observe("register", err)
	}
	if s.Registered() {
		return nil, w.observe("register", errors.Wrapf(registry.ErrInvalidTransition, "name %s is already registered", name))
	}
	winner, tx, resID, err := func() (*Account, *block.Transaction, uuid.UUID, error) {
		w.mutex.Lock()
		defer w.mutex.Unlock()
		winner, coin, ok := w.ownerOfLocked(s.HighestOutpoint)
		if !ok {
			return nil, nil, uuid.Nil, errors.Wrapf(registry.ErrOwnershipViolation, "wallet did not win %s", name)
		}
		if ref != nil {
			acct, err := w.resolve(*ref)
			if err != nil {
				return nil, nil, uuid.Nil, err
			}
			if acct.Index != winner.Index {
				return nil, nil, uuid.Nil, errors.Wrapf(registry.ErrOwnershipViolation,
					"account %s did not win %s, winner is %s", acct.Name, name, winner.Name)
			}
		}
		price := auction.SettlePrice(s.HighestBid, s.SecondHighestBid)
		resID := uuid.New()
		coin.ReservedBy = &resID
		tx := &block.Transaction{
			Inputs: []block.Input{{PrevOutpoint: s.HighestOutpoint}},
			Outputs: []block.Output{
				{
					Value:   price,
					Address: winner.Address,
					Covenant: covenant.Covenant{
						Type:     covenant.Register,
						NameHash: covenant.HashName(name),
						Name:     name,
						Resource: resource,
					},
				},
			},
		}
		if refund := coin.Value - price; refund > 0 {
			tx.Outputs = append(tx.Outputs, block.Output{Value: refund, Address: winner.Address})
		}
		return winner, tx, resID, nil
	}()
	if err != nil {
		return nil, w.observe("register", err)
	}
	return tx, w.observe("register", w.submit(winner, tx, &resID, nil))
}

// SendRedeem refunds the account's losing reveals on a closed auction
func (w *Wallet) SendRedeem(ref AccountRef, name []byte) (*block.Transaction, error) {
	if err := covenant.ValidateName(name); err != nil {
		return nil, err
	}
	if err := w.checkPhase(name, registry.PhaseClosed); err != nil {
		return nil, w.observe("redeem", err)
	}
	s, err := w.chain.GetNameState(name)
	if err != nil {
		return nil, w.observe("redeem", err)
	}
	nameHash := covenant.HashName(name)
	acct, tx, err := func() (*Account, *block.Transaction, error) {
		w.mutex.Lock()
		defer w.mutex.Unlock()
		acct, err := w.resolve(ref)
		if err != nil {
			return nil, nil, err
		}
		tx := &block.Transaction{}
		for _, coin := range w.sortedCoinsLocked(acct.Index) {
			if coin.Covenant != covenant.Reveal || !coin.Confirmed {
				continue
			}
			if string(coin.NameHash) != string(nameHash[:]) || coin.Outpoint == s.HighestOutpoint {
				continue
			}
			tx.Inputs = append(tx.Inputs, block.Input{PrevOutpoint: coin.Outpoint})
			tx.Outputs = append(tx.Outputs, block.Output{
				Value:   coin.Value,
				Address: acct.Address,
				Covenant: covenant.Covenant{
					Type:     covenant.Redeem,
					NameHash: nameHash,
					Name:     name,
				},
			})
		}
		if len(tx.Inputs) == 0 {
			return nil, nil, errors.Wrapf(ErrNoBids, "account %s has no losing reveal on %s", acct.Name, name)
		}
		return acct, tx, nil
	}()
	if err != nil {
		return nil, w.observe("redeem", err)
	}
	return tx, w.observe("redeem", w.submit(acct, tx, nil, nil))
}

// GetBidsByName lists this wallet's bids on a name across all accounts, each
// entry flagged as owned by the wallet
func (w *Wallet) GetBidsByName(name []byte) ([]*BidInfo, error) {
	if err := covenant.ValidateName(name); err != nil {
		return nil, err
	}
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	var infos []*BidInfo
	for _, acct := range w.accounts {
		for _, bid := range w.sortedBidsLocked(acct.Index) {
			if string(bid.Commitment.Name) != string(name) {
				continue
			}
			infos = append(infos, &BidInfo{
				Name:         bid.Commitment.Name,
				AccountIndex: acct.Index,
				AccountName:  acct.Name,
				Outpoint:     bid.Outpoint,
				BidValue:     bid.Commitment.BidValue,
				LockupValue:  bid.Commitment.LockupValue,
				Revealed:     bid.Revealed,
				Own:          true,
			})
		}
	}
	return infos, nil
}

// checkPhase verifies the name will be in the wanted phase at the next height
func (w *Wallet) checkPhase(name []byte, want registry.Phase) error {
	s, err := w.chain.GetNameState(name)
	switch errors.Cause(err) {
	case nil:
	case registry.ErrNameNotExist:
		s = nil
	default:
		return err
	}
	height := w.chain.TipHeight() + 1
	if got := registry.PhaseOf(w.chainCfg.Names, s, height); got != want {
		return errors.Wrapf(registry.ErrPhaseMismatch, "name = %s, phase = %s, expected = %s", name, got, want)
	}
	return nil
}

// submit hands a built transaction to the relay pool and records it as
// pending. The wallet lock is not held across the pool call, the pool
// notifies the wallet synchronously on acceptance. A rejection rolls back the
// reservation and any staged bid commitments.
func (w *Wallet) submit(acct *Account, tx *block.Transaction, resID *uuid.UUID, bidOps []block.Outpoint) error {
	err := w.pool.Submit(tx)
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if err != nil {
		if resID != nil {
			w.releaseLocked(*resID)
		}
		for _, op := range bidOps {
			if derr := w.deleteBidLocked(acct.Index, op); derr != nil {
				log.Logger("wallet").Error("Failed to roll back bid commitment.", zap.Error(derr))
			}
		}
		return errors.Wrap(err, "relay pool rejected transaction")
	}
	w.pending[tx.Hash()] = &pendingTx{
		tx:          tx,
		reservation: resID,
		bidOps:      bidOps,
		bidAccount:  acct.Index,
	}
	return nil
}

func (w *Wallet) observe(action string, err error) error {
	if err != nil {
		_sendMtc.WithLabelValues(action, "failure").Inc()
		return err
	}
	_sendMtc.WithLabelValues(action, "success").Inc()
	return nil
}

// fundTx attaches the selected coins as inputs and a change output sweeping
// the surplus back to addr
func fundTx(tx *block.Transaction, coins []*AccountCoin, addr string) {
	var sum uint64
	for _, coin := range coins {
		tx.Inputs = append(tx.Inputs, block.Input{PrevOutpoint: coin.Outpoint})
		sum += coin.Value
	}
	var spent uint64
	for _, out := range tx.Outputs {
		spent += out.Value
	}
	if change := sum - spent; change > 0 {
		tx.Outputs = append(tx.Outputs, block.Output{Value: change, Address: addr})
	}
}
