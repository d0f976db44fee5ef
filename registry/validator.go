// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package registry

import (
	"github.com/pkg/errors"

	"github.com/namechain/namechain-core/auction"
	"github.com/namechain/namechain-core/blockchain/block"
	"github.com/namechain/namechain-core/config"
	"github.com/namechain/namechain-core/covenant"
)

var (
	// ErrPhaseMismatch indicates an action requested outside its valid auction phase
	ErrPhaseMismatch = errors.New("action is outside its valid auction phase")
	// ErrInvalidTransition indicates a covenant violating the name state machine
	ErrInvalidTransition = errors.New("covenant violates name state machine")
	// ErrOwnershipViolation indicates a spender that does not hold the targeted covenant output
	ErrOwnershipViolation = errors.New("spender does not own the covenant output")
)

// Transition describes one covenant-tagged output observed at a chain height,
// together with the output its transaction input consumed (nil for covenants
// spending fresh coins).
type Transition struct {
	Covenant *covenant.Covenant
	Height   uint64
	Self     block.Outpoint // the covenant output being created
	Value    uint64         // value carried by the covenant output
	Spent    *block.Output  // covenant output consumed by the spend, if any
	SpentOp  block.Outpoint
}

// Validator decides whether a covenant transition is legal given the prior
// name state and the chain height. This is the consensus rule: it must be
// bit-identical across all nodes. Validate never mutates its inputs and
// returns the fully derived next state, so a rejection leaves no partial
// application behind.
type Validator struct {
	names config.Names
}

// NewValidator creates a validator with the network's auction windows
func NewValidator(names config.Names) *Validator {
	return &Validator{names: names}
}

// Validate pattern-matches the covenant tag exhaustively and returns the next
// name state or a typed validation failure.
func (v *Validator) Validate(t Transition, prior *NameState) (*NameState, error) {
	cov := t.Covenant
	switch cov.Type {
	case covenant.Open:
		return v.validateOpen(t, prior)
	case covenant.Bid:
		return v.validateBid(t, prior)
	case covenant.Reveal:
		return v.validateReveal(t, prior)
	case covenant.Register:
		return v.validateRegister(t, prior)
	case covenant.Update:
		return v.validateUpdate(t, prior)
	case covenant.Redeem:
		return v.validateRedeem(t, prior)
	case covenant.None:
		return nil, errors.Wrap(ErrInvalidTransition, "output carries no covenant")
	case covenant.Claim, covenant.Renew, covenant.Transfer, covenant.Finalize, covenant.Revoke:
		return nil, errors.Wrapf(ErrInvalidTransition, "%s covenant is not accepted on this network", cov.Type)
	default:
		return nil, errors.Wrapf(ErrInvalidTransition, "unknown covenant tag %d", cov.Type)
	}
}

func (v *Validator) validateOpen(t Transition, prior *NameState) (*NameState, error) {
	cov := t.Covenant
	if err := covenant.ValidateName(cov.Name); err != nil {
		return nil, errors.Wrapf(ErrInvalidTransition, "open carries invalid name: %v", err)
	}
	if cov.NameHash != covenant.HashName(cov.Name) {
		return nil, errors.Wrap(ErrInvalidTransition, "open name hash does not match name")
	}
	if phase := PhaseOf(v.names, prior, t.Height); phase != PhaseAvailable {
		return nil, errors.Wrapf(ErrPhaseMismatch, "name %s is %s, not available for open", cov.Name, phase)
	}
	return NewNameState(cov.Name, t.Height), nil
}

func (v *Validator) validateBid(t Transition, prior *NameState) (*NameState, error) {
	cov := t.Covenant
	if prior == nil {
		return nil, errors.Wrapf(ErrInvalidTransition, "bid on never-opened name %s", cov.Name)
	}
	if cov.NameHash != prior.NameHash {
		return nil, errors.Wrap(ErrInvalidTransition, "bid name hash does not match state")
	}
	if phase := PhaseOf(v.names, prior, t.Height); phase != PhaseBidding {
		return nil, errors.Wrapf(ErrPhaseMismatch, "name %s is %s, bids only accepted during bidding", prior.Name, phase)
	}
	if cov.Commitment.IsZero() {
		return nil, errors.Wrap(ErrInvalidTransition, "bid carries empty commitment")
	}
	// a bid spends fresh coins; no prior covenant output is involved
	if t.Spent != nil && t.Spent.Covenant.Type != covenant.None {
		return nil, errors.Wrapf(ErrInvalidTransition, "bid may not spend a %s output", t.Spent.Covenant.Type)
	}
	return prior.Clone(), nil
}

func (v *Validator) validateReveal(t Transition, prior *NameState) (*NameState, error) {
	cov := t.Covenant
	if prior == nil {
		return nil, errors.Wrapf(ErrInvalidTransition, "reveal on never-opened name %s", cov.Name)
	}
	if phase := PhaseOf(v.names, prior, t.Height); phase != PhaseReveal {
		return nil, errors.Wrapf(ErrPhaseMismatch, "name %s is %s, reveals only accepted during reveal", prior.Name, phase)
	}
	if t.Spent == nil || t.Spent.Covenant.Type != covenant.Bid {
		return nil, errors.Wrap(ErrInvalidTransition, "reveal must spend a bid output")
	}
	if t.Spent.Covenant.NameHash != prior.NameHash || cov.NameHash != prior.NameHash {
		return nil, errors.Wrap(ErrInvalidTransition, "reveal name hash does not match the spent bid")
	}
	if t.Value != t.Spent.Value {
		return nil, errors.Wrap(ErrInvalidTransition, "reveal must carry the bid lockup forward")
	}
	if err := auction.VerifyReveal(prior.Name, cov.BidValue, cov.Nonce, t.Spent.Value, t.Spent.Covenant.Commitment); err != nil {
		return nil, err
	}

	next := prior.Clone()
	switch {
	case next.RevealCount == 0 || cov.BidValue > next.HighestBid:
		// ties keep the earlier reveal: a later equal bid never displaces the holder
		next.SecondHighestBid = next.HighestBid
		next.HighestBid = cov.BidValue
		next.HighestOutpoint = t.Self
	case cov.BidValue > next.SecondHighestBid:
		next.SecondHighestBid = cov.BidValue
	}
	next.RevealCount++
	return next, nil
}

func (v *Validator) validateRegister(t Transition, prior *NameState) (*NameState, error) {
	cov := t.Covenant
	if prior == nil {
		return nil, errors.Wrapf(ErrInvalidTransition, "register on never-opened name %s", cov.Name)
	}
	if phase := PhaseOf(v.names, prior, t.Height); phase != PhaseClosed {
		return nil, errors.Wrapf(ErrPhaseMismatch, "name %s is %s, register only accepted once closed", prior.Name, phase)
	}
	if prior.Registered() {
		return nil, errors.Wrapf(ErrInvalidTransition, "name %s is already registered", prior.Name)
	}
	if t.Spent == nil || t.Spent.Covenant.Type != covenant.Reveal {
		return nil, errors.Wrap(ErrInvalidTransition, "register must spend a reveal output")
	}
	if t.SpentOp != prior.HighestOutpoint {
		return nil, errors.Wrapf(ErrOwnershipViolation, "only the winning reveal may register %s", prior.Name)
	}
	if len(cov.Resource) > covenant.MaxResourceLength {
		return nil, errors.Wrapf(ErrInvalidTransition, "resource record of %d bytes too large", len(cov.Resource))
	}
	// the register output locks exactly the settlement price; the rest of the
	// lockup leaves as change
	if price := auction.SettlePrice(prior.HighestBid, prior.SecondHighestBid); t.Value != price {
		return nil, errors.Wrapf(ErrInvalidTransition, "register of %s locks %d, settlement price is %d", prior.Name, t.Value, price)
	}
	next := prior.Clone()
	next.Owner = t.Self
	next.Resource = cov.Resource
	next.RenewalHeight = t.Height + v.names.RenewalWindow
	return next, nil
}

func (v *Validator) validateUpdate(t Transition, prior *NameState) (*NameState, error) {
	cov := t.Covenant
	if prior == nil {
		return nil, errors.Wrapf(ErrInvalidTransition, "update on never-opened name %s", cov.Name)
	}
	if phase := PhaseOf(v.names, prior, t.Height); phase != PhaseClosed {
		return nil, errors.Wrapf(ErrPhaseMismatch, "name %s is %s, update only accepted once closed", prior.Name, phase)
	}
	if !prior.Registered() {
		return nil, errors.Wrapf(ErrInvalidTransition, "name %s has no owner to update", prior.Name)
	}
	if t.SpentOp != prior.Owner {
		return nil, errors.Wrapf(ErrOwnershipViolation, "update of %s must spend the owner outpoint", prior.Name)
	}
	if len(cov.Resource) > covenant.MaxResourceLength {
		return nil, errors.Wrapf(ErrInvalidTransition, "resource record of %d bytes too large", len(cov.Resource))
	}
	next := prior.Clone()
	next.Owner = t.Self
	next.Resource = cov.Resource
	return next, nil
}

func (v *Validator) validateRedeem(t Transition, prior *NameState) (*NameState, error) {
	if prior == nil {
		return nil, errors.Wrap(ErrInvalidTransition, "redeem on never-opened name")
	}
	if phase := PhaseOf(v.names, prior, t.Height); phase != PhaseClosed {
		return nil, errors.Wrapf(ErrPhaseMismatch, "name %s is %s, redeem only accepted once closed", prior.Name, phase)
	}
	if t.Spent == nil || t.Spent.Covenant.Type != covenant.Reveal {
		return nil, errors.Wrap(ErrInvalidTransition, "redeem must spend a reveal output")
	}
	if t.Spent.Covenant.NameHash != prior.NameHash {
		return nil, errors.Wrap(ErrInvalidTransition, "redeem name hash does not match the spent reveal")
	}
	if t.SpentOp == prior.HighestOutpoint {
		return nil, errors.Wrapf(ErrInvalidTransition, "winning reveal of %s cannot be redeemed", prior.Name)
	}
	return prior.Clone(), nil
}
