// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package registry

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/namechain/namechain-core/auction"
	"github.com/namechain/namechain-core/blockchain/block"
	"github.com/namechain/namechain-core/covenant"
	"github.com/namechain/namechain-core/pkg/hash"
)

func outpoint(seed string, index uint32) block.Outpoint {
	return block.Outpoint{TxHash: hash.Hash256b([]byte(seed)), Index: index}
}

func openTransition(name []byte, height uint64) Transition {
	return Transition{
		Covenant: &covenant.Covenant{
			Type:     covenant.Open,
			NameHash: covenant.HashName(name),
			Name:     name,
		},
		Height: height,
		Self:   outpoint("open", 0),
	}
}

// bidOutput builds the BID output a reveal will later spend
func bidOutput(name []byte, commitment *auction.BidCommitment) *block.Output {
	return &block.Output{
		Value: commitment.LockupValue,
		Covenant: covenant.Covenant{
			Type:       covenant.Bid,
			NameHash:   covenant.HashName(name),
			Name:       name,
			Commitment: commitment.Commitment,
		},
	}
}

func revealTransition(name []byte, height uint64, commitment *auction.BidCommitment, self, spentOp block.Outpoint) Transition {
	return Transition{
		Covenant: &covenant.Covenant{
			Type:     covenant.Reveal,
			NameHash: covenant.HashName(name),
			Name:     name,
			BidValue: commitment.BidValue,
			Nonce:    commitment.Nonce,
		},
		Height:  height,
		Self:    self,
		Value:   commitment.LockupValue,
		Spent:   bidOutput(name, commitment),
		SpentOp: spentOp,
	}
}

func TestValidateOpen(t *testing.T) {
	require := require.New(t)
	v := NewValidator(_testNames)
	name := []byte("satoshi")

	s, err := v.Validate(openTransition(name, 10), nil)
	require.NoError(err)
	require.Equal(uint64(10), s.OpenHeight)
	require.Equal(covenant.HashName(name), s.NameHash)

	// a second open while the auction is running is rejected
	_, err = v.Validate(openTransition(name, 11), s)
	require.Equal(ErrPhaseMismatch, errors.Cause(err))

	// invalid names never enter the registry
	bad := openTransition([]byte("Satoshi"), 10)
	bad.Covenant.NameHash = covenant.HashName(bad.Covenant.Name)
	_, err = v.Validate(bad, nil)
	require.Equal(ErrInvalidTransition, errors.Cause(err))

	// the hash must bind the name
	forged := openTransition(name, 10)
	forged.Covenant.NameHash = covenant.HashName([]byte("other"))
	_, err = v.Validate(forged, nil)
	require.Equal(ErrInvalidTransition, errors.Cause(err))

	// a no-reveal auction reopens when the reveal window ends
	reopened, err := v.Validate(openTransition(name, 15), s)
	require.NoError(err)
	require.Equal(uint64(15), reopened.OpenHeight)
	require.Zero(reopened.RevealCount)
}

func TestValidateBid(t *testing.T) {
	require := require.New(t)
	v := NewValidator(_testNames)
	name := []byte("satoshi")
	s := NewNameState(name, 10)

	commitment, err := auction.NewBlindBid(name, 50000, 60000)
	require.NoError(err)
	bid := Transition{
		Covenant: &covenant.Covenant{
			Type:       covenant.Bid,
			NameHash:   covenant.HashName(name),
			Name:       name,
			Commitment: commitment.Commitment,
		},
		Height: 11,
		Self:   outpoint("bid", 0),
		Value:  60000,
	}

	next, err := v.Validate(bid, s)
	require.NoError(err)
	require.Equal(s, next)

	_, err = v.Validate(bid, nil)
	require.Equal(ErrInvalidTransition, errors.Cause(err))

	early := bid
	early.Height = 10
	_, err = v.Validate(early, s)
	require.Equal(ErrPhaseMismatch, errors.Cause(err))

	late := bid
	late.Height = 13
	_, err = v.Validate(late, s)
	require.Equal(ErrPhaseMismatch, errors.Cause(err))

	empty := bid
	empty.Covenant = &covenant.Covenant{Type: covenant.Bid, NameHash: covenant.HashName(name), Name: name}
	_, err = v.Validate(empty, s)
	require.Equal(ErrInvalidTransition, errors.Cause(err))

	// bids spend fresh coins, never covenant outputs
	locked := bid
	locked.Spent = bidOutput(name, commitment)
	_, err = v.Validate(locked, s)
	require.Equal(ErrInvalidTransition, errors.Cause(err))
}

func TestValidateReveal(t *testing.T) {
	require := require.New(t)
	v := NewValidator(_testNames)
	name := []byte("satoshi")
	s := NewNameState(name, 10)

	alice, err := auction.NewBlindBid(name, 100000, 120000)
	require.NoError(err)
	bob, err := auction.NewBlindBid(name, 50000, 60000)
	require.NoError(err)
	carol, err := auction.NewBlindBid(name, 70000, 90000)
	require.NoError(err)

	opAlice := outpoint("reveal-alice", 0)
	s, err = v.Validate(revealTransition(name, 13, alice, opAlice, outpoint("bid-alice", 0)), s)
	require.NoError(err)
	require.Equal(uint64(100000), s.HighestBid)
	require.Zero(s.SecondHighestBid)
	require.Equal(opAlice, s.HighestOutpoint)

	s, err = v.Validate(revealTransition(name, 13, bob, outpoint("reveal-bob", 0), outpoint("bid-bob", 0)), s)
	require.NoError(err)
	require.Equal(uint64(100000), s.HighestBid)
	require.Equal(uint64(50000), s.SecondHighestBid)
	require.Equal(opAlice, s.HighestOutpoint)

	s, err = v.Validate(revealTransition(name, 14, carol, outpoint("reveal-carol", 0), outpoint("bid-carol", 0)), s)
	require.NoError(err)
	require.Equal(uint64(70000), s.SecondHighestBid)
	require.Equal(opAlice, s.HighestOutpoint)
	require.Equal(uint32(3), s.RevealCount)

	// an equal later bid never displaces the holder
	dave, err := auction.NewBlindBid(name, 100000, 100000)
	require.NoError(err)
	s, err = v.Validate(revealTransition(name, 14, dave, outpoint("reveal-dave", 0), outpoint("bid-dave", 0)), s)
	require.NoError(err)
	require.Equal(opAlice, s.HighestOutpoint)
	require.Equal(uint64(100000), s.SecondHighestBid)

	// reveals outside the window are rejected
	_, err = v.Validate(revealTransition(name, 12, alice, opAlice, outpoint("bid-alice", 0)), NewNameState(name, 10))
	require.Equal(ErrPhaseMismatch, errors.Cause(err))

	// the reveal must carry the full lockup forward
	short := revealTransition(name, 13, alice, opAlice, outpoint("bid-alice", 0))
	short.Value = alice.LockupValue - 1
	_, err = v.Validate(short, NewNameState(name, 10))
	require.Equal(ErrInvalidTransition, errors.Cause(err))

	// a forged nonce fails the commitment check
	forged := revealTransition(name, 13, alice, opAlice, outpoint("bid-alice", 0))
	forged.Covenant.Nonce = hash.Hash256b([]byte("forged"))
	_, err = v.Validate(forged, NewNameState(name, 10))
	require.Equal(auction.ErrCommitmentMismatch, errors.Cause(err))

	// a reveal must spend a bid output
	bare := revealTransition(name, 13, alice, opAlice, outpoint("bid-alice", 0))
	bare.Spent = nil
	_, err = v.Validate(bare, NewNameState(name, 10))
	require.Equal(ErrInvalidTransition, errors.Cause(err))
}

func closedState(t *testing.T, name []byte) (*NameState, *auction.BidCommitment, *auction.BidCommitment) {
	require := require.New(t)
	v := NewValidator(_testNames)
	s := NewNameState(name, 10)

	winner, err := auction.NewBlindBid(name, 100000, 120000)
	require.NoError(err)
	loser, err := auction.NewBlindBid(name, 50000, 60000)
	require.NoError(err)

	s, err = v.Validate(revealTransition(name, 13, winner, outpoint("reveal-winner", 0), outpoint("bid-winner", 0)), s)
	require.NoError(err)
	s, err = v.Validate(revealTransition(name, 13, loser, outpoint("reveal-loser", 0), outpoint("bid-loser", 0)), s)
	require.NoError(err)
	return s, winner, loser
}

func TestValidateRegister(t *testing.T) {
	require := require.New(t)
	v := NewValidator(_testNames)
	name := []byte("satoshi")
	s, winner, _ := closedState(t, name)

	register := Transition{
		Covenant: &covenant.Covenant{
			Type:     covenant.Register,
			NameHash: covenant.HashName(name),
			Name:     name,
			Resource: []byte("ns1.example."),
		},
		Height:  15,
		Self:    outpoint("register", 0),
		Value:   auction.SettlePrice(s.HighestBid, s.SecondHighestBid),
		SpentOp: s.HighestOutpoint,
		Spent: &block.Output{
			Value: winner.LockupValue,
			Covenant: covenant.Covenant{
				Type:     covenant.Reveal,
				NameHash: covenant.HashName(name),
				Name:     name,
			},
		},
	}

	next, err := v.Validate(register, s)
	require.NoError(err)
	require.Equal(register.Self, next.Owner)
	require.Equal([]byte("ns1.example."), next.Resource)
	require.Equal(uint64(15+20), next.RenewalHeight)

	// only the winning reveal may register
	fromLoser := register
	fromLoser.SpentOp = outpoint("reveal-loser", 0)
	_, err = v.Validate(fromLoser, s)
	require.Equal(ErrOwnershipViolation, errors.Cause(err))

	// the register output must lock the settlement price: a winner locking
	// nothing and sweeping the whole lockup back as change is rejected
	unpaid := register
	unpaid.Value = 0
	_, err = v.Validate(unpaid, s)
	require.Equal(ErrInvalidTransition, errors.Cause(err))

	// so is locking anything other than the second-highest bid
	overpaid := register
	overpaid.Value = winner.LockupValue
	_, err = v.Validate(overpaid, s)
	require.Equal(ErrInvalidTransition, errors.Cause(err))

	// registering twice is rejected
	_, err = v.Validate(register, next)
	require.Equal(ErrInvalidTransition, errors.Cause(err))

	// register is closed-phase only
	early := register
	early.Height = 14
	_, err = v.Validate(early, s)
	require.Equal(ErrPhaseMismatch, errors.Cause(err))
}

func TestValidateUpdate(t *testing.T) {
	require := require.New(t)
	v := NewValidator(_testNames)
	name := []byte("satoshi")
	s, _, _ := closedState(t, name)
	s.Owner = outpoint("register", 0)
	s.Resource = []byte("old")
	s.RenewalHeight = 100

	update := Transition{
		Covenant: &covenant.Covenant{
			Type:     covenant.Update,
			NameHash: covenant.HashName(name),
			Name:     name,
			Resource: []byte("new"),
		},
		Height:  16,
		Self:    outpoint("update", 0),
		SpentOp: s.Owner,
	}

	next, err := v.Validate(update, s)
	require.NoError(err)
	require.Equal([]byte("new"), next.Resource)
	require.Equal(update.Self, next.Owner)

	// only the owner outpoint may update
	stranger := update
	stranger.SpentOp = outpoint("stranger", 0)
	_, err = v.Validate(stranger, s)
	require.Equal(ErrOwnershipViolation, errors.Cause(err))

	// an unregistered name has nothing to update
	bare, _, _ := closedState(t, name)
	_, err = v.Validate(update, bare)
	require.Equal(ErrInvalidTransition, errors.Cause(err))
}

func TestValidateRedeem(t *testing.T) {
	require := require.New(t)
	v := NewValidator(_testNames)
	name := []byte("satoshi")
	s, _, loser := closedState(t, name)

	redeem := Transition{
		Covenant: &covenant.Covenant{
			Type:     covenant.Redeem,
			NameHash: covenant.HashName(name),
			Name:     name,
		},
		Height:  15,
		Self:    outpoint("redeem", 0),
		Value:   loser.LockupValue,
		SpentOp: outpoint("reveal-loser", 0),
		Spent: &block.Output{
			Value: loser.LockupValue,
			Covenant: covenant.Covenant{
				Type:     covenant.Reveal,
				NameHash: covenant.HashName(name),
				Name:     name,
			},
		},
	}

	next, err := v.Validate(redeem, s)
	require.NoError(err)
	require.Equal(s, next)

	// the winning reveal is claimed through register, not redeem
	winning := redeem
	winning.SpentOp = s.HighestOutpoint
	_, err = v.Validate(winning, s)
	require.Equal(ErrInvalidTransition, errors.Cause(err))
}
