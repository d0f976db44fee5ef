// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package auction implements the blind-bid commitment scheme and the
// second-price settlement arithmetic. A bid locks lockupValue coins on-chain
// while the true bid value stays hidden behind the commitment hash until
// reveal; only the upper bound (the lockup) leaks.
package auction

import (
	"bytes"
	"crypto/rand"
	"encoding/gob"

	"github.com/pkg/errors"

	"github.com/namechain/namechain-core/pkg/hash"
	"github.com/namechain/namechain-core/pkg/util/byteutil"
)

var (
	// ErrInvalidBidValue indicates the lockup does not cover the bid value
	ErrInvalidBidValue = errors.New("lockup value is less than bid value")
	// ErrCommitmentMismatch indicates a reveal does not match its bid commitment
	ErrCommitmentMismatch = errors.New("reveal does not match bid commitment")
)

// BidCommitment is the client-side record of one blind bid. It is persisted
// by the wallet from BID construction until reveal or abandonment.
type BidCommitment struct {
	Name        []byte
	BidValue    uint64
	LockupValue uint64
	Blind       uint64 // LockupValue - BidValue, the obscuring pad
	Nonce       hash.Hash256
	Commitment  hash.Hash256
}

// NewBlindBid builds a commitment for bidding bidValue on name while locking
// lockupValue on-chain. The lockup must cover at least the bid; the excess is
// the blind that hides the true value from observers.
func NewBlindBid(name []byte, bidValue, lockupValue uint64) (*BidCommitment, error) {
	if lockupValue < bidValue {
		return nil, errors.Wrapf(ErrInvalidBidValue, "lockup = %d, bid = %d", lockupValue, bidValue)
	}
	var nonce hash.Hash256
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, errors.Wrap(err, "failed to draw blinding nonce")
	}
	return &BidCommitment{
		Name:        name,
		BidValue:    bidValue,
		LockupValue: lockupValue,
		Blind:       lockupValue - bidValue,
		Nonce:       nonce,
		Commitment:  Commit(name, bidValue, nonce),
	}, nil
}

// Commit computes the commitment hash binding the name, the bid value and the
// blinding nonce. Binding the name prevents cross-name replay; the nonce
// prevents brute-forcing the bid value from the public lockup.
func Commit(name []byte, bidValue uint64, nonce hash.Hash256) hash.Hash256 {
	stream := make([]byte, 0, len(name)+8+hash.HashSize)
	stream = append(stream, name...)
	stream = append(stream, byteutil.Uint64ToBytesBigEndian(bidValue)...)
	stream = append(stream, nonce[:]...)
	return hash.Hash256b(stream)
}

// VerifyReveal recomputes the commitment from the disclosed bid value and
// nonce and requires exact equality with the stored hash, plus the lockup to
// cover the bid. Anything short of an exact match fails.
func VerifyReveal(name []byte, bidValue uint64, nonce hash.Hash256, lockupValue uint64, stored hash.Hash256) error {
	if lockupValue < bidValue {
		return errors.Wrapf(ErrCommitmentMismatch, "bid = %d exceeds lockup = %d", bidValue, lockupValue)
	}
	if Commit(name, bidValue, nonce) != stored {
		return errors.Wrapf(ErrCommitmentMismatch, "name = %s", name)
	}
	return nil
}

// Open checks the commitment against the hash stored in the BID output and
// returns the disclosed values. The blind must be consistent with the lockup.
func (b *BidCommitment) Open(stored hash.Hash256) (bidValue uint64, blind uint64, err error) {
	if b.LockupValue-b.BidValue != b.Blind {
		return 0, 0, errors.Wrapf(ErrCommitmentMismatch, "blind = %d inconsistent with lockup", b.Blind)
	}
	if err := VerifyReveal(b.Name, b.BidValue, b.Nonce, b.LockupValue, stored); err != nil {
		return 0, 0, err
	}
	return b.BidValue, b.Blind, nil
}

// Serialize serializes the commitment for wallet storage
func (b *BidCommitment) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, errors.Wrap(err, "failed to encode bid commitment")
	}
	return buf.Bytes(), nil
}

// Deserialize parses a stored commitment
func (b *BidCommitment) Deserialize(data []byte) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(b); err != nil {
		return errors.Wrap(err, "failed to decode bid commitment")
	}
	return nil
}
