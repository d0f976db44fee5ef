// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package auction

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestNewBlindBid(t *testing.T) {
	require := require.New(t)

	name := []byte("satoshi")
	b, err := NewBlindBid(name, 50000, 80000)
	require.NoError(err)
	require.Equal(uint64(30000), b.Blind)
	require.Equal(Commit(name, 50000, b.Nonce), b.Commitment)
	require.False(b.Commitment.IsZero())

	// the lockup must cover the bid
	_, err = NewBlindBid(name, 80001, 80000)
	require.Equal(ErrInvalidBidValue, errors.Cause(err))

	// two bids of the same value commit differently
	b2, err := NewBlindBid(name, 50000, 80000)
	require.NoError(err)
	require.NotEqual(b.Commitment, b2.Commitment)
}

func TestVerifyReveal(t *testing.T) {
	require := require.New(t)

	name := []byte("satoshi")
	b, err := NewBlindBid(name, 50000, 80000)
	require.NoError(err)

	require.NoError(VerifyReveal(name, b.BidValue, b.Nonce, b.LockupValue, b.Commitment))

	// any mutation of the disclosed values must fail the exact-match check
	err = VerifyReveal(name, b.BidValue+1, b.Nonce, b.LockupValue, b.Commitment)
	require.Equal(ErrCommitmentMismatch, errors.Cause(err))
	err = VerifyReveal([]byte("nakamoto"), b.BidValue, b.Nonce, b.LockupValue, b.Commitment)
	require.Equal(ErrCommitmentMismatch, errors.Cause(err))
	var wrongNonce [32]byte
	err = VerifyReveal(name, b.BidValue, wrongNonce, b.LockupValue, b.Commitment)
	require.Equal(ErrCommitmentMismatch, errors.Cause(err))
	// disclosing a bid above the lockup is rejected before hashing
	err = VerifyReveal(name, b.LockupValue+1, b.Nonce, b.LockupValue, b.Commitment)
	require.Equal(ErrCommitmentMismatch, errors.Cause(err))
}

func TestOpen(t *testing.T) {
	require := require.New(t)

	b, err := NewBlindBid([]byte("satoshi"), 50000, 80000)
	require.NoError(err)
	bid, blind, err := b.Open(b.Commitment)
	require.NoError(err)
	require.Equal(uint64(50000), bid)
	require.Equal(uint64(30000), blind)

	other, err := NewBlindBid([]byte("satoshi"), 50000, 80000)
	require.NoError(err)
	_, _, err = b.Open(other.Commitment)
	require.Equal(ErrCommitmentMismatch, errors.Cause(err))
}

func TestSettlePrice(t *testing.T) {
	require := require.New(t)

	// winner bids 100000 against a runner-up of 50000: pays 50000, keeps 50000
	require.Equal(uint64(50000), SettlePrice(100000, 50000))
	require.Equal(uint64(50000), ExcessOf(100000, 50000))

	// a single reveal pays nothing
	require.Equal(uint64(0), SettlePrice(100000, 0))
	require.Equal(uint64(100000), ExcessOf(100000, 0))

	// the price never exceeds the winning bid
	require.Equal(uint64(70000), SettlePrice(70000, 90000))
}

func TestBidCommitmentSerialize(t *testing.T) {
	require := require.New(t)

	b, err := NewBlindBid([]byte("satoshi"), 50000, 80000)
	require.NoError(err)
	raw, err := b.Serialize()
	require.NoError(err)
	got := &BidCommitment{}
	require.NoError(got.Deserialize(raw))
	require.Equal(b, got)
}
