// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/namechain/namechain-core/pkg/hash"
)

func TestOutpoint(t *testing.T) {
	require := require.New(t)
	op := Outpoint{TxHash: hash.Hash256b([]byte("tx")), Index: 3}
	require.False(op.IsZero())
	require.True(Outpoint{}.IsZero())

	parsed, err := OutpointFromBytes(op.Bytes())
	require.NoError(err)
	require.Equal(op, parsed)
	_, err = OutpointFromBytes(op.Bytes()[:OutpointSize-1])
	require.Error(err)
}

func TestCoinbase(t *testing.T) {
	require := require.New(t)
	cb := NewCoinbase("miner", 2000, 7)
	require.True(cb.Coinbase())
	require.Equal(uint64(2000), cb.Outputs[0].Value)

	// same reward and address at a different height hashes differently
	require.NotEqual(cb.Hash(), NewCoinbase("miner", 2000, 8).Hash())

	spend := &Transaction{
		Inputs:  []Input{{PrevOutpoint: cb.OutPoint(0)}},
		Outputs: []Output{{Value: 2000, Address: "alice"}},
	}
	require.False(spend.Coinbase())
	require.Equal(cb.Hash(), spend.Inputs[0].PrevOutpoint.TxHash)
}

func TestBlockHashAndSerialize(t *testing.T) {
	require := require.New(t)
	blk := &Block{
		Height:    1,
		PrevHash:  hash.Hash256b([]byte("genesis")),
		Timestamp: 1700000000,
		Txs:       []*Transaction{NewCoinbase("miner", 2000, 1)},
	}

	// hash commits to the tx set
	h := blk.Hash()
	blk2 := &Block{Height: blk.Height, PrevHash: blk.PrevHash, Timestamp: blk.Timestamp}
	require.NotEqual(h, blk2.Hash())

	raw, err := blk.Serialize()
	require.NoError(err)
	restored := &Block{}
	require.NoError(restored.Deserialize(raw))
	require.Equal(h, restored.Hash())
	require.Len(restored.Txs, 1)
	require.True(restored.Txs[0].Coinbase())
}
