// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package mempool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/namechain/namechain-core/blockchain/block"
	"github.com/namechain/namechain-core/config"
	"github.com/namechain/namechain-core/pkg/hash"
	"github.com/namechain/namechain-core/test/mock/mock_blockchain"
)

var _testPoolCfg = config.MemPool{
	MaxTxs:              2,
	RebroadcastInterval: time.Minute,
}

func testTx(seed string) *block.Transaction {
	return &block.Transaction{
		Inputs: []block.Input{
			{PrevOutpoint: block.Outpoint{TxHash: hash.Hash256b([]byte(seed))}},
		},
		Outputs: []block.Output{
			{Value: 100, Address: "addr_" + seed},
		},
	}
}

type countingSubscriber struct {
	mutex sync.Mutex
	seen  []hash.Hash256
}

func (c *countingSubscriber) HandleTx(tx *block.Transaction) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.seen = append(c.seen, tx.Hash())
}

func (c *countingSubscriber) count() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.seen)
}

func (c *countingSubscriber) last() hash.Hash256 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.seen[len(c.seen)-1]
}

func TestSubmit(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	bc := mock_blockchain.NewMockBlockchain(ctrl)
	bc.EXPECT().ValidateTx(gomock.Any()).Return(nil).AnyTimes()

	m := NewMemPool(_testPoolCfg, bc)
	sub := &countingSubscriber{}
	m.AddSubscriber(sub)

	tx1 := testTx("tx1")
	require.NoError(m.Submit(tx1))
	require.True(m.Has(tx1.Hash()))
	require.Equal(1, sub.count())

	// duplicates bounce
	err := m.Submit(tx1)
	require.Equal(ErrTxExists, errors.Cause(err))
	require.Equal(1, sub.count())

	tx2 := testTx("tx2")
	require.NoError(m.Submit(tx2))

	// the pool is at capacity
	err = m.Submit(testTx("tx3"))
	require.Equal(ErrPoolFull, errors.Cause(err))

	require.Equal([]*block.Transaction{tx1, tx2}, m.PendingTxs())
	m.RemoveAll()
	require.Empty(m.PendingTxs())
	require.False(m.Has(tx1.Hash()))
}

func TestSubmitRejected(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	bc := mock_blockchain.NewMockBlockchain(ctrl)
	bad := errors.New("covenant rejected")
	bc.EXPECT().ValidateTx(gomock.Any()).Return(bad).Times(1)

	m := NewMemPool(_testPoolCfg, bc)
	err := m.Submit(testTx("tx1"))
	require.Equal(bad, errors.Cause(err))
	require.Empty(m.PendingTxs())
}

func TestMute(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	bc := mock_blockchain.NewMockBlockchain(ctrl)
	bc.EXPECT().ValidateTx(gomock.Any()).Return(nil).AnyTimes()

	m := NewMemPool(_testPoolCfg, bc)
	sub := &countingSubscriber{}
	m.AddSubscriber(sub)

	m.Mute()
	require.NoError(m.Submit(testTx("tx1")))
	require.Zero(sub.count())

	// muting only suppresses notifications, the pool still accepts
	require.Len(m.PendingTxs(), 1)

	m.Unmute()
	require.NoError(m.Submit(testTx("tx2")))
	require.Equal(1, sub.count())
}

func TestRebroadcast(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	bc := mock_blockchain.NewMockBlockchain(ctrl)
	bc.EXPECT().ValidateTx(gomock.Any()).Return(nil).AnyTimes()

	mck := clock.NewMock()
	m := NewMemPool(_testPoolCfg, bc, WithClock(mck))
	sub := &countingSubscriber{}
	m.AddSubscriber(sub)

	require.NoError(m.Start(context.Background()))
	defer func() {
		require.NoError(m.Stop(context.Background()))
	}()

	tx := testTx("tx1")
	require.NoError(m.Submit(tx))
	require.Equal(1, sub.count())

	mck.Add(2 * time.Minute)
	// the recurring task runs on its own goroutine
	require.Eventually(func() bool {
		return sub.count() >= 2
	}, time.Second, 10*time.Millisecond)
	require.Equal(tx.Hash(), sub.last())
}

func TestRemove(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	bc := mock_blockchain.NewMockBlockchain(ctrl)
	bc.EXPECT().ValidateTx(gomock.Any()).Return(nil).AnyTimes()

	mck := clock.NewMock()
	m := NewMemPool(_testPoolCfg, bc, WithClock(mck))
	sub := &countingSubscriber{}
	m.AddSubscriber(sub)

	require.NoError(m.Start(context.Background()))
	defer func() {
		require.NoError(m.Stop(context.Background()))
	}()

	tx1 := testTx("tx1")
	tx2 := testTx("tx2")
	require.NoError(m.Submit(tx1))
	require.NoError(m.Submit(tx2))
	require.Equal(2, sub.count())

	m.Remove(tx1.Hash())
	require.False(m.Has(tx1.Hash()))
	require.Equal([]*block.Transaction{tx2}, m.PendingTxs())

	// removing an unknown hash is a no-op
	m.Remove(tx1.Hash())
	require.Equal([]*block.Transaction{tx2}, m.PendingTxs())

	// a removed transaction is not rebroadcast
	mck.Add(2 * time.Minute)
	require.Eventually(func() bool {
		return sub.count() >= 3
	}, time.Second, 10*time.Millisecond)
	require.Equal(tx2.Hash(), sub.last())

	// the freed slot can be taken again at capacity
	require.NoError(m.Submit(testTx("tx3")))
}

func TestHandleBlock(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	bc := mock_blockchain.NewMockBlockchain(ctrl)
	bc.EXPECT().ValidateTx(gomock.Any()).Return(nil).AnyTimes()

	m := NewMemPool(_testPoolCfg, bc)
	tx1 := testTx("tx1")
	tx2 := testTx("tx2")
	require.NoError(m.Submit(tx1))
	require.NoError(m.Submit(tx2))

	sub := m.(interface{ HandleBlock(*block.Block) error })
	require.NoError(sub.HandleBlock(&block.Block{Height: 1, Txs: []*block.Transaction{tx1}}))

	require.False(m.Has(tx1.Hash()))
	require.True(m.Has(tx2.Hash()))
	require.Equal([]*block.Transaction{tx2}, m.PendingTxs())
}
