// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/namechain/namechain-core/testutil"
)

var (
	_bucket1 = "ns1"
	_bucket2 = "ns2"

	_k1 = []byte("key_1")
	_k2 = []byte("key_2")
	_k3 = []byte("key_3")
	_v1 = []byte("value_1")
	_v2 = []byte("value_2")
	_v3 = []byte("value_3")
)

func TestKVStorePutGet(t *testing.T) {
	testFunc := func(kv KVStore, t *testing.T) {
		require := require.New(t)
		ctx := context.Background()
		require.NoError(kv.Start(ctx))
		defer func() {
			require.NoError(kv.Stop(ctx))
		}()

		_, err := kv.Get(_bucket1, _k1)
		require.Error(err)

		require.NoError(kv.Put(_bucket1, _k1, _v1))
		value, err := kv.Get(_bucket1, _k1)
		require.NoError(err)
		require.Equal(_v1, value)

		// same key in a different namespace is independent
		_, err = kv.Get(_bucket2, _k1)
		require.Error(err)
		require.NoError(kv.Put(_bucket2, _k1, _v2))
		value, err = kv.Get(_bucket2, _k1)
		require.NoError(err)
		require.Equal(_v2, value)

		require.NoError(kv.Put(_bucket1, _k1, _v3))
		value, err = kv.Get(_bucket1, _k1)
		require.NoError(err)
		require.Equal(_v3, value)

		require.NoError(kv.Delete(_bucket1, _k1))
		_, err = kv.Get(_bucket1, _k1)
		require.Equal(ErrNotExist, errors.Cause(err))
	}

	t.Run("In-memory KV store", func(t *testing.T) {
		testFunc(NewMemKVStore(), t)
	})
	t.Run("Bolt KV store", func(t *testing.T) {
		path, err := testutil.PathOfTempFile("test-kv-store")
		require.NoError(t, err)
		defer testutil.CleanupPath(t, path)
		cfg := DefaultConfig
		cfg.DbPath = path
		testFunc(NewBoltDB(cfg), t)
	})
}

func TestKVStoreCommit(t *testing.T) {
	testFunc := func(kv KVStore, t *testing.T) {
		require := require.New(t)
		ctx := context.Background()
		require.NoError(kv.Start(ctx))
		defer func() {
			require.NoError(kv.Stop(ctx))
		}()

		b := NewBatch()
		b.Put(_bucket1, _k1, _v1, "failed to put %x", _k1)
		b.Put(_bucket1, _k2, _v2, "failed to put %x", _k2)
		b.Delete(_bucket1, _k3, "failed to delete %x", _k3)
		require.Equal(3, b.Size())

		require.NoError(kv.Commit(b))
		// a committed batch is cleared for reuse
		require.Zero(b.Size())

		value, err := kv.Get(_bucket1, _k1)
		require.NoError(err)
		require.Equal(_v1, value)
		value, err = kv.Get(_bucket1, _k2)
		require.NoError(err)
		require.Equal(_v2, value)
	}

	t.Run("In-memory KV store", func(t *testing.T) {
		testFunc(NewMemKVStore(), t)
	})
	t.Run("Bolt KV store", func(t *testing.T) {
		path, err := testutil.PathOfTempFile("test-kv-commit")
		require.NoError(t, err)
		defer testutil.CleanupPath(t, path)
		cfg := DefaultConfig
		cfg.DbPath = path
		testFunc(NewBoltDB(cfg), t)
	})
}

func TestBatchIterateUnderLock(t *testing.T) {
	require := require.New(t)
	b := NewBatch()
	b.Put(_bucket1, _k1, _v1, "failed to put %x", _k1)
	b.Delete(_bucket1, _k2, "failed to delete %x", _k2)

	// a committing store walks the batch inside its own Lock scope; Size and
	// Entry are usable there
	b.Lock()
	require.Equal(2, b.Size())
	write, err := b.Entry(0)
	require.NoError(err)
	require.Equal(Put, write.writeType)
	require.Equal(_k1, write.key)
	write, err = b.Entry(1)
	require.NoError(err)
	require.Equal(Delete, write.writeType)
	_, err = b.Entry(2)
	require.Equal(ErrInvalid, errors.Cause(err))
	b.ClearAndUnlock()
	require.Zero(b.Size())
}

func TestKVStoreFilter(t *testing.T) {
	testFunc := func(kv KVStore, t *testing.T) {
		require := require.New(t)
		ctx := context.Background()
		require.NoError(kv.Start(ctx))
		defer func() {
			require.NoError(kv.Stop(ctx))
		}()

		require.NoError(kv.Put(_bucket1, []byte("aa1"), _v1))
		require.NoError(kv.Put(_bucket1, []byte("aa2"), _v2))
		require.NoError(kv.Put(_bucket1, []byte("bb1"), _v3))

		keys, values, err := kv.Filter(_bucket1, []byte("aa"))
		require.NoError(err)
		require.Equal([][]byte{[]byte("aa1"), []byte("aa2")}, keys)
		require.Equal([][]byte{_v1, _v2}, values)

		// nil prefix scans the whole namespace in key order
		keys, _, err = kv.Filter(_bucket1, nil)
		require.NoError(err)
		require.Len(keys, 3)
		require.Equal([]byte("aa1"), keys[0])
		require.Equal([]byte("bb1"), keys[2])
	}

	t.Run("In-memory KV store", func(t *testing.T) {
		testFunc(NewMemKVStore(), t)
	})
	t.Run("Bolt KV store", func(t *testing.T) {
		path, err := testutil.PathOfTempFile("test-kv-filter")
		require.NoError(t, err)
		defer testutil.CleanupPath(t, path)
		cfg := DefaultConfig
		cfg.DbPath = path
		testFunc(NewBoltDB(cfg), t)
	})
}

func TestBoltDBPersistence(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	path, err := testutil.PathOfTempFile("test-kv-persist")
	require.NoError(err)
	defer testutil.CleanupPath(t, path)
	cfg := DefaultConfig
	cfg.DbPath = path

	kv := NewBoltDB(cfg)
	require.NoError(kv.Start(ctx))
	require.NoError(kv.Put(_bucket1, _k1, _v1))
	require.NoError(kv.Stop(ctx))

	// access after stop is rejected
	_, err = kv.Get(_bucket1, _k1)
	require.Equal(ErrDBNotStarted, errors.Cause(err))

	kv = NewBoltDB(cfg)
	require.NoError(kv.Start(ctx))
	defer func() {
		require.NoError(kv.Stop(ctx))
	}()
	value, err := kv.Get(_bucket1, _k1)
	require.NoError(err)
	require.Equal(_v1, value)
}

func TestKVStoreWithCache(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	kv := NewKVStoreWithCache(NewMemKVStore(), 16)
	require.NoError(kv.Start(ctx))
	defer func() {
		require.NoError(kv.Stop(ctx))
	}()

	require.NoError(kv.Put(_bucket1, _k1, _v1))
	value, err := kv.Get(_bucket1, _k1)
	require.NoError(err)
	require.Equal(_v1, value)
	// cached read after the first miss
	value, err = kv.Get(_bucket1, _k1)
	require.NoError(err)
	require.Equal(_v1, value)

	// a batch write through the cache evicts the touched key
	b := NewBatch()
	b.Put(_bucket1, _k1, _v2, "failed to put %x", _k1)
	require.NoError(kv.Commit(b))
	value, err = kv.Get(_bucket1, _k1)
	require.NoError(err)
	require.Equal(_v2, value)

	require.NoError(kv.Delete(_bucket1, _k1))
	_, err = kv.Get(_bucket1, _k1)
	require.Error(err)
}
