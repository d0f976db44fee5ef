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

	"github.com/namechain/namechain-core/db"
)

func TestRegistryStateRoundtrip(t *testing.T) {
	require := require.New(t)
	kv := db.NewMemKVStore()
	r, err := NewRegistry(kv, _testNames)
	require.NoError(err)
	name := []byte("satoshi")

	_, err = r.GetState(name)
	require.Equal(ErrNameNotExist, errors.Cause(err))

	s, err := r.ApplyCovenant(openTransition(name, 10))
	require.NoError(err)

	// nothing is visible until staged and refreshed
	_, err = r.GetState(name)
	require.Equal(ErrNameNotExist, errors.Cause(err))

	b := db.NewBatch()
	require.NoError(r.StageState(b, s))
	require.NoError(kv.Commit(b))
	r.Refresh([]*NameState{s})

	got, err := r.GetState(name)
	require.NoError(err)
	require.Equal(s, got)

	// reads hand out clones, mutating one does not poison the cache
	got.HighestBid = 42
	again, err := r.GetState(name)
	require.NoError(err)
	require.Zero(again.HighestBid)

	// a fresh registry over the same store reads the persisted state
	r2, err := NewRegistry(kv, _testNames)
	require.NoError(err)
	fromDisk, err := r2.GetState(name)
	require.NoError(err)
	require.Equal(s, fromDisk)
}
