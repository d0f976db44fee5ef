// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package config

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	require := require.New(t)
	cfg, err := New()
	require.NoError(err)
	require.Equal(Default.Chain.Names, cfg.Chain.Names)
	require.Equal(Default.MemPool.MaxTxs, cfg.MemPool.MaxTxs)
	require.Equal(Default.DB.NumRetries, cfg.DB.NumRetries)
}

func TestNewConfigWithOverride(t *testing.T) {
	require := require.New(t)
	file, err := os.CreateTemp(os.TempDir(), "config-*.yaml")
	require.NoError(err)
	defer os.Remove(file.Name())
	_, err = file.WriteString(`
chain:
  id: 2
  blockReward: 1000
  names:
    treeInterval: 1
    biddingPeriod: 2
    revealPeriod: 2
`)
	require.NoError(err)
	require.NoError(file.Close())

	cfg, err := New(file.Name())
	require.NoError(err)
	require.Equal(uint32(2), cfg.Chain.ID)
	require.Equal(uint64(1000), cfg.Chain.BlockReward)
	require.Equal(uint64(1), cfg.Chain.Names.TreeInterval)
	// untouched sections keep their defaults
	require.Equal(Default.Chain.Names.RenewalWindow, cfg.Chain.Names.RenewalWindow)
	require.Equal(Default.MemPool.MaxTxs, cfg.MemPool.MaxTxs)
}

func TestValidates(t *testing.T) {
	require := require.New(t)

	cfg := Default
	cfg.Chain.Names.TreeInterval = 0
	require.Equal(ErrInvalidCfg, errors.Cause(ValidateNames(cfg)))

	cfg = Default
	cfg.MemPool.MaxTxs = 0
	require.Equal(ErrInvalidCfg, errors.Cause(ValidateMemPool(cfg)))

	require.NoError(ValidateNames(Default))
	require.NoError(ValidateMemPool(Default))
}
