// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package unit defines the token denominations. All on-chain values, covenant
// lockups included, are carried in Dust, the smallest unit.
package unit

const (
	// Dust is the smallest unit
	Dust uint64 = 1
	// MilliCoin is 1/1000 of a whole coin
	MilliCoin = 1000 * Dust
	// Coin is one whole coin
	Coin = 1000 * MilliCoin
)

// FromCoins converts a whole-coin amount into Dust
func FromCoins(coins uint64) uint64 {
	return coins * Coin
}
