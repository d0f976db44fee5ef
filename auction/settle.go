// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package auction

// SettlePrice returns the amount the winner actually pays once the reveal
// window closes: the second-highest revealed value. A lone revealed bid pays
// the protocol floor of zero.
func SettlePrice(highestBid, secondHighestBid uint64) uint64 {
	if secondHighestBid > highestBid {
		return highestBid
	}
	return secondHighestBid
}

// ExcessOf returns the refundable portion of a revealed bid given the final
// second-highest price. For the winner this is the slice above the price paid;
// for losers the full bid value comes back through REDEEM.
func ExcessOf(bidValue, secondHighest uint64) uint64 {
	if bidValue <= secondHighest {
		return 0
	}
	return bidValue - secondHighest
}
