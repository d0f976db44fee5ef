// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package wallet

import (
	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"

	"github.com/namechain/namechain-core/pkg/hash"
	"github.com/namechain/namechain-core/pkg/util/byteutil"
)

// DefaultAccountName is the name of the account every wallet starts with
const DefaultAccountName = "default"

// address version byte of the network
const _addressVersion = 0x4e

var (
	// ErrAccountNotExist indicates the referenced account does not exist
	ErrAccountNotExist = errors.New("account does not exist in wallet")
	// ErrAccountExists indicates an account name collision on creation
	ErrAccountExists = errors.New("account already exists in wallet")
)

// Account is an isolated namespace of keys and coins inside a wallet.
// Accounts are created explicitly, persist for the wallet's lifetime and are
// never merged.
type Account struct {
	Index   uint32
	Name    string
	Address string
}

// deriveAddress derives the base58check address of an account from the wallet
// seed. Real key derivation lives outside this core; the address only needs
// to be unique per (wallet, account).
func deriveAddress(seed hash.Hash256, index uint32) string {
	stream := append(seed[:], byteutil.Uint32ToBytesBigEndian(index)...)
	pkh := hash.Hash160b(stream)
	return base58.CheckEncode(pkh[:], _addressVersion)
}
