// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"encoding/gob"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/namechain/namechain-core/blockchain/block"
	"github.com/namechain/namechain-core/covenant"
	"github.com/namechain/namechain-core/pkg/util/byteutil"
)

// AccountCoin is one spendable (or covenant-locked) output credited to an
// account. Coins move through three stages: unconfirmed (seen in the pool),
// confirmed (seen in a block) and spent (input confirmed, at which point the
// coin is deleted). A reservation pins a confirmed coin to an in-flight
// transaction so concurrent builders never double select it.
type AccountCoin struct {
	AccountIndex uint32
	Outpoint     block.Outpoint
	Value        uint64
	Covenant     covenant.Type
	NameHash     []byte
	Height       uint64
	Coinbase     bool
	Confirmed    bool

	// ReservedBy is nil for a free coin. It is volatile state and is never
	// persisted, a restart or rescan drops all reservations.
	ReservedBy *uuid.UUID
}

type coinDisk struct {
	AccountIndex uint32
	Outpoint     block.Outpoint
	Value        uint64
	Covenant     covenant.Type
	NameHash     []byte
	Height       uint64
	Coinbase     bool
	Confirmed    bool
}

// coinKey is accountIndex ‖ txHash ‖ outputIndex, which groups a prefix scan
// per account.
func coinKey(accountIndex uint32, op block.Outpoint) []byte {
	key := byteutil.Uint32ToBytesBigEndian(accountIndex)
	return append(key, op.Bytes()...)
}

// Serialize serializes the coin's durable fields
func (c *AccountCoin) Serialize() ([]byte, error) {
	disk := coinDisk{
		AccountIndex: c.AccountIndex,
		Outpoint:     c.Outpoint,
		Value:        c.Value,
		Covenant:     c.Covenant,
		NameHash:     c.NameHash,
		Height:       c.Height,
		Coinbase:     c.Coinbase,
		Confirmed:    c.Confirmed,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&disk); err != nil {
		return nil, errors.Wrap(err, "failed to encode account coin")
	}
	return buf.Bytes(), nil
}

// Deserialize deserializes bytes into the coin
func (c *AccountCoin) Deserialize(data []byte) error {
	var disk coinDisk
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&disk); err != nil {
		return errors.Wrap(err, "failed to decode account coin")
	}
	*c = AccountCoin{
		AccountIndex: disk.AccountIndex,
		Outpoint:     disk.Outpoint,
		Value:        disk.Value,
		Covenant:     disk.Covenant,
		NameHash:     disk.NameHash,
		Height:       disk.Height,
		Coinbase:     disk.Coinbase,
		Confirmed:    disk.Confirmed,
	}
	return nil
}

// spendable reports whether the coin can fund a new transaction at the given
// tip height. Covenant-locked coins are spent through their own dedicated
// flows and never through plain coin selection.
func (c *AccountCoin) spendable(tipHeight uint64, maturity uint64) bool {
	if !c.Confirmed || c.ReservedBy != nil || c.Covenant != covenant.None {
		return false
	}
	if c.Coinbase && tipHeight < c.Height+maturity {
		return false
	}
	return true
}
