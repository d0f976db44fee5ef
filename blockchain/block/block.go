// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package block defines the chain primitives: outpoints, transactions and
// blocks. Serialization is deterministic; the transaction hash is the blake2b
// hash of the serialized transaction.
package block

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"

	"github.com/namechain/namechain-core/covenant"
	"github.com/namechain/namechain-core/pkg/hash"
	"github.com/namechain/namechain-core/pkg/util/byteutil"
)

// OutpointSize is the byte size of a serialized outpoint
const OutpointSize = hash.HashSize + 4

// Outpoint references a specific transaction output, the unit of coin ownership
type Outpoint struct {
	TxHash hash.Hash256
	Index  uint32
}

// Bytes returns the serialized outpoint
func (o Outpoint) Bytes() []byte {
	b := make([]byte, 0, OutpointSize)
	b = append(b, o.TxHash[:]...)
	return append(b, byteutil.Uint32ToBytesBigEndian(o.Index)...)
}

// IsZero returns whether the outpoint is unset
func (o Outpoint) IsZero() bool {
	return o.TxHash.IsZero() && o.Index == 0
}

// OutpointFromBytes parses an outpoint from its serialized form
func OutpointFromBytes(b []byte) (Outpoint, error) {
	if len(b) != OutpointSize {
		return Outpoint{}, errors.Errorf("invalid outpoint length = %d", len(b))
	}
	var o Outpoint
	copy(o.TxHash[:], b[:hash.HashSize])
	o.Index = byteutil.BytesToUint32BigEndian(b[hash.HashSize:])
	return o, nil
}

// Input spends a previous output
type Input struct {
	PrevOutpoint Outpoint
	Witness      []byte
}

// Output carries a value to an address, optionally constrained by a covenant
type Output struct {
	Value    uint64
	Address  string
	Covenant covenant.Covenant
}

// Transaction is an ordered list of inputs and outputs
type Transaction struct {
	Inputs  []Input
	Outputs []Output
}

// Coinbase returns whether the transaction mints the block reward: a single
// input spending the zero outpoint.
func (tx *Transaction) Coinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PrevOutpoint.IsZero()
}

// NewCoinbase creates the reward-minting transaction of a block. The height
// rides in the witness so coinbase hashes never collide across blocks.
func NewCoinbase(address string, reward, height uint64) *Transaction {
	return &Transaction{
		Inputs: []Input{{
			PrevOutpoint: Outpoint{},
			Witness:      byteutil.Uint64ToBytesBigEndian(height),
		}},
		Outputs: []Output{{
			Value:   reward,
			Address: address,
		}},
	}
}

// Serialize serializes the transaction into deterministic bytes
func (tx *Transaction) Serialize() []byte {
	var b bytes.Buffer
	b.Write(byteutil.Uint32ToBytesBigEndian(uint32(len(tx.Inputs))))
	for _, in := range tx.Inputs {
		b.Write(in.PrevOutpoint.Bytes())
		b.Write(byteutil.Uint32ToBytesBigEndian(uint32(len(in.Witness))))
		b.Write(in.Witness)
	}
	b.Write(byteutil.Uint32ToBytesBigEndian(uint32(len(tx.Outputs))))
	for _, out := range tx.Outputs {
		b.Write(byteutil.Uint64ToBytesBigEndian(out.Value))
		b.Write(byteutil.Uint32ToBytesBigEndian(uint32(len(out.Address))))
		b.WriteString(out.Address)
		cov := out.Covenant.Serialize()
		b.Write(byteutil.Uint32ToBytesBigEndian(uint32(len(cov))))
		b.Write(cov)
	}
	return b.Bytes()
}

// Hash returns the blake2b hash of the serialized transaction
func (tx *Transaction) Hash() hash.Hash256 {
	return hash.Hash256b(tx.Serialize())
}

// OutPoint returns the outpoint of the i-th output
func (tx *Transaction) OutPoint(i uint32) Outpoint {
	return Outpoint{TxHash: tx.Hash(), Index: i}
}

// Block is an ordered list of transactions at a height. Transaction order is
// consensus-critical: covenant transitions for the same name apply in it.
type Block struct {
	Height    uint64
	PrevHash  hash.Hash256
	Timestamp int64
	Txs       []*Transaction
}

// Hash returns the blake2b hash of the block header fields and tx hashes
func (b *Block) Hash() hash.Hash256 {
	var buf bytes.Buffer
	buf.Write(byteutil.Uint64ToBytesBigEndian(b.Height))
	buf.Write(b.PrevHash[:])
	buf.Write(byteutil.Uint64ToBytesBigEndian(uint64(b.Timestamp)))
	for _, tx := range b.Txs {
		h := tx.Hash()
		buf.Write(h[:])
	}
	return hash.Hash256b(buf.Bytes())
}

// Serialize serializes the block for storage
func (b *Block) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, errors.Wrap(err, "failed to encode block")
	}
	return buf.Bytes(), nil
}

// Deserialize parses a stored block
func (b *Block) Deserialize(data []byte) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(b); err != nil {
		return errors.Wrap(err, "failed to decode block")
	}
	return nil
}
