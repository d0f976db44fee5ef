// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package covenant defines the closed set of name covenants carried on
// transaction outputs. A covenant constrains how an output may be spent and
// which name-state transition that spend corresponds to.
package covenant

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/namechain/namechain-core/pkg/hash"
	"github.com/namechain/namechain-core/pkg/util/byteutil"
)

// Type is the covenant tag. The set is closed: the validator switches over
// every tag, so adding one is a compile-time-checked exercise.
type Type uint8

// Covenant tags
const (
	None Type = iota
	Claim
	Open
	Bid
	Reveal
	Redeem
	Register
	Update
	Renew
	Transfer
	Finalize
	Revoke
)

// String returns the human-readable tag name
func (t Type) String() string {
	switch t {
	case None:
		return "NONE"
	case Claim:
		return "CLAIM"
	case Open:
		return "OPEN"
	case Bid:
		return "BID"
	case Reveal:
		return "REVEAL"
	case Redeem:
		return "REDEEM"
	case Register:
		return "REGISTER"
	case Update:
		return "UPDATE"
	case Renew:
		return "RENEW"
	case Transfer:
		return "TRANSFER"
	case Finalize:
		return "FINALIZE"
	case Revoke:
		return "REVOKE"
	default:
		return "UNKNOWN"
	}
}

const (
	// MaxNameLength is the max number of characters in a name
	MaxNameLength = 63
	// MaxResourceLength is the max byte size of a name's resource record
	MaxResourceLength = 512
)

// ErrInvalidName indicates the name violates length or character constraints
var ErrInvalidName = errors.New("invalid name")

// Covenant is the per-output name covenant. Only the fields relevant to its
// tag are populated; Serialize writes a deterministic byte layout shared by
// hashing and storage.
type Covenant struct {
	Type       Type
	NameHash   hash.Hash256
	Name       []byte
	Height     uint64       // open height the covenant binds to
	Commitment hash.Hash256 // BID: blind commitment hash
	BidValue   uint64       // REVEAL: disclosed bid value
	Nonce      hash.Hash256 // REVEAL: disclosed blinding nonce
	Resource   []byte       // REGISTER/UPDATE: name resource record
}

// ValidateName checks the grinding constraints on a raw name: lowercase
// alphanumerics and hyphens, no leading/trailing hyphen, bounded length.
func ValidateName(name []byte) error {
	if len(name) == 0 || len(name) > MaxNameLength {
		return errors.Wrapf(ErrInvalidName, "name length = %d out of range", len(name))
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
			if i == 0 || i == len(name)-1 {
				return errors.Wrap(ErrInvalidName, "hyphen at name boundary")
			}
		default:
			return errors.Wrapf(ErrInvalidName, "illegal character %q", c)
		}
	}
	return nil
}

// HashName returns the name hash keying the registry
func HashName(name []byte) hash.Hash256 {
	return hash.Hash256b(name)
}

// Serialize serializes the covenant into deterministic bytes
func (c *Covenant) Serialize() []byte {
	var b bytes.Buffer
	b.WriteByte(byte(c.Type))
	b.Write(c.NameHash[:])
	b.Write(byteutil.Uint32ToBytesBigEndian(uint32(len(c.Name))))
	b.Write(c.Name)
	b.Write(byteutil.Uint64ToBytesBigEndian(c.Height))
	b.Write(c.Commitment[:])
	b.Write(byteutil.Uint64ToBytesBigEndian(c.BidValue))
	b.Write(c.Nonce[:])
	b.Write(byteutil.Uint32ToBytesBigEndian(uint32(len(c.Resource))))
	b.Write(c.Resource)
	return b.Bytes()
}

// Deserialize parses a covenant from bytes produced by Serialize
func (c *Covenant) Deserialize(data []byte) error {
	r := bytes.NewReader(data)
	readFull := func(p []byte) error {
		if _, err := r.Read(p); err != nil {
			return errors.Wrap(err, "truncated covenant")
		}
		return nil
	}
	t, err := r.ReadByte()
	if err != nil {
		return errors.Wrap(err, "truncated covenant")
	}
	c.Type = Type(t)
	if err := readFull(c.NameHash[:]); err != nil {
		return err
	}
	var u32 [4]byte
	if err := readFull(u32[:]); err != nil {
		return err
	}
	c.Name = make([]byte, byteutil.BytesToUint32BigEndian(u32[:]))
	if len(c.Name) > 0 {
		if err := readFull(c.Name); err != nil {
			return err
		}
	}
	var u64 [8]byte
	if err := readFull(u64[:]); err != nil {
		return err
	}
	c.Height = byteutil.BytesToUint64BigEndian(u64[:])
	if err := readFull(c.Commitment[:]); err != nil {
		return err
	}
	if err := readFull(u64[:]); err != nil {
		return err
	}
	c.BidValue = byteutil.BytesToUint64BigEndian(u64[:])
	if err := readFull(c.Nonce[:]); err != nil {
		return err
	}
	if err := readFull(u32[:]); err != nil {
		return err
	}
	c.Resource = make([]byte, byteutil.BytesToUint32BigEndian(u32[:]))
	if len(c.Resource) > 0 {
		if err := readFull(c.Resource); err != nil {
			return err
		}
	}
	return nil
}
