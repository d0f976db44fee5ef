// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package registry implements the name registry ledger: the per-name auction
// state, the height-driven phase arithmetic and the covenant validator that
// together form the consensus rule for name transitions.
package registry

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"

	"github.com/namechain/namechain-core/blockchain/block"
	"github.com/namechain/namechain-core/pkg/hash"
)

var (
	// ErrFailedToMarshalState indicates the failure to marshal a name state
	ErrFailedToMarshalState = errors.New("failed to marshal name state")
	// ErrFailedToUnmarshalState indicates the failure to unmarshal a name state
	ErrFailedToUnmarshalState = errors.New("failed to unmarshal name state")
)

// NameState is the canonical auction/ownership record of one name. Ownership
// changes only through a validated covenant transition.
type NameState struct {
	NameHash   hash.Hash256
	Name       []byte
	OpenHeight uint64

	// auction progress, updated by REVEAL transitions in chain order
	HighestBid       uint64
	SecondHighestBid uint64
	HighestOutpoint  block.Outpoint // reveal output currently holding the auction
	RevealCount      uint32

	// Owner is the outpoint exclusively holding the name once registered
	Owner    block.Outpoint
	Resource []byte

	RenewalHeight  uint64
	TransferLockup uint64
}

// NewNameState creates the state of a freshly opened name
func NewNameState(name []byte, height uint64) *NameState {
	n := make([]byte, len(name))
	copy(n, name)
	return &NameState{
		NameHash:   hash.Hash256b(name),
		Name:       n,
		OpenHeight: height,
	}
}

// Serialize serializes name state into bytes
func (s *NameState) Serialize() ([]byte, error) {
	var ss bytes.Buffer
	if err := gob.NewEncoder(&ss).Encode(s); err != nil {
		return nil, ErrFailedToMarshalState
	}
	return ss.Bytes(), nil
}

// Deserialize deserializes bytes into name state
func (s *NameState) Deserialize(ss []byte) error {
	if err := gob.NewDecoder(bytes.NewBuffer(ss)).Decode(s); err != nil {
		return ErrFailedToUnmarshalState
	}
	return nil
}

// Clone returns a deep copy of the state
func (s *NameState) Clone() *NameState {
	c := *s
	c.Name = make([]byte, len(s.Name))
	copy(c.Name, s.Name)
	if s.Resource != nil {
		c.Resource = make([]byte, len(s.Resource))
		copy(c.Resource, s.Resource)
	}
	return &c
}

// Registered returns whether the name has an owner
func (s *NameState) Registered() bool {
	return !s.Owner.IsZero()
}
