// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package hash

import (
	"encoding/hex"

	"github.com/minio/blake2b-simd"
)

const (
	// HashSize defines the size of hash
	HashSize = 32
	// PKHashSize defines the size of public-key hash
	PKHashSize = 20
)

var (
	// ZeroHash256 is 32-bytes of all zero
	ZeroHash256 = Hash256{}
)

type (
	// Hash256 is 32-byte hash
	Hash256 [HashSize]byte
	// Hash160 is 20-byte hash
	Hash160 [PKHashSize]byte
)

// Hash256b returns the 256-bit blake2b hash of the input
func Hash256b(input []byte) Hash256 {
	return Hash256(blake2b.Sum256(input))
}

// Hash160b returns the 160-bit blake2b hash of the input
func Hash160b(input []byte) Hash160 {
	var h Hash160
	digest := blake2b.Sum256(input)
	copy(h[:], digest[HashSize-PKHashSize:])
	return h
}

// BytesToHash256 copies the byte slice into hash
func BytesToHash256(b []byte) Hash256 {
	var h Hash256
	if len(b) > HashSize {
		b = b[len(b)-HashSize:]
	}
	copy(h[HashSize-len(b):], b)
	return h
}

// Hex returns the hex encoding of the hash
func (h Hash256) Hex() string {
	return hex.EncodeToString(h[:])
}

// IsZero returns whether the hash is all zero
func (h Hash256) IsZero() bool {
	return h == ZeroHash256
}
