// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package compress wraps the snappy codec used for blocks at rest.
package compress

import (
	"github.com/golang/snappy"
)

// Compress compresses the input bytes with snappy
func Compress(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// Decompress uncompresses the snappy-encoded input bytes
func Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}
