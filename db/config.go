// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

// Config is the config for database
type Config struct {
	DbPath string `json:"dbPath" yaml:"dbPath"`
	// NumRetries is the number of retries to perform an update before giving up
	NumRetries uint8 `json:"numRetries" yaml:"numRetries"`
	// ReadCacheSize is the max number of entries the read-through cache holds, 0 disables the cache
	ReadCacheSize int `json:"readCacheSize" yaml:"readCacheSize"`
}

// DefaultConfig returns the default config for database
var DefaultConfig = Config{
	DbPath:        "/var/data/namechain.db",
	NumRetries:    3,
	ReadCacheSize: 1000,
}
