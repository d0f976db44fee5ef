// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/namechain/namechain-core/db"
	"github.com/namechain/namechain-core/pkg/log"
)

// IMPORTANT: to define a config, add a field or a new config type to the existing config types. In addition, provide
// the default value in Default var.

type (
	// Names is the configuration of the name-auction windows, in blocks. All
	// phase boundaries derive additively from these; they are consensus
	// parameters and must match across all nodes of a network.
	Names struct {
		// TreeInterval is the number of blocks between an OPEN and the start of bidding
		TreeInterval uint64 `json:"treeInterval" yaml:"treeInterval"`
		// BiddingPeriod is the length of the bidding window
		BiddingPeriod uint64 `json:"biddingPeriod" yaml:"biddingPeriod"`
		// RevealPeriod is the length of the reveal window
		RevealPeriod uint64 `json:"revealPeriod" yaml:"revealPeriod"`
		// RenewalWindow is the number of blocks an owner holds a name before it expires
		RenewalWindow uint64 `json:"renewalWindow" yaml:"renewalWindow"`
	}

	// Chain is the config for the blockchain
	Chain struct {
		ChainDBPath string `json:"chainDBPath" yaml:"chainDBPath"`
		ID          uint32 `json:"id" yaml:"id"`
		// BlockReward is the coinbase reward per block, in whole coins
		BlockReward uint64 `json:"blockReward" yaml:"blockReward"`
		// CoinbaseMaturity is the number of confirmations before a coinbase coin is spendable
		CoinbaseMaturity uint64 `json:"coinbaseMaturity" yaml:"coinbaseMaturity"`
		Names            Names  `json:"names" yaml:"names"`
	}

	// MemPool is the config for the relay pool
	MemPool struct {
		MaxTxs              uint64        `json:"maxTxs" yaml:"maxTxs"`
		RebroadcastInterval time.Duration `json:"rebroadcastInterval" yaml:"rebroadcastInterval"`
	}

	// Wallet is the config for the wallet
	Wallet struct {
		WalletDBPath string `json:"walletDBPath" yaml:"walletDBPath"`
	}

	// System is the config for node-level concerns
	System struct {
		// HTTPStatsPort serves the health probes and prometheus metrics
		HTTPStatsPort int `json:"httpStatsPort" yaml:"httpStatsPort"`
	}

	// Config is the root config struct, each package defines its own section
	Config struct {
		Chain   Chain                       `json:"chain" yaml:"chain"`
		MemPool MemPool                     `json:"memPool" yaml:"memPool"`
		Wallet  Wallet                      `json:"wallet" yaml:"wallet"`
		DB      db.Config                   `json:"db" yaml:"db"`
		System  System                      `json:"system" yaml:"system"`
		Log     log.GlobalConfig            `json:"log" yaml:"log"`
		SubLogs map[string]log.GlobalConfig `json:"subLogs" yaml:"subLogs"`
	}

	// Validate is the interface of validating the config
	Validate func(Config) error
)

var (
	// Default is the default config
	Default = Config{
		Chain: Chain{
			ChainDBPath:      "/var/data/chain.db",
			ID:               1,
			BlockReward:      2000,
			CoinbaseMaturity: 0,
			Names: Names{
				TreeInterval:  36,
				BiddingPeriod: 720,
				RevealPeriod:  1440,
				RenewalWindow: 105120,
			},
		},
		MemPool: MemPool{
			MaxTxs:              32000,
			RebroadcastInterval: 5 * time.Minute,
		},
		Wallet: Wallet{
			WalletDBPath: "/var/data/wallet.db",
		},
		DB:      db.DefaultConfig,
		System:  System{HTTPStatsPort: 7090},
		SubLogs: make(map[string]log.GlobalConfig),
	}

	// ErrInvalidCfg indicates the invalid config value
	ErrInvalidCfg = errors.New("invalid config value")

	// Validates is the collection of config validation functions
	Validates = []Validate{
		ValidateNames,
		ValidateMemPool,
	}
)

// New creates a config instance. It first loads the default configs, then
// overlays the given config files in order, so a latter file overwrites a
// former one on conflicting fields.
func New(configPaths ...string) (Config, error) {
	opts := make([]uconfig.YAMLOption, 0, len(configPaths)+2)
	opts = append(opts, uconfig.Static(Default))
	opts = append(opts, uconfig.Expand(os.LookupEnv))
	for _, path := range configPaths {
		if path != "" {
			opts = append(opts, uconfig.File(path))
		}
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}

	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal YAML config to struct")
	}

	for _, validate := range Validates {
		if err := validate(cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// ValidateNames validates the name-auction window config
func ValidateNames(cfg Config) error {
	names := cfg.Chain.Names
	if names.TreeInterval == 0 {
		return errors.Wrap(ErrInvalidCfg, "tree interval should not be 0")
	}
	if names.BiddingPeriod == 0 || names.RevealPeriod == 0 {
		return errors.Wrap(ErrInvalidCfg, "bidding and reveal periods should not be 0")
	}
	return nil
}

// ValidateMemPool validates the mempool config
func ValidateMemPool(cfg Config) error {
	if cfg.MemPool.MaxTxs == 0 {
		return errors.Wrap(ErrInvalidCfg, "maximum number of txs in pool should not be 0")
	}
	return nil
}
