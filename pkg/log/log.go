// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package log provides the global and per-component zap loggers.
package log

import (
	"encoding/hex"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// GlobalConfig defines the global logger configurations.
type GlobalConfig struct {
	Zap            *zap.Config `json:"zap" yaml:"zap"`
	RedirectStdLog bool        `json:"stdLogRedirect" yaml:"stdLogRedirect"`
}

var (
	_globalCfg    GlobalConfig
	_logMu        sync.RWMutex
	_globalLogger *zap.Logger
	_subLoggers   map[string]*zap.Logger
)

func init() {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level.SetLevel(zap.InfoLevel)
	l, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	_globalLogger = l
	_subLoggers = make(map[string]*zap.Logger)
}

// Hex creates a zap field of hex-encoded bytes.
func Hex(k string, d []byte) zap.Field {
	return zap.String(k, hex.EncodeToString(d))
}

// L wraps the global logger.
func L() *zap.Logger {
	_logMu.RLock()
	defer _logMu.RUnlock()
	return _globalLogger
}

// S wraps the sugared global logger.
func S() *zap.SugaredLogger { return L().Sugar() }

// Logger returns the logger of the given name, or the global logger when the
// name was never initialized.
func Logger(name string) *zap.Logger {
	_logMu.RLock()
	defer _logMu.RUnlock()
	if logger, ok := _subLoggers[name]; ok {
		return logger
	}
	return _globalLogger
}

// InitLoggers initializes the global logger and other sub loggers.
func InitLoggers(globalCfg GlobalConfig, subCfgs map[string]GlobalConfig) error {
	if _, exists := subCfgs[""]; exists {
		return errors.New("empty sub logger name is reserved for the global logger")
	}
	glb, err := newLogger(globalCfg)
	if err != nil {
		return err
	}

	_logMu.Lock()
	defer _logMu.Unlock()
	_globalCfg = globalCfg
	_globalLogger = glb
	if globalCfg.RedirectStdLog {
		zap.RedirectStdLog(glb)
	}
	for name, cfg := range subCfgs {
		sub, err := newLogger(cfg)
		if err != nil {
			return err
		}
		_subLoggers[name] = sub.With(zap.String("subLogger", name))
	}
	return nil
}

func newLogger(cfg GlobalConfig) (*zap.Logger, error) {
	zapCfg := cfg.Zap
	if zapCfg == nil {
		c := zap.NewProductionConfig()
		zapCfg = &c
	}
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build zap logger")
	}
	return logger, nil
}
