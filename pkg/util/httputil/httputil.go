// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package httputil

import (
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"
)

const (
	_connectionCount = 400
	_readTimeout     = 5 * time.Second
	_writeTimeout    = 5 * time.Second
	_idleTimeout     = 120 * time.Second
)

// ServerOption overrides a server timeout
type ServerOption func(*serverConfig)

type serverConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SetTimeout sets the read, write and idle timeouts of the server
func SetTimeout(r, w, i time.Duration) ServerOption {
	return func(cfg *serverConfig) {
		cfg.ReadTimeout = r
		cfg.WriteTimeout = w
		cfg.IdleTimeout = i
	}
}

// Server creates a HTTP server with timeout settings
func Server(addr string, handler http.Handler, opts ...ServerOption) http.Server {
	cfg := serverConfig{
		ReadTimeout:  _readTimeout,
		WriteTimeout: _writeTimeout,
		IdleTimeout:  _idleTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return http.Server{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		Addr:         addr,
		Handler:      handler,
	}
}

// LimitListener creates a tcp keep-alive listener capped at 400 concurrent
// connections
func LimitListener(addr string) (net.Listener, error) {
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return netutil.LimitListener(tcpKeepAliveListener{ln.(*net.TCPListener)}, _connectionCount), nil
}

// tcpKeepAliveListener sets TCP keep-alive timeouts on accepted connections,
// so dead peers eventually go away
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	if err := tc.SetKeepAlive(true); err != nil {
		return nil, err
	}
	if err := tc.SetKeepAlivePeriod(3 * time.Minute); err != nil {
		return nil, err
	}
	return tc, nil
}
