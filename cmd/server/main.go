// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Usage:
//   make build
//   ./bin/server --config ./config.yaml

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "go.uber.org/automaxprocs"
	"gopkg.in/yaml.v2"

	"github.com/namechain/namechain-core/config"
	"github.com/namechain/namechain-core/node"
	"github.com/namechain/namechain-core/pkg/log"
	"github.com/namechain/namechain-core/pkg/probe"
)

var _configPaths []string

var rootCmd = &cobra.Command{
	Use:   "namechain-server",
	Short: "Start the namechain node",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective config as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New(_configPaths...)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&_configPaths, "config", nil, "config file paths, later files override earlier ones")
	rootCmd.AddCommand(configCmd)
}

func runServer() error {
	cfg, err := config.New(_configPaths...)
	if err != nil {
		return err
	}
	if err := log.InitLoggers(cfg.Log, cfg.SubLogs); err != nil {
		return err
	}
	probeSvr := probe.New(cfg.System.HTTPStatsPort)
	if err := probeSvr.Start(context.Background()); err != nil {
		return err
	}
	n, err := node.NewNode(cfg)
	if err != nil {
		return err
	}
	if err := n.Start(context.Background()); err != nil {
		return err
	}
	probeSvr.Ready()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	probeSvr.NotReady()
	log.L().Info("Shutting down.")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := n.Stop(ctx); err != nil {
		return err
	}
	return probeSvr.Stop(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.L().Fatal("Server exited.", zap.Error(err))
	}
}
