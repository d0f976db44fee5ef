// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

// Package lifecycle composes the Start/Stop sequencing of node subcomponents.
package lifecycle

import "context"

type (
	// Starter is the interface with a Start method
	Starter interface {
		Start(context.Context) error
	}

	// Stopper is the interface with a Stop method
	Stopper interface {
		Stop(context.Context) error
	}

	// StartStopper is both a Starter and a Stopper
	StartStopper interface {
		Starter
		Stopper
	}

	// Model is a component that may implement Starter and/or Stopper
	Model interface{}

	// Lifecycle manages a list of models' lifecycle. Models are started in the
	// order they were added and stopped in the reverse order.
	Lifecycle struct {
		models []Model
	}
)

// Add adds a model into the lifecycle
func (lc *Lifecycle) Add(m Model) { lc.models = append(lc.models, m) }

// AddModels adds multiple models into the lifecycle
func (lc *Lifecycle) AddModels(ms ...Model) { lc.models = append(lc.models, ms...) }

// OnStart runs models' Start function in the added order. It exits on the
// first error, leaving already-started models running.
func (lc *Lifecycle) OnStart(ctx context.Context) error {
	for _, m := range lc.models {
		if starter, ok := m.(Starter); ok {
			if err := starter.Start(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnStop runs models' Stop function in the reverse order of addition. All
// models are stopped even when some return errors; the first error wins.
func (lc *Lifecycle) OnStop(ctx context.Context) error {
	var firstErr error
	for i := len(lc.models) - 1; i >= 0; i-- {
		if stopper, ok := lc.models[i].(Stopper); ok {
			if err := stopper.Stop(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
