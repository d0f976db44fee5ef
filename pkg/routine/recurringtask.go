// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package routine

import (
	"context"
	"time"

	"github.com/facebookgo/clock"

	"github.com/namechain/namechain-core/pkg/lifecycle"
)

var _ lifecycle.StartStopper = (*RecurringTask)(nil)

// Task is the function to be executed by a task runner
type Task func()

// RecurringTask runs a task periodically on an injectable clock, so tests can
// drive ticks with a mock clock.
type RecurringTask struct {
	lifecycle.Readiness
	t        Task
	interval time.Duration
	ticker   *clock.Ticker
	clock    clock.Clock
	done     chan struct{}
}

// RecurringTaskOption sets the RecurringTask construction parameter
type RecurringTaskOption func(*RecurringTask)

// WithClock overrides the wall clock, for tests
func WithClock(c clock.Clock) RecurringTaskOption {
	return func(t *RecurringTask) { t.clock = c }
}

// NewRecurringTask creates an instance of RecurringTask
func NewRecurringTask(t Task, i time.Duration, opts ...RecurringTaskOption) *RecurringTask {
	rt := &RecurringTask{
		t:        t,
		interval: i,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Start starts the ticker
func (t *RecurringTask) Start(_ context.Context) error {
	t.done = make(chan struct{})
	t.ticker = t.clock.Ticker(t.interval)
	ready := make(chan struct{})
	go func() {
		close(ready)
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				t.t()
			}
		}
	}()
	<-ready
	return t.TurnOn()
}

// Stop stops the ticker
func (t *RecurringTask) Stop(_ context.Context) error {
	// prevent stop is called before start
	if err := t.TurnOff(); err != nil {
		return err
	}
	t.ticker.Stop()
	close(t.done)
	return nil
}
