// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package testutil

import (
	"time"

	"github.com/pkg/errors"
)

// CheckCondition defines a func type that checks whether a condition is met
type CheckCondition func() (bool, error)

// WaitUntil polls the condition every interval until it holds or the timeout
// elapses
func WaitUntil(interval, timeout time.Duration, f CheckCondition) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		met, err := f()
		if err != nil {
			return err
		}
		if met {
			return nil
		}
		time.Sleep(interval)
	}
	return errors.New("timed out waiting for the condition")
}
