// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package routine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/require"

	"github.com/namechain/namechain-core/pkg/lifecycle"
	"github.com/namechain/namechain-core/testutil"
)

func TestRecurringTask(t *testing.T) {
	require := require.New(t)
	var count int64
	mck := clock.NewMock()
	task := NewRecurringTask(func() { atomic.AddInt64(&count, 1) }, time.Second, WithClock(mck))

	// stop before start is rejected
	require.Equal(lifecycle.ErrWrongState, task.Stop(context.Background()))

	require.NoError(task.Start(context.Background()))
	mck.Add(3 * time.Second)
	require.NoError(testutil.WaitUntil(10*time.Millisecond, 2*time.Second, func() (bool, error) {
		return atomic.LoadInt64(&count) >= 3, nil
	}))

	require.NoError(task.Stop(context.Background()))
	settled := atomic.LoadInt64(&count)
	mck.Add(3 * time.Second)
	require.Equal(settled, atomic.LoadInt64(&count))
}
