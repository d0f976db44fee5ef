// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/namechain/namechain-core/config"
)

var _testNames = config.Names{
	TreeInterval:  1,
	BiddingPeriod: 2,
	RevealPeriod:  2,
	RenewalWindow: 20,
}

func TestPhaseOf(t *testing.T) {
	require := require.New(t)

	require.Equal(PhaseAvailable, PhaseOf(_testNames, nil, 100))

	s := NewNameState([]byte("satoshi"), 10)
	for _, c := range []struct {
		height uint64
		phase  Phase
	}{
		{10, PhaseOpening},
		{11, PhaseBidding},
		{12, PhaseBidding},
		{13, PhaseReveal},
		{14, PhaseReveal},
	} {
		require.Equal(c.phase, PhaseOf(_testNames, s, c.height), "height %d", c.height)
	}

	// no reveals: the name reopens the moment the reveal window ends
	require.Equal(PhaseAvailable, PhaseOf(_testNames, s, 15))

	// with reveals but never registered: closed until the renewal window lapses
	revealed := s.Clone()
	revealed.RevealCount = 1
	require.Equal(PhaseClosed, PhaseOf(_testNames, revealed, 15))
	require.Equal(PhaseClosed, PhaseOf(_testNames, revealed, 34))
	require.Equal(PhaseAvailable, PhaseOf(_testNames, revealed, 35))

	// registered: held until the renewal height
	registered := revealed.Clone()
	registered.Owner = outpoint("owner", 0)
	registered.RenewalHeight = 50
	require.Equal(PhaseClosed, PhaseOf(_testNames, registered, 49))
	require.Equal(PhaseAvailable, PhaseOf(_testNames, registered, 50))
}

func TestPhaseMonotonic(t *testing.T) {
	require := require.New(t)

	s := NewNameState([]byte("satoshi"), 10)
	s.RevealCount = 2
	prev := PhaseOf(_testNames, s, 10)
	for height := uint64(11); height < 35; height++ {
		cur := PhaseOf(_testNames, s, height)
		require.GreaterOrEqual(uint8(cur), uint8(prev), "phase regressed at height %d", height)
		prev = cur
	}
}
