// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package registry

import (
	"github.com/namechain/namechain-core/config"
)

// Phase is the auction phase of a name at a given height
type Phase uint8

// Auction phases. A name walks OPENING -> BIDDING -> REVEAL -> CLOSED
// monotonically in height and may only return to AVAILABLE through expiry.
const (
	PhaseAvailable Phase = iota
	PhaseOpening
	PhaseBidding
	PhaseReveal
	PhaseClosed
)

// String returns the human-readable phase name
func (p Phase) String() string {
	switch p {
	case PhaseAvailable:
		return "AVAILABLE"
	case PhaseOpening:
		return "OPENING"
	case PhaseBidding:
		return "BIDDING"
	case PhaseReveal:
		return "REVEAL"
	case PhaseClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// PhaseOf computes the phase of a name purely from height arithmetic against
// the network windows. The same (state, height) pair always yields the same
// phase; this determinism is part of the consensus contract.
func PhaseOf(names config.Names, s *NameState, height uint64) Phase {
	if s == nil {
		return PhaseAvailable
	}
	var (
		bidStart    = s.OpenHeight + names.TreeInterval
		revealStart = bidStart + names.BiddingPeriod
		closeStart  = revealStart + names.RevealPeriod
	)
	switch {
	case height < bidStart:
		return PhaseOpening
	case height < revealStart:
		return PhaseBidding
	case height < closeStart:
		return PhaseReveal
	}
	if expired(names, s, height, closeStart) {
		return PhaseAvailable
	}
	return PhaseClosed
}

// expired reports whether a closed name has fallen back to available: an
// auction that drew no reveals reopens at close, an unclaimed or unrenewed
// name reopens after the renewal window.
func expired(names config.Names, s *NameState, height, closeStart uint64) bool {
	if s.RevealCount == 0 {
		return true
	}
	if s.Registered() {
		return height >= s.RenewalHeight
	}
	return height >= closeStart+names.RenewalWindow
}
