// Copyright (c) 2024 Namechain Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package wallet

// AccountRef identifies an account either by its numeric index or by its
// human readable name. Exactly one of the two selectors is set. Callers build
// a ref at the API boundary and the wallet resolves it exactly once, so no
// downstream code ever branches on the selector again.
type AccountRef struct {
	byIndex bool
	index   uint32
	name    string
}

// ByIndex creates a ref selecting an account by index
func ByIndex(index uint32) AccountRef { return AccountRef{byIndex: true, index: index} }

// ByName creates a ref selecting an account by name
func ByName(name string) AccountRef { return AccountRef{name: name} }

// DefaultAccount refers to the account every wallet is created with
func DefaultAccount() AccountRef { return ByIndex(0) }

// resolve maps the ref to a concrete account, or ErrAccountNotExist. Callers
// hold at least the wallet read lock.
func (w *Wallet) resolve(ref AccountRef) (*Account, error) {
	if ref.byIndex {
		if int(ref.index) >= len(w.accounts) {
			return nil, ErrAccountNotExist
		}
		return w.accounts[ref.index], nil
	}
	for _, acct := range w.accounts {
		if acct.Name == ref.name {
			return acct, nil
		}
	}
	return nil, ErrAccountNotExist
}
