// Package memory provides an in-process fungible token that implements
// asset.Ledger for a single custody account. Useful for tests and
// simulations.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/vesting/asset"
	"github.com/xraph/vesting/types"
)

var _ asset.Ledger = (*Token)(nil)

// Token is a balance and allowance book. Transfers into custody spend the
// sender's allowance granted to the custody account.
type Token struct {
	mu         sync.Mutex
	custody    types.Account
	balances   map[types.Account]types.Amount
	allowances map[types.Account]types.Amount
}

// New returns an empty token whose custody account is custody.
func New(custody types.Account) *Token {
	return &Token{
		custody:    custody,
		balances:   make(map[types.Account]types.Amount),
		allowances: make(map[types.Account]types.Amount),
	}
}

// Custody returns the account holding transferred-in tokens.
func (t *Token) Custody() types.Account { return t.custody }

// Mint credits amount to account.
func (t *Token) Mint(account types.Account, amount types.Amount) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[account] = t.balanceOf(account).Add(amount)
}

// Approve sets the amount the custody account may pull from owner.
func (t *Token) Approve(owner types.Account, amount types.Amount) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowances[owner] = amount
}

// BalanceOf returns the balance of account.
func (t *Token) BalanceOf(account types.Account) types.Amount {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balanceOf(account)
}

// Allowance returns the amount the custody account may still pull from owner.
func (t *Token) Allowance(owner types.Account) types.Amount {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.allowances[owner]; ok {
		return a
	}
	return types.ZeroAmount()
}

// TransferIn implements asset.Ledger. The allowance is checked before the
// balance.
func (t *Token) TransferIn(_ context.Context, from types.Account, amount types.Amount) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowance, ok := t.allowances[from]
	if !ok {
		allowance = types.ZeroAmount()
	}
	if allowance.LT(amount) {
		return fmt.Errorf("%w: %s has %s approved, need %s", asset.ErrInsufficientAllowance, from, allowance, amount)
	}
	balance := t.balanceOf(from)
	if balance.LT(amount) {
		return fmt.Errorf("%w: %s holds %s, need %s", asset.ErrInsufficientBalance, from, balance, amount)
	}

	t.allowances[from] = allowance.Sub(amount)
	t.balances[from] = balance.Sub(amount)
	t.balances[t.custody] = t.balanceOf(t.custody).Add(amount)
	return nil
}

// TransferOut implements asset.Ledger.
func (t *Token) TransferOut(_ context.Context, to types.Account, amount types.Amount) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	held := t.balanceOf(t.custody)
	if held.LT(amount) {
		return fmt.Errorf("%w: custody holds %s, need %s", asset.ErrInsufficientBalance, held, amount)
	}
	t.balances[t.custody] = held.Sub(amount)
	t.balances[to] = t.balanceOf(to).Add(amount)
	return nil
}

func (t *Token) balanceOf(account types.Account) types.Amount {
	if b, ok := t.balances[account]; ok {
		return b
	}
	return types.ZeroAmount()
}
