// Package asset defines the fungible asset ledger a vesting engine draws
// from and pays out of.
package asset

import (
	"context"
	"errors"

	"github.com/xraph/vesting/types"
)

// Failures an asset ledger reports when pulling tokens in.
var (
	ErrInsufficientBalance   = errors.New("asset: insufficient balance")
	ErrInsufficientAllowance = errors.New("asset: insufficient allowance")
)

// Ledger moves tokens between parties and the engine's custody.
type Ledger interface {
	// TransferIn moves amount from the given account into custody.
	TransferIn(ctx context.Context, from types.Account, amount types.Amount) error
	// TransferOut moves amount from custody to the given account.
	TransferOut(ctx context.Context, to types.Account, amount types.Amount) error
}

// LedgerFuncs adapts a pair of functions to Ledger.
type LedgerFuncs struct {
	In  func(ctx context.Context, from types.Account, amount types.Amount) error
	Out func(ctx context.Context, to types.Account, amount types.Amount) error
}

// TransferIn implements Ledger.
func (f LedgerFuncs) TransferIn(ctx context.Context, from types.Account, amount types.Amount) error {
	return f.In(ctx, from, amount)
}

// TransferOut implements Ledger.
func (f LedgerFuncs) TransferOut(ctx context.Context, to types.Account, amount types.Amount) error {
	return f.Out(ctx, to, amount)
}
