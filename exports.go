package vesting

import (
	"github.com/xraph/vesting/reserve"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Re-export common types for convenience so users don't have to import the types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Ratio is re-exported from types package.
type Ratio = types.Ratio

// Account is re-exported from types package.
type Account = types.Account

// Entity is re-exported from types package.
type Entity = types.Entity

// Config is re-exported from schedule package.
type Config = schedule.Config

// Entry is re-exported from reserve package.
type Entry = reserve.Entry

// Re-export amount and ratio constructors
var (
	ZeroAmount     = types.ZeroAmount
	NewAmount      = types.NewAmount
	ParseAmount    = types.ParseAmount
	ParseRatio     = types.ParseRatio
	MustParseRatio = types.MustParseRatio
	FullRatio      = types.FullRatio
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
