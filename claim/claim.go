// Package claim defines the claim journal: one record per non-zero
// withdrawal of vested tokens.
package claim

import (
	"context"
	"time"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/types"
)

// Claim records one withdrawal.
type Claim struct {
	ID         id.ClaimID    `json:"id"`
	ScheduleID id.ScheduleID `json:"schedule_id"`
	Account    types.Account `json:"account"`
	// Amount is the amount transferred by this claim.
	Amount types.Amount `json:"amount"`
	// ClaimedAfter is the account's claimed total including Amount.
	ClaimedAfter types.Amount `json:"claimed_after"`
	// Batch is set when the claim ran as part of ClaimBatch or ClaimRange.
	Batch     bool      `json:"batch"`
	CreatedAt time.Time `json:"created_at"`
}

// ClaimedBefore returns the account's claimed total before this claim.
func (c *Claim) ClaimedBefore() types.Amount {
	return c.ClaimedAfter.Sub(c.Amount)
}

// Store persists the claim journal together with the claimed total of the
// matching reserve row.
type Store interface {
	// RecordClaim inserts c and sets the reserve's claimed amount to
	// c.ClaimedAfter.
	RecordClaim(ctx context.Context, c *Claim) error
	// RevertClaim removes c and restores the reserve's claimed amount.
	RevertClaim(ctx context.Context, c *Claim) error
	ListClaims(ctx context.Context, scheduleID id.ScheduleID, opts ListOpts) ([]*Claim, error)
}

type ListOpts struct {
	Account types.Account
	Limit   int
	Offset  int
}
