// Package reserve holds recipient reservations: the per-recipient reserved
// and claimed amounts and the append-only ledger that orders recipients by
// first reservation.
package reserve

import (
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/types"
)

// Reserve is the reservation state of one recipient within a schedule.
type Reserve struct {
	types.Entity
	ID         id.ReserveID  `json:"id"`
	ScheduleID id.ScheduleID `json:"schedule_id"`
	Account    types.Account `json:"account"`
	// Position is the index of Account in first-reservation order.
	Position int          `json:"position"`
	Reserved types.Amount `json:"reserved"`
	Claimed  types.Amount `json:"claimed"`
}

// Clone returns a copy of r.
func (r *Reserve) Clone() *Reserve {
	c := *r
	return &c
}

// Entry is one requested reservation.
type Entry struct {
	Account types.Account `json:"account"`
	Amount  types.Amount  `json:"amount"`
}

// Added describes an applied entry: the amount added and the account's
// reserved total after the addition.
type Added struct {
	Account types.Account `json:"account"`
	Amount  types.Amount  `json:"amount"`
	Total   types.Amount  `json:"total"`
}
