package reserve

import (
	"fmt"
	"time"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/types"
)

// Ledger is the in-memory recipient ledger of one schedule. Recipients are
// kept in an append-only slice in first-reservation order with a side index
// from account to its row.
//
// Ledger is not safe for concurrent use; the engine serializes access.
type Ledger struct {
	scheduleID id.ScheduleID
	order      []types.Account
	rows       map[types.Account]*Reserve
	total      types.Amount
}

// NewLedger returns an empty ledger for scheduleID.
func NewLedger(scheduleID id.ScheduleID) *Ledger {
	return &Ledger{
		scheduleID: scheduleID,
		rows:       make(map[types.Account]*Reserve),
		total:      types.ZeroAmount(),
	}
}

// Load replaces the ledger contents with rows previously persisted.
// Rows must carry contiguous positions starting at zero.
func (l *Ledger) Load(rows []*Reserve) error {
	order := make([]types.Account, len(rows))
	index := make(map[types.Account]*Reserve, len(rows))
	total := types.ZeroAmount()

	for _, r := range rows {
		if r.Position < 0 || r.Position >= len(rows) {
			return fmt.Errorf("reserve: load: position %d out of range for %d rows", r.Position, len(rows))
		}
		if order[r.Position] != "" {
			return fmt.Errorf("reserve: load: duplicate position %d", r.Position)
		}
		if _, dup := index[r.Account]; dup {
			return fmt.Errorf("reserve: load: duplicate account %s", r.Account)
		}
		order[r.Position] = r.Account
		index[r.Account] = r.Clone()
		total = total.Add(r.Reserved)
	}

	l.order = order
	l.rows = index
	l.total = total
	return nil
}

// Batch is a validated, uncommitted set of reservations.
type Batch struct {
	// Added lists one notice per entry in input order.
	Added []Added
	// Rows holds the new state of every touched recipient.
	Rows []*Reserve
	// Total is the ledger total after the batch.
	Total types.Amount

	appended []types.Account
}

// Prepare validates entries against the ledger and computes their effect
// without changing it. The aggregate total must stay within limit; any
// failure rejects the whole batch.
func (l *Ledger) Prepare(entries []Entry, limit types.Amount) (*Batch, error) {
	now := time.Now().UTC()
	b := &Batch{
		Added: make([]Added, 0, len(entries)),
		Total: l.total,
	}
	pending := make(map[types.Account]*Reserve)

	for i, e := range entries {
		if e.Account.IsZero() {
			return nil, types.Invalid(fmt.Sprintf("entries[%d].account", i), "must be set")
		}
		if !types.IsPositive(e.Amount) {
			return nil, types.Invalid(fmt.Sprintf("entries[%d].amount", i), "must be positive")
		}
		if b.Total.GT(limit) || e.Amount.GT(limit.Sub(b.Total)) {
			return nil, types.Invalid(fmt.Sprintf("entries[%d].amount", i), "total reserve would exceed %s", limit)
		}

		row, ok := pending[e.Account]
		if !ok {
			if existing, found := l.rows[e.Account]; found {
				row = existing.Clone()
			} else {
				row = &Reserve{
					Entity:     types.Entity{CreatedAt: now},
					ID:         id.NewReserveID(),
					ScheduleID: l.scheduleID,
					Account:    e.Account,
					Position:   len(l.order) + len(b.appended),
					Reserved:   types.ZeroAmount(),
					Claimed:    types.ZeroAmount(),
				}
				b.appended = append(b.appended, e.Account)
			}
			row.UpdatedAt = now
			pending[e.Account] = row
			b.Rows = append(b.Rows, row)
		}

		row.Reserved = row.Reserved.Add(e.Amount)
		b.Total = b.Total.Add(e.Amount)
		b.Added = append(b.Added, Added{Account: e.Account, Amount: e.Amount, Total: row.Reserved})
	}
	return b, nil
}

// Commit applies a batch returned by Prepare. No other mutation may happen
// between Prepare and Commit.
func (l *Ledger) Commit(b *Batch) {
	l.order = append(l.order, b.appended...)
	for _, r := range b.Rows {
		l.rows[r.Account] = r.Clone()
	}
	l.total = b.Total
}

// SetClaimed records the claimed amount of account.
func (l *Ledger) SetClaimed(account types.Account, claimed types.Amount) {
	if r, ok := l.rows[account]; ok {
		r.Claimed = claimed
		r.Touch()
	}
}

// Get returns a copy of the row of account.
func (l *Ledger) Get(account types.Account) (*Reserve, bool) {
	r, ok := l.rows[account]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// At returns the account at position i.
func (l *Ledger) At(i int) (types.Account, bool) {
	if i < 0 || i >= len(l.order) {
		return "", false
	}
	return l.order[i], true
}

// Len returns the number of recipients.
func (l *Ledger) Len() int { return len(l.order) }

// Total returns the sum of all reserved amounts.
func (l *Ledger) Total() types.Amount { return l.total }

// Claimed returns the sum of all claimed amounts.
func (l *Ledger) Claimed() types.Amount {
	total := types.ZeroAmount()
	for _, r := range l.rows {
		total = total.Add(r.Claimed)
	}
	return total
}

// Accounts returns a copy of the recipient order.
func (l *Ledger) Accounts() []types.Account {
	out := make([]types.Account, len(l.order))
	copy(out, l.order)
	return out
}

// Slice returns the accounts in [from, min(to, Len())). An empty or
// inverted window yields nil.
func (l *Ledger) Slice(from, to int) []types.Account {
	if to > len(l.order) {
		to = len(l.order)
	}
	if from < 0 {
		from = 0
	}
	if from >= to {
		return nil
	}
	out := make([]types.Account, to-from)
	copy(out, l.order[from:to])
	return out
}
