// Package memory provides an in-process Store. It is the engine default and
// the reference backend for tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/reserve"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/types"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Schedule storage
	schedules map[string]*schedule.Schedule

	// Reserve storage, keyed by schedule then account
	reserves map[string]map[types.Account]*reserve.Reserve

	// Claim journal in insertion order, keyed by schedule
	claims map[string][]*claim.Claim
}

func New() *Store {
	return &Store{
		schedules: make(map[string]*schedule.Schedule),
		reserves:  make(map[string]map[types.Account]*reserve.Reserve),
		claims:    make(map[string][]*claim.Claim),
	}
}

// ──────────────────────────────────────────────────
// Schedule Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateSchedule(_ context.Context, sc *schedule.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schedules[sc.ID.String()]; exists {
		return types.ErrAlreadyExists
	}
	for _, existing := range s.schedules {
		if existing.Label == sc.Label {
			return fmt.Errorf("%w: label %q", types.ErrAlreadyExists, sc.Label)
		}
	}
	s.schedules[sc.ID.String()] = cloneSchedule(sc)
	return nil
}

func (s *Store) GetSchedule(_ context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sc, ok := s.schedules[scheduleID.String()]; ok {
		return cloneSchedule(sc), nil
	}
	return nil, types.ErrScheduleNotFound
}

func (s *Store) GetScheduleByLabel(_ context.Context, label string) (*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sc := range s.schedules {
		if sc.Label == label {
			return cloneSchedule(sc), nil
		}
	}
	return nil, types.ErrScheduleNotFound
}

func (s *Store) ListSchedules(_ context.Context, opts schedule.ListOpts) ([]*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*schedule.Schedule, 0, len(s.schedules))
	for _, sc := range s.schedules {
		if opts.Status == "" || sc.Status() == opts.Status {
			result = append(result, cloneSchedule(sc))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) MarkStarted(_ context.Context, scheduleID id.ScheduleID, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, ok := s.schedules[scheduleID.String()]
	if !ok {
		return types.ErrScheduleNotFound
	}
	if sc.Started {
		return types.ErrAlreadyStarted
	}
	sc.Started = true
	sc.StartedAt = startedAt
	sc.Touch()
	return nil
}

// ──────────────────────────────────────────────────
// Reserve Store implementation
// ──────────────────────────────────────────────────

func (s *Store) SaveReserves(_ context.Context, scheduleID id.ScheduleID, rows []*reserve.Reserve) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[scheduleID.String()]; !ok {
		return types.ErrScheduleNotFound
	}
	bySchedule, ok := s.reserves[scheduleID.String()]
	if !ok {
		bySchedule = make(map[types.Account]*reserve.Reserve)
		s.reserves[scheduleID.String()] = bySchedule
	}
	for _, r := range rows {
		bySchedule[r.Account] = r.Clone()
	}
	return nil
}

func (s *Store) ListReserves(_ context.Context, scheduleID id.ScheduleID) ([]*reserve.Reserve, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySchedule := s.reserves[scheduleID.String()]
	result := make([]*reserve.Reserve, 0, len(bySchedule))
	for _, r := range bySchedule {
		result = append(result, r.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

func (s *Store) GetReserve(_ context.Context, scheduleID id.ScheduleID, account types.Account) (*reserve.Reserve, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.reserves[scheduleID.String()][account]; ok {
		return r.Clone(), nil
	}
	return nil, types.ErrReserveNotFound
}

// ──────────────────────────────────────────────────
// Claim Store implementation
// ──────────────────────────────────────────────────

func (s *Store) RecordClaim(_ context.Context, c *claim.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reserves[c.ScheduleID.String()][c.Account]
	if !ok {
		return types.ErrReserveNotFound
	}
	for _, existing := range s.claims[c.ScheduleID.String()] {
		if existing.ID.String() == c.ID.String() {
			return types.ErrAlreadyExists
		}
	}

	cp := *c
	s.claims[c.ScheduleID.String()] = append(s.claims[c.ScheduleID.String()], &cp)
	r.Claimed = c.ClaimedAfter
	r.Touch()
	return nil
}

func (s *Store) RevertClaim(_ context.Context, c *claim.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	journal := s.claims[c.ScheduleID.String()]
	for i, existing := range journal {
		if existing.ID.String() != c.ID.String() {
			continue
		}
		s.claims[c.ScheduleID.String()] = append(journal[:i:i], journal[i+1:]...)
		if r, ok := s.reserves[c.ScheduleID.String()][c.Account]; ok {
			r.Claimed = c.ClaimedBefore()
			r.Touch()
		}
		return nil
	}
	return types.ErrClaimNotFound
}

func (s *Store) ListClaims(_ context.Context, scheduleID id.ScheduleID, opts claim.ListOpts) ([]*claim.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*claim.Claim, 0)
	for _, c := range s.claims[scheduleID.String()] {
		if opts.Account == "" || c.Account == opts.Account {
			cp := *c
			result = append(result, &cp)
		}
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// Helper functions
func cloneSchedule(sc *schedule.Schedule) *schedule.Schedule {
	cp := *sc
	return &cp
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
