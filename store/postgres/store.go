package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	// Registers the migration executor used by Migrate.
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/reserve"
	"github.com/xraph/vesting/schedule"
	vestingstore "github.com/xraph/vesting/store"
	"github.com/xraph/vesting/types"
)

// compile-time interface check
var _ vestingstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("vesting/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vesting/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Schedule Store ====================

func (s *Store) CreateSchedule(ctx context.Context, sc *schedule.Schedule) error {
	m := toScheduleModel(sc)
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: schedule %q", types.ErrAlreadyExists, sc.Label)
		}
		return fmt.Errorf("vesting/postgres: create schedule: %w", err)
	}
	return nil
}

func (s *Store) GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error) {
	m := new(scheduleModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", scheduleID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, types.ErrScheduleNotFound
		}
		return nil, err
	}
	return fromScheduleModel(m)
}

func (s *Store) GetScheduleByLabel(ctx context.Context, label string) (*schedule.Schedule, error) {
	m := new(scheduleModel)
	err := s.pg.NewSelect(m).
		Where("label = $1", label).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, types.ErrScheduleNotFound
		}
		return nil, err
	}
	return fromScheduleModel(m)
}

func (s *Store) ListSchedules(ctx context.Context, opts schedule.ListOpts) ([]*schedule.Schedule, error) {
	var models []scheduleModel
	q := s.pg.NewSelect(&models)

	if opts.Status != "" {
		q = q.Where("started = $1", opts.Status == schedule.StatusStarted)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*schedule.Schedule, len(models))
	for i := range models {
		sc, err := fromScheduleModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sc
	}
	return result, nil
}

func (s *Store) MarkStarted(ctx context.Context, scheduleID id.ScheduleID, startedAt time.Time) error {
	res, err := s.pg.NewUpdate((*scheduleModel)(nil)).
		Set("started = $1", true).
		Set("started_at = $2", startedAt).
		Set("updated_at = $3", now()).
		Where("id = $4", scheduleID.String()).
		Where("started = $5", false).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.GetSchedule(ctx, scheduleID); err != nil {
			return err
		}
		return types.ErrAlreadyStarted
	}
	return nil
}

// ==================== Reserve Store ====================

func (s *Store) SaveReserves(ctx context.Context, scheduleID id.ScheduleID, rows []*reserve.Reserve) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := s.GetSchedule(ctx, scheduleID); err != nil {
		return err
	}

	// Rows are upserted one statement at a time: a slice insert drops the
	// DO UPDATE SET clause.
	return s.inTx(ctx, func(tx *pgdriver.PgTx) error {
		for _, r := range rows {
			_, err := tx.NewInsert(toReserveModel(r)).
				OnConflict("(schedule_id, account) DO UPDATE").
				Set("reserved = EXCLUDED.reserved").
				Set("claimed = EXCLUDED.claimed").
				Set("updated_at = EXCLUDED.updated_at").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("vesting/postgres: save reserves: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) ListReserves(ctx context.Context, scheduleID id.ScheduleID) ([]*reserve.Reserve, error) {
	var models []reserveModel
	err := s.pg.NewSelect(&models).
		Where("schedule_id = $1", scheduleID.String()).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*reserve.Reserve, len(models))
	for i := range models {
		r, err := fromReserveModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) GetReserve(ctx context.Context, scheduleID id.ScheduleID, account types.Account) (*reserve.Reserve, error) {
	m := new(reserveModel)
	err := s.pg.NewSelect(m).
		Where("schedule_id = $1", scheduleID.String()).
		Where("account = $2", string(account)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, types.ErrReserveNotFound
		}
		return nil, err
	}
	return fromReserveModel(m)
}

// ==================== Claim Store ====================

// RecordClaim moves the reserve's claimed total and appends the journal row
// in one transaction.
func (s *Store) RecordClaim(ctx context.Context, c *claim.Claim) error {
	return s.inTx(ctx, func(tx *pgdriver.PgTx) error {
		if err := setClaimed(ctx, tx, c.ScheduleID, c.Account, c.ClaimedAfter); err != nil {
			return err
		}
		if _, err := tx.NewInsert(toClaimModel(c)).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return types.ErrAlreadyExists
			}
			return fmt.Errorf("vesting/postgres: record claim: %w", err)
		}
		return nil
	})
}

func (s *Store) RevertClaim(ctx context.Context, c *claim.Claim) error {
	return s.inTx(ctx, func(tx *pgdriver.PgTx) error {
		res, err := tx.NewDelete((*claimModel)(nil)).
			Where("id = $1", c.ID.String()).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return types.ErrClaimNotFound
		}
		return setClaimed(ctx, tx, c.ScheduleID, c.Account, c.ClaimedBefore())
	})
}

func (s *Store) ListClaims(ctx context.Context, scheduleID id.ScheduleID, opts claim.ListOpts) ([]*claim.Claim, error) {
	var models []claimModel
	q := s.pg.NewSelect(&models).Where("schedule_id = $1", scheduleID.String())

	argIdx := 1
	if opts.Account != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("account = $%d", argIdx), string(opts.Account))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*claim.Claim, len(models))
	for i := range models {
		c, err := fromClaimModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *pgdriver.PgTx) error) error {
	tx, err := s.pg.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("vesting/postgres: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("vesting/postgres: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vesting/postgres: commit: %w", err)
	}
	return nil
}

// setClaimed overwrites the claimed total of one reserve row.
func setClaimed(ctx context.Context, tx *pgdriver.PgTx, scheduleID id.ScheduleID, account types.Account, claimed types.Amount) error {
	res, err := tx.NewUpdate((*reserveModel)(nil)).
		Set("claimed = $1", claimed.String()).
		Set("updated_at = $2", now()).
		Where("schedule_id = $3", scheduleID.String()).
		Where("account = $4", string(account)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return types.ErrReserveNotFound
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation matches SQLSTATE 23505 as reported by the pgx driver.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
