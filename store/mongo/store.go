package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/reserve"
	"github.com/xraph/vesting/schedule"
	vestingstore "github.com/xraph/vesting/store"
	"github.com/xraph/vesting/types"
)

// Collection name constants.
const (
	colSchedules = "vesting_schedules"
	colReserves  = "vesting_reserves"
	colClaims    = "vesting_claims"
)

// compile-time interface check
var _ vestingstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all vesting collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("vesting/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: schedule %q", types.ErrAlreadyExists, sc.Label)
		}
		return fmt.Errorf("vesting/mongo: create schedule: %w", err)
	}
	return nil
}

func (s *Store) GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error) {
	var m scheduleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": scheduleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, types.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("vesting/mongo: get schedule: %w", err)
	}
	return fromScheduleModel(&m)
}

func (s *Store) GetScheduleByLabel(ctx context.Context, label string) (*schedule.Schedule, error) {
	var m scheduleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"label": label}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, types.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("vesting/mongo: get schedule by label: %w", err)
	}
	return fromScheduleModel(&m)
}

func (s *Store) ListSchedules(ctx context.Context, opts schedule.ListOpts) ([]*schedule.Schedule, error) {
	var models []scheduleModel

	filter := bson.M{}
	if opts.Status != "" {
		filter["started"] = opts.Status == schedule.StatusStarted
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vesting/mongo: list schedules: %w", err)
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
	res, err := s.mdb.NewUpdate((*scheduleModel)(nil)).
		Filter(bson.M{"_id": scheduleID.String(), "started": false}).
		Set("started", true).
		Set("started_at", startedAt).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: mark started: %w", err)
	}
	if res.MatchedCount() == 0 {
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

	for _, r := range rows {
		m := toReserveModel(r)
		_, err := s.mdb.NewUpdate(m).
			Filter(bson.M{"schedule_id": m.ScheduleID, "account": m.Account}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"reserved":   m.Reserved,
					"claimed":    m.Claimed,
					"updated_at": m.UpdatedAt,
				},
				"$setOnInsert": bson.M{
					"_id":        m.ID,
					"position":   m.Position,
					"created_at": m.CreatedAt,
				},
			}).
			Upsert().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("vesting/mongo: save reserve %s: %w", m.Account, err)
		}
	}
	return nil
}

func (s *Store) ListReserves(ctx context.Context, scheduleID id.ScheduleID) ([]*reserve.Reserve, error) {
	var models []reserveModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"schedule_id": scheduleID.String()}).
		Sort(bson.D{{Key: "position", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("vesting/mongo: list reserves: %w", err)
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
	var m reserveModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"schedule_id": scheduleID.String(), "account": string(account)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, types.ErrReserveNotFound
		}
		return nil, fmt.Errorf("vesting/mongo: get reserve: %w", err)
	}
	return fromReserveModel(&m)
}

// ==================== Claim Store ====================

func (s *Store) RecordClaim(ctx context.Context, c *claim.Claim) error {
	if err := s.setClaimed(ctx, c.ScheduleID, c.Account, c.ClaimedAfter); err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(toClaimModel(c)).Exec(ctx); err != nil {
		_ = s.setClaimed(context.WithoutCancel(ctx), c.ScheduleID, c.Account, c.ClaimedBefore()) //nolint:errcheck // best-effort
		if mongo.IsDuplicateKeyError(err) {
			return types.ErrAlreadyExists
		}
		return fmt.Errorf("vesting/mongo: record claim: %w", err)
	}
	return nil
}

func (s *Store) RevertClaim(ctx context.Context, c *claim.Claim) error {
	res, err := s.mdb.NewDelete((*claimModel)(nil)).
		Filter(bson.M{"_id": c.ID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: revert claim: %w", err)
	}
	if res.DeletedCount() == 0 {
		return types.ErrClaimNotFound
	}
	return s.setClaimed(ctx, c.ScheduleID, c.Account, c.ClaimedBefore())
}

func (s *Store) ListClaims(ctx context.Context, scheduleID id.ScheduleID, opts claim.ListOpts) ([]*claim.Claim, error) {
	var models []claimModel

	filter := bson.M{"schedule_id": scheduleID.String()}
	if opts.Account != "" {
		filter["account"] = string(opts.Account)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vesting/mongo: list claims: %w", err)
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

func (s *Store) setClaimed(ctx context.Context, scheduleID id.ScheduleID, account types.Account, claimed types.Amount) error {
	res, err := s.mdb.NewUpdate((*reserveModel)(nil)).
		Filter(bson.M{"schedule_id": scheduleID.String(), "account": string(account)}).
		Set("claimed", claimed.String()).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: set claimed: %w", err)
	}
	if res.MatchedCount() == 0 {
		return types.ErrReserveNotFound
	}
	return nil
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all vesting collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSchedules: {
			{
				Keys:    bson.D{{Key: "label", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "started", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colReserves: {
			{
				Keys:    bson.D{{Key: "schedule_id", Value: 1}, {Key: "account", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "schedule_id", Value: 1}, {Key: "position", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colClaims: {
			{Keys: bson.D{{Key: "schedule_id", Value: 1}, {Key: "account", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}
}
