package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the vesting store.
var Migrations = migrate.NewGroup("vesting")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vesting_schedules",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vesting_schedules (
    id              TEXT PRIMARY KEY,
    label           TEXT NOT NULL DEFAULT '',
    period_ns       BIGINT NOT NULL,
    cliff           BIGINT NOT NULL DEFAULT 0,
    vesting_periods BIGINT NOT NULL DEFAULT 0,
    initial_release BIGINT NOT NULL DEFAULT 0,
    asset           TEXT NOT NULL DEFAULT '',
    started         BOOLEAN NOT NULL DEFAULT FALSE,
    started_at      TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_vesting_schedules_label ON vesting_schedules (label);
CREATE INDEX IF NOT EXISTS idx_vesting_schedules_started ON vesting_schedules (started);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vesting_schedules`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vesting_reserves",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vesting_reserves (
    id          TEXT PRIMARY KEY,
    schedule_id TEXT NOT NULL REFERENCES vesting_schedules (id),
    account     TEXT NOT NULL,
    position    INT NOT NULL,
    reserved    TEXT NOT NULL DEFAULT '0',
    claimed     TEXT NOT NULL DEFAULT '0',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_vesting_reserves_account ON vesting_reserves (schedule_id, account);
CREATE UNIQUE INDEX IF NOT EXISTS idx_vesting_reserves_position ON vesting_reserves (schedule_id, position);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vesting_reserves`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vesting_claims",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vesting_claims (
    id            TEXT PRIMARY KEY,
    schedule_id   TEXT NOT NULL REFERENCES vesting_schedules (id),
    account       TEXT NOT NULL,
    amount        TEXT NOT NULL,
    claimed_after TEXT NOT NULL,
    batch         BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vesting_claims_account ON vesting_claims (schedule_id, account, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vesting_claims`)
				return err
			},
		},
	)
}
