package db

import (
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
		id              TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		requirements    TEXT NOT NULL DEFAULT '',
		goal            TEXT NOT NULL DEFAULT '',
		engagement_tier TEXT NOT NULL DEFAULT '',
		budget          NUMERIC(14,2) NOT NULL,
		start_date      TIMESTAMPTZ,
		end_date        TIMESTAMPTZ,
		business_id     TEXT NOT NULL DEFAULT '',
		business_name   TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		applicants      JSONB NOT NULL DEFAULT '[]',
		assigned_to     JSONB,
		assigned_id     TEXT,
		created_at      TIMESTAMPTZ NOT NULL,
		approved_at     TIMESTAMPTZ,
		assigned_at     TIMESTAMPTZ,
		accepted_at     TIMESTAMPTZ,
		rejected_at     TIMESTAMPTZ,
		completed_at    TIMESTAMPTZ,
		updated_at      TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_business ON campaigns (business_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_assigned ON campaigns (assigned_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id            TEXT PRIMARY KEY,
		campaign_id   TEXT NOT NULL UNIQUE,
		influencer_id TEXT NOT NULL,
		amount        NUMERIC(14,2) NOT NULL,
		status        TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS influencers (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		email           TEXT NOT NULL DEFAULT '',
		profile_picture TEXT NOT NULL DEFAULT '',
		handle          TEXT UNIQUE,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
		id              TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		requirements    TEXT NOT NULL DEFAULT '',
		goal            TEXT NOT NULL DEFAULT '',
		engagement_tier TEXT NOT NULL DEFAULT '',
		budget          REAL NOT NULL,
		start_date      TEXT,
		end_date        TEXT,
		business_id     TEXT NOT NULL DEFAULT '',
		business_name   TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		applicants      TEXT NOT NULL DEFAULT '[]',
		assigned_to     TEXT,
		assigned_id     TEXT,
		created_at      TEXT NOT NULL,
		approved_at     TEXT,
		assigned_at     TEXT,
		accepted_at     TEXT,
		rejected_at     TEXT,
		completed_at    TEXT,
		updated_at      TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_business ON campaigns (business_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_assigned ON campaigns (assigned_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id            TEXT PRIMARY KEY,
		campaign_id   TEXT NOT NULL UNIQUE,
		influencer_id TEXT NOT NULL,
		amount        REAL NOT NULL,
		status        TEXT NOT NULL,
		created_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS influencers (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		email           TEXT NOT NULL DEFAULT '',
		profile_picture TEXT NOT NULL DEFAULT '',
		handle          TEXT UNIQUE,
		created_at      TEXT NOT NULL
	)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(database *sql.DB, dialect Dialect) error {
	stmts := postgresSchema
	if dialect == SQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
