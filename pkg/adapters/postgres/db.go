// Package postgres provides the durable store adapters: conversations with
// optimistic versioning, the append-only message journal, drafts, and
// canonical requests with draft-keyed idempotent creation.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the shared connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool against the given DSN.
func Connect(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close releases the pool.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ready verifies connectivity.
func (db *DB) Ready(ctx context.Context) error {
	var one int
	return db.Pool.QueryRow(ctx, "select 1").Scan(&one)
}

// schema is idempotent DDL applied at startup. The partial unique index on
// active conversations enforces the at-most-one-active invariant per
// (senior, campaign) at the storage level, not just in application code.
const schema = `
create table if not exists conversations (
	id            text primary key,
	senior_id     text not null,
	campaign      text not null,
	current_state text not null,
	extended      jsonb not null default '{"v":1,"kv":{}}'::jsonb,
	active        boolean not null default true,
	version       bigint not null default 0,
	created_at    timestamptz not null default now(),
	updated_at    timestamptz not null default now()
);

create unique index if not exists conversations_one_active
	on conversations (senior_id, campaign) where active;

create table if not exists messages (
	id              text primary key,
	conversation_id text not null references conversations(id),
	direction       text not null,
	content         text not null default '',
	event           text not null default '',
	created_at      timestamptz not null default now()
);

create index if not exists messages_by_conversation
	on messages (conversation_id, created_at);

create table if not exists drafts (
	id              text primary key,
	senior_id       text not null,
	request_type_id text not null default '',
	title           text not null default '',
	description     text not null default '',
	priority        int not null default 0,
	created_at      timestamptz not null default now(),
	updated_at      timestamptz not null default now()
);

create table if not exists requests (
	id              text primary key,
	senior_id       text not null,
	request_type_id text not null,
	title           text not null,
	description     text not null,
	priority        int not null,
	draft_id        text not null unique,
	created_at      timestamptz not null default now()
);

create table if not exists request_types (
	id   text primary key,
	name text not null unique
);
`

// Migrate applies the schema.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
