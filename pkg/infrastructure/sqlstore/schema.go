package sqlstore

// Portable DDL: quantities are decimal strings and timestamps RFC 3339 strings,
// so the same statements run on SQLite and Postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS mrp_runs (
		id                TEXT PRIMARY KEY,
		scope             TEXT NOT NULL,
		as_of             TEXT NOT NULL,
		status            TEXT NOT NULL,
		started_at        TEXT NOT NULL DEFAULT '',
		finished_at       TEXT NOT NULL DEFAULT '',
		items_processed   INTEGER NOT NULL DEFAULT 0,
		shortages_found   INTEGER NOT NULL DEFAULT 0,
		planned_orders    INTEGER NOT NULL DEFAULT 0,
		warnings_recorded INTEGER NOT NULL DEFAULT 0,
		warnings          TEXT NOT NULL DEFAULT '[]',
		failure_reason    TEXT NOT NULL DEFAULT '',
		failed_item       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mrp_runs_scope_status ON mrp_runs (scope, status)`,
	`CREATE TABLE IF NOT EXISTS net_requirements (
		id                TEXT PRIMARY KEY,
		run_id            TEXT NOT NULL,
		part_number       TEXT NOT NULL,
		low_level_code    INTEGER NOT NULL,
		bucket_index      INTEGER NOT NULL,
		bucket_start      TEXT NOT NULL,
		gross_requirement TEXT NOT NULL,
		scheduled_supply  TEXT NOT NULL,
		available_supply  TEXT NOT NULL,
		net_requirement   TEXT NOT NULL,
		projected_balance TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_net_requirements_run ON net_requirements (run_id, part_number)`,
	`CREATE TABLE IF NOT EXISTS planned_orders (
		id                  TEXT PRIMARY KEY,
		run_id              TEXT NOT NULL,
		scope               TEXT NOT NULL,
		part_number         TEXT NOT NULL,
		quantity            TEXT NOT NULL,
		release_date        TEXT NOT NULL,
		due_date            TEXT NOT NULL,
		status              TEXT NOT NULL,
		kind                TEXT NOT NULL,
		net_requirement_ids TEXT NOT NULL DEFAULT '[]',
		incomplete          INTEGER NOT NULL DEFAULT 0,
		superseded_by       TEXT NOT NULL DEFAULT '',
		created_at          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_planned_orders_run ON planned_orders (run_id, part_number)`,
	`CREATE INDEX IF NOT EXISTS idx_planned_orders_scope ON planned_orders (scope, part_number, status)`,
}
