// Package sqlstore persists runs, net requirements and planned orders in SQLite or Postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store implements repositories.PlanningStore over database/sql
type Store struct {
	db *sqlx.DB
}

// Verify interface compliance
var _ repositories.PlanningStore = (*Store)(nil)

// Open connects to dsn with driver ("sqlite" or "pgx"; "postgres" is accepted
// as an alias) and creates the schema when missing.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	case "postgres":
		driver = DriverPostgres
	default:
		return nil, fmt.Errorf("unsupported SQL driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one connection keeps :memory: databases shared and avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

const runColumns = `id, scope, as_of, status, started_at, finished_at, items_processed,
	shortages_found, planned_orders, warnings_recorded, warnings, failure_reason, failed_item`

const requirementColumns = `id, run_id, part_number, low_level_code, bucket_index, bucket_start,
	gross_requirement, scheduled_supply, available_supply, net_requirement, projected_balance`

const orderColumns = `id, run_id, scope, part_number, quantity, release_date, due_date, status,
	kind, net_requirement_ids, incomplete, superseded_by, created_at`

func (s *Store) CreateRun(ctx context.Context, run *entities.MRPRun) error {
	row, err := toRunRow(run)
	if err != nil {
		return err
	}
	query := `INSERT INTO mrp_runs (` + runColumns + `) VALUES (
		:id, :scope, :as_of, :status, :started_at, :finished_at, :items_processed,
		:shortages_found, :planned_orders, :warnings_recorded, :warnings, :failure_reason, :failed_item)`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) UpdateRun(ctx context.Context, run *entities.MRPRun) error {
	row, err := toRunRow(run)
	if err != nil {
		return err
	}
	query := `UPDATE mrp_runs SET
		status = :status, started_at = :started_at, finished_at = :finished_at,
		items_processed = :items_processed, shortages_found = :shortages_found,
		planned_orders = :planned_orders, warnings_recorded = :warnings_recorded,
		warnings = :warnings, failure_reason = :failure_reason, failed_item = :failed_item
		WHERE id = :id`
	result, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}
	return expectRow(result, "run "+run.ID)
}

func (s *Store) GetRun(ctx context.Context, runID string) (*entities.MRPRun, error) {
	var row runRow
	query := s.db.Rebind(`SELECT ` + runColumns + ` FROM mrp_runs WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, query, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", runID, entities.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return row.toEntity()
}

func (s *Store) FindActiveRun(ctx context.Context, scope string) (*entities.MRPRun, error) {
	var row runRow
	query := s.db.Rebind(`SELECT ` + runColumns + ` FROM mrp_runs
		WHERE scope = ? AND status IN (?, ?) ORDER BY as_of LIMIT 1`)
	err := s.db.GetContext(ctx, &row, query, scope, string(entities.RunPending), string(entities.RunRunning))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active run for scope %s: %w", scope, entities.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find active run for scope %s: %w", scope, err)
	}
	return row.toEntity()
}

// SaveItemPlan writes one item's output in a single transaction
func (s *Store) SaveItemPlan(
	ctx context.Context,
	runID, scope string,
	partNumber entities.PartNumber,
	requirements []*entities.NetRequirement,
	orders []*entities.PlannedOrder,
) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	supersede := tx.Rebind(`UPDATE planned_orders SET superseded_by = ?
		WHERE scope = ? AND part_number = ? AND run_id <> ? AND status = ? AND superseded_by = ''`)
	if _, err = tx.ExecContext(ctx, supersede, runID, scope, string(partNumber), runID, string(entities.OrderPlanned)); err != nil {
		return fmt.Errorf("failed to supersede orders of %s: %w", partNumber, err)
	}

	insertRequirement := `INSERT INTO net_requirements (` + requirementColumns + `) VALUES (
		:id, :run_id, :part_number, :low_level_code, :bucket_index, :bucket_start,
		:gross_requirement, :scheduled_supply, :available_supply, :net_requirement, :projected_balance)`
	for _, req := range requirements {
		if _, err = tx.NamedExecContext(ctx, insertRequirement, toRequirementRow(req)); err != nil {
			return fmt.Errorf("failed to insert net requirement for %s: %w", partNumber, err)
		}
	}

	insertOrder := `INSERT INTO planned_orders (` + orderColumns + `) VALUES (
		:id, :run_id, :scope, :part_number, :quantity, :release_date, :due_date, :status,
		:kind, :net_requirement_ids, :incomplete, :superseded_by, :created_at)`
	for _, order := range orders {
		row, convErr := toOrderRow(order)
		if convErr != nil {
			err = convErr
			return err
		}
		if _, err = tx.NamedExecContext(ctx, insertOrder, row); err != nil {
			return fmt.Errorf("failed to insert planned order for %s: %w", partNumber, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan of %s: %w", partNumber, err)
	}
	return nil
}

func (s *Store) SupersedeScope(ctx context.Context, runID, scope string) (int, error) {
	query := s.db.Rebind(`UPDATE planned_orders SET superseded_by = ?
		WHERE scope = ? AND run_id <> ? AND status = ? AND superseded_by = ''`)
	result, err := s.db.ExecContext(ctx, query, runID, scope, runID, string(entities.OrderPlanned))
	if err != nil {
		return 0, fmt.Errorf("failed to supersede orders in scope %s: %w", scope, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to supersede orders in scope %s: %w", scope, err)
	}
	return int(n), nil
}

func (s *Store) ListNetRequirements(ctx context.Context, runID string, partNumber entities.PartNumber) ([]*entities.NetRequirement, error) {
	query := `SELECT ` + requirementColumns + ` FROM net_requirements WHERE run_id = ?`
	args := []any{runID}
	if partNumber != "" {
		query += ` AND part_number = ?`
		args = append(args, string(partNumber))
	}
	query += ` ORDER BY low_level_code, part_number, bucket_index`

	var rows []requirementRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list net requirements of run %s: %w", runID, err)
	}
	out := make([]*entities.NetRequirement, 0, len(rows))
	for _, row := range rows {
		req, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *Store) ListPlannedOrders(ctx context.Context, runID string, partNumber entities.PartNumber) ([]*entities.PlannedOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM planned_orders WHERE run_id = ?`
	args := []any{runID}
	if partNumber != "" {
		query += ` AND part_number = ?`
		args = append(args, string(partNumber))
	}
	query += ` ORDER BY part_number, due_date, id`
	return s.selectOrders(ctx, query, args...)
}

func (s *Store) ListCommittedOrders(ctx context.Context, scope string) ([]*entities.PlannedOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM planned_orders
		WHERE scope = ? AND status IN (?, ?) AND superseded_by = ''
		ORDER BY part_number, due_date, id`
	return s.selectOrders(ctx, query, scope, string(entities.OrderFirmed), string(entities.OrderReleased))
}

func (s *Store) selectOrders(ctx context.Context, query string, args ...any) ([]*entities.PlannedOrder, error) {
	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list planned orders: %w", err)
	}
	out := make([]*entities.PlannedOrder, 0, len(rows))
	for _, row := range rows {
		order, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

func (s *Store) GetPlannedOrder(ctx context.Context, orderID string) (*entities.PlannedOrder, error) {
	var row orderRow
	query := s.db.Rebind(`SELECT ` + orderColumns + ` FROM planned_orders WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("planned order %s: %w", orderID, entities.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get planned order %s: %w", orderID, err)
	}
	return row.toEntity()
}

func (s *Store) UpdatePlannedOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) error {
	query := s.db.Rebind(`UPDATE planned_orders SET status = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, string(status), orderID)
	if err != nil {
		return fmt.Errorf("failed to update planned order %s: %w", orderID, err)
	}
	return expectRow(result, "planned order "+orderID)
}

func (s *Store) MarkRunIncomplete(ctx context.Context, runID string) error {
	query := s.db.Rebind(`UPDATE planned_orders SET incomplete = 1 WHERE run_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to flag orders of run %s incomplete: %w", runID, err)
	}
	return nil
}

func expectRow(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, entities.ErrNotFound)
	}
	return nil
}
