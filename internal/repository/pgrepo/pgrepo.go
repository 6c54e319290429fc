// Package pgrepo stores domain events in PostgreSQL.
//
// The database owns the active-set derivation (get_active_domain_records) and the bulk
// insert (insert_domain_records); this package only calls them.
package pgrepo

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JacobBogossian/DomainTracker/internal/model"
)

// Schema creates the table, function and procedure the repository expects
//
//go:embed schema.sql
var Schema string

// Querier is the subset of pgxpool.Pool the repository uses
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository is a PostgreSQL implementation of model.EventStore
type PostgresRepository struct {
	db    Querier
	close func()
}

// Connect opens a pool for dsn and verifies it with a ping.
// Every failure wraps model.ErrStoreConnect.
func Connect(ctx context.Context, dsn string) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse connection string: %v", model.ErrStoreConnect, err)
	}

	// One read and two writes per run, issued sequentially
	poolConfig.MaxConns = 2
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Minute * 30
	poolConfig.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create connection pool: %v", model.ErrStoreConnect, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", model.ErrStoreConnect, err)
	}

	return &PostgresRepository{db: pool, close: pool.Close}, nil
}

// New wraps an existing connection or pool. Close on the result is a no-op.
func New(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ActiveRecords calls get_active_domain_records()
func (r *PostgresRepository) ActiveRecords(ctx context.Context) ([]model.ActiveRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, domain, "timestamp" FROM get_active_domain_records()`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active domain records: %w", err)
	}
	defer rows.Close()

	records := []model.ActiveRecord{}
	for rows.Next() {
		var (
			id     int64
			record model.ActiveRecord
		)
		if err := rows.Scan(&id, &record.Domain, &record.Since); err != nil {
			return nil, fmt.Errorf("failed to scan active domain record: %w", err)
		}
		record.ID = strconv.FormatInt(id, 10)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active domain records: %w", err)
	}

	return records, nil
}

// Append calls insert_domain_records with three equal-length arrays in one statement,
// which runs as a single transaction.
func (r *PostgresRepository) Append(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	domains, actions, timestamps := model.EventColumns(events)
	for i := range timestamps {
		timestamps[i] = timestamps[i].UTC()
	}

	if _, err := r.db.Exec(ctx, `CALL insert_domain_records($1, $2, $3)`, domains, actions, timestamps); err != nil {
		return fmt.Errorf("failed to insert domain records: %w", err)
	}

	return nil
}

// History returns every record for domain, oldest first
func (r *PostgresRepository) History(ctx context.Context, domain string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, domain, action, "timestamp"
		 FROM domain_records
		 WHERE domain = $1
		 ORDER BY "timestamp", id`,
		domain,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query domain history: %w", err)
	}

	events, err := pgx.CollectRows(rows, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to scan domain history: %w", err)
	}
	if len(events) == 0 {
		return nil, model.ErrNotFound
	}

	return events, nil
}

func scanEvent(row pgx.CollectableRow) (model.Event, error) {
	var (
		id     int64
		action string
		ev     model.Event
	)
	if err := row.Scan(&id, &ev.Domain, &action, &ev.Timestamp); err != nil {
		return model.Event{}, err
	}
	ev.ID = strconv.FormatInt(id, 10)
	ev.Action = model.Action(action)
	if !ev.Action.Valid() {
		return model.Event{}, fmt.Errorf("record %d has unknown action %q", id, action)
	}
	return ev, nil
}

// Close closes the pool opened by Connect
func (r *PostgresRepository) Close() error {
	if r.close != nil {
		r.close()
	}
	return nil
}
