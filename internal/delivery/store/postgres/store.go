// Package postgres provides a Postgres-backed delivery queue.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evergreenlabs/leadscope/internal/delivery"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for the queue.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type queryExecCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// Store persists queued deliveries in a Postgres table.
type Store struct {
	pool    queryExecCloser
	table   string
	builder sq.StatementBuilderType
}

// New creates a Postgres-backed delivery queue using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("delivery.store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewWithPool(pool, cfg.Table)
}

// NewWithPool constructs a store from an existing pool (primarily for
// testing).
func NewWithPool(pool queryExecCloser, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "webhook_queue"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{
		pool:    pool,
		table:   table,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

var _ delivery.Store = (*Store)(nil)

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Append inserts a queued delivery.
func (s *Store) Append(ctx context.Context, entry delivery.QueuedDelivery) error {
	if entry.ID == "" {
		return fmt.Errorf("entry id is required")
	}
	leadJSON, err := json.Marshal(entry.Lead)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}

	query, args, err := s.builder.
		Insert(s.table).
		Columns("id", "lead", "analysis", "created_at", "attempts").
		Values(entry.ID, leadJSON, []byte(entry.Analysis), entry.CreatedAt, entry.Attempts).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert queued delivery: %w", err)
	}
	return nil
}

// List returns every queued delivery, oldest first.
func (s *Store) List(ctx context.Context) ([]delivery.QueuedDelivery, error) {
	query, args, err := s.builder.
		Select("id", "lead", "analysis", "created_at", "attempts").
		From(s.table).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queued deliveries: %w", err)
	}
	defer rows.Close()

	var entries []delivery.QueuedDelivery
	for rows.Next() {
		var (
			entry    delivery.QueuedDelivery
			leadJSON []byte
			analysis []byte
		)
		if err := rows.Scan(&entry.ID, &leadJSON, &analysis, &entry.CreatedAt, &entry.Attempts); err != nil {
			return nil, fmt.Errorf("scan queued delivery: %w", err)
		}
		if err := json.Unmarshal(leadJSON, &entry.Lead); err != nil {
			return nil, fmt.Errorf("decode lead for %s: %w", entry.ID, err)
		}
		entry.Analysis = json.RawMessage(analysis)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queued deliveries: %w", err)
	}
	return entries, nil
}

// IncrementAttempts bumps the attempt counter for an entry.
func (s *Store) IncrementAttempts(ctx context.Context, id string) error {
	query, args, err := s.builder.
		Update(s.table).
		Set("attempts", sq.Expr("attempts + 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delivery %q not found", id)
	}
	return nil
}

// Remove deletes an entry.
func (s *Store) Remove(ctx context.Context, id string) error {
	query, args, err := s.builder.
		Delete(s.table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("remove queued delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delivery %q not found", id)
	}
	return nil
}
