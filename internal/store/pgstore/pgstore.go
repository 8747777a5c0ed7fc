// Package pgstore is the Postgres core.Store.
//
// Each record is one row: the filterable fields are promoted to columns and
// the full record is kept as a JSONB document, so the API shape never needs
// a migration. Rows are listed in insertion order via a bigserial column.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/translocations/internal/core"
	"github.com/JonMunkholm/translocations/internal/schema"
)

// Config holds pool and table settings.
type Config struct {
	URL             string
	Table           string
	MaxConns        int
	MinConns        int
	MaxConnIdleTime time.Duration
	OpTimeout       time.Duration
}

// copyColumns is the column order used by ReplaceAll's COPY.
var copyColumns = []string{"id", "species", "year", "transport", "special_project", "number_of_animals", "created_at", "doc"}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store keeps records in one table.
type Store struct {
	pool      *pgxpool.Pool
	table     string // sanitized identifier
	tableName string
	opTimeout time.Duration
}

var _ core.Store = (*Store)(nil)

// Open creates the pool, pings it and ensures the table exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	s := New(pool, cfg.Table, cfg.OpTimeout)
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, table string, opTimeout time.Duration) *Store {
	return &Store{
		pool:      pool,
		table:     pgx.Identifier{table}.Sanitize(),
		tableName: table,
		opTimeout: opTimeout,
	}
}

// EnsureSchema creates the table and its filter index if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	index := pgx.Identifier{s.tableName + "_filter_idx"}.Sanitize()
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	seq               BIGSERIAL,
	id                TEXT PRIMARY KEY,
	species           TEXT NOT NULL,
	year              INTEGER NOT NULL,
	transport         TEXT NOT NULL,
	special_project   TEXT NOT NULL DEFAULT '',
	number_of_animals INTEGER NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	doc               JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s (species, year, transport, special_project);`, s.table, index)

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *Store) Create(ctx context.Context, rec schema.Translocation) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row, err := rowValues(rec)
	if err != nil {
		return err
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		s.table, strings.Join(copyColumns, ", "))
	if _, err := s.pool.Exec(ctx, sql, row...); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, f schema.Filter) ([]schema.Translocation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sql, args := listQuery(s.table, f)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	out := make([]schema.Translocation, 0, len(docs))
	for _, d := range docs {
		var rec schema.Translocation
		if err := json.Unmarshal(d, &rec); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Update merges the input fields over the stored document, which keeps id
// and created_at untouched.
func (s *Store) Update(ctx context.Context, id string, in schema.TranslocationInput) (schema.Translocation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	patch, err := json.Marshal(in)
	if err != nil {
		return schema.Translocation{}, fmt.Errorf("encode input: %w", err)
	}

	sql := fmt.Sprintf(`UPDATE %s SET
	species = $2, year = $3, transport = $4, special_project = $5, number_of_animals = $6,
	doc = doc || $7::jsonb
WHERE id = $1
RETURNING doc`, s.table)

	var doc []byte
	err = s.pool.QueryRow(ctx, sql, id,
		string(in.Species), in.Year, string(in.Transport), string(in.SpecialProject), in.NumberOfAnimals,
		string(patch),
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return schema.Translocation{}, core.ErrNotFound
	}
	if err != nil {
		return schema.Translocation{}, fmt.Errorf("update: %w", err)
	}

	var rec schema.Translocation
	if err := json.Unmarshal(doc, &rec); err != nil {
		return schema.Translocation{}, fmt.Errorf("decode document: %w", err)
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table), id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (schema.Stats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT species, COALESCE(SUM(number_of_animals), 0), COUNT(*) FROM %s GROUP BY species", s.table))
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	stats := schema.Stats{}
	for rows.Next() {
		var (
			species   string
			animals   int64
			translocs int64
		)
		if err := rows.Scan(&species, &animals, &translocs); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[schema.Species(species)] = schema.SpeciesStat{
			TotalAnimals:        int(animals),
			TotalTranslocations: int(translocs),
		}
	}
	return stats, rows.Err()
}

// ReplaceAll clears the table and bulk loads recs with COPY inside one
// transaction, so readers never see a partial set.
func (s *Store) ReplaceAll(ctx context.Context, recs []schema.Translocation) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows := make([][]any, len(recs))
	for i, rec := range recs {
		row, err := rowValues(rec)
		if err != nil {
			return err
		}
		rows[i] = row
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return fmt.Errorf("clear table: %w", err)
	}

	if len(rows) > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{s.tableName}, copyColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy %d records: %w", len(rows), err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy: wrote %d of %d records", n, len(rows))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

// rowValues returns rec in copyColumns order.
func rowValues(rec schema.Translocation) ([]any, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	return []any{
		rec.ID,
		string(rec.Species),
		rec.Year,
		string(rec.Transport),
		string(rec.SpecialProject),
		rec.NumberOfAnimals,
		rec.CreatedAt,
		json.RawMessage(doc),
	}, nil
}

// listQuery builds the filtered select. Only set filter fields add
// predicates; values are always bound as parameters.
func listQuery(table string, f schema.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if f.Species != "" {
		add("species", string(f.Species))
	}
	if f.Year != 0 {
		add("year", f.Year)
	}
	if f.Transport != "" {
		add("transport", string(f.Transport))
	}
	if f.SpecialProject != schema.SpecialProjectNone {
		add("special_project", string(f.SpecialProject))
	}

	sql := "SELECT doc FROM " + table
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	return sql + " ORDER BY seq", args
}
