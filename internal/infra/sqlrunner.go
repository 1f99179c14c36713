package infra

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SQLExecutor is the query surface the repositories depend on.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

// ErrSQLMarker is returned for queries that do not start with a
// `--sql <uuid>` line.
var ErrSQLMarker = errors.New("sql: marker missing or invalid")

var markerPattern = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)

// SQLRunner runs marker-tagged statements on the pool. Every call is logged
// with its marker id and duration so slow job writes can be traced back to
// the statement in internal/sqlinline.
type SQLRunner struct {
	Pool   *pgxpool.Pool
	Logger zerolog.Logger
}

func NewSQLRunner(pool *pgxpool.Pool, logger zerolog.Logger) *SQLRunner {
	return &SQLRunner{Pool: pool, Logger: logger.With().Str("component", "sql").Logger()}
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	stmt, err := parseStatement(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	start := time.Now()
	tag, err := r.Pool.Exec(ctx, stmt.body, args...)
	r.trace(stmt.marker, "exec", start, err).Int64("rows", tag.RowsAffected()).Send()
	return tag, err
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	stmt, err := parseStatement(query)
	if err != nil {
		return failedRow{err: err}
	}
	return tracedRow{
		row:    r.Pool.QueryRow(ctx, stmt.body, args...),
		runner: r,
		marker: stmt.marker,
		start:  time.Now(),
	}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	stmt, err := parseStatement(query)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := r.Pool.Query(ctx, stmt.body, args...)
	if err != nil {
		r.trace(stmt.marker, "query", start, err).Send()
		return nil, err
	}
	return &tracedRows{Rows: rows, runner: r, marker: stmt.marker, start: start}, nil
}

// trace starts a log event for one statement; failures are logged at error
// level, everything else at debug.
func (r *SQLRunner) trace(marker, op string, start time.Time, err error) *zerolog.Event {
	event := r.Logger.Debug()
	if err != nil && !IsNoRows(err) {
		event = r.Logger.Error().Err(err)
	}
	return event.Str("sql", marker).Str("op", op).Dur("elapsed", time.Since(start))
}

type tracedRow struct {
	row    pgx.Row
	runner *SQLRunner
	marker string
	start  time.Time
}

func (t tracedRow) Scan(dest ...any) error {
	err := t.row.Scan(dest...)
	t.runner.trace(t.marker, "query_row", t.start, err).Bool("found", !IsNoRows(err)).Send()
	return err
}

type tracedRows struct {
	pgx.Rows
	runner *SQLRunner
	marker string
	start  time.Time
	count  int
}

func (t *tracedRows) Next() bool {
	if t.Rows.Next() {
		t.count++
		return true
	}
	return false
}

func (t *tracedRows) Close() {
	t.Rows.Close()
	t.runner.trace(t.marker, "query", t.start, t.Rows.Err()).Int("rows", t.count).Send()
}

type failedRow struct {
	err error
}

func (f failedRow) Scan(...any) error {
	return f.err
}

type statement struct {
	marker string
	body   string
}

// parseStatement splits the marker line from the SQL that is sent to Postgres.
func parseStatement(query string) (statement, error) {
	first, rest, _ := strings.Cut(strings.TrimSpace(query), "\n")
	m := markerPattern.FindStringSubmatch(strings.TrimSpace(first))
	if m == nil {
		return statement{}, ErrSQLMarker
	}
	body := strings.TrimSpace(rest)
	if body == "" {
		return statement{}, fmt.Errorf("sql %s: empty statement", m[1])
	}
	return statement{marker: m[1], body: body}, nil
}

// IsNoRows reports whether err signals an empty result set.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

var _ SQLExecutor = (*SQLRunner)(nil)
