package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type testRows struct {
	rows []func(dest ...any) error
	idx  int
	err  error
}

func (r *testRows) Close()                                       {}
func (r *testRows) Err() error                                   { return r.err }
func (r *testRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *testRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *testRows) Conn() *pgx.Conn                              { return nil }
func (r *testRows) RawValues() [][]byte                          { return nil }

func (r *testRows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (r *testRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *testRows) Scan(dest ...any) error {
	return r.rows[r.idx-1](dest...)
}

type execCall struct {
	query string
	args  []any
}

// stubSQL records calls and answers reads through the configured funcs.
type stubSQL struct {
	execs    []execCall
	execErr  error
	execTag  string
	queryRow func(query string, args ...any) pgx.Row
	query    func(query string, args ...any) (pgx.Rows, error)
}

func (s *stubSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, execCall{query: query, args: args})
	tag := s.execTag
	if tag == "" {
		tag = "INSERT 0 1"
	}
	return pgconn.NewCommandTag(tag), s.execErr
}

func (s *stubSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	if s.queryRow == nil {
		return simpleRow{}
	}
	return s.queryRow(query, args...)
}

func (s *stubSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	if s.query == nil {
		return &testRows{}, nil
	}
	return s.query(query, args...)
}
