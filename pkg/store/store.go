// Package store persists parsed association sets and comparison runs in
// SQLite or Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/coolbeans/assockit/pkg/association"
)

// ErrSetNotFound is returned when no associations are stored under a set name.
var ErrSetNotFound = errors.New("association set not found")

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store is a database of association sets and comparison runs.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to a postgres:// DSN, or otherwise treats dsn as a SQLite
// file path, and creates the tables when missing.
func Open(ctx context.Context, dsn string) (*Store, error) {
	store := &Store{}
	var err error
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		store.dialect = dialectPostgres
		store.db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	} else {
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			path = "assockit.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
		store.dialect = dialectSQLite
		store.db, err = sql.Open("sqlite", path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	}

	if err := store.db.PingContext(ctx); err != nil {
		store.db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := store.ensureSchema(ctx); err != nil {
		store.db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS associations (
		set_name TEXT NOT NULL,
		position INTEGER NOT NULL,
		subject TEXT NOT NULL,
		object TEXT NOT NULL,
		negated INTEGER NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (set_name, position)
	)`,
	`CREATE TABLE IF NOT EXISTS comparisons (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		reference_name TEXT NOT NULL,
		candidate_name TEXT NOT NULL,
		processed INTEGER NOT NULL,
		exact_matches INTEGER NOT NULL,
		close_matches INTEGER NOT NULL,
		unmatched INTEGER NOT NULL
	)`,
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, statement := range schema {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites '?' placeholders to '$n' for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var builder strings.Builder
	position := 0
	for _, r := range query {
		if r == '?' {
			position++
			builder.WriteString("$" + strconv.Itoa(position))
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// SaveAssociations replaces the set stored under name.
func (s *Store) SaveAssociations(ctx context.Context, name string, associations []*association.GoAssociation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM associations WHERE set_name = ?`), name); err != nil {
		return fmt.Errorf("clear set %s: %w", name, err)
	}

	insert, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO associations (set_name, position, subject, object, negated, payload) VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	for position, assoc := range associations {
		payload, err := json.Marshal(assoc)
		if err != nil {
			return fmt.Errorf("encode association %d: %w", position, err)
		}
		negated := 0
		if assoc.Negated {
			negated = 1
		}
		if _, err := insert.ExecContext(ctx, name, position, assoc.Subject.String(), assoc.Object.String(), negated, string(payload)); err != nil {
			return fmt.Errorf("insert association %d: %w", position, err)
		}
	}
	return tx.Commit()
}

// LoadAssociations returns the set stored under name in its original order.
func (s *Store) LoadAssociations(ctx context.Context, name string) ([]*association.GoAssociation, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT payload FROM associations WHERE set_name = ? ORDER BY position`), name)
	if err != nil {
		return nil, fmt.Errorf("select set %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	var associations []*association.GoAssociation
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var assoc association.GoAssociation
		if err := json.Unmarshal([]byte(payload), &assoc); err != nil {
			return nil, fmt.Errorf("decode association: %w", err)
		}
		associations = append(associations, &assoc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(associations) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSetNotFound, name)
	}
	return associations, nil
}

// timestampLayout sorts lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ComparisonRun is the stored tally of one comparison.
type ComparisonRun struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	ReferenceName string    `json:"reference_name"`
	CandidateName string    `json:"candidate_name"`
	Processed     int       `json:"processed"`
	Exact         int       `json:"exact"`
	Close         int       `json:"close"`
	Unmatched     int       `json:"unmatched"`
}

// SaveComparison stores a run, assigning an ID and timestamp when unset.
func (s *Store) SaveComparison(ctx context.Context, run ComparisonRun) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO comparisons
		(id, created_at, reference_name, candidate_name, processed, exact_matches, close_matches, unmatched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID.String(), run.CreatedAt.UTC().Format(timestampLayout), run.ReferenceName, run.CandidateName,
		run.Processed, run.Exact, run.Close, run.Unmatched)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert comparison: %w", err)
	}
	return run.ID, nil
}

// ListComparisons returns every stored run, newest first.
func (s *Store) ListComparisons(ctx context.Context) ([]ComparisonRun, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, reference_name, candidate_name,
		processed, exact_matches, close_matches, unmatched FROM comparisons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select comparisons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []ComparisonRun
	for rows.Next() {
		var run ComparisonRun
		var id, createdAt string
		if err := rows.Scan(&id, &createdAt, &run.ReferenceName, &run.CandidateName,
			&run.Processed, &run.Exact, &run.Close, &run.Unmatched); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("decode id: %w", err)
		}
		if run.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
			return nil, fmt.Errorf("decode created_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
