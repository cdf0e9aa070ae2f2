package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"

	"github.com/cincanproject/cincan-registry/internal/checker"
	"github.com/cincanproject/cincan-registry/internal/timefmt"
)

// SourceCategories decides whether a version source names a known upstream
// checker. Only such sources are linked to metadata rows.
type SourceCategories interface {
	Known(source string) bool
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store provides SQLite persistence for tools, checker metadata and version
// records.
//
// A Store holds a single connection and does no locking of its own; callers
// serialize writers. WAL journaling lets readers on other connections see the
// last committed state while a write transaction is open.
type Store struct {
	db         *sql.DB
	q          querier
	tx         *sql.Tx
	log        *zap.Logger
	categories SourceCategories
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for statement tracing.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCategories replaces checker.Default for meta_id resolution.
func WithCategories(c SourceCategories) Option {
	return func(s *Store) {
		if c != nil {
			s.categories = c
		}
	}
}

// WithClock replaces time.Now for created/updated defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

var (
	registerOnce sync.Once
	registerErr  error
)

// registerFunctions installs the custom SQL functions. The driver applies
// them to every connection opened afterwards.
func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction("s_date", 1, sDate)
	})
	return registerErr
}

// sDate canonicalizes a stored timestamp so stored values and query arguments
// compare consistently.
func sDate(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return timefmt.Canonical(v)
	case []byte:
		return timefmt.Canonical(string(v))
	case time.Time:
		return timefmt.Format(v), nil
	default:
		return nil, fmt.Errorf("s_date: unsupported argument type %T", v)
	}
}

// New creates a new Store with the specified database path.
// Use ":memory:" for in-memory databases (useful for testing).
func New(dbPath string, opts ...Option) (*Store, error) {
	if err := registerFunctions(); err != nil {
		return nil, fmt.Errorf("failed to register sql functions: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool defaults
	db.SetMaxOpenConns(1) // SQLite only allows one writer at a time
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Enable WAL mode so readers are not blocked by a writer
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{
		db:         db,
		q:          db,
		log:        zap.NewNop(),
		categories: checker.Default,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open opens the cache at dbPath, creating the file and its parent directory
// when missing, and makes sure the schema exists.
func Open(dbPath string, opts ...Option) (*Store, error) {
	exists := true
	if dbPath != ":memory:" {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			exists = false
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("failed to stat database: %w", err)
		}
	}

	s, err := New(dbPath, opts...)
	if err != nil {
		return nil, err
	}
	if exists {
		s.log.Debug("database exists already", zap.String("path", dbPath))
	} else {
		s.log.Debug("creating new database file", zap.String("path", dbPath))
	}

	if err := s.CreateSchema(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateSchema creates all tables and indexes. It is safe to call on an
// existing database.
func (s *Store) CreateSchema() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s.trace(query, args)
	res, err := s.q.ExecContext(ctx, query, args...)
	return res, classify(err)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	s.trace(query, args)
	rows, err := s.q.QueryContext(ctx, query, args...)
	return rows, classify(err)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	s.trace(query, args)
	return s.q.QueryRowContext(ctx, query, args...)
}

// trace logs statements at debug level with their arguments.
func (s *Store) trace(query string, args []any) {
	if ce := s.log.Check(zap.DebugLevel, "sql"); ce != nil {
		ce.Write(
			zap.String("statement", strings.Join(strings.Fields(query), " ")),
			zap.Any("args", args),
			zap.Bool("tx", s.tx != nil),
		)
	}
}
