// Package sqlstore persists chat history in PostgreSQL or SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS babsim_sessions (
	session_id TEXT PRIMARY KEY,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS babsim_turns (
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	query      TEXT NOT NULL,
	intent     TEXT NOT NULL,
	response   TEXT NOT NULL,
	image      TEXT NOT NULL,
	video      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);`

// Store implements ports.HistoryStore on database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to dsn with driver and creates the tables if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one connection keeps :memory: databases alive and serializes writers
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// DriverFromDSN guesses the driver from a connection string.
func DriverFromDSN(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "sslmode=") {
		return DriverPostgres
	}
	return DriverSQLite
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders into $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save replaces the stored conversation.
func (s *Store) Save(ctx context.Context, sessionID string, conv *domain.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		s.rebind(`INSERT INTO babsim_sessions (session_id, updated_at) VALUES (?, ?)
			ON CONFLICT (session_id) DO UPDATE SET updated_at = excluded.updated_at`),
		sessionID, formatTime(conv.UpdatedAt)); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM babsim_turns WHERE session_id = ?`), sessionID); err != nil {
		return fmt.Errorf("clear turns: %w", err)
	}

	insert := s.rebind(`INSERT INTO babsim_turns
		(session_id, seq, query, intent, response, image, video, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, t := range conv.Turns {
		if _, err := tx.ExecContext(ctx, insert,
			sessionID, i, t.Query, string(t.Intent), t.Response, t.Image, t.Video, formatTime(t.CreatedAt)); err != nil {
			return fmt.Errorf("insert turn %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads the conversation of sessionID.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	var updated string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT updated_at FROM babsim_sessions WHERE session_id = ?`), sessionID).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	conv := domain.NewConversation(sessionID)
	if conv.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT query, intent, response, image, video, created_at
		FROM babsim_turns WHERE session_id = ? ORDER BY seq`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t       domain.Turn
			intent  string
			created string
		)
		if err := rows.Scan(&t.Query, &intent, &t.Response, &t.Image, &t.Video, &created); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Intent = domain.Intent(intent)
		if t.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		conv.Turns = append(conv.Turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	return conv, nil
}

// Delete removes the session and its turns.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM babsim_turns WHERE session_id = ?`), sessionID); err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM babsim_sessions WHERE session_id = ?`), sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return tx.Commit()
}

// List returns the stored sessions, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM babsim_sessions ORDER BY updated_at DESC, session_id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
