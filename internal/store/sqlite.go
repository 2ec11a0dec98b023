package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/letsgo-ai/concierge/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		external_id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(external_id) ON DELETE CASCADE,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		delete_armed_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetUser retrieves a user by provider external id.
func (s *SQLiteStore) GetUser(ctx context.Context, externalID string) (*domain.User, error) {
	query := `
		SELECT external_id, email, first_name, last_name, avatar_url, created_at, updated_at
		FROM users WHERE external_id = ?`

	row := s.db.QueryRowContext(ctx, query, externalID)

	var user domain.User
	var createdAt, updatedAt int64
	err := row.Scan(
		&user.ExternalID, &user.Email, &user.FirstName, &user.LastName,
		&user.AvatarURL, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

// UpsertUser creates or updates a user from provider identity fields.
// created_at is preserved on conflict so the new-user heuristic keeps
// working across repeated sign-ins.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (external_id, email, first_name, last_name, avatar_url, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(external_id) DO UPDATE SET
		email = excluded.email,
		first_name = excluded.first_name,
		last_name = excluded.last_name,
		avatar_url = excluded.avatar_url,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.ExternalID, user.Email, user.FirstName, user.LastName, user.AvatarURL,
		user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateProfile updates the editable profile fields.
func (s *SQLiteStore) UpdateProfile(ctx context.Context, externalID, firstName, lastName, avatarURL string) error {
	query := `
	UPDATE users SET first_name = ?, last_name = ?, avatar_url = ?, updated_at = ?
	WHERE external_id = ?`

	result, err := s.db.ExecContext(ctx, query, firstName, lastName, avatarURL, time.Now().Unix(), externalID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user and all their sessions.
func (s *SQLiteStore) DeleteUser(ctx context.Context, externalID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, externalID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE external_id = ?`, externalID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// CreateSession persists a browser session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	query := `
	INSERT INTO sessions (token, user_id, created_at, expires_at, delete_armed_at)
	VALUES (?, ?, ?, ?, NULL)`

	_, err := s.db.ExecContext(ctx, query,
		session.Token, session.UserID, session.CreatedAt.Unix(), session.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by token.
func (s *SQLiteStore) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	query := `
		SELECT token, user_id, created_at, expires_at, delete_armed_at
		FROM sessions WHERE token = ?`

	row := s.db.QueryRowContext(ctx, query, token)

	var session domain.Session
	var createdAt, expiresAt int64
	var deleteArmedAt sql.NullInt64
	err := row.Scan(&session.Token, &session.UserID, &createdAt, &expiresAt, &deleteArmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	session.CreatedAt = time.Unix(createdAt, 0)
	session.ExpiresAt = time.Unix(expiresAt, 0)
	if deleteArmedAt.Valid {
		session.DeleteArmedAt = time.Unix(deleteArmedAt.Int64, 0)
	}
	return &session, nil
}

// DeleteSession removes a session by token.
func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SetDeleteArmed sets or clears the pending account-deletion mark.
func (s *SQLiteStore) SetDeleteArmed(ctx context.Context, token string, at time.Time) error {
	var armed interface{}
	if !at.IsZero() {
		armed = at.Unix()
	}

	result, err := s.db.ExecContext(ctx, `UPDATE sessions SET delete_armed_at = ? WHERE token = ?`, armed, token)
	if err != nil {
		return fmt.Errorf("set delete armed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rows, nil
}
