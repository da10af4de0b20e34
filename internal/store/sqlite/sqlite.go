package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/grams-server/internal/store"
)

//go:embed schema.sql
var schema string

const dsnParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*SQLiteStore)(nil)

// New creates a new SQLite store.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Set connection pool limits
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Set connection pool limits before setup
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Run setup function (e.g., apply schema)
	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// NewMemory opens an in-memory database with the schema applied.
func NewMemory() (*SQLiteStore, error) {
	return NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// Migrate applies the embedded schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (email, password_hash)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, email, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user: %w", store.ErrConflict)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ==== GramStore implementation ====

const gramColumns = `g.id, g.message, g.user_id, u.email, g.created_at, g.updated_at`

// CreateGram persists a new gram with a freshly generated id.
func (s *SQLiteStore) CreateGram(ctx context.Context, userID int64, message string) (*store.Gram, error) {
	query := `
		INSERT INTO grams (id, message, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id := uuid.NewString()
	now := s.now().UTC()

	if _, err := s.db.ExecContext(ctx, query, id, message, userID, now, now); err != nil {
		return nil, fmt.Errorf("insert gram: %w", err)
	}

	return s.GetGram(ctx, id)
}

// GetGram retrieves a gram by id.
func (s *SQLiteStore) GetGram(ctx context.Context, id string) (*store.Gram, error) {
	query := `
		SELECT ` + gramColumns + `
		FROM grams g
		JOIN users u ON u.id = g.user_id
		WHERE g.id = ?
	`
	var gram store.Gram
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&gram.ID,
		&gram.Message,
		&gram.UserID,
		&gram.AuthorEmail,
		&gram.CreatedAt,
		&gram.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("gram %q: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query gram: %w", err)
	}

	return &gram, nil
}

// ListGrams returns all grams, newest first.
func (s *SQLiteStore) ListGrams(ctx context.Context) ([]*store.Gram, error) {
	query := `
		SELECT ` + gramColumns + `
		FROM grams g
		JOIN users u ON u.id = g.user_id
		ORDER BY g.created_at DESC, g.rowid DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query grams: %w", err)
	}
	defer rows.Close()

	grams := make([]*store.Gram, 0)
	for rows.Next() {
		var gram store.Gram
		if err := rows.Scan(&gram.ID, &gram.Message, &gram.UserID, &gram.AuthorEmail, &gram.CreatedAt, &gram.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan gram: %w", err)
		}
		grams = append(grams, &gram)
	}

	return grams, rows.Err()
}

// UpdateGramMessage replaces the message of an existing gram.
// The existence check and the write are one statement, so a concurrent delete
// surfaces as ErrNotFound rather than a lost update.
func (s *SQLiteStore) UpdateGramMessage(ctx context.Context, id, message string) (*store.Gram, error) {
	query := `
		UPDATE grams
		SET message = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, message, s.now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update gram: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("gram %q: %w", id, store.ErrNotFound)
	}

	return s.GetGram(ctx, id)
}

// DeleteGram permanently removes a gram.
func (s *SQLiteStore) DeleteGram(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM grams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete gram: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("gram %q: %w", id, store.ErrNotFound)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
