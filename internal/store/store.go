package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup by key yields no record.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record already exists")
)

// User represents an account that can sign in and own grams.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Gram represents one user post.
type Gram struct {
	ID          string
	Message     string
	UserID      int64
	AuthorEmail string // resolved from users on read
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	// Returns ErrConflict when the email is already taken.
	CreateUser(ctx context.Context, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// GramStore handles gram persistence.
// Lookups and mutations of a missing id return ErrNotFound.
type GramStore interface {
	// CreateGram persists a new gram owned by userID and assigns its id.
	CreateGram(ctx context.Context, userID int64, message string) (*Gram, error)

	// GetGram retrieves a gram by id.
	GetGram(ctx context.Context, id string) (*Gram, error)

	// ListGrams returns all grams, newest first.
	ListGrams(ctx context.Context) ([]*Gram, error)

	// UpdateGramMessage replaces the message of an existing gram in a single statement.
	UpdateGramMessage(ctx context.Context, id, message string) (*Gram, error)

	// DeleteGram permanently removes a gram.
	DeleteGram(ctx context.Context, id string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	GramStore

	// Migrate applies the schema. It is safe to call on an up-to-date database.
	Migrate(ctx context.Context) error

	// Close closes the underlying database connection.
	Close() error
}
