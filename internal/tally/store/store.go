package store

import (
	"context"
	"errors"
	"time"

	"github.com/tallyhq/tally/internal/tally/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrForeignKey    = errors.New("store: referenced row missing")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories so a transaction-scoped Store
// can hand out the same repos bound to the open transaction.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Categories() Categories
	Expenses() Expenses

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Inside fn only
	// the tx argument may be used; the SQLite driver can run with a single
	// connection and would block on the outer Store.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user. Unique violations on username or email
	// return ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername expects an already lowercased username.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail expects an already lowercased email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// UpdateUser rewrites username, email, password hash, kind and created_at
	// of the row with u.ID. Zero rows affected returns ErrNotFound.
	UpdateUser(ctx context.Context, u domain.User) error

	// Exists reports whether a user row with id exists.
	Exists(ctx context.Context, id string) (bool, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token row by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked to true. Unknown hashes are not an error.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// ConsumeRefreshToken revokes the row only if it is still live at now and
	// returns the number of rows changed, so at most one caller wins.
	ConsumeRefreshToken(ctx context.Context, hash string, now time.Time) (int64, error)

	// DeleteDeadRefreshTokens removes revoked rows and rows expired at now,
	// returning how many were removed.
	DeleteDeadRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type Categories interface {
	// CreateCategory inserts a user-owned category. A duplicate name for the
	// same owner returns ErrAlreadyExists, a missing owner ErrForeignKey.
	CreateCategory(ctx context.Context, c domain.Category) error

	GetCategoryByID(ctx context.Context, id string) (domain.Category, error)

	// ListCategoriesForUser returns every default category plus the ones the
	// user created, defaults first, then by name.
	ListCategoriesForUser(ctx context.Context, userID string) ([]domain.Category, error)
}

type Expenses interface {
	CreateExpense(ctx context.Context, e domain.Expense) error

	// UpdateExpense rewrites amount, description, category and frequency of
	// the expense with e.ID owned by e.CreatedBy. Zero rows affected returns
	// ErrNotFound.
	UpdateExpense(ctx context.Context, e domain.Expense) error

	// GetExpense returns one expense owned by userID joined with its category.
	GetExpense(ctx context.Context, userID, id string) (domain.ExpenseWithCategory, error)

	// DeleteExpenses removes every listed expense owned by userID in a single
	// statement and returns the number of rows actually deleted.
	DeleteExpenses(ctx context.Context, userID string, ids []string) (int64, error)

	// ListExpensesByUser returns the user's expenses joined with category
	// names, newest expense date first (undated last).
	ListExpensesByUser(ctx context.Context, userID string) ([]domain.ExpenseWithCategory, error)
}
