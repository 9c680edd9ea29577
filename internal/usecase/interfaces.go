package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogdenik/bankcore/internal/domain"
)

// AccountRepository defines data access for accounts.
//
// Two mutation disciplines coexist and every mutation path must use one of
// them: the transfer path locks rows first (GetByIDsForUpdate +
// UpdateBalanceTx), the accrual path reads without locks and persists with
// an optimistic version check (Save). Both bump the row version.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	CreateTx(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByOwnerID(ctx context.Context, ownerID string) (*domain.Account, error)
	// GetByIDsForUpdate locks and loads the given accounts with exclusive
	// row locks, acquired in ascending id order regardless of the order of
	// ids. Missing ids are simply absent from the result.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// UpdateBalanceTx persists a new balance under a held row lock.
	UpdateBalanceTx(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	// Save persists the whole account iff the stored version still equals
	// account.Version; returns domain.ErrConflict on a stale version.
	Save(ctx context.Context, account *domain.Account) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// LedgerRepository defines data access for the append-only transfer log.
// Append always runs on its own connection, never inside a caller's
// transaction, so a log failure cannot undo a committed transfer.
type LedgerRepository interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
}

// UserRepository defines data access for users and their contacts.
type UserRepository interface {
	CreateTx(ctx context.Context, tx Transaction, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByIdentifier loads a user by any of their emails or phones.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	AddEmail(ctx context.Context, email domain.Email) error
	UpdateEmail(ctx context.Context, email domain.Email) error
	DeleteEmail(ctx context.Context, userID, emailID string) error
	AddPhone(ctx context.Context, phone domain.Phone) error
	UpdatePhone(ctx context.Context, phone domain.Phone) error
	DeletePhone(ctx context.Context, userID, phoneID string) error
	Search(ctx context.Context, filter UserSearchFilter) ([]*domain.User, error)
}

// UserSearchFilter narrows a user search; zero-valued fields are ignored.
type UserSearchFilter struct {
	NamePrefix string
	BornAfter  *time.Time
	Email      string
	Phone      string
	Limit      int
	Offset     int
}

// IdentityResolver maps an authenticated caller's identity (an email or
// phone identifier from a verified token) to the caller's account id.
type IdentityResolver interface {
	ResolveAccountID(ctx context.Context, identity string) (string, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ErrCacheMiss is returned by Cache.Get for absent keys. Callers must
// distinguish a miss from a backend failure: a miss falls through to the
// source of truth silently, a failure is worth a log line.
var ErrCacheMiss = errors.New("cache miss")

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
