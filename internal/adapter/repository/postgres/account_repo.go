package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ogdenik/bankcore/internal/domain"
	"github.com/ogdenik/bankcore/internal/usecase"
)

const accountColumns = `id, owner_id, balance, initial_deposit, version, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, insertAccountSQL, insertAccountArgs(account)...)

	return err
}

// CreateTx inserts a new account inside a transaction.
func (r *AccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, insertAccountSQL, insertAccountArgs(account)...)

	return err
}

const insertAccountSQL = `
	INSERT INTO accounts (id, owner_id, balance, initial_deposit, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func insertAccountArgs(account *domain.Account) []any {
	return []any{
		account.ID,
		account.OwnerID,
		decimalToNumeric(account.Balance),
		nullableDecimalToNumeric(account.InitialDeposit),
		account.Version,
		account.CreatedAt,
		account.UpdatedAt,
	}
}

// GetByID retrieves an account by id.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	return scanAccount(row)
}

// GetByOwnerID retrieves the account owned by the given user.
func (r *AccountRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1`, ownerID)

	return scanAccount(row)
}

// GetByIDsForUpdate locks and loads accounts with exclusive row locks. The
// ORDER BY makes the lock acquisition order canonical (ascending id) no
// matter how ids is ordered.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		ids,
	)
	if err != nil {
		return nil, mapConcurrencyError(err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, mapConcurrencyError(rows.Err())
}

// UpdateBalanceTx persists a new balance under a held row lock, bumping
// the version.
func (r *AccountRepository) UpdateBalanceTx(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE accounts SET balance = $2, version = version + 1, updated_at = $3 WHERE id = $1`,
		id, decimalToNumeric(balance), updatedAt,
	)
	if err != nil {
		return mapConcurrencyError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// Save persists the account with an optimistic version check. A stale
// version means someone committed in between the read and this write; the
// caller gets domain.ErrConflict and decides whether to retry.
func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET balance = $2, initial_deposit = $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $5`,
		account.ID,
		decimalToNumeric(account.Balance),
		nullableDecimalToNumeric(account.InitialDeposit),
		time.Now().UTC(),
		account.Version,
	)
	if err != nil {
		return mapConcurrencyError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}

	account.Version++

	return nil
}

// List lists accounts ordered by id with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account        domain.Account
		balance        pgtype.Numeric
		initialDeposit pgtype.Numeric
	)

	err := row.Scan(
		&account.ID,
		&account.OwnerID,
		&balance,
		&initialDeposit,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, mapConcurrencyError(err)
	}

	account.Balance = numericToDecimal(balance)
	if initialDeposit.Valid {
		d := numericToDecimal(initialDeposit)
		account.InitialDeposit = &d
	}

	return &account, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func nullableDecimalToNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}

	return decimalToNumeric(*d)
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}
