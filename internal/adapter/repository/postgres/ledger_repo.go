package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ogdenik/bankcore/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository.
//
// Append deliberately runs on the pool, never inside a caller's
// transaction: the ledger write has its own scope so that a failed append
// cannot undo a committed transfer, and a rolled-back transfer never
// reaches Append at all.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Append writes one immutable ledger entry.
func (r *LedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ledger_entries (id, sender_account_id, recipient_account_id, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID,
		entry.SenderAccountID,
		entry.RecipientAccountID,
		decimalToNumeric(entry.Amount),
		entry.Description,
		entry.CreatedAt,
	)

	return err
}

// ListByAccount returns entries where the account is sender or recipient,
// newest first.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_account_id, recipient_account_id, amount, description, created_at
		FROM ledger_entries
		WHERE sender_account_id = $1 OR recipient_account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var (
			entry  domain.LedgerEntry
			amount pgtype.Numeric
		)

		err := rows.Scan(
			&entry.ID,
			&entry.SenderAccountID,
			&entry.RecipientAccountID,
			&amount,
			&entry.Description,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Amount = numericToDecimal(amount)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
