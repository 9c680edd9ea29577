package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ogdenik/bankcore/internal/domain"
	"github.com/ogdenik/bankcore/internal/infrastructure/metrics"
)

const transferDescription = "transfer between accounts"

// TransferPolicy holds the deployment constants of the transfer engine.
type TransferPolicy struct {
	MinAmount   decimal.Decimal
	MaxAmount   decimal.Decimal
	MaxAttempts int
}

// DefaultTransferPolicy returns the reference deployment policy.
func DefaultTransferPolicy() TransferPolicy {
	return TransferPolicy{
		MinAmount:   decimal.NewFromInt(1),
		MaxAmount:   decimal.NewFromInt(1_000_000),
		MaxAttempts: 3,
	}
}

// TransferUseCase orchestrates a single money movement between two
// accounts: identity resolution, validation, locking, balance mutation,
// ledger append and retry on conflict.
type TransferUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	ledgerRepo  LedgerRepository
	identity    IdentityResolver
	idGen       IDGenerator
	policy      TransferPolicy
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	ledgerRepo LedgerRepository,
	identity IdentityResolver,
	idGen IDGenerator,
	policy TransferPolicy,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *TransferUseCase {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	return &TransferUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		identity:    identity,
		idGen:       idGen,
		policy:      policy,
		metrics:     m,
		logger:      logger,
	}
}

// TransferInput carries one transfer request. CallerIdentity is the
// verified identity of the authenticated caller, passed explicitly; the
// engine never reads it from ambient state.
type TransferInput struct {
	CallerIdentity     string
	RecipientAccountID string
	Amount             decimal.Decimal
}

// TransferReceipt describes a committed transfer.
type TransferReceipt struct {
	SenderAccountID    string
	RecipientAccountID string
	Amount             decimal.Decimal
	SenderBalance      decimal.Decimal
	RecipientBalance   decimal.Decimal
	CreatedAt          time.Time
}

// Transfer moves money from the caller's account to the recipient's.
//
// The whole resolve-validate-lock-mutate-persist sequence is retried, up
// to the policy's attempt bound, only on domain.ErrConflict. Business-rule
// rejections are returned on the first occurrence. The ledger entry is
// appended after the balance mutation has committed, in its own scope: an
// append failure is logged and does not fail the transfer.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferReceipt, error) {
	start := time.Now()

	var (
		receipt *TransferReceipt
		err     error
	)

	for attempt := 1; ; attempt++ {
		receipt, err = uc.attempt(ctx, input)
		if err == nil {
			break
		}

		if !errors.Is(err, domain.ErrConflict) || attempt >= uc.policy.MaxAttempts {
			uc.metrics.TransferFailed(failureReason(err))

			// Business-rule rejections are expected traffic; anything
			// else is an operational problem.
			evt := uc.logger.Error()
			if domain.IsBusinessError(err) {
				evt = uc.logger.Debug()
			}
			evt.Err(err).
				Str("reason", failureReason(err)).
				Str("recipient_account_id", input.RecipientAccountID).
				Msg("transfer failed")

			return nil, err
		}

		uc.metrics.TransferRetried()
		uc.logger.Debug().
			Int("attempt", attempt).
			Str("recipient_account_id", input.RecipientAccountID).
			Msg("transfer conflict, retrying")
	}

	uc.appendLedgerEntry(ctx, receipt)

	uc.metrics.TransferCompleted()
	uc.metrics.ObserveTransferDuration(time.Since(start).Seconds())

	return receipt, nil
}

// attempt runs one full validate-lock-mutate-persist pass.
func (uc *TransferUseCase) attempt(ctx context.Context, input TransferInput) (*TransferReceipt, error) {
	senderID, err := uc.identity.ResolveAccountID(ctx, input.CallerIdentity)
	if err != nil {
		return nil, err
	}

	intent := domain.TransferIntent{
		SenderAccountID:    senderID,
		RecipientAccountID: input.RecipientAccountID,
		Amount:             input.Amount,
	}

	if err := intent.Validate(); err != nil {
		return nil, err
	}

	if intent.Amount.LessThan(uc.policy.MinAmount) || intent.Amount.GreaterThan(uc.policy.MaxAmount) {
		return nil, domain.ErrInvalidAmount
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock both rows in ascending id order, independent of the
	// sender/recipient roles. Role-ordered locking lets two opposite
	// transfers on the same pair deadlock.
	ids := []string{intent.SenderAccountID, intent.RecipientAccountID}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	var sender, recipient *domain.Account
	for _, a := range accounts {
		switch a.ID {
		case intent.SenderAccountID:
			sender = a
		case intent.RecipientAccountID:
			recipient = a
		}
	}

	if sender == nil || recipient == nil {
		return nil, domain.ErrAccountNotFound
	}

	if err := sender.ValidateDebit(intent.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	senderBalance := sender.ApplyDebit(intent.Amount)
	recipientBalance := recipient.ApplyCredit(intent.Amount)

	if err := uc.accountRepo.UpdateBalanceTx(ctx, tx, sender.ID, senderBalance, now); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalanceTx(ctx, tx, recipient.ID, recipientBalance, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &TransferReceipt{
		SenderAccountID:    intent.SenderAccountID,
		RecipientAccountID: intent.RecipientAccountID,
		Amount:             intent.Amount,
		SenderBalance:      senderBalance,
		RecipientBalance:   recipientBalance,
		CreatedAt:          now,
	}, nil
}

// appendLedgerEntry records the committed transfer in the audit log. The
// money has already moved; a failure here is a data-quality problem, not a
// transfer failure.
func (uc *TransferUseCase) appendLedgerEntry(ctx context.Context, receipt *TransferReceipt) {
	entry := &domain.LedgerEntry{
		ID:                 uc.idGen.Generate(),
		SenderAccountID:    receipt.SenderAccountID,
		RecipientAccountID: receipt.RecipientAccountID,
		Amount:             receipt.Amount,
		Description:        transferDescription,
		CreatedAt:          receipt.CreatedAt,
	}

	if err := uc.ledgerRepo.Append(ctx, entry); err != nil {
		uc.metrics.LedgerAppendFailed()
		uc.logger.Warn().
			Err(err).
			Str("sender_account_id", entry.SenderAccountID).
			Str("recipient_account_id", entry.RecipientAccountID).
			Str("amount", entry.Amount.String()).
			Msg("ledger append failed for committed transfer")
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrIdentityNotFound):
		return "identity_not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}

// GetAccount returns a point-in-time view of one account.
func (uc *TransferUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListLedger returns the ledger history involving an account.
func (uc *TransferUseCase) ListLedger(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.ledgerRepo.ListByAccount(ctx, accountID, limit, offset)
}
