package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ogdenik/bankcore/internal/domain"
	"github.com/ogdenik/bankcore/internal/infrastructure/metrics"
)

// InterestPolicy holds the deployment constants of interest accrual.
type InterestPolicy struct {
	Rate          decimal.Decimal
	CapMultiplier decimal.Decimal
}

// DefaultInterestPolicy returns the reference deployment policy: 10% per
// accrual step, balance capped at 207% of the initial deposit.
func DefaultInterestPolicy() InterestPolicy {
	return InterestPolicy{
		Rate:          decimal.NewFromFloat(0.10),
		CapMultiplier: decimal.NewFromFloat(2.07),
	}
}

// InterestUseCase grows account balances by a fixed rate up to a cap
// derived from each account's recorded initial deposit.
//
// Accrual takes no row locks. It reads, computes, and persists with an
// optimistic version check; a concurrent transfer that invalidates the
// read makes the save fail with domain.ErrConflict, and the account is
// simply picked up again on the next sweep.
type InterestUseCase struct {
	accountRepo AccountRepository
	policy      InterestPolicy
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewInterestUseCase creates a new InterestUseCase.
func NewInterestUseCase(accountRepo AccountRepository, policy InterestPolicy, m *metrics.Metrics, logger zerolog.Logger) *InterestUseCase {
	return &InterestUseCase{
		accountRepo: accountRepo,
		policy:      policy,
		metrics:     m,
		logger:      logger,
	}
}

// RecordInitialDeposit records the account's current balance as its
// initial deposit. Idempotent: if already recorded, nothing is persisted.
func (uc *InterestUseCase) RecordInitialDeposit(ctx context.Context, account *domain.Account) error {
	if !account.RecordInitialDeposit() {
		return nil
	}

	return uc.accountRepo.Save(ctx, account)
}

// ApplyInterest applies one accrual step to the account and persists it.
// The balance never exceeds the cap; once the cap is reached the step
// leaves the balance untouched and persists nothing.
func (uc *InterestUseCase) ApplyInterest(ctx context.Context, account *domain.Account) error {
	recorded := account.RecordInitialDeposit()

	interest := account.Balance.Mul(uc.policy.Rate).Round(domain.MoneyScale)
	newBalance := account.Balance.Add(interest)

	maxBalance := account.BalanceCap(uc.policy.CapMultiplier)
	if newBalance.GreaterThan(maxBalance) {
		newBalance = maxBalance
	}

	if newBalance.Equal(account.Balance) && !recorded {
		return nil
	}

	account.Balance = newBalance

	return uc.accountRepo.Save(ctx, account)
}

// ApplyInterestToAll sweeps every account, applying interest to each as
// an independent unit of work. One account's failure never aborts the
// sweep: conflicts mean a transfer got there first and the account is
// skipped for this cycle, other errors are logged and skipped.
func (uc *InterestUseCase) ApplyInterestToAll(ctx context.Context) error {
	const pageSize = 500

	uc.metrics.AccrualRun()

	for offset := 0; ; offset += pageSize {
		accounts, err := uc.accountRepo.List(ctx, pageSize, offset)
		if err != nil {
			return err
		}

		for _, account := range accounts {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := uc.ApplyInterest(ctx, account); err != nil {
				uc.metrics.AccrualSkipped()

				if errors.Is(err, domain.ErrConflict) {
					uc.logger.Debug().
						Str("account_id", account.ID).
						Msg("account changed concurrently, skipping accrual this cycle")
				} else {
					uc.logger.Warn().
						Err(err).
						Str("account_id", account.ID).
						Msg("interest accrual failed for account")
				}

				continue
			}

			uc.metrics.AccrualApplied()
		}

		if len(accounts) < pageSize {
			return nil
		}
	}
}
