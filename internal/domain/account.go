package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the fixed-point scale used for all monetary amounts.
const MoneyScale = 2

// Account represents a bank account holding a balance for one owner.
type Account struct {
	ID             string
	OwnerID        string
	Balance        decimal.Decimal
	InitialDeposit *decimal.Decimal
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateDebit checks if the account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns the balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// HasInitialDeposit reports whether the one-time initial deposit has been
// recorded.
func (a *Account) HasInitialDeposit() bool {
	return a.InitialDeposit != nil
}

// RecordInitialDeposit records the current balance as the account's initial
// deposit. Idempotent: once set the value never changes. Returns true if the
// value was recorded by this call.
func (a *Account) RecordInitialDeposit() bool {
	if a.InitialDeposit != nil {
		return false
	}
	v := a.Balance
	a.InitialDeposit = &v
	return true
}

// BalanceCap returns the maximum balance interest accrual may reach,
// rounded half-up to MoneyScale. The cap constrains accrual only; incoming
// transfers are never blocked by it.
func (a *Account) BalanceCap(multiplier decimal.Decimal) decimal.Decimal {
	if a.InitialDeposit == nil {
		return decimal.Zero
	}
	return a.InitialDeposit.Mul(multiplier).Round(MoneyScale)
}
