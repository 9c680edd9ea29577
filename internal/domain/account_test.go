package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogdenik/bankcore/internal/domain"
)

func TestAccount_ValidateDebit(t *testing.T) {
	account := &domain.Account{
		ID:      "acc-1",
		Balance: decimal.NewFromInt(100),
	}

	assert.NoError(t, account.ValidateDebit(decimal.NewFromInt(50)))
	assert.NoError(t, account.ValidateDebit(decimal.NewFromInt(100)))
	assert.ErrorIs(t, account.ValidateDebit(decimal.NewFromFloat(100.01)), domain.ErrInsufficientFunds)
}

func TestAccount_ApplyDebitCredit(t *testing.T) {
	account := &domain.Account{Balance: decimal.NewFromFloat(100.50)}

	assert.True(t, account.ApplyDebit(decimal.NewFromFloat(0.50)).Equal(decimal.NewFromInt(100)))
	assert.True(t, account.ApplyCredit(decimal.NewFromFloat(0.50)).Equal(decimal.NewFromInt(101)))

	// Balance itself is untouched; the caller persists the new value.
	assert.True(t, account.Balance.Equal(decimal.NewFromFloat(100.50)))
}

func TestAccount_RecordInitialDeposit(t *testing.T) {
	account := &domain.Account{Balance: decimal.NewFromInt(100)}

	require.False(t, account.HasInitialDeposit())
	require.True(t, account.RecordInitialDeposit())
	require.True(t, account.HasInitialDeposit())
	assert.True(t, account.InitialDeposit.Equal(decimal.NewFromInt(100)))

	// Recording again, even after the balance moved, changes nothing.
	account.Balance = decimal.NewFromInt(500)
	require.False(t, account.RecordInitialDeposit())
	assert.True(t, account.InitialDeposit.Equal(decimal.NewFromInt(100)))
}

func TestAccount_BalanceCap(t *testing.T) {
	multiplier := decimal.NewFromFloat(2.07)

	account := &domain.Account{Balance: decimal.NewFromInt(100)}
	assert.True(t, account.BalanceCap(multiplier).IsZero(), "no recorded deposit means no headroom")

	account.RecordInitialDeposit()
	assert.True(t, account.BalanceCap(multiplier).Equal(decimal.NewFromInt(207)))

	odd := &domain.Account{Balance: decimal.NewFromFloat(33.33)}
	odd.RecordInitialDeposit()

	// 33.33 * 2.07 = 68.9931, rounds half-up to 68.99.
	assert.Equal(t, "68.99", odd.BalanceCap(multiplier).StringFixed(2))
}
