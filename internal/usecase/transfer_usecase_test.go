package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ogdenik/bankcore/internal/domain"
	"github.com/ogdenik/bankcore/internal/usecase"
	"github.com/ogdenik/bankcore/internal/usecase/mocks"
)

type transferFixture struct {
	accountRepo *mocks.MockAccountRepository
	ledgerRepo  *mocks.MockLedgerRepository
	resolver    *mocks.MockIdentityResolver
	uc          *usecase.TransferUseCase
}

func newTransferFixture(t *testing.T, policy usecase.TransferPolicy) *transferFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &transferFixture{
		accountRepo: mocks.NewMockAccountRepository(),
		ledgerRepo:  mocks.NewMockLedgerRepository(),
		resolver:    mocks.NewMockIdentityResolver(ctrl),
	}

	f.uc = usecase.NewTransferUseCase(
		&mocks.MockTransactionManager{},
		f.accountRepo,
		f.ledgerRepo,
		f.resolver,
		&mocks.MockIDGenerator{},
		policy,
		nil,
		zerolog.Nop(),
	)

	return f
}

func seedAccount(repo *mocks.MockAccountRepository, id string, balance int64) *domain.Account {
	account := &domain.Account{
		ID:      id,
		Balance: decimal.NewFromInt(balance),
	}
	repo.Put(account)
	return account
}

func TestTransferUseCase_Transfer(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.TransferInput
		wantErr error
	}{
		{
			name: "successful transfer",
			input: usecase.TransferInput{
				CallerIdentity:     "alice@example.com",
				RecipientAccountID: "acc-2",
				Amount:             decimal.NewFromInt(100),
			},
		},
		{
			name: "reject transfer to own account",
			input: usecase.TransferInput{
				CallerIdentity:     "alice@example.com",
				RecipientAccountID: "acc-1",
				Amount:             decimal.NewFromInt(100),
			},
			wantErr: domain.ErrSelfTransfer,
		},
		{
			name: "reject insufficient funds",
			input: usecase.TransferInput{
				CallerIdentity:     "alice@example.com",
				RecipientAccountID: "acc-2",
				Amount:             decimal.NewFromInt(501),
			},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name: "reject amount below minimum",
			input: usecase.TransferInput{
				CallerIdentity:     "alice@example.com",
				RecipientAccountID: "acc-2",
				Amount:             decimal.NewFromFloat(0.50),
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "reject amount above maximum",
			input: usecase.TransferInput{
				CallerIdentity:     "alice@example.com",
				RecipientAccountID: "acc-2",
				Amount:             decimal.NewFromInt(1_500_000),
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "reject sub-cent precision",
			input: usecase.TransferInput{
				CallerIdentity:     "alice@example.com",
				RecipientAccountID: "acc-2",
				Amount:             decimal.NewFromFloat(10.005),
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "reject unknown recipient",
			input: usecase.TransferInput{
				CallerIdentity:     "alice@example.com",
				RecipientAccountID: "acc-missing",
				Amount:             decimal.NewFromInt(100),
			},
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTransferFixture(t, usecase.DefaultTransferPolicy())
			seedAccount(f.accountRepo, "acc-1", 500)
			seedAccount(f.accountRepo, "acc-2", 0)
			f.resolver.EXPECT().ResolveAccountID(gomock.Any(), "alice@example.com").Return("acc-1", nil).AnyTimes()

			receipt, err := f.uc.Transfer(context.Background(), tt.input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.ledgerRepo.Entries(), "failed transfer must not produce a ledger entry")
				return
			}

			require.NoError(t, err)
			require.NotNil(t, receipt)
			assert.Equal(t, "acc-1", receipt.SenderAccountID)
			assert.Equal(t, "acc-2", receipt.RecipientAccountID)
			assert.True(t, receipt.SenderBalance.Equal(decimal.NewFromInt(400)))
			assert.True(t, receipt.RecipientBalance.Equal(decimal.NewFromInt(100)))
			require.Len(t, f.ledgerRepo.Entries(), 1)
		})
	}
}

func TestTransferUseCase_Transfer_ConservesMoney(t *testing.T) {
	f := newTransferFixture(t, usecase.DefaultTransferPolicy())
	sender := seedAccount(f.accountRepo, "acc-1", 300)
	recipient := seedAccount(f.accountRepo, "acc-2", 700)
	f.resolver.EXPECT().ResolveAccountID(gomock.Any(), "alice@example.com").Return("acc-1", nil)

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerIdentity:     "alice@example.com",
		RecipientAccountID: "acc-2",
		Amount:             decimal.NewFromFloat(123.45),
	})
	require.NoError(t, err)

	total := sender.Balance.Add(recipient.Balance)
	assert.True(t, total.Equal(decimal.NewFromInt(1000)), "total across both accounts must not change, got %s", total)
}

func TestTransferUseCase_Transfer_FailureLeavesBalancesUntouched(t *testing.T) {
	f := newTransferFixture(t, usecase.DefaultTransferPolicy())
	sender := seedAccount(f.accountRepo, "acc-1", 100)
	recipient := seedAccount(f.accountRepo, "acc-2", 50)
	f.resolver.EXPECT().ResolveAccountID(gomock.Any(), "alice@example.com").Return("acc-1", nil)

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerIdentity:     "alice@example.com",
		RecipientAccountID: "acc-2",
		Amount:             decimal.NewFromInt(200),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.True(t, sender.Balance.Equal(decimal.NewFromInt(100)))
	assert.True(t, recipient.Balance.Equal(decimal.NewFromInt(50)))
}

func TestTransferUseCase_Transfer_UnknownIdentity(t *testing.T) {
	f := newTransferFixture(t, usecase.DefaultTransferPolicy())
	f.resolver.EXPECT().ResolveAccountID(gomock.Any(), "ghost@example.com").Return("", domain.ErrIdentityNotFound)

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerIdentity:     "ghost@example.com",
		RecipientAccountID: "acc-2",
		Amount:             decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
}

func TestTransferUseCase_Transfer_LocksInAscendingIDOrder(t *testing.T) {
	f := newTransferFixture(t, usecase.DefaultTransferPolicy())
	seedAccount(f.accountRepo, "acc-9", 500)
	seedAccount(f.accountRepo, "acc-1", 0)
	f.resolver.EXPECT().ResolveAccountID(gomock.Any(), "alice@example.com").Return("acc-9", nil)

	var lockedIDs []string
	f.accountRepo.GetByIDsForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
		lockedIDs = ids
		f.accountRepo.GetByIDsForUpdateFunc = nil
		return f.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerIdentity:     "alice@example.com",
		RecipientAccountID: "acc-1",
		Amount:             decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	// The sender's id sorts after the recipient's; lock order must follow
	// the ids, not the roles.
	assert.Equal(t, []string{"acc-1", "acc-9"}, lockedIDs)
}

func TestTransferUseCase_Transfer_RetriesOnConflict(t *testing.T) {
	f := newTransferFixture(t, usecase.DefaultTransferPolicy())
	seedAccount(f.accountRepo, "acc-1", 500)
	seedAccount(f.accountRepo, "acc-2", 0)
	f.resolver.EXPECT().ResolveAccountID(gomock.Any(), "alice@example.com").Return("acc-1", nil).Times(3)

	attempts := 0
	f.accountRepo.GetByIDsForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("%w: row lock timeout", domain.ErrConflict)
		}
		f.accountRepo.GetByIDsForUpdateFunc = nil
		return f.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	}

	receipt, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerIdentity:     "alice@example.com",
		RecipientAccountID: "acc-2",
		Amount:             decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.True(t, receipt.SenderBalance.Equal(decimal.NewFromInt(400)))
}

func TestTransferUseCase_Transfer_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newTransferFixture(t, usecase.DefaultTransferPolicy())
	f.resolver.EXPECT().ResolveAccountID(gomock.Any(), "alice@example.com").Return("acc-1", nil).Times(3)

	attempts := 0
	f.accountRepo.GetByIDsForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
		attempts++
		return nil, fmt.Errorf("%w: serialization failure", domain.ErrConflict)
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerIdentity:     "alice@example.com",
		RecipientAccountID: "acc-2",
		Amount:             decimal.NewFromInt(100),
	})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 3, attempts)
	assert.Empty(t, f.ledgerRepo.Entries())
}

func TestTransferUseCase_Transfer_NoRetryForBusinessErrors(t *testing.T) {
	f := newTransferFixture(t, usecase.DefaultTransferPolicy())
	seedAccount(f.accountRepo, "acc-1", 10)
	seedAccount(f.accountRepo, "acc-2", 0)

	resolutions := 0
	f.resolver.EXPECT().ResolveAccountID(gomock.Any(), "alice@example.com").
		DoAndReturn(func(ctx context.Context, identity string) (string, error) {
			resolutions++
			return "acc-1", nil
		})

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerIdentity:     "alice@example.com",
		RecipientAccountID: "acc-2",
		Amount:             decimal.NewFromInt(100),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, 1, resolutions, "business-rule rejections must not be retried")
}

func TestTransferUseCase_Transfer_LedgerFailureDoesNotFailTransfer(t *testing.T) {
	f := newTransferFixture(t, usecase.DefaultTransferPolicy())
	sender := seedAccount(f.accountRepo, "acc-1", 500)
	seedAccount(f.accountRepo, "acc-2", 0)
	f.resolver.EXPECT().ResolveAccountID(gomock.Any(), "alice@example.com").Return("acc-1", nil)

	f.ledgerRepo.AppendFunc = func(ctx context.Context, entry *domain.LedgerEntry) error {
		return errors.New("ledger storage unavailable")
	}

	receipt, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		CallerIdentity:     "alice@example.com",
		RecipientAccountID: "acc-2",
		Amount:             decimal.NewFromInt(100),
	})
	require.NoError(t, err, "the money has moved, the log failure stays a log failure")
	require.NotNil(t, receipt)
	assert.True(t, sender.Balance.Equal(decimal.NewFromInt(400)))
}

// serialTxManager grants one transaction at a time, the way row locks
// serialize two writers touching the same accounts. Commit and Rollback
// both release the slot; the engine rolls back committed transactions as
// a no-op.
type serialTxManager struct {
	mu sync.Mutex
}

func (m *serialTxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	m.mu.Lock()
	return &serialTx{release: m.mu.Unlock}, nil
}

type serialTx struct {
	release func()
	once    sync.Once
}

func (t *serialTx) Commit(ctx context.Context) error {
	t.once.Do(t.release)
	return nil
}

func (t *serialTx) Rollback(ctx context.Context) error {
	t.once.Do(t.release)
	return nil
}

func TestTransferUseCase_Transfer_ConcurrentFromSameSender(t *testing.T) {
	ctrl := gomock.NewController(t)

	accountRepo := mocks.NewMockAccountRepository()
	ledgerRepo := mocks.NewMockLedgerRepository()
	resolver := mocks.NewMockIdentityResolver(ctrl)
	resolver.EXPECT().
		ResolveAccountID(gomock.Any(), "alice@example.com").
		Return("acc-1", nil).
		Times(2)

	seedAccount(accountRepo, "acc-1", 1000)
	seedAccount(accountRepo, "acc-2", 500)

	uc := usecase.NewTransferUseCase(
		&serialTxManager{},
		accountRepo,
		ledgerRepo,
		resolver,
		&mocks.MockIDGenerator{},
		usecase.DefaultTransferPolicy(),
		nil,
		zerolog.Nop(),
	)

	amounts := []decimal.Decimal{
		decimal.RequireFromString("50.00"),
		decimal.RequireFromString("75.00"),
	}

	errs := make([]error, len(amounts))

	var wg sync.WaitGroup
	for i, amount := range amounts {
		wg.Add(1)
		go func(i int, amount decimal.Decimal) {
			defer wg.Done()
			_, errs[i] = uc.Transfer(context.Background(), usecase.TransferInput{
				CallerIdentity:     "alice@example.com",
				RecipientAccountID: "acc-2",
				Amount:             amount,
			})
		}(i, amount)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "transfer %d", i)
	}

	sender, err := accountRepo.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	recipient, err := accountRepo.GetByID(context.Background(), "acc-2")
	require.NoError(t, err)

	// Neither debit may be lost: both run against the balance the other
	// one left behind.
	assert.Equal(t, "875.00", sender.Balance.StringFixed(2))
	assert.Equal(t, "625.00", recipient.Balance.StringFixed(2))
	assert.Len(t, ledgerRepo.Entries(), 2)
}
