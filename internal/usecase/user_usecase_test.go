package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogdenik/bankcore/internal/domain"
	"github.com/ogdenik/bankcore/internal/usecase"
	"github.com/ogdenik/bankcore/internal/usecase/mocks"
)

type userFixture struct {
	userRepo    *mocks.MockUserRepository
	accountRepo *mocks.MockAccountRepository
	cache       *mocks.MockCache
	uc          *usecase.UserUseCase
}

func newUserFixture() *userFixture {
	f := &userFixture{
		userRepo:    mocks.NewMockUserRepository(),
		accountRepo: mocks.NewMockAccountRepository(),
		cache:       mocks.NewMockCache(),
	}

	f.uc = usecase.NewUserUseCase(
		&mocks.MockTransactionManager{},
		f.userRepo,
		f.accountRepo,
		f.cache,
		&mocks.MockIDGenerator{},
		nil,
		zerolog.Nop(),
	)

	return f
}

func validRegisterInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		Name:           "Alice",
		DateOfBirth:    time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		Password:       "correct-horse",
		Email:          "alice@example.com",
		Phone:          "79161234567",
		InitialBalance: decimal.NewFromInt(100),
	}
}

func TestUserUseCase_Register(t *testing.T) {
	f := newUserFixture()

	user, account, err := f.uc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	assert.Equal(t, "Alice", user.Name)
	assert.Empty(t, user.HashedPassword, "hash must never leave the use case")
	require.Len(t, user.Emails, 1)
	assert.Equal(t, "alice@example.com", user.Emails[0].Address)
	require.Len(t, user.Phones, 1)

	assert.Equal(t, user.ID, account.OwnerID)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(100)))
	require.True(t, account.HasInitialDeposit(), "registration records the initial deposit")
	assert.True(t, account.InitialDeposit.Equal(decimal.NewFromInt(100)))
}

func TestUserUseCase_Register_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*usecase.RegisterInput)
		wantErr error
	}{
		{
			name:    "empty name",
			mutate:  func(in *usecase.RegisterInput) { in.Name = "  " },
			wantErr: domain.ErrInvalidName,
		},
		{
			name:    "bad email",
			mutate:  func(in *usecase.RegisterInput) { in.Email = "nope" },
			wantErr: domain.ErrInvalidEmail,
		},
		{
			name:    "bad phone",
			mutate:  func(in *usecase.RegisterInput) { in.Phone = "12345" },
			wantErr: domain.ErrInvalidPhone,
		},
		{
			name:    "weak password",
			mutate:  func(in *usecase.RegisterInput) { in.Password = "short" },
			wantErr: domain.ErrPasswordTooWeak,
		},
		{
			name:    "negative deposit",
			mutate:  func(in *usecase.RegisterInput) { in.InitialBalance = decimal.NewFromInt(-1) },
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "sub-cent deposit",
			mutate: func(in *usecase.RegisterInput) {
				in.InitialBalance = decimal.RequireFromString("10.001")
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture()
			input := validRegisterInput()
			tt.mutate(&input)

			_, _, err := f.uc.Register(context.Background(), input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserUseCase_Authenticate(t *testing.T) {
	f := newUserFixture()

	_, _, err := f.uc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	user, err := f.uc.Authenticate(context.Background(), "alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Empty(t, user.HashedPassword)

	byPhone, err := f.uc.Authenticate(context.Background(), "79161234567", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byPhone.ID)

	_, err = f.uc.Authenticate(context.Background(), "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.uc.Authenticate(context.Background(), "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUserUseCase_DeleteEmail_LastContactGuard(t *testing.T) {
	f := newUserFixture()

	user, _, err := f.uc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	err = f.uc.DeleteEmail(context.Background(), user.ID, user.Emails[0].ID)
	assert.ErrorIs(t, err, domain.ErrLastContact)

	require.NoError(t, f.uc.AddEmail(context.Background(), user.ID, "alice2@example.com"))
	require.NoError(t, f.uc.DeleteEmail(context.Background(), user.ID, user.Emails[0].ID))
}

func TestUserUseCase_DeletePhone_LastContactGuard(t *testing.T) {
	f := newUserFixture()

	user, _, err := f.uc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	err = f.uc.DeletePhone(context.Background(), user.ID, user.Phones[0].ID)
	assert.ErrorIs(t, err, domain.ErrLastContact)
}

func TestUserUseCase_UpdateEmail_InvalidatesIdentityCache(t *testing.T) {
	f := newUserFixture()

	user, _, err := f.uc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	// Simulate a resolver having cached the old identifier.
	key := usecase.IdentityCacheKey("alice@example.com")
	require.NoError(t, f.cache.Set(context.Background(), key, "acc-1", time.Minute))

	err = f.uc.UpdateEmail(context.Background(), user.ID, user.Emails[0].ID, "new@example.com")
	require.NoError(t, err)

	assert.False(t, f.cache.Has(key), "the stale identifier mapping must be dropped")
}

func TestUserUseCase_AddEmail_Validation(t *testing.T) {
	f := newUserFixture()

	user, _, err := f.uc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	assert.ErrorIs(t, f.uc.AddEmail(context.Background(), user.ID, "broken"), domain.ErrInvalidEmail)
	assert.ErrorIs(t, f.uc.AddPhone(context.Background(), user.ID, "000"), domain.ErrInvalidPhone)
}

func TestUserUseCase_AddContact_RejectsOwnDuplicate(t *testing.T) {
	f := newUserFixture()

	user, _, err := f.uc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	err = f.uc.AddEmail(context.Background(), user.ID, "  Alice@Example.com ")
	assert.ErrorIs(t, err, domain.ErrEmailTaken, "an address the user already holds is rejected before the store sees it")

	err = f.uc.AddPhone(context.Background(), user.ID, "79161234567")
	assert.ErrorIs(t, err, domain.ErrPhoneTaken)
}

func TestUserUseCase_Search_ClampsPagination(t *testing.T) {
	f := newUserFixture()

	var gotFilter usecase.UserSearchFilter
	f.userRepo.SearchFunc = func(ctx context.Context, filter usecase.UserSearchFilter) ([]*domain.User, error) {
		gotFilter = filter
		return nil, nil
	}

	_, err := f.uc.Search(context.Background(), usecase.UserSearchFilter{Limit: 100000, Offset: -3})
	require.NoError(t, err)

	assert.Equal(t, 1000, gotFilter.Limit)
	assert.Equal(t, 0, gotFilter.Offset)
}
