package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ogdenik/bankcore/internal/domain"
	"github.com/ogdenik/bankcore/internal/infrastructure/metrics"
)

// IdentityCacheKey builds the cache key mapping a login identifier to the
// owner's account id. Shared with the identity resolver so contact
// mutations invalidate exactly the entries the resolver writes.
func IdentityCacheKey(identifier string) string {
	return "identity:" + strings.ToLower(strings.TrimSpace(identifier))
}

// UserUseCase handles registration, authentication and contact management.
type UserUseCase struct {
	txManager   TransactionManager
	userRepo    UserRepository
	accountRepo AccountRepository
	cache       Cache
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(
	txManager TransactionManager,
	userRepo UserRepository,
	accountRepo AccountRepository,
	cache Cache,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *UserUseCase {
	return &UserUseCase{
		txManager:   txManager,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		cache:       cache,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
	}
}

// RegisterInput carries a new user registration.
type RegisterInput struct {
	Name           string
	DateOfBirth    time.Time
	Password       string
	Email          string
	Phone          string
	InitialBalance decimal.Decimal
}

// Register creates a user and their account in one transaction. The
// account is seeded with the starting balance and its initial deposit is
// recorded at that same moment.
func (uc *UserUseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.Account, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, nil, err
	}

	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, nil, err
	}

	if err := domain.ValidatePhone(input.Phone); err != nil {
		return nil, nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	if input.InitialBalance.IsNegative() || !input.InitialBalance.Equal(input.InitialBalance.Round(domain.MoneyScale)) {
		return nil, nil, domain.ErrInvalidAmount
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()

	user := &domain.User{
		ID:             uc.idGen.Generate(),
		Name:           strings.TrimSpace(input.Name),
		DateOfBirth:    input.DateOfBirth,
		HashedPassword: string(hashed),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	user.Emails = []domain.Email{{
		ID:      uc.idGen.Generate(),
		UserID:  user.ID,
		Address: strings.ToLower(strings.TrimSpace(input.Email)),
	}}
	user.Phones = []domain.Phone{{
		ID:     uc.idGen.Generate(),
		UserID: user.ID,
		Number: strings.TrimSpace(input.Phone),
	}}

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		OwnerID:   user.ID,
		Balance:   input.InitialBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	account.RecordInitialDeposit()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.userRepo.CreateTx(ctx, tx, user); err != nil {
		return nil, nil, err
	}

	if err := uc.accountRepo.CreateTx(ctx, tx, account); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	uc.metrics.AccountRegistered()
	uc.logger.Info().
		Str("user_id", user.ID).
		Str("account_id", account.ID).
		Msg("user registered")

	user.HashedPassword = ""

	return user, account, nil
}

// Authenticate verifies an email-or-phone identifier plus password and
// returns the matching user.
func (uc *UserUseCase) Authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	user, err := uc.userRepo.GetByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	user.HashedPassword = ""

	return user, nil
}

// GetUser retrieves a user by id.
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.HashedPassword = ""

	return user, nil
}

// AddEmail attaches a new email to the user.
func (uc *UserUseCase) AddEmail(ctx context.Context, userID, address string) error {
	if err := domain.ValidateEmail(address); err != nil {
		return err
	}

	normalized := strings.ToLower(strings.TrimSpace(address))

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.HasEmail(normalized) {
		return domain.ErrEmailTaken
	}

	return uc.userRepo.AddEmail(ctx, domain.Email{
		ID:      uc.idGen.Generate(),
		UserID:  userID,
		Address: normalized,
	})
}

// UpdateEmail replaces the address of one of the user's emails.
func (uc *UserUseCase) UpdateEmail(ctx context.Context, userID, emailID, address string) error {
	if err := domain.ValidateEmail(address); err != nil {
		return err
	}

	old, err := uc.findEmail(ctx, userID, emailID)
	if err != nil {
		return err
	}

	if err := uc.userRepo.UpdateEmail(ctx, domain.Email{
		ID:      emailID,
		UserID:  userID,
		Address: strings.ToLower(strings.TrimSpace(address)),
	}); err != nil {
		return err
	}

	uc.invalidateIdentity(ctx, old.Address)

	return nil
}

// DeleteEmail removes one of the user's emails. The last email cannot be
// removed: it may be the user's only login identifier.
func (uc *UserUseCase) DeleteEmail(ctx context.Context, userID, emailID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if len(user.Emails) <= 1 {
		return domain.ErrLastContact
	}

	var old *domain.Email
	for i := range user.Emails {
		if user.Emails[i].ID == emailID {
			old = &user.Emails[i]
		}
	}
	if old == nil {
		return domain.ErrUserNotFound
	}

	if err := uc.userRepo.DeleteEmail(ctx, userID, emailID); err != nil {
		return err
	}

	uc.invalidateIdentity(ctx, old.Address)

	return nil
}

// AddPhone attaches a new phone to the user.
func (uc *UserUseCase) AddPhone(ctx context.Context, userID, number string) error {
	if err := domain.ValidatePhone(number); err != nil {
		return err
	}

	normalized := strings.TrimSpace(number)

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.HasPhone(normalized) {
		return domain.ErrPhoneTaken
	}

	return uc.userRepo.AddPhone(ctx, domain.Phone{
		ID:     uc.idGen.Generate(),
		UserID: userID,
		Number: normalized,
	})
}

// UpdatePhone replaces the number of one of the user's phones.
func (uc *UserUseCase) UpdatePhone(ctx context.Context, userID, phoneID, number string) error {
	if err := domain.ValidatePhone(number); err != nil {
		return err
	}

	old, err := uc.findPhone(ctx, userID, phoneID)
	if err != nil {
		return err
	}

	if err := uc.userRepo.UpdatePhone(ctx, domain.Phone{
		ID:     phoneID,
		UserID: userID,
		Number: strings.TrimSpace(number),
	}); err != nil {
		return err
	}

	uc.invalidateIdentity(ctx, old.Number)

	return nil
}

// DeletePhone removes one of the user's phones. The last phone cannot be
// removed.
func (uc *UserUseCase) DeletePhone(ctx context.Context, userID, phoneID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if len(user.Phones) <= 1 {
		return domain.ErrLastContact
	}

	var old *domain.Phone
	for i := range user.Phones {
		if user.Phones[i].ID == phoneID {
			old = &user.Phones[i]
		}
	}
	if old == nil {
		return domain.ErrUserNotFound
	}

	if err := uc.userRepo.DeletePhone(ctx, userID, phoneID); err != nil {
		return err
	}

	uc.invalidateIdentity(ctx, old.Number)

	return nil
}

// Search finds users by name prefix, birth date, email or phone.
func (uc *UserUseCase) Search(ctx context.Context, filter UserSearchFilter) ([]*domain.User, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	users, err := uc.userRepo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		user.HashedPassword = ""
	}

	return users, nil
}

func (uc *UserUseCase) findEmail(ctx context.Context, userID, emailID string) (*domain.Email, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range user.Emails {
		if user.Emails[i].ID == emailID {
			return &user.Emails[i], nil
		}
	}

	return nil, domain.ErrUserNotFound
}

func (uc *UserUseCase) findPhone(ctx context.Context, userID, phoneID string) (*domain.Phone, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range user.Phones {
		if user.Phones[i].ID == phoneID {
			return &user.Phones[i], nil
		}
	}

	return nil, domain.ErrUserNotFound
}

// invalidateIdentity drops the cached identifier-to-account mapping after
// a contact changes. Cache trouble is not a reason to fail the mutation.
func (uc *UserUseCase) invalidateIdentity(ctx context.Context, identifier string) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Delete(ctx, IdentityCacheKey(identifier)); err != nil {
		uc.logger.Warn().Err(err).Msg("failed to invalidate identity cache entry")
	}
}
