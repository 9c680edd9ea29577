package mocks

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogdenik/bankcore/internal/domain"
	"github.com/ogdenik/bankcore/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
// By default it behaves like an in-memory store; any *Func field overrides
// the corresponding method.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc            func(ctx context.Context, account *domain.Account) error
	CreateTxFunc          func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByOwnerIDFunc      func(ctx context.Context, ownerID string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalanceTxFunc   func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	SaveFunc              func(ctx context.Context, account *domain.Account) error
	ListFunc              func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Put seeds the in-memory store directly.
func (m *MockAccountRepository) Put(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.Put(account)
	return nil
}

func (m *MockAccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, account)
	}
	m.Put(account)
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.Account, error) {
	if m.GetByOwnerIDFunc != nil {
		return m.GetByOwnerIDFunc(ctx, ownerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID {
			return acc, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalanceTx(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceTxFunc != nil {
		return m.UpdateBalanceTxFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Balance = balance
	acc.Version++
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) Save(ctx context.Context, account *domain.Account) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.accounts[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if stored.Version != account.Version {
		return domain.ErrConflict
	}
	account.Version++
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]*domain.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		all = append(all, acc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry

	AppendFunc        func(ctx context.Context, entry *domain.LedgerEntry) error
	ListByAccountFunc func(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{}
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockLedgerRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.SenderAccountID == accountID || e.RecipientAccountID == accountID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Entries returns a copy of everything appended so far.
func (m *MockLedgerRepository) Entries() []*domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	CreateTxFunc        func(ctx context.Context, tx usecase.Transaction, user *domain.User) error
	GetByIDFunc         func(ctx context.Context, id string) (*domain.User, error)
	GetByIdentifierFunc func(ctx context.Context, identifier string) (*domain.User, error)
	AddEmailFunc        func(ctx context.Context, email domain.Email) error
	UpdateEmailFunc     func(ctx context.Context, email domain.Email) error
	DeleteEmailFunc     func(ctx context.Context, userID, emailID string) error
	AddPhoneFunc        func(ctx context.Context, phone domain.Phone) error
	UpdatePhoneFunc     func(ctx context.Context, phone domain.Phone) error
	DeletePhoneFunc     func(ctx context.Context, userID, phoneID string) error
	SearchFunc          func(ctx context.Context, filter usecase.UserSearchFilter) ([]*domain.User, error)
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// Put seeds the in-memory store. The stored user is a copy, so later
// mutation of the argument does not leak into the store.
func (m *MockUserRepository) Put(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = copyUser(user)
}

func copyUser(user *domain.User) *domain.User {
	stored := *user
	stored.Emails = append([]domain.Email(nil), user.Emails...)
	stored.Phones = append([]domain.Phone(nil), user.Phones...)
	return &stored
}

func (m *MockUserRepository) CreateTx(ctx context.Context, tx usecase.Transaction, user *domain.User) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, user)
	}
	m.Put(user)
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if user, ok := m.users[id]; ok {
		return copyUser(user), nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	if m.GetByIdentifierFunc != nil {
		return m.GetByIdentifierFunc(ctx, identifier)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(identifier))
	for _, user := range m.users {
		for _, email := range user.Emails {
			if strings.ToLower(email.Address) == needle {
				return copyUser(user), nil
			}
		}
		for _, phone := range user.Phones {
			if phone.Number == needle {
				return copyUser(user), nil
			}
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) AddEmail(ctx context.Context, email domain.Email) error {
	if m.AddEmailFunc != nil {
		return m.AddEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email.UserID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Emails = append(user.Emails, email)
	return nil
}

func (m *MockUserRepository) UpdateEmail(ctx context.Context, email domain.Email) error {
	if m.UpdateEmailFunc != nil {
		return m.UpdateEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email.UserID]
	if !ok {
		return domain.ErrUserNotFound
	}
	for i := range user.Emails {
		if user.Emails[i].ID == email.ID {
			user.Emails[i] = email
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (m *MockUserRepository) DeleteEmail(ctx context.Context, userID, emailID string) error {
	if m.DeleteEmailFunc != nil {
		return m.DeleteEmailFunc(ctx, userID, emailID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	for i := range user.Emails {
		if user.Emails[i].ID == emailID {
			user.Emails = append(user.Emails[:i], user.Emails[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (m *MockUserRepository) AddPhone(ctx context.Context, phone domain.Phone) error {
	if m.AddPhoneFunc != nil {
		return m.AddPhoneFunc(ctx, phone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[phone.UserID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Phones = append(user.Phones, phone)
	return nil
}

func (m *MockUserRepository) UpdatePhone(ctx context.Context, phone domain.Phone) error {
	if m.UpdatePhoneFunc != nil {
		return m.UpdatePhoneFunc(ctx, phone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[phone.UserID]
	if !ok {
		return domain.ErrUserNotFound
	}
	for i := range user.Phones {
		if user.Phones[i].ID == phone.ID {
			user.Phones[i] = phone
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (m *MockUserRepository) DeletePhone(ctx context.Context, userID, phoneID string) error {
	if m.DeletePhoneFunc != nil {
		return m.DeletePhoneFunc(ctx, userID, phoneID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	for i := range user.Phones {
		if user.Phones[i].ID == phoneID {
			user.Phones = append(user.Phones[:i], user.Phones[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (m *MockUserRepository) Search(ctx context.Context, filter usecase.UserSearchFilter) ([]*domain.User, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var users []*domain.User
	for _, user := range m.users {
		if filter.NamePrefix != "" && !strings.HasPrefix(user.Name, filter.NamePrefix) {
			continue
		}
		users = append(users, copyUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	t.RolledBack = true
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockIDGenerator returns sequential ids for deterministic tests.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int
}

func (g *MockIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return "id-" + strconv.Itoa(g.next)
}

// MockCache is an in-memory Cache.
type MockCache struct {
	mu    sync.RWMutex
	items map[string]string

	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string]string)}
}

func (c *MockCache) Get(ctx context.Context, key string) (string, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, key)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.items[key]; ok {
		return v, nil
	}
	return "", usecase.ErrCacheMiss
}

func (c *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.SetFunc != nil {
		return c.SetFunc(ctx, key, value, ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *MockCache) Delete(ctx context.Context, key string) error {
	if c.DeleteFunc != nil {
		return c.DeleteFunc(ctx, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// Has reports whether a key is present.
func (c *MockCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[key]
	return ok
}
