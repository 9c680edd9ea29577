package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogdenik/bankcore/internal/domain"
	"github.com/ogdenik/bankcore/internal/usecase"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	AccountID   string `json:"account_id,omitempty"`
}

// AccountResponse represents an account.
type AccountResponse struct {
	ID             string           `json:"id"`
	OwnerID        string           `json:"owner_id"`
	Balance        decimal.Decimal  `json:"balance"`
	InitialDeposit *decimal.Decimal `json:"initial_deposit,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// AccountFromDomain converts a domain account.
func AccountFromDomain(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID,
		OwnerID:        a.OwnerID,
		Balance:        a.Balance,
		InitialDeposit: a.InitialDeposit,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// ReceiptResponse represents a committed transfer.
type ReceiptResponse struct {
	SenderAccountID    string          `json:"sender_account_id"`
	RecipientAccountID string          `json:"recipient_account_id"`
	Amount             decimal.Decimal `json:"amount"`
	SenderBalance      decimal.Decimal `json:"sender_balance"`
	CreatedAt          time.Time       `json:"created_at"`
}

// ReceiptFromUseCase converts a transfer receipt. The recipient's balance
// is deliberately not exposed to the sender.
func ReceiptFromUseCase(r *usecase.TransferReceipt) ReceiptResponse {
	return ReceiptResponse{
		SenderAccountID:    r.SenderAccountID,
		RecipientAccountID: r.RecipientAccountID,
		Amount:             r.Amount,
		SenderBalance:      r.SenderBalance,
		CreatedAt:          r.CreatedAt,
	}
}

// LedgerEntryResponse represents one ledger entry.
type LedgerEntryResponse struct {
	ID                 string          `json:"id"`
	SenderAccountID    string          `json:"sender_account_id"`
	RecipientAccountID string          `json:"recipient_account_id"`
	Amount             decimal.Decimal `json:"amount"`
	Description        string          `json:"description"`
	CreatedAt          time.Time       `json:"created_at"`
}

// LedgerEntriesFromDomain converts a slice of ledger entries.
func LedgerEntriesFromDomain(entries []*domain.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntryResponse{
			ID:                 e.ID,
			SenderAccountID:    e.SenderAccountID,
			RecipientAccountID: e.RecipientAccountID,
			Amount:             e.Amount,
			Description:        e.Description,
			CreatedAt:          e.CreatedAt,
		})
	}

	return out
}

// EmailResponse represents one of a user's email addresses.
type EmailResponse struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// PhoneResponse represents one of a user's phone numbers.
type PhoneResponse struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

// UserResponse represents a user with contacts. Contact ids are included
// so clients can address individual entries for update and removal.
type UserResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DateOfBirth string          `json:"date_of_birth"`
	Emails      []EmailResponse `json:"emails"`
	Phones      []PhoneResponse `json:"phones"`
}

// UserFromDomain converts a domain user.
func UserFromDomain(u *domain.User) UserResponse {
	emails := make([]EmailResponse, 0, len(u.Emails))
	for _, e := range u.Emails {
		emails = append(emails, EmailResponse{ID: e.ID, Address: e.Address})
	}

	phones := make([]PhoneResponse, 0, len(u.Phones))
	for _, p := range u.Phones {
		phones = append(phones, PhoneResponse{ID: p.ID, Number: p.Number})
	}

	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		DateOfBirth: u.DateOfBirth.Format("2006-01-02"),
		Emails:      emails,
		Phones:      phones,
	}
}

// UsersFromDomain converts a slice of users.
func UsersFromDomain(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserFromDomain(u))
	}

	return out
}
