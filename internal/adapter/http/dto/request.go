package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogdenik/bankcore/internal/usecase"
)

// RegisterRequest represents a new user registration.
type RegisterRequest struct {
	Name           string          `json:"name"`
	DateOfBirth    string          `json:"date_of_birth"` // 2006-01-02
	Password       string          `json:"password"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() (usecase.RegisterInput, error) {
	dob, err := time.Parse("2006-01-02", r.DateOfBirth)
	if err != nil {
		return usecase.RegisterInput{}, err
	}

	return usecase.RegisterInput{
		Name:           r.Name,
		DateOfBirth:    dob,
		Password:       r.Password,
		Email:          r.Email,
		Phone:          r.Phone,
		InitialBalance: r.InitialBalance,
	}, nil
}

// LoginRequest represents an authentication attempt by email or phone.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// TransferRequest represents a money movement to another account. The
// sender is always the authenticated caller.
type TransferRequest struct {
	RecipientAccountID string          `json:"recipient_account_id"`
	Amount             decimal.Decimal `json:"amount"`
}

// EmailRequest carries an email address for contact management.
type EmailRequest struct {
	Address string `json:"address"`
}

// PhoneRequest carries a phone number for contact management.
type PhoneRequest struct {
	Number string `json:"number"`
}
