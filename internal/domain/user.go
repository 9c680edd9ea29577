package domain

import "time"

// User is an account owner. Every user holds at least one email and one
// phone; both are unique system-wide and either works as a login
// identifier.
type User struct {
	ID             string
	Name           string
	DateOfBirth    time.Time
	HashedPassword string
	Emails         []Email
	Phones         []Phone
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Email is one of a user's email addresses.
type Email struct {
	ID      string
	UserID  string
	Address string
}

// Phone is one of a user's phone numbers.
type Phone struct {
	ID     string
	UserID string
	Number string
}

// HasEmail reports whether the user owns the given address.
func (u *User) HasEmail(address string) bool {
	for _, e := range u.Emails {
		if e.Address == address {
			return true
		}
	}
	return false
}

// HasPhone reports whether the user owns the given number.
func (u *User) HasPhone(number string) bool {
	for _, p := range u.Phones {
		if p.Number == number {
			return true
		}
	}
	return false
}
