package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/ogdenik/bankcore/internal/domain"
)

func TestMapConcurrencyError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantConflict bool
	}{
		{name: "nil", err: nil},
		{
			name:         "serialization failure",
			err:          &pgconn.PgError{Code: "40001"},
			wantConflict: true,
		},
		{
			name:         "deadlock detected",
			err:          &pgconn.PgError{Code: "40P01"},
			wantConflict: true,
		},
		{
			name:         "lock not available",
			err:          &pgconn.PgError{Code: "55P03"},
			wantConflict: true,
		},
		{
			name:         "wrapped pg error",
			err:          fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01"}),
			wantConflict: true,
		},
		{
			name: "unrelated pg error",
			err:  &pgconn.PgError{Code: "23503"},
		},
		{
			name: "plain error",
			err:  errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapConcurrencyError(tt.err)

			if tt.err == nil {
				assert.NoError(t, got)
				return
			}

			if tt.wantConflict {
				assert.ErrorIs(t, got, domain.ErrConflict)
			} else {
				assert.NotErrorIs(t, got, domain.ErrConflict)
				assert.Equal(t, tt.err, got)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "user_emails_address_key"}

	assert.True(t, isUniqueViolation(dup, ""))
	assert.True(t, isUniqueViolation(dup, "user_emails_address_key"))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup), "user_emails_address_key"))

	assert.False(t, isUniqueViolation(dup, "user_phones_number_key"))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "40001"}, ""))
	assert.False(t, isUniqueViolation(errors.New("nope"), ""))
}
