package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ogdenik/bankcore/internal/domain"
	"github.com/ogdenik/bankcore/internal/usecase"
)

// UserRepository implements usecase.UserRepository.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateTx inserts a user with their emails and phones inside a
// transaction.
func (r *UserRepository) CreateTx(ctx context.Context, tx usecase.Transaction, user *domain.User) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO users (id, name, date_of_birth, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID,
		user.Name,
		user.DateOfBirth,
		user.HashedPassword,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, email := range user.Emails {
		_, err := pgxTx.Exec(ctx,
			`INSERT INTO user_emails (id, user_id, address) VALUES ($1, $2, $3)`,
			email.ID, email.UserID, email.Address,
		)
		if err != nil {
			if isUniqueViolation(err, "") {
				return domain.ErrEmailTaken
			}

			return err
		}
	}

	for _, phone := range user.Phones {
		_, err := pgxTx.Exec(ctx,
			`INSERT INTO user_phones (id, user_id, number) VALUES ($1, $2, $3)`,
			phone.ID, phone.UserID, phone.Number,
		)
		if err != nil {
			if isUniqueViolation(err, "") {
				return domain.ErrPhoneTaken
			}

			return err
		}
	}

	return nil
}

// GetByID retrieves a user with all contacts.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User

	err := r.pool.QueryRow(ctx, `
		SELECT id, name, date_of_birth, hashed_password, created_at, updated_at
		FROM users WHERE id = $1`, id,
	).Scan(
		&user.ID,
		&user.Name,
		&user.DateOfBirth,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}

		return nil, err
	}

	if err := r.loadContacts(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByIdentifier loads a user by one of their emails or phones. An
// identifier containing "@" is treated as an email, anything else as a
// phone number.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	var (
		query string
		arg   string
	)

	if strings.Contains(identifier, "@") {
		query = `SELECT user_id FROM user_emails WHERE address = $1`
		arg = strings.ToLower(identifier)
	} else {
		query = `SELECT user_id FROM user_phones WHERE number = $1`
		arg = identifier
	}

	var userID string
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}

		return nil, err
	}

	return r.GetByID(ctx, userID)
}

// AddEmail attaches an email to a user.
func (r *UserRepository) AddEmail(ctx context.Context, email domain.Email) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_emails (id, user_id, address) VALUES ($1, $2, $3)`,
		email.ID, email.UserID, email.Address,
	)
	if isUniqueViolation(err, "") {
		return domain.ErrEmailTaken
	}

	return err
}

// UpdateEmail replaces the address of an existing email row.
func (r *UserRepository) UpdateEmail(ctx context.Context, email domain.Email) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE user_emails SET address = $3 WHERE id = $1 AND user_id = $2`,
		email.ID, email.UserID, email.Address,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrEmailTaken
		}

		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// DeleteEmail removes an email row.
func (r *UserRepository) DeleteEmail(ctx context.Context, userID, emailID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_emails WHERE id = $1 AND user_id = $2`,
		emailID, userID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// AddPhone attaches a phone to a user.
func (r *UserRepository) AddPhone(ctx context.Context, phone domain.Phone) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_phones (id, user_id, number) VALUES ($1, $2, $3)`,
		phone.ID, phone.UserID, phone.Number,
	)
	if isUniqueViolation(err, "") {
		return domain.ErrPhoneTaken
	}

	return err
}

// UpdatePhone replaces the number of an existing phone row.
func (r *UserRepository) UpdatePhone(ctx context.Context, phone domain.Phone) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE user_phones SET number = $3 WHERE id = $1 AND user_id = $2`,
		phone.ID, phone.UserID, phone.Number,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrPhoneTaken
		}

		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// DeletePhone removes a phone row.
func (r *UserRepository) DeletePhone(ctx context.Context, userID, phoneID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_phones WHERE id = $1 AND user_id = $2`,
		phoneID, userID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// Search finds users matching the filter.
func (r *UserRepository) Search(ctx context.Context, filter usecase.UserSearchFilter) ([]*domain.User, error) {
	query := `
		SELECT DISTINCT u.id, u.name, u.date_of_birth, u.hashed_password, u.created_at, u.updated_at
		FROM users u
		LEFT JOIN user_emails e ON e.user_id = u.id
		LEFT JOIN user_phones p ON p.user_id = u.id
		WHERE 1=1`

	args := []any{}
	argPos := 1

	if filter.NamePrefix != "" {
		query += fmt.Sprintf(" AND u.name ILIKE $%d", argPos)
		args = append(args, filter.NamePrefix+"%")
		argPos++
	}

	if filter.BornAfter != nil {
		query += fmt.Sprintf(" AND u.date_of_birth > $%d", argPos)
		args = append(args, *filter.BornAfter)
		argPos++
	}

	if filter.Email != "" {
		query += fmt.Sprintf(" AND e.address = $%d", argPos)
		args = append(args, strings.ToLower(filter.Email))
		argPos++
	}

	if filter.Phone != "" {
		query += fmt.Sprintf(" AND p.number = $%d", argPos)
		args = append(args, filter.Phone)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY u.name, u.id LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User

		err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.DateOfBirth,
			&user.HashedPassword,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, user := range users {
		if err := r.loadContacts(ctx, user); err != nil {
			return nil, err
		}
	}

	return users, nil
}

func (r *UserRepository) loadContacts(ctx context.Context, user *domain.User) error {
	emailRows, err := r.pool.Query(ctx,
		`SELECT id, user_id, address FROM user_emails WHERE user_id = $1 ORDER BY address`,
		user.ID,
	)
	if err != nil {
		return err
	}
	defer emailRows.Close()

	user.Emails = nil
	for emailRows.Next() {
		var email domain.Email
		if err := emailRows.Scan(&email.ID, &email.UserID, &email.Address); err != nil {
			return err
		}

		user.Emails = append(user.Emails, email)
	}

	if err := emailRows.Err(); err != nil {
		return err
	}

	phoneRows, err := r.pool.Query(ctx,
		`SELECT id, user_id, number FROM user_phones WHERE user_id = $1 ORDER BY number`,
		user.ID,
	)
	if err != nil {
		return err
	}
	defer phoneRows.Close()

	user.Phones = nil
	for phoneRows.Next() {
		var phone domain.Phone
		if err := phoneRows.Scan(&phone.ID, &phone.UserID, &phone.Number); err != nil {
			return err
		}

		user.Phones = append(user.Phones, phone)
	}

	return phoneRows.Err()
}
