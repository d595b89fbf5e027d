// Package postgres implements the repository contracts on database/sql.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/repository"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, hashed_password, name)
		VALUES ($1, $2, $3)
		RETURNING id, is_email_verified, created_at`

	err := r.db.QueryRowContext(ctx, query, user.Email, user.HashedPassword, user.Name).
		Scan(&user.ID, &user.IsEmailVerified, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, hashed_password, name, is_email_verified, created_at
		FROM users
		WHERE id = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, hashed_password, name, is_email_verified, created_at
		FROM users
		WHERE email = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET hashed_password = $1 WHERE id = $2`, hashedPassword, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_email_verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.HashedPassword, &user.Name,
		&user.IsEmailVerified, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
