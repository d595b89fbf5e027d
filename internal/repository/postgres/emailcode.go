package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/giftwell/server/internal/models"
)

type EmailCodeRepository struct {
	db *sql.DB
}

func NewEmailCodeRepository(db *sql.DB) *EmailCodeRepository {
	return &EmailCodeRepository{db: db}
}

func (r *EmailCodeRepository) Create(ctx context.Context, code *models.EmailCode) (*models.EmailCode, error) {
	query := `
		INSERT INTO email_codes (email, purpose, code_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_used, created_at`

	err := r.db.QueryRowContext(ctx, query,
		code.Email, code.Purpose, code.CodeHash, code.ExpiresAt).
		Scan(&code.ID, &code.IsUsed, &code.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create email code: %w", err)
	}
	return code, nil
}

func (r *EmailCodeRepository) GetLatestActive(ctx context.Context, email, purpose string, now time.Time) (*models.EmailCode, error) {
	query := `
		SELECT id, email, purpose, code_hash, is_used, created_at, expires_at
		FROM email_codes
		WHERE email = $1 AND purpose = $2 AND is_used = FALSE AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1`

	var code models.EmailCode
	err := r.db.QueryRowContext(ctx, query, email, purpose, now).
		Scan(&code.ID, &code.Email, &code.Purpose, &code.CodeHash,
			&code.IsUsed, &code.CreatedAt, &code.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get email code: %w", err)
	}
	return &code, nil
}

func (r *EmailCodeRepository) MarkUsed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE email_codes SET is_used = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark email code used: %w", err)
	}
	return nil
}
