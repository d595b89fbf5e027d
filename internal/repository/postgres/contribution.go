package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/repository"
)

type ContributionRepository struct {
	db *sql.DB
}

func NewContributionRepository(db *sql.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

// Exists matches on the same identity the unique index enforces: a NULL
// contact is folded to the empty string so two contactless submissions with
// one display name count as the same contributor.
func (r *ContributionRepository) Exists(ctx context.Context, itemID int64, displayName string, contact *string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM contributions
			WHERE item_id = $1
				AND contributor_display_name = $2
				AND COALESCE(contributor_contact, '') = COALESCE($3, '')
		)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, itemID, displayName, contact).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check contribution: %w", err)
	}
	return exists, nil
}

func (r *ContributionRepository) Create(ctx context.Context, contribution *models.Contribution) (*models.Contribution, error) {
	query := `
		INSERT INTO contributions (item_id, contributor_display_name, contributor_contact, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		contribution.ItemID, contribution.DisplayName, contribution.Contact,
		contribution.Amount).
		Scan(&contribution.ID, &contribution.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create contribution: %w", repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("create contribution: %w", err)
	}
	return contribution, nil
}
