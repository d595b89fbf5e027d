package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/repository"
)

type FriendRepository struct {
	db *sql.DB
}

func NewFriendRepository(db *sql.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// CreatePair writes both directions in one transaction so a friendship can
// never be half present.
func (r *FriendRepository) CreatePair(ctx context.Context, userID, friendID int64) (*models.Friend, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin friendship: %w", err)
	}
	defer tx.Rollback()

	var friend models.Friend
	friend.UserID = userID
	friend.FriendID = friendID
	err = tx.QueryRowContext(ctx,
		`INSERT INTO friends (user_id, friend_id) VALUES ($1, $2) RETURNING id, created_at`,
		userID, friendID).
		Scan(&friend.ID, &friend.CreatedAt)
	if err == nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO friends (user_id, friend_id) VALUES ($1, $2)`, friendID, userID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create friendship: %w", repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("create friendship: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit friendship: %w", err)
	}
	return &friend, nil
}

func (r *FriendRepository) GetPair(ctx context.Context, userID, friendID int64) (*models.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, created_at
		FROM friends
		WHERE user_id = $1 AND friend_id = $2`

	var friend models.Friend
	err := r.db.QueryRowContext(ctx, query, userID, friendID).
		Scan(&friend.ID, &friend.UserID, &friend.FriendID, &friend.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get friendship: %w", err)
	}
	return &friend, nil
}

func (r *FriendRepository) DeletePair(ctx context.Context, userID, friendID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM friends
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`,
		userID, friendID)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

func (r *FriendRepository) ListByUser(ctx context.Context, userID int64) ([]*models.FriendView, error) {
	query := `
		SELECT f.id, f.friend_id, u.email, u.name
		FROM friends f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY f.created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	var friends []*models.FriendView
	for rows.Next() {
		var fv models.FriendView
		if err := rows.Scan(&fv.ID, &fv.FriendID, &fv.FriendEmail, &fv.FriendName); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, &fv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}
