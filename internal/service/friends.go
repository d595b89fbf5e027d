package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/repository"
)

// AddFriend links two users by the friend's email. Friendship is mutual:
// both directions are written together, so either side sees the other in
// their list immediately.
func (s *Service) AddFriend(ctx context.Context, userID int64, friendEmail string) (*models.FriendView, error) {
	friendUser, err := s.users.GetByEmail(ctx, friendEmail)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	if friendUser == nil {
		return nil, notFound("User not found")
	}
	if friendUser.ID == userID {
		return nil, badRequest("Cannot add yourself as a friend")
	}

	existing, err := s.friends.GetPair(ctx, userID, friendUser.ID)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	if existing != nil {
		return nil, badRequest("Already friends")
	}

	friendship, err := s.friends.CreatePair(ctx, userID, friendUser.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, badRequest("Already friends")
		}
		return nil, unexpected(err, "Internal server error")
	}

	s.log.Info("friendship created",
		zap.Int64("user_id", userID),
		zap.Int64("friend_id", friendUser.ID))

	return &models.FriendView{
		ID:          friendship.ID,
		FriendID:    friendUser.ID,
		FriendEmail: friendUser.Email,
		FriendName:  friendUser.Name,
	}, nil
}

func (s *Service) ListFriends(ctx context.Context, userID int64) ([]*models.FriendView, error) {
	friends, err := s.friends.ListByUser(ctx, userID)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	return friends, nil
}

func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	friendship, err := s.friends.GetPair(ctx, userID, friendID)
	if err != nil {
		return unexpected(err, "Internal server error")
	}
	if friendship == nil {
		return notFound("Friend not found")
	}
	if err := s.friends.DeletePair(ctx, userID, friendID); err != nil {
		return unexpected(err, "Internal server error")
	}
	return nil
}

// FriendPublicWishlists lists a friend's public wishlists. Only confirmed
// friends may look; anyone else sees NotFound.
func (s *Service) FriendPublicWishlists(ctx context.Context, userID, friendID int64) ([]*models.Wishlist, error) {
	friendship, err := s.friends.GetPair(ctx, userID, friendID)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	if friendship == nil {
		return nil, notFound("Friend not found")
	}
	wishlists, err := s.wishlists.ListPublicByOwner(ctx, friendID)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	return wishlists, nil
}
