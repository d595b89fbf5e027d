// Package service implements the application's business rules on top of the
// repositories. Every mutation that changes what viewers see ends with a
// broadcast, and broadcasts happen strictly after the database commit.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/realtime"
	"github.com/giftwell/server/internal/repository"
	"github.com/giftwell/server/internal/telemetry"
)

// Mailer delivers outbound mail. Implementations must be safe for concurrent
// use.
type Mailer interface {
	Send(to, subject, body string) error
}

// Deps collects everything a Service needs. Log, Metrics and Mailer may be
// nil.
type Deps struct {
	Log           *zap.Logger
	Broadcaster   *realtime.Broadcaster
	Metrics       *telemetry.Metrics
	Mailer        Mailer
	Users         repository.UserRepository
	EmailCodes    repository.EmailCodeRepository
	Wishlists     repository.WishlistRepository
	Items         repository.ItemRepository
	Reservations  repository.ReservationRepository
	Contributions repository.ContributionRepository
	Friends       repository.FriendRepository
	JWTSecret     []byte
	TokenTTL      time.Duration
}

type Service struct {
	log           *zap.Logger
	broadcaster   *realtime.Broadcaster
	metrics       *telemetry.Metrics
	mailer        Mailer
	users         repository.UserRepository
	emailCodes    repository.EmailCodeRepository
	wishlists     repository.WishlistRepository
	items         repository.ItemRepository
	reservations  repository.ReservationRepository
	contributions repository.ContributionRepository
	friends       repository.FriendRepository
	jwtSecret     []byte
	tokenTTL      time.Duration
}

func New(deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	tokenTTL := deps.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Service{
		log:           log,
		broadcaster:   deps.Broadcaster,
		metrics:       deps.Metrics,
		mailer:        deps.Mailer,
		users:         deps.Users,
		emailCodes:    deps.EmailCodes,
		wishlists:     deps.Wishlists,
		items:         deps.Items,
		reservations:  deps.Reservations,
		contributions: deps.Contributions,
		friends:       deps.Friends,
		jwtSecret:     deps.JWTSecret,
		tokenTTL:      tokenTTL,
	}
}

// publishItemUpdate pushes the committed projection of an item to the
// wishlist's viewers. It never fails the caller: the mutation is already
// durable, so a lost event costs a refresh while a premature one would show
// state that might still roll back.
func (s *Service) publishItemUpdate(ctx context.Context, shareSlug string, itemID int64) {
	view, err := s.items.GetView(ctx, itemID)
	if err != nil {
		s.log.Warn("skipping item broadcast",
			zap.Int64("item_id", itemID), zap.Error(err))
		return
	}
	if view == nil {
		return
	}
	s.broadcaster.Publish(realtime.WishlistTopic(shareSlug), realtime.ItemUpdated(view))
}

// broadcastView publishes an already-loaded projection.
func (s *Service) broadcastView(shareSlug string, view *models.ItemView) {
	s.broadcaster.Publish(realtime.WishlistTopic(shareSlug), realtime.ItemUpdated(view))
}

// publishFriendIndexDirty tells the owner's friends that the set of public
// wishlists changed and should be refetched.
func (s *Service) publishFriendIndexDirty(ownerID int64) {
	s.broadcaster.Publish(realtime.FriendIndexTopic(ownerID), realtime.FriendWishlistsDirty())
}
