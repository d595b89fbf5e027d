package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/repository"
	"github.com/giftwell/server/internal/telemetry"
)

// Guest submission bounds, matching the column widths.
const (
	maxDisplayNameLen = 255
	maxContactLen     = 255
	maxIdemTokenLen   = 255
)

// ReservationInput is a guest's request to reserve an item. The idempotency
// token is optional and opaque; clients that retry must resend the same one.
type ReservationInput struct {
	DisplayName      string
	Contact          *string
	IdempotencyToken string
}

func (in *ReservationInput) validate() error {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.DisplayName == "" {
		return invalid("display_name must not be empty")
	}
	if len(in.DisplayName) > maxDisplayNameLen {
		return invalid("display_name is too long")
	}
	if in.Contact != nil && len(*in.Contact) > maxContactLen {
		return invalid("contact is too long")
	}
	if len(in.IdempotencyToken) > maxIdemTokenLen {
		return invalid("idempotency token is too long")
	}
	return nil
}

// Reserve marks an item as taken by exactly one guest. The unique constraint
// on reservations.item_id is the sole arbiter between concurrent reservers;
// there is no lock to hold and no window where two reservations coexist.
//
// A request that carries the same idempotency token as the stored
// reservation is a retry of the winning submission and gets the existing
// reservation back (replayed=true). Any other request against a reserved
// item gets a conflict, including tokenless retries: without a token the
// guard cannot tell a retry from a rival.
func (s *Service) Reserve(ctx context.Context, shareSlug string, itemID int64, in ReservationInput) (reservation *models.Reservation, replayed bool, err error) {
	if err := in.validate(); err != nil {
		return nil, false, err
	}

	item, err := s.publicItem(ctx, shareSlug, itemID)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.reservations.GetByItemID(ctx, item.ID)
	if err != nil {
		return nil, false, unexpected(err, "Internal server error")
	}
	if existing != nil {
		return s.resolveReserved(shareSlug, item.ID, existing, in.IdempotencyToken)
	}

	res := &models.Reservation{
		ItemID:      item.ID,
		DisplayName: in.DisplayName,
		Contact:     in.Contact,
	}
	if in.IdempotencyToken != "" {
		token := in.IdempotencyToken
		res.IdempotencyToken = &token
	}

	created, err := s.reservations.Create(ctx, res)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the insert race. The winner's row is committed, so
			// re-read it and resolve exactly as if it had been found
			// up front.
			winner, lookupErr := s.reservations.GetByItemID(ctx, item.ID)
			if lookupErr != nil {
				return nil, false, unexpected(lookupErr, "Internal server error")
			}
			if winner == nil {
				return nil, false, unexpected(err, "Internal server error")
			}
			return s.resolveReserved(shareSlug, item.ID, winner, in.IdempotencyToken)
		}
		return nil, false, unexpected(err, "Internal server error")
	}

	s.log.Info("item reserved",
		zap.String("share_slug", shareSlug),
		zap.Int64("item_id", item.ID),
		zap.Int64("reservation_id", created.ID))
	s.metrics.ReservationOutcome(telemetry.OutcomeCreated)

	s.publishItemUpdate(ctx, shareSlug, item.ID)
	return created, false, nil
}

// resolveReserved decides what an already reserved item means for this
// request: a replay when the stored token matches the presented one, a
// conflict otherwise. Replays do not broadcast; nothing changed.
func (s *Service) resolveReserved(shareSlug string, itemID int64, existing *models.Reservation, token string) (*models.Reservation, bool, error) {
	if token != "" && existing.IdempotencyToken != nil && *existing.IdempotencyToken == token {
		s.log.Info("reservation replayed",
			zap.String("share_slug", shareSlug),
			zap.Int64("item_id", itemID),
			zap.Int64("reservation_id", existing.ID))
		s.metrics.ReservationOutcome(telemetry.OutcomeReplayed)
		return existing, true, nil
	}
	s.metrics.ReservationOutcome(telemetry.OutcomeConflict)
	return nil, false, conflict("Item is already reserved")
}
