package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/repository"
	"github.com/giftwell/server/internal/telemetry"
)

// ContributionInput is a guest's pledge toward an item.
type ContributionInput struct {
	DisplayName string
	Contact     *string
	Amount      float64
}

func (in *ContributionInput) validate() error {
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
	if !(in.Amount > 0) {
		return invalid("amount must be greater than zero")
	}
	cents := in.Amount * 100
	if math.Abs(cents-math.Round(cents)) > 1e-9 {
		return invalid("amount must have at most two decimal places")
	}
	return nil
}

// Contribute records one guest's pledge toward an item. A guest identity is
// its display name plus optional contact; each identity contributes at most
// once per item, enforced both by a pre-check and by the unique index that
// settles concurrent submissions.
//
// There is deliberately no replay path here: a retry after a committed
// contribution is rejected as a duplicate.
func (s *Service) Contribute(ctx context.Context, shareSlug string, itemID int64, in ContributionInput) (*models.Contribution, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	item, err := s.publicItem(ctx, shareSlug, itemID)
	if err != nil {
		return nil, err
	}

	already, err := s.contributions.Exists(ctx, item.ID, in.DisplayName, in.Contact)
	if err != nil {
		return nil, unexpected(err, "Internal server error")
	}
	if already {
		s.metrics.ContributionOutcome(telemetry.OutcomeDuplicate)
		return nil, conflict("You have already contributed to this item")
	}

	contribution := &models.Contribution{
		ItemID:      item.ID,
		DisplayName: in.DisplayName,
		Contact:     in.Contact,
		Amount:      in.Amount,
	}
	created, err := s.contributions.Create(ctx, contribution)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.ContributionOutcome(telemetry.OutcomeDuplicate)
			return nil, conflict("You have already contributed to this item")
		}
		return nil, unexpected(err, "Internal server error")
	}

	s.log.Info("contribution recorded",
		zap.String("share_slug", shareSlug),
		zap.Int64("item_id", item.ID),
		zap.Int64("contribution_id", created.ID),
		zap.Float64("amount", created.Amount))
	s.metrics.ContributionOutcome(telemetry.OutcomeCreated)

	s.publishItemUpdate(ctx, shareSlug, item.ID)
	return created, nil
}
