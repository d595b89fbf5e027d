package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const slugAttempts = 5

// newShareSlug mints an unguessable URL-safe slug and retries on the
// unlikely collision. Slugs are the only handle guests ever hold, so they
// come from crypto/rand.
func (s *Service) newShareSlug(ctx context.Context) (string, error) {
	for i := 0; i < slugAttempts; i++ {
		raw := make([]byte, 8)
		if _, err := rand.Read(raw); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		slug := base64.RawURLEncoding.EncodeToString(raw)
		exists, err := s.wishlists.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
	}
	return "", errors.New("could not find a free share slug")
}
