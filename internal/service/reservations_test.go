package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/realtime"
)

func TestReserveCreatesAndBroadcasts(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	wishlist := f.seedWishlist(t, owner.ID, "party", true)
	item := f.seedItem(t, wishlist.ID, "Espresso machine")
	rec := f.watch(realtime.WishlistTopic("party"))

	contact := strPtr("anna@example.com")
	res, replayed, err := f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{
		DisplayName: "Anna",
		Contact:     contact,
	})
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, item.ID, res.ItemID)
	assert.Equal(t, "Anna", res.DisplayName)
	assert.NotZero(t, res.ID)

	require.Equal(t, 1, rec.count())
	ev := rec.last(t)
	assert.Equal(t, realtime.EventItemUpdated, ev.Type)
	require.NotNil(t, ev.Item)
	assert.Equal(t, item.ID, ev.Item.ID)
	assert.True(t, ev.Item.IsReserved)
}

func TestReserveSecondGuestConflicts(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	wishlist := f.seedWishlist(t, owner.ID, "party", true)
	item := f.seedItem(t, wishlist.ID, "Espresso machine")
	rec := f.watch(realtime.WishlistTopic("party"))

	_, _, err := f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{DisplayName: "Anna"})
	require.NoError(t, err)

	_, _, err = f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{DisplayName: "Boris"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "Item is already reserved")

	// Only the winning reservation was announced.
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, 1, f.reservations.count())
}

func TestReserveReplaySameToken(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	wishlist := f.seedWishlist(t, owner.ID, "party", true)
	item := f.seedItem(t, wishlist.ID, "Espresso machine")
	rec := f.watch(realtime.WishlistTopic("party"))

	in := ReservationInput{DisplayName: "Anna", IdempotencyToken: "retry-7c2f"}
	first, replayed, err := f.svc.Reserve(context.Background(), "party", item.ID, in)
	require.NoError(t, err)
	require.False(t, replayed)

	second, replayed, err := f.svc.Reserve(context.Background(), "party", item.ID, in)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	// The replay changed nothing, so nothing extra was broadcast.
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, 1, f.reservations.count())
}

func TestReserveTokenlessRetryConflicts(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	wishlist := f.seedWishlist(t, owner.ID, "party", true)
	item := f.seedItem(t, wishlist.ID, "Espresso machine")

	_, _, err := f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{
		DisplayName:      "Anna",
		IdempotencyToken: "retry-7c2f",
	})
	require.NoError(t, err)

	// Same guest, no token: indistinguishable from a rival.
	_, _, err = f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{DisplayName: "Anna"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestReserveTokenAgainstTokenlessWinnerConflicts(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	wishlist := f.seedWishlist(t, owner.ID, "party", true)
	item := f.seedItem(t, wishlist.ID, "Espresso machine")

	_, _, err := f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{DisplayName: "Anna"})
	require.NoError(t, err)

	// The stored reservation has no token, so no presented token can match.
	_, _, err = f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{
		DisplayName:      "Anna",
		IdempotencyToken: "retry-7c2f",
	})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestReserveWrongTokenConflicts(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	wishlist := f.seedWishlist(t, owner.ID, "party", true)
	item := f.seedItem(t, wishlist.ID, "Espresso machine")

	_, _, err := f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{
		DisplayName:      "Anna",
		IdempotencyToken: "retry-7c2f",
	})
	require.NoError(t, err)

	_, _, err = f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{
		DisplayName:      "Boris",
		IdempotencyToken: "other-token",
	})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestReserveConcurrentExactlyOneWins(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	wishlist := f.seedWishlist(t, owner.ID, "party", true)
	item := f.seedItem(t, wishlist.ID, "Espresso machine")
	rec := f.watch(realtime.WishlistTopic("party"))

	const guests = 16
	var wg sync.WaitGroup
	errs := make([]error, guests)
	for i := 0; i < guests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "Guest " + string(rune('A'+i))
			_, _, errs[i] = f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{DisplayName: name})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, guests-1, conflicts)
	assert.Equal(t, 1, f.reservations.count())
	assert.Equal(t, 1, rec.count())
}

func TestReserveInsertRaceLoserResolvesAgainstWinner(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	wishlist := f.seedWishlist(t, owner.ID, "party", true)
	item := f.seedItem(t, wishlist.ID, "Espresso machine")

	// Commit a rival reservation in the window between the availability
	// check and the insert, forcing this request down the duplicate path.
	f.reservations.onCreate = func() {
		_, err := f.reservations.Create(context.Background(), &models.Reservation{
			ItemID:      item.ID,
			DisplayName: "Rival",
		})
		require.NoError(t, err)
	}

	_, _, err := f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{DisplayName: "Anna"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, 1, f.reservations.count())
}

func TestReserveInsertRaceWithMatchingTokenReplays(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	wishlist := f.seedWishlist(t, owner.ID, "party", true)
	item := f.seedItem(t, wishlist.ID, "Espresso machine")

	// The rival that wins the race carries the same token: this request is
	// a duplicate delivery of the same submission and must replay.
	token := "retry-7c2f"
	f.reservations.onCreate = func() {
		_, err := f.reservations.Create(context.Background(), &models.Reservation{
			ItemID:           item.ID,
			DisplayName:      "Anna",
			IdempotencyToken: &token,
		})
		require.NoError(t, err)
	}

	res, replayed, err := f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{
		DisplayName:      "Anna",
		IdempotencyToken: token,
	})
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, item.ID, res.ItemID)
	assert.Equal(t, 1, f.reservations.count())
}

func TestReserveValidation(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	wishlist := f.seedWishlist(t, owner.ID, "party", true)
	item := f.seedItem(t, wishlist.ID, "Espresso machine")

	cases := []struct {
		name string
		in   ReservationInput
	}{
		{"empty display name", ReservationInput{DisplayName: "   "}},
		{"display name too long", ReservationInput{DisplayName: strings.Repeat("x", 256)}},
		{"contact too long", ReservationInput{DisplayName: "Anna", Contact: strPtr(strings.Repeat("x", 256))}},
		{"token too long", ReservationInput{DisplayName: "Anna", IdempotencyToken: strings.Repeat("x", 256)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.svc.Reserve(context.Background(), "party", item.ID, tc.in)
			require.Error(t, err)
			assert.True(t, IsInvalid(err))
		})
	}
	assert.Equal(t, 0, f.reservations.count())
}

func TestReserveMissingTargets(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	public := f.seedWishlist(t, owner.ID, "party", true)
	private := f.seedWishlist(t, owner.ID, "secret", false)
	item := f.seedItem(t, public.ID, "Espresso machine")
	hidden := f.seedItem(t, private.ID, "Hidden item")

	in := ReservationInput{DisplayName: "Anna"}

	_, _, err := f.svc.Reserve(context.Background(), "nope", item.ID, in)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Wishlist not found")

	// Private wishlists are indistinguishable from missing ones.
	_, _, err = f.svc.Reserve(context.Background(), "secret", hidden.ID, in)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Wishlist not found")

	_, _, err = f.svc.Reserve(context.Background(), "party", item.ID+999, in)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Item not found")

	// Items from another wishlist do not resolve through this slug.
	_, _, err = f.svc.Reserve(context.Background(), "party", hidden.ID, in)
	assert.True(t, IsNotFound(err))
}

func TestReserveSoftDeletedItemNotFound(t *testing.T) {
	f := newFixture()
	owner := f.seedUser(t, "owner@example.com")
	wishlist := f.seedWishlist(t, owner.ID, "party", true)
	item := f.seedItem(t, wishlist.ID, "Espresso machine")
	rec := f.watch(realtime.WishlistTopic("party"))

	require.NoError(t, f.items.SoftDelete(context.Background(), item.ID))

	_, _, err := f.svc.Reserve(context.Background(), "party", item.ID, ReservationInput{DisplayName: "Anna"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Item not found")
	assert.Equal(t, 0, rec.count())
}
