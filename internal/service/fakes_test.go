package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/realtime"
	"github.com/giftwell/server/internal/repository"
)

// In-memory repositories with the same contracts as the postgres ones:
// (nil, nil) lookups, ErrDuplicate from unique conflicts, and projections
// computed from stored rows. Everything is mutex guarded so concurrency
// tests can hammer them.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == user.Email {
			return nil, fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
	}
	f.nextID++
	cp := *user
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.rows[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.rows[id]; ok {
		u.HashedPassword = hashedPassword
	}
	return nil
}

func (f *fakeUserRepo) MarkEmailVerified(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.rows[id]; ok {
		u.IsEmailVerified = true
	}
	return nil
}

type fakeEmailCodeRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*models.EmailCode
}

func (f *fakeEmailCodeRepo) Create(_ context.Context, code *models.EmailCode) (*models.EmailCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *code
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.rows = append(f.rows, &cp)
	out := cp
	return &out, nil
}

func (f *fakeEmailCodeRepo) GetLatestActive(_ context.Context, email, purpose string, now time.Time) (*models.EmailCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.EmailCode
	for _, c := range f.rows {
		if c.Email != email || c.Purpose != purpose || c.IsUsed || !c.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || c.ID > latest.ID {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeEmailCodeRepo) MarkUsed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.ID == id {
			c.IsUsed = true
		}
	}
	return nil
}

type fakeWishlistRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Wishlist
}

func (f *fakeWishlistRepo) Create(_ context.Context, wishlist *models.Wishlist) (*models.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.rows {
		if w.ShareSlug == wishlist.ShareSlug {
			return nil, fmt.Errorf("create wishlist: %w", repository.ErrDuplicate)
		}
	}
	f.nextID++
	cp := *wishlist
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeWishlistRepo) GetForOwner(_ context.Context, id, ownerID int64) (*models.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.rows[id]; ok && w.OwnerID == ownerID {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeWishlistRepo) GetPublicBySlug(_ context.Context, shareSlug string) (*models.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.rows {
		if w.ShareSlug == shareSlug && w.IsPublic {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeWishlistRepo) ListByOwner(_ context.Context, ownerID int64) ([]*models.Wishlist, error) {
	return f.list(func(w *models.Wishlist) bool { return w.OwnerID == ownerID }), nil
}

func (f *fakeWishlistRepo) ListPublicByOwner(_ context.Context, ownerID int64) ([]*models.Wishlist, error) {
	return f.list(func(w *models.Wishlist) bool { return w.OwnerID == ownerID && w.IsPublic }), nil
}

// list returns matches newest first, the way the owner dashboard reads them.
func (f *fakeWishlistRepo) list(match func(*models.Wishlist) bool) []*models.Wishlist {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Wishlist
	for _, w := range f.rows {
		if match(w) {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeWishlistRepo) Update(_ context.Context, wishlist *models.Wishlist) (*models.Wishlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *wishlist
	cp.UpdatedAt = time.Now()
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeWishlistRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeWishlistRepo) SlugExists(_ context.Context, shareSlug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.rows {
		if w.ShareSlug == shareSlug {
			return true, nil
		}
	}
	return false, nil
}

type fakeItemRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.WishlistItem

	reservations  *fakeReservationRepo
	contributions *fakeContributionRepo
}

func (f *fakeItemRepo) Create(_ context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *item
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeItemRepo) GetForWishlist(_ context.Context, itemID, wishlistID int64) (*models.WishlistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if it, ok := f.rows[itemID]; ok && it.WishlistID == wishlistID {
		cp := *it
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeItemRepo) Update(_ context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *item
	cp.UpdatedAt = time.Now()
	f.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeItemRepo) SoftDelete(_ context.Context, itemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if it, ok := f.rows[itemID]; ok {
		it.IsDeleted = true
	}
	return nil
}

func (f *fakeItemRepo) GetView(_ context.Context, itemID int64) (*models.ItemView, error) {
	f.mu.Lock()
	item, ok := f.rows[itemID]
	if !ok {
		f.mu.Unlock()
		return nil, nil
	}
	cp := *item
	f.mu.Unlock()

	total, count := f.contributions.totals(itemID)
	return &models.ItemView{
		WishlistItem:       cp,
		IsReserved:         f.reservations.has(itemID),
		CollectedAmount:    total,
		ContributionsCount: count,
		TotalAmountTarget:  cp.Price,
	}, nil
}

func (f *fakeItemRepo) ListViews(ctx context.Context, wishlistID int64) ([]*models.ItemView, error) {
	f.mu.Lock()
	var ids []int64
	for id, it := range f.rows {
		if it.WishlistID == wishlistID && !it.IsDeleted {
			ids = append(ids, id)
		}
	}
	f.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	views := make([]*models.ItemView, 0, len(ids))
	for _, id := range ids {
		v, err := f.GetView(ctx, id)
		if err != nil {
			return nil, err
		}
		if v != nil {
			views = append(views, v)
		}
	}
	return views, nil
}

type fakeReservationRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Reservation // keyed by item id

	// onCreate runs before the insert, outside the lock. Tests use it to
	// commit a rival reservation in the window between lookup and insert.
	onCreate func()
}

func (f *fakeReservationRepo) GetByItemID(_ context.Context, itemID int64) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[itemID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeReservationRepo) Create(_ context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	if f.onCreate != nil {
		hook := f.onCreate
		f.onCreate = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.rows[reservation.ItemID]; taken {
		return nil, fmt.Errorf("insert reservation: %w", repository.ErrDuplicate)
	}
	f.nextID++
	cp := *reservation
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.rows[cp.ItemID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeReservationRepo) has(itemID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[itemID]
	return ok
}

func (f *fakeReservationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeContributionRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*models.Contribution

	// onCreate runs before the insert, outside the lock. Tests use it to
	// commit a twin contribution in the window between check and insert.
	onCreate func()
}

func contactKey(contact *string) string {
	if contact == nil {
		return ""
	}
	return *contact
}

func (f *fakeContributionRepo) Exists(_ context.Context, itemID int64, displayName string, contact *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existsLocked(itemID, displayName, contact), nil
}

func (f *fakeContributionRepo) existsLocked(itemID int64, displayName string, contact *string) bool {
	for _, c := range f.rows {
		if c.ItemID == itemID && c.DisplayName == displayName && contactKey(c.Contact) == contactKey(contact) {
			return true
		}
	}
	return false
}

func (f *fakeContributionRepo) Create(_ context.Context, contribution *models.Contribution) (*models.Contribution, error) {
	if f.onCreate != nil {
		hook := f.onCreate
		f.onCreate = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsLocked(contribution.ItemID, contribution.DisplayName, contribution.Contact) {
		return nil, fmt.Errorf("insert contribution: %w", repository.ErrDuplicate)
	}
	f.nextID++
	cp := *contribution
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.rows = append(f.rows, &cp)
	out := cp
	return &out, nil
}

func (f *fakeContributionRepo) totals(itemID int64) (float64, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	var count int
	for _, c := range f.rows {
		if c.ItemID == itemID {
			total += c.Amount
			count++
		}
	}
	return total, count
}

type fakeFriendRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[[2]int64]*models.Friend

	users *fakeUserRepo
}

func (f *fakeFriendRepo) CreatePair(_ context.Context, userID, friendID int64) (*models.Friend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[[2]int64{userID, friendID}]; ok {
		return nil, fmt.Errorf("create friendship: %w", repository.ErrDuplicate)
	}
	now := time.Now()
	f.nextID++
	forward := &models.Friend{ID: f.nextID, UserID: userID, FriendID: friendID, CreatedAt: now}
	f.nextID++
	reverse := &models.Friend{ID: f.nextID, UserID: friendID, FriendID: userID, CreatedAt: now}
	f.rows[[2]int64{userID, friendID}] = forward
	f.rows[[2]int64{friendID, userID}] = reverse
	cp := *forward
	return &cp, nil
}

func (f *fakeFriendRepo) GetPair(_ context.Context, userID, friendID int64) (*models.Friend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fr, ok := f.rows[[2]int64{userID, friendID}]; ok {
		cp := *fr
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeFriendRepo) DeletePair(_ context.Context, userID, friendID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, [2]int64{userID, friendID})
	delete(f.rows, [2]int64{friendID, userID})
	return nil
}

func (f *fakeFriendRepo) ListByUser(ctx context.Context, userID int64) ([]*models.FriendView, error) {
	f.mu.Lock()
	var links []*models.Friend
	for key, fr := range f.rows {
		if key[0] == userID {
			cp := *fr
			links = append(links, &cp)
		}
	}
	f.mu.Unlock()

	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	var out []*models.FriendView
	for _, link := range links {
		user, err := f.users.GetByID(ctx, link.FriendID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}
		out = append(out, &models.FriendView{
			ID:          link.ID,
			FriendID:    user.ID,
			FriendEmail: user.Email,
			FriendName:  user.Name,
		})
	}
	return out, nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "expected at least one mail")
	return m.sent[len(m.sent)-1]
}

// recorder collects the events delivered to one topic subscriber.
type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) send(payload []byte) error {
	var ev realtime.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) last(t *testing.T) realtime.Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.events, "expected at least one event")
	return r.events[len(r.events)-1]
}

type fixture struct {
	svc      *Service
	registry *realtime.Registry

	users         *fakeUserRepo
	emailCodes    *fakeEmailCodeRepo
	wishlists     *fakeWishlistRepo
	items         *fakeItemRepo
	reservations  *fakeReservationRepo
	contributions *fakeContributionRepo
	friends       *fakeFriendRepo
	mailer        *fakeMailer
}

func newFixture() *fixture {
	users := &fakeUserRepo{rows: map[int64]*models.User{}}
	emailCodes := &fakeEmailCodeRepo{}
	wishlists := &fakeWishlistRepo{rows: map[int64]*models.Wishlist{}}
	reservations := &fakeReservationRepo{rows: map[int64]*models.Reservation{}}
	contributions := &fakeContributionRepo{}
	items := &fakeItemRepo{
		rows:          map[int64]*models.WishlistItem{},
		reservations:  reservations,
		contributions: contributions,
	}
	friends := &fakeFriendRepo{rows: map[[2]int64]*models.Friend{}, users: users}
	mailer := &fakeMailer{}
	registry := realtime.NewRegistry()

	svc := New(Deps{
		Broadcaster:   realtime.NewBroadcaster(registry, nil, nil),
		Mailer:        mailer,
		Users:         users,
		EmailCodes:    emailCodes,
		Wishlists:     wishlists,
		Items:         items,
		Reservations:  reservations,
		Contributions: contributions,
		Friends:       friends,
		JWTSecret:     []byte("test-secret"),
		TokenTTL:      time.Hour,
	})

	return &fixture{
		svc:           svc,
		registry:      registry,
		users:         users,
		emailCodes:    emailCodes,
		wishlists:     wishlists,
		items:         items,
		reservations:  reservations,
		contributions: contributions,
		friends:       friends,
		mailer:        mailer,
	}
}

// watch attaches a recording subscriber to a topic before the action under
// test runs. Publish is synchronous, so assertions right after a service
// call see every delivery.
func (f *fixture) watch(topic string) *recorder {
	rec := &recorder{}
	f.registry.Attach(topic, realtime.NewSubscriber("recorder:"+topic, rec.send))
	return rec
}

func (f *fixture) seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	name := "Test User"
	user, err := f.users.Create(context.Background(), &models.User{
		Email: email,
		Name:  &name,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) seedWishlist(t *testing.T, ownerID int64, slug string, isPublic bool) *models.Wishlist {
	t.Helper()
	wishlist, err := f.wishlists.Create(context.Background(), &models.Wishlist{
		OwnerID:   ownerID,
		Title:     "Birthday",
		IsPublic:  isPublic,
		ShareSlug: slug,
	})
	require.NoError(t, err)
	return wishlist
}

func (f *fixture) seedItem(t *testing.T, wishlistID int64, title string) *models.WishlistItem {
	t.Helper()
	item, err := f.items.Create(context.Background(), &models.WishlistItem{
		WishlistID: wishlistID,
		Title:      title,
	})
	require.NoError(t, err)
	return item
}

func strPtr(s string) *string { return &s }
