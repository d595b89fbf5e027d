package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/realtime"
	"github.com/giftwell/server/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// realtimeLookup is the slice of the service layer the websocket endpoints
// need to decide whether a viewer may attach.
type realtimeLookup interface {
	PublicWishlist(ctx context.Context, shareSlug string) (*models.Wishlist, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
}

// WSHandler upgrades viewer connections and attaches them to their topic.
// A connection subscribes to exactly one topic for its whole lifetime;
// inbound frames only keep the connection alive and are otherwise ignored.
type WSHandler struct {
	Lookup   realtimeLookup
	Registry *realtime.Registry
	Metrics  *telemetry.Metrics
	Log      *zap.Logger
}

// HandleWishlist subscribes a viewer to live updates for a shared wishlist.
// Eligibility is checked before the upgrade so a bad slug gets a plain HTTP
// error instead of a dropped socket.
func (h *WSHandler) HandleWishlist(w http.ResponseWriter, r *http.Request) {
	wishlist, err := h.Lookup.PublicWishlist(r.Context(), chi.URLParam(r, "share_slug"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	h.serve(w, r, realtime.WishlistTopic(wishlist.ShareSlug))
}

// HandleFriendFeed subscribes a viewer to change notices for one user's set
// of public wishlists.
func (h *WSHandler) HandleFriendFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "friend_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid friend_id")
		return
	}
	exists, err := h.Lookup.UserExists(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !exists {
		respondDetail(w, http.StatusNotFound, "User not found")
		return
	}
	h.serve(w, r, realtime.FriendIndexTopic(userID))
}

func (h *WSHandler) serve(w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.Log.Warn("websocket upgrade failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	defer conn.Close()

	// Broadcasts arrive from mutation goroutines, so writes to the
	// connection are serialized and a stuck peer cannot block a sweep
	// beyond the write deadline.
	var writeMu sync.Mutex
	sub := realtime.NewSubscriber(uuid.NewString(), func(payload []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteMessage(websocket.TextMessage, payload)
	})

	family := realtime.TopicFamily(topic)
	h.Registry.Attach(topic, sub)
	h.Metrics.SubscriberAttached(family)
	defer func() {
		h.Registry.Detach(topic, sub)
		h.Metrics.SubscriberDetached(family)
	}()

	log := h.Log.With(zap.String("topic", topic), zap.String("subscriber_id", sub.ID))
	log.Info("subscriber attached")

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("subscriber read ended", zap.Error(err))
			}
			break
		}
	}
	log.Info("subscriber detached")
}
