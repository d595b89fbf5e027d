// Package realtime fans committed state changes out to websocket viewers.
//
// Viewers attach to a topic and receive every event published to it while
// they are attached. Delivery is best effort: an event is sent at most once
// per subscriber, never queued, and never retried. Subscribers whose
// transport fails are pruned so a dead connection cannot wedge a topic.
package realtime

import (
	"strconv"
	"strings"

	"github.com/giftwell/server/internal/models"
)

// Topic name prefixes. A topic either tracks one shared wishlist or the
// wishlist index of one user as seen by their friends.
const (
	wishlistTopicPrefix    = "wishlist:"
	friendIndexTopicPrefix = "friend-index:"
)

// WishlistTopic is the topic for viewers of a publicly shared wishlist.
func WishlistTopic(shareSlug string) string {
	return wishlistTopicPrefix + shareSlug
}

// FriendIndexTopic is the topic for friends watching a user's set of public
// wishlists.
func FriendIndexTopic(userID int64) string {
	return friendIndexTopicPrefix + strconv.FormatInt(userID, 10)
}

// TopicFamily reports which kind of topic a name belongs to, for metric
// labels.
func TopicFamily(topic string) string {
	switch {
	case strings.HasPrefix(topic, wishlistTopicPrefix):
		return "wishlist"
	case strings.HasPrefix(topic, friendIndexTopicPrefix):
		return "friend_index"
	default:
		return "unknown"
	}
}

// Event types understood by clients.
const (
	EventItemUpdated          = "ITEM_UPDATED"
	EventFriendWishlistsDirty = "FRIEND_WISHLISTS_DIRTY"
)

// Event is the envelope pushed to subscribers. ITEM_UPDATED carries the full
// projection of the changed item; FRIEND_WISHLISTS_DIRTY carries no payload
// and tells clients to refetch the friend's wishlists.
type Event struct {
	Type string           `json:"type"`
	Item *models.ItemView `json:"item,omitempty"`
}

// ItemUpdated wraps an item projection for broadcast.
func ItemUpdated(item *models.ItemView) Event {
	return Event{Type: EventItemUpdated, Item: item}
}

// FriendWishlistsDirty signals that a user's public wishlist set changed.
func FriendWishlistsDirty() Event {
	return Event{Type: EventFriendWishlistsDirty}
}
