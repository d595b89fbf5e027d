package api

import (
	"net/http"
)

type friendRequest struct {
	Email string `json:"email"`
}

func (h *Handlers) listFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.svc.ListFriends(r.Context(), currentUser(r).ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, emptyAsList(friends))
}

func (h *Handlers) addFriend(w http.ResponseWriter, r *http.Request) {
	var req friendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	friend, err := h.svc.AddFriend(r.Context(), currentUser(r).ID, req.Email)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, friend)
}

func (h *Handlers) removeFriend(w http.ResponseWriter, r *http.Request) {
	friendID, ok := pathID(r, "friend_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid friend_id")
		return
	}
	if err := h.svc.RemoveFriend(r.Context(), currentUser(r).ID, friendID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) friendPublicWishlists(w http.ResponseWriter, r *http.Request) {
	friendID, ok := pathID(r, "friend_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid friend_id")
		return
	}
	wishlists, err := h.svc.FriendPublicWishlists(r.Context(), currentUser(r).ID, friendID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, emptyAsList(wishlists))
}
