package api

import (
	"net/http"

	"github.com/giftwell/server/internal/service"
)

func (h *Handlers) listWishlists(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	wishlists, err := h.svc.ListWishlists(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	// Owner data is per-user; keep shared caches out of it.
	w.Header().Set("Cache-Control", "private, no-store")
	respondJSON(w, http.StatusOK, emptyAsList(wishlists))
}

func (h *Handlers) createWishlist(w http.ResponseWriter, r *http.Request) {
	var req service.WishlistCreate
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	wishlist, err := h.svc.CreateWishlist(r.Context(), currentUser(r).ID, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, wishlist)
}

func (h *Handlers) getWishlist(w http.ResponseWriter, r *http.Request) {
	wishlistID, ok := pathID(r, "wishlist_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid wishlist_id")
		return
	}
	wishlist, err := h.svc.GetWishlist(r.Context(), currentUser(r).ID, wishlistID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, wishlist)
}

func (h *Handlers) updateWishlist(w http.ResponseWriter, r *http.Request) {
	wishlistID, ok := pathID(r, "wishlist_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid wishlist_id")
		return
	}
	var req service.WishlistUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	wishlist, err := h.svc.UpdateWishlist(r.Context(), currentUser(r).ID, wishlistID, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, wishlist)
}

func (h *Handlers) deleteWishlist(w http.ResponseWriter, r *http.Request) {
	wishlistID, ok := pathID(r, "wishlist_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid wishlist_id")
		return
	}
	if err := h.svc.DeleteWishlist(r.Context(), currentUser(r).ID, wishlistID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listItems(w http.ResponseWriter, r *http.Request) {
	wishlistID, ok := pathID(r, "wishlist_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid wishlist_id")
		return
	}
	items, err := h.svc.ListItems(r.Context(), currentUser(r).ID, wishlistID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, emptyAsList(items))
}

func (h *Handlers) createItem(w http.ResponseWriter, r *http.Request) {
	wishlistID, ok := pathID(r, "wishlist_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid wishlist_id")
		return
	}
	var req service.ItemCreate
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	item, err := h.svc.CreateItem(r.Context(), currentUser(r).ID, wishlistID, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handlers) updateItem(w http.ResponseWriter, r *http.Request) {
	wishlistID, ok := pathID(r, "wishlist_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid wishlist_id")
		return
	}
	itemID, ok := pathID(r, "item_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid item_id")
		return
	}
	var req service.ItemUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	item, err := h.svc.UpdateItem(r.Context(), currentUser(r).ID, wishlistID, itemID, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handlers) deleteItem(w http.ResponseWriter, r *http.Request) {
	wishlistID, ok := pathID(r, "wishlist_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid wishlist_id")
		return
	}
	itemID, ok := pathID(r, "item_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid item_id")
		return
	}
	if err := h.svc.DeleteItem(r.Context(), currentUser(r).ID, wishlistID, itemID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type previewRequest struct {
	URL string `json:"url"`
}

func (h *Handlers) previewURL(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	preview, err := h.svc.PreviewURL(r.Context(), req.URL)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// emptyAsList keeps empty collections encoding as [] instead of null.
func emptyAsList[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
