package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/giftwell/server/internal/service"
)

func (h *Handlers) getPublicWishlist(w http.ResponseWriter, r *http.Request) {
	wishlist, err := h.svc.PublicWishlist(r.Context(), chi.URLParam(r, "share_slug"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, wishlist)
}

func (h *Handlers) getPublicItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.PublicItems(r.Context(), chi.URLParam(r, "share_slug"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, emptyAsList(items))
}

func (h *Handlers) getPublicItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "item_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid item_id")
		return
	}
	item, err := h.svc.PublicItem(r.Context(), chi.URLParam(r, "share_slug"), itemID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

type reservationRequest struct {
	DisplayName string  `json:"display_name"`
	Contact     *string `json:"contact"`
}

// reserveItem claims an item for a guest. Retries carry the same
// Idempotency-Key header and are answered with the stored reservation
// instead of a conflict.
func (h *Handlers) reserveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "item_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid item_id")
		return
	}
	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	reservation, _, err := h.svc.Reserve(r.Context(), chi.URLParam(r, "share_slug"), itemID, service.ReservationInput{
		DisplayName:      req.DisplayName,
		Contact:          req.Contact,
		IdempotencyToken: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, reservation)
}

type contributionRequest struct {
	DisplayName string  `json:"display_name"`
	Contact     *string `json:"contact"`
	Amount      float64 `json:"amount"`
}

func (h *Handlers) contributeToItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "item_id")
	if !ok {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid item_id")
		return
	}
	var req contributionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	contribution, err := h.svc.Contribute(r.Context(), chi.URLParam(r, "share_slug"), itemID, service.ContributionInput{
		DisplayName: req.DisplayName,
		Contact:     req.Contact,
		Amount:      req.Amount,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, contribution)
}
