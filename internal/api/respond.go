package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/giftwell/server/internal/logutil"
	"github.com/giftwell/server/internal/service"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondDetail writes the error body shape clients expect.
func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

// respondServiceError translates a classified service error into its HTTP
// status. Unexpected failures are logged with their cause and surface as an
// opaque 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		logutil.FromContext(r.Context()).Error("unclassified error", zap.Error(err))
		respondDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch se.Code {
	case service.CodeBadRequest:
		respondDetail(w, http.StatusBadRequest, se.Message)
	case service.CodeUnauthorized:
		respondDetail(w, http.StatusUnauthorized, se.Message)
	case service.CodeNotFound:
		respondDetail(w, http.StatusNotFound, se.Message)
	case service.CodeConflict:
		respondDetail(w, http.StatusConflict, se.Message)
	case service.CodeInvalid:
		respondDetail(w, http.StatusUnprocessableEntity, se.Message)
	default:
		logutil.FromContext(r.Context()).Error("request failed", zap.Error(err))
		respondDetail(w, http.StatusInternalServerError, se.Message)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// pathID parses a numeric chi route parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
