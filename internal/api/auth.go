package api

import (
	"net/http"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type loginCodeConfirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	user, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// login accepts the password grant form: username (the email) and password.
func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid form body")
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	token, err := h.svc.Login(r.Context(), email, password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, currentUser(r))
}

func (h *Handlers) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) confirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if err := h.svc.ConfirmPasswordReset(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) requestLoginCode(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if err := h.svc.RequestLoginCode(r.Context(), req.Email); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) loginWithCode(w http.ResponseWriter, r *http.Request) {
	var req loginCodeConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	token, err := h.svc.LoginWithCode(r.Context(), req.Email, req.Code)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}
