package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/giftwell/server/internal/logutil"
	"github.com/giftwell/server/internal/models"
	"github.com/giftwell/server/internal/telemetry"
)

// LoggingMiddleware tags every request with a trace id, stores the scoped
// logger in the context and emits one completion line. The chi wrapper keeps
// Hijacker visible so websocket upgrades still work behind it.
func LoggingMiddleware(log *zap.Logger, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			traceID := r.Header.Get("X-Request-ID")
			if traceID == "" {
				traceID = uuid.NewString()
			}

			reqLog := log.With(
				zap.String("trace_id", traceID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			r = r.WithContext(logutil.WithContext(r.Context(), reqLog))

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// hijacked connections never write a status
				status = http.StatusSwitchingProtocols
			}
			duration := time.Since(start)
			metrics.ObserveRequest(r.Method, status, duration)
			reqLog.Info("HTTP request complete",
				zap.Int("status", status),
				zap.Duration("duration_ms", duration),
			)
		})
	}
}

type ctxUserKey struct{}

// requireUser authenticates the bearer token and stashes the user in the
// request context.
func (h *Handlers) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		user, err := h.svc.AuthenticateToken(r.Context(), token)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// currentUser returns the authenticated user placed by requireUser.
func currentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(ctxUserKey{}).(*models.User)
	return user
}
