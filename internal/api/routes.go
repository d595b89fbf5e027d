package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/giftwell/server/internal/realtime"
	"github.com/giftwell/server/internal/service"
	"github.com/giftwell/server/internal/telemetry"
)

// Handlers bundles the REST endpoints around the service layer.
type Handlers struct {
	svc *service.Service
}

// Deps holds shared resources injected from app.Server.
type Deps struct {
	Service        *service.Service
	Registry       *realtime.Registry
	Metrics        *telemetry.Metrics
	Log            *zap.Logger
	MetricsHandler http.Handler
}

func SetupRoutes(d Deps) http.Handler {
	h := &Handlers{svc: d.Service}
	ws := &WSHandler{
		Lookup:   d.Service,
		Registry: d.Registry,
		Metrics:  d.Metrics,
		Log:      d.Log,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(LoggingMiddleware(d.Log, d.Metrics))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}

	r.Get("/ws/wishlists/{share_slug}", ws.HandleWishlist)
	r.Get("/ws/friends/{friend_id}", ws.HandleFriendFeed)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/request-password-reset", h.requestPasswordReset)
			r.Post("/confirm-password-reset", h.confirmPasswordReset)
			r.Post("/request-login-code", h.requestLoginCode)
			r.Post("/login-with-code", h.loginWithCode)
			r.With(h.requireUser).Get("/me", h.me)
		})

		r.Route("/wishlists", func(r chi.Router) {
			r.Use(h.requireUser)
			r.Get("/", h.listWishlists)
			r.Post("/", h.createWishlist)
			r.Post("/preview-url", h.previewURL)
			r.Route("/{wishlist_id}", func(r chi.Router) {
				r.Get("/", h.getWishlist)
				r.Patch("/", h.updateWishlist)
				r.Delete("/", h.deleteWishlist)
				r.Get("/items", h.listItems)
				r.Post("/items", h.createItem)
				r.Patch("/items/{item_id}", h.updateItem)
				r.Delete("/items/{item_id}", h.deleteItem)
			})
		})

		r.Route("/friends", func(r chi.Router) {
			r.Use(h.requireUser)
			r.Get("/", h.listFriends)
			r.Post("/", h.addFriend)
			r.Delete("/{friend_id}", h.removeFriend)
			r.Get("/{friend_id}/public-wishlists", h.friendPublicWishlists)
		})

		r.Route("/public/wishlists/{share_slug}", func(r chi.Router) {
			r.Get("/", h.getPublicWishlist)
			r.Get("/items", h.getPublicItems)
			r.Get("/items/{item_id}", h.getPublicItem)
			r.Post("/items/{item_id}/reserve", h.reserveItem)
			r.Post("/items/{item_id}/contributions", h.contributeToItem)
		})
	})

	return r
}
