package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/giftwell/server/internal/api"
	"github.com/giftwell/server/internal/config"
	"github.com/giftwell/server/internal/mailer"
	"github.com/giftwell/server/internal/realtime"
	"github.com/giftwell/server/internal/repository/postgres"
	"github.com/giftwell/server/internal/service"
	"github.com/giftwell/server/internal/telemetry"
	"github.com/giftwell/server/migrations"
)

type Server struct {
	httpServer *http.Server
	Registry   *realtime.Registry
	DB         *sql.DB

	log *zap.Logger
}

// NewServer opens the database, runs migrations, and wires every layer
// together. The caller owns the returned server and must call Run.
func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	registry := realtime.NewRegistry()
	metrics := telemetry.New(nil)
	broadcaster := realtime.NewBroadcaster(registry, log, metrics)

	smtp := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		UseTLS:   cfg.SMTPUseTLS,
	}, log)

	svc := service.New(service.Deps{
		Log:           log,
		Broadcaster:   broadcaster,
		Metrics:       metrics,
		Mailer:        smtp,
		Users:         postgres.NewUserRepository(db),
		EmailCodes:    postgres.NewEmailCodeRepository(db),
		Wishlists:     postgres.NewWishlistRepository(db),
		Items:         postgres.NewItemRepository(db),
		Reservations:  postgres.NewReservationRepository(db),
		Contributions: postgres.NewContributionRepository(db),
		Friends:       postgres.NewFriendRepository(db),
		JWTSecret:     []byte(cfg.JWTSecret),
		TokenTTL:      cfg.TokenTTL,
	})

	mux := api.SetupRoutes(api.Deps{
		Service:        svc,
		Registry:       registry,
		Metrics:        metrics,
		Log:            log,
		MetricsHandler: promhttp.Handler(),
	})

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: mux,
		},
		Registry: registry,
		DB:       db,
		log:      log,
	}, nil
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	go func() {
		s.log.Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.DB.Close()
}
