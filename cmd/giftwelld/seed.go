package main

import (
	"database/sql"
	"fmt"
	"math/rand"

	faker "github.com/go-faker/faker/v4"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/giftwell/server/internal/realtime"
	"github.com/giftwell/server/internal/repository/postgres"
	"github.com/giftwell/server/internal/service"
	"github.com/giftwell/server/migrations"
)

func newSeedCmd() *cobra.Command {
	var (
		users    int
		password string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo users, wishlists, and items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrations.Up(db); err != nil {
				return err
			}

			// Seeding goes through the service layer so slugs, password
			// hashes, and validation match what the API produces.
			registry := realtime.NewRegistry()
			svc := service.New(service.Deps{
				Log:           log,
				Broadcaster:   realtime.NewBroadcaster(registry, log, nil),
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

			ctx := cmd.Context()
			currencies := []string{"RUB", "USD", "EUR"}
			for i := 0; i < users; i++ {
				user, err := svc.Register(ctx, faker.Email(), password, faker.Name())
				if err != nil {
					return fmt.Errorf("seed user: %w", err)
				}
				for j := 0; j < 1+rand.Intn(2); j++ {
					wishlist, err := svc.CreateWishlist(ctx, user.ID, service.WishlistCreate{
						Title: fmt.Sprintf("%s wishlist", faker.Word()),
					})
					if err != nil {
						return fmt.Errorf("seed wishlist: %w", err)
					}
					for k := 0; k < 2+rand.Intn(3); k++ {
						price := float64(rand.Intn(20000))/100 + 5
						currency := currencies[rand.Intn(len(currencies))]
						url := faker.URL()
						if _, err := svc.CreateItem(ctx, user.ID, wishlist.ID, service.ItemCreate{
							Title:    faker.Sentence(),
							URL:      &url,
							Price:    &price,
							Currency: &currency,
						}); err != nil {
							return fmt.Errorf("seed item: %w", err)
						}
					}
					log.Info("seeded wishlist",
						zap.Int64("owner_id", user.ID),
						zap.String("share_slug", wishlist.ShareSlug))
				}
			}
			log.Info("seed complete", zap.Int("users", users))
			return nil
		},
	}
	cmd.Flags().IntVar(&users, "users", 5, "number of demo users to create")
	cmd.Flags().StringVar(&password, "password", "password123", "password assigned to every demo user")
	return cmd
}
