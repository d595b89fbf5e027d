// Package pgtest boots a disposable Postgres container for integration
// tests and hands each test an isolated schema with the application
// migrations applied.
package pgtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type config struct {
	image    string
	dbName   string
	user     string
	password string
}

type Option func(*config)

func WithImage(i string) Option    { return func(c *config) { c.image = i } }
func WithDBName(n string) Option   { return func(c *config) { c.dbName = n } }
func WithUser(u string) Option     { return func(c *config) { c.user = u } }
func WithPassword(p string) Option { return func(c *config) { c.password = p } }

var (
	once       sync.Once
	pg         *postgres.PostgresContainer
	mu         sync.Mutex
	connString string
)

// Boot starts the shared container. Call it from TestMain; every sandbox
// created afterwards lives inside the same instance.
func Boot(ctx context.Context, opts ...Option) error {
	var onceErr error
	once.Do(func() {
		c := &config{
			image:    "docker.io/postgres:16-alpine",
			dbName:   "giftwell",
			user:     "postgres",
			password: "pass",
		}
		for _, o := range opts {
			o(c)
		}

		container, err := postgres.Run(ctx,
			c.image,
			postgres.WithDatabase(c.dbName),
			postgres.WithUsername(c.user),
			postgres.WithPassword(c.password),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			onceErr = err
			return
		}
		pg = container

		host, err := container.Host(ctx)
		if err != nil {
			onceErr = err
			return
		}
		port, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			onceErr = err
			return
		}
		connString = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			c.user, c.password, host, port.Port(), c.dbName,
		)
	})
	return onceErr
}

// Shutdown terminates the shared container. Safe to call when Boot never
// ran.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	if pg == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return pg.Terminate(ctx)
}
