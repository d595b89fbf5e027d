package pgtest

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"fmt"
	"io"
	mrand "math/rand"
	"net/url"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/giftwell/server/migrations"
)

// Sandbox is one test's private corner of the shared container: a schema
// of its own carrying the full application schema.
type Sandbox struct {
	DB     *sql.DB
	Schema string
	Seed   int64
}

// goose tracks the base FS and dialect in package globals, so migrations
// run one sandbox at a time.
var migrateMu sync.Mutex

// NewSandbox creates a schema, applies the application migrations into
// it, and registers cleanup with t. Concurrent DB work inside one test
// is fine; the schema keeps tests from seeing each other's rows.
func NewSandbox(t *testing.T) *Sandbox {
	t.Helper()
	if connString == "" {
		t.Fatal("pgtest not booted; call pgtest.Boot in TestMain first")
	}

	// Admin connection without a search_path, for schema DDL.
	admin, err := sql.Open("pgx", connString)
	if err != nil {
		t.Fatalf("open admin: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := fmt.Sprintf("t_%x", time.Now().UnixNano())
	if _, err := admin.ExecContext(ctx, `CREATE SCHEMA "`+schema+`"`); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	// Every pooled connection of the sandbox handle carries the schema in
	// its search_path, so unqualified DDL and queries resolve there.
	db, err := sql.Open("pgx", withSearchPath(connString, schema))
	if err != nil {
		t.Fatalf("open sandbox: %v", err)
	}

	migrateMu.Lock()
	err = migrations.Up(db)
	migrateMu.Unlock()
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	sbx := &Sandbox{
		DB:     db,
		Schema: schema,
		Seed:   randomSeed(),
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.ExecContext(ctx, `DROP SCHEMA IF EXISTS "`+schema+`" CASCADE`)
		_ = db.Close()
		_ = admin.Close()
	})
	return sbx
}

// SeededReader returns a deterministic byte stream. Point faker's crypto
// source at it to get reproducible fixture data from a logged seed.
func SeededReader(seed int64) io.Reader {
	return mrand.New(mrand.NewSource(seed))
}

// randomSeed picks the sandbox seed, honoring PGTEST_SEED so a failing
// run can be replayed with the seed it logged.
func randomSeed() int64 {
	if v := os.Getenv("PGTEST_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	var b [8]byte
	_, _ = rand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]))
}

func withSearchPath(base, schema string) string {
	u, _ := url.Parse(base)
	q := u.Query()
	q.Set("options", fmt.Sprintf("-csearch_path=%s,public", schema))
	u.RawQuery = q.Encode()
	return u.String()
}
