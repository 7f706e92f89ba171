package testdata

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.uber.org/zap"
)

// migrationSource points at internal/database/migrations relative to this file.
func migrationSource() string {
	_, filename, _, _ := runtime.Caller(0)
	return "file://" + filepath.Join(filepath.Dir(filename), "..", "..", "internal", "database", "migrations")
}

// SetupTestDatabase starts a disposable PostgreSQL container, applies the
// migrations and returns a pool connected to it. The test is skipped in short
// mode or when Docker is unavailable.
func SetupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker is not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=password",
			"POSTGRES_DB=form_collector",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("could not purge postgres container: %v", err)
		}
	})
	_ = resource.Expire(300)

	databaseURL := fmt.Sprintf("postgres://postgres:password@%s/form_collector?sslmode=disable", resource.GetHostPort("5432/tcp"))

	var dbPool *pgxpool.Pool
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		p, err := pgxpool.New(context.Background(), databaseURL)
		if err != nil {
			return err
		}
		if err := p.Ping(context.Background()); err != nil {
			p.Close()
			return err
		}
		dbPool = p
		return nil
	})
	if err != nil {
		t.Fatalf("could not connect to postgres: %v", err)
	}
	t.Cleanup(dbPool.Close)

	if err := databaseutil.MigrationUp(migrationSource(), databaseURL, zap.NewNop()); err != nil {
		t.Fatalf("could not run migrations: %v", err)
	}

	return dbPool
}
