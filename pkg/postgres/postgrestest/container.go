// Package postgrestest starts throwaway postgres containers for integration
// tests. Production code must not import it.
package postgrestest

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartContainer runs a disposable postgres for integration tests and
// returns it together with its connection string.
func StartContainer(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:15.2-alpine"),
		tcpostgres.WithDatabase("marketplace"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable", "application_name=test")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, connStr, nil
}
