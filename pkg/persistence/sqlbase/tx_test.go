package sqlbase_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/stepwise/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("stepwise_tx"),
		postgres.WithUsername("stepwise"),
		postgres.WithPassword("stepwise"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		err := testcontainers.TerminateContainer(container)
		if err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	databaseURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	_, err = db.ExecContext(ctx, "CREATE TABLE counters (name TEXT PRIMARY KEY, value INT NOT NULL)")
	require.NoError(t, err)

	return db
}

func count(t *testing.T, db *sql.DB) int {
	t.Helper()

	var n int

	err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM counters").Scan(&n)
	require.NoError(t, err)

	return n
}

func TestTxRunner(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	var logs bytes.Buffer

	runner := sqlbase.NewTxRunner(db, slog.New(slog.NewTextHandler(&logs, nil)), 50*time.Millisecond)

	t.Run("commits", func(t *testing.T) {
		err := runner.InTx(ctx, "insert", nil, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO counters (name, value) VALUES ('a', 1)")

			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, count(t, db))
	})

	t.Run("rolls back and returns the error unchanged", func(t *testing.T) {
		boom := errors.New("boom")

		err := runner.InTx(ctx, "insert", nil, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO counters (name, value) VALUES ('b', 2)")
			require.NoError(t, err)

			return boom
		})
		assert.Same(t, boom, err)
		assert.Equal(t, 1, count(t, db))
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = runner.InTx(ctx, "insert", nil, func(tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, "INSERT INTO counters (name, value) VALUES ('c', 3)")
				require.NoError(t, err)

				panic("midway")
			})
		})
		assert.Equal(t, 1, count(t, db))
	})

	t.Run("warns about long transactions without cancelling them", func(t *testing.T) {
		logs.Reset()

		err := runner.InTx(ctx, "slow", nil, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "SELECT pg_sleep(0.2)")

			return err
		})
		require.NoError(t, err)
		assert.Contains(t, logs.String(), "transaction held open longer than expected")
		assert.Contains(t, logs.String(), "op=slow")
	})
}
