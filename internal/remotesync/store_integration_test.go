//go:build integration

package remotesync

// Runs against a real Postgres: go test -tags integration ./internal/remotesync/...

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("catalog_test"),
		tcPostgres.WithUsername("catalog"),
		tcPostgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestRecordStore_RoundTripAndNotify(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	store, err := OpenRecordStore(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	signals := make(chan struct{}, 8)
	go func() { _ = store.Subscribe(subCtx, func() { signals <- struct{}{} }) }()
	// Give LISTEN a moment to register.
	time.Sleep(500 * time.Millisecond)

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Upsert(ctx, []Record{
		{ID: "a", Name: "Board", Article: "B-1", Unit: "m2", Price: decimal.NewFromInt(500), UpdatedAt: t0},
		{ID: "b", Name: "Hinge", Article: "H-1", Unit: "pcs", Price: decimal.NewFromInt(50), UpdatedAt: t0.Add(time.Hour)},
	}))
	select {
	case <-signals:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification after upsert")
	}

	all, err := store.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)

	require.NoError(t, store.Upsert(ctx, []Record{{ID: "a", Name: "Board v2", Article: "B-1", Price: decimal.NewFromInt(550), UpdatedAt: t0.Add(2 * time.Hour)}}))
	require.NoError(t, store.Delete(ctx, "b"))

	all, err = store.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Board v2", all[0].Name)
	assert.True(t, all[0].Price.Equal(decimal.NewFromInt(550)))
}
