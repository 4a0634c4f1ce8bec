//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/snapshot"
	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
	"github.com/Apurer/pallet-labels/internal/platform/migrations"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("pallets_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestBlobStore_StoreAndLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	store := NewBlobStore(db)
	ctx := context.Background()

	_, err := store.Load(ctx, ports.OrdersStorageKey)
	require.ErrorIs(t, err, ports.ErrBlobNotFound)

	require.NoError(t, store.Store(ctx, ports.OrdersStorageKey, []byte("first")))
	require.NoError(t, store.Store(ctx, ports.OrdersStorageKey, []byte("second")))

	payload, err := store.Load(ctx, ports.OrdersStorageKey)
	require.NoError(t, err)
	assert.Equal(t, "second", string(payload))

	require.NoError(t, store.Remove(ctx, ports.OrdersStorageKey))
	_, err = store.Load(ctx, ports.OrdersStorageKey)
	assert.ErrorIs(t, err, ports.ErrBlobNotFound)
}

func TestBlobStore_IndexesOrderIDs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBlobStore(db, WithIndexer(snapshot.OrderIDs))
	repo := snapshot.NewRepository(store)
	require.NoError(t, repo.Load(ctx))

	order, err := domain.NewOrder("P-100", "10", "200", "5", "15/03/2024", 4, decimal.NewFromInt(2))
	require.NoError(t, err)
	_, err = repo.Append(ctx, []*domain.Order{order})
	require.NoError(t, err)

	keys, err := store.KeysContaining(ctx, "P-100")
	require.NoError(t, err)
	assert.Equal(t, []string{ports.OrdersStorageKey}, keys)

	reloaded := snapshot.NewRepository(store)
	require.NoError(t, reloaded.Load(ctx))
	got, err := reloaded.Get(ctx, "P-100")
	require.NoError(t, err)
	assert.True(t, got.Pallets.Equal(order.Pallets))
}
