package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/memory"
	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
)

type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	payload, _ := args.Get(0).([]byte)
	return payload, args.Error(1)
}

func (m *mockBlobStore) Store(ctx context.Context, key string, payload []byte) error {
	return m.Called(ctx, key, payload).Error(0)
}

func (m *mockBlobStore) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local)

func newOrder(t *testing.T, id string, pallets int64) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, "10", "200", "5", "15/03/2024", 4, decimal.NewFromInt(pallets))
	require.NoError(t, err)
	return order
}

func newLoadedRepo(t *testing.T, blobs ports.BlobStore) *Repository {
	t.Helper()
	repo := NewRepository(blobs, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, repo.Load(context.Background()))
	return repo
}

func TestLoad_MissingBlobStartsEmpty(t *testing.T) {
	repo := newLoadedRepo(t, memory.NewBlobStore())

	orders, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestLoad_CorruptPayloadStartsEmpty(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":          "{{{",
		"future version":    `{"version":2,"orders":[]}`,
		"scalar":            `42`,
		"invalid invariant": `[{"id":"A","pallets":1,"palletsPrinted":3}]`,
	} {
		t.Run(name, func(t *testing.T) {
			blobs := memory.NewBlobStore()
			require.NoError(t, blobs.Store(context.Background(), ports.OrdersStorageKey, []byte(payload)))

			repo := newLoadedRepo(t, blobs)

			orders, err := repo.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, orders)
		})
	}
}

func TestLoad_BlobStoreFailureIsReturned(t *testing.T) {
	blobs := &mockBlobStore{}
	blobs.On("Load", mock.Anything, ports.OrdersStorageKey).Return(nil, errors.New("disk unplugged"))

	repo := NewRepository(blobs)
	require.Error(t, repo.Load(context.Background()))

	_, err := repo.List(context.Background())
	require.Error(t, err)
	_, err = repo.Modify(context.Background(), "A", func(*domain.Order) error { return nil })
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrNotFound)
	blobs.AssertExpectations(t)
}

func TestLoad_AcceptsLegacyArray(t *testing.T) {
	legacy := `[{"id":"A1","queueNumber":"10","storeNumber":"200","dockNumber":"5","deliveryDate":"2024-03-15",
		"boxes":4,"pallets":3.5,"palletsPrinted":1,"processed":false,"deleted":true,"deletedAt":"15/03/2024 10:00:00"}]`
	blobs := memory.NewBlobStore()
	require.NoError(t, blobs.Store(context.Background(), ports.OrdersStorageKey, []byte(legacy)))

	repo := newLoadedRepo(t, blobs)

	order, err := repo.Get(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, "15/03/2024", order.DeliveryDate)
	assert.True(t, order.Pallets.Equal(decimal.NewFromFloat(3.5)))
	assert.True(t, order.Deleted)
	require.NotNil(t, order.DeletedAt)
	assert.True(t, order.DeletedAt.Equal(time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)))
}

func TestAppend_PersistsVersionedEnvelope(t *testing.T) {
	blobs := memory.NewBlobStore()
	repo := newLoadedRepo(t, blobs)
	ctx := context.Background()

	added, err := repo.Append(ctx, []*domain.Order{newOrder(t, "A", 2), newOrder(t, "B", 3)})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = repo.Append(ctx, []*domain.Order{newOrder(t, "B", 9), newOrder(t, "C", 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	payload, err := blobs.Load(ctx, ports.OrdersStorageKey)
	require.NoError(t, err)
	var env struct {
		Version int `json:"version"`
		Orders  []struct {
			ID string `json:"id"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(payload, &env))
	assert.Equal(t, SchemaVersion, env.Version)
	require.Len(t, env.Orders, 3)
	assert.Equal(t, "A", env.Orders[0].ID)
	assert.Equal(t, "B", env.Orders[1].ID)
	assert.Equal(t, "C", env.Orders[2].ID)
	assert.Equal(t, []string{"A", "B", "C"}, OrderIDs(payload))

	b, err := repo.Get(ctx, "B")
	require.NoError(t, err)
	assert.True(t, b.Pallets.Equal(decimal.NewFromInt(3)))
}

// failingStoreBlobs reads through to memory and rejects writes once failStore is set.
type failingStoreBlobs struct {
	*memory.BlobStore
	failStore error
}

func (f *failingStoreBlobs) Store(ctx context.Context, key string, payload []byte) error {
	if f.failStore != nil {
		return f.failStore
	}
	return f.BlobStore.Store(ctx, key, payload)
}

func TestModify_SaveFailureLeavesStateUntouched(t *testing.T) {
	blobs := &failingStoreBlobs{BlobStore: memory.NewBlobStore()}
	repo := newLoadedRepo(t, blobs)
	ctx := context.Background()

	_, err := repo.Append(ctx, []*domain.Order{newOrder(t, "A", 5)})
	require.NoError(t, err)

	blobs.failStore = errors.New("quota exceeded")
	_, err = repo.Modify(ctx, "A", func(o *domain.Order) error {
		return o.ProcessBatch(domain.BatchRequest{UserID: "U1", PalletsToProcess: 2}, fixedNow)
	})
	require.Error(t, err)

	order, err := repo.Get(ctx, "A")
	require.NoError(t, err)
	assert.True(t, order.PalletsPrinted.IsZero())
}

func TestSharedBlob_StoresSeeEachOthersCommits(t *testing.T) {
	blobs := memory.NewBlobStore()
	ctx := context.Background()
	api := newLoadedRepo(t, blobs)
	worker := newLoadedRepo(t, blobs)

	_, err := api.Append(ctx, []*domain.Order{newOrder(t, "A", 1), newOrder(t, "B", 1)})
	require.NoError(t, err)
	_, err = api.Modify(ctx, "A", func(o *domain.Order) error {
		o.SoftDelete(fixedNow)
		return nil
	})
	require.NoError(t, err)

	added, err := worker.Append(ctx, []*domain.Order{newOrder(t, "B", 3), newOrder(t, "C", 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	require.NoError(t, worker.Remove(ctx, "A", (*domain.Order).EnsurePurgeable))

	c, err := api.Get(ctx, "C")
	require.NoError(t, err)
	assert.True(t, c.Pallets.Equal(decimal.NewFromInt(2)))
	_, err = api.Get(ctx, "A")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = api.Modify(ctx, "B", func(o *domain.Order) error {
		o.SoftDelete(fixedNow)
		return nil
	})
	require.NoError(t, err)

	payload, err := blobs.Load(ctx, ports.OrdersStorageKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, OrderIDs(payload))

	orders, err := worker.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.True(t, orders[0].Deleted)
	assert.False(t, orders[1].Deleted)
}

func TestModify_CallbackErrorIsReturned(t *testing.T) {
	repo := newLoadedRepo(t, memory.NewBlobStore())
	ctx := context.Background()
	_, err := repo.Append(ctx, []*domain.Order{newOrder(t, "A", 1)})
	require.NoError(t, err)

	_, err = repo.Modify(ctx, "A", func(o *domain.Order) error {
		o.PalletsPrinted = decimal.NewFromInt(1)
		return domain.ErrMissingActualCount
	})
	require.ErrorIs(t, err, domain.ErrMissingActualCount)

	order, err := repo.Get(ctx, "A")
	require.NoError(t, err)
	assert.True(t, order.PalletsPrinted.IsZero())

	_, err = repo.Modify(ctx, "missing", func(*domain.Order) error { return nil })
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRemove_HonoursCheckAndPersists(t *testing.T) {
	blobs := memory.NewBlobStore()
	repo := newLoadedRepo(t, blobs)
	ctx := context.Background()
	_, err := repo.Append(ctx, []*domain.Order{newOrder(t, "A", 1), newOrder(t, "B", 1)})
	require.NoError(t, err)

	err = repo.Remove(ctx, "A", (*domain.Order).EnsurePurgeable)
	require.ErrorIs(t, err, domain.ErrNotDeleted)

	require.NoError(t, repo.Remove(ctx, "A", nil))
	assert.ErrorIs(t, repo.Remove(ctx, "A", nil), ports.ErrNotFound)

	reloaded := newLoadedRepo(t, blobs)
	orders, err := reloaded.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "B", orders[0].ID)
}

func TestClear_PersistsEmptyList(t *testing.T) {
	blobs := memory.NewBlobStore()
	repo := newLoadedRepo(t, blobs)
	ctx := context.Background()
	_, err := repo.Append(ctx, []*domain.Order{newOrder(t, "A", 1)})
	require.NoError(t, err)

	require.NoError(t, repo.Clear(ctx))

	payload, err := blobs.Load(ctx, ports.OrdersStorageKey)
	require.NoError(t, err)
	assert.Empty(t, OrderIDs(payload))
	orders, err := newLoadedRepo(t, blobs).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestList_ReturnsCopies(t *testing.T) {
	repo := newLoadedRepo(t, memory.NewBlobStore())
	ctx := context.Background()
	_, err := repo.Append(ctx, []*domain.Order{newOrder(t, "A", 1)})
	require.NoError(t, err)

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	orders[0].Processed = true

	again, err := repo.Get(ctx, "A")
	require.NoError(t, err)
	assert.False(t, again.Processed)
}

func TestEncodeDecode_KeepsTimestampsAtSecondPrecision(t *testing.T) {
	order := newOrder(t, "A", 1)
	require.NoError(t, order.ProcessBatch(domain.BatchRequest{UserID: "U1", PalletsToProcess: 1, ActualTotalPallets: ptr(decimal.NewFromFloat(0.5))}, fixedNow.Add(750*time.Millisecond)))

	payload, err := Encode([]*domain.Order{order}, fixedNow)
	require.NoError(t, err)
	decoded, err := Decode(payload)
	require.NoError(t, err)

	require.Len(t, decoded, 1)
	require.NotNil(t, decoded[0].ProcessedAt)
	assert.True(t, decoded[0].ProcessedAt.Equal(fixedNow))
	assert.True(t, decoded[0].Pallets.Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, decoded[0].Processed)
	assert.Equal(t, "U1", decoded[0].UserID)
}

func TestEncode_WritesZonedTimestamps(t *testing.T) {
	order := newOrder(t, "A", 1)
	order.SoftDelete(time.Date(2024, 10, 27, 2, 30, 0, 0, time.FixedZone("CEST", 2*60*60)))

	payload, err := Encode([]*domain.Order{order}, fixedNow)
	require.NoError(t, err)
	var env struct {
		Orders []struct {
			DeletedAt string `json:"deletedAt"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(payload, &env))
	require.Len(t, env.Orders, 1)
	assert.Equal(t, "2024-10-27T00:30:00Z", env.Orders[0].DeletedAt)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	require.NotNil(t, decoded[0].DeletedAt)
	assert.True(t, decoded[0].DeletedAt.Equal(*order.DeletedAt))
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }
