package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/memory"
	"github.com/Apurer/pallet-labels/internal/domains/orders/adapters/snapshot"
	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
)

var clock = time.Date(2024, 3, 15, 9, 45, 12, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo := snapshot.NewRepository(memory.NewBlobStore())
	require.NoError(t, repo.Load(context.Background()))
	return NewService(repo, WithClock(func() time.Time { return clock }))
}

func row(line int, values ...string) types.RawRow {
	return types.RawRow{Line: line, Values: values}
}

func seed(t *testing.T, svc *Service, rows ...types.RawRow) {
	t.Helper()
	_, err := svc.ImportRows(context.Background(), rows)
	require.NoError(t, err)
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func captions(labels []domain.Label) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, l.Caption())
	}
	return out
}

func TestImportRows_MergesAndDeduplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc, row(4, "A", "10", "200", "5", "2024-03-15", "12", "3"))

	result, err := svc.ImportRows(ctx, []types.RawRow{
		row(4, "A", "10", "200", "5", "15/03/2024", "1", "1"),
		row(5, "B", "11", "201", "6", "5/3/2024", "abc", "2,5"),
		row(6, "B", "11", "999", "6", "5/3/2024", "1", "1"),
		row(7, "", "11", "201", "6", "5/3/2024", "1", "1"),
		row(8, "C"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 2, result.Duplicates)
	assert.Equal(t, 1, result.Invalid)
	require.Len(t, result.Problems, 1)

	orders, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{orders[0].ID, orders[1].ID, orders[2].ID})

	a := orders[0]
	assert.Equal(t, 12, a.Boxes, "existing order must not be overwritten")
	b := orders[1]
	assert.Equal(t, "201", b.StoreNumber, "first occurrence in the batch wins")
	assert.Equal(t, "05/03/2024", b.DeliveryDate)
	assert.Equal(t, 0, b.Boxes)
	assert.True(t, b.Pallets.Equal(decimal.NewFromFloat(2.5)))
	c := orders[2]
	assert.Empty(t, c.DeliveryDate)
	assert.True(t, c.Pallets.IsZero())
	for _, o := range orders {
		assert.True(t, o.PalletsPrinted.IsZero())
		assert.False(t, o.Processed)
		assert.False(t, o.Deleted)
	}
}

func TestImportRows_SizeGrowsByUniqueRows(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc, row(4, "A", "10"), row(5, "B", "10"))

	_, err := svc.ImportRows(ctx, []types.RawRow{row(4, "B"), row(5, "C"), row(6, "D"), row(7, "C")})
	require.NoError(t, err)

	orders, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 4)
}

func TestProcess_WorkedExample(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc, row(4, "P1", "25", "200", "5", "15/03/2024", "40", "5"))

	first, err := svc.Process(ctx, types.ProcessInput{OrderID: "P1", UserID: "U1", PalletsToProcess: 2})
	require.NoError(t, err)
	assert.True(t, first.Order.PalletsPrinted.Equal(decimal.NewFromInt(2)))
	require.Len(t, first.Labels, 2)
	assert.Equal(t, "1/5", first.Labels[0].Caption())
	assert.Equal(t, "CONGELADO", first.Labels[0].QueueName)

	_, err = svc.Process(ctx, types.ProcessInput{OrderID: "P1", UserID: "U1", PalletsToProcess: 2})
	require.NoError(t, err)

	_, err = svc.Process(ctx, types.ProcessInput{OrderID: "P1", UserID: "U1", PalletsToProcess: 1})
	require.ErrorIs(t, err, domain.ErrMissingActualCount)
	require.ErrorIs(t, err, ErrInvalidInput)

	last, err := svc.Process(ctx, types.ProcessInput{OrderID: "P1", UserID: " U1 ", PalletsToProcess: 1, ActualTotalPallets: decPtr(3.5)})
	require.NoError(t, err)
	assert.True(t, last.Order.Pallets.Equal(decimal.NewFromFloat(3.5)))
	assert.True(t, last.Order.PalletsPrinted.Equal(decimal.NewFromFloat(3.5)))
	assert.True(t, last.Order.Processed)
	assert.Equal(t, "U1", last.Order.UserID)
	require.NotNil(t, last.Order.ProcessedAt)
	assert.True(t, last.Order.ProcessedAt.Equal(clock))
	require.Equal(t, []string{"3.5/3.5"}, captions(last.Labels))

	stored, err := svc.Get(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, stored.Processed)

	_, err = svc.Process(ctx, types.ProcessInput{OrderID: "P1", UserID: "U2", PalletsToProcess: 1, ActualTotalPallets: decPtr(9)})
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

func TestProcess_UnknownOrder(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Process(context.Background(), types.ProcessInput{OrderID: "nope", UserID: "U1", PalletsToProcess: 1})

	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPreviewLabels_DoesNotMutate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc, row(4, "P1", "10", "200", "5", "15/03/2024", "4", "4"))
	_, err := svc.Process(ctx, types.ProcessInput{OrderID: "P1", UserID: "U1", PalletsToProcess: 2})
	require.NoError(t, err)

	labels, err := svc.PreviewLabels(ctx, types.ProcessInput{OrderID: "P1", UserID: "U1", PalletsToProcess: 2, ActualTotalPallets: decPtr(3.5)})
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "3/3.5", labels[0].Caption())
	assert.Equal(t, "3.5/3.5", labels[1].Caption())

	_, err = svc.PreviewLabels(ctx, types.ProcessInput{OrderID: "P1", PalletsToProcess: 2, ActualTotalPallets: decPtr(3.5)})
	require.ErrorIs(t, err, domain.ErrMissingOperator)

	order, err := svc.Get(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, order.PalletsPrinted.Equal(decimal.NewFromInt(2)))
	assert.True(t, order.Pallets.Equal(decimal.NewFromInt(4)))
}

func TestViews(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc,
		row(4, "A", "10", "", "", "", "", "1"),
		row(5, "B", "10", "", "", "", "", "1"),
		row(6, "C", "11", "", "", "", "", "1"),
		row(7, "D", "99", "", "", "", "", "1"),
	)
	_, err := svc.Process(ctx, types.ProcessInput{OrderID: "A", UserID: "U1", PalletsToProcess: 1, ActualTotalPallets: decPtr(1)})
	require.NoError(t, err)
	_, err = svc.SoftDelete(ctx, "C")
	require.NoError(t, err)

	queue10, err := svc.ByQueue(ctx, "10")
	require.NoError(t, err)
	require.Len(t, queue10, 1)
	assert.Equal(t, "B", queue10[0].ID)

	counts := map[domain.StatusFilter]int{domain.StatusPending: 2, domain.StatusProcessed: 1, domain.StatusAll: 3, domain.StatusDeleted: 1}
	for status, want := range counts {
		got, err := svc.ByStatus(ctx, status)
		require.NoError(t, err)
		assert.Len(t, got, want, "status %s", status)
	}
	_, err = svc.ByStatus(ctx, "archived")
	assert.ErrorIs(t, err, ErrInvalidInput)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 2, summary.Pending)
	assert.Equal(t, 1, summary.Deleted)
	require.Len(t, summary.Queues, len(domain.Queues())+1)
	assert.Equal(t, types.QueueSummary{ID: "10", Name: "4ª GAMA", Pending: 1}, summary.Queues[0])
	assert.Equal(t, types.QueueSummary{ID: "99", Name: "Cola 99", Pending: 1}, summary.Queues[len(summary.Queues)-1])
}

func TestLifecycle_DeleteRestorePurge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc, row(4, "A", "10", "200", "5", "15/03/2024", "3", "2"))

	err := svc.Purge(ctx, "A")
	require.ErrorIs(t, err, domain.ErrNotDeleted)
	require.ErrorIs(t, err, ErrConflict)

	deleted, err := svc.SoftDelete(ctx, "A")
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	require.NotNil(t, deleted.DeletedAt)
	assert.True(t, deleted.DeletedAt.Equal(clock))

	restored, err := svc.Restore(ctx, "A")
	require.NoError(t, err)
	assert.False(t, restored.Deleted)
	assert.Nil(t, restored.DeletedAt)
	assert.Equal(t, 3, restored.Boxes)

	_, err = svc.SoftDelete(ctx, "A")
	require.NoError(t, err)
	require.NoError(t, svc.Purge(ctx, "A"))
	_, err = svc.Get(ctx, "A")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = svc.Restore(ctx, "A")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPurgeDeletedBefore(t *testing.T) {
	repo := snapshot.NewRepository(memory.NewBlobStore())
	require.NoError(t, repo.Load(context.Background()))
	now := clock
	svc := NewService(repo, WithClock(func() time.Time { return now }))
	ctx := context.Background()
	seed(t, svc, row(4, "old"), row(5, "fresh"), row(6, "active"))
	_, err := svc.SoftDelete(ctx, "old")
	require.NoError(t, err)
	now = now.Add(48 * time.Hour)
	_, err = svc.SoftDelete(ctx, "fresh")
	require.NoError(t, err)

	purged, err := svc.PurgeDeletedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	orders, err := svc.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"fresh", "active"}, ids)
}

func TestClear(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed(t, svc, row(4, "A"), row(5, "B"))

	require.NoError(t, svc.Clear(ctx))

	orders, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
