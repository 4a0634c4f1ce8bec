package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func decPtr(v float64) *decimal.Decimal {
	d := dec(v)
	return &d
}

func newTestOrder(t *testing.T, pallets float64) *Order {
	t.Helper()
	order, err := NewOrder("P1", "10", "200", "5", "2024-03-15", 12, dec(pallets))
	require.NoError(t, err)
	return order
}

func TestNewOrder_NormalizesAndStartsPending(t *testing.T) {
	order := newTestOrder(t, 3)

	assert.Equal(t, "15/03/2024", order.DeliveryDate)
	assert.True(t, order.PalletsPrinted.IsZero())
	assert.False(t, order.Processed)
	assert.False(t, order.Deleted)
	assert.Nil(t, order.ProcessedAt)
}

func TestNewOrder_RejectsEmptyID(t *testing.T) {
	_, err := NewOrder("  ", "10", "200", "5", "15/03/2024", 1, dec(1))
	require.ErrorIs(t, err, ErrEmptyID)
}

func TestProcessBatch_PartialBatchesThenCorrection(t *testing.T) {
	order := newTestOrder(t, 5)
	now := time.Date(2024, 3, 15, 10, 30, 15, 500, time.UTC)

	require.NoError(t, order.ProcessBatch(BatchRequest{UserID: "U1", PalletsToProcess: 2}, now))
	assert.True(t, order.PalletsPrinted.Equal(dec(2)))
	assert.False(t, order.Processed)
	assert.True(t, order.Remaining().Equal(dec(3)))
	assert.False(t, order.IsLastBatch())

	require.NoError(t, order.ProcessBatch(BatchRequest{UserID: "U1", PalletsToProcess: 2}, now))
	assert.True(t, order.PalletsPrinted.Equal(dec(4)))
	assert.False(t, order.Processed)
	assert.True(t, order.Remaining().Equal(dec(1)))
	assert.True(t, order.IsLastBatch())

	require.NoError(t, order.ProcessBatch(BatchRequest{UserID: "U1", PalletsToProcess: 1, ActualTotalPallets: decPtr(3.5)}, now))
	assert.True(t, order.Pallets.Equal(dec(3.5)))
	assert.True(t, order.PalletsPrinted.Equal(dec(3.5)))
	assert.True(t, order.Processed)
	assert.Equal(t, "U1", order.UserID)
	require.NotNil(t, order.ProcessedAt)
	assert.Equal(t, now.Truncate(time.Second), *order.ProcessedAt)
}

func TestProcessBatch_LastBatchRequiresActualCount(t *testing.T) {
	order := newTestOrder(t, 2)
	before := *order

	err := order.ProcessBatch(BatchRequest{UserID: "U1", PalletsToProcess: 2}, time.Now())

	require.ErrorIs(t, err, ErrMissingActualCount)
	assert.Equal(t, before, *order)
}

func TestProcessBatch_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  BatchRequest
		want error
	}{
		{name: "missing operator", req: BatchRequest{UserID: " ", PalletsToProcess: 1}, want: ErrMissingOperator},
		{name: "zero pallets", req: BatchRequest{UserID: "U1", PalletsToProcess: 0}, want: ErrInvalidBatchSize},
		{name: "three pallets", req: BatchRequest{UserID: "U1", PalletsToProcess: 3}, want: ErrInvalidBatchSize},
		{name: "quarter pallet correction", req: BatchRequest{UserID: "U1", PalletsToProcess: 1, ActualTotalPallets: decPtr(6.25)}, want: ErrInvalidActualCount},
		{name: "zero correction", req: BatchRequest{UserID: "U1", PalletsToProcess: 1, ActualTotalPallets: decPtr(0)}, want: ErrInvalidActualCount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			order := newTestOrder(t, 6)
			err := order.ProcessBatch(tc.req, time.Now())
			require.ErrorIs(t, err, tc.want)
			assert.True(t, order.PalletsPrinted.IsZero())
		})
	}
}

func TestProcessBatch_ProcessedOrderIsNotReprocessed(t *testing.T) {
	order := newTestOrder(t, 1)
	first := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	require.NoError(t, order.ProcessBatch(BatchRequest{UserID: "U1", PalletsToProcess: 1, ActualTotalPallets: decPtr(1)}, first))

	err := order.ProcessBatch(BatchRequest{UserID: "U2", PalletsToProcess: 1, ActualTotalPallets: decPtr(4)}, first.Add(time.Hour))

	require.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, first, *order.ProcessedAt)
	assert.Equal(t, "U1", order.UserID)
	assert.True(t, order.Pallets.Equal(dec(1)))
}

func TestProcessBatch_UpwardCorrectionKeepsOrderOpen(t *testing.T) {
	order := newTestOrder(t, 2)

	require.NoError(t, order.ProcessBatch(BatchRequest{UserID: "U1", PalletsToProcess: 2, ActualTotalPallets: decPtr(4.5)}, time.Now()))

	assert.True(t, order.Pallets.Equal(dec(4.5)))
	assert.True(t, order.PalletsPrinted.Equal(dec(2)))
	assert.False(t, order.Processed)
	assert.Nil(t, order.ProcessedAt)
	assert.Empty(t, order.UserID)
}

func TestProcessBatch_InvariantsHoldAcrossSequences(t *testing.T) {
	forecasts := []float64{0.5, 1, 2, 3, 3.5, 5, 7.5, 10}
	corrections := []float64{0.5, 1, 2.5, 3, 4.5, 8}
	for _, forecast := range forecasts {
		for _, correction := range corrections {
			order := newTestOrder(t, forecast)
			for step := 0; step < 20 && !order.Processed; step++ {
				req := BatchRequest{UserID: "U1", PalletsToProcess: 2}
				if order.IsLastBatch() {
					req.ActualTotalPallets = decPtr(correction)
				}
				require.NoError(t, order.ProcessBatch(req, time.Now()))

				assert.False(t, order.PalletsPrinted.IsNegative())
				assert.True(t, order.PalletsPrinted.LessThanOrEqual(order.Pallets))
				assert.Equal(t, order.IsComplete(), order.Processed)
			}
			assert.True(t, order.Processed, "forecast %v correction %v never completed", forecast, correction)
		}
	}
}

func TestSoftDeleteAndRestore_KeepOtherFields(t *testing.T) {
	order := newTestOrder(t, 4)
	require.NoError(t, order.ProcessBatch(BatchRequest{UserID: "U1", PalletsToProcess: 2}, time.Now()))
	before := order.Clone()

	order.SoftDelete(time.Now())
	assert.True(t, order.Deleted)
	require.NotNil(t, order.DeletedAt)
	require.NoError(t, order.EnsurePurgeable())

	order.Restore()
	assert.Equal(t, before, order)
	assert.ErrorIs(t, order.EnsurePurgeable(), ErrNotDeleted)
}

func TestNextBatchSize(t *testing.T) {
	order := newTestOrder(t, 3.5)
	assert.True(t, order.NextBatchSize().Equal(dec(2)))

	order.PalletsPrinted = dec(3)
	assert.True(t, order.NextBatchSize().Equal(dec(0.5)))
}

func TestStatusFilter(t *testing.T) {
	pending := &Order{ID: "1"}
	processed := &Order{ID: "2", Processed: true}
	deleted := &Order{ID: "3", Deleted: true}

	assert.True(t, StatusPending.Matches(pending))
	assert.False(t, StatusPending.Matches(processed))
	assert.True(t, StatusProcessed.Matches(processed))
	assert.False(t, StatusAll.Matches(deleted))
	assert.True(t, StatusDeleted.Matches(deleted))

	status, err := ParseStatusFilter("total")
	require.NoError(t, err)
	assert.Equal(t, StatusAll, status)
	_, err = ParseStatusFilter("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
