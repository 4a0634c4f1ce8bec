package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxBatchPallets is the number of labels printed per batch at most.
const MaxBatchPallets = 2

var (
	ErrEmptyID             = errors.New("order id must not be empty")
	ErrMissingOperator     = errors.New("operator id is required")
	ErrInvalidBatchSize    = errors.New("pallets to process must be 1 or 2")
	ErrMissingActualCount  = errors.New("actual total pallets is required on the last batch")
	ErrInvalidActualCount  = errors.New("actual total pallets must be a positive multiple of 0.5")
	ErrAlreadyProcessed    = errors.New("order is already processed")
	ErrNotDeleted          = errors.New("order is not deleted")
	ErrNegativeQuantity    = errors.New("quantities must not be negative")
	ErrPrintedExceedsTotal = errors.New("printed pallets exceed total pallets")
)

var (
	halfPallet     = decimal.NewFromFloat(0.5)
	maxBatchAmount = decimal.NewFromInt(MaxBatchPallets)
)

// Order is one row of warehouse demand and the progress of its pallet labels.
// Pallets holds the forecast until the order is processed and the actual count afterwards.
type Order struct {
	ID             string
	QueueNumber    string
	StoreNumber    string
	DockNumber     string
	DeliveryDate   string
	Boxes          int
	Pallets        decimal.Decimal
	PalletsPrinted decimal.Decimal
	Processed      bool
	UserID         string
	ProcessedAt    *time.Time
	Deleted        bool
	DeletedAt      *time.Time
}

// NewOrder builds a freshly imported order. The delivery date is normalized.
func NewOrder(id, queueNumber, storeNumber, dockNumber, deliveryDate string, boxes int, pallets decimal.Decimal) (*Order, error) {
	order := &Order{
		ID:             strings.TrimSpace(id),
		QueueNumber:    strings.TrimSpace(queueNumber),
		StoreNumber:    strings.TrimSpace(storeNumber),
		DockNumber:     strings.TrimSpace(dockNumber),
		DeliveryDate:   NormalizeDeliveryDate(deliveryDate),
		Boxes:          boxes,
		Pallets:        pallets,
		PalletsPrinted: decimal.Zero,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces the aggregate invariants.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return ErrEmptyID
	}
	if o.Boxes < 0 || o.Pallets.IsNegative() || o.PalletsPrinted.IsNegative() {
		return ErrNegativeQuantity
	}
	if o.PalletsPrinted.GreaterThan(o.Pallets) {
		return ErrPrintedExceedsTotal
	}
	return nil
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.ProcessedAt = cloneTime(o.ProcessedAt)
	clone.DeletedAt = cloneTime(o.DeletedAt)
	return &clone
}

// Remaining is the number of pallets still to be labelled.
func (o *Order) Remaining() decimal.Decimal {
	return decimal.Max(decimal.Zero, o.Pallets.Sub(o.PalletsPrinted))
}

// IsComplete reports whether every forecast pallet has been printed.
func (o *Order) IsComplete() bool {
	return o.PalletsPrinted.GreaterThanOrEqual(o.Pallets)
}

// IsLastBatch reports whether the next batch finishes the order and therefore needs the actual count.
func (o *Order) IsLastBatch() bool {
	return o.Remaining().LessThanOrEqual(maxBatchAmount)
}

// NextBatchSize is the default number of pallets for the next print action.
func (o *Order) NextBatchSize() decimal.Decimal {
	return decimal.Min(o.Remaining(), maxBatchAmount)
}

// EffectiveTotal resolves the total used by a batch: the operator's correction when given.
func (o *Order) EffectiveTotal(actualTotal *decimal.Decimal) decimal.Decimal {
	if actualTotal != nil {
		return *actualTotal
	}
	return o.Pallets
}

// BatchRequest describes one print action on an order. ActualTotalPallets is mandatory on the last batch.
type BatchRequest struct {
	UserID             string
	PalletsToProcess   int
	ActualTotalPallets *decimal.Decimal
}

// ValidateBatch checks a batch against the current state without mutating it.
func (o *Order) ValidateBatch(req BatchRequest) error {
	if o.Processed {
		return ErrAlreadyProcessed
	}
	if strings.TrimSpace(req.UserID) == "" {
		return ErrMissingOperator
	}
	if req.PalletsToProcess < 1 || req.PalletsToProcess > MaxBatchPallets {
		return ErrInvalidBatchSize
	}
	if o.IsLastBatch() && req.ActualTotalPallets == nil {
		return ErrMissingActualCount
	}
	if actual := req.ActualTotalPallets; actual != nil {
		if !actual.IsPositive() || !IsHalfStep(*actual) {
			return ErrInvalidActualCount
		}
	}
	return nil
}

// ProcessBatch applies a print action. Printed pallets never overshoot the effective total, so a
// correction below the printed count clamps them down to it. The order completes once every pallet
// of the effective total has been printed.
func (o *Order) ProcessBatch(req BatchRequest, now time.Time) error {
	if err := o.ValidateBatch(req); err != nil {
		return err
	}
	total := o.EffectiveTotal(req.ActualTotalPallets)
	printed := decimal.Min(o.PalletsPrinted.Add(decimal.NewFromInt(int64(req.PalletsToProcess))), total)

	o.Pallets = total
	o.PalletsPrinted = printed
	wasProcessed := o.Processed
	o.Processed = printed.GreaterThanOrEqual(total)
	if o.Processed && !wasProcessed && o.ProcessedAt == nil {
		stamp := now.Truncate(time.Second)
		o.ProcessedAt = &stamp
		o.UserID = strings.TrimSpace(req.UserID)
	}
	return nil
}

// SoftDelete hides the order from active views and keeps it for restore.
func (o *Order) SoftDelete(now time.Time) {
	stamp := now.Truncate(time.Second)
	o.Deleted = true
	o.DeletedAt = &stamp
}

// Restore clears the delete markers and nothing else.
func (o *Order) Restore() {
	o.Deleted = false
	o.DeletedAt = nil
}

// EnsurePurgeable only lets deleted orders be removed for good.
func (o *Order) EnsurePurgeable() error {
	if !o.Deleted {
		return ErrNotDeleted
	}
	return nil
}

// IsHalfStep reports whether a pallet quantity is a whole or half pallet count.
func IsHalfStep(d decimal.Decimal) bool {
	return d.Mod(halfPallet).IsZero()
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
