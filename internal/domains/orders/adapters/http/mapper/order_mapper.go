package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
)

const timestampLayout = "02/01/2006 15:04:05"

// Order is the transport shape of an order.
type Order struct {
	ID             string  `json:"id"`
	QueueNumber    string  `json:"queueNumber"`
	QueueName      string  `json:"queueName"`
	StoreNumber    string  `json:"storeNumber"`
	DockNumber     string  `json:"dockNumber"`
	DeliveryDate   string  `json:"deliveryDate"`
	Boxes          int     `json:"boxes"`
	Pallets        float64 `json:"pallets"`
	PalletsPrinted float64 `json:"palletsPrinted"`
	Remaining      float64 `json:"remaining"`
	NextBatch      float64 `json:"nextBatch"`
	LastBatch      bool    `json:"lastBatch"`
	Processed      bool    `json:"processed"`
	UserID         string  `json:"userId,omitempty"`
	ProcessedAt    string  `json:"processedAt,omitempty"`
	Deleted        bool    `json:"deleted"`
	DeletedAt      string  `json:"deletedAt,omitempty"`
}

// Label is one printable pallet label.
type Label struct {
	OrderID      string  `json:"orderId"`
	StoreNumber  string  `json:"storeNumber"`
	DeliveryDate string  `json:"deliveryDate"`
	QueueNumber  string  `json:"queueNumber"`
	QueueName    string  `json:"queueName"`
	DockNumber   string  `json:"dockNumber"`
	UserID       string  `json:"userId"`
	PalletNumber float64 `json:"palletNumber"`
	TotalPallets float64 `json:"totalPallets"`
	Caption      string  `json:"caption"`
}

// ProcessRequest is the body of the labels preview and process endpoints.
type ProcessRequest struct {
	UserID             string   `json:"userId" binding:"required,notblank"`
	PalletsToProcess   int      `json:"palletsToProcess" binding:"required,min=1,max=2"`
	ActualTotalPallets *float64 `json:"actualTotalPallets" binding:"omitempty,gt=0,halfstep"`
}

// ProcessResponse reports the order after the batch and the labels to print.
type ProcessResponse struct {
	Order  Order   `json:"order"`
	Labels []Label `json:"labels"`
}

// Queue is a catalog queue with its pending workload.
type Queue struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Pending int    `json:"pending"`
}

// Summary is the dashboard payload.
type Summary struct {
	Total     int     `json:"total"`
	Processed int     `json:"processed"`
	Pending   int     `json:"pending"`
	Deleted   int     `json:"deleted"`
	Queues    []Queue `json:"queues"`
}

// ImportResponse reports the outcome of an upload.
type ImportResponse struct {
	Source string `json:"source"`
	types.ImportResult
}

// ToProcessInput converts the request body for the given order.
func ToProcessInput(orderID string, req ProcessRequest) types.ProcessInput {
	input := types.ProcessInput{
		OrderID:          orderID,
		UserID:           req.UserID,
		PalletsToProcess: req.PalletsToProcess,
	}
	if req.ActualTotalPallets != nil {
		actual := decimal.NewFromFloat(*req.ActualTotalPallets)
		input.ActualTotalPallets = &actual
	}
	return input
}

func FromDomainOrder(o *domain.Order) Order {
	if o == nil {
		return Order{}
	}
	return Order{
		ID:             o.ID,
		QueueNumber:    o.QueueNumber,
		QueueName:      domain.QueueName(o.QueueNumber),
		StoreNumber:    o.StoreNumber,
		DockNumber:     o.DockNumber,
		DeliveryDate:   o.DeliveryDate,
		Boxes:          o.Boxes,
		Pallets:        o.Pallets.InexactFloat64(),
		PalletsPrinted: o.PalletsPrinted.InexactFloat64(),
		Remaining:      o.Remaining().InexactFloat64(),
		NextBatch:      o.NextBatchSize().InexactFloat64(),
		LastBatch:      !o.Processed && o.IsLastBatch(),
		Processed:      o.Processed,
		UserID:         o.UserID,
		ProcessedAt:    formatTime(o.ProcessedAt),
		Deleted:        o.Deleted,
		DeletedAt:      formatTime(o.DeletedAt),
	}
}

func FromDomainOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromDomainOrder(o))
	}
	return out
}

func FromDomainLabels(labels []domain.Label) []Label {
	out := make([]Label, 0, len(labels))
	for _, l := range labels {
		out = append(out, Label{
			OrderID:      l.OrderID,
			StoreNumber:  l.StoreNumber,
			DeliveryDate: l.DeliveryDate,
			QueueNumber:  l.QueueNumber,
			QueueName:    l.QueueName,
			DockNumber:   l.DockNumber,
			UserID:       l.UserID,
			PalletNumber: l.PalletNumber.InexactFloat64(),
			TotalPallets: l.TotalPallets.InexactFloat64(),
			Caption:      l.Caption(),
		})
	}
	return out
}

func FromProcessResult(result *types.ProcessResult) ProcessResponse {
	if result == nil {
		return ProcessResponse{Labels: []Label{}}
	}
	return ProcessResponse{Order: FromDomainOrder(result.Order), Labels: FromDomainLabels(result.Labels)}
}

func FromSummary(s *types.Summary) Summary {
	if s == nil {
		return Summary{Queues: []Queue{}}
	}
	out := Summary{Total: s.Total, Processed: s.Processed, Pending: s.Pending, Deleted: s.Deleted, Queues: FromQueueSummaries(s.Queues)}
	return out
}

func FromQueueSummaries(queues []types.QueueSummary) []Queue {
	out := make([]Queue, 0, len(queues))
	for _, q := range queues {
		out = append(out, Queue{ID: q.ID, Name: q.Name, Pending: q.Pending})
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(timestampLayout)
}
