package application

import (
	"context"
	"strings"
	"time"

	types "github.com/Apurer/pallet-labels/internal/domains/orders/application/types"
	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
)

// Service orchestrates the orders bounded context use cases.
type Service struct {
	repo ports.Repository
	now  func() time.Time
}

// Option customizes the service.
type Option func(*Service)

// WithClock overrides the time source used for processed and deleted timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the orders service with its store.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// List returns every stored order, deleted ones included.
func (s *Service) List(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// ByQueue returns the work still pending in one logistics queue.
func (s *Service) ByQueue(ctx context.Context, queueID string) ([]*domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	queueID = strings.TrimSpace(queueID)
	result := make([]*domain.Order, 0)
	for _, order := range orders {
		if order.InQueue(queueID) {
			result = append(result, order)
		}
	}
	return result, nil
}

// ByStatus filters orders by lifecycle view.
func (s *Service) ByStatus(ctx context.Context, status domain.StatusFilter) ([]*domain.Order, error) {
	status, err := domain.ParseStatusFilter(string(status))
	if err != nil {
		return nil, mapError(err)
	}
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	result := make([]*domain.Order, 0, len(orders))
	for _, order := range orders {
		if status.Matches(order) {
			result = append(result, order)
		}
	}
	return result, nil
}

// Get loads a single order.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

// ImportRows merges raw spreadsheet rows into the store. Ids already stored are dropped, ids repeated
// within the rows keep their first occurrence, and rows without an id are counted as invalid.
func (s *Service) ImportRows(ctx context.Context, rows []types.RawRow) (*types.ImportResult, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	seen := make(map[string]struct{}, len(existing)+len(rows))
	for _, order := range existing {
		seen[order.ID] = struct{}{}
	}

	result := &types.ImportResult{}
	fresh := make([]*domain.Order, 0, len(rows))
	for _, row := range rows {
		order, err := row.ToOrder()
		if err != nil {
			result.Invalid++
			result.Problems = append(result.Problems, err.Error())
			continue
		}
		if _, dup := seen[order.ID]; dup {
			result.Duplicates++
			continue
		}
		seen[order.ID] = struct{}{}
		fresh = append(fresh, order)
	}
	if len(fresh) == 0 {
		return result, nil
	}
	added, err := s.repo.Append(ctx, fresh)
	if err != nil {
		return nil, mapError(err)
	}
	result.Added = added
	result.Duplicates += len(fresh) - added
	return result, nil
}

// PreviewLabels projects the labels the next batch would print without changing the order.
func (s *Service) PreviewLabels(ctx context.Context, input types.ProcessInput) ([]domain.Label, error) {
	order, err := s.repo.Get(ctx, strings.TrimSpace(input.OrderID))
	if err != nil {
		return nil, mapError(err)
	}
	req := input.BatchRequest()
	if err := order.ValidateBatch(req); err != nil {
		return nil, mapError(err)
	}
	return order.Labels(req.UserID, req.PalletsToProcess, req.ActualTotalPallets), nil
}

// Process prints one batch of labels and records it on the order.
func (s *Service) Process(ctx context.Context, input types.ProcessInput) (*types.ProcessResult, error) {
	req := input.BatchRequest()
	var labels []domain.Label
	order, err := s.repo.Modify(ctx, strings.TrimSpace(input.OrderID), func(o *domain.Order) error {
		if err := o.ValidateBatch(req); err != nil {
			return err
		}
		labels = o.Labels(req.UserID, req.PalletsToProcess, req.ActualTotalPallets)
		return o.ProcessBatch(req, s.now())
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &types.ProcessResult{Order: order, Labels: labels}, nil
}

// SoftDelete hides an order from the active views.
func (s *Service) SoftDelete(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.Modify(ctx, strings.TrimSpace(id), func(o *domain.Order) error {
		o.SoftDelete(s.now())
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

// Restore brings a soft-deleted order back.
func (s *Service) Restore(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.Modify(ctx, strings.TrimSpace(id), func(o *domain.Order) error {
		o.Restore()
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

// Purge removes a deleted order permanently.
func (s *Service) Purge(ctx context.Context, id string) error {
	if err := s.repo.Remove(ctx, strings.TrimSpace(id), (*domain.Order).EnsurePurgeable); err != nil {
		return mapError(err)
	}
	return nil
}

// PurgeDeletedBefore removes every deleted order whose deletion is older than cutoff.
func (s *Service) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	expired := func(o *domain.Order) error {
		if err := o.EnsurePurgeable(); err != nil {
			return err
		}
		if o.DeletedAt == nil || !o.DeletedAt.Before(cutoff) {
			return errRetained
		}
		return nil
	}
	purged := 0
	for _, order := range orders {
		if expired(order) != nil {
			continue
		}
		if err := s.repo.Remove(ctx, order.ID, expired); err != nil {
			if isSkippable(err) {
				continue
			}
			return purged, mapError(err)
		}
		purged++
	}
	return purged, nil
}

// Clear drops every order.
func (s *Service) Clear(ctx context.Context) error {
	return mapError(s.repo.Clear(ctx))
}

// Summary computes the dashboard counters, including pending work per queue.
func (s *Service) Summary(ctx context.Context) (*types.Summary, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	summary := &types.Summary{}
	pendingByQueue := map[string]int{}
	var extraQueues []string
	for _, order := range orders {
		switch {
		case order.Deleted:
			summary.Deleted++
			continue
		case order.Processed:
			summary.Processed++
		default:
			summary.Pending++
			if _, known := domain.LookupQueue(order.QueueNumber); !known && pendingByQueue[order.QueueNumber] == 0 {
				extraQueues = append(extraQueues, order.QueueNumber)
			}
			pendingByQueue[order.QueueNumber]++
		}
		summary.Total++
	}
	for _, queue := range domain.Queues() {
		summary.Queues = append(summary.Queues, types.QueueSummary{ID: queue.ID, Name: queue.Name, Pending: pendingByQueue[queue.ID]})
	}
	for _, id := range extraQueues {
		summary.Queues = append(summary.Queues, types.QueueSummary{ID: id, Name: domain.QueueName(id), Pending: pendingByQueue[id]})
	}
	return summary, nil
}

var _ ports.Service = (*Service)(nil)
