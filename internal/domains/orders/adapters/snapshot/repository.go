package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository stores the ordered order list as one blob. The blob is the only copy of the state:
// reads decode it and every mutation reloads it, applies the change and writes the whole list back
// under the store lock, so processes sharing the blob (API, worker, CLI) see each other's commits.
// A mutation whose save fails is not applied.
type Repository struct {
	mu     sync.RWMutex
	blobs  ports.BlobStore
	key    string
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Repository)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithKey overrides the blob key, ports.OrdersStorageKey by default.
func WithKey(key string) Option {
	return func(r *Repository) {
		if key != "" {
			r.key = key
		}
	}
}

// NewRepository builds a store over blobs. Call Load before serving to check the slot is readable.
func NewRepository(blobs ports.BlobStore, opts ...Option) *Repository {
	r := &Repository{
		blobs:  blobs,
		key:    ports.OrdersStorageKey,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Load reads the persisted list once and reports its size. A missing or unreadable blob counts as
// empty; only blob store failures are returned.
func (r *Repository) Load(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders, err := r.current(ctx)
	if err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "orders loaded", slog.String("key", r.key), slog.Int("orders", len(orders)))
	return nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(orders, id)
	if idx < 0 {
		return nil, ports.ErrNotFound
	}
	return orders[idx], nil
}

func (r *Repository) Append(ctx context.Context, orders []*domain.Order) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, err := r.current(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(stored)+len(orders))
	for _, o := range stored {
		seen[o.ID] = struct{}{}
	}
	next := append(make([]*domain.Order, 0, len(stored)+len(orders)), stored...)
	added := 0
	for _, o := range orders {
		if o == nil {
			continue
		}
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}
		next = append(next, o.Clone())
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if err := r.commit(ctx, next); err != nil {
		return 0, err
	}
	return added, nil
}

func (r *Repository) Modify(ctx context.Context, id string, fn func(*domain.Order) error) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(stored, id)
	if idx < 0 {
		return nil, ports.ErrNotFound
	}
	updated := stored[idx].Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	stored[idx] = updated
	if err := r.commit(ctx, stored); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

func (r *Repository) Remove(ctx context.Context, id string, check func(*domain.Order) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, err := r.current(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(stored, id)
	if idx < 0 {
		return ports.ErrNotFound
	}
	if check != nil {
		if err := check(stored[idx].Clone()); err != nil {
			return err
		}
	}
	next := make([]*domain.Order, 0, len(stored)-1)
	next = append(next, stored[:idx]...)
	next = append(next, stored[idx+1:]...)
	return r.commit(ctx, next)
}

func (r *Repository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commit(ctx, nil)
}

// current decodes the persisted list. The caller holds the lock.
func (r *Repository) current(ctx context.Context) ([]*domain.Order, error) {
	if err := r.ensureBlobs(); err != nil {
		return nil, err
	}
	payload, err := r.blobs.Load(ctx, r.key)
	switch {
	case errors.Is(err, ports.ErrBlobNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", r.key, err)
	}
	orders, err := Decode(payload)
	if err != nil {
		r.logger.WarnContext(ctx, "discarding persisted orders", slog.String("key", r.key), slog.String("error", err.Error()))
		return nil, nil
	}
	return orders, nil
}

// commit persists next. The caller holds the write lock.
func (r *Repository) commit(ctx context.Context, next []*domain.Order) error {
	if err := r.ensureBlobs(); err != nil {
		return err
	}
	payload, err := Encode(next, r.now())
	if err != nil {
		return err
	}
	if err := r.blobs.Store(ctx, r.key, payload); err != nil {
		return fmt.Errorf("save %s: %w", r.key, err)
	}
	return nil
}

func indexOf(orders []*domain.Order, id string) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) ensureBlobs() error {
	if r == nil || r.blobs == nil {
		return errors.New("order snapshot store not configured")
	}
	return nil
}
