package ports

import (
	"context"
	"errors"

	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
)

var ErrNotFound = errors.New("order not found")

// Repository is the ordered order store. Every mutation is persisted before it returns.
type Repository interface {
	// List returns a copy of every order in insertion order, deleted ones included.
	List(ctx context.Context) ([]*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	// Append adds orders whose ids are not stored yet and reports how many were added.
	Append(ctx context.Context, orders []*domain.Order) (int, error)
	// Modify runs fn against the stored order under the store lock. When fn fails nothing is saved.
	Modify(ctx context.Context, id string, fn func(*domain.Order) error) (*domain.Order, error)
	// Remove deletes the order for good once check, when given, accepts it.
	Remove(ctx context.Context, id string, check func(*domain.Order) error) error
	Clear(ctx context.Context) error
}
