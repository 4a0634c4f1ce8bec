package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrConflict signals the order is in a state that does not allow the operation.
	ErrConflict = errors.New("order state conflict")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrMissingActualCount) ||
		errors.Is(err, domain.ErrInvalidActualCount) ||
		errors.Is(err, domain.ErrInvalidBatchSize) ||
		errors.Is(err, domain.ErrMissingOperator) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrEmptyID) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, domain.ErrAlreadyProcessed) || errors.Is(err, domain.ErrNotDeleted) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// errRetained rejects a purge of an order still inside the retention window.
var errRetained = errors.New("order still retained")

func isSkippable(err error) bool {
	return errors.Is(err, errRetained) || errors.Is(err, domain.ErrNotDeleted) || errors.Is(err, ports.ErrNotFound)
}
