package types

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
)

// ProcessInput asks to print the next batch of labels for an order.
type ProcessInput struct {
	OrderID            string
	UserID             string
	PalletsToProcess   int
	ActualTotalPallets *decimal.Decimal
}

// BatchRequest converts the input to the domain batch command.
func (in ProcessInput) BatchRequest() domain.BatchRequest {
	return domain.BatchRequest{
		UserID:             strings.TrimSpace(in.UserID),
		PalletsToProcess:   in.PalletsToProcess,
		ActualTotalPallets: in.ActualTotalPallets,
	}
}

// ProcessResult carries the order after the batch and the labels that were printed for it.
type ProcessResult struct {
	Order  *domain.Order
	Labels []domain.Label
}
