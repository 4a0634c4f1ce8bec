package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Label is one printed pallet label.
type Label struct {
	OrderID      string
	StoreNumber  string
	DeliveryDate string
	QueueNumber  string
	QueueName    string
	DockNumber   string
	UserID       string
	PalletNumber decimal.Decimal
	TotalPallets decimal.Decimal
}

// Caption renders the pallet position, e.g. "3/5" or "3.5/3.5".
func (l Label) Caption() string {
	return fmt.Sprintf("%s/%s", FormatPallets(l.PalletNumber), FormatPallets(l.TotalPallets))
}

// FormatPallets prints whole counts without decimals and half pallets with one decimal.
func FormatPallets(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.Truncate(0).String()
	}
	return d.StringFixed(1)
}

// Labels projects the labels a batch would print without touching the order. Pallet numbers run from
// PalletsPrinted+1 and never pass the effective total; when the total ends in a half pallet the first
// out-of-range index is printed as the exact total, also when a correction lands below what was
// already printed (4 printed, corrected to 3.5, prints "3.5/3.5").
func (o *Order) Labels(userID string, count int, actualTotal *decimal.Decimal) []Label {
	if count <= 0 {
		return nil
	}
	total := o.EffectiveTotal(actualTotal)
	fractional := !total.Equal(total.Floor())
	labels := make([]Label, 0, count)
	for i := 1; i <= count; i++ {
		number := o.PalletsPrinted.Add(decimal.NewFromInt(int64(i)))
		if number.GreaterThan(total) {
			// Pallet numbers are whole, so no earlier label can already carry a fractional total.
			if fractional {
				labels = append(labels, o.label(userID, total, total))
			}
			break
		}
		labels = append(labels, o.label(userID, number, total))
	}
	return labels
}

func (o *Order) label(userID string, number, total decimal.Decimal) Label {
	return Label{
		OrderID:      o.ID,
		StoreNumber:  o.StoreNumber,
		DeliveryDate: o.DeliveryDate,
		QueueNumber:  o.QueueNumber,
		QueueName:    QueueName(o.QueueNumber),
		DockNumber:   o.DockNumber,
		UserID:       userID,
		PalletNumber: number,
		TotalPallets: total,
	}
}
