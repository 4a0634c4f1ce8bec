package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
)

// LeadingRowsSkipped is the number of title and header lines the warehouse export puts above the data.
const LeadingRowsSkipped = 3

// Column positions of the fixed seven-column export layout.
const (
	ColumnID = iota
	ColumnQueue
	ColumnStore
	ColumnDock
	ColumnDeliveryDate
	ColumnBoxes
	ColumnPallets
	columnCount
)

// ErrInvalidRow marks an import row that cannot become an order. It is counted, never fatal.
var ErrInvalidRow = errors.New("invalid import row")

// RawRow is one spreadsheet line as read, before validation. Line is the 1-based position in the sheet.
type RawRow struct {
	Line   int
	Values []string
}

// RowsFromSheet drops the leading title rows and tags the remaining records with their sheet line.
func RowsFromSheet(records [][]string) []RawRow {
	if len(records) <= LeadingRowsSkipped {
		return nil
	}
	rows := make([]RawRow, 0, len(records)-LeadingRowsSkipped)
	for i, record := range records[LeadingRowsSkipped:] {
		rows = append(rows, RawRow{Line: LeadingRowsSkipped + i + 1, Values: record})
	}
	return rows
}

// Value returns the trimmed cell at column, or "" when the row is short.
func (r RawRow) Value(column int) string {
	if column < 0 || column >= len(r.Values) {
		return ""
	}
	return strings.TrimSpace(r.Values[column])
}

// ID is the order id cell.
func (r RawRow) ID() string { return r.Value(ColumnID) }

// ToOrder validates the row field by field. Only a missing id rejects the row; unreadable
// quantities default to zero.
func (r RawRow) ToOrder() (*domain.Order, error) {
	id := r.ID()
	if id == "" {
		return nil, fmt.Errorf("%w: line %d: missing order id", ErrInvalidRow, r.Line)
	}
	order, err := domain.NewOrder(
		id,
		r.Value(ColumnQueue),
		r.Value(ColumnStore),
		r.Value(ColumnDock),
		r.Value(ColumnDeliveryDate),
		ParseBoxes(r.Value(ColumnBoxes)),
		ParsePallets(r.Value(ColumnPallets)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRow, r.Line, err)
	}
	return order, nil
}

// ParseBoxes reads a box count. Decimals are truncated; blanks, junk and negatives become 0.
func ParseBoxes(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return max(n, 0)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil || d.IsNegative() {
		return 0
	}
	return int(d.IntPart())
}

// ParsePallets reads a pallet quantity, accepting a decimal comma. Blanks, junk and negatives become 0.
func ParsePallets(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ImportInput is one import request: rows already stripped of the leading title lines.
type ImportInput struct {
	Source string
	Rows   []RawRow
}

// ImportResult reports how an import was merged into the store.
type ImportResult struct {
	Added      int      `json:"added"`
	Duplicates int      `json:"duplicates"`
	Invalid    int      `json:"invalid"`
	Problems   []string `json:"problems,omitempty"`
}
