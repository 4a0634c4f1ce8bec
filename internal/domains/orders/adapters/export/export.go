package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
	"github.com/Apurer/pallet-labels/internal/platform/spreadsheet"
)

// SheetName names the single sheet of an export workbook.
const SheetName = "Pedidos"

const timestampLayout = "02/01/2006 15:04:05"

const placeholder = "-"

// Columns is the export header, in output order.
var Columns = []string{
	"ID Pedido",
	"Cola",
	"Tienda",
	"Muelle",
	"Fecha Entrega",
	"Cajas",
	"Palets Previstos",
	"Palets Procesados",
	"Estado",
	"Usuario",
	"Fecha Procesado",
	"Eliminado",
	"Fecha Eliminación",
}

// Table renders orders as an export sheet.
func Table(orders []*domain.Order) spreadsheet.Table {
	rows := make([][]string, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, Row(order))
	}
	return spreadsheet.Table{Sheet: SheetName, Header: Columns, Rows: rows}
}

// Row renders one order. Missing operator and timestamps show as "-".
func Row(o *domain.Order) []string {
	status := "Pendiente"
	if o.Processed {
		status = "Procesado"
	}
	deleted := "No"
	if o.Deleted {
		deleted = "Sí"
	}
	return []string{
		o.ID,
		o.QueueNumber,
		o.StoreNumber,
		o.DockNumber,
		o.DeliveryDate,
		strconv.Itoa(o.Boxes),
		domain.FormatPallets(o.Pallets),
		domain.FormatPallets(o.PalletsPrinted),
		status,
		orPlaceholder(o.UserID),
		timestamp(o.ProcessedAt),
		deleted,
		timestamp(o.DeletedAt),
	}
}

// Filename builds pedidos_<view>_<YYYY-MM-DD> with the format extension.
func Filename(view domain.StatusFilter, format spreadsheet.Format, now time.Time) string {
	return fmt.Sprintf("pedidos_%s_%s%s", view, now.Format("2006-01-02"), format.Extension())
}

// Title is the heading shown for a view.
func Title(view domain.StatusFilter) string {
	switch view {
	case domain.StatusProcessed:
		return "Pedidos Procesados"
	case domain.StatusPending:
		return "Pedidos Pendientes"
	case domain.StatusDeleted:
		return "Pedidos Eliminados"
	default:
		return "Resumen de Pedidos"
	}
}

func orPlaceholder(v string) string {
	if v == "" {
		return placeholder
	}
	return v
}

func timestamp(t *time.Time) string {
	if t == nil {
		return placeholder
	}
	return t.Local().Format(timestampLayout)
}
