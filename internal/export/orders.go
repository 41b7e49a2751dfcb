package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"marketplace/models"
)

const OrdersSheet = "Orders"

var orderHeaders = []string{
	"Order Number", "Status", "Client ID", "Supplier ID", "Total Amount",
	"Delivery Address", "Tracking Number", "Created At", "Completed At",
}

// WriteOrdersXLSX writes orders as a single-sheet workbook.
func WriteOrdersXLSX(w io.Writer, orders []models.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(OrdersSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	for i, h := range orderHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(OrdersSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(OrdersSheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for r, o := range orders {
		row := []interface{}{
			o.OrderNumber,
			string(o.Status),
			o.ClientID,
			o.SupplierID,
			o.TotalAmount.StringFixed(2),
			o.DeliveryAddress,
			deref(o.TrackingNumber),
			o.CreatedAt.UTC().Format(time.RFC3339),
			formatTime(o.CompletedAt),
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(OrdersSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(orderHeaders))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(OrdersSheet, "A", last, 20); err != nil {
		return err
	}
	return f.Write(w)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
