package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"marketplace/models"
)

func TestWriteOrdersXLSX(t *testing.T) {
	created := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	tracking := "TRK123"
	orders := []models.Order{
		{
			OrderNumber: "ORD-20260302-ABCDEF12", Status: models.OrderShipped,
			ClientID: "client-1", SupplierID: "supplier-1",
			TotalAmount: decimal.RequireFromString("35"), DeliveryAddress: "1 Main St",
			TrackingNumber: &tracking, CreatedAt: created,
		},
		{
			OrderNumber: "ORD-20260302-00000002", Status: models.OrderPending,
			ClientID: "client-2", SupplierID: "supplier-1",
			TotalAmount: decimal.RequireFromString("12.5"), CreatedAt: created,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOrdersXLSX(&buf, orders))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{OrdersSheet}, f.GetSheetList())
	rows, err := f.GetRows(OrdersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, orderHeaders, rows[0])
	assert.Equal(t, "ORD-20260302-ABCDEF12", rows[1][0])
	assert.Equal(t, "35.00", rows[1][4])
	assert.Equal(t, "TRK123", rows[1][6])
	assert.Equal(t, "2026-03-02T10:00:00Z", rows[1][7])
	assert.Equal(t, "12.50", rows[2][4])
}

func TestWriteOrdersXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrdersXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(OrdersSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
