package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/lifecycle"
	"marketplace/models"
)

func setupMockDB(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStorage(sqlx.NewDb(db, "postgres")), mock
}

var rfqCols = []string{"id", "client_id", "title", "description", "status", "deadline", "version", "created_at", "updated_at"}

func TestAtomic_CommitsRFQWithLines(t *testing.T) {
	s, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO rfqs`).
		WithArgs("rfq-1", "client-1", "Office Supplies", nil, models.RFQOpen, nil, 1, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO rfq_items .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\), \(\$7, \$8, \$9, \$10, \$11, \$12\)`).
		WithArgs("l1", "rfq-1", "item-a", 10, nil, now, "l2", "rfq-1", "item-b", 5, nil, now).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := s.Atomic(context.Background(), func(tx lifecycle.Tx) error {
		if err := tx.CreateRFQ(context.Background(), &models.RFQ{
			ID: "rfq-1", ClientID: "client-1", Title: "Office Supplies",
			Status: models.RFQOpen, Version: 1, CreatedAt: now,
		}); err != nil {
			return err
		}
		return tx.CreateRFQItems(context.Background(), []models.RFQItem{
			{ID: "l1", RFQID: "rfq-1", ItemID: "item-a", Quantity: 10, CreatedAt: now},
			{ID: "l2", RFQID: "rfq-1", ItemID: "item-b", Quantity: 5, CreatedAt: now},
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAtomic_RollsBackOnFailure(t *testing.T) {
	s, mock := setupMockDB(t)
	boom := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO rfqs`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO rfq_items`).WillReturnError(boom)
	mock.ExpectRollback()

	err := s.Atomic(context.Background(), func(tx lifecycle.Tx) error {
		if err := tx.CreateRFQ(context.Background(), &models.RFQ{ID: "rfq-1"}); err != nil {
			return err
		}
		return tx.CreateRFQItems(context.Background(), []models.RFQItem{{ID: "l1", RFQID: "rfq-1"}})
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAtomic_NestedReusesTransaction(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE rfqs`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Atomic(context.Background(), func(tx lifecycle.Tx) error {
		inner := tx.(*Storage)
		return inner.Atomic(context.Background(), func(tx lifecycle.Tx) error {
			_, err := tx.SetRFQStatus(context.Background(), "rfq-1",
				[]models.RFQStatus{models.RFQOpen}, models.RFQCancelled)
			return err
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRFQ(t *testing.T) {
	s, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM rfqs r WHERE r.id = \$1 FOR UPDATE`).
		WithArgs("rfq-1").
		WillReturnRows(sqlmock.NewRows(rfqCols).
			AddRow("rfq-1", "client-1", "Office Supplies", nil, "quoted", nil, 2, now, now))

	rfq, err := s.GetRFQ(context.Background(), "rfq-1", true)
	require.NoError(t, err)
	assert.Equal(t, models.RFQQuoted, rfq.Status)
	assert.Equal(t, 2, rfq.Version)
	assert.Nil(t, rfq.Deadline)

	mock.ExpectQuery(`SELECT .* FROM rfqs r WHERE r.id = \$1$`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = s.GetRFQ(context.Background(), "missing", false)
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRFQStatus_Guarded(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(`UPDATE rfqs SET status = \$2, version = version \+ 1`).
		WithArgs("rfq-1", models.RFQClosed, pq.Array([]string{"open", "quoted"})).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.SetRFQStatus(context.Background(), "rfq-1",
		[]models.RFQStatus{models.RFQOpen, models.RFQQuoted}, models.RFQClosed)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateQuote_DuplicateSupplier(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO quotes`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: uniqueQuotePerSupplier})

	err := s.CreateQuote(context.Background(), &models.Quote{
		ID: "q-1", RFQID: "rfq-1", SupplierID: "supplier-1",
		TotalPrice: decimal.RequireFromString("35.00"), Status: models.QuotePending,
	})
	assert.ErrorIs(t, err, lifecycle.ErrDuplicateQuote)
	assert.ErrorIs(t, err, lifecycle.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, lifecycle.ErrNotFound},
		{"unique", &pq.Error{Code: "23505", Constraint: "orders_rfq_id_key"}, lifecycle.ErrConflict},
		{"foreign key", &pq.Error{Code: "23503", Constraint: "rfq_items_item_id_fkey"}, lifecycle.ErrConflict},
		{"check", &pq.Error{Code: "23514"}, lifecycle.ErrConflict},
		{"malformed uuid", &pq.Error{Code: "22P02"}, lifecycle.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.in), tt.want)
		})
	}
	assert.Nil(t, mapError(nil))

	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
}

func TestListOpenRFQsWithItems(t *testing.T) {
	s, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM rfqs r WHERE r.status = \$1 AND EXISTS`).
		WithArgs(models.RFQOpen, pq.Array([]string{"item-a"})).
		WillReturnRows(sqlmock.NewRows(rfqCols).
			AddRow("rfq-2", "client-1", "Second", nil, "open", nil, 1, now, now).
			AddRow("rfq-1", "client-1", "First", nil, "open", nil, 1, now, now))
	mock.ExpectQuery(`FROM rfq_items ri JOIN items i ON i.id = ri.item_id WHERE ri.rfq_id = ANY`).
		WithArgs(pq.Array([]string{"rfq-2", "rfq-1"})).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "rfq_id", "item_id", "quantity", "notes", "created_at", "item_supplier_id", "item_name", "item_unit",
		}).
			AddRow("l1", "rfq-1", "item-a", 10, nil, now, "supplier-1", "Paper", "box").
			AddRow("l2", "rfq-1", "item-c", 1, nil, now, "supplier-2", "Chairs", "piece"))

	rfqs, err := s.ListOpenRFQsWithItems(context.Background(), []string{"item-a"})
	require.NoError(t, err)
	require.Len(t, rfqs, 2)
	assert.Equal(t, "rfq-2", rfqs[0].ID)
	assert.Empty(t, rfqs[0].Items)
	require.Len(t, rfqs[1].Items, 2)
	assert.Equal(t, "supplier-2", rfqs[1].Items[1].ItemSupplierID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListApprovedItems_Filters(t *testing.T) {
	s, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery(`calculate_margin_price\(i.cost_price, i.category_id\) AS client_price FROM items i WHERE i.status = \$1 AND i.category_id = \$2 AND \(i.name ILIKE \$3 OR i.description ILIKE \$3\) ORDER BY i.created_at DESC LIMIT \$4 OFFSET \$5`).
		WithArgs(models.ItemApproved, "cat-1", "%paper%", 5, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "supplier_id", "category_id", "subcategory_id", "name", "description", "unit",
			"cost_price", "images", "status", "approved_by", "approved_at", "created_at", "updated_at", "client_price",
		}).AddRow("item-a", "supplier-1", "cat-1", nil, "Paper", nil, "box",
			"10.00", "{}", "approved", nil, nil, now, now, "11.50"))

	items, err := s.ListApprovedItems(context.Background(), CatalogFilter{CategoryID: "cat-1", Search: "paper"}, 5, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].ClientPrice.Valid)
	assert.Equal(t, "11.50", items[0].ClientPrice.Decimal.StringFixed(2))
	assert.Empty(t, items[0].Images)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListApprovedItems_SearchMatchesLiterally(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery(`FROM items i WHERE i.status = \$1 AND \(i.name ILIKE \$2 OR i.description ILIKE \$2\)`).
		WithArgs(models.ItemApproved, `%50\%\_off\\%`, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, err := s.ListApprovedItems(context.Background(), CatalogFilter{Search: `50%_off\`}, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder_MalformedID(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery(`FROM orders WHERE id = \$1`).
		WithArgs("not-a-uuid").
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "not-a-uuid"`})

	_, err := s.GetOrder(context.Background(), "not-a-uuid", false)
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteItem(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(`DELETE FROM items`).
		WithArgs("item-a", "supplier-1").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "rfq_items_item_id_fkey"})
	err := s.DeleteItem(context.Background(), "item-a", "supplier-1")
	assert.ErrorIs(t, err, lifecycle.ErrConflict)

	mock.ExpectExec(`DELETE FROM items`).
		WithArgs("item-x", "supplier-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = s.DeleteItem(context.Background(), "item-x", "supplier-1")
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatus(t *testing.T) {
	s, mock := setupMockDB(t)
	now := time.Now()
	tracking := "TRK123"

	mock.ExpectExec(`UPDATE orders SET status = \$2, tracking_number = \$3`).
		WithArgs("o-1", models.OrderShipped, &tracking, nil, now, models.OrderConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := s.UpdateOrderStatus(context.Background(), &models.Order{
		ID: "o-1", Status: models.OrderShipped, TrackingNumber: &tracking, UpdatedAt: now,
	}, models.OrderConfirmed)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkNotificationRead_OtherUser(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(`UPDATE notifications SET read = TRUE`).
		WithArgs("n-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.MarkNotificationRead(context.Background(), "n-1", "user-2")
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
