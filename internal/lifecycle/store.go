package lifecycle

import (
	"context"
	"time"

	"marketplace/models"
)

// Tx is the set of persistence calls the procurement lifecycle needs.
// Lookups by id return ErrNotFound when the row does not exist; the
// Set*/Update* calls report false when the guarded status did not match.
type Tx interface {
	GetItems(ctx context.Context, ids []string) ([]models.Item, error)
	ApprovedItemIDs(ctx context.Context, supplierID string) ([]string, error)

	CreateRFQ(ctx context.Context, rfq *models.RFQ) error
	CreateRFQItems(ctx context.Context, items []models.RFQItem) error
	GetRFQ(ctx context.Context, id string, lock bool) (*models.RFQ, error)
	ListRFQItems(ctx context.Context, rfqID string) ([]models.RFQItem, error)
	SetRFQStatus(ctx context.Context, id string, from []models.RFQStatus, to models.RFQStatus) (bool, error)
	ListOpenRFQsWithItems(ctx context.Context, itemIDs []string) ([]models.RFQ, error)
	QuotedRFQIDs(ctx context.Context, supplierID string) ([]string, error)

	CreateQuote(ctx context.Context, q *models.Quote) error
	CreateQuoteItems(ctx context.Context, items []models.QuoteItem) error
	GetQuote(ctx context.Context, id string, lock bool) (*models.Quote, error)
	ListQuotes(ctx context.Context, rfqID string) ([]models.Quote, error)
	ListQuoteItems(ctx context.Context, quoteID string) ([]models.QuoteItem, error)
	SetQuoteStatus(ctx context.Context, id string, from, to models.QuoteStatus) (bool, error)
	RejectQuotes(ctx context.Context, ids []string) (int64, error)

	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string, lock bool) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, o *models.Order, from models.OrderStatus) (bool, error)
	AddOrderStatusChange(ctx context.Context, c *models.OrderStatusChange) error
	IncrementOrderCounters(ctx context.Context, userIDs ...string) error

	CreateRating(ctx context.Context, r *models.Rating) error
	RefreshSupplierRating(ctx context.Context, supplierID string) error

	ExpireRFQs(ctx context.Context, now time.Time) (int64, error)
	ExpireQuotes(ctx context.Context, now time.Time) (int64, error)
}

// Store runs fn inside a single transaction. Any error returned by fn rolls
// every write back.
type Store interface {
	Tx
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Notifier delivers a message to a user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}
