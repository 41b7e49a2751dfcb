package handlers

import (
	"context"
	"time"

	"marketplace/db"
	"marketplace/internal/lifecycle"
	"marketplace/models"
)

// StorageInterface is the part of db.Storage the HTTP layer reads and writes
// directly. Lifecycle transitions go through Lifecycle instead.
type StorageInterface interface {
	Ping(ctx context.Context) error

	CreateProfile(ctx context.Context, p *models.UserProfile) error
	GetProfile(ctx context.Context, id string) (*models.UserProfile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, p *models.UserProfile) error
	ListProfiles(ctx context.Context, f db.ProfileFilter, limit, offset int) ([]models.UserProfile, error)
	SetProfileStatus(ctx context.Context, id string, status models.UserStatus, adminID string) (*models.UserProfile, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	ListApprovedItems(ctx context.Context, f db.CatalogFilter, limit, offset int) ([]models.Item, error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ListSupplierItems(ctx context.Context, supplierID string, limit, offset int) ([]models.Item, error)
	ListItems(ctx context.Context, status models.ItemStatus, limit, offset int) ([]models.Item, error)
	CreateItem(ctx context.Context, it *models.Item) error
	UpdateItem(ctx context.Context, it *models.Item) error
	DeleteItem(ctx context.Context, id, supplierID string) error
	SetItemStatus(ctx context.Context, id string, status models.ItemStatus, adminID string) (*models.Item, error)

	ListMarginRules(ctx context.Context) ([]models.MarginRule, error)
	CreateMarginRule(ctx context.Context, r *models.MarginRule) error
	UpdateMarginRule(ctx context.Context, r *models.MarginRule) error

	ListClientRFQs(ctx context.Context, clientID string, limit, offset int) ([]models.RFQ, error)
	ListSupplierQuotes(ctx context.Context, supplierID string, limit, offset int) ([]models.Quote, error)

	ListOrdersForUser(ctx context.Context, user *models.UserProfile, limit, offset int) ([]models.Order, error)
	ListAllOrders(ctx context.Context, status models.OrderStatus, limit, offset int) ([]models.Order, error)
	ListOrderHistory(ctx context.Context, orderID string) ([]models.OrderStatusChange, error)
	ListSupplierRatings(ctx context.Context, supplierID string, limit, offset int) ([]models.Rating, error)

	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
}

// Lifecycle is the procurement workflow implemented by lifecycle.Service.
type Lifecycle interface {
	CreateRFQ(ctx context.Context, actor *models.UserProfile, in lifecycle.NewRFQ) (*models.RFQ, error)
	CancelRFQ(ctx context.Context, actor *models.UserProfile, rfqID string) (*models.RFQ, error)
	GetRFQ(ctx context.Context, actor *models.UserProfile, rfqID string) (*models.RFQ, error)
	SubmitQuote(ctx context.Context, actor *models.UserProfile, rfqID string, in lifecycle.NewQuote) (*models.Quote, error)
	AcceptQuote(ctx context.Context, actor *models.UserProfile, quoteID, deliveryAddress string) (*models.Order, error)
	TransitionOrder(ctx context.Context, actor *models.UserProfile, orderID string, upd lifecycle.OrderUpdate) (*models.Order, error)
	GetOrder(ctx context.Context, actor *models.UserProfile, orderID string) (*models.Order, error)
	RateOrder(ctx context.Context, actor *models.UserProfile, orderID string, score int, review *string) (*models.Rating, error)
	SupplierOpportunities(ctx context.Context, actor *models.UserProfile) ([]models.RFQ, error)
	ExpireStale(ctx context.Context, actor *models.UserProfile) (lifecycle.ExpiryResult, error)
}

// SessionStore maps opaque tokens to user ids.
type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	Lookup(ctx context.Context, token string) (string, error)
	Destroy(ctx context.Context, token string) error
	TTL() time.Duration
}
