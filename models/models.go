package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleClient   Role = "client"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

type UserStatus string

const (
	UserPending   UserStatus = "pending"
	UserApproved  UserStatus = "approved"
	UserRejected  UserStatus = "rejected"
	UserSuspended UserStatus = "suspended"
)

type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemApproved ItemStatus = "approved"
	ItemRejected ItemStatus = "rejected"
)

type RFQStatus string

const (
	RFQOpen      RFQStatus = "open"
	RFQQuoted    RFQStatus = "quoted"
	RFQClosed    RFQStatus = "closed"
	RFQCancelled RFQStatus = "cancelled"
	RFQExpired   RFQStatus = "expired"
)

type QuoteStatus string

const (
	QuotePending  QuoteStatus = "pending"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
	QuoteExpired  QuoteStatus = "expired"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// UserProfile is the marketplace identity of a signed-up user.
type UserProfile struct {
	ID           string          `db:"id" json:"id"`
	Role         Role            `db:"role" json:"role"`
	Status       UserStatus      `db:"status" json:"status"`
	DisplayName  string          `db:"display_name" json:"displayName"`
	RealName     string          `db:"real_name" json:"realName"`
	Email        string          `db:"email" json:"email"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Phone        *string         `db:"phone" json:"phone,omitempty"`
	CompanyName  *string         `db:"company_name" json:"companyName,omitempty"`
	Rating       decimal.Decimal `db:"rating" json:"rating"`
	TotalOrders  int             `db:"total_orders" json:"totalOrders"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	ApprovedAt   *time.Time      `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovedBy   *string         `db:"approved_by" json:"approvedBy,omitempty"`
}

// Approved reports whether the profile may use role-specific features.
func (u *UserProfile) Approved() bool {
	return u != nil && u.Status == UserApproved
}

type Category struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	Slug          string        `db:"slug" json:"slug"`
	Description   *string       `db:"description" json:"description,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	Subcategories []Subcategory `db:"-" json:"subcategories"`
}

type Subcategory struct {
	ID          string    `db:"id" json:"id"`
	CategoryID  string    `db:"category_id" json:"categoryId"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Item is a supplier product. Only approved items are visible in the catalog.
type Item struct {
	ID            string              `db:"id" json:"id"`
	SupplierID    string              `db:"supplier_id" json:"supplierId"`
	CategoryID    string              `db:"category_id" json:"categoryId"`
	SubcategoryID *string             `db:"subcategory_id" json:"subcategoryId,omitempty"`
	Name          string              `db:"name" json:"name"`
	Description   *string             `db:"description" json:"description,omitempty"`
	Unit          string              `db:"unit" json:"unit"`
	CostPrice     decimal.Decimal     `db:"cost_price" json:"costPrice"`
	ClientPrice   decimal.NullDecimal `db:"client_price" json:"clientPrice,omitempty"`
	Images        pq.StringArray      `db:"images" json:"images"`
	Status        ItemStatus          `db:"status" json:"status"`
	ApprovedBy    *string             `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time          `db:"approved_at" json:"approvedAt,omitempty"`
	CreatedAt     time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updatedAt"`
}

// MarginRule converts a supplier cost price into a client-facing price.
// A nil CategoryID makes the rule global.
type MarginRule struct {
	ID               string          `db:"id" json:"id"`
	CategoryID       *string         `db:"category_id" json:"categoryId,omitempty"`
	MarginPercentage decimal.Decimal `db:"margin_percentage" json:"marginPercentage"`
	Priority         int             `db:"priority" json:"priority"`
	Active           bool            `db:"active" json:"active"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updatedAt"`
}

type RFQ struct {
	ID          string     `db:"id" json:"id"`
	ClientID    string     `db:"client_id" json:"clientId"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      RFQStatus  `db:"status" json:"status"`
	Deadline    *time.Time `db:"deadline" json:"deadline,omitempty"`
	Version     int        `db:"version" json:"version"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	Items       []RFQItem  `db:"-" json:"items"`
	Quotes      []Quote    `db:"-" json:"quotes,omitempty"`
}

// RFQItem is one requested line. ItemSupplierID and ItemName are read from the
// referenced item and are not stored on the line.
type RFQItem struct {
	ID             string    `db:"id" json:"id"`
	RFQID          string    `db:"rfq_id" json:"rfqId"`
	ItemID         string    `db:"item_id" json:"itemId"`
	Quantity       int       `db:"quantity" json:"quantity"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	ItemSupplierID string    `db:"item_supplier_id" json:"-"`
	ItemName       string    `db:"item_name" json:"itemName,omitempty"`
	ItemUnit       string    `db:"item_unit" json:"itemUnit,omitempty"`
}

type Quote struct {
	ID           string          `db:"id" json:"id"`
	RFQID        string          `db:"rfq_id" json:"rfqId"`
	SupplierID   string          `db:"supplier_id" json:"supplierId"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"totalPrice"`
	DeliveryDays int             `db:"delivery_days" json:"deliveryDays"`
	Notes        *string         `db:"notes" json:"notes,omitempty"`
	Status       QuoteStatus     `db:"status" json:"status"`
	ValidUntil   time.Time       `db:"valid_until" json:"validUntil"`
	Version      int             `db:"version" json:"version"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
	Items        []QuoteItem     `db:"-" json:"items,omitempty"`
}

type QuoteItem struct {
	ID        string          `db:"id" json:"id"`
	QuoteID   string          `db:"quote_id" json:"quoteId"`
	RFQItemID string          `db:"rfq_item_id" json:"rfqItemId"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

type Order struct {
	ID              string          `db:"id" json:"id"`
	OrderNumber     string          `db:"order_number" json:"orderNumber"`
	RFQID           string          `db:"rfq_id" json:"rfqId"`
	QuoteID         string          `db:"quote_id" json:"quoteId"`
	ClientID        string          `db:"client_id" json:"clientId"`
	SupplierID      string          `db:"supplier_id" json:"supplierId"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"totalAmount"`
	DeliveryAddress string          `db:"delivery_address" json:"deliveryAddress"`
	Status          OrderStatus     `db:"status" json:"status"`
	TrackingNumber  *string         `db:"tracking_number" json:"trackingNumber,omitempty"`
	CompletedAt     *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
	Version         int             `db:"version" json:"version"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// OrderStatusChange is one entry of an order's transition history.
type OrderStatusChange struct {
	ID         int64       `db:"id" json:"id"`
	OrderID    string      `db:"order_id" json:"orderId"`
	FromStatus OrderStatus `db:"from_status" json:"fromStatus"`
	ToStatus   OrderStatus `db:"to_status" json:"toStatus"`
	ChangedBy  string      `db:"changed_by" json:"changedBy"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
}

type Rating struct {
	ID         string    `db:"id" json:"id"`
	OrderID    string    `db:"order_id" json:"orderId"`
	SupplierID string    `db:"supplier_id" json:"supplierId"`
	ClientID   string    `db:"client_id" json:"clientId"`
	Score      int       `db:"score" json:"score"`
	Review     *string   `db:"review" json:"review,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Link      *string   `db:"link" json:"link,omitempty"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
