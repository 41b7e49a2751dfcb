package db

import (
	"context"

	"github.com/lib/pq"

	"marketplace/models"
)

// Заказы

const orderColumns = `id, order_number, rfq_id, quote_id, client_id, supplier_id, total_amount,
        delivery_address, status, tracking_number, completed_at, version, created_at, updated_at`

func (s *Storage) CreateOrder(ctx context.Context, o *models.Order) error {
	query := `
        INSERT INTO orders
            (id, order_number, rfq_id, quote_id, client_id, supplier_id, total_amount,
             delivery_address, status, version, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	_, err := s.exec(ctx, query,
		o.ID, o.OrderNumber, o.RFQID, o.QuoteID, o.ClientID, o.SupplierID, o.TotalAmount,
		o.DeliveryAddress, o.Status, o.Version, o.CreatedAt)
	return err
}

func (s *Storage) GetOrder(ctx context.Context, id string, lock bool) (*models.Order, error) {
	o := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1` + forUpdate(lock)
	if err := s.get(ctx, o, query, id); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateOrderStatus writes the new status, tracking number and completion
// time of o only while the stored status still equals from.
func (s *Storage) UpdateOrderStatus(ctx context.Context, o *models.Order, from models.OrderStatus) (bool, error) {
	query := `
        UPDATE orders
        SET status = $2, tracking_number = $3, completed_at = $4, version = version + 1, updated_at = $5
        WHERE id = $1 AND status = $6`
	n, err := s.exec(ctx, query, o.ID, o.Status, o.TrackingNumber, o.CompletedAt, o.UpdatedAt, from)
	return n > 0, err
}

func (s *Storage) AddOrderStatusChange(ctx context.Context, c *models.OrderStatusChange) error {
	query := `
        INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`
	return mapError(s.q.QueryRowxContext(ctx, query, c.OrderID, c.FromStatus, c.ToStatus, c.ChangedBy, c.CreatedAt).
		Scan(&c.ID))
}

func (s *Storage) ListOrderHistory(ctx context.Context, orderID string) ([]models.OrderStatusChange, error) {
	history := []models.OrderStatusChange{}
	query := `
        SELECT id, order_id, from_status, to_status, changed_by, created_at
        FROM order_status_history
        WHERE order_id = $1
        ORDER BY id ASC`
	if err := s.sel(ctx, &history, query, orderID); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *Storage) IncrementOrderCounters(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := s.exec(ctx,
		`UPDATE user_profiles SET total_orders = total_orders + 1 WHERE id = ANY($1::uuid[])`,
		pq.Array(userIDs))
	return err
}

// ListOrdersForUser returns the orders where the user is the client or the
// supplier, newest first.
func (s *Storage) ListOrdersForUser(ctx context.Context, user *models.UserProfile, limit, offset int) ([]models.Order, error) {
	column := "client_id"
	if user.Role == models.RoleSupplier {
		column = "supplier_id"
	}
	orders := []models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + column + ` = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	if err := s.sel(ctx, &orders, query, user.ID, limit, offset); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAllOrders returns every order, newest first. A limit of zero or less
// returns all rows.
func (s *Storage) ListAllOrders(ctx context.Context, status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	var w whereClause
	if status != "" {
		w.add("status = $%d", status)
	}
	query := `SELECT ` + orderColumns + ` FROM orders` + w.String() + ` ORDER BY created_at DESC`
	if limit > 0 {
		query += w.page(limit, offset)
	}
	orders := []models.Order{}
	if err := s.sel(ctx, &orders, query, w.args...); err != nil {
		return nil, err
	}
	return orders, nil
}

// Отзывы

func (s *Storage) CreateRating(ctx context.Context, r *models.Rating) error {
	query := `
        INSERT INTO ratings (id, order_id, supplier_id, client_id, score, review, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.exec(ctx, query, r.ID, r.OrderID, r.SupplierID, r.ClientID, r.Score, r.Review, r.CreatedAt)
	return err
}

// RefreshSupplierRating recomputes the supplier's average score.
func (s *Storage) RefreshSupplierRating(ctx context.Context, supplierID string) error {
	query := `
        UPDATE user_profiles
        SET rating = COALESCE((SELECT ROUND(AVG(score)::numeric, 2) FROM ratings WHERE supplier_id = $1), 0)
        WHERE id = $1`
	_, err := s.exec(ctx, query, supplierID)
	return err
}

func (s *Storage) ListSupplierRatings(ctx context.Context, supplierID string, limit, offset int) ([]models.Rating, error) {
	ratings := []models.Rating{}
	query := `
        SELECT id, order_id, supplier_id, client_id, score, review, created_at
        FROM ratings
        WHERE supplier_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	if err := s.sel(ctx, &ratings, query, supplierID, limit, offset); err != nil {
		return nil, err
	}
	return ratings, nil
}
