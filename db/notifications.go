package db

import (
	"context"

	"marketplace/models"
)

func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
        INSERT INTO notifications (id, user_id, type, title, message, link, read, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.exec(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Message, n.Link, n.Read, n.CreatedAt)
	return err
}

func (s *Storage) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	var w whereClause
	w.add("user_id = $%d", userID)
	if unreadOnly {
		w.add("read = $%d", false)
	}
	query := `SELECT id, user_id, type, title, message, link, read, created_at FROM notifications` +
		w.String() + ` ORDER BY created_at DESC` + w.page(limit, offset)
	list := []models.Notification{}
	if err := s.sel(ctx, &list, query, w.args...); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkNotificationRead flags one of the user's notifications as read.
func (s *Storage) MarkNotificationRead(ctx context.Context, id, userID string) error {
	n, err := s.exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return notFoundIfZero(n)
}
