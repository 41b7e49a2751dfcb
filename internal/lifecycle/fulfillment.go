package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"marketplace/models"
)

// orderTransitions lists the allowed next states of an order.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed:  {models.OrderProcessing, models.OrderShipped, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped},
	models.OrderShipped:    {models.OrderDelivered},
	models.OrderDelivered:  {models.OrderCompleted},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderUpdate is a requested order transition.
type OrderUpdate struct {
	To             models.OrderStatus
	TrackingNumber string
}

func mayTransition(actor *models.UserProfile, o *models.Order, to models.OrderStatus) error {
	if to == models.OrderCancelled {
		if actor.Role == models.RoleAdmin || actor.ID == o.ClientID || actor.ID == o.SupplierID {
			return nil
		}
		return forbiddenf("not a party to this order")
	}
	if actor.Role != models.RoleSupplier || actor.ID != o.SupplierID {
		return forbiddenf("only the order's supplier may move it to %s", to)
	}
	return nil
}

// TransitionOrder moves an order one step along its state machine and
// records the change in the order history.
func (s *Service) TransitionOrder(ctx context.Context, actor *models.UserProfile, orderID string, upd OrderUpdate) (*models.Order, error) {
	if err := requireRole(actor, models.RoleClient, models.RoleSupplier, models.RoleAdmin); err != nil {
		return nil, err
	}
	upd.TrackingNumber = strings.TrimSpace(upd.TrackingNumber)
	if upd.To == models.OrderShipped && upd.TrackingNumber == "" {
		var ve ValidationErrors
		ve.Add("trackingNumber", "is required to ship an order")
		return nil, &ve
	}

	now := s.now()
	var (
		order *models.Order
		from  models.OrderStatus
	)
	err := s.store.Atomic(ctx, func(tx Tx) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID, true)
		if err != nil {
			return err
		}
		if err := mayTransition(actor, order, upd.To); err != nil {
			return err
		}
		from = order.Status
		if !CanTransition(from, upd.To) {
			return conflictf("cannot move order from %s to %s", from, upd.To)
		}

		order.Status = upd.To
		order.UpdatedAt = now
		if upd.To == models.OrderShipped {
			tn := upd.TrackingNumber
			order.TrackingNumber = &tn
		}
		if upd.To == models.OrderCompleted {
			order.CompletedAt = &now
		}
		ok, err := tx.UpdateOrderStatus(ctx, order, from)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if !ok {
			return conflictf("order changed concurrently")
		}
		order.Version++
		return tx.AddOrderStatusChange(ctx, &models.OrderStatusChange{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   upd.To,
			ChangedBy:  actor.ID,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order transition",
		zap.String("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(order.Status)),
		zap.String("actor_id", actor.ID))

	recipient := order.ClientID
	if actor.ID == order.ClientID {
		recipient = order.SupplierID
	}
	msg := fmt.Sprintf("Order %s is now %s.", order.OrderNumber, order.Status)
	if order.TrackingNumber != nil && order.Status == models.OrderShipped {
		msg = fmt.Sprintf("Order %s shipped with tracking number %s.", order.OrderNumber, *order.TrackingNumber)
	}
	s.notify(ctx, recipient, "order_"+string(order.Status), "Order update", msg, "/orders/"+order.ID)
	if actor.Role == models.RoleAdmin {
		s.notify(ctx, order.SupplierID, "order_"+string(order.Status), "Order update", msg, "/orders/"+order.ID)
	}
	return order, nil
}

// GetOrder returns an order to one of its parties or to an admin.
func (s *Service) GetOrder(ctx context.Context, actor *models.UserProfile, orderID string) (*models.Order, error) {
	if err := requireRole(actor, models.RoleClient, models.RoleSupplier, models.RoleAdmin); err != nil {
		return nil, err
	}
	order, err := s.store.GetOrder(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && actor.ID != order.ClientID && actor.ID != order.SupplierID {
		return nil, forbiddenf("not a party to this order")
	}
	return order, nil
}

// RateOrder lets the client score the supplier of a completed order once.
func (s *Service) RateOrder(ctx context.Context, actor *models.UserProfile, orderID string, score int, review *string) (*models.Rating, error) {
	if err := requireRole(actor, models.RoleClient); err != nil {
		return nil, err
	}
	if score < 1 || score > 5 {
		var ve ValidationErrors
		ve.Add("score", "must be between 1 and 5")
		return nil, &ve
	}
	var rating *models.Rating
	err := s.store.Atomic(ctx, func(tx Tx) error {
		order, err := tx.GetOrder(ctx, orderID, true)
		if err != nil {
			return err
		}
		if order.ClientID != actor.ID {
			return forbiddenf("order belongs to another client")
		}
		if order.Status != models.OrderCompleted {
			return conflictf("order is %s", order.Status)
		}
		rating = &models.Rating{
			ID:         s.newID(),
			OrderID:    order.ID,
			SupplierID: order.SupplierID,
			ClientID:   order.ClientID,
			Score:      score,
			Review:     review,
			CreatedAt:  s.now(),
		}
		if err := tx.CreateRating(ctx, rating); err != nil {
			return err
		}
		return tx.RefreshSupplierRating(ctx, order.SupplierID)
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, rating.SupplierID, "rating_received", "New rating",
		fmt.Sprintf("A client rated an order %d/5.", score), "")
	return rating, nil
}
