package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"marketplace/models"
)

// AcceptQuote turns a pending quote into an order. In one transaction the
// quote is accepted, its siblings are rejected, the RFQ is closed and the
// order is created, so afterwards exactly one quote per RFQ is accepted and
// exactly one order references the RFQ.
func (s *Service) AcceptQuote(ctx context.Context, actor *models.UserProfile, quoteID, deliveryAddress string) (*models.Order, error) {
	if err := requireRole(actor, models.RoleClient); err != nil {
		return nil, err
	}
	now := s.now()
	var (
		order    *models.Order
		rfq      *models.RFQ
		rejected []models.Quote
	)
	err := s.store.Atomic(ctx, func(tx Tx) error {
		quote, err := tx.GetQuote(ctx, quoteID, true)
		if err != nil {
			return err
		}
		rfq, err = tx.GetRFQ(ctx, quote.RFQID, true)
		if err != nil {
			return err
		}
		if rfq.ClientID != actor.ID {
			return forbiddenf("rfq belongs to another client")
		}
		if rfq.Status != models.RFQOpen && rfq.Status != models.RFQQuoted {
			return conflictf("rfq is %s", rfq.Status)
		}
		if quote.Status != models.QuotePending {
			return conflictf("quote is %s", quote.Status)
		}
		if !now.Before(quote.ValidUntil) {
			return conflictf("quote expired")
		}

		ok, err := tx.SetQuoteStatus(ctx, quote.ID, models.QuotePending, models.QuoteAccepted)
		if err != nil {
			return fmt.Errorf("accept quote: %w", err)
		}
		if !ok {
			return conflictf("quote changed concurrently")
		}

		siblings, err := tx.ListQuotes(ctx, rfq.ID)
		if err != nil {
			return err
		}
		var ids []string
		for _, q := range siblings {
			if q.ID != quote.ID && q.Status == models.QuotePending {
				ids = append(ids, q.ID)
				rejected = append(rejected, q)
			}
		}
		if len(ids) > 0 {
			if _, err := tx.RejectQuotes(ctx, ids); err != nil {
				return fmt.Errorf("reject sibling quotes: %w", err)
			}
		}

		ok, err = tx.SetRFQStatus(ctx, rfq.ID,
			[]models.RFQStatus{models.RFQOpen, models.RFQQuoted}, models.RFQClosed)
		if err != nil {
			return fmt.Errorf("close rfq: %w", err)
		}
		if !ok {
			return conflictf("rfq changed concurrently")
		}

		order = &models.Order{
			ID:              s.newID(),
			OrderNumber:     orderNumber(now.Format("20060102"), s.newID()),
			RFQID:           rfq.ID,
			QuoteID:         quote.ID,
			ClientID:        rfq.ClientID,
			SupplierID:      quote.SupplierID,
			TotalAmount:     quote.TotalPrice,
			DeliveryAddress: strings.TrimSpace(deliveryAddress),
			Status:          models.OrderPending,
			Version:         1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return tx.IncrementOrderCounters(ctx, order.ClientID, order.SupplierID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quote accepted",
		zap.String("quote_id", order.QuoteID),
		zap.String("rfq_id", order.RFQID),
		zap.String("order_id", order.ID),
		zap.Int("rejected", len(rejected)))
	s.notify(ctx, order.SupplierID, "quote_accepted", "Quote accepted",
		fmt.Sprintf("Your quote for %q was accepted. Order %s was created.", rfq.Title, order.OrderNumber),
		"/orders/"+order.ID)
	for _, q := range rejected {
		s.notify(ctx, q.SupplierID, "quote_rejected", "Quote not selected",
			fmt.Sprintf("Another quote was selected for %q.", rfq.Title), "")
	}
	return order, nil
}

func orderNumber(day, id string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return "ORD-" + day + "-" + suffix
}
