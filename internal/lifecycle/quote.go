package lifecycle

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"marketplace/models"
)

// QuoteLine prices one RFQ line.
type QuoteLine struct {
	RFQItemID string          `json:"rfqItemId"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type NewQuote struct {
	Lines        []QuoteLine `json:"lines"`
	Notes        *string     `json:"notes,omitempty"`
	DeliveryDays int         `json:"deliveryDays"`
}

// priceLines matches submitted prices against the RFQ lines. Every RFQ line
// must be priced exactly once and nothing else may be priced.
func priceLines(rfqItems []models.RFQItem, in NewQuote) ([]PricedLine, error) {
	var ve ValidationErrors
	if in.DeliveryDays < 0 {
		ve.Add("deliveryDays", "must not be negative")
	}
	if len(in.Lines) == 0 {
		ve.Add("lines", "at least one price is required")
	}
	byLine := make(map[string]models.RFQItem, len(rfqItems))
	for _, it := range rfqItems {
		byLine[it.ID] = it
	}
	priced := make(map[string]bool, len(in.Lines))
	out := make([]PricedLine, 0, len(in.Lines))
	for i, l := range in.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		it, ok := byLine[l.RFQItemID]
		if !ok {
			ve.Add(field+".rfqItemId", "not a line of this rfq")
			continue
		}
		if priced[l.RFQItemID] {
			ve.Add(field+".rfqItemId", "line priced twice")
			continue
		}
		priced[l.RFQItemID] = true
		if !l.UnitPrice.IsPositive() {
			ve.Add(field+".unitPrice", "must be greater than zero")
			continue
		}
		out = append(out, PricedLine{UnitPrice: l.UnitPrice, Quantity: it.Quantity})
	}
	for _, it := range rfqItems {
		if !priced[it.ID] {
			ve.Add("lines", fmt.Sprintf("missing price for line %s", it.ID))
		}
	}
	if !ve.HasErrors() && !QuoteTotal(out).IsPositive() {
		ve.Add("lines", "quote total must be at least 0.01")
	}
	if err := ve.errOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitQuote records a supplier's priced answer to an open RFQ and moves the
// RFQ to quoted. The RFQ row is locked so a concurrent cancel or a second
// submission by the same supplier cannot interleave.
func (s *Service) SubmitQuote(ctx context.Context, actor *models.UserProfile, rfqID string, in NewQuote) (*models.Quote, error) {
	if err := requireRole(actor, models.RoleSupplier); err != nil {
		return nil, err
	}
	now := s.now()
	var (
		quote *models.Quote
		rfq   *models.RFQ
	)
	err := s.store.Atomic(ctx, func(tx Tx) error {
		var err error
		rfq, err = tx.GetRFQ(ctx, rfqID, true)
		if err != nil {
			return err
		}
		if rfq.Status != models.RFQOpen {
			return conflictf("rfq is %s", rfq.Status)
		}
		if rfq.Deadline != nil && !now.Before(*rfq.Deadline) {
			return conflictf("rfq deadline has passed")
		}
		items, err := tx.ListRFQItems(ctx, rfq.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return conflictf("rfq has no lines")
		}
		for _, it := range items {
			if it.ItemSupplierID != actor.ID {
				return forbiddenf("rfq requests items of another supplier")
			}
		}
		existing, err := tx.ListQuotes(ctx, rfq.ID)
		if err != nil {
			return err
		}
		for _, q := range existing {
			if q.SupplierID == actor.ID {
				return ErrDuplicateQuote
			}
		}

		priced, err := priceLines(items, in)
		if err != nil {
			return err
		}

		quote = &models.Quote{
			ID:           s.newID(),
			RFQID:        rfq.ID,
			SupplierID:   actor.ID,
			TotalPrice:   QuoteTotal(priced),
			DeliveryDays: in.DeliveryDays,
			Notes:        in.Notes,
			Status:       models.QuotePending,
			ValidUntil:   now.Add(s.cfg.QuoteValidity),
			Version:      1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.CreateQuote(ctx, quote); err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}
		quote.Items = make([]models.QuoteItem, len(in.Lines))
		for i, l := range in.Lines {
			quote.Items[i] = models.QuoteItem{
				ID:        s.newID(),
				QuoteID:   quote.ID,
				RFQItemID: l.RFQItemID,
				UnitPrice: l.UnitPrice,
				CreatedAt: now,
			}
		}
		if err := tx.CreateQuoteItems(ctx, quote.Items); err != nil {
			return fmt.Errorf("insert quote items: %w", err)
		}

		ok, err := tx.SetRFQStatus(ctx, rfq.ID, []models.RFQStatus{models.RFQOpen}, models.RFQQuoted)
		if err != nil {
			return fmt.Errorf("mark rfq quoted: %w", err)
		}
		if !ok {
			return conflictf("rfq changed concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quote submitted",
		zap.String("quote_id", quote.ID),
		zap.String("rfq_id", rfq.ID),
		zap.String("supplier_id", actor.ID),
		zap.String("total", quote.TotalPrice.StringFixed(2)))
	s.notify(ctx, rfq.ClientID, "quote_received", "New quote received",
		fmt.Sprintf("Your RFQ %q received a quote of %s.", rfq.Title, quote.TotalPrice.StringFixed(2)),
		"/rfqs/"+rfq.ID)
	return quote, nil
}
