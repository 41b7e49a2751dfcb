package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketplace/models"
)

const maxTitleLen = 200

// Line is one requested item of a new RFQ.
type Line struct {
	ItemID   string  `json:"itemId"`
	Quantity int     `json:"quantity"`
	Notes    *string `json:"notes,omitempty"`
}

type NewRFQ struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Lines       []Line     `json:"lines"`
}

func validateNewRFQ(in *NewRFQ, now time.Time) error {
	var ve ValidationErrors
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		ve.Add("title", "is required")
	} else if len(in.Title) > maxTitleLen {
		ve.Add("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
	}
	if in.Deadline != nil && !in.Deadline.After(now) {
		ve.Add("deadline", "must be in the future")
	}
	if len(in.Lines) == 0 {
		ve.Add("lines", "at least one item is required")
	}
	seen := make(map[string]bool, len(in.Lines))
	for i, l := range in.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if l.ItemID == "" {
			ve.Add(field+".itemId", "is required")
			continue
		}
		if seen[l.ItemID] {
			ve.Add(field+".itemId", "item listed twice")
		}
		seen[l.ItemID] = true
		if l.Quantity <= 0 {
			ve.Add(field+".quantity", "must be greater than zero")
		}
	}
	return ve.errOrNil()
}

// CreateRFQ stores an RFQ and all of its lines atomically.
func (s *Service) CreateRFQ(ctx context.Context, actor *models.UserProfile, in NewRFQ) (*models.RFQ, error) {
	if err := requireRole(actor, models.RoleClient); err != nil {
		return nil, err
	}
	now := s.now()
	if err := validateNewRFQ(&in, now); err != nil {
		return nil, err
	}

	rfq := &models.RFQ{
		ID:          s.newID(),
		ClientID:    actor.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      models.RFQOpen,
		Deadline:    in.Deadline,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.Atomic(ctx, func(tx Tx) error {
		ids := make([]string, len(in.Lines))
		for i, l := range in.Lines {
			ids[i] = l.ItemID
		}
		items, err := tx.GetItems(ctx, ids)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		byID := make(map[string]models.Item, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		var ve ValidationErrors
		for i, id := range ids {
			it, ok := byID[id]
			switch {
			case !ok:
				ve.Add(fmt.Sprintf("lines[%d].itemId", i), "unknown item")
			case it.Status != models.ItemApproved:
				ve.Add(fmt.Sprintf("lines[%d].itemId", i), "item is not available")
			}
		}
		if err := ve.errOrNil(); err != nil {
			return err
		}

		if err := tx.CreateRFQ(ctx, rfq); err != nil {
			return fmt.Errorf("insert rfq: %w", err)
		}
		lines := make([]models.RFQItem, len(in.Lines))
		for i, l := range in.Lines {
			it := byID[l.ItemID]
			lines[i] = models.RFQItem{
				ID:             s.newID(),
				RFQID:          rfq.ID,
				ItemID:         l.ItemID,
				Quantity:       l.Quantity,
				Notes:          l.Notes,
				CreatedAt:      now,
				ItemSupplierID: it.SupplierID,
				ItemName:       it.Name,
				ItemUnit:       it.Unit,
			}
		}
		if err := tx.CreateRFQItems(ctx, lines); err != nil {
			return fmt.Errorf("insert rfq items: %w", err)
		}
		rfq.Items = lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rfq created",
		zap.String("rfq_id", rfq.ID),
		zap.String("client_id", actor.ID),
		zap.Int("lines", len(rfq.Items)))
	return rfq, nil
}

// CancelRFQ withdraws an open RFQ. Only its owner may cancel it.
func (s *Service) CancelRFQ(ctx context.Context, actor *models.UserProfile, rfqID string) (*models.RFQ, error) {
	if err := requireRole(actor, models.RoleClient); err != nil {
		return nil, err
	}
	var rfq *models.RFQ
	err := s.store.Atomic(ctx, func(tx Tx) error {
		var err error
		rfq, err = tx.GetRFQ(ctx, rfqID, true)
		if err != nil {
			return err
		}
		if rfq.ClientID != actor.ID {
			return forbiddenf("rfq belongs to another client")
		}
		if rfq.Status != models.RFQOpen {
			return conflictf("rfq is %s", rfq.Status)
		}
		ok, err := tx.SetRFQStatus(ctx, rfq.ID, []models.RFQStatus{models.RFQOpen}, models.RFQCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return conflictf("rfq changed concurrently")
		}
		rfq.Status = models.RFQCancelled
		rfq.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("rfq cancelled", zap.String("rfq_id", rfq.ID))
	return rfq, nil
}

// GetRFQ returns an RFQ with its lines and every quote (including quote
// lines). Visible to the owning client and to admins.
func (s *Service) GetRFQ(ctx context.Context, actor *models.UserProfile, rfqID string) (*models.RFQ, error) {
	if err := requireRole(actor, models.RoleClient, models.RoleAdmin); err != nil {
		return nil, err
	}
	rfq, err := s.store.GetRFQ(ctx, rfqID, false)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleClient && rfq.ClientID != actor.ID {
		return nil, forbiddenf("rfq belongs to another client")
	}
	if rfq.Items, err = s.store.ListRFQItems(ctx, rfq.ID); err != nil {
		return nil, err
	}
	if rfq.Quotes, err = s.store.ListQuotes(ctx, rfq.ID); err != nil {
		return nil, err
	}
	for i := range rfq.Quotes {
		if rfq.Quotes[i].Items, err = s.store.ListQuoteItems(ctx, rfq.Quotes[i].ID); err != nil {
			return nil, err
		}
	}
	return rfq, nil
}
