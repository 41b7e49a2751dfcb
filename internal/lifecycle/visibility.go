package lifecycle

import (
	"context"

	"marketplace/models"
)

// CoverageFilter keeps the open RFQs a supplier may quote on: at least one
// line is one of the supplier's approved items, every line is supplied by
// the supplier, and the supplier has not quoted it yet. Input order is kept.
func CoverageFilter(rfqs []models.RFQ, supplierID string, approvedItemIDs, quotedRFQIDs []string) []models.RFQ {
	approved := make(map[string]bool, len(approvedItemIDs))
	for _, id := range approvedItemIDs {
		approved[id] = true
	}
	quoted := make(map[string]bool, len(quotedRFQIDs))
	for _, id := range quotedRFQIDs {
		quoted[id] = true
	}

	out := make([]models.RFQ, 0, len(rfqs))
	for _, rfq := range rfqs {
		if rfq.Status != models.RFQOpen || quoted[rfq.ID] || len(rfq.Items) == 0 {
			continue
		}
		matches, allMine := false, true
		for _, it := range rfq.Items {
			if it.ItemSupplierID != supplierID {
				allMine = false
				break
			}
			if approved[it.ItemID] {
				matches = true
			}
		}
		if matches && allMine {
			out = append(out, rfq)
		}
	}
	return out
}

// SupplierOpportunities lists the RFQs the supplier can quote on right now.
// Nothing is cached; every call re-reads the supplier's approved items.
func (s *Service) SupplierOpportunities(ctx context.Context, actor *models.UserProfile) ([]models.RFQ, error) {
	if err := requireRole(actor, models.RoleSupplier); err != nil {
		return nil, err
	}
	itemIDs, err := s.store.ApprovedItemIDs(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return []models.RFQ{}, nil
	}
	candidates, err := s.store.ListOpenRFQsWithItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	quoted, err := s.store.QuotedRFQIDs(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return CoverageFilter(candidates, actor.ID, itemIDs, quoted), nil
}
