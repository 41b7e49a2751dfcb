package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"marketplace/models"
)

type ExpiryResult struct {
	RFQs   int64 `json:"rfqs"`
	Quotes int64 `json:"quotes"`
}

// ExpireStale marks open or quoted RFQs past their deadline and pending
// quotes past their validity as expired.
func (s *Service) ExpireStale(ctx context.Context, actor *models.UserProfile) (ExpiryResult, error) {
	var res ExpiryResult
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return res, err
	}
	now := s.now()
	err := s.store.Atomic(ctx, func(tx Tx) error {
		var err error
		if res.RFQs, err = tx.ExpireRFQs(ctx, now); err != nil {
			return err
		}
		res.Quotes, err = tx.ExpireQuotes(ctx, now)
		return err
	})
	if err != nil {
		return ExpiryResult{}, err
	}
	s.log.Info("expired stale records", zap.Int64("rfqs", res.RFQs), zap.Int64("quotes", res.Quotes))
	return res, nil
}
