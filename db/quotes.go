package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"marketplace/models"
)

// Котировки

const quoteColumns = `id, rfq_id, supplier_id, total_price, delivery_days, notes, status, valid_until,
        version, created_at, updated_at`

func (s *Storage) CreateQuote(ctx context.Context, q *models.Quote) error {
	query := `
        INSERT INTO quotes
            (id, rfq_id, supplier_id, total_price, delivery_days, notes, status, valid_until, version, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`
	_, err := s.exec(ctx, query,
		q.ID, q.RFQID, q.SupplierID, q.TotalPrice, q.DeliveryDays, q.Notes, q.Status, q.ValidUntil, q.Version, q.CreatedAt)
	return err
}

func (s *Storage) CreateQuoteItems(ctx context.Context, items []models.QuoteItem) error {
	if len(items) == 0 {
		return nil
	}
	const cols = 5
	rows := make([]string, len(items))
	args := make([]interface{}, 0, len(items)*cols)
	for i, it := range items {
		rows[i] = fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", i*cols+1, i*cols+2, i*cols+3, i*cols+4, i*cols+5)
		args = append(args, it.ID, it.QuoteID, it.RFQItemID, it.UnitPrice, it.CreatedAt)
	}
	query := `INSERT INTO quote_items (id, quote_id, rfq_item_id, unit_price, created_at) VALUES ` +
		strings.Join(rows, ", ")
	_, err := s.exec(ctx, query, args...)
	return err
}

func (s *Storage) GetQuote(ctx context.Context, id string, lock bool) (*models.Quote, error) {
	q := &models.Quote{}
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1` + forUpdate(lock)
	if err := s.get(ctx, q, query, id); err != nil {
		return nil, err
	}
	return q, nil
}

// ListQuotes returns the quotes of an RFQ, cheapest first.
func (s *Storage) ListQuotes(ctx context.Context, rfqID string) ([]models.Quote, error) {
	quotes := []models.Quote{}
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE rfq_id = $1 ORDER BY total_price ASC, created_at ASC`
	if err := s.sel(ctx, &quotes, query, rfqID); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (s *Storage) ListQuoteItems(ctx context.Context, quoteID string) ([]models.QuoteItem, error) {
	items := []models.QuoteItem{}
	query := `
        SELECT id, quote_id, rfq_item_id, unit_price, created_at
        FROM quote_items
        WHERE quote_id = $1
        ORDER BY created_at ASC, id ASC`
	if err := s.sel(ctx, &items, query, quoteID); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Storage) ListSupplierQuotes(ctx context.Context, supplierID string, limit, offset int) ([]models.Quote, error) {
	quotes := []models.Quote{}
	query := `SELECT ` + quoteColumns + `
        FROM quotes
        WHERE supplier_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	if err := s.sel(ctx, &quotes, query, supplierID, limit, offset); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (s *Storage) SetQuoteStatus(ctx context.Context, id string, from, to models.QuoteStatus) (bool, error) {
	query := `
        UPDATE quotes
        SET status = $2, version = version + 1, updated_at = NOW()
        WHERE id = $1 AND status = $3`
	n, err := s.exec(ctx, query, id, to, from)
	return n > 0, err
}

// RejectQuotes rejects the pending quotes among ids.
func (s *Storage) RejectQuotes(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `
        UPDATE quotes
        SET status = 'rejected', version = version + 1, updated_at = NOW()
        WHERE id = ANY($1::uuid[]) AND status = 'pending'`
	return s.exec(ctx, query, pq.Array(ids))
}

func (s *Storage) ExpireQuotes(ctx context.Context, now time.Time) (int64, error) {
	query := `
        UPDATE quotes
        SET status = 'expired', version = version + 1, updated_at = NOW()
        WHERE status = 'pending' AND valid_until < $1`
	return s.exec(ctx, query, now)
}
