package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"marketplace/models"
)

// Запросы котировок (RFQ)

const rfqColumns = `r.id, r.client_id, r.title, r.description, r.status, r.deadline, r.version, r.created_at, r.updated_at`

const rfqItemColumns = `ri.id, ri.rfq_id, ri.item_id, ri.quantity, ri.notes, ri.created_at,
        i.supplier_id AS item_supplier_id, i.name AS item_name, i.unit AS item_unit`

func (s *Storage) CreateRFQ(ctx context.Context, rfq *models.RFQ) error {
	query := `
        INSERT INTO rfqs
            (id, client_id, title, description, status, deadline, version, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $8)`
	_, err := s.exec(ctx, query,
		rfq.ID, rfq.ClientID, rfq.Title, rfq.Description, rfq.Status, rfq.Deadline, rfq.Version, rfq.CreatedAt)
	return err
}

// CreateRFQItems inserts all lines with a single statement.
func (s *Storage) CreateRFQItems(ctx context.Context, items []models.RFQItem) error {
	if len(items) == 0 {
		return nil
	}
	const cols = 6
	rows := make([]string, len(items))
	args := make([]interface{}, 0, len(items)*cols)
	for i, it := range items {
		rows[i] = fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", i*cols+1, i*cols+2, i*cols+3, i*cols+4, i*cols+5, i*cols+6)
		args = append(args, it.ID, it.RFQID, it.ItemID, it.Quantity, it.Notes, it.CreatedAt)
	}
	query := `INSERT INTO rfq_items (id, rfq_id, item_id, quantity, notes, created_at) VALUES ` +
		strings.Join(rows, ", ")
	_, err := s.exec(ctx, query, args...)
	return err
}

func (s *Storage) GetRFQ(ctx context.Context, id string, lock bool) (*models.RFQ, error) {
	rfq := &models.RFQ{}
	query := `SELECT ` + rfqColumns + ` FROM rfqs r WHERE r.id = $1` + forUpdate(lock)
	if err := s.get(ctx, rfq, query, id); err != nil {
		return nil, err
	}
	return rfq, nil
}

func (s *Storage) ListRFQItems(ctx context.Context, rfqID string) ([]models.RFQItem, error) {
	items := []models.RFQItem{}
	query := `SELECT ` + rfqItemColumns + `
        FROM rfq_items ri
        JOIN items i ON i.id = ri.item_id
        WHERE ri.rfq_id = $1
        ORDER BY ri.created_at ASC, ri.id ASC`
	if err := s.sel(ctx, &items, query, rfqID); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Storage) listItemsOfRFQs(ctx context.Context, rfqs []models.RFQ) error {
	if len(rfqs) == 0 {
		return nil
	}
	ids := make([]string, len(rfqs))
	for i := range rfqs {
		ids[i] = rfqs[i].ID
	}
	var items []models.RFQItem
	query := `SELECT ` + rfqItemColumns + `
        FROM rfq_items ri
        JOIN items i ON i.id = ri.item_id
        WHERE ri.rfq_id = ANY($1::uuid[])
        ORDER BY ri.created_at ASC, ri.id ASC`
	if err := s.sel(ctx, &items, query, pq.Array(ids)); err != nil {
		return err
	}
	byRFQ := make(map[string][]models.RFQItem, len(rfqs))
	for _, it := range items {
		byRFQ[it.RFQID] = append(byRFQ[it.RFQID], it)
	}
	for i := range rfqs {
		rfqs[i].Items = byRFQ[rfqs[i].ID]
		if rfqs[i].Items == nil {
			rfqs[i].Items = []models.RFQItem{}
		}
	}
	return nil
}

// SetRFQStatus moves the RFQ to status to only if it is currently in one of
// from. It reports whether a row changed.
func (s *Storage) SetRFQStatus(ctx context.Context, id string, from []models.RFQStatus, to models.RFQStatus) (bool, error) {
	fromStr := make([]string, len(from))
	for i, st := range from {
		fromStr[i] = string(st)
	}
	query := `
        UPDATE rfqs
        SET status = $2, version = version + 1, updated_at = NOW()
        WHERE id = $1 AND status = ANY($3::text[])`
	n, err := s.exec(ctx, query, id, to, pq.Array(fromStr))
	return n > 0, err
}

// ListOpenRFQsWithItems returns open RFQs requesting any of itemIDs, newest
// first, with all of their lines.
func (s *Storage) ListOpenRFQsWithItems(ctx context.Context, itemIDs []string) ([]models.RFQ, error) {
	rfqs := []models.RFQ{}
	query := `SELECT ` + rfqColumns + `
        FROM rfqs r
        WHERE r.status = $1
        AND EXISTS (
            SELECT 1 FROM rfq_items ri WHERE ri.rfq_id = r.id AND ri.item_id = ANY($2::uuid[])
        )
        ORDER BY r.created_at DESC`
	if err := s.sel(ctx, &rfqs, query, models.RFQOpen, pq.Array(itemIDs)); err != nil {
		return nil, err
	}
	if err := s.listItemsOfRFQs(ctx, rfqs); err != nil {
		return nil, err
	}
	return rfqs, nil
}

func (s *Storage) QuotedRFQIDs(ctx context.Context, supplierID string) ([]string, error) {
	ids := []string{}
	if err := s.sel(ctx, &ids, `SELECT rfq_id FROM quotes WHERE supplier_id = $1`, supplierID); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListClientRFQs returns a client's RFQs with their lines, newest first.
func (s *Storage) ListClientRFQs(ctx context.Context, clientID string, limit, offset int) ([]models.RFQ, error) {
	rfqs := []models.RFQ{}
	query := `SELECT ` + rfqColumns + `
        FROM rfqs r
        WHERE r.client_id = $1
        ORDER BY r.created_at DESC
        LIMIT $2 OFFSET $3`
	if err := s.sel(ctx, &rfqs, query, clientID, limit, offset); err != nil {
		return nil, err
	}
	if err := s.listItemsOfRFQs(ctx, rfqs); err != nil {
		return nil, err
	}
	return rfqs, nil
}

func (s *Storage) ExpireRFQs(ctx context.Context, now time.Time) (int64, error) {
	query := `
        UPDATE rfqs
        SET status = 'expired', version = version + 1, updated_at = NOW()
        WHERE status IN ('open', 'quoted') AND deadline IS NOT NULL AND deadline < $1`
	return s.exec(ctx, query, now)
}
