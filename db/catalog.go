package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"marketplace/models"
)

// Каталог

const itemColumns = `i.id, i.supplier_id, i.category_id, i.subcategory_id, i.name, i.description,
        i.unit, i.cost_price, i.images, i.status, i.approved_by, i.approved_at, i.created_at, i.updated_at`

func (s *Storage) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	query := `SELECT id, name, slug, description, created_at FROM categories ORDER BY name ASC`
	if err := s.sel(ctx, &categories, query); err != nil {
		return nil, err
	}
	var subs []models.Subcategory
	query = `
        SELECT id, category_id, name, slug, description, created_at
        FROM subcategories
        ORDER BY name ASC`
	if err := s.sel(ctx, &subs, query); err != nil {
		return nil, err
	}
	byCategory := make(map[string][]models.Subcategory)
	for _, sc := range subs {
		byCategory[sc.CategoryID] = append(byCategory[sc.CategoryID], sc)
	}
	for i := range categories {
		categories[i].Subcategories = byCategory[categories[i].ID]
		if categories[i].Subcategories == nil {
			categories[i].Subcategories = []models.Subcategory{}
		}
	}
	return categories, nil
}

// UpsertCategory inserts a category or renames the existing one with the
// same slug. c.ID is set to the stored id.
func (s *Storage) UpsertCategory(ctx context.Context, c *models.Category) error {
	query := `
        INSERT INTO categories (id, name, slug, description)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description
        RETURNING id, created_at`
	return mapError(s.q.QueryRowxContext(ctx, query, c.ID, c.Name, c.Slug, c.Description).
		Scan(&c.ID, &c.CreatedAt))
}

func (s *Storage) UpsertSubcategory(ctx context.Context, sc *models.Subcategory) error {
	query := `
        INSERT INTO subcategories (id, category_id, name, slug, description)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (category_id, slug) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description
        RETURNING id, created_at`
	return mapError(s.q.QueryRowxContext(ctx, query, sc.ID, sc.CategoryID, sc.Name, sc.Slug, sc.Description).
		Scan(&sc.ID, &sc.CreatedAt))
}

type CatalogFilter struct {
	CategoryID string
	Search     string
}

// ListApprovedItems is the client catalog: approved items, newest first,
// priced through calculate_margin_price.
func (s *Storage) ListApprovedItems(ctx context.Context, f CatalogFilter, limit, offset int) ([]models.Item, error) {
	var w whereClause
	w.add("i.status = $%d", models.ItemApproved)
	if f.CategoryID != "" {
		w.add("i.category_id = $%d", f.CategoryID)
	}
	if f.Search != "" {
		w.add("(i.name ILIKE $%[1]d OR i.description ILIKE $%[1]d)", containsPattern(f.Search))
	}
	query := `SELECT ` + itemColumns + `, calculate_margin_price(i.cost_price, i.category_id) AS client_price
        FROM items i` + w.String() + ` ORDER BY i.created_at DESC` + w.page(limit, offset)

	items := []models.Item{}
	if err := s.sel(ctx, &items, query, w.args...); err != nil {
		return nil, err
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching text literally.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

func (s *Storage) GetItem(ctx context.Context, id string) (*models.Item, error) {
	it := &models.Item{}
	query := `SELECT ` + itemColumns + ` FROM items i WHERE i.id = $1`
	if err := s.get(ctx, it, query, id); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Storage) GetItems(ctx context.Context, ids []string) ([]models.Item, error) {
	items := []models.Item{}
	if len(ids) == 0 {
		return items, nil
	}
	query := `SELECT ` + itemColumns + ` FROM items i WHERE i.id = ANY($1::uuid[])`
	if err := s.sel(ctx, &items, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Storage) ApprovedItemIDs(ctx context.Context, supplierID string) ([]string, error) {
	ids := []string{}
	query := `SELECT id FROM items WHERE supplier_id = $1 AND status = $2 ORDER BY id`
	if err := s.sel(ctx, &ids, query, supplierID, models.ItemApproved); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Storage) ListSupplierItems(ctx context.Context, supplierID string, limit, offset int) ([]models.Item, error) {
	items := []models.Item{}
	query := `SELECT ` + itemColumns + `
        FROM items i
        WHERE i.supplier_id = $1
        ORDER BY i.created_at DESC
        LIMIT $2 OFFSET $3`
	if err := s.sel(ctx, &items, query, supplierID, limit, offset); err != nil {
		return nil, err
	}
	return items, nil
}

// ListItems is the moderation queue; an empty status lists everything.
func (s *Storage) ListItems(ctx context.Context, status models.ItemStatus, limit, offset int) ([]models.Item, error) {
	var w whereClause
	if status != "" {
		w.add("i.status = $%d", status)
	}
	query := `SELECT ` + itemColumns + ` FROM items i` + w.String() +
		` ORDER BY i.created_at ASC` + w.page(limit, offset)
	items := []models.Item{}
	if err := s.sel(ctx, &items, query, w.args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Storage) CreateItem(ctx context.Context, it *models.Item) error {
	if it.Images == nil {
		it.Images = pq.StringArray{}
	}
	query := `
        INSERT INTO items
            (id, supplier_id, category_id, subcategory_id, name, description, unit, cost_price, images, status)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING created_at, updated_at`
	return mapError(s.q.QueryRowxContext(ctx, query,
		it.ID, it.SupplierID, it.CategoryID, it.SubcategoryID, it.Name, it.Description,
		it.Unit, it.CostPrice, it.Images, it.Status).
		Scan(&it.CreatedAt, &it.UpdatedAt))
}

// UpdateItem rewrites a supplier's own item and sends it back to moderation.
func (s *Storage) UpdateItem(ctx context.Context, it *models.Item) error {
	if it.Images == nil {
		it.Images = pq.StringArray{}
	}
	query := `
        UPDATE items
        SET category_id = $1, subcategory_id = $2, name = $3, description = $4, unit = $5,
            cost_price = $6, images = $7, status = 'pending', approved_by = NULL, approved_at = NULL,
            updated_at = NOW()
        WHERE id = $8 AND supplier_id = $9
        RETURNING status, updated_at`
	return mapError(s.q.QueryRowxContext(ctx, query,
		it.CategoryID, it.SubcategoryID, it.Name, it.Description, it.Unit,
		it.CostPrice, it.Images, it.ID, it.SupplierID).
		Scan(&it.Status, &it.UpdatedAt))
}

// DeleteItem removes a supplier's own item. Items referenced by an RFQ are
// protected by a foreign key and yield a conflict.
func (s *Storage) DeleteItem(ctx context.Context, id, supplierID string) error {
	n, err := s.exec(ctx, `DELETE FROM items WHERE id = $1 AND supplier_id = $2`, id, supplierID)
	if err != nil {
		return err
	}
	return notFoundIfZero(n)
}

func (s *Storage) SetItemStatus(ctx context.Context, id string, status models.ItemStatus, adminID string) (*models.Item, error) {
	query := `
        UPDATE items i
        SET status = $2::text,
            approved_by = CASE WHEN $2::text = 'approved' THEN $3::uuid ELSE NULL END,
            approved_at = CASE WHEN $2::text = 'approved' THEN NOW() ELSE NULL END,
            updated_at = NOW()
        WHERE i.id = $1
        RETURNING ` + itemColumns
	it := &models.Item{}
	if err := s.get(ctx, it, query, id, status, adminID); err != nil {
		return nil, err
	}
	return it, nil
}

// Наценки

const marginColumns = `id, category_id, margin_percentage, priority, active, created_at, updated_at`

func (s *Storage) ListMarginRules(ctx context.Context) ([]models.MarginRule, error) {
	rules := []models.MarginRule{}
	query := `SELECT ` + marginColumns + ` FROM margin_rules ORDER BY priority DESC, created_at ASC`
	if err := s.sel(ctx, &rules, query); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *Storage) CreateMarginRule(ctx context.Context, r *models.MarginRule) error {
	query := `
        INSERT INTO margin_rules (id, category_id, margin_percentage, priority, active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`
	return mapError(s.q.QueryRowxContext(ctx, query, r.ID, r.CategoryID, r.MarginPercentage, r.Priority, r.Active).
		Scan(&r.CreatedAt, &r.UpdatedAt))
}

func (s *Storage) UpdateMarginRule(ctx context.Context, r *models.MarginRule) error {
	query := `
        UPDATE margin_rules
        SET category_id = $1, margin_percentage = $2, priority = $3, active = $4, updated_at = NOW()
        WHERE id = $5
        RETURNING created_at, updated_at`
	return mapError(s.q.QueryRowxContext(ctx, query, r.CategoryID, r.MarginPercentage, r.Priority, r.Active, r.ID).
		Scan(&r.CreatedAt, &r.UpdatedAt))
}

// EnsureMarginRule inserts r unless a rule for the same category (or a
// global rule, for a nil category) already exists. It reports whether r
// was inserted.
func (s *Storage) EnsureMarginRule(ctx context.Context, r *models.MarginRule) (bool, error) {
	query := `
        INSERT INTO margin_rules (id, category_id, margin_percentage, priority, active)
        SELECT $1, $2::uuid, $3, $4, $5
        WHERE NOT EXISTS (
            SELECT 1 FROM margin_rules WHERE category_id IS NOT DISTINCT FROM $2::uuid
        )`
	n, err := s.exec(ctx, query, r.ID, r.CategoryID, r.MarginPercentage, r.Priority, r.Active)
	if err != nil {
		return false, fmt.Errorf("ensure margin rule: %w", err)
	}
	return n > 0, nil
}
