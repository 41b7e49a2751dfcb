package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"marketplace/db"
	"marketplace/internal/lifecycle"
	"marketplace/models"
)

// ListCategoriesHandler обрабатывает GET /api/categories
func (h *Handler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// ListCatalogHandler обрабатывает GET /api/catalog?category=&search=
// Себестоимость поставщика клиенту не показывается.
func (h *Handler) ListCatalogHandler(w http.ResponseWriter, r *http.Request) {
	pag := parsePaginationParams(r)
	filter := db.CatalogFilter{
		CategoryID: r.URL.Query().Get("category"),
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if filter.CategoryID != "" {
		if _, err := uuid.Parse(filter.CategoryID); err != nil {
			h.writeError(w, r, validationError("category", "must be a valid id"))
			return
		}
	}
	items, err := h.Store.ListApprovedItems(r.Context(), filter, pag.Limit, pag.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if user := currentUser(r); user.Role != models.RoleAdmin {
		for i := range items {
			if items[i].SupplierID != user.ID {
				items[i].CostPrice = decimal.Zero
			}
		}
	}
	writeJSON(w, http.StatusOK, items)
}

type itemRequest struct {
	CategoryID    string          `json:"categoryId"`
	SubcategoryID *string         `json:"subcategoryId"`
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	Unit          string          `json:"unit"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	Images        []string        `json:"images"`
}

func (req *itemRequest) validate() error {
	var ve lifecycle.ValidationErrors
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Name == "" {
		ve.Add("name", "is required")
	}
	if req.CategoryID == "" {
		ve.Add("categoryId", "is required")
	}
	if req.Unit == "" {
		ve.Add("unit", "is required")
	}
	if !req.CostPrice.IsPositive() {
		ve.Add("costPrice", "must be greater than 0")
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

func (req *itemRequest) apply(it *models.Item) {
	it.CategoryID = req.CategoryID
	it.SubcategoryID = req.SubcategoryID
	it.Name = req.Name
	it.Description = req.Description
	it.Unit = req.Unit
	it.CostPrice = req.CostPrice.Round(2)
	it.Images = pq.StringArray(req.Images)
}

// ListInventoryHandler обрабатывает GET /api/supplier/items
func (h *Handler) ListInventoryHandler(w http.ResponseWriter, r *http.Request) {
	pag := parsePaginationParams(r)
	items, err := h.Store.ListSupplierItems(r.Context(), currentUser(r).ID, pag.Limit, pag.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateItemHandler обрабатывает POST /api/supplier/items
// Новый товар попадает на модерацию со статусом pending.
func (h *Handler) CreateItemHandler(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	item := &models.Item{
		ID:         h.newID(),
		SupplierID: currentUser(r).ID,
		Status:     models.ItemPending,
	}
	req.apply(item)
	if err := h.Store.CreateItem(r.Context(), item); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateItemHandler обрабатывает PUT /api/supplier/items/{itemId}
// После редактирования товар снова уходит на модерацию.
func (h *Handler) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	item, ok := h.ownItem(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.apply(item)
	if err := h.Store.UpdateItem(r.Context(), item); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItemHandler обрабатывает DELETE /api/supplier/items/{itemId}
func (h *Handler) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	item, ok := h.ownItem(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteItem(r.Context(), item.ID, item.SupplierID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownItem loads the item named in the URL and checks it belongs to the
// current supplier. Foreign items answer 404.
func (h *Handler) ownItem(w http.ResponseWriter, r *http.Request) (*models.Item, bool) {
	item, err := h.Store.GetItem(r.Context(), chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	if item.SupplierID != currentUser(r).ID {
		h.writeError(w, r, lifecycle.ErrNotFound)
		return nil, false
	}
	return item, true
}
