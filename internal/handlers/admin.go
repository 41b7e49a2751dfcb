package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"marketplace/db"
	"marketplace/internal/export"
	"marketplace/internal/lifecycle"
	"marketplace/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	userStatuses = map[models.UserStatus]bool{
		models.UserPending:   true,
		models.UserApproved:  true,
		models.UserRejected:  true,
		models.UserSuspended: true,
	}
	itemStatuses = map[models.ItemStatus]bool{
		models.ItemPending:  true,
		models.ItemApproved: true,
		models.ItemRejected: true,
	}
)

// ListUsersHandler обрабатывает GET /api/admin/users?role=&status=
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	pag := parsePaginationParams(r)
	filter := db.ProfileFilter{
		Role:   models.Role(r.URL.Query().Get("role")),
		Status: models.UserStatus(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && !userStatuses[filter.Status] {
		h.writeError(w, r, validationError("status", "unknown user status"))
		return
	}
	users, err := h.Store.ListProfiles(r.Context(), filter, pag.Limit, pag.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type userStatusRequest struct {
	Status models.UserStatus `json:"status"`
}

// SetUserStatusHandler обрабатывает PATCH /api/admin/users/{userId}/status
func (h *Handler) SetUserStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req userStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !userStatuses[req.Status] {
		h.writeError(w, r, validationError("status", "unknown user status"))
		return
	}
	admin := currentUser(r)
	userID := chi.URLParam(r, "userId")
	if userID == admin.ID {
		h.writeError(w, r, fmt.Errorf("%w: admins cannot change their own status", lifecycle.ErrConflict))
		return
	}
	user, err := h.Store.SetProfileStatus(r.Context(), userID, req.Status, admin.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Log.Info("user status changed",
		zap.String("user_id", user.ID),
		zap.String("status", string(user.Status)),
		zap.String("admin_id", admin.ID))
	writeJSON(w, http.StatusOK, user)
}

// ListItemsHandler обрабатывает GET /api/admin/items?status=
func (h *Handler) ListItemsHandler(w http.ResponseWriter, r *http.Request) {
	pag := parsePaginationParams(r)
	status := models.ItemStatus(r.URL.Query().Get("status"))
	if status != "" && !itemStatuses[status] {
		h.writeError(w, r, validationError("status", "unknown item status"))
		return
	}
	items, err := h.Store.ListItems(r.Context(), status, pag.Limit, pag.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type itemStatusRequest struct {
	Status models.ItemStatus `json:"status"`
}

// SetItemStatusHandler обрабатывает PATCH /api/admin/items/{itemId}/status
func (h *Handler) SetItemStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req itemStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !itemStatuses[req.Status] {
		h.writeError(w, r, validationError("status", "unknown item status"))
		return
	}
	item, err := h.Store.SetItemStatus(r.Context(), chi.URLParam(r, "itemId"), req.Status, currentUser(r).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type marginRuleRequest struct {
	CategoryID       *string         `json:"categoryId"`
	MarginPercentage decimal.Decimal `json:"marginPercentage"`
	Priority         int             `json:"priority"`
	Active           *bool           `json:"active"`
}

func (req *marginRuleRequest) validate() error {
	if req.MarginPercentage.IsNegative() || req.MarginPercentage.GreaterThan(decimal.NewFromInt(1000)) {
		return validationError("marginPercentage", "must be between 0 and 1000")
	}
	return nil
}

func (req *marginRuleRequest) apply(rule *models.MarginRule) {
	if req.CategoryID != nil && *req.CategoryID == "" {
		req.CategoryID = nil
	}
	rule.CategoryID = req.CategoryID
	rule.MarginPercentage = req.MarginPercentage.Round(2)
	rule.Priority = req.Priority
	rule.Active = req.Active == nil || *req.Active
}

// ListMarginRulesHandler обрабатывает GET /api/admin/margin-rules
func (h *Handler) ListMarginRulesHandler(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListMarginRules(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

// CreateMarginRuleHandler обрабатывает POST /api/admin/margin-rules
func (h *Handler) CreateMarginRuleHandler(w http.ResponseWriter, r *http.Request) {
	var req marginRuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	rule := &models.MarginRule{ID: h.newID()}
	req.apply(rule)
	if err := h.Store.CreateMarginRule(r.Context(), rule); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// UpdateMarginRuleHandler обрабатывает PUT /api/admin/margin-rules/{ruleId}
func (h *Handler) UpdateMarginRuleHandler(w http.ResponseWriter, r *http.Request) {
	var req marginRuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	rule := &models.MarginRule{ID: chi.URLParam(r, "ruleId")}
	req.apply(rule)
	if err := h.Store.UpdateMarginRule(r.Context(), rule); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// ExpireStaleHandler обрабатывает POST /api/admin/expire
func (h *Handler) ExpireStaleHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.Lifecycle.ExpireStale(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ExportOrdersHandler обрабатывает GET /api/admin/orders/export?status=
// Файл сначала собирается в буфер, чтобы ошибка не оборвала ответ на середине.
func (h *Handler) ExportOrdersHandler(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	if status != "" && !orderStatuses[status] {
		h.writeError(w, r, validationError("status", "unknown order status"))
		return
	}
	orders, err := h.Store.ListAllOrders(r.Context(), status, 0, 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteOrdersXLSX(&buf, orders); err != nil {
		h.writeError(w, r, err)
		return
	}
	filename := "orders-" + h.now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
