package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"marketplace/internal/lifecycle"
	"marketplace/models"
)

var orderStatuses = map[models.OrderStatus]bool{
	models.OrderPending:    true,
	models.OrderConfirmed:  true,
	models.OrderProcessing: true,
	models.OrderShipped:    true,
	models.OrderDelivered:  true,
	models.OrderCompleted:  true,
	models.OrderCancelled:  true,
}

// ListOrdersHandler обрабатывает GET /api/orders
// Админ видит все заказы (с фильтром ?status=), остальные только свои.
func (h *Handler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	pag := parsePaginationParams(r)
	user := currentUser(r)

	var (
		orders []models.Order
		err    error
	)
	if user.Role == models.RoleAdmin {
		status := models.OrderStatus(r.URL.Query().Get("status"))
		if status != "" && !orderStatuses[status] {
			h.writeError(w, r, validationError("status", "unknown order status"))
			return
		}
		orders, err = h.Store.ListAllOrders(r.Context(), status, pag.Limit, pag.Offset)
	} else {
		orders, err = h.Store.ListOrdersForUser(r.Context(), user, pag.Limit, pag.Offset)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrderHandler обрабатывает GET /api/orders/{orderId}
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, err := h.Lifecycle.GetOrder(r.Context(), currentUser(r), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// GetOrderHistoryHandler обрабатывает GET /api/orders/{orderId}/history
func (h *Handler) GetOrderHistoryHandler(w http.ResponseWriter, r *http.Request) {
	order, err := h.Lifecycle.GetOrder(r.Context(), currentUser(r), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	history, err := h.Store.ListOrderHistory(r.Context(), order.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type orderStatusRequest struct {
	Status         models.OrderStatus `json:"status"`
	TrackingNumber string             `json:"trackingNumber"`
}

// UpdateOrderStatusHandler обрабатывает PATCH /api/orders/{orderId}/status
func (h *Handler) UpdateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !orderStatuses[req.Status] {
		h.writeError(w, r, validationError("status", "unknown order status"))
		return
	}
	order, err := h.Lifecycle.TransitionOrder(r.Context(), currentUser(r), chi.URLParam(r, "orderId"),
		lifecycle.OrderUpdate{To: req.Status, TrackingNumber: req.TrackingNumber})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type rateOrderRequest struct {
	Score  int     `json:"score"`
	Review *string `json:"review"`
}

// RateOrderHandler обрабатывает POST /api/orders/{orderId}/rating
func (h *Handler) RateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req rateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rating, err := h.Lifecycle.RateOrder(r.Context(), currentUser(r), chi.URLParam(r, "orderId"), req.Score, req.Review)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rating)
}

// ListSupplierRatingsHandler обрабатывает GET /api/suppliers/{supplierId}/ratings
func (h *Handler) ListSupplierRatingsHandler(w http.ResponseWriter, r *http.Request) {
	pag := parsePaginationParams(r)
	ratings, err := h.Store.ListSupplierRatings(r.Context(), chi.URLParam(r, "supplierId"), pag.Limit, pag.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ratings)
}
