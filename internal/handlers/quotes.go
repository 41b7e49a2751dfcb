package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"marketplace/internal/lifecycle"
)

// ListOpportunitiesHandler обрабатывает GET /api/supplier/rfqs
func (h *Handler) ListOpportunitiesHandler(w http.ResponseWriter, r *http.Request) {
	rfqs, err := h.Lifecycle.SupplierOpportunities(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfqs)
}

// SubmitQuoteHandler обрабатывает POST /api/rfqs/{rfqId}/quotes
func (h *Handler) SubmitQuoteHandler(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.NewQuote
	if !decodeJSON(w, r, &req) {
		return
	}
	quote, err := h.Lifecycle.SubmitQuote(r.Context(), currentUser(r), chi.URLParam(r, "rfqId"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quote)
}

// ListMyQuotesHandler обрабатывает GET /api/supplier/quotes
func (h *Handler) ListMyQuotesHandler(w http.ResponseWriter, r *http.Request) {
	pag := parsePaginationParams(r)
	quotes, err := h.Store.ListSupplierQuotes(r.Context(), currentUser(r).ID, pag.Limit, pag.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

type acceptQuoteRequest struct {
	DeliveryAddress string `json:"deliveryAddress"`
}

// AcceptQuoteHandler обрабатывает POST /api/quotes/{quoteId}/accept
// Тело запроса необязательно.
func (h *Handler) AcceptQuoteHandler(w http.ResponseWriter, r *http.Request) {
	var req acceptQuoteRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	order, err := h.Lifecycle.AcceptQuote(r.Context(), currentUser(r), chi.URLParam(r, "quoteId"),
		strings.TrimSpace(req.DeliveryAddress))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}
