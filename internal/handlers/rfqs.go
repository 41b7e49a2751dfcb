package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"marketplace/internal/lifecycle"
)

// createRFQRequest accepts either explicit lines or a catalog selection with
// per-item quantities.
type createRFQRequest struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Deadline    *time.Time       `json:"deadline"`
	Lines       []lifecycle.Line `json:"lines"`
	Selection   []string         `json:"selection"`
	Quantities  map[string]int   `json:"quantities"`
}

func (req *createRFQRequest) toNewRFQ() (lifecycle.NewRFQ, error) {
	in := lifecycle.NewRFQ{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Lines:       req.Lines,
	}
	if len(req.Selection) == 0 && len(req.Quantities) == 0 {
		return in, nil
	}
	if len(req.Lines) > 0 {
		return in, validationError("lines", "use either lines or selection, not both")
	}
	sel, err := lifecycle.SelectionFromRequest(req.Selection, req.Quantities)
	if err != nil {
		return in, err
	}
	in.Lines = sel.Lines()
	return in, nil
}

// CreateRFQHandler обрабатывает POST /api/rfqs
func (h *Handler) CreateRFQHandler(w http.ResponseWriter, r *http.Request) {
	var req createRFQRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toNewRFQ()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rfq, err := h.Lifecycle.CreateRFQ(r.Context(), currentUser(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rfq)
}

// ListMyRFQsHandler обрабатывает GET /api/rfqs
func (h *Handler) ListMyRFQsHandler(w http.ResponseWriter, r *http.Request) {
	pag := parsePaginationParams(r)
	rfqs, err := h.Store.ListClientRFQs(r.Context(), currentUser(r).ID, pag.Limit, pag.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfqs)
}

// GetRFQHandler обрабатывает GET /api/rfqs/{rfqId}
func (h *Handler) GetRFQHandler(w http.ResponseWriter, r *http.Request) {
	rfq, err := h.Lifecycle.GetRFQ(r.Context(), currentUser(r), chi.URLParam(r, "rfqId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfq)
}

// CancelRFQHandler обрабатывает POST /api/rfqs/{rfqId}/cancel
func (h *Handler) CancelRFQHandler(w http.ResponseWriter, r *http.Request) {
	rfq, err := h.Lifecycle.CancelRFQ(r.Context(), currentUser(r), chi.URLParam(r, "rfqId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rfq)
}
