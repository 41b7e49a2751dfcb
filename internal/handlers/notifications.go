package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListNotificationsHandler обрабатывает GET /api/notifications?unread=true
func (h *Handler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	pag := parsePaginationParams(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"
	list, err := h.Store.ListNotifications(r.Context(), currentUser(r).ID, unreadOnly, pag.Limit, pag.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// MarkNotificationReadHandler обрабатывает POST /api/notifications/{notificationId}/read
func (h *Handler) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Store.MarkNotificationRead(r.Context(), chi.URLParam(r, "notificationId"), currentUser(r).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
