package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"marketplace/internal/lifecycle"
)

const maxBodyBytes = 1 << 20

// Handler обслуживает HTTP API маркетплейса.
type Handler struct {
	Store     StorageInterface
	Lifecycle Lifecycle
	Sessions  SessionStore
	Log       *zap.Logger

	// SecureCookies marks the session cookie Secure.
	SecureCookies bool

	newID func() string
	now   func() time.Time
}

// NewHandler создает новый Handler
func NewHandler(store StorageInterface, lc Lifecycle, sessions SessionStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Lifecycle: lc,
		Sessions:  sessions,
		Log:       logger,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// PingHandler отвечает "ok", если база доступна
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Log.Error("ping failed", zap.Error(err))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// decodeJSON читает тело запроса с ограничением размера
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps lifecycle errors onto HTTP statuses. Anything unexpected
// is logged and answered with a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *lifecycle.ValidationErrors
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ve)
	case errors.Is(err, lifecycle.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, lifecycle.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, lifecycle.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func validationError(field, message string) error {
	var ve lifecycle.ValidationErrors
	ve.Add(field, message)
	return &ve
}
