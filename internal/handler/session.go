package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lunchuis/panel/internal/enum"
	"github.com/lunchuis/panel/internal/middleware"
	"github.com/lunchuis/panel/internal/store"
)

// SessionHandler exposes the ambient session record. The identity flow
// itself lives elsewhere; this just lets the panel read who it is acting
// as, and lets the login page persist that identity for later visits.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Show)
	r.Put("/", h.Save)
	r.Delete("/", h.Clear)
}

type sessionRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (h *SessionHandler) Show(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		writeJSON(w, http.StatusOK, sess)
		return
	}
	sess, err := h.store.Session()
	if err != nil {
		writeError(w, err)
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}
	if req.Role != enum.RoleAdmin && req.Role != enum.RoleUser {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role must be ADMIN or USER"})
		return
	}

	sess := &store.Session{Username: req.Username, FullName: req.FullName, Role: req.Role}
	if err := h.store.PutSession(sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Clear ends the stored session. The pending cart goes with it, matching
// the panel's logout behavior.
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	err := h.store.Update(func(tx *store.Tx) error {
		if err := tx.PutSession(nil); err != nil {
			return err
		}
		return tx.PutCart(nil)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "session closed"})
}
