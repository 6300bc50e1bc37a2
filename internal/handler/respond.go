package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/lunchuis/panel/internal/cart"
	"github.com/lunchuis/panel/internal/gateway"
	"github.com/lunchuis/panel/internal/repo"
	"github.com/lunchuis/panel/internal/ws"
)

// Notifier pushes toast and data-change events to connected panel clients.
// Satisfied by *ws.Hub; nil disables broadcasting.
type Notifier interface {
	Notify(level, message string)
	Broadcast(event ws.Event)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// writeError maps a domain error onto an HTTP status and the panel's
// uniform {"error": message} shape. Unknown errors are logged and hidden
// behind a 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *repo.ValidationError
		stockErr      *repo.InsufficientStockError
		writeErr      *gateway.RemoteWriteError
		checkoutErr   *cart.CheckoutError
	)

	switch {
	case errors.As(err, &checkoutErr):
		// Report the failing line with the underlying cause's status.
		status := statusFor(checkoutErr.Err)
		writeJSON(w, status, map[string]string{"error": checkoutErr.Error()})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationErr.Error()})
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]string{"error": stockErr.Error()})
	case errors.As(err, &writeErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": writeErr.Error()})
	case errors.Is(err, repo.ErrComboNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, repo.ErrComboInactive):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, cart.ErrLineOutOfRange),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidPayMode):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, cart.ErrNoSession):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func statusFor(err error) int {
	var (
		stockErr *repo.InsufficientStockError
		writeErr *gateway.RemoteWriteError
	)
	switch {
	case errors.As(err, &stockErr), errors.Is(err, repo.ErrComboInactive):
		return http.StatusConflict
	case errors.Is(err, repo.ErrComboNotFound):
		return http.StatusNotFound
	case errors.As(err, &writeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func notify(n Notifier, level, message string) {
	if n != nil {
		n.Notify(level, message)
	}
}

func broadcast(n Notifier, event ws.Event) {
	if n != nil {
		n.Broadcast(event)
	}
}
