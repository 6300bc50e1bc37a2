package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lunchuis/panel/internal/middleware"
	"github.com/lunchuis/panel/internal/repo"
	"github.com/lunchuis/panel/internal/store"
	"github.com/lunchuis/panel/internal/ws"
)

// OrderGateway is the slice of the hybrid gateway the order handler needs.
type OrderGateway interface {
	ResolveOrders(ctx context.Context) ([]store.Order, error)
	PlaceOrder(ctx context.Context, in repo.PlaceOrderInput) (*store.Order, error)
}

// OrderHandler handles order placement and history endpoints.
type OrderHandler struct {
	gw       OrderGateway
	notifier Notifier
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(gw OrderGateway, notifier Notifier) *OrderHandler {
	return &OrderHandler{gw: gw, notifier: notifier}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Get("/mine", h.ListMine)
	r.Post("/", h.Create)
	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/", h.ListAll)
	})
}

type createOrderRequest struct {
	ComboID     uuid.UUID `json:"combo_id"`
	PaymentMode string    `json:"payment_mode"`
	Quantity    int       `json:"quantity"`
}

func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.gw.ResolveOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	sortOrdersDesc(orders)
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orders, err := h.gw.ResolveOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	mine := make([]store.Order, 0)
	for _, o := range orders {
		if o.Username == sess.Username {
			mine = append(mine, o)
		}
	}
	sortOrdersDesc(mine)
	writeJSON(w, http.StatusOK, mine)
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.gw.PlaceOrder(r.Context(), repo.PlaceOrderInput{
		Username:    sess.Username,
		ComboID:     req.ComboID,
		PaymentMode: req.PaymentMode,
		Quantity:    req.Quantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	broadcast(h.notifier, orderPlacedEvent(order))
	writeJSON(w, http.StatusCreated, order)
}

// Newest first, the way the history view shows them.
func sortOrdersDesc(orders []store.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func orderPlacedEvent(order *store.Order) ws.Event {
	payload, _ := json.Marshal(map[string]string{
		"order_id":   order.ID.String(),
		"combo_name": order.ComboName,
		"username":   order.Username,
	})
	return ws.Event{Type: ws.EventOrderPlaced, Payload: payload}
}
