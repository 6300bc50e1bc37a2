package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunchuis/panel/internal/cart"
	"github.com/lunchuis/panel/internal/middleware"
	"github.com/lunchuis/panel/internal/store"
)

// CartGateway is everything the cart needs from the hybrid gateway.
type CartGateway interface {
	cart.ComboSource
	cart.OrderPlacer
}

// CartHandler handles the pending cart endpoints.
type CartHandler struct {
	store    *store.Store
	gw       CartGateway
	notifier Notifier
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(s *store.Store, gw CartGateway, notifier Notifier) *CartHandler {
	return &CartHandler{store: s, gw: gw, notifier: notifier}
}

func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Show)
	r.Post("/items", h.AddItem)
	r.Patch("/items/{index}", h.SetPaymentMode)
	r.Delete("/items/{index}", h.RemoveItem)
	r.Delete("/", h.Clear)
	r.Post("/checkout", h.Checkout)
}

type addItemRequest struct {
	ComboID  uuid.UUID `json:"combo_id"`
	Quantity int       `json:"quantity"`
}

type setModeRequest struct {
	PaymentMode string `json:"payment_mode"`
}

type cartLineResponse struct {
	ComboID      uuid.UUID       `json:"combo_id"`
	Name         string          `json:"name"`
	DailyPrice   decimal.Decimal `json:"daily_price"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	Quantity     int             `json:"quantity"`
	PaymentMode  string          `json:"payment_mode"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Lines      []cartLineResponse `json:"lines"`
	GrandTotal decimal.Decimal    `json:"grand_total"`
	ItemCount  int                `json:"item_count"`
}

// aggregator builds a per-request cart bound to the request's session.
// An anonymous request can still browse and fill the cart; checkout is the
// only operation that insists on a user.
func (h *CartHandler) aggregator(r *http.Request) *cart.Aggregator {
	var sess store.Session
	if s := middleware.SessionFromContext(r.Context()); s != nil {
		sess = *s
	} else if stored, err := h.store.Session(); err == nil && stored != nil {
		sess = *stored
	}
	return cart.New(h.store, h.gw, h.gw, sess)
}

func toCartResponse(t *cart.Totals) cartResponse {
	lines := make([]cartLineResponse, 0, len(t.Lines))
	for _, lt := range t.Lines {
		lines = append(lines, cartLineResponse{
			ComboID:      lt.Line.ComboID,
			Name:         lt.Line.Name,
			DailyPrice:   lt.Line.DailyPrice,
			MonthlyPrice: lt.Line.MonthlyPrice,
			Quantity:     lt.Line.Quantity,
			PaymentMode:  lt.Line.PaymentMode,
			Subtotal:     lt.Subtotal,
		})
	}
	return cartResponse{Lines: lines, GrandTotal: t.GrandTotal, ItemCount: t.ItemCount}
}

func (h *CartHandler) Show(w http.ResponseWriter, r *http.Request) {
	totals, err := h.aggregator(r).ComputeTotals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(totals))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	agg := h.aggregator(r)
	line, err := agg.AddItem(r.Context(), req.ComboID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}

	notify(h.notifier, "success", fmt.Sprintf("%q added to cart", line.Name))
	totals, err := agg.ComputeTotals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartResponse(totals))
}

func (h *CartHandler) SetPaymentMode(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line index"})
		return
	}
	var req setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	agg := h.aggregator(r)
	if err := agg.SetPaymentMode(r.Context(), index, req.PaymentMode); err != nil {
		writeError(w, err)
		return
	}
	totals, err := agg.ComputeTotals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(totals))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line index"})
		return
	}

	agg := h.aggregator(r)
	if err := agg.RemoveItem(r.Context(), index); err != nil {
		writeError(w, err)
		return
	}
	totals, err := agg.ComputeTotals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(totals))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.aggregator(r).Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	orders, err := h.aggregator(r).Checkout(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	for i := range orders {
		broadcast(h.notifier, orderPlacedEvent(&orders[i]))
	}
	notify(h.notifier, "success", fmt.Sprintf("checkout complete, %d order(s) placed", len(orders)))
	writeJSON(w, http.StatusCreated, orders)
}
