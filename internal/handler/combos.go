package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunchuis/panel/internal/middleware"
	"github.com/lunchuis/panel/internal/repo"
	"github.com/lunchuis/panel/internal/store"
	"github.com/lunchuis/panel/internal/ws"
)

// lowStockThreshold marks combos that the panel should flag as running out.
const lowStockThreshold = 10

// ComboGateway is the slice of the hybrid gateway the combo handler needs.
type ComboGateway interface {
	ResolveCombos(ctx context.Context) ([]store.Combo, error)
	ResolveAvailableCombos(ctx context.Context) ([]store.Combo, error)
	GetCombo(ctx context.Context, id uuid.UUID) (*store.Combo, error)
	CreateCombo(ctx context.Context, in repo.CreateComboInput) (*store.Combo, error)
	UpdateCombo(ctx context.Context, id uuid.UUID, in repo.UpdateComboInput) (*store.Combo, error)
	DeleteCombo(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*store.Combo, error)
}

// ComboHandler handles combo catalog and CRUD endpoints.
type ComboHandler struct {
	gw       ComboGateway
	notifier Notifier
}

// NewComboHandler creates a new ComboHandler.
func NewComboHandler(gw ComboGateway, notifier Notifier) *ComboHandler {
	return &ComboHandler{gw: gw, notifier: notifier}
}

// RegisterRoutes registers combo endpoints on the given Chi router.
// Mutations sit behind the adminOnly middleware.
func (h *ComboHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/available", h.ListAvailable)
	r.Get("/{id}", h.Get)
	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Patch("/{id}/active", h.SetActive)
	})
}

type createComboRequest struct {
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	DailyPrice     *decimal.Decimal `json:"daily_price"`
	MonthlyPrice   *decimal.Decimal `json:"monthly_price"`
	AvailableQuota *int             `json:"available_quota"`
}

type updateComboRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	DailyPrice     *decimal.Decimal `json:"daily_price"`
	MonthlyPrice   *decimal.Decimal `json:"monthly_price"`
	AvailableQuota *int             `json:"available_quota"`
	Active         *bool            `json:"active"`
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

type comboResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	DailyPrice     decimal.Decimal `json:"daily_price"`
	MonthlyPrice   decimal.Decimal `json:"monthly_price"`
	AvailableQuota int             `json:"available_quota"`
	Active         bool            `json:"active"`
	LowStock       bool            `json:"low_stock"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

func toComboResponse(c store.Combo) comboResponse {
	return comboResponse{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		DailyPrice:     c.DailyPrice,
		MonthlyPrice:   c.MonthlyPrice,
		AvailableQuota: c.AvailableQuota,
		Active:         c.Active,
		LowStock:       c.AvailableQuota <= lowStockThreshold,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func toComboResponses(combos []store.Combo) []comboResponse {
	out := make([]comboResponse, 0, len(combos))
	for _, c := range combos {
		out = append(out, toComboResponse(c))
	}
	return out
}

func (h *ComboHandler) List(w http.ResponseWriter, r *http.Request) {
	combos, err := h.gw.ResolveCombos(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toComboResponses(combos))
}

func (h *ComboHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	combos, err := h.gw.ResolveAvailableCombos(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toComboResponses(combos))
}

func (h *ComboHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid combo id"})
		return
	}
	combo, err := h.gw.GetCombo(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toComboResponse(*combo))
}

func (h *ComboHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createComboRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DailyPrice == nil || req.MonthlyPrice == nil || req.AvailableQuota == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "daily_price, monthly_price and available_quota are required"})
		return
	}

	in := repo.CreateComboInput{
		Name:           req.Name,
		Description:    req.Description,
		DailyPrice:     *req.DailyPrice,
		MonthlyPrice:   *req.MonthlyPrice,
		AvailableQuota: *req.AvailableQuota,
	}
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		in.CreatedBy = sess.Username
	}

	combo, err := h.gw.CreateCombo(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	notify(h.notifier, "success", fmt.Sprintf("combo %q created", combo.Name))
	broadcast(h.notifier, comboChangedEvent(combo.ID))
	writeJSON(w, http.StatusCreated, toComboResponse(*combo))
}

func (h *ComboHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid combo id"})
		return
	}
	var req updateComboRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	combo, err := h.gw.UpdateCombo(r.Context(), id, repo.UpdateComboInput{
		Name:           req.Name,
		Description:    req.Description,
		DailyPrice:     req.DailyPrice,
		MonthlyPrice:   req.MonthlyPrice,
		AvailableQuota: req.AvailableQuota,
		Active:         req.Active,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	broadcast(h.notifier, comboChangedEvent(combo.ID))
	writeJSON(w, http.StatusOK, toComboResponse(*combo))
}

func (h *ComboHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid combo id"})
		return
	}
	if err := h.gw.DeleteCombo(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	broadcast(h.notifier, comboChangedEvent(id))
	writeJSON(w, http.StatusOK, map[string]string{"message": "combo deleted"})
}

func (h *ComboHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid combo id"})
		return
	}
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "active is required"})
		return
	}

	combo, err := h.gw.SetActive(r.Context(), id, *req.Active)
	if err != nil {
		writeError(w, err)
		return
	}

	state := "deactivated"
	if combo.Active {
		state = "activated"
	}
	notify(h.notifier, "info", fmt.Sprintf("combo %q %s", combo.Name, state))
	broadcast(h.notifier, comboChangedEvent(combo.ID))
	writeJSON(w, http.StatusOK, toComboResponse(*combo))
}

func comboChangedEvent(id uuid.UUID) ws.Event {
	payload, _ := json.Marshal(map[string]string{"combo_id": id.String()})
	return ws.Event{Type: ws.EventComboChanged, Payload: payload}
}
