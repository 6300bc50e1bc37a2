package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lunchuis/panel/internal/store"
	"github.com/shopspring/decimal"
)

// Backend routes, relative to each service's base URL.
const (
	routeCombos = "/combos"
	routeCombo  = "/combos/%s"
	routeHealth = "/actuator/health"
	routeOrders = "/orders"
)

// TokenSource supplies the current bearer token, or "" when the call should
// go out anonymous. Anonymous calls are tolerated, not rejected.
type TokenSource func() string

// Client is the HTTP client for the combo and order services. Responses are
// normalized into the canonical store shapes before they leave this package;
// remote field synonyms never leak past it.
type Client struct {
	comboBaseURL string
	orderBaseURL string
	httpClient   *http.Client
	token        TokenSource
}

// NewClient creates a Client for the given service base URLs.
func NewClient(comboBaseURL, orderBaseURL string, token TokenSource) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		comboBaseURL: comboBaseURL,
		orderBaseURL: orderBaseURL,
		httpClient:   http.DefaultClient,
		token:        token,
	}
}

// --- Remote DTOs ---

// remoteCombo accepts the combo service's response shape, including the
// field synonyms older deployments emit (availableStock for availableQuota,
// a status enum for the active flag, a single price plus type).
type remoteCombo struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	DailyPrice     *decimal.Decimal `json:"dailyPrice"`
	MonthlyPrice   *decimal.Decimal `json:"monthlyPrice"`
	Price          *decimal.Decimal `json:"price"`
	Type           string           `json:"type"`
	AvailableQuota *int             `json:"availableQuota"`
	AvailableStock *int             `json:"availableStock"`
	Active         *bool            `json:"active"`
	Status         string           `json:"status"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      *time.Time       `json:"updatedAt"`
}

func (rc remoteCombo) normalize() store.Combo {
	c := store.Combo{
		ID:          rc.ID,
		Name:        rc.Name,
		Description: rc.Description,
		CreatedAt:   rc.CreatedAt,
		UpdatedAt:   rc.UpdatedAt,
	}

	switch {
	case rc.AvailableQuota != nil:
		c.AvailableQuota = *rc.AvailableQuota
	case rc.AvailableStock != nil:
		c.AvailableQuota = *rc.AvailableStock
	}

	if rc.DailyPrice != nil {
		c.DailyPrice = *rc.DailyPrice
	}
	if rc.MonthlyPrice != nil {
		c.MonthlyPrice = *rc.MonthlyPrice
	}
	// Single-price records carry their price point under the mode named by
	// type; the other mode stays zero.
	if rc.Price != nil && rc.DailyPrice == nil && rc.MonthlyPrice == nil {
		if rc.Type == "MONTHLY" {
			c.MonthlyPrice = *rc.Price
		} else {
			c.DailyPrice = *rc.Price
		}
	}

	switch {
	case rc.Active != nil:
		c.Active = *rc.Active
	case rc.Status != "":
		c.Active = rc.Status == "ACTIVE" || rc.Status == "AVAILABLE"
	}

	return c
}

type remoteOrder struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	ComboID     uuid.UUID       `json:"comboId"`
	ComboName   string          `json:"comboName"`
	PaymentMode string          `json:"paymentMode"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (ro remoteOrder) normalize() store.Order {
	return store.Order{
		ID:          ro.ID,
		Username:    ro.Username,
		ComboID:     ro.ComboID,
		ComboName:   ro.ComboName,
		PaymentMode: ro.PaymentMode,
		Quantity:    ro.Quantity,
		UnitPrice:   ro.UnitPrice,
		Total:       ro.Total,
		Status:      ro.Status,
		CreatedAt:   ro.CreatedAt,
	}
}

type comboPayload struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	DailyPrice     decimal.Decimal `json:"dailyPrice"`
	MonthlyPrice   decimal.Decimal `json:"monthlyPrice"`
	AvailableQuota int             `json:"availableQuota"`
	Active         bool            `json:"active"`
}

type orderPayload struct {
	Username    string    `json:"username"`
	ComboID     uuid.UUID `json:"comboId"`
	PaymentMode string    `json:"paymentMode"`
	Quantity    int       `json:"quantity"`
}

type remoteError struct {
	Message string `json:"message"`
	Error_  string `json:"error"`
}

// --- Request plumbing ---

func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var re remoteError
		raw, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(raw, &re)
		msg := re.Message
		if msg == "" {
			msg = re.Error_
		}
		return NewStatusCodeError(resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// --- Combo service ---

// Health probes the combo service. Any transport error, non-2xx status or
// malformed body is a probe failure.
func (c *Client) Health(ctx context.Context) error {
	var body map[string]interface{}
	return c.do(ctx, http.MethodGet, c.comboBaseURL+routeHealth, nil, &body)
}

// ListCombos fetches and normalizes the full remote combo catalog.
func (c *Client) ListCombos(ctx context.Context) ([]store.Combo, error) {
	var remote []remoteCombo
	if err := c.do(ctx, http.MethodGet, c.comboBaseURL+routeCombos, nil, &remote); err != nil {
		return nil, err
	}
	combos := make([]store.Combo, len(remote))
	for i, rc := range remote {
		combos[i] = rc.normalize()
	}
	return combos, nil
}

// GetCombo fetches a single combo by id.
func (c *Client) GetCombo(ctx context.Context, id uuid.UUID) (*store.Combo, error) {
	var rc remoteCombo
	url := c.comboBaseURL + fmt.Sprintf(routeCombo, id)
	if err := c.do(ctx, http.MethodGet, url, nil, &rc); err != nil {
		return nil, err
	}
	combo := rc.normalize()
	return &combo, nil
}

// CreateCombo creates a combo on the combo service.
func (c *Client) CreateCombo(ctx context.Context, combo store.Combo) (*store.Combo, error) {
	var rc remoteCombo
	payload := comboPayload{
		Name:           combo.Name,
		Description:    combo.Description,
		DailyPrice:     combo.DailyPrice,
		MonthlyPrice:   combo.MonthlyPrice,
		AvailableQuota: combo.AvailableQuota,
		Active:         combo.Active,
	}
	if err := c.do(ctx, http.MethodPost, c.comboBaseURL+routeCombos, payload, &rc); err != nil {
		return nil, err
	}
	created := rc.normalize()
	return &created, nil
}

// UpdateCombo replaces a combo on the combo service.
func (c *Client) UpdateCombo(ctx context.Context, id uuid.UUID, combo store.Combo) (*store.Combo, error) {
	var rc remoteCombo
	payload := comboPayload{
		Name:           combo.Name,
		Description:    combo.Description,
		DailyPrice:     combo.DailyPrice,
		MonthlyPrice:   combo.MonthlyPrice,
		AvailableQuota: combo.AvailableQuota,
		Active:         combo.Active,
	}
	url := c.comboBaseURL + fmt.Sprintf(routeCombo, id)
	if err := c.do(ctx, http.MethodPut, url, payload, &rc); err != nil {
		return nil, err
	}
	updated := rc.normalize()
	return &updated, nil
}

// DeleteCombo deletes a combo on the combo service.
func (c *Client) DeleteCombo(ctx context.Context, id uuid.UUID) error {
	url := c.comboBaseURL + fmt.Sprintf(routeCombo, id)
	return c.do(ctx, http.MethodDelete, url, nil, nil)
}

// --- Order service ---

// ListOrders fetches and normalizes the remote order collection.
func (c *Client) ListOrders(ctx context.Context) ([]store.Order, error) {
	var remote []remoteOrder
	if err := c.do(ctx, http.MethodGet, c.orderBaseURL+routeOrders, nil, &remote); err != nil {
		return nil, err
	}
	orders := make([]store.Order, len(remote))
	for i, ro := range remote {
		orders[i] = ro.normalize()
	}
	return orders, nil
}

// CreateOrder places an order on the order service.
func (c *Client) CreateOrder(ctx context.Context, username string, comboID uuid.UUID, paymentMode string, quantity int) (*store.Order, error) {
	var ro remoteOrder
	payload := orderPayload{
		Username:    username,
		ComboID:     comboID,
		PaymentMode: paymentMode,
		Quantity:    quantity,
	}
	if err := c.do(ctx, http.MethodPost, c.orderBaseURL+routeOrders, payload, &ro); err != nil {
		return nil, err
	}
	order := ro.normalize()
	return &order, nil
}
