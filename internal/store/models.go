package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Combo is an orderable lunch offering. This is the canonical shape used
// everywhere past the gateway boundary, regardless of whether the record came
// from the combo service or the local store.
type Combo struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	DailyPrice     decimal.Decimal `json:"daily_price"`
	MonthlyPrice   decimal.Decimal `json:"monthly_price"`
	AvailableQuota int             `json:"available_quota"`
	Active         bool            `json:"active"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// Order is an immutable record of a completed purchase. ComboName and
// UnitPrice are captured at order time and do not track later combo edits.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	ComboID     uuid.UUID       `json:"combo_id"`
	ComboName   string          `json:"combo_name"`
	PaymentMode string          `json:"payment_mode"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CartLine is one pending cart entry. Prices are snapshots taken when the
// line was first added, so displayed totals stay stable while the cart is
// open even if an admin edits the combo in the meantime.
type CartLine struct {
	ComboID      uuid.UUID       `json:"combo_id"`
	Name         string          `json:"name"`
	DailyPrice   decimal.Decimal `json:"daily_price"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	Quantity     int             `json:"quantity"`
	PaymentMode  string          `json:"payment_mode"`
}

// Session is the ambient user record supplied by the identity service.
// Read-only context as far as this codebase is concerned.
type Session struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}
