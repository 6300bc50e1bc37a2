package enum

// ── Payment modes (per cart line, editable until checkout) ──

const (
	PaymentModeDaily   = "DAILY"
	PaymentModeMonthly = "MONTHLY"
)

// ── Order status (orders are write-once; no cancellation flow) ──

const (
	OrderStatusCompleted = "COMPLETED"
)

// ── Session roles ──

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// IsValidPaymentMode reports whether s is a known payment mode.
func IsValidPaymentMode(s string) bool {
	switch s {
	case PaymentModeDaily, PaymentModeMonthly:
		return true
	}
	return false
}
