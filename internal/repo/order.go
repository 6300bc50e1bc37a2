package repo

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lunchuis/panel/internal/enum"
	"github.com/lunchuis/panel/internal/store"
	"github.com/shopspring/decimal"
)

// OrderRepo validates and records orders against the local store.
type OrderRepo struct {
	store *store.Store
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(s *store.Store) *OrderRepo {
	return &OrderRepo{store: s}
}

// PlaceOrderInput is the validated input for placing one order.
type PlaceOrderInput struct {
	Username    string
	ComboID     uuid.UUID
	PaymentMode string
	Quantity    int
}

// PlaceOrder resolves the combo, checks activity and stock, picks the unit
// price for the payment mode, then commits the stock decrement and the order
// append inside one store transaction. Both writes land or neither does, so
// a failed order can never leave the quota and the order log out of step.
func (r *OrderRepo) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*store.Order, error) {
	if in.Username == "" {
		return nil, &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if in.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be > 0"}
	}
	if !enum.IsValidPaymentMode(in.PaymentMode) {
		return nil, &ValidationError{Field: "payment_mode", Reason: "must be DAILY or MONTHLY"}
	}

	var order *store.Order
	err := r.store.Update(func(tx *store.Tx) error {
		combos, err := tx.Combos()
		if err != nil {
			return err
		}
		idx := findCombo(combos, in.ComboID)
		if idx < 0 {
			return ErrComboNotFound
		}
		combo := &combos[idx]

		if !combo.Active {
			return ErrComboInactive
		}
		if in.Quantity > combo.AvailableQuota {
			return &InsufficientStockError{Remaining: combo.AvailableQuota}
		}

		unitPrice := combo.DailyPrice
		if in.PaymentMode == enum.PaymentModeMonthly {
			unitPrice = combo.MonthlyPrice
		}

		combo.AvailableQuota -= in.Quantity

		o := store.Order{
			ID:          uuid.New(),
			Username:    in.Username,
			ComboID:     combo.ID,
			ComboName:   combo.Name,
			PaymentMode: in.PaymentMode,
			Quantity:    in.Quantity,
			UnitPrice:   unitPrice,
			Total:       unitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
			Status:      enum.OrderStatusCompleted,
			CreatedAt:   time.Now(),
		}

		orders, err := tx.Orders()
		if err != nil {
			return err
		}
		if err := tx.PutCombos(combos); err != nil {
			return err
		}
		if err := tx.PutOrders(append(orders, o)); err != nil {
			return err
		}
		order = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListForUser returns one user's orders, most recent first.
func (r *OrderRepo) ListForUser(ctx context.Context, username string) ([]store.Order, error) {
	orders, err := r.store.Orders()
	if err != nil {
		return nil, err
	}
	mine := make([]store.Order, 0, len(orders))
	for _, o := range orders {
		if o.Username == username {
			mine = append(mine, o)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})
	return mine, nil
}

// ListAll returns every order in insertion order (admin view).
func (r *OrderRepo) ListAll(ctx context.Context) ([]store.Order, error) {
	return r.store.Orders()
}
