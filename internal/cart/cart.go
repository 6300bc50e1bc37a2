// Package cart holds a user's pending order lines and turns them into
// orders at checkout. The cart takes its session and collaborators
// explicitly; it never reaches into ambient state.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lunchuis/panel/internal/enum"
	"github.com/lunchuis/panel/internal/repo"
	"github.com/lunchuis/panel/internal/store"
	"github.com/shopspring/decimal"
)

// Errors returned by the aggregator.
var (
	ErrLineOutOfRange = errors.New("cart line does not exist")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrNoSession      = errors.New("no user signed in")
	ErrInvalidPayMode = errors.New("payment mode must be DAILY or MONTHLY")
)

// ComboSource resolves combos for stock clamping and price snapshots.
// Satisfied by *gateway.Gateway.
type ComboSource interface {
	GetCombo(ctx context.Context, id uuid.UUID) (*store.Combo, error)
}

// OrderPlacer commits one order. Satisfied by *gateway.Gateway and
// *repo.OrderRepo.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, in repo.PlaceOrderInput) (*store.Order, error)
}

// CheckoutError reports which cart line a failed checkout stopped on.
type CheckoutError struct {
	Line int // zero-based index into the cart lines
	Err  error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("cart line %d: %v", e.Line+1, e.Err)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// LineTotal is one cart line with its computed subtotal.
type LineTotal struct {
	Line     store.CartLine
	Subtotal decimal.Decimal
}

// Totals is the priced view of the cart.
type Totals struct {
	Lines      []LineTotal
	GrandTotal decimal.Decimal
	ItemCount  int // sum of quantities, shown as the cart badge
}

// Aggregator manages the persisted cart of one session user.
type Aggregator struct {
	store   *store.Store
	combos  ComboSource
	orders  OrderPlacer
	session store.Session
}

// New creates an Aggregator for the given session.
func New(s *store.Store, combos ComboSource, orders OrderPlacer, session store.Session) *Aggregator {
	return &Aggregator{store: s, combos: combos, orders: orders, session: session}
}

// Lines returns the current cart lines.
func (a *Aggregator) Lines(ctx context.Context) ([]store.CartLine, error) {
	return a.store.Cart()
}

// AddItem puts quantity units of the combo into the cart. The quantity is
// clamped to [1, availableQuota]. A line already holding this combo absorbs
// the new quantity instead of duplicating; the merged quantity is clamped
// against the combo's current quota too. New lines snapshot both price
// points and default to daily payment.
func (a *Aggregator) AddItem(ctx context.Context, comboID uuid.UUID, quantity int) (*store.CartLine, error) {
	combo, err := a.combos.GetCombo(ctx, comboID)
	if err != nil {
		return nil, err
	}
	if !combo.Active {
		return nil, repo.ErrComboInactive
	}
	if combo.AvailableQuota <= 0 {
		return nil, &repo.InsufficientStockError{Remaining: 0}
	}

	if quantity < 1 {
		quantity = 1
	}
	if quantity > combo.AvailableQuota {
		quantity = combo.AvailableQuota
	}

	var added *store.CartLine
	err = a.store.Update(func(tx *store.Tx) error {
		lines, err := tx.Cart()
		if err != nil {
			return err
		}

		idx := -1
		for i := range lines {
			if lines[i].ComboID == comboID {
				idx = i
				break
			}
		}

		if idx >= 0 {
			merged := lines[idx].Quantity + quantity
			if merged > combo.AvailableQuota {
				merged = combo.AvailableQuota
			}
			lines[idx].Quantity = merged
		} else {
			lines = append(lines, store.CartLine{
				ComboID:      combo.ID,
				Name:         combo.Name,
				DailyPrice:   combo.DailyPrice,
				MonthlyPrice: combo.MonthlyPrice,
				Quantity:     quantity,
				PaymentMode:  enum.PaymentModeDaily,
			})
			idx = len(lines) - 1
		}

		cp := lines[idx]
		added = &cp
		return tx.PutCart(lines)
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// SetPaymentMode switches one line's payment mode in place.
func (a *Aggregator) SetPaymentMode(ctx context.Context, index int, mode string) error {
	if !enum.IsValidPaymentMode(mode) {
		return ErrInvalidPayMode
	}
	return a.store.Update(func(tx *store.Tx) error {
		lines, err := tx.Cart()
		if err != nil {
			return err
		}
		if index < 0 || index >= len(lines) {
			return ErrLineOutOfRange
		}
		lines[index].PaymentMode = mode
		return tx.PutCart(lines)
	})
}

// RemoveItem drops one line by position.
func (a *Aggregator) RemoveItem(ctx context.Context, index int) error {
	return a.store.Update(func(tx *store.Tx) error {
		lines, err := tx.Cart()
		if err != nil {
			return err
		}
		if index < 0 || index >= len(lines) {
			return ErrLineOutOfRange
		}
		return tx.PutCart(append(lines[:index], lines[index+1:]...))
	})
}

// Clear empties the cart.
func (a *Aggregator) Clear(ctx context.Context) error {
	return a.store.PutCart(nil)
}

// ComputeTotals prices every line from its add-time snapshot. Combo edits
// made after a line was added do not move the displayed totals.
func (a *Aggregator) ComputeTotals(ctx context.Context) (*Totals, error) {
	lines, err := a.store.Cart()
	if err != nil {
		return nil, err
	}

	totals := &Totals{
		Lines:      make([]LineTotal, len(lines)),
		GrandTotal: decimal.Zero,
	}
	for i, line := range lines {
		totals.Lines[i] = LineTotal{Line: line, Subtotal: lineSubtotal(line)}
		totals.GrandTotal = totals.GrandTotal.Add(totals.Lines[i].Subtotal)
		totals.ItemCount += line.Quantity
	}
	return totals, nil
}

// Checkout places one order per cart line and clears the cart.
//
// All lines are validated against fresh combo state before anything is
// committed, so a line that would fail (inactive combo, missing combo, not
// enough stock) aborts the checkout with nothing placed. The returned
// CheckoutError names the offending line.
func (a *Aggregator) Checkout(ctx context.Context) ([]store.Order, error) {
	if a.session.Username == "" {
		return nil, ErrNoSession
	}

	lines, err := a.store.Cart()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// Validate every line before committing any. Lines are unique per combo
	// (AddItem merges), so per-line quota checks cannot double-count.
	for i, line := range lines {
		combo, err := a.combos.GetCombo(ctx, line.ComboID)
		if err != nil {
			return nil, &CheckoutError{Line: i, Err: err}
		}
		if !combo.Active {
			return nil, &CheckoutError{Line: i, Err: repo.ErrComboInactive}
		}
		if line.Quantity > combo.AvailableQuota {
			return nil, &CheckoutError{Line: i, Err: &repo.InsufficientStockError{Remaining: combo.AvailableQuota}}
		}
	}

	orders := make([]store.Order, 0, len(lines))
	for i, line := range lines {
		order, err := a.orders.PlaceOrder(ctx, repo.PlaceOrderInput{
			Username:    a.session.Username,
			ComboID:     line.ComboID,
			PaymentMode: line.PaymentMode,
			Quantity:    line.Quantity,
		})
		if err != nil {
			// Pre-validation makes this unreachable unless another writer
			// raced us between validate and commit.
			return orders, &CheckoutError{Line: i, Err: err}
		}
		orders = append(orders, *order)
	}

	if err := a.Clear(ctx); err != nil {
		return orders, fmt.Errorf("clear cart after checkout: %w", err)
	}
	return orders, nil
}

func lineSubtotal(line store.CartLine) decimal.Decimal {
	unit := line.DailyPrice
	if line.PaymentMode == enum.PaymentModeMonthly {
		unit = line.MonthlyPrice
	}
	return unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
}
