package cart

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunchuis/panel/internal/enum"
	"github.com/lunchuis/panel/internal/repo"
	"github.com/lunchuis/panel/internal/store"
)

// localSource adapts the combo repository to the ComboSource interface the
// way the gateway does when the backend is down.
type localSource struct {
	combos *repo.ComboRepo
}

func (s localSource) GetCombo(ctx context.Context, id uuid.UUID) (*store.Combo, error) {
	return s.combos.GetByID(ctx, id)
}

type fixture struct {
	store  *store.Store
	combos *repo.ComboRepo
	orders *repo.OrderRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "panel.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return &fixture{store: s, combos: repo.NewComboRepo(s), orders: repo.NewOrderRepo(s)}
}

func (f *fixture) cart(username string) *Aggregator {
	return New(f.store, localSource{f.combos}, f.orders, store.Session{Username: username, Role: enum.RoleUser})
}

func (f *fixture) seedCombo(t *testing.T, name string, daily, monthly int64, quota int) *store.Combo {
	t.Helper()
	combo, err := f.combos.Create(context.Background(), repo.CreateComboInput{
		Name:           name,
		DailyPrice:     decimal.NewFromInt(daily),
		MonthlyPrice:   decimal.NewFromInt(monthly),
		AvailableQuota: quota,
	})
	if err != nil {
		t.Fatalf("seed combo %q: %v", name, err)
	}
	return combo
}

func TestAddItemMergesDuplicateCombo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	combo := f.seedCombo(t, "Combo A", 12000, 10000, 10)
	cart := f.cart("maria")

	if _, err := cart.AddItem(ctx, combo.ID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	line, err := cart.AddItem(ctx, combo.ID, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if line.Quantity != 5 {
		t.Errorf("merged quantity: want 5, got %d", line.Quantity)
	}
	lines, err := cart.Lines(ctx)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(lines))
	}
}

func TestAddItemClampsToQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	combo := f.seedCombo(t, "Combo A", 12000, 10000, 4)
	cart := f.cart("maria")

	line, err := cart.AddItem(ctx, combo.ID, 9)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if line.Quantity != 4 {
		t.Errorf("clamped quantity: want 4, got %d", line.Quantity)
	}

	// Merging beyond the quota clamps too.
	line, err = cart.AddItem(ctx, combo.ID, 2)
	if err != nil {
		t.Fatalf("merge add: %v", err)
	}
	if line.Quantity != 4 {
		t.Errorf("merged clamp: want 4, got %d", line.Quantity)
	}
}

func TestAddItemZeroOrNegativeQuantityBecomesOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	combo := f.seedCombo(t, "Combo A", 12000, 10000, 10)
	cart := f.cart("maria")

	line, err := cart.AddItem(ctx, combo.ID, 0)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if line.Quantity != 1 {
		t.Errorf("quantity: want 1, got %d", line.Quantity)
	}
}

func TestAddItemRejectsInactiveAndSoldOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart := f.cart("maria")

	inactive := f.seedCombo(t, "Inactive", 12000, 10000, 5)
	if _, err := f.combos.SetActive(ctx, inactive.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := cart.AddItem(ctx, inactive.ID, 1); !errors.Is(err, repo.ErrComboInactive) {
		t.Errorf("inactive combo: expected ErrComboInactive, got %v", err)
	}

	soldOut := f.seedCombo(t, "Sold out", 12000, 10000, 0)
	var stockErr *repo.InsufficientStockError
	if _, err := cart.AddItem(ctx, soldOut.ID, 1); !errors.As(err, &stockErr) {
		t.Errorf("sold out combo: expected InsufficientStockError, got %v", err)
	}

	if _, err := cart.AddItem(ctx, uuid.New(), 1); !errors.Is(err, repo.ErrComboNotFound) {
		t.Errorf("unknown combo: expected ErrComboNotFound, got %v", err)
	}
}

func TestTotalsUseSnapshotPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	combo := f.seedCombo(t, "Combo A", 10000, 8000, 10)
	cart := f.cart("maria")

	if _, err := cart.AddItem(ctx, combo.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	before, err := cart.ComputeTotals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if !before.GrandTotal.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("grand total before edit: want 20000, got %s", before.GrandTotal)
	}

	// Doubling the combo price must not move the already-carted line.
	newPrice := decimal.NewFromInt(20000)
	if _, err := f.combos.Update(ctx, combo.ID, repo.UpdateComboInput{DailyPrice: &newPrice}); err != nil {
		t.Fatalf("update price: %v", err)
	}

	after, err := cart.ComputeTotals(ctx)
	if err != nil {
		t.Fatalf("totals after edit: %v", err)
	}
	if !after.GrandTotal.Equal(before.GrandTotal) {
		t.Errorf("totals moved with the price edit: before %s, after %s", before.GrandTotal, after.GrandTotal)
	}
}

func TestSetPaymentModeSwitchesSubtotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	combo := f.seedCombo(t, "Combo A", 12000, 10000, 10)
	cart := f.cart("maria")

	if _, err := cart.AddItem(ctx, combo.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cart.SetPaymentMode(ctx, 0, enum.PaymentModeMonthly); err != nil {
		t.Fatalf("set mode: %v", err)
	}

	totals, err := cart.ComputeTotals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if !totals.GrandTotal.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("monthly subtotal: want 20000, got %s", totals.GrandTotal)
	}

	if err := cart.SetPaymentMode(ctx, 0, "WEEKLY"); !errors.Is(err, ErrInvalidPayMode) {
		t.Errorf("expected ErrInvalidPayMode, got %v", err)
	}
	if err := cart.SetPaymentMode(ctx, 7, enum.PaymentModeDaily); !errors.Is(err, ErrLineOutOfRange) {
		t.Errorf("expected ErrLineOutOfRange, got %v", err)
	}
}

func TestRemoveItemAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seedCombo(t, "Combo A", 12000, 10000, 10)
	b := f.seedCombo(t, "Combo B", 15000, 13000, 10)
	cart := f.cart("maria")

	if _, err := cart.AddItem(ctx, a.ID, 1); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := cart.AddItem(ctx, b.ID, 1); err != nil {
		t.Fatalf("add b: %v", err)
	}

	if err := cart.RemoveItem(ctx, 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	lines, err := cart.Lines(ctx)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 1 || lines[0].ComboID != b.ID {
		t.Errorf("expected only Combo B to remain, got %+v", lines)
	}

	if err := cart.RemoveItem(ctx, 5); !errors.Is(err, ErrLineOutOfRange) {
		t.Errorf("expected ErrLineOutOfRange, got %v", err)
	}

	if err := cart.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	lines, err = cart.Lines(ctx)
	if err != nil {
		t.Fatalf("lines after clear: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("cart not cleared: %+v", lines)
	}
}

func TestCheckoutPlacesOrdersAndClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	combo := f.seedCombo(t, "Menu A", 12000, 10000, 5)
	cart := f.cart("maria")

	if _, err := cart.AddItem(ctx, combo.ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	orders, err := cart.Checkout(ctx)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	o := orders[0]
	if o.Username != "maria" || o.Quantity != 3 {
		t.Errorf("order fields: %+v", o)
	}
	if !o.UnitPrice.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("unit price: want 12000, got %s", o.UnitPrice)
	}
	if !o.Total.Equal(decimal.NewFromInt(36000)) {
		t.Errorf("total: want 36000, got %s", o.Total)
	}

	after, err := f.combos.GetByID(ctx, combo.ID)
	if err != nil {
		t.Fatalf("get combo: %v", err)
	}
	if after.AvailableQuota != 2 {
		t.Errorf("quota after checkout: want 2, got %d", after.AvailableQuota)
	}

	lines, err := cart.Lines(ctx)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("cart not cleared after checkout: %+v", lines)
	}
}

func TestCheckoutAbortsWhollyOnBadLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	good := f.seedCombo(t, "Good", 12000, 10000, 5)
	bad := f.seedCombo(t, "Bad", 15000, 13000, 5)
	cart := f.cart("maria")

	if _, err := cart.AddItem(ctx, good.ID, 1); err != nil {
		t.Fatalf("add good: %v", err)
	}
	if _, err := cart.AddItem(ctx, bad.ID, 1); err != nil {
		t.Fatalf("add bad: %v", err)
	}

	// Deactivate the second combo after it entered the cart.
	if _, err := f.combos.SetActive(ctx, bad.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := cart.Checkout(ctx)
	var checkoutErr *CheckoutError
	if !errors.As(err, &checkoutErr) {
		t.Fatalf("expected CheckoutError, got %v", err)
	}
	if checkoutErr.Line != 1 {
		t.Errorf("failing line: want 1, got %d", checkoutErr.Line)
	}
	if !errors.Is(err, repo.ErrComboInactive) {
		t.Errorf("expected wrapped ErrComboInactive, got %v", err)
	}

	// Nothing was committed: no orders, no stock movement, cart intact.
	all, err := f.orders.ListAll(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("orders placed on failed checkout: %+v", all)
	}
	goodAfter, err := f.combos.GetByID(ctx, good.ID)
	if err != nil {
		t.Fatalf("get combo: %v", err)
	}
	if goodAfter.AvailableQuota != 5 {
		t.Errorf("stock moved on failed checkout: %d", goodAfter.AvailableQuota)
	}
	lines, err := cart.Lines(ctx)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("cart changed on failed checkout: %+v", lines)
	}
}

func TestCheckoutRequiresSessionAndLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	combo := f.seedCombo(t, "Combo A", 12000, 10000, 5)

	anon := f.cart("")
	if _, err := anon.AddItem(ctx, combo.ID, 1); err != nil {
		t.Fatalf("anonymous add should work: %v", err)
	}
	if _, err := anon.Checkout(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}

	if err := anon.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	named := f.cart("maria")
	if _, err := named.Checkout(ctx); !errors.Is(err, ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}
