package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunchuis/panel/internal/enum"
)

func TestPlaceOrderDecrementsStockAndRecords(t *testing.T) {
	s := openTestStore(t)
	combos := NewComboRepo(s)
	orders := NewOrderRepo(s)
	ctx := context.Background()

	combo := mustCreate(t, combos, comboInput("Combo Ejecutivo"))

	order, err := orders.PlaceOrder(ctx, PlaceOrderInput{
		Username:    "maria",
		ComboID:     combo.ID,
		PaymentMode: enum.PaymentModeDaily,
		Quantity:    3,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if !order.UnitPrice.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("daily unit price: want 12000, got %s", order.UnitPrice)
	}
	if !order.Total.Equal(decimal.NewFromInt(36000)) {
		t.Errorf("total: want 36000, got %s", order.Total)
	}
	if order.ComboName != "Combo Ejecutivo" {
		t.Errorf("combo name not captured: %q", order.ComboName)
	}
	if order.Status != enum.OrderStatusCompleted {
		t.Errorf("status: want %s, got %s", enum.OrderStatusCompleted, order.Status)
	}

	after, err := combos.GetByID(ctx, combo.ID)
	if err != nil {
		t.Fatalf("get combo: %v", err)
	}
	if after.AvailableQuota != 2 {
		t.Errorf("quota after order: want 2, got %d", after.AvailableQuota)
	}

	all, err := orders.ListAll(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 recorded order, got %d", len(all))
	}
}

func TestPlaceOrderMonthlyUsesMonthlyPrice(t *testing.T) {
	s := openTestStore(t)
	combos := NewComboRepo(s)
	orders := NewOrderRepo(s)

	combo := mustCreate(t, combos, comboInput("Combo A"))

	order, err := orders.PlaceOrder(context.Background(), PlaceOrderInput{
		Username:    "maria",
		ComboID:     combo.ID,
		PaymentMode: enum.PaymentModeMonthly,
		Quantity:    2,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if !order.UnitPrice.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("monthly unit price: want 10000, got %s", order.UnitPrice)
	}
	if !order.Total.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("total: want 20000, got %s", order.Total)
	}
}

func TestPlaceOrderInsufficientStockLeavesStateUntouched(t *testing.T) {
	s := openTestStore(t)
	combos := NewComboRepo(s)
	orders := NewOrderRepo(s)
	ctx := context.Background()

	in := comboInput("Combo A")
	in.AvailableQuota = 3
	combo := mustCreate(t, combos, in)

	_, err := orders.PlaceOrder(ctx, PlaceOrderInput{
		Username:    "maria",
		ComboID:     combo.ID,
		PaymentMode: enum.PaymentModeDaily,
		Quantity:    4,
	})

	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Remaining != 3 {
		t.Errorf("remaining in error: want 3, got %d", stockErr.Remaining)
	}
	if !strings.Contains(err.Error(), "3") {
		t.Errorf("error message must carry the exact remaining quantity: %q", err.Error())
	}

	// The failed attempt must not touch the quota or the order log.
	after, err := combos.GetByID(ctx, combo.ID)
	if err != nil {
		t.Fatalf("get combo: %v", err)
	}
	if after.AvailableQuota != 3 {
		t.Errorf("quota changed on failed order: %d", after.AvailableQuota)
	}
	all, err := orders.ListAll(ctx)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("failed order was recorded: %+v", all)
	}
}

func TestStockNeverGoesNegative(t *testing.T) {
	s := openTestStore(t)
	combos := NewComboRepo(s)
	orders := NewOrderRepo(s)
	ctx := context.Background()

	in := comboInput("Combo A")
	in.AvailableQuota = 5
	combo := mustCreate(t, combos, in)

	// Drain the stock two at a time; the third attempt must fail and the
	// fourth single-unit order must succeed against the remainder.
	for i := 0; i < 2; i++ {
		if _, err := orders.PlaceOrder(ctx, PlaceOrderInput{
			Username: "maria", ComboID: combo.ID, PaymentMode: enum.PaymentModeDaily, Quantity: 2,
		}); err != nil {
			t.Fatalf("order %d: %v", i+1, err)
		}
	}
	if _, err := orders.PlaceOrder(ctx, PlaceOrderInput{
		Username: "maria", ComboID: combo.ID, PaymentMode: enum.PaymentModeDaily, Quantity: 2,
	}); err == nil {
		t.Fatal("expected insufficient stock")
	}
	if _, err := orders.PlaceOrder(ctx, PlaceOrderInput{
		Username: "maria", ComboID: combo.ID, PaymentMode: enum.PaymentModeDaily, Quantity: 1,
	}); err != nil {
		t.Fatalf("final unit order: %v", err)
	}

	after, err := combos.GetByID(ctx, combo.ID)
	if err != nil {
		t.Fatalf("get combo: %v", err)
	}
	if after.AvailableQuota != 0 {
		t.Errorf("quota: want 0, got %d", after.AvailableQuota)
	}
}

func TestPlaceOrderInactiveCombo(t *testing.T) {
	s := openTestStore(t)
	combos := NewComboRepo(s)
	orders := NewOrderRepo(s)
	ctx := context.Background()

	combo := mustCreate(t, combos, comboInput("Combo A"))
	if _, err := combos.SetActive(ctx, combo.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := orders.PlaceOrder(ctx, PlaceOrderInput{
		Username: "maria", ComboID: combo.ID, PaymentMode: enum.PaymentModeDaily, Quantity: 1,
	})
	if !errors.Is(err, ErrComboInactive) {
		t.Fatalf("expected ErrComboInactive, got %v", err)
	}
}

func TestPlaceOrderUnknownCombo(t *testing.T) {
	orders := NewOrderRepo(openTestStore(t))

	_, err := orders.PlaceOrder(context.Background(), PlaceOrderInput{
		Username: "maria", ComboID: uuid.New(), PaymentMode: enum.PaymentModeDaily, Quantity: 1,
	})
	if !errors.Is(err, ErrComboNotFound) {
		t.Fatalf("expected ErrComboNotFound, got %v", err)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	orders := NewOrderRepo(openTestStore(t))
	ctx := context.Background()
	id := uuid.New()

	cases := []struct {
		name string
		in   PlaceOrderInput
	}{
		{"missing username", PlaceOrderInput{ComboID: id, PaymentMode: enum.PaymentModeDaily, Quantity: 1}},
		{"zero quantity", PlaceOrderInput{Username: "maria", ComboID: id, PaymentMode: enum.PaymentModeDaily}},
		{"negative quantity", PlaceOrderInput{Username: "maria", ComboID: id, PaymentMode: enum.PaymentModeDaily, Quantity: -1}},
		{"bad payment mode", PlaceOrderInput{Username: "maria", ComboID: id, PaymentMode: "WEEKLY", Quantity: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := orders.PlaceOrder(ctx, tc.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestListForUserFiltersAndSortsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	combos := NewComboRepo(s)
	orders := NewOrderRepo(s)
	ctx := context.Background()

	in := comboInput("Combo A")
	in.AvailableQuota = 10
	combo := mustCreate(t, combos, in)

	for _, username := range []string{"maria", "jorge", "maria"} {
		if _, err := orders.PlaceOrder(ctx, PlaceOrderInput{
			Username: username, ComboID: combo.ID, PaymentMode: enum.PaymentModeDaily, Quantity: 1,
		}); err != nil {
			t.Fatalf("place order for %s: %v", username, err)
		}
	}

	mine, err := orders.ListForUser(ctx, "maria")
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 orders for maria, got %d", len(mine))
	}
	for _, o := range mine {
		if o.Username != "maria" {
			t.Errorf("foreign order in user history: %+v", o)
		}
	}
	if mine[0].CreatedAt.Before(mine[1].CreatedAt) {
		t.Error("orders not sorted newest first")
	}
}
