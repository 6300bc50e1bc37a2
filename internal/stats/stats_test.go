package stats

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lunchuis/panel/internal/store"
)

func TestSummary(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	combos := []store.Combo{
		{Name: "Active A", Active: true},
		{Name: "Active B", Active: true},
		{Name: "Retired", Active: false},
	}
	orders := []store.Order{
		// Today: counts for orders_today, revenue and active users.
		{Username: "maria", Total: decimal.NewFromInt(36000), CreatedAt: now.Add(-2 * time.Hour)},
		// Earlier this month: revenue and active users only.
		{Username: "jorge", Total: decimal.NewFromInt(12000), CreatedAt: now.AddDate(0, 0, -10)},
		{Username: "maria", Total: decimal.NewFromInt(10000), CreatedAt: now.AddDate(0, 0, -5)},
		// Last month: ignored everywhere.
		{Username: "laura", Total: decimal.NewFromInt(99000), CreatedAt: now.AddDate(0, -1, 0)},
	}

	agg := New(
		ComboListerFunc(func(ctx context.Context) ([]store.Combo, error) { return combos, nil }),
		OrderListerFunc(func(ctx context.Context) ([]store.Order, error) { return orders, nil }),
	)

	s, err := agg.Summary(context.Background(), now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if s.TotalCombos != 2 {
		t.Errorf("total combos: want 2 (active only), got %d", s.TotalCombos)
	}
	if s.OrdersToday != 1 {
		t.Errorf("orders today: want 1, got %d", s.OrdersToday)
	}
	if !s.RevenueThisMonth.Equal(decimal.NewFromInt(58000)) {
		t.Errorf("revenue this month: want 58000, got %s", s.RevenueThisMonth)
	}
	if s.ActiveUsers != 2 {
		t.Errorf("active users: want 2 distinct, got %d", s.ActiveUsers)
	}
}

func TestSummaryEmpty(t *testing.T) {
	agg := New(
		ComboListerFunc(func(ctx context.Context) ([]store.Combo, error) { return nil, nil }),
		OrderListerFunc(func(ctx context.Context) ([]store.Order, error) { return nil, nil }),
	)

	s, err := agg.Summary(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.TotalCombos != 0 || s.OrdersToday != 0 || s.ActiveUsers != 0 {
		t.Errorf("empty summary: %+v", s)
	}
	if !s.RevenueThisMonth.IsZero() {
		t.Errorf("empty revenue: %s", s.RevenueThisMonth)
	}
}
