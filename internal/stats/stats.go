// Package stats derives the admin dashboard numbers by scanning the combo
// and order collections. Nothing here is persisted; every call recomputes
// from the stores.
package stats

import (
	"context"
	"time"

	"github.com/lunchuis/panel/internal/store"
	"github.com/shopspring/decimal"
)

// ComboLister and OrderLister are the read sides the aggregator scans.
// Satisfied by the repositories, or adapted from any compatible function.
type ComboLister interface {
	List(ctx context.Context) ([]store.Combo, error)
}

type OrderLister interface {
	ListAll(ctx context.Context) ([]store.Order, error)
}

// ComboListerFunc adapts a plain function to the ComboLister interface.
type ComboListerFunc func(ctx context.Context) ([]store.Combo, error)

func (f ComboListerFunc) List(ctx context.Context) ([]store.Combo, error) { return f(ctx) }

// OrderListerFunc adapts a plain function to the OrderLister interface.
type OrderListerFunc func(ctx context.Context) ([]store.Order, error)

func (f OrderListerFunc) ListAll(ctx context.Context) ([]store.Order, error) { return f(ctx) }

// Summary is the dashboard snapshot.
type Summary struct {
	TotalCombos      int             `json:"total_combos"` // active combos only
	OrdersToday      int             `json:"orders_today"`
	RevenueThisMonth decimal.Decimal `json:"revenue_this_month"`
	ActiveUsers      int             `json:"active_users"` // best effort, see Aggregator docs
}

// Aggregator computes dashboard summaries.
//
// ActiveUsers counts distinct usernames with at least one order in the
// current calendar month. There is no login history to derive real activity
// from, so this is a best-effort stand-in.
type Aggregator struct {
	combos ComboLister
	orders OrderLister
}

// New creates an Aggregator over the given read sides.
func New(combos ComboLister, orders OrderLister) *Aggregator {
	return &Aggregator{combos: combos, orders: orders}
}

// Summary computes the dashboard numbers relative to now.
func (a *Aggregator) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	combos, err := a.combos.List(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := a.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	s := &Summary{RevenueThisMonth: decimal.Zero}

	for _, c := range combos {
		if c.Active {
			s.TotalCombos++
		}
	}

	users := make(map[string]struct{})
	for _, o := range orders {
		if sameDay(o.CreatedAt, now) {
			s.OrdersToday++
		}
		if sameMonth(o.CreatedAt, now) {
			s.RevenueThisMonth = s.RevenueThisMonth.Add(o.Total)
			users[o.Username] = struct{}{}
		}
	}
	s.ActiveUsers = len(users)

	return s, nil
}

func sameDay(t, now time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func sameMonth(t, now time.Time) bool {
	y1, m1, _ := t.Date()
	y2, m2, _ := now.Date()
	return y1 == y2 && m1 == m2
}
