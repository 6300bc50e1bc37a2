// Package gateway routes panel reads and writes either to the backend
// services or to the local store, depending on backend availability.
//
// Reads probe once, try the remote path, and fall back to the local
// repositories on any failure. Writes pick one side up front: when the
// backend is reachable they go remote and any failure is surfaced — never
// silently retried against the local store, which would let the two copies
// of the truth diverge.
package gateway

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lunchuis/panel/internal/repo"
	"github.com/lunchuis/panel/internal/store"
)

// RemoteClient is the remote side of the gateway. Satisfied by *Client;
// narrow interface for testability.
type RemoteClient interface {
	Health(ctx context.Context) error
	ListCombos(ctx context.Context) ([]store.Combo, error)
	GetCombo(ctx context.Context, id uuid.UUID) (*store.Combo, error)
	CreateCombo(ctx context.Context, combo store.Combo) (*store.Combo, error)
	UpdateCombo(ctx context.Context, id uuid.UUID, combo store.Combo) (*store.Combo, error)
	DeleteCombo(ctx context.Context, id uuid.UUID) error
	ListOrders(ctx context.Context) ([]store.Order, error)
	CreateOrder(ctx context.Context, username string, comboID uuid.UUID, paymentMode string, quantity int) (*store.Order, error)
}

// Gateway is the hybrid data access layer.
type Gateway struct {
	remote       RemoteClient
	combos       *repo.ComboRepo
	orders       *repo.OrderRepo
	probeTimeout time.Duration
}

// New creates a Gateway over the given remote client and local repositories.
func New(remote RemoteClient, combos *repo.ComboRepo, orders *repo.OrderRepo, probeTimeout time.Duration) *Gateway {
	return &Gateway{
		remote:       remote,
		combos:       combos,
		orders:       orders,
		probeTimeout: probeTimeout,
	}
}

// IsRemoteAvailable probes the combo service health endpoint with a short
// timeout. It never returns an error; any failure just means "not available".
func (g *Gateway) IsRemoteAvailable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, g.probeTimeout)
	defer cancel()

	if err := g.remote.Health(probeCtx); err != nil {
		log.Printf("backend unavailable, using local data: %v", err)
		return false
	}
	return true
}

// --- Reads (silent local fallback) ---

// ResolveCombos returns the combo catalog: remote when the backend answers,
// local otherwise. One probe, one fetch; a fetch failure after a healthy
// probe still falls back rather than re-probing.
func (g *Gateway) ResolveCombos(ctx context.Context) ([]store.Combo, error) {
	if g.IsRemoteAvailable(ctx) {
		combos, err := g.remote.ListCombos(ctx)
		if err == nil {
			return combos, nil
		}
		log.Printf("ERROR: remote combo list failed, using local data: %v", err)
	}
	return g.combos.List(ctx)
}

// ResolveAvailableCombos returns the user-facing catalog (active, in stock).
func (g *Gateway) ResolveAvailableCombos(ctx context.Context) ([]store.Combo, error) {
	combos, err := g.ResolveCombos(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]store.Combo, 0, len(combos))
	for _, c := range combos {
		if c.Active && c.AvailableQuota > 0 {
			available = append(available, c)
		}
	}
	return available, nil
}

// GetCombo resolves a single combo, remote first with local fallback.
func (g *Gateway) GetCombo(ctx context.Context, id uuid.UUID) (*store.Combo, error) {
	if g.IsRemoteAvailable(ctx) {
		combo, err := g.remote.GetCombo(ctx, id)
		if err == nil {
			return combo, nil
		}
		log.Printf("ERROR: remote combo get failed, using local data: %v", err)
	}
	return g.combos.GetByID(ctx, id)
}

// ResolveOrders returns the order collection, remote first, local fallback.
func (g *Gateway) ResolveOrders(ctx context.Context) ([]store.Order, error) {
	if g.IsRemoteAvailable(ctx) {
		orders, err := g.remote.ListOrders(ctx)
		if err == nil {
			return orders, nil
		}
		log.Printf("ERROR: remote order list failed, using local data: %v", err)
	}
	return g.orders.ListAll(ctx)
}

// --- Writes (remote first, no silent fallback) ---

// CreateCombo creates a combo remotely when the backend is up, locally when
// it is down. A remote failure after a healthy probe is an error.
func (g *Gateway) CreateCombo(ctx context.Context, in repo.CreateComboInput) (*store.Combo, error) {
	if !g.IsRemoteAvailable(ctx) {
		return g.combos.Create(ctx, in)
	}
	combo, err := g.remote.CreateCombo(ctx, store.Combo{
		Name:           in.Name,
		Description:    in.Description,
		DailyPrice:     in.DailyPrice,
		MonthlyPrice:   in.MonthlyPrice,
		AvailableQuota: in.AvailableQuota,
		Active:         true,
	})
	if err != nil {
		return nil, &RemoteWriteError{Op: "create combo", Err: err}
	}
	return combo, nil
}

// UpdateCombo applies a partial update. The remote service takes full
// replacements, so the remote path reads the current record first.
func (g *Gateway) UpdateCombo(ctx context.Context, id uuid.UUID, in repo.UpdateComboInput) (*store.Combo, error) {
	if !g.IsRemoteAvailable(ctx) {
		return g.combos.Update(ctx, id, in)
	}

	current, err := g.remote.GetCombo(ctx, id)
	if err != nil {
		return nil, &RemoteWriteError{Op: "update combo", Err: err}
	}
	merged := mergeCombo(*current, in)
	updated, err := g.remote.UpdateCombo(ctx, id, merged)
	if err != nil {
		return nil, &RemoteWriteError{Op: "update combo", Err: err}
	}
	return updated, nil
}

// DeleteCombo deletes a combo, remote first.
func (g *Gateway) DeleteCombo(ctx context.Context, id uuid.UUID) error {
	if !g.IsRemoteAvailable(ctx) {
		return g.combos.Delete(ctx, id)
	}
	if err := g.remote.DeleteCombo(ctx, id); err != nil {
		return &RemoteWriteError{Op: "delete combo", Err: err}
	}
	return nil
}

// SetActive toggles a combo's catalog visibility.
func (g *Gateway) SetActive(ctx context.Context, id uuid.UUID, active bool) (*store.Combo, error) {
	return g.UpdateCombo(ctx, id, repo.UpdateComboInput{Active: &active})
}

// PlaceOrder places an order, remote first.
func (g *Gateway) PlaceOrder(ctx context.Context, in repo.PlaceOrderInput) (*store.Order, error) {
	if !g.IsRemoteAvailable(ctx) {
		return g.orders.PlaceOrder(ctx, in)
	}
	order, err := g.remote.CreateOrder(ctx, in.Username, in.ComboID, in.PaymentMode, in.Quantity)
	if err != nil {
		return nil, &RemoteWriteError{Op: "create order", Err: err}
	}
	return order, nil
}

func mergeCombo(c store.Combo, in repo.UpdateComboInput) store.Combo {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.DailyPrice != nil {
		c.DailyPrice = *in.DailyPrice
	}
	if in.MonthlyPrice != nil {
		c.MonthlyPrice = *in.MonthlyPrice
	}
	if in.AvailableQuota != nil {
		c.AvailableQuota = *in.AvailableQuota
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	return c
}
