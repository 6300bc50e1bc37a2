package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lunchuis/panel/internal/store"
	"github.com/shopspring/decimal"
)

// ComboRepo implements combo CRUD over the local store. Every mutating call
// rewrites the whole collection (last-writer-wins, no optimistic
// concurrency) — the same contract the persisted panel state always had.
type ComboRepo struct {
	store *store.Store
}

// NewComboRepo creates a new ComboRepo.
func NewComboRepo(s *store.Store) *ComboRepo {
	return &ComboRepo{store: s}
}

// CreateComboInput is the caller-supplied part of a new combo. ID, Active
// and CreatedAt are assigned here, never by the caller.
type CreateComboInput struct {
	Name           string
	Description    string
	DailyPrice     decimal.Decimal
	MonthlyPrice   decimal.Decimal
	AvailableQuota int
	CreatedBy      string
}

// UpdateComboInput is a shallow partial update; nil fields are left alone.
type UpdateComboInput struct {
	Name           *string
	Description    *string
	DailyPrice     *decimal.Decimal
	MonthlyPrice   *decimal.Decimal
	AvailableQuota *int
	Active         *bool
}

// List returns all combos in insertion order.
func (r *ComboRepo) List(ctx context.Context) ([]store.Combo, error) {
	return r.store.Combos()
}

// ListAvailable returns the user-facing catalog: active combos with stock.
func (r *ComboRepo) ListAvailable(ctx context.Context) ([]store.Combo, error) {
	combos, err := r.store.Combos()
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

// GetByID returns the combo with the given id, or ErrComboNotFound.
func (r *ComboRepo) GetByID(ctx context.Context, id uuid.UUID) (*store.Combo, error) {
	combos, err := r.store.Combos()
	if err != nil {
		return nil, err
	}
	for i := range combos {
		if combos[i].ID == id {
			return &combos[i], nil
		}
	}
	return nil, ErrComboNotFound
}

// Create validates in, assigns id/active/createdAt and appends the combo.
func (r *ComboRepo) Create(ctx context.Context, in CreateComboInput) (*store.Combo, error) {
	if err := validateComboInput(in.Name, in.DailyPrice, in.MonthlyPrice, in.AvailableQuota); err != nil {
		return nil, err
	}

	combo := store.Combo{
		ID:             uuid.New(),
		Name:           in.Name,
		Description:    in.Description,
		DailyPrice:     in.DailyPrice,
		MonthlyPrice:   in.MonthlyPrice,
		AvailableQuota: in.AvailableQuota,
		Active:         true,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      time.Now(),
	}

	err := r.store.Update(func(tx *store.Tx) error {
		combos, err := tx.Combos()
		if err != nil {
			return err
		}
		return tx.PutCombos(append(combos, combo))
	})
	if err != nil {
		return nil, fmt.Errorf("create combo: %w", err)
	}
	return &combo, nil
}

// Update merges the non-nil fields of in into the combo and stamps
// UpdatedAt. Returns ErrComboNotFound for an unknown id.
func (r *ComboRepo) Update(ctx context.Context, id uuid.UUID, in UpdateComboInput) (*store.Combo, error) {
	if in.DailyPrice != nil && in.DailyPrice.IsNegative() {
		return nil, &ValidationError{Field: "daily_price", Reason: "must not be negative"}
	}
	if in.MonthlyPrice != nil && in.MonthlyPrice.IsNegative() {
		return nil, &ValidationError{Field: "monthly_price", Reason: "must not be negative"}
	}
	if in.AvailableQuota != nil && *in.AvailableQuota < 0 {
		return nil, &ValidationError{Field: "available_quota", Reason: "must not be negative"}
	}
	if in.Name != nil && *in.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	var updated *store.Combo
	err := r.store.Update(func(tx *store.Tx) error {
		combos, err := tx.Combos()
		if err != nil {
			return err
		}
		idx := findCombo(combos, id)
		if idx < 0 {
			return ErrComboNotFound
		}

		c := &combos[idx]
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
		now := time.Now()
		c.UpdatedAt = &now

		cp := *c
		updated = &cp
		return tx.PutCombos(combos)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the combo with the given id. Deleting an absent id is a
// no-op success: deletion is idempotent, matching the filter-and-rewrite
// behavior the collection always had.
func (r *ComboRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.Update(func(tx *store.Tx) error {
		combos, err := tx.Combos()
		if err != nil {
			return err
		}
		kept := combos[:0]
		for _, c := range combos {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		return tx.PutCombos(kept)
	})
}

// SetActive toggles a combo's catalog visibility. Convenience over Update.
func (r *ComboRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*store.Combo, error) {
	return r.Update(ctx, id, UpdateComboInput{Active: &active})
}

func findCombo(combos []store.Combo, id uuid.UUID) int {
	for i := range combos {
		if combos[i].ID == id {
			return i
		}
	}
	return -1
}

func validateComboInput(name string, daily, monthly decimal.Decimal, quota int) error {
	if name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if daily.IsNegative() {
		return &ValidationError{Field: "daily_price", Reason: "must not be negative"}
	}
	if monthly.IsNegative() {
		return &ValidationError{Field: "monthly_price", Reason: "must not be negative"}
	}
	if quota < 0 {
		return &ValidationError{Field: "available_quota", Reason: "must not be negative"}
	}
	return nil
}
