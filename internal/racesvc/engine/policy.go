package engine

import (
	"context"

	"github.com/avvvet/race-services/internal/racesvc/models"
)

// InitEntryFeePolicy creates the fee bounds record for a fee asset. Admin
// only. Assets with supply <= 1 are rejected as fee currency unless they are
// the native wrapped asset.
func (e *Engine) InitEntryFeePolicy(ctx context.Context, authority string, policy models.EntryFeePolicy) error {
	if err := e.requireAuthority(authority); err != nil {
		return err
	}
	if err := validatePolicy(&policy); err != nil {
		return err
	}

	return e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		asset, err := tx.Assets().Get(ctx, policy.FeeAsset)
		if err != nil {
			return err
		}
		if asset == nil {
			return ErrAssetNotFound
		}
		if asset.ID != e.cfg.NativeAsset && asset.Supply <= 1 {
			return ErrNonFungibleFeeAsset
		}

		existing, err := tx.Policies().Get(ctx, policy.FeeAsset)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyExists
		}

		now := e.now()
		policy.CreatedAt = now
		policy.UpdatedAt = now
		return tx.Policies().Put(ctx, &policy)
	})
}

// UpdateEntryFeePolicy replaces the bounds for an existing policy in place.
// No history is kept.
func (e *Engine) UpdateEntryFeePolicy(ctx context.Context, authority string, policy models.EntryFeePolicy) error {
	if err := e.requireAuthority(authority); err != nil {
		return err
	}
	if err := validatePolicy(&policy); err != nil {
		return err
	}

	return e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.Policies().Get(ctx, policy.FeeAsset)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrPolicyNotFound
		}

		policy.CreatedAt = existing.CreatedAt
		policy.UpdatedAt = e.now()
		return tx.Policies().Put(ctx, &policy)
	})
}

// AdminCloseEntryFeePolicy removes a policy record.
func (e *Engine) AdminCloseEntryFeePolicy(ctx context.Context, authority, feeAsset string) error {
	if err := e.requireAuthority(authority); err != nil {
		return err
	}

	return e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.Policies().Get(ctx, feeAsset)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrPolicyNotFound
		}
		return tx.Policies().Delete(ctx, feeAsset)
	})
}
