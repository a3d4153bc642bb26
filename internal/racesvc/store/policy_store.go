package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/race-services/internal/racesvc/models"
	"github.com/jackc/pgx/v5"
)

type PolicyStore struct {
	tx pgx.Tx
}

func (s *PolicyStore) Get(ctx context.Context, feeAsset string) (*models.EntryFeePolicy, error) {
	query := `
		SELECT fee_asset, min_fee, max_class_1_fee, max_class_2_fee, max_class_3_fee,
		       max_class_4_fee, max_class_5_fee, created_at, updated_at
		FROM entry_fee_policies
		WHERE fee_asset = $1
	`

	policy := &models.EntryFeePolicy{}
	err := s.tx.QueryRow(ctx, query, feeAsset).Scan(
		&policy.FeeAsset,
		&policy.MinFee,
		&policy.MaxClass1Fee,
		&policy.MaxClass2Fee,
		&policy.MaxClass3Fee,
		&policy.MaxClass4Fee,
		&policy.MaxClass5Fee,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entry fee policy: %w", err)
	}

	return policy, nil
}

func (s *PolicyStore) Put(ctx context.Context, policy *models.EntryFeePolicy) error {
	query := `
		INSERT INTO entry_fee_policies
			(fee_asset, min_fee, max_class_1_fee, max_class_2_fee, max_class_3_fee,
			 max_class_4_fee, max_class_5_fee, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (fee_asset) DO UPDATE SET
			min_fee = EXCLUDED.min_fee,
			max_class_1_fee = EXCLUDED.max_class_1_fee,
			max_class_2_fee = EXCLUDED.max_class_2_fee,
			max_class_3_fee = EXCLUDED.max_class_3_fee,
			max_class_4_fee = EXCLUDED.max_class_4_fee,
			max_class_5_fee = EXCLUDED.max_class_5_fee,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.tx.Exec(ctx, query,
		policy.FeeAsset,
		policy.MinFee,
		policy.MaxClass1Fee,
		policy.MaxClass2Fee,
		policy.MaxClass3Fee,
		policy.MaxClass4Fee,
		policy.MaxClass5Fee,
		policy.CreatedAt,
		policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put entry fee policy: %w", err)
	}
	return nil
}

func (s *PolicyStore) Delete(ctx context.Context, feeAsset string) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM entry_fee_policies WHERE fee_asset = $1`, feeAsset)
	if err != nil {
		return fmt.Errorf("failed to delete entry fee policy: %w", err)
	}
	return nil
}
