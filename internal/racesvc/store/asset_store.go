package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/race-services/internal/racesvc/models"
	"github.com/jackc/pgx/v5"
)

type AssetStore struct {
	tx pgx.Tx
}

func (s *AssetStore) Get(ctx context.Context, id string) (*models.Asset, error) {
	query := `
		SELECT id, name, supply, decimals, creators
		FROM assets
		WHERE id = $1
	`

	asset := &models.Asset{}
	err := s.tx.QueryRow(ctx, query, id).Scan(
		&asset.ID,
		&asset.Name,
		&asset.Supply,
		&asset.Decimals,
		&asset.Creators,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return asset, nil
}
