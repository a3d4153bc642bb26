package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/race-services/internal/racesvc/models"
	"github.com/jackc/pgx/v5"
)

type LobbyStore struct {
	tx pgx.Tx
}

const lobbyColumns = `
	address, capacity, started, unlock_time,
	track_asset, fee_asset, track_metadata, fee_vault, track_vault, network_vault,
	owner, owner_track_vault, owner_fee_vault,
	racers, total_laps, min_class, entry_fee, name, location, track_variant,
	created_at, updated_at
`

func (s *LobbyStore) Get(ctx context.Context, address string) (*models.Lobby, error) {
	query := `
		SELECT ` + lobbyColumns + `
		FROM lobbies
		WHERE address = $1
		FOR UPDATE
	`

	lobby := &models.Lobby{}
	err := s.tx.QueryRow(ctx, query, address).Scan(
		&lobby.Address,
		&lobby.Capacity,
		&lobby.Started,
		&lobby.UnlockTime,
		&lobby.Keys.TrackAsset,
		&lobby.Keys.FeeAsset,
		&lobby.Keys.TrackMetadata,
		&lobby.Keys.FeeVault,
		&lobby.Keys.TrackVault,
		&lobby.Keys.NetworkVault,
		&lobby.Keys.Owner,
		&lobby.Keys.OwnerTrackVault,
		&lobby.Keys.OwnerFeeVault,
		&lobby.Racers,
		&lobby.Data.TotalLaps,
		&lobby.Data.MinClass,
		&lobby.Data.EntryFee,
		&lobby.Data.Name,
		&lobby.Data.Location,
		&lobby.Data.TrackVariant,
		&lobby.CreatedAt,
		&lobby.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lobby: %w", err)
	}

	return lobby, nil
}

func (s *LobbyStore) Create(ctx context.Context, lobby *models.Lobby) error {
	query := `
		INSERT INTO lobbies (` + lobbyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
		        $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := s.tx.Exec(ctx, query,
		lobby.Address,
		lobby.Capacity,
		lobby.Started,
		lobby.UnlockTime,
		lobby.Keys.TrackAsset,
		lobby.Keys.FeeAsset,
		lobby.Keys.TrackMetadata,
		lobby.Keys.FeeVault,
		lobby.Keys.TrackVault,
		lobby.Keys.NetworkVault,
		lobby.Keys.Owner,
		lobby.Keys.OwnerTrackVault,
		lobby.Keys.OwnerFeeVault,
		lobby.Racers,
		lobby.Data.TotalLaps,
		lobby.Data.MinClass,
		lobby.Data.EntryFee,
		lobby.Data.Name,
		lobby.Data.Location,
		lobby.Data.TrackVariant,
		lobby.CreatedAt,
		lobby.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lobby: %w", err)
	}
	return nil
}

func (s *LobbyStore) Update(ctx context.Context, lobby *models.Lobby) error {
	query := `
		UPDATE lobbies SET
			capacity = $2, started = $3, unlock_time = $4,
			racers = $5, updated_at = $6
		WHERE address = $1
	`

	tag, err := s.tx.Exec(ctx, query,
		lobby.Address,
		lobby.Capacity,
		lobby.Started,
		lobby.UnlockTime,
		lobby.Racers,
		lobby.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update lobby: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lobby %s not found for update", lobby.Address)
	}
	return nil
}

func (s *LobbyStore) Delete(ctx context.Context, address string) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM lobbies WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("failed to delete lobby: %w", err)
	}
	return nil
}
