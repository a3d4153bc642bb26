package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/race-services/internal/racesvc/models"
	"github.com/jackc/pgx/v5"
)

type RacerStore struct {
	tx pgx.Tx
}

const racerColumns = `
	address, asset, stats_record, owner_authority, lobby, joined_at, fee_vault,
	total_wins, total_losses, created_at, updated_at
`

func scanRacer(row pgx.Row) (*models.RacerRegistration, error) {
	racer := &models.RacerRegistration{}
	err := row.Scan(
		&racer.Address,
		&racer.Asset,
		&racer.StatsRecord,
		&racer.OwnerAuthority,
		&racer.Lobby,
		&racer.JoinedAt,
		&racer.FeeVault,
		&racer.TotalWins,
		&racer.TotalLosses,
		&racer.CreatedAt,
		&racer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return racer, nil
}

func (s *RacerStore) Get(ctx context.Context, address string) (*models.RacerRegistration, error) {
	query := `
		SELECT ` + racerColumns + `
		FROM racer_registrations
		WHERE address = $1
		FOR UPDATE
	`

	racer, err := scanRacer(s.tx.QueryRow(ctx, query, address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get racer: %w", err)
	}
	return racer, nil
}

func (s *RacerStore) Create(ctx context.Context, racer *models.RacerRegistration) error {
	query := `
		INSERT INTO racer_registrations (` + racerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.tx.Exec(ctx, query,
		racer.Address,
		racer.Asset,
		racer.StatsRecord,
		racer.OwnerAuthority,
		racer.Lobby,
		racer.JoinedAt,
		racer.FeeVault,
		racer.TotalWins,
		racer.TotalLosses,
		racer.CreatedAt,
		racer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create racer: %w", err)
	}
	return nil
}

func (s *RacerStore) Update(ctx context.Context, racer *models.RacerRegistration) error {
	query := `
		UPDATE racer_registrations SET
			lobby = $2, joined_at = $3, fee_vault = $4,
			total_wins = $5, total_losses = $6, updated_at = $7
		WHERE address = $1
	`

	tag, err := s.tx.Exec(ctx, query,
		racer.Address,
		racer.Lobby,
		racer.JoinedAt,
		racer.FeeVault,
		racer.TotalWins,
		racer.TotalLosses,
		racer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update racer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("racer %s not found for update", racer.Address)
	}
	return nil
}

func (s *RacerStore) Delete(ctx context.Context, address string) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM racer_registrations WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("failed to delete racer: %w", err)
	}
	return nil
}

// ListJoinedBefore returns every racer currently enrolled whose join
// timestamp is at or before the cutoff.
func (s *RacerStore) ListJoinedBefore(ctx context.Context, cutoff uint64) ([]*models.RacerRegistration, error) {
	query := `
		SELECT ` + racerColumns + `
		FROM racer_registrations
		WHERE joined_at > 0 AND joined_at <= $1
	`

	rows, err := s.tx.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale racers: %w", err)
	}
	defer rows.Close()

	var racers []*models.RacerRegistration
	for rows.Next() {
		racer, err := scanRacer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan racer: %w", err)
		}
		racers = append(racers, racer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stale racers: %w", err)
	}
	return racers, nil
}
