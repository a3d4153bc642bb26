package engine

import (
	"context"

	"github.com/avvvet/race-services/internal/racesvc/models"
)

// CacheRace writes the immutable audit record for a race instance, keyed by
// (started-at, lobby, winner). Re-submission of the same key is rejected;
// the first snapshot is never overwritten.
func (e *Engine) CacheRace(ctx context.Context, authority, lobbyAddress, winnerRacer string, startedAt uint64) (*models.RaceSnapshot, error) {
	if err := e.requireAuthority(authority); err != nil {
		return nil, err
	}

	var snap *models.RaceSnapshot
	err := e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		lobby, err := tx.Lobbies().Get(ctx, lobbyAddress)
		if err != nil {
			return err
		}
		if lobby == nil {
			return ErrLobbyNotFound
		}
		if !lobby.Started {
			return ErrRaceNotStarted
		}
		if hasEmptySlot(lobby.Racers) {
			return ErrLobbyNotFull
		}

		winner, err := tx.Racers().Get(ctx, winnerRacer)
		if err != nil {
			return err
		}
		if winner == nil || winner.JoinedAt == 0 || winner.Lobby != lobby.Address {
			return ErrUnauthorizedRacer
		}
		if findSlot(lobby.Racers, winner.Address) < 0 {
			return ErrUnauthorizedRacer
		}

		racers := make([]string, len(lobby.Racers))
		copy(racers, lobby.Racers)

		snap = &models.RaceSnapshot{
			StartedAt:  startedAt,
			Lobby:      lobby.Address,
			Winner:     winner.Address,
			FeeAsset:   lobby.Keys.FeeAsset,
			TrackAsset: lobby.Keys.TrackAsset,
			TrackOwner: lobby.Keys.Owner,
			EntryFee:   lobby.Data.EntryFee,
			Racers:     racers,
			CreatedAt:  e.now(),
		}
		return e.snapshots.Create(ctx, snap)
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// GetRaceSnapshot returns a cached snapshot by its key.
func (e *Engine) GetRaceSnapshot(ctx context.Context, startedAt uint64, lobby, winner string) (*models.RaceSnapshot, error) {
	snap, err := e.snapshots.Get(ctx, startedAt, lobby, winner)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// AdminCloseRaceSnapshot removes a snapshot record.
func (e *Engine) AdminCloseRaceSnapshot(ctx context.Context, authority string, startedAt uint64, lobby, winner string) error {
	if err := e.requireAuthority(authority); err != nil {
		return err
	}
	snap, err := e.snapshots.Get(ctx, startedAt, lobby, winner)
	if err != nil {
		return err
	}
	if snap == nil {
		return ErrSnapshotNotFound
	}
	return e.snapshots.Delete(ctx, startedAt, lobby, winner)
}
