package engine

import (
	"context"
	"fmt"

	"github.com/avvvet/race-services/internal/racesvc/ledger"
	"github.com/avvvet/race-services/internal/racesvc/models"
	log "github.com/sirupsen/logrus"
)

// CreateLobbyInput carries the owner request to open a race session.
type CreateLobbyInput struct {
	Owner      string           `json:"owner"`
	TrackAsset string           `json:"track_asset"`
	FeeAsset   string           `json:"fee_asset"`
	Capacity   uint8            `json:"capacity"`
	Data       models.LobbyData `json:"data"`
}

// CreateLobby opens a race session: validates the track attestation and the
// session metadata against the fee policy, allocates the custodial vaults,
// takes one track asset unit into custody and locks the lobby against
// closure for the cooldown period.
func (e *Engine) CreateLobby(ctx context.Context, in CreateLobbyInput) (*models.Lobby, error) {
	if err := e.gate(); err != nil {
		return nil, err
	}
	if in.Capacity < 2 {
		return nil, ErrInvalidCapacity
	}

	var lobby *models.Lobby
	err := e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		track, err := tx.Assets().Get(ctx, in.TrackAsset)
		if err != nil {
			return err
		}
		if track == nil || !e.isTrackValid(track) {
			return ErrInvalidTrack
		}

		policy, err := tx.Policies().Get(ctx, in.FeeAsset)
		if err != nil {
			return err
		}
		if policy == nil {
			return ErrPolicyNotFound
		}
		if !isLobbyMetadataValid(&in.Data, policy) {
			return ErrInvalidLobbyMetadata
		}

		address := ledger.LobbyAddress(in.Owner, in.TrackAsset)
		existing, err := tx.Lobbies().Get(ctx, address)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyExists
		}

		// the owner must hold exactly one unit of the track asset
		ownerTrackVault := ledger.VaultAddress(in.Owner, in.TrackAsset)
		otv, err := tx.Vaults().Get(ctx, ownerTrackVault)
		if err != nil {
			return err
		}
		if otv == nil || otv.Balance != 1 {
			return ErrUnauthorizedOwner
		}

		// settlement later pays the owner cut into this vault
		ownerFeeVault := ledger.VaultAddress(in.Owner, in.FeeAsset)
		ofv, err := tx.Vaults().Get(ctx, ownerFeeVault)
		if err != nil {
			return err
		}
		if ofv == nil {
			return ErrVaultNotFound
		}

		feeVault, err := tx.Vaults().Create(ctx, address, in.FeeAsset)
		if err != nil {
			return err
		}

		// the network fee pool shares the entry fee vault when the fee asset
		// is the native wrapped asset
		networkVault := feeVault
		if in.FeeAsset != e.cfg.NativeAsset {
			networkVault, err = tx.Vaults().Create(ctx, address, e.cfg.NativeAsset)
			if err != nil {
				return err
			}
		}

		trackVault, err := tx.Vaults().Create(ctx, address, in.TrackAsset)
		if err != nil {
			return err
		}

		if err := tx.Vaults().Transfer(ctx, ownerTrackVault, trackVault.Address, 1); err != nil {
			return fmt.Errorf("track custody transfer: %w", err)
		}

		now := e.now()
		lobby = &models.Lobby{
			Address:    address,
			Capacity:   in.Capacity,
			Started:    false,
			UnlockTime: uint64(now.Unix()) + e.cfg.CloseCooldown,
			Keys: models.LobbyKeys{
				TrackAsset:      in.TrackAsset,
				FeeAsset:        in.FeeAsset,
				TrackMetadata:   ledger.Derive("metadata", in.TrackAsset),
				FeeVault:        feeVault.Address,
				TrackVault:      trackVault.Address,
				NetworkVault:    networkVault.Address,
				Owner:           in.Owner,
				OwnerTrackVault: ownerTrackVault,
				OwnerFeeVault:   ownerFeeVault,
			},
			Racers:    fillEmptySlots(in.Capacity),
			Data:      in.Data,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := tx.Lobbies().Create(ctx, lobby); err != nil {
			return err
		}

		log.Infof("lobby %s created, capacity %d, unlock at %d", address, in.Capacity, lobby.UnlockTime)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lobby, nil
}

// CloseLobby tears a session down on the owner's request. Allowed only after
// the unlock time, when no race has started and every slot is vacant. The
// track unit goes back to the owner, residual network fees are swept to the
// treasury and all three vaults are closed.
func (e *Engine) CloseLobby(ctx context.Context, owner, trackAsset string) error {
	if err := e.gate(); err != nil {
		return err
	}

	return e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		lobby, err := tx.Lobbies().Get(ctx, ledger.LobbyAddress(owner, trackAsset))
		if err != nil {
			return err
		}
		if lobby == nil {
			return ErrLobbyNotFound
		}
		if lobby.Keys.Owner != owner {
			return ErrUnauthorizedOwner
		}
		if e.timestamp() < lobby.UnlockTime {
			return ErrLobbyLocked
		}
		if lobby.Started {
			return ErrRaceStarted
		}
		if !isVacant(lobby.Racers) {
			return ErrLobbyOccupied
		}

		feeVault, err := tx.Vaults().Get(ctx, lobby.Keys.FeeVault)
		if err != nil {
			return err
		}
		if feeVault == nil {
			return ErrVaultNotFound
		}
		sharedPool := lobby.Keys.NetworkVault == lobby.Keys.FeeVault
		if !sharedPool && feeVault.Balance != 0 {
			return ErrVaultNotEmpty
		}

		if err := tx.Vaults().Transfer(ctx, lobby.Keys.TrackVault, lobby.Keys.OwnerTrackVault, 1); err != nil {
			return fmt.Errorf("track return transfer: %w", err)
		}

		if err := e.sweepToTreasury(ctx, tx, lobby.Keys.NetworkVault); err != nil {
			return err
		}

		if err := tx.Vaults().Close(ctx, lobby.Keys.FeeVault); err != nil {
			return err
		}
		if !sharedPool {
			if err := tx.Vaults().Close(ctx, lobby.Keys.NetworkVault); err != nil {
				return err
			}
		}
		if err := tx.Vaults().Close(ctx, lobby.Keys.TrackVault); err != nil {
			return err
		}

		log.Infof("closing lobby %s", lobby.Address)
		return tx.Lobbies().Delete(ctx, lobby.Address)
	})
}

// AdminCloseLobby is the privileged teardown: no unlock time or occupancy
// preconditions. Entry fee and network fee residuals are refunded to the
// owner; anything left after the refunds is swept to the rebate destination
// the admin names.
func (e *Engine) AdminCloseLobby(ctx context.Context, authority, lobbyAddress, rebateDest string) error {
	if err := e.requireAuthority(authority); err != nil {
		return err
	}

	return e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		lobby, err := tx.Lobbies().Get(ctx, lobbyAddress)
		if err != nil {
			return err
		}
		if lobby == nil {
			return ErrLobbyNotFound
		}

		if err := tx.Vaults().Transfer(ctx, lobby.Keys.TrackVault, lobby.Keys.OwnerTrackVault, 1); err != nil {
			return fmt.Errorf("track return transfer: %w", err)
		}

		// refund residual pools to the owner
		if err := e.refundResidual(ctx, tx, lobby.Keys.FeeVault, lobby.Keys.Owner, lobby.Keys.FeeAsset, rebateDest); err != nil {
			return err
		}
		sharedPool := lobby.Keys.NetworkVault == lobby.Keys.FeeVault
		if !sharedPool {
			if err := e.refundResidual(ctx, tx, lobby.Keys.NetworkVault, lobby.Keys.Owner, e.cfg.NativeAsset, rebateDest); err != nil {
				return err
			}
		}

		if err := tx.Vaults().Close(ctx, lobby.Keys.FeeVault); err != nil {
			return err
		}
		if !sharedPool {
			if err := tx.Vaults().Close(ctx, lobby.Keys.NetworkVault); err != nil {
				return err
			}
		}
		if err := tx.Vaults().Close(ctx, lobby.Keys.TrackVault); err != nil {
			return err
		}

		log.Infof("admin closing lobby %s", lobby.Address)
		return tx.Lobbies().Delete(ctx, lobby.Address)
	})
}

// ExtendLobbyCapacityStorage pads a lobby whose racer sequence is shorter
// than its capacity with empty slots. A lobby that already holds capacity
// slots is left untouched.
func (e *Engine) ExtendLobbyCapacityStorage(ctx context.Context, authority, lobbyAddress string) error {
	if err := e.requireAuthority(authority); err != nil {
		return err
	}

	return e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		lobby, err := tx.Lobbies().Get(ctx, lobbyAddress)
		if err != nil {
			return err
		}
		if lobby == nil {
			return ErrLobbyNotFound
		}
		if len(lobby.Racers) >= int(lobby.Capacity) {
			return nil
		}
		for len(lobby.Racers) < int(lobby.Capacity) {
			lobby.Racers = append(lobby.Racers, models.EmptySlot)
		}
		lobby.UpdatedAt = e.now()
		return tx.Lobbies().Update(ctx, lobby)
	})
}

// sweepToTreasury moves any remaining balance of a lobby vault to the
// treasury's vault of the same asset, creating it when missing.
func (e *Engine) sweepToTreasury(ctx context.Context, tx Tx, from string) error {
	vault, err := tx.Vaults().Get(ctx, from)
	if err != nil {
		return err
	}
	if vault == nil {
		return ErrVaultNotFound
	}
	if vault.Balance == 0 {
		return nil
	}
	dest, err := e.ensureVault(ctx, tx, e.cfg.Treasury, vault.Asset)
	if err != nil {
		return err
	}
	return tx.Vaults().Transfer(ctx, from, dest, vault.Balance)
}

// refundResidual drains a lobby vault to the owner's vault of the same
// asset; when the owner has no such vault the balance goes to the rebate
// destination instead.
func (e *Engine) refundResidual(ctx context.Context, tx Tx, from, owner, asset, rebateDest string) error {
	vault, err := tx.Vaults().Get(ctx, from)
	if err != nil {
		return err
	}
	if vault == nil {
		return ErrVaultNotFound
	}
	if vault.Balance == 0 {
		return nil
	}

	dest, err := tx.Vaults().Get(ctx, ledger.VaultAddress(owner, asset))
	if err != nil {
		return err
	}
	destAddr := ""
	if dest != nil {
		destAddr = dest.Address
	} else {
		destAddr, err = e.ensureVault(ctx, tx, rebateDest, asset)
		if err != nil {
			return err
		}
	}
	return tx.Vaults().Transfer(ctx, from, destAddr, vault.Balance)
}

// ensureVault returns the canonical vault address for (owner, asset),
// creating the vault when it does not exist yet.
func (e *Engine) ensureVault(ctx context.Context, tx Tx, owner, asset string) (string, error) {
	address := ledger.VaultAddress(owner, asset)
	vault, err := tx.Vaults().Get(ctx, address)
	if err != nil {
		return "", err
	}
	if vault != nil {
		return address, nil
	}
	created, err := tx.Vaults().Create(ctx, owner, asset)
	if err != nil {
		return "", err
	}
	return created.Address, nil
}
