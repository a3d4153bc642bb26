package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/race-services/internal/racesvc/ledger"
	"github.com/avvvet/race-services/internal/racesvc/models"
	log "github.com/sirupsen/logrus"
)

// RegisterRacerInput carries a holder's one-time membership request for a
// racer asset.
type RegisterRacerInput struct {
	Holder         string `json:"holder"`
	Asset          string `json:"asset"`
	StatsRecord    string `json:"stats_record"`
	OwnerAuthority string `json:"owner_authority"`
}

// RegisterRacer creates the persistent registration for (asset, stats
// record). The holder must own exactly one unit of the asset and the stats
// record must be the canonical one for the asset.
func (e *Engine) RegisterRacer(ctx context.Context, in RegisterRacerInput) (*models.RacerRegistration, error) {
	if err := e.gate(); err != nil {
		return nil, err
	}
	if !e.stats.IsRecordValid(in.OwnerAuthority, in.Asset, in.StatsRecord) {
		return nil, ErrInvalidStatsRecord
	}

	var racer *models.RacerRegistration
	err := e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		asset, err := tx.Assets().Get(ctx, in.Asset)
		if err != nil {
			return err
		}
		if asset == nil {
			return ErrAssetNotFound
		}

		holding, err := tx.Vaults().Get(ctx, ledger.VaultAddress(in.Holder, in.Asset))
		if err != nil {
			return err
		}
		if holding == nil || holding.Balance != 1 {
			return ErrUnauthorizedRacer
		}

		address := ledger.RacerAddress(in.Asset, in.StatsRecord)
		existing, err := tx.Racers().Get(ctx, address)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyExists
		}

		now := e.now()
		racer = &models.RacerRegistration{
			Address:        address,
			Asset:          in.Asset,
			StatsRecord:    in.StatsRecord,
			OwnerAuthority: in.OwnerAuthority,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.Racers().Create(ctx, racer)
	})
	if err != nil {
		return nil, err
	}
	return racer, nil
}

// JoinRace enrolls an idle racer into a lobby: lowest empty slot, join
// timestamp stamped, entry fee and network fee collected into the lobby
// pools. The join that fills the last slot flips the lobby to started; the
// returned flag reports whether this join did.
func (e *Engine) JoinRace(ctx context.Context, holder, racerAddress, lobbyAddress string) (bool, error) {
	if err := e.gate(); err != nil {
		return false, err
	}

	started := false
	err := e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		racer, err := tx.Racers().Get(ctx, racerAddress)
		if err != nil {
			return err
		}
		if racer == nil {
			return ErrRacerNotFound
		}
		if !racer.Idle() {
			return ErrAlreadyRacing
		}
		if !e.stats.IsRecordValid(racer.OwnerAuthority, racer.Asset, racer.StatsRecord) {
			return ErrInvalidStatsRecord
		}

		lobby, err := tx.Lobbies().Get(ctx, lobbyAddress)
		if err != nil {
			return err
		}
		if lobby == nil {
			return ErrLobbyNotFound
		}
		if lobby.Started {
			return ErrRaceStarted
		}

		slot := findSlot(lobby.Racers, models.EmptySlot)
		if slot < 0 {
			return ErrLobbyFull
		}

		holding, err := tx.Vaults().Get(ctx, ledger.VaultAddress(holder, racer.Asset))
		if err != nil {
			return err
		}
		if holding == nil || holding.Balance != 1 {
			return ErrUnauthorizedRacer
		}

		feeVault := ledger.VaultAddress(holder, lobby.Keys.FeeAsset)
		hfv, err := tx.Vaults().Get(ctx, feeVault)
		if err != nil {
			return err
		}
		if hfv == nil || hfv.Balance < lobby.Data.EntryFee {
			return ErrInsufficientFee
		}

		networkVault := ledger.VaultAddress(holder, e.cfg.NativeAsset)
		hnv, err := tx.Vaults().Get(ctx, networkVault)
		if err != nil {
			return err
		}
		if hnv == nil || hnv.Balance < e.cfg.NetworkFee {
			return ErrInsufficientNetwork
		}

		now := e.timestamp()
		lobby.Racers[slot] = racer.Address
		racer.Lobby = lobby.Address
		racer.JoinedAt = now
		racer.FeeVault = feeVault

		if err := tx.Vaults().Transfer(ctx, networkVault, lobby.Keys.NetworkVault, e.cfg.NetworkFee); err != nil {
			return fmt.Errorf("network fee collection: %w", err)
		}
		if err := tx.Vaults().Transfer(ctx, feeVault, lobby.Keys.FeeVault, lobby.Data.EntryFee); err != nil {
			return fmt.Errorf("entry fee collection: %w", err)
		}

		// the join that fills the last slot starts the race
		lobby.Started = !hasEmptySlot(lobby.Racers)
		started = lobby.Started
		lobby.UpdatedAt = e.now()
		racer.UpdatedAt = e.now()

		if err := tx.Racers().Update(ctx, racer); err != nil {
			return err
		}
		if err := tx.Lobbies().Update(ctx, lobby); err != nil {
			return err
		}

		log.Infof("racer %s joined lobby %s at slot %d, started=%v", racer.Address, lobby.Address, slot+1, lobby.Started)
		return nil
	})
	if err != nil {
		return false, err
	}
	return started, nil
}

// LeaveRace lets a holder withdraw a racer before the race starts. Fees are
// refunded in full; no staleness timer applies.
func (e *Engine) LeaveRace(ctx context.Context, holder, racerAddress, lobbyAddress string) error {
	if err := e.gate(); err != nil {
		return err
	}

	return e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		racer, lobby, err := e.memberOf(ctx, tx, racerAddress, lobbyAddress)
		if err != nil {
			return err
		}
		if lobby.Started {
			return ErrRaceStarted
		}

		// only the holder who paid the entry fee may withdraw the racer
		paid, err := tx.Vaults().Get(ctx, racer.FeeVault)
		if err != nil {
			return err
		}
		if paid == nil || paid.Owner != holder {
			return ErrUnauthorizedRacer
		}

		return e.evictRacer(ctx, tx, lobby, racer)
	})
}

// FlushStaleRacer force-evicts a racer whose join has gone stale, keeping a
// never-filling lobby live. Authority only; refunds both fees to the
// original holder.
func (e *Engine) FlushStaleRacer(ctx context.Context, authority, racerAddress, lobbyAddress string) error {
	if err := e.requireAuthority(authority); err != nil {
		return err
	}

	return e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		racer, lobby, err := e.memberOf(ctx, tx, racerAddress, lobbyAddress)
		if err != nil {
			return err
		}
		if lobby.Started {
			return ErrRaceStarted
		}

		elapsed, err := ledger.SubU64(e.timestamp(), racer.JoinedAt)
		if err != nil {
			return ErrMathOverflow
		}
		if elapsed < e.cfg.StaleCooldown {
			return ErrRacerNotStale
		}
		if !e.stats.IsRecordValid(racer.OwnerAuthority, racer.Asset, racer.StatsRecord) {
			return ErrInvalidStatsRecord
		}

		return e.evictRacer(ctx, tx, lobby, racer)
	})
}

// AdminCloseRacer removes a racer registration record.
func (e *Engine) AdminCloseRacer(ctx context.Context, authority, racerAddress string) error {
	if err := e.requireAuthority(authority); err != nil {
		return err
	}

	return e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		racer, err := tx.Racers().Get(ctx, racerAddress)
		if err != nil {
			return err
		}
		if racer == nil {
			return ErrRacerNotFound
		}
		return tx.Racers().Delete(ctx, racerAddress)
	})
}

// SweepStaleRacers flushes every stale racer in one pass. Racers whose race
// is already running are left alone. Returns the number of racers evicted;
// other flush failures are logged and skipped.
func (e *Engine) SweepStaleRacers(ctx context.Context) (int, error) {
	cutoff, err := ledger.SubU64(e.timestamp(), e.cfg.StaleCooldown)
	if err != nil {
		return 0, ErrMathOverflow
	}

	var stale []*models.RacerRegistration
	err = e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		stale, err = tx.Racers().ListJoinedBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}

	flushed := 0
	for _, racer := range stale {
		if err := e.FlushStaleRacer(ctx, e.cfg.Authority, racer.Address, racer.Lobby); err != nil {
			if !errors.Is(err, ErrRaceStarted) {
				log.Warnf("sweep: flush racer %s: %v", racer.Address, err)
			}
			continue
		}
		flushed++
	}
	return flushed, nil
}

// memberOf loads a racer and its lobby and verifies the membership link both
// ways.
func (e *Engine) memberOf(ctx context.Context, tx Tx, racerAddress, lobbyAddress string) (*models.RacerRegistration, *models.Lobby, error) {
	racer, err := tx.Racers().Get(ctx, racerAddress)
	if err != nil {
		return nil, nil, err
	}
	if racer == nil {
		return nil, nil, ErrRacerNotFound
	}
	lobby, err := tx.Lobbies().Get(ctx, lobbyAddress)
	if err != nil {
		return nil, nil, err
	}
	if lobby == nil {
		return nil, nil, ErrLobbyNotFound
	}
	if racer.JoinedAt == 0 || racer.Lobby != lobby.Address {
		return nil, nil, ErrUnauthorizedRacer
	}
	return racer, lobby, nil
}

// evictRacer refunds the entry fee and network fee to the racer's original
// holder, clears the slot and the membership fields and forces the lobby
// back to not-started.
func (e *Engine) evictRacer(ctx context.Context, tx Tx, lobby *models.Lobby, racer *models.RacerRegistration) error {
	slot := findSlot(lobby.Racers, racer.Address)
	if slot < 0 {
		return ErrInvalidSlot
	}

	paid, err := tx.Vaults().Get(ctx, racer.FeeVault)
	if err != nil {
		return err
	}
	if paid == nil {
		return ErrVaultNotFound
	}

	holderNetworkVault, err := e.ensureVault(ctx, tx, paid.Owner, e.cfg.NativeAsset)
	if err != nil {
		return err
	}
	if err := tx.Vaults().Transfer(ctx, lobby.Keys.NetworkVault, holderNetworkVault, e.cfg.NetworkFee); err != nil {
		return fmt.Errorf("network fee refund: %w", err)
	}
	if err := tx.Vaults().Transfer(ctx, lobby.Keys.FeeVault, racer.FeeVault, lobby.Data.EntryFee); err != nil {
		return fmt.Errorf("entry fee refund: %w", err)
	}

	lobby.Racers[slot] = models.EmptySlot
	lobby.Started = false
	lobby.UpdatedAt = e.now()

	racer.Lobby = ""
	racer.JoinedAt = 0
	racer.FeeVault = ""
	racer.UpdatedAt = e.now()

	if err := tx.Racers().Update(ctx, racer); err != nil {
		return err
	}
	if err := tx.Lobbies().Update(ctx, lobby); err != nil {
		return err
	}

	log.Infof("racer %s evicted from lobby %s", racer.Address, lobby.Address)
	return nil
}
