package engine

import (
	"context"
	"fmt"

	"github.com/avvvet/race-services/internal/racesvc/ledger"
	"github.com/avvvet/race-services/internal/racesvc/models"
	log "github.com/sirupsen/logrus"
)

// ConcludeInput is one per-racer outcome submitted by the settlement
// authority after the off-ledger race.
type ConcludeInput struct {
	Authority      string `json:"authority"`
	Lobby          string `json:"lobby"`
	Racer          string `json:"racer"`
	Holder         string `json:"holder"`
	HolderFeeVault string `json:"holder_fee_vault"`
	OwnerFeeVault  string `json:"owner_fee_vault"`
	IsWinner       bool   `json:"is_winner"`
	NewWinPct      uint8  `json:"new_win_pct"`
}

// ConcludeRace settles one racer's outcome. A loss only increments the loss
// counter. A win splits the prize pool between the track owner and the
// winning holder and forwards the collected network fees to the treasury.
// Either way the racer is cleared from the lobby, and concluding the
// occupant of the last slot resets the whole lobby. The stats collaborator
// update shares the unit of work: its failure rolls the settlement back.
func (e *Engine) ConcludeRace(ctx context.Context, in ConcludeInput) error {
	if err := e.requireAuthority(in.Authority); err != nil {
		return err
	}

	return e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		racer, lobby, err := e.memberOf(ctx, tx, in.Racer, in.Lobby)
		if err != nil {
			return err
		}
		if !lobby.Started {
			return ErrRaceNotStarted
		}

		slot := findSlot(lobby.Racers, racer.Address)
		if slot < 0 {
			return ErrUnauthorizedRacer
		}
		if !e.stats.IsRecordValid(racer.OwnerAuthority, racer.Asset, racer.StatsRecord) {
			return ErrInvalidStatsRecord
		}

		if in.IsWinner {
			if err := e.settleWin(ctx, tx, lobby, racer, in); err != nil {
				return err
			}
			racer.TotalWins++
		} else {
			racer.TotalLosses++
		}

		lobby.Racers[slot] = models.EmptySlot
		if slot == int(lobby.Capacity)-1 {
			// the last slot's conclusion resets the session
			log.Infof("resetting lobby %s", lobby.Address)
			lobby.Started = false
			lobby.Racers = fillEmptySlots(lobby.Capacity)
		}
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

		return e.stats.SetWinPercentage(ctx, racer.Asset, racer.StatsRecord, in.Authority, racer.OwnerAuthority, in.NewWinPct)
	})
}

// settleWin runs the prize transfers for a winning conclusion.
func (e *Engine) settleWin(ctx context.Context, tx Tx, lobby *models.Lobby, racer *models.RacerRegistration, in ConcludeInput) error {
	feeAsset := lobby.Keys.FeeAsset

	// destination accounts must be the canonical derived vaults
	if in.HolderFeeVault != ledger.VaultAddress(in.Holder, feeAsset) || in.HolderFeeVault != racer.FeeVault {
		return ErrInvalidVault
	}
	if in.OwnerFeeVault != ledger.VaultAddress(lobby.Keys.Owner, feeAsset) || in.OwnerFeeVault != lobby.Keys.OwnerFeeVault {
		return ErrInvalidVault
	}

	totalEntryFee, err := ledger.MulU64(lobby.Data.EntryFee, uint64(lobby.Capacity))
	if err != nil {
		return ErrMathOverflow
	}
	totalNetworkFee, err := ledger.MulU64(e.cfg.NetworkFee, uint64(lobby.Capacity))
	if err != nil {
		return ErrMathOverflow
	}

	feePool, err := tx.Vaults().Get(ctx, lobby.Keys.FeeVault)
	if err != nil {
		return err
	}
	networkPool, err := tx.Vaults().Get(ctx, lobby.Keys.NetworkVault)
	if err != nil {
		return err
	}
	if feePool == nil || networkPool == nil {
		return ErrVaultNotFound
	}
	if feePool.Balance < totalEntryFee {
		return ErrInsufficientFee
	}
	if networkPool.Balance < totalNetworkFee {
		return ErrInsufficientNetwork
	}

	// with a shared pool the network fees sit inside the entry fee balance
	poolShare := feePool.Balance
	if feeAsset == e.cfg.NativeAsset {
		poolShare, err = ledger.SubU64(feePool.Balance, totalNetworkFee)
		if err != nil {
			return ErrMathOverflow
		}
	}

	ownerCut, err := ledger.PercentageOf(poolShare, e.cfg.TrackOwnerPct)
	if err != nil {
		return ErrMathOverflow
	}
	winnerCut := ledger.SaturatingSub(poolShare, ownerCut)

	log.Infof("settling lobby %s: owner cut %d, winner cut %d, network fees %d",
		lobby.Address, ownerCut, winnerCut, totalNetworkFee)

	if err := tx.Vaults().Transfer(ctx, lobby.Keys.FeeVault, in.OwnerFeeVault, ownerCut); err != nil {
		return fmt.Errorf("owner cut transfer: %w", err)
	}
	if err := tx.Vaults().Transfer(ctx, lobby.Keys.FeeVault, in.HolderFeeVault, winnerCut); err != nil {
		return fmt.Errorf("winner cut transfer: %w", err)
	}

	treasuryVault, err := e.ensureVault(ctx, tx, e.cfg.Treasury, e.cfg.NativeAsset)
	if err != nil {
		return err
	}
	if err := tx.Vaults().Transfer(ctx, lobby.Keys.NetworkVault, treasuryVault, totalNetworkFee); err != nil {
		return fmt.Errorf("network fee transfer: %w", err)
	}
	return nil
}
