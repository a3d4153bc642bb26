package engine

import (
	"context"
	"time"

	"github.com/avvvet/race-services/internal/racesvc/config"
	"github.com/avvvet/race-services/internal/racesvc/models"
)

// Store opens atomic units of work over the persistent race state. All
// mutations made through the Tx handed to fn take effect together when fn
// returns nil, or not at all when it returns an error.
type Store interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is one transactional view of the race state.
type Tx interface {
	Policies() PolicyRepo
	Lobbies() LobbyRepo
	Racers() RacerRepo
	Assets() AssetRepo
	Vaults() VaultRepo
}

// Repos return (nil, nil) when the record does not exist.

type PolicyRepo interface {
	Get(ctx context.Context, feeAsset string) (*models.EntryFeePolicy, error)
	Put(ctx context.Context, policy *models.EntryFeePolicy) error
	Delete(ctx context.Context, feeAsset string) error
}

type LobbyRepo interface {
	Get(ctx context.Context, address string) (*models.Lobby, error)
	Create(ctx context.Context, lobby *models.Lobby) error
	Update(ctx context.Context, lobby *models.Lobby) error
	Delete(ctx context.Context, address string) error
}

type RacerRepo interface {
	Get(ctx context.Context, address string) (*models.RacerRegistration, error)
	Create(ctx context.Context, racer *models.RacerRegistration) error
	Update(ctx context.Context, racer *models.RacerRegistration) error
	Delete(ctx context.Context, address string) error
	// ListJoinedBefore returns racers whose join timestamp is set and not
	// after the cutoff. Used by the stale sweeper.
	ListJoinedBefore(ctx context.Context, cutoff uint64) ([]*models.RacerRegistration, error)
}

type AssetRepo interface {
	Get(ctx context.Context, id string) (*models.Asset, error)
}

type VaultRepo interface {
	Get(ctx context.Context, address string) (*models.Vault, error)
	// Create allocates the canonical derived vault for (owner, asset).
	Create(ctx context.Context, owner, asset string) (*models.Vault, error)
	// Transfer moves base units between two vaults of the same asset.
	// Returns ErrInsufficientFunds when the source balance is too low.
	Transfer(ctx context.Context, from, to string, amount uint64) error
	// Close removes a vault; the balance must be zero.
	Close(ctx context.Context, address string) error
}

// SnapshotRepo is the append-only race snapshot archive. It lives outside the
// transactional store: a snapshot write is a single atomic insert keyed by
// (started-at, lobby, winner), rejected when the key already exists.
type SnapshotRepo interface {
	Create(ctx context.Context, snap *models.RaceSnapshot) error
	Get(ctx context.Context, startedAt uint64, lobby, winner string) (*models.RaceSnapshot, error)
	Delete(ctx context.Context, startedAt uint64, lobby, winner string) error
}

// StatsClient is the companion attribute program. SetWinPercentage is called
// inside the concluding unit of work, so its failure rolls the settlement
// back.
type StatsClient interface {
	IsRecordValid(ownerAuthority, asset, record string) bool
	SetWinPercentage(ctx context.Context, asset, record, authority, ownerAuthority string, winPct uint8) error
}

// Engine implements the lobby and race lifecycle transitions.
type Engine struct {
	cfg       config.Params
	store     Store
	snapshots SnapshotRepo
	stats     StatsClient
	now       func() time.Time
}

func New(cfg config.Params, store Store, snapshots SnapshotRepo, stats StatsClient) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     store,
		snapshots: snapshots,
		stats:     stats,
		now:       time.Now,
	}
}

// SetClock overrides the engine time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Engine) timestamp() uint64 {
	return uint64(e.now().Unix())
}

// requireAuthority gates privileged entry points to the fixed settlement
// signer.
func (e *Engine) requireAuthority(signer string) error {
	if signer != e.cfg.Authority {
		return ErrUnauthorized
	}
	return nil
}

// gate rejects non admin entry points while maintenance mode is on.
func (e *Engine) gate() error {
	if e.cfg.Maintenance {
		return ErrMaintenance
	}
	return nil
}

// GetLobby returns a lobby by address.
func (e *Engine) GetLobby(ctx context.Context, address string) (*models.Lobby, error) {
	var lobby *models.Lobby
	err := e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		l, err := tx.Lobbies().Get(ctx, address)
		if err != nil {
			return err
		}
		if l == nil {
			return ErrLobbyNotFound
		}
		lobby = l
		return nil
	})
	return lobby, err
}

// GetRacer returns a racer registration by address.
func (e *Engine) GetRacer(ctx context.Context, address string) (*models.RacerRegistration, error) {
	var racer *models.RacerRegistration
	err := e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		r, err := tx.Racers().Get(ctx, address)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrRacerNotFound
		}
		racer = r
		return nil
	})
	return racer, err
}

// GetPolicy returns the entry fee policy for a fee asset.
func (e *Engine) GetPolicy(ctx context.Context, feeAsset string) (*models.EntryFeePolicy, error) {
	var policy *models.EntryFeePolicy
	err := e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		p, err := tx.Policies().Get(ctx, feeAsset)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPolicyNotFound
		}
		policy = p
		return nil
	})
	return policy, err
}

// GetAsset returns an asset definition by id.
func (e *Engine) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	var asset *models.Asset
	err := e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		a, err := tx.Assets().Get(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return ErrAssetNotFound
		}
		asset = a
		return nil
	})
	return asset, err
}

// GetVault returns a vault by address.
func (e *Engine) GetVault(ctx context.Context, address string) (*models.Vault, error) {
	var vault *models.Vault
	err := e.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		v, err := tx.Vaults().Get(ctx, address)
		if err != nil {
			return err
		}
		if v == nil {
			return ErrVaultNotFound
		}
		vault = v
		return nil
	})
	return vault, err
}
