package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/ledger"
	"github.com/avvvet/race-services/internal/racesvc/models"
	"github.com/stretchr/testify/require"
)

// startNativeRace opens a capacity-2 native asset lobby with entry fee 1000
// and fills it with two racers, holderA then holderB.
func startNativeRace(t *testing.T, env *testEnv) (*models.Lobby, *models.RacerRegistration, *models.RacerRegistration) {
	env.initPolicies()
	lobby := env.createLobby(nativeID, 2, env.lobbyData(1000, 1))
	r1 := env.registerRacer(holderA, "racer-1")
	r2 := env.registerRacer(holderB, "racer-2")
	env.fundAndJoin(holderA, r1, lobby)
	env.fundAndJoin(holderB, r2, lobby)
	return lobby, r1, r2
}

func concludeInput(env *testEnv, lobby *models.Lobby, racer *models.RacerRegistration, holder string, isWinner bool) engine.ConcludeInput {
	return engine.ConcludeInput{
		Authority:      authority,
		Lobby:          lobby.Address,
		Racer:          racer.Address,
		Holder:         holder,
		HolderFeeVault: ledger.VaultAddress(holder, lobby.Keys.FeeAsset),
		OwnerFeeVault:  lobby.Keys.OwnerFeeVault,
		IsWinner:       isWinner,
		NewWinPct:      66,
	}
}

// Shared pool, capacity 2, entry fee 1000: poolShare is the pool minus the
// collected network fees, the owner gets floor(20%), the winner the rest, and
// the two cuts sum to poolShare exactly.
func TestConcludeWinnerSettlesPrizePool(t *testing.T) {
	env := newTestEnv(t)
	lobby, r1, _ := startNativeRace(t, env)
	ctx := context.Background()

	totalNetworkFee := 2 * env.cfg.NetworkFee
	pool := env.store.Balance(lobby.Keys.FeeVault)
	require.Equal(t, 2*uint64(1000)+totalNetworkFee, pool)

	poolShare := pool - totalNetworkFee
	ownerCut := poolShare * env.cfg.TrackOwnerPct / 100
	winnerCut := poolShare - ownerCut
	require.Equal(t, poolShare, ownerCut+winnerCut)

	require.NoError(t, env.eng.ConcludeRace(ctx, concludeInput(env, lobby, r1, holderA, true)))

	require.Equal(t, ownerCut, env.store.Balance(lobby.Keys.OwnerFeeVault))
	require.Equal(t, winnerCut, env.store.Balance(ledger.VaultAddress(holderA, nativeID)))
	require.Equal(t, totalNetworkFee, env.store.Balance(ledger.VaultAddress(treasury, nativeID)))
	require.Equal(t, uint64(0), env.store.Balance(lobby.Keys.FeeVault))

	got, err := env.eng.GetRacer(ctx, r1.Address)
	require.NoError(t, err)
	require.True(t, got.Idle())
	require.Equal(t, uint64(1), got.TotalWins)
	require.Equal(t, []uint8{66}, env.stats.calls)

	// winner held slot 0, so the race is still running for slot 1
	gotLobby, err := env.eng.GetLobby(ctx, lobby.Address)
	require.NoError(t, err)
	require.True(t, gotLobby.Started)
	require.Equal(t, models.EmptySlot, gotLobby.Racers[0])
}

// Non-native fee asset, capacity 2, entry fee 350: the entry fees and the
// network fees sit in separate vaults, so the whole gold pool is the prize
// share while the native network vault is swept to the treasury on its own.
func TestConcludeWinnerWithSeparatePools(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	lobby := env.createLobby(goldID, 2, env.lobbyData(350, 3))
	r1 := env.registerRacer(holderA, "racer-1")
	r2 := env.registerRacer(holderB, "racer-2")
	env.fundAndJoin(holderA, r1, lobby)
	env.fundAndJoin(holderB, r2, lobby)
	ctx := context.Background()

	require.Equal(t, uint64(700), env.store.Balance(lobby.Keys.FeeVault))
	require.Equal(t, 2*env.cfg.NetworkFee, env.store.Balance(lobby.Keys.NetworkVault))

	require.NoError(t, env.eng.ConcludeRace(ctx, concludeInput(env, lobby, r1, holderA, true)))

	// the gold pool is not discounted by network fees
	require.Equal(t, uint64(140), env.store.Balance(lobby.Keys.OwnerFeeVault))
	require.Equal(t, uint64(560), env.store.Balance(ledger.VaultAddress(holderA, goldID)))
	require.Equal(t, uint64(0), env.store.Balance(lobby.Keys.FeeVault))

	// network fees travel separately, in the native asset
	require.Equal(t, 2*env.cfg.NetworkFee, env.store.Balance(ledger.VaultAddress(treasury, nativeID)))
	require.Equal(t, uint64(0), env.store.Balance(lobby.Keys.NetworkVault))

	got, err := env.eng.GetRacer(ctx, r1.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.TotalWins)
}

func TestConcludeLoserOnlyCountsTheLoss(t *testing.T) {
	env := newTestEnv(t)
	lobby, r1, _ := startNativeRace(t, env)
	ctx := context.Background()

	poolBefore := env.store.Balance(lobby.Keys.FeeVault)
	ownerBefore := env.store.Balance(lobby.Keys.OwnerFeeVault)

	require.NoError(t, env.eng.ConcludeRace(ctx, concludeInput(env, lobby, r1, holderA, false)))

	// zero transfers on a loss
	require.Equal(t, poolBefore, env.store.Balance(lobby.Keys.FeeVault))
	require.Equal(t, ownerBefore, env.store.Balance(lobby.Keys.OwnerFeeVault))

	got, err := env.eng.GetRacer(ctx, r1.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.TotalLosses)
	require.Equal(t, uint64(0), got.TotalWins)
	require.True(t, got.Idle())
}

func TestConcludeLastSlotResetsLobby(t *testing.T) {
	env := newTestEnv(t)
	lobby, r1, r2 := startNativeRace(t, env)
	ctx := context.Background()

	require.NoError(t, env.eng.ConcludeRace(ctx, concludeInput(env, lobby, r1, holderA, true)))
	require.NoError(t, env.eng.ConcludeRace(ctx, concludeInput(env, lobby, r2, holderB, false)))

	got, err := env.eng.GetLobby(ctx, lobby.Address)
	require.NoError(t, err)
	require.False(t, got.Started)
	for _, slot := range got.Racers {
		require.Equal(t, models.EmptySlot, slot)
	}
}

func TestConcludePreconditions(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	lobby := env.createLobby(nativeID, 2, env.lobbyData(1000, 1))
	r1 := env.registerRacer(holderA, "racer-1")
	env.fundAndJoin(holderA, r1, lobby)
	ctx := context.Background()

	in := concludeInput(env, lobby, r1, holderA, true)

	in.Authority = "nobody"
	require.ErrorIs(t, env.eng.ConcludeRace(ctx, in), engine.ErrUnauthorized)

	// race has not started, one slot is still empty
	in.Authority = authority
	require.ErrorIs(t, env.eng.ConcludeRace(ctx, in), engine.ErrRaceNotStarted)

	r2 := env.registerRacer(holderB, "racer-2")
	env.fundAndJoin(holderB, r2, lobby)

	// destination vault must be the canonical derivation for the holder
	bad := concludeInput(env, lobby, r1, holderA, true)
	bad.HolderFeeVault = ledger.VaultAddress(holderB, nativeID)
	require.ErrorIs(t, env.eng.ConcludeRace(ctx, bad), engine.ErrInvalidVault)

	bad = concludeInput(env, lobby, r1, holderA, true)
	bad.OwnerFeeVault = ledger.VaultAddress(holderB, nativeID)
	require.ErrorIs(t, env.eng.ConcludeRace(ctx, bad), engine.ErrInvalidVault)
}

// A failing stats update aborts the whole settlement: counters, slots and
// vault balances all stay as they were.
func TestConcludeRollsBackOnStatsFailure(t *testing.T) {
	env := newTestEnv(t)
	lobby, r1, _ := startNativeRace(t, env)
	ctx := context.Background()

	poolBefore := env.store.Balance(lobby.Keys.FeeVault)
	env.stats.setErr = errors.New("stats service down")

	err := env.eng.ConcludeRace(ctx, concludeInput(env, lobby, r1, holderA, true))
	require.Error(t, err)

	require.Equal(t, poolBefore, env.store.Balance(lobby.Keys.FeeVault))
	require.Equal(t, uint64(0), env.store.Balance(lobby.Keys.OwnerFeeVault))

	got, err := env.eng.GetRacer(ctx, r1.Address)
	require.NoError(t, err)
	require.False(t, got.Idle())
	require.Equal(t, uint64(0), got.TotalWins)

	gotLobby, err := env.eng.GetLobby(ctx, lobby.Address)
	require.NoError(t, err)
	require.Equal(t, r1.Address, gotLobby.Racers[0])
	require.True(t, gotLobby.Started)
}

// A snapshot key is writable at most once; the second cache attempt fails and
// the first record survives untouched.
func TestCacheRaceWriteOnce(t *testing.T) {
	env := newTestEnv(t)
	lobby, r1, _ := startNativeRace(t, env)
	ctx := context.Background()
	startedAt := uint64(env.clock.Unix())

	snap, err := env.eng.CacheRace(ctx, authority, lobby.Address, r1.Address, startedAt)
	require.NoError(t, err)
	require.Equal(t, r1.Address, snap.Winner)
	require.Equal(t, uint64(1000), snap.EntryFee)
	require.Len(t, snap.Racers, 2)

	_, err = env.eng.CacheRace(ctx, authority, lobby.Address, r1.Address, startedAt)
	require.ErrorIs(t, err, engine.ErrSnapshotExists)

	got, err := env.eng.GetRaceSnapshot(ctx, startedAt, lobby.Address, r1.Address)
	require.NoError(t, err)
	require.Equal(t, snap.CreatedAt, got.CreatedAt)
	require.Equal(t, snap.Racers, got.Racers)
}

func TestCacheRaceRequiresRunningFullLobby(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	lobby := env.createLobby(nativeID, 2, env.lobbyData(1000, 1))
	r1 := env.registerRacer(holderA, "racer-1")
	env.fundAndJoin(holderA, r1, lobby)
	ctx := context.Background()

	_, err := env.eng.CacheRace(ctx, authority, lobby.Address, r1.Address, uint64(env.clock.Unix()))
	require.ErrorIs(t, err, engine.ErrRaceNotStarted)

	r2 := env.registerRacer(holderB, "racer-2")
	env.fundAndJoin(holderB, r2, lobby)

	// winner must actually be a member
	outsider := env.registerRacer(holderC, "racer-3")
	_, err = env.eng.CacheRace(ctx, authority, lobby.Address, outsider.Address, uint64(env.clock.Unix()))
	require.ErrorIs(t, err, engine.ErrUnauthorizedRacer)
}

func TestAdminCloseRaceSnapshot(t *testing.T) {
	env := newTestEnv(t)
	lobby, r1, _ := startNativeRace(t, env)
	ctx := context.Background()
	startedAt := uint64(env.clock.Unix())

	require.ErrorIs(t,
		env.eng.AdminCloseRaceSnapshot(ctx, authority, startedAt, lobby.Address, r1.Address),
		engine.ErrSnapshotNotFound)

	_, err := env.eng.CacheRace(ctx, authority, lobby.Address, r1.Address, startedAt)
	require.NoError(t, err)

	require.NoError(t, env.eng.AdminCloseRaceSnapshot(ctx, authority, startedAt, lobby.Address, r1.Address))

	_, err = env.eng.GetRaceSnapshot(ctx, startedAt, lobby.Address, r1.Address)
	require.ErrorIs(t, err, engine.ErrSnapshotNotFound)
}
