package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/ledger"
	"github.com/avvvet/race-services/internal/racesvc/models"
	"github.com/stretchr/testify/require"
)

func TestRegisterRacerPreconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.store.PutAsset(&models.Asset{ID: "racer-1", Name: "Racer racer-1", Supply: 1})

	_, err := env.eng.RegisterRacer(ctx, engine.RegisterRacerInput{
		Holder: holderA, Asset: "racer-1",
		StatsRecord:    "wrong-record",
		OwnerAuthority: ownerAuth,
	})
	require.ErrorIs(t, err, engine.ErrInvalidStatsRecord)

	// holder does not own the racer unit
	_, err = env.eng.RegisterRacer(ctx, engine.RegisterRacerInput{
		Holder: holderA, Asset: "racer-1",
		StatsRecord:    ledger.StatsRecordAddress(ownerAuth, "racer-1"),
		OwnerAuthority: ownerAuth,
	})
	require.ErrorIs(t, err, engine.ErrUnauthorizedRacer)

	env.store.FundVault(holderA, "racer-1", 1)
	racer, err := env.eng.RegisterRacer(ctx, engine.RegisterRacerInput{
		Holder: holderA, Asset: "racer-1",
		StatsRecord:    ledger.StatsRecordAddress(ownerAuth, "racer-1"),
		OwnerAuthority: ownerAuth,
	})
	require.NoError(t, err)
	require.True(t, racer.Idle())
	require.Equal(t, ledger.RacerAddress("racer-1", racer.StatsRecord), racer.Address)

	_, err = env.eng.RegisterRacer(ctx, engine.RegisterRacerInput{
		Holder: holderA, Asset: "racer-1",
		StatsRecord:    ledger.StatsRecordAddress(ownerAuth, "racer-1"),
		OwnerAuthority: ownerAuth,
	})
	require.ErrorIs(t, err, engine.ErrAlreadyExists)
}

// Capacity-2 lobby: the first join leaves started false, the join filling the
// last slot flips it, and any further join is rejected.
func TestJoinRaceFillsSlotsInOrder(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	lobby := env.createLobby(goldID, 2, env.lobbyData(350, 3))
	r1 := env.registerRacer(holderA, "racer-1")
	r2 := env.registerRacer(holderB, "racer-2")
	r3 := env.registerRacer(holderC, "racer-3")
	ctx := context.Background()

	require.False(t, env.fundAndJoin(holderA, r1, lobby))

	got, err := env.eng.GetLobby(ctx, lobby.Address)
	require.NoError(t, err)
	require.Equal(t, r1.Address, got.Racers[0])
	require.Equal(t, models.EmptySlot, got.Racers[1])
	require.False(t, got.Started)

	// filling the last slot reports the start synchronously
	require.True(t, env.fundAndJoin(holderB, r2, lobby))

	got, err = env.eng.GetLobby(ctx, lobby.Address)
	require.NoError(t, err)
	require.Equal(t, r2.Address, got.Racers[1])
	require.True(t, got.Started)

	// lobby is full and running
	env.store.FundVault(holderC, goldID, 350)
	env.store.FundVault(holderC, nativeID, env.cfg.NetworkFee)
	_, err = env.eng.JoinRace(ctx, holderC, r3.Address, lobby.Address)
	require.ErrorIs(t, err, engine.ErrRaceStarted)

	// fees collected into the lobby pools
	require.Equal(t, uint64(700), env.store.Balance(lobby.Keys.FeeVault))
	require.Equal(t, 2*env.cfg.NetworkFee, env.store.Balance(lobby.Keys.NetworkVault))
	require.Equal(t, uint64(0), env.store.Balance(ledger.VaultAddress(holderA, goldID)))
}

func TestJoinRaceRejectsDoubleEntry(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	lobby := env.createLobby(goldID, 3, env.lobbyData(350, 3))
	r1 := env.registerRacer(holderA, "racer-1")
	env.fundAndJoin(holderA, r1, lobby)
	ctx := context.Background()

	env.store.FundVault(holderA, goldID, 350)
	env.store.FundVault(holderA, nativeID, env.cfg.NetworkFee)
	_, err := env.eng.JoinRace(ctx, holderA, r1.Address, lobby.Address)
	require.ErrorIs(t, err, engine.ErrAlreadyRacing)
}

func TestJoinRaceRequiresFunds(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	lobby := env.createLobby(goldID, 2, env.lobbyData(350, 3))
	r1 := env.registerRacer(holderA, "racer-1")
	ctx := context.Background()

	env.store.FundVault(holderA, goldID, 349)
	env.store.FundVault(holderA, nativeID, env.cfg.NetworkFee)
	_, err := env.eng.JoinRace(ctx, holderA, r1.Address, lobby.Address)
	require.ErrorIs(t, err, engine.ErrInsufficientFee)

	env.store.FundVault(holderA, goldID, 350)
	env.store.FundVault(holderA, nativeID, env.cfg.NetworkFee-1)
	_, err = env.eng.JoinRace(ctx, holderA, r1.Address, lobby.Address)
	require.ErrorIs(t, err, engine.ErrInsufficientNetwork)
}

func TestLeaveRaceRefundsInFull(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	lobby := env.createLobby(goldID, 2, env.lobbyData(350, 3))
	r1 := env.registerRacer(holderA, "racer-1")
	env.fundAndJoin(holderA, r1, lobby)
	ctx := context.Background()

	// only the paying holder may withdraw
	require.ErrorIs(t, env.eng.LeaveRace(ctx, holderB, r1.Address, lobby.Address), engine.ErrUnauthorizedRacer)

	require.NoError(t, env.eng.LeaveRace(ctx, holderA, r1.Address, lobby.Address))

	require.Equal(t, uint64(350), env.store.Balance(ledger.VaultAddress(holderA, goldID)))
	require.Equal(t, env.cfg.NetworkFee, env.store.Balance(ledger.VaultAddress(holderA, nativeID)))
	require.Equal(t, uint64(0), env.store.Balance(lobby.Keys.FeeVault))

	got, err := env.eng.GetRacer(ctx, r1.Address)
	require.NoError(t, err)
	require.True(t, got.Idle())

	gotLobby, err := env.eng.GetLobby(ctx, lobby.Address)
	require.NoError(t, err)
	require.Equal(t, models.EmptySlot, gotLobby.Racers[0])
	require.False(t, gotLobby.Started)
}

// Racer joins at t=0: a flush after 1000s is premature, a flush after 1801s
// refunds both fees and empties the slot.
func TestFlushStaleRacer(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	lobby := env.createLobby(goldID, 2, env.lobbyData(350, 3))
	r1 := env.registerRacer(holderA, "racer-1")
	env.fundAndJoin(holderA, r1, lobby)
	ctx := context.Background()

	require.ErrorIs(t, env.eng.FlushStaleRacer(ctx, "nobody", r1.Address, lobby.Address), engine.ErrUnauthorized)

	env.advance(1000 * time.Second)
	require.ErrorIs(t, env.eng.FlushStaleRacer(ctx, authority, r1.Address, lobby.Address), engine.ErrRacerNotStale)

	env.advance(801 * time.Second)
	require.NoError(t, env.eng.FlushStaleRacer(ctx, authority, r1.Address, lobby.Address))

	require.Equal(t, uint64(350), env.store.Balance(ledger.VaultAddress(holderA, goldID)))
	require.Equal(t, env.cfg.NetworkFee, env.store.Balance(ledger.VaultAddress(holderA, nativeID)))

	got, err := env.eng.GetRacer(ctx, r1.Address)
	require.NoError(t, err)
	require.True(t, got.Idle())

	gotLobby, err := env.eng.GetLobby(ctx, lobby.Address)
	require.NoError(t, err)
	require.False(t, gotLobby.Started)
	require.Equal(t, models.EmptySlot, gotLobby.Racers[0])
}

func TestFlushRejectsNonMember(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	lobby := env.createLobby(goldID, 2, env.lobbyData(350, 3))
	r1 := env.registerRacer(holderA, "racer-1")
	ctx := context.Background()

	// idle racer is not a member of the lobby
	require.ErrorIs(t, env.eng.FlushStaleRacer(ctx, authority, r1.Address, lobby.Address), engine.ErrUnauthorizedRacer)
}

func TestSweepStaleRacers(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	lobby := env.createLobby(goldID, 3, env.lobbyData(350, 3))
	r1 := env.registerRacer(holderA, "racer-1")
	r2 := env.registerRacer(holderB, "racer-2")
	env.fundAndJoin(holderA, r1, lobby)
	ctx := context.Background()

	env.advance(time.Duration(env.cfg.StaleCooldown) * time.Second)
	env.fundAndJoin(holderB, r2, lobby) // fresh join, must survive the sweep

	flushed, err := env.eng.SweepStaleRacers(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, flushed)

	got, err := env.eng.GetRacer(ctx, r1.Address)
	require.NoError(t, err)
	require.True(t, got.Idle())

	got, err = env.eng.GetRacer(ctx, r2.Address)
	require.NoError(t, err)
	require.False(t, got.Idle())
}

// Once the race is running its racers stop being sweepable, no matter how old
// their join timestamps are.
func TestSweepLeavesRunningRacesAlone(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	lobby := env.createLobby(goldID, 2, env.lobbyData(350, 3))
	r1 := env.registerRacer(holderA, "racer-1")
	r2 := env.registerRacer(holderB, "racer-2")
	env.fundAndJoin(holderA, r1, lobby)
	require.True(t, env.fundAndJoin(holderB, r2, lobby))
	ctx := context.Background()

	env.advance(time.Duration(env.cfg.StaleCooldown+1) * time.Second)

	flushed, err := env.eng.SweepStaleRacers(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, flushed)

	gotLobby, err := env.eng.GetLobby(ctx, lobby.Address)
	require.NoError(t, err)
	require.True(t, gotLobby.Started)
	require.Equal(t, r1.Address, gotLobby.Racers[0])
	require.Equal(t, r2.Address, gotLobby.Racers[1])
}

func TestAdminCloseRacer(t *testing.T) {
	env := newTestEnv(t)
	r1 := env.registerRacer(holderA, "racer-1")
	ctx := context.Background()

	require.ErrorIs(t, env.eng.AdminCloseRacer(ctx, authority, "missing"), engine.ErrRacerNotFound)
	require.NoError(t, env.eng.AdminCloseRacer(ctx, authority, r1.Address))

	_, err := env.eng.GetRacer(ctx, r1.Address)
	require.ErrorIs(t, err, engine.ErrRacerNotFound)
}
