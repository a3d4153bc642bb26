package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/models"
	"github.com/stretchr/testify/require"
)

func TestInitPolicyValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.goldPolicy()
	p.MinFee = 0
	require.ErrorIs(t, env.eng.InitEntryFeePolicy(ctx, authority, p), engine.ErrInvalidFeePolicy)

	p = env.goldPolicy()
	p.MaxClass3Fee = p.MaxClass2Fee // not strictly increasing
	require.ErrorIs(t, env.eng.InitEntryFeePolicy(ctx, authority, p), engine.ErrInvalidFeePolicy)

	p = env.goldPolicy()
	p.MinFee = p.MaxClass1Fee // floor must sit below the first ceiling
	require.ErrorIs(t, env.eng.InitEntryFeePolicy(ctx, authority, p), engine.ErrInvalidFeePolicy)

	require.ErrorIs(t, env.eng.InitEntryFeePolicy(ctx, "not-the-authority", env.goldPolicy()), engine.ErrUnauthorized)

	require.NoError(t, env.eng.InitEntryFeePolicy(ctx, authority, env.goldPolicy()))
	require.ErrorIs(t, env.eng.InitEntryFeePolicy(ctx, authority, env.goldPolicy()), engine.ErrAlreadyExists)
}

func TestInitPolicyRejectsNonFungibleFeeAsset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.goldPolicy()
	p.FeeAsset = trackID // supply of one
	require.ErrorIs(t, env.eng.InitEntryFeePolicy(ctx, authority, p), engine.ErrNonFungibleFeeAsset)

	p.FeeAsset = "unknown-asset"
	require.ErrorIs(t, env.eng.InitEntryFeePolicy(ctx, authority, p), engine.ErrAssetNotFound)
}

func TestUpdatePolicy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.ErrorIs(t, env.eng.UpdateEntryFeePolicy(ctx, authority, env.goldPolicy()), engine.ErrPolicyNotFound)

	require.NoError(t, env.eng.InitEntryFeePolicy(ctx, authority, env.goldPolicy()))
	created, err := env.eng.GetPolicy(ctx, goldID)
	require.NoError(t, err)

	env.advance(time.Hour)

	updated := env.goldPolicy()
	updated.MinFee = 150
	require.NoError(t, env.eng.UpdateEntryFeePolicy(ctx, authority, updated))

	got, err := env.eng.GetPolicy(ctx, goldID)
	require.NoError(t, err)
	require.Equal(t, uint64(150), got.MinFee)
	require.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestAdminClosePolicy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.ErrorIs(t, env.eng.AdminCloseEntryFeePolicy(ctx, authority, goldID), engine.ErrPolicyNotFound)

	require.NoError(t, env.eng.InitEntryFeePolicy(ctx, authority, env.goldPolicy()))
	require.NoError(t, env.eng.AdminCloseEntryFeePolicy(ctx, authority, goldID))

	_, err := env.eng.GetPolicy(ctx, goldID)
	require.ErrorIs(t, err, engine.ErrPolicyNotFound)
}

// Policy min_fee=100, ceilings 200..600: a class-3 lobby accepts entry fee
// 350 and rejects 450.
func TestEntryFeeBoundsPerClass(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	ctx := context.Background()

	env.store.FundVault(ownerKey, trackID, 1)
	env.store.FundVault(ownerKey, goldID, 0)

	_, err := env.eng.CreateLobby(ctx, engine.CreateLobbyInput{
		Owner: ownerKey, TrackAsset: trackID, FeeAsset: goldID, Capacity: 2,
		Data: env.lobbyData(450, 3),
	})
	require.ErrorIs(t, err, engine.ErrInvalidLobbyMetadata)

	lobby, err := env.eng.CreateLobby(ctx, engine.CreateLobbyInput{
		Owner: ownerKey, TrackAsset: trackID, FeeAsset: goldID, Capacity: 2,
		Data: env.lobbyData(350, 3),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(350), lobby.Data.EntryFee)
}

func TestLobbyMetadataValidation(t *testing.T) {
	env := newTestEnv(t)
	env.initPolicies()
	ctx := context.Background()

	env.store.FundVault(ownerKey, trackID, 1)
	env.store.FundVault(ownerKey, goldID, 0)

	cases := []func(*models.LobbyData){
		func(d *models.LobbyData) { d.Name = "tiny" },
		func(d *models.LobbyData) { d.Location = "a very long location that exceeds the cap" },
		func(d *models.LobbyData) { d.MinClass = 0 },
		func(d *models.LobbyData) { d.MinClass = 6 },
		func(d *models.LobbyData) { d.TotalLaps = 0 },
		func(d *models.LobbyData) { d.TotalLaps = 5 },
		func(d *models.LobbyData) { d.TrackVariant = "lava" },
		func(d *models.LobbyData) { d.EntryFee = 99 }, // below the floor
	}

	for _, mutate := range cases {
		data := env.lobbyData(350, 3)
		mutate(&data)
		_, err := env.eng.CreateLobby(ctx, engine.CreateLobbyInput{
			Owner: ownerKey, TrackAsset: trackID, FeeAsset: goldID, Capacity: 2,
			Data: data,
		})
		require.ErrorIs(t, err, engine.ErrInvalidLobbyMetadata)
	}
}
