package memstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/ledger"
	"github.com/avvvet/race-services/internal/racesvc/memstore"
	"github.com/avvvet/race-services/internal/racesvc/models"
	"github.com/stretchr/testify/require"
)

func TestAtomicCommitsOnSuccess(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	err := st.Atomic(ctx, func(ctx context.Context, tx engine.Tx) error {
		_, err := tx.Vaults().Create(ctx, "owner", "asset")
		return err
	})
	require.NoError(t, err)

	require.Equal(t, uint64(0), st.Balance(ledger.VaultAddress("owner", "asset")))
	err = st.Atomic(ctx, func(ctx context.Context, tx engine.Tx) error {
		v, err := tx.Vaults().Get(ctx, ledger.VaultAddress("owner", "asset"))
		require.NoError(t, err)
		require.NotNil(t, v)
		return nil
	})
	require.NoError(t, err)
}

func TestAtomicRollsBackOnError(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	from := st.FundVault("alice", "gold", 100)
	to := st.FundVault("bob", "gold", 0)

	boom := errors.New("boom")
	err := st.Atomic(ctx, func(ctx context.Context, tx engine.Tx) error {
		if err := tx.Vaults().Transfer(ctx, from, to, 60); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// the transfer never took effect
	require.Equal(t, uint64(100), st.Balance(from))
	require.Equal(t, uint64(0), st.Balance(to))
}

func TestTransferGuardsBalanceAndAsset(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	from := st.FundVault("alice", "gold", 10)
	to := st.FundVault("bob", "gold", 0)
	other := st.FundVault("bob", "silver", 0)

	err := st.Atomic(ctx, func(ctx context.Context, tx engine.Tx) error {
		return tx.Vaults().Transfer(ctx, from, to, 11)
	})
	require.ErrorIs(t, err, engine.ErrInsufficientFunds)

	err = st.Atomic(ctx, func(ctx context.Context, tx engine.Tx) error {
		return tx.Vaults().Transfer(ctx, from, other, 5)
	})
	require.ErrorIs(t, err, engine.ErrInvalidVault)

	err = st.Atomic(ctx, func(ctx context.Context, tx engine.Tx) error {
		return tx.Vaults().Transfer(ctx, from, "missing", 5)
	})
	require.ErrorIs(t, err, engine.ErrVaultNotFound)
}

func TestVaultCloseRequiresZeroBalance(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	addr := st.FundVault("alice", "gold", 1)

	err := st.Atomic(ctx, func(ctx context.Context, tx engine.Tx) error {
		return tx.Vaults().Close(ctx, addr)
	})
	require.ErrorIs(t, err, engine.ErrVaultNotEmpty)
}

func TestSnapshotsWriteOnce(t *testing.T) {
	snaps := memstore.NewSnapshots()
	ctx := context.Background()

	snap := &models.RaceSnapshot{StartedAt: 7, Lobby: "l", Winner: "w", Racers: []string{"w", "x"}}
	require.NoError(t, snaps.Create(ctx, snap))
	require.ErrorIs(t, snaps.Create(ctx, snap), engine.ErrSnapshotExists)

	got, err := snaps.Get(ctx, 7, "l", "w")
	require.NoError(t, err)
	require.Equal(t, []string{"w", "x"}, got.Racers)

	require.NoError(t, snaps.Delete(ctx, 7, "l", "w"))
	got, err = snaps.Get(ctx, 7, "l", "w")
	require.NoError(t, err)
	require.Nil(t, got)
}
