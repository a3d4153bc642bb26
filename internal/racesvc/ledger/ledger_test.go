package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveIsDeterministic(t *testing.T) {
	a := Derive("lobby", "owner", "track")
	b := Derive("lobby", "owner", "track")
	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestDeriveSeparatesSeedParts(t *testing.T) {
	// concatenation across part boundaries must not collide
	require.NotEqual(t, Derive("vault", "ab", "c"), Derive("vault", "a", "bc"))
	require.NotEqual(t, Derive("lobby", "x", "y"), Derive("racer", "x", "y"))
}

func TestAddressHelpersUseDistinctPrefixes(t *testing.T) {
	seen := map[string]bool{}
	for _, addr := range []string{
		LobbyAddress("k", "a"),
		RacerAddress("k", "a"),
		VaultAddress("k", "a"),
		StatsRecordAddress("k", "a"),
	} {
		require.False(t, seen[addr])
		seen[addr] = true
	}
}

func TestMulU64(t *testing.T) {
	v, err := MulU64(350, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(2800), v)

	v, err = MulU64(0, math.MaxUint64)
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)

	_, err = MulU64(math.MaxUint64, 2)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestAddSubU64(t *testing.T) {
	v, err := AddU64(math.MaxUint64-1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)

	_, err = AddU64(math.MaxUint64, 1)
	require.ErrorIs(t, err, ErrOverflow)

	v, err = SubU64(10, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)

	_, err = SubU64(9, 10)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestPercentageOfFloors(t *testing.T) {
	v, err := PercentageOf(2000, 20)
	require.NoError(t, err)
	require.Equal(t, uint64(400), v)

	// floor division
	v, err = PercentageOf(999, 20)
	require.NoError(t, err)
	require.Equal(t, uint64(199), v)

	_, err = PercentageOf(math.MaxUint64, 20)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestSaturatingSub(t *testing.T) {
	require.Equal(t, uint64(5), SaturatingSub(10, 5))
	require.Equal(t, uint64(0), SaturatingSub(5, 10))
}

// the remainder side absorbs rounding so the split always sums exactly
func TestSplitSumsExactly(t *testing.T) {
	for _, pool := range []uint64{0, 1, 99, 100, 999, 2000, 123456789} {
		cut, err := PercentageOf(pool, 20)
		require.NoError(t, err)
		rest := SaturatingSub(pool, cut)
		require.Equal(t, pool, cut+rest)
	}
}
