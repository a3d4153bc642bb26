package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateUniqueInstance(t *testing.T) {
	first := CreateUniqueInstance("race")
	require.Equal(t, first, GetInstanceId())
	require.Len(t, first, 36)

	second := CreateUniqueInstance("race")
	require.NotEqual(t, first, second)
}
