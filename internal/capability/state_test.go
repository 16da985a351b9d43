package capability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var detectorTestTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestState_SetGetReset(t *testing.T) {
	state := NewState()

	_, ok := state.Get()
	require.False(t, ok)

	state.Set(true, "trial transaction committed", detectorTestTime)
	snap, ok := state.Get()
	require.True(t, ok)
	require.True(t, snap.Supported)
	require.Equal(t, detectorTestTime, snap.DetectedAt)

	state.Reset()
	_, ok = state.Get()
	require.False(t, ok)
}
