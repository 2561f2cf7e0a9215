package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreBoardAccumulates(t *testing.T) {
	b := NewScoreBoard()
	b.Add(map[string]int{"DataAnalyst": 2, "BackendDev": 1})
	b.Add(map[string]int{"DataAnalyst": 2})
	b.Add(map[string]int{"PM": 2})

	assert.Equal(t, 4, b.Score("DataAnalyst"))
	assert.Equal(t, 1, b.Score("BackendDev"))
	assert.Equal(t, 2, b.Score("PM"))
	assert.Equal(t, 0, b.Score("FrontendDev"))

	code, ok := b.Best()
	require.True(t, ok)
	assert.Equal(t, "DataAnalyst", code)
}

func TestScoreBoardOrderIndependentTotals(t *testing.T) {
	maps := []map[string]int{
		{"BackendDev": 2},
		{"DataAnalyst": 2, "BackendDev": 1},
		{"PM": 2},
	}

	forward := NewScoreBoard()
	for _, m := range maps {
		forward.Add(m)
	}
	backward := NewScoreBoard()
	for i := len(maps) - 1; i >= 0; i-- {
		backward.Add(maps[i])
	}

	assert.Equal(t, forward.Totals(), backward.Totals())
}

func TestScoreBoardTieBreakFirstSeen(t *testing.T) {
	b := NewScoreBoard()
	b.Add(map[string]int{"BackendDev": 2})
	b.Add(map[string]int{"FrontendDev": 2})

	code, ok := b.Best()
	require.True(t, ok)
	assert.Equal(t, "BackendDev", code, "earliest profession on the board wins ties")
}

func TestScoreBoardBestEmpty(t *testing.T) {
	b := NewScoreBoard()
	_, ok := b.Best()
	assert.False(t, ok)
}

func TestScoreBoardBestAllZero(t *testing.T) {
	b := NewScoreBoard()
	b.Add(map[string]int{"DataAnalyst": 0, "PM": 0})

	_, ok := b.Best()
	assert.False(t, ok, "zero totals must not produce a recommendation")
}

func TestScoreBoardSnapshotRoundTrip(t *testing.T) {
	b := NewScoreBoard()
	b.Add(map[string]int{"BackendDev": 2})
	b.Add(map[string]int{"FrontendDev": 2, "PM": 1})

	restored := Restore(b.Snapshot())
	assert.Equal(t, b.Totals(), restored.Totals())

	origBest, _ := b.Best()
	restoredBest, ok := restored.Best()
	require.True(t, ok)
	assert.Equal(t, origBest, restoredBest)
}

func TestRestoreZeroSnapshot(t *testing.T) {
	b := Restore(Snapshot{})
	_, ok := b.Best()
	assert.False(t, ok)
	b.Add(map[string]int{"PM": 2})
	code, ok := b.Best()
	require.True(t, ok)
	assert.Equal(t, "PM", code)
}
