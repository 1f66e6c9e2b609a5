package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifegrid/automaton/block"
	"github.com/lifegrid/automaton/brush"
	"github.com/lifegrid/automaton/cell"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Options{
		BlockWidth:      4,
		BlockHeight:     4,
		Workers:         2,
		DeadProbability: 0.7,
		Rand:            rand.New(rand.NewSource(42)),
	})
	require.NoError(t, err)
	return e
}

func TestNew_RejectsUndersizedBlocks(t *testing.T) {
	_, err := New(Options{BlockWidth: 1, BlockHeight: 4})
	assert.Error(t, err)
}

func TestAllocateTo_CoversRequestedArea(t *testing.T) {
	e := newTestEngine(t)
	area, err := e.AllocateTo(16, 16)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, area.Width(), 16)
	assert.GreaterOrEqual(t, area.Height(), 16)
}

func TestPaintAndStep_Blinker(t *testing.T) {
	e := newTestEngine(t)
	live, err := brush.NewMonotonic(1, 1, cell.Alive)
	require.NoError(t, err)

	e.Paint(live, 0, 0)
	e.Paint(live, 1, 0)
	n := e.Paint(live, 2, 0)
	assert.Equal(t, 3, n)

	e.Step()
	assert.Equal(t, 1, e.Generation())
	assert.Equal(t, 3, e.LiveCount())

	st, age := e.CellStatus(1, -1)
	assert.Equal(t, cell.Alive, st)
	assert.Equal(t, 1, age)
}

func TestSetRuleSet_RejectedWhileRunning(t *testing.T) {
	e := newTestEngine(t)
	live, err := brush.NewMonotonic(1, 1, cell.Alive)
	require.NoError(t, err)
	e.Paint(live, 0, 0)

	e.Start()
	defer e.Stop()

	err = e.SetRuleSet([]int{1}, []int{1, 2})
	assert.Error(t, err)
}

func TestRandomize_ProducesLiveCells(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AllocateTo(8, 8)
	require.NoError(t, err)

	n := e.Randomize()
	assert.Equal(t, n, e.LiveCount())
}

func TestFetchCells_OmitsCellsOutsideAnyBlock(t *testing.T) {
	e := newTestEngine(t)
	live, err := brush.NewMonotonic(1, 1, cell.Alive)
	require.NoError(t, err)
	e.Paint(live, 0, 0)

	samples := e.FetchCells(block.Rect{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100})
	for _, smp := range samples {
		if smp.X == 0 && smp.Y == 0 {
			assert.Equal(t, cell.Alive, smp.State)
		}
	}
	assert.NotEmpty(t, samples)
}
