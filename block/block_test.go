package block

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifegrid/automaton/cell"
)

func TestAllocateTo_CoversRequestedSize(t *testing.T) {
	s := New(4, 4)
	area := s.AllocateTo(10, 6)

	assert.GreaterOrEqual(t, area.Width(), 10)
	assert.GreaterOrEqual(t, area.Height(), 6)
	assert.Equal(t, 0, area.Width()%4)
	assert.Equal(t, 0, area.Height()%4)
	assert.True(t, s.BlockCount() > 0)
}

func TestRegisterBlock_LinksReciprocalNeighbors(t *testing.T) {
	s := New(4, 4)

	west := s.RegisterBlock(Rect{MinX: -4, MinY: 0, MaxX: 0, MaxY: 4})
	east := s.RegisterBlock(Rect{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4})

	wb, ok := s.Block(west)
	require.True(t, ok)
	eb, ok := s.Block(east)
	require.True(t, ok)

	assert.Equal(t, east, wb.Neighbor(dirEast))
	assert.Equal(t, west, eb.Neighbor(dirWest))
}

func TestDestroyBlock_DetachesAndRecyclesSlot(t *testing.T) {
	s := New(4, 4)

	west := s.RegisterBlock(Rect{MinX: -4, MinY: 0, MaxX: 0, MaxY: 4})
	east := s.RegisterBlock(Rect{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4})

	ok := s.DestroyBlock(west)
	assert.True(t, ok)
	assert.False(t, s.DestroyBlock(west))

	eb, found := s.Block(east)
	require.True(t, found)
	assert.Equal(t, -1, eb.Neighbor(dirWest))

	reused := s.RegisterBlock(Rect{MinX: -8, MinY: 0, MaxX: -4, MaxY: 4})
	assert.Equal(t, west, reused, "destroyed slot should be recycled")
}

func TestFindBlock_OnlyMatchesExactArea(t *testing.T) {
	s := New(4, 4)
	area := Rect{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4}
	id := s.RegisterBlock(area)

	found, ok := s.FindBlock(area)
	require.True(t, ok)
	assert.Equal(t, id, found)

	_, ok = s.FindBlock(Rect{MinX: 1, MinY: 1, MaxX: 5, MaxY: 5})
	assert.False(t, ok)
}

func TestCellStatus_OutsideAnyBlockIsDeadWithNegativeAge(t *testing.T) {
	s := New(4, 4)
	s.RegisterBlock(Rect{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4})

	st, age := s.CellStatus(100, 100)
	assert.Equal(t, cell.Dead, st)
	assert.Equal(t, -1, age)
}

func TestCellStatus_InsideBlockDefaultsToDead(t *testing.T) {
	s := New(4, 4)
	s.RegisterBlock(Rect{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4})

	st, age := s.CellStatus(1, 1)
	assert.Equal(t, cell.Dead, st)
	assert.Equal(t, -1, age)
}

func TestRandomize_HonorsDeadProbabilityExtremes(t *testing.T) {
	s := New(4, 4)
	s.RegisterBlock(Rect{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4})

	rng := rand.New(rand.NewSource(1))
	n := s.Randomize(0.0, rng)
	assert.Equal(t, 16, n)
	assert.Equal(t, 16, s.LiveCount())

	n = s.Randomize(1.0, rng)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, s.LiveCount())
	_, hasLive := s.LiveArea()
	assert.False(t, hasLive)
}

func TestFetchCells_OmitsUnregisteredCoordinates(t *testing.T) {
	s := New(4, 4)
	s.RegisterBlock(Rect{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4})

	samples := s.FetchCells(Rect{MinX: -2, MinY: -2, MaxX: 2, MaxY: 2}, nil)

	for _, smp := range samples {
		assert.True(t, smp.X >= 0 && smp.Y >= 0, "no samples outside the registered block")
	}
	assert.Len(t, samples, 4) // the (0,0)-(2,2) quadrant intersecting the block
}

func TestStats_TracksActiveFreeAndArenaCounts(t *testing.T) {
	s := New(4, 4)
	west := s.RegisterBlock(Rect{MinX: -4, MinY: 0, MaxX: 0, MaxY: 4})
	s.RegisterBlock(Rect{MinX: 0, MinY: 0, MaxX: 4, MaxY: 4})

	stats := s.Stats()
	assert.Equal(t, 2, stats.ActiveBlocks)
	assert.Equal(t, 0, stats.FreeSlots)
	assert.Equal(t, 32, stats.ArenaCells)

	s.DestroyBlock(west)
	stats = s.Stats()
	assert.Equal(t, 1, stats.ActiveBlocks)
	assert.Equal(t, 1, stats.FreeSlots)
	assert.Equal(t, 32, stats.ArenaCells)
}

func TestHashCoordinate_IsInjectiveForSmallGrid(t *testing.T) {
	seen := make(map[int]struct{})
	for x := -8; x <= 8; x++ {
		for y := -8; y <= 8; y++ {
			h := hashCoordinate(x, y)
			_, dup := seen[h]
			assert.False(t, dup, "collision at (%d,%d)", x, y)
			seen[h] = struct{}{}
		}
	}
}
