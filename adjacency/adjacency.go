// Package adjacency implements the live-neighbor count cache and its
// incremental maintenance. Grounded on the bump/fan-out
// pattern in original_source/src/CellsBlocks.cc's updateAdjacency, and on
// the block package's flat arenas and compass linkage.
package adjacency

import (
	"sync"

	"github.com/lifegrid/automaton/block"
)

// Bucket selects which adjacency array a Bump call targets.
type Bucket int

const (
	Current Bucket = iota
	Next
)

// Engine mutates block.Store's adjacency/next_adjacency arrays in response
// to cell transitions, fanning a bump out to the eight Moore neighbors of
// the target cell, including across block boundaries.
type Engine struct {
	mu *sync.Mutex
}

// New returns an adjacency engine sharing the given lock, which must be
// distinct from the world lock.
func New(lock *sync.Mutex) *Engine {
	return &Engine{mu: lock}
}

// offsets are the eight Moore neighbor displacements in cell space.
var offsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0} /*      */, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// isBorder reports whether (lx, ly) lies on the outer two-cell ring of a
// w x h block: a cell on the edge has Moore neighbors in other blocks, and
// a cell one step in writes edge cells that a neighboring block's border
// bumps also write, so both kinds of fan-out run under the lock.
func isBorder(lx, ly, w, h int) bool {
	return lx <= 1 || ly <= 1 || lx >= w-2 || ly >= h-2
}

// Bump applies delta to the given bucket of every Moore neighbor of the
// cell at global coordinate (x, y), which lives in block b. Cells at least
// two cells in from every edge of b touch only cells that no other block's
// bump reaches and take no lock; cells on the outer two-cell ring acquire
// the shared adjacency lock for the duration of the fan-out.
func (e *Engine) Bump(s *block.Store, b block.Block, x, y, delta int, bucket Bucket) {
	lw, lh := b.Area.Width(), b.Area.Height()
	lx, ly := x-b.Area.MinX, y-b.Area.MinY

	if !isBorder(lx, ly, lw, lh) {
		e.applyInterior(s, b, x, y, delta, bucket)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyBorder(s, b, x, y, delta, bucket)
}

func (e *Engine) applyInterior(s *block.Store, b block.Block, x, y, delta int, bucket Bucket) {
	for _, off := range offsets {
		nx, ny := x+off[0], y+off[1]
		idx := block.IndexFromCoord(b, nx, ny)
		addDelta(s, idx, delta, bucket)
	}
}

func (e *Engine) applyBorder(s *block.Store, b block.Block, x, y, delta int, bucket Bucket) {
	for _, off := range offsets {
		nx, ny := x+off[0], y+off[1]
		if b.Area.Contains(nx, ny) {
			idx := block.IndexFromCoord(b, nx, ny)
			addDelta(s, idx, delta, bucket)
			continue
		}

		nb, ok := s.FindBlockAt(nx, ny)
		if !ok {
			// Neighbor block isn't allocated; halo expansion guarantees this
			// cannot happen for any live cell at the start of a step, but a
			// mid-paint target may still be unallocated until paint creates it.
			continue
		}
		nblock, _ := s.Block(nb)
		idx := block.IndexFromCoord(nblock, nx, ny)
		addDelta(s, idx, delta, bucket)
	}
}

func addDelta(s *block.Store, idx, delta int, bucket Bucket) {
	if bucket == Current {
		s.Adjacency[idx] += delta
	} else {
		s.NextAdjacency[idx] += delta
	}
}
