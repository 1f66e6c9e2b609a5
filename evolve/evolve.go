// Package evolve implements the per-block and global-step generation
// algorithm: still-life short-circuiting, the global
// buffer swap/age/reclaim/halo-expansion pipeline, brush painting, and the
// randomize and read-query operations. Grounded on the stepPrivate /
// evolve / paint / makeRandom methods of
// original_source/src/CellsBlocks.cc, adapted onto the block.Store arena
// and adjacency.Engine bump discipline.
package evolve

import (
	"math/rand"

	"github.com/lifegrid/automaton/adjacency"
	"github.com/lifegrid/automaton/block"
	"github.com/lifegrid/automaton/brush"
	"github.com/lifegrid/automaton/cell"
	"github.com/lifegrid/automaton/rule"
)

// Evolver drives generation updates over a block.Store, using an
// adjacency.Engine for cross-block bump fan-out and a rule.Set for
// birth/survival decisions.
type Evolver struct {
	store *block.Store
	adj   *adjacency.Engine
	rules *rule.Set
	rng   *rand.Rand

	deadProbability float64
}

// New returns an Evolver over store, bumping adjacency through adj and
// deciding transitions with rules. deadProbability is the chance that
// Randomize leaves a given cell Dead; rng is the source it draws from.
func New(store *block.Store, adj *adjacency.Engine, rules *rule.Set, deadProbability float64, rng *rand.Rand) *Evolver {
	return &Evolver{store: store, adj: adj, rules: rules, deadProbability: deadProbability, rng: rng}
}

// SetRuleSet replaces the active rule set. Callers (the scheduler) must
// ensure the simulation is Stopped before calling this.
func (e *Evolver) SetRuleSet(r *rule.Set) { e.rules = r }

// EvolveBlock performs the per-block evolution step for id. It writes
// only to next_state/next_adjacency and the block's
// NAlive counter, so it is safe to call concurrently for distinct block
// ids without holding the world lock, provided no other goroutine is
// mutating the store's topology concurrently.
func (e *Evolver) EvolveBlock(id int) {
	b := e.store.BlockRef(id)
	if b == nil {
		return
	}

	if b.StillLife() {
		e.copyStillLife(*b)
		b.NAlive = b.Alive
		return
	}

	area := b.Area
	nAlive := 0
	for y := area.MinY; y < area.MaxY; y++ {
		for x := area.MinX; x < area.MaxX; x++ {
			idx := block.IndexFromCoord(*b, x, y)
			s := e.store.State[idx]
			n := e.store.Adjacency[idx]

			var next cell.State
			if s == cell.Alive {
				if e.rules.Survives(n) {
					next = cell.Alive
				} else {
					next = cell.Dead
				}
			} else {
				if e.rules.IsBorn(n) {
					next = cell.Alive
				} else {
					next = cell.Dead
				}
			}

			e.store.NextState[idx] = next
			if next == cell.Alive {
				nAlive++
				e.adj.Bump(e.store, *b, x, y, 1, adjacency.Next)
			}
		}
	}

	b.NAlive = nAlive
}

func (e *Evolver) copyStillLife(b block.Block) {
	area := b.Area
	for y := area.MinY; y < area.MaxY; y++ {
		for x := area.MinX; x < area.MaxX; x++ {
			idx := block.IndexFromCoord(b, x, y)
			s := e.store.State[idx]
			e.store.NextState[idx] = s
			if s == cell.Alive {
				e.adj.Bump(e.store, b, x, y, 1, adjacency.Next)
			}
		}
	}
}

// GlobalStep finalizes a generation once every block's EvolveBlock has
// run: swaps state/next_state, updates age, computes each block's changed
// count, swaps adjacency/next_adjacency, reclaims empty blocks, recomputes
// live_area, and expands halos. Callers must hold the world
// lock. Returns the new global live cell count.
func (e *Evolver) GlobalStep() int {
	s := e.store
	ids := s.Blocks()

	s.State, s.NextState = s.NextState, s.State

	for _, id := range ids {
		b := s.BlockRef(id)
		for y := b.Area.MinY; y < b.Area.MaxY; y++ {
			for x := b.Area.MinX; x < b.Area.MaxX; x++ {
				idx := block.IndexFromCoord(*b, x, y)
				if s.State[idx] == cell.Alive {
					s.Age[idx]++
				} else {
					s.Age[idx] = 0
				}
			}
		}
	}

	for _, id := range ids {
		b := s.BlockRef(id)
		changed := 0
		for i := b.Start; i < b.End; i++ {
			if s.Adjacency[i] != s.NextAdjacency[i] {
				changed++
			}
		}
		b.Changed = changed
	}

	s.Adjacency, s.NextAdjacency = s.NextAdjacency, s.Adjacency
	for i := range s.NextAdjacency {
		s.NextAdjacency[i] = 0
	}

	total := 0
	for _, id := range ids {
		b := s.BlockRef(id)
		b.PrevAlive = b.Alive
		b.Alive = b.NAlive
		total += b.Alive
	}
	s.SetLiveCount(total)

	e.reclaimEmptyBlocks(ids)

	s.RecomputeLiveArea()

	for _, id := range s.Blocks() {
		b := s.BlockRef(id)
		if b != nil && b.Alive > 0 {
			s.EnsureHalo(id)
		}
	}

	return total
}

func (e *Evolver) reclaimEmptyBlocks(ids []int) {
	s := e.store
	for _, id := range ids {
		b := s.BlockRef(id)
		if b == nil || b.Alive != 0 {
			continue
		}
		allZero := true
		for i := b.Start; i < b.End; i++ {
			if s.Adjacency[i] != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			s.DestroyBlock(id)
		}
	}
}

// Paint applies brush b at world coordinate (cx, cy), treating (cx, cy) as
// the brush's logical center. It creates blocks (and their
// halos) as needed to accommodate cells the brush sets to a state
// different from the current one.
func (e *Evolver) Paint(cx, cy int, b *brush.Brush) {
	s := e.store
	w, h := b.Width(), b.Height()
	originX := cx - w/2
	originY := cy - h/2

	touched := make(map[int]struct{})
	liveDelta := 0

	for ly := 0; ly < h; ly++ {
		for lx := 0; lx < w; lx++ {
			x := originX + lx
			y := originY + ly
			target := b.StateAt(lx, ly)

			id, ok := s.FindBlockAt(x, y)
			if !ok {
				if target == cell.Dead {
					// An unallocated cell is already Dead.
					continue
				}
				id = s.RegisterBlock(ownerArea(s, x, y))
			}
			s.EnsureHalo(id)
			touched[id] = struct{}{}

			bd := s.BlockRef(id)
			idx := block.IndexFromCoord(*bd, x, y)
			current := s.State[idx]
			if current == target {
				continue
			}

			if target == cell.Alive {
				s.State[idx] = cell.Alive
				s.Age[idx] = 1
				bd.Alive++
				liveDelta++
				e.adj.Bump(s, *bd, x, y, 1, adjacency.Current)
			} else {
				s.State[idx] = cell.Dead
				s.Age[idx] = 0
				bd.Alive--
				liveDelta--
				e.adj.Bump(s, *bd, x, y, -1, adjacency.Current)
			}
			bd.Changed++
		}
	}

	s.SetLiveCount(s.LiveCount() + liveDelta)

	ids := make([]int, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	e.reclaimEmptyBlocks(ids)
	s.RecomputeLiveArea()

	for _, id := range s.Blocks() {
		bd := s.BlockRef(id)
		if bd != nil && bd.Alive > 0 {
			s.EnsureHalo(id)
		}
	}
}

func ownerArea(s *block.Store, x, y int) block.Rect {
	bw, bh := s.BlockSize()
	bx := floorDiv(x, bw)
	by := floorDiv(y, bh)
	return block.Rect{
		MinX: bx * bw, MinY: by * bh,
		MaxX: (bx + 1) * bw, MaxY: (by + 1) * bh,
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Randomize assigns each currently active block's cells a random state
// ensures halos first, writes into the next-generation
// buffers, then invokes GlobalStep so the world is consistent again. It
// returns the live count after the step.
func (e *Evolver) Randomize() int {
	s := e.store
	ids := s.Blocks()

	for _, id := range ids {
		s.EnsureHalo(id)
	}

	for _, id := range ids {
		b := s.BlockRef(id)
		alive := 0
		for i := b.Start; i < b.End; i++ {
			s.Age[i] = 0
		}
		for y := b.Area.MinY; y < b.Area.MaxY; y++ {
			for x := b.Area.MinX; x < b.Area.MaxX; x++ {
				idx := block.IndexFromCoord(*b, x, y)
				if e.rng.Float64() > e.deadProbability {
					s.NextState[idx] = cell.Alive
					alive++
					e.adj.Bump(s, *b, x, y, 1, adjacency.Next)
				} else {
					s.NextState[idx] = cell.Dead
				}
			}
		}
		b.NAlive = alive
	}

	return e.GlobalStep()
}

// LiveArea returns the world's cached live bounding box.
func (e *Evolver) LiveArea() (block.Rect, bool) { return e.store.LiveArea() }

// CellStatus returns the state and age of the cell at (x, y).
func (e *Evolver) CellStatus(x, y int) (cell.State, int) { return e.store.CellStatus(x, y) }

// FetchCells returns every registered cell within area.
func (e *Evolver) FetchCells(area block.Rect) []block.CellSample {
	return e.store.FetchCells(area, nil)
}

// LiveCount returns the current global live cell count.
func (e *Evolver) LiveCount() int { return e.store.LiveCount() }
