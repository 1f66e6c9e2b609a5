// Package engine is the façade over the whole simulation core, wiring
// rule/brush/block/adjacency/evolve/scheduler together behind a single
// constructor and call surface that a hosting process drives directly.
package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lifegrid/automaton/adjacency"
	"github.com/lifegrid/automaton/block"
	"github.com/lifegrid/automaton/brush"
	"github.com/lifegrid/automaton/cell"
	"github.com/lifegrid/automaton/evolve"
	"github.com/lifegrid/automaton/internal/obslog"
	"github.com/lifegrid/automaton/rule"
	"github.com/lifegrid/automaton/scheduler"
)

// Engine is the entry point for hosting processes: construct one with
// New, allocate coverage, paint or randomize it, and drive it with
// Start/Step/Stop/Toggle.
type Engine struct {
	sessionID uuid.UUID
	log       *obslog.Logger

	store   *block.Store
	adj     *adjacency.Engine
	evolver *evolve.Evolver
	sched   *scheduler.Scheduler
}

// Options configures a new Engine. BlockWidth and BlockHeight are
// required (>= 2); zero-value Workers, DeadProbability, RuleSet, Logger
// and Rand fall back to defaults (workers=3, dead probability=0.7, the
// Conway rule set, a no-op logger, a time-seeded source).
type Options struct {
	BlockWidth, BlockHeight int
	Workers                 int
	DeadProbability         float64
	RuleSet                 *rule.Set
	Notifier                scheduler.Notifier
	Logger                  *obslog.Logger
	Rand                    *rand.Rand
}

// New constructs an empty engine with no blocks allocated yet. Paint
// creates the blocks it writes to; AllocateTo creates an initial coverage
// centered at the origin.
func New(opts Options) (*Engine, error) {
	if opts.BlockWidth < 2 || opts.BlockHeight < 2 {
		return nil, fmt.Errorf("engine: block dimensions must be >= 2, got %dx%d", opts.BlockWidth, opts.BlockHeight)
	}
	if opts.Workers <= 0 {
		opts.Workers = 3
	}
	if opts.DeadProbability == 0 {
		opts.DeadProbability = 0.7
	}
	if opts.RuleSet == nil {
		opts.RuleSet = rule.Default()
	}
	if opts.Logger == nil {
		opts.Logger = obslog.Nop()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	store := block.New(opts.BlockWidth, opts.BlockHeight)
	lock := &sync.Mutex{}
	adj := adjacency.New(lock)
	evolver := evolve.New(store, adj, opts.RuleSet, opts.DeadProbability, opts.Rand)
	sched := scheduler.New(store, evolver, opts.Workers, opts.Notifier)

	return &Engine{
		sessionID: uuid.New(),
		log:       opts.Logger,
		store:     store,
		adj:       adj,
		evolver:   evolver,
		sched:     sched,
	}, nil
}

// SessionID identifies this engine instance, useful for correlating log
// lines across a long-running process hosting several engines.
func (e *Engine) SessionID() string { return e.sessionID.String() }

// AllocateTo creates initial block coverage of at least minW x minH
// cells, centered at the origin, and returns the actual allocated area.
// Rejected with an error (warn, no-op) unless the simulation is Stopped.
func (e *Engine) AllocateTo(minW, minH int) (block.Rect, error) {
	if minW <= 0 || minH <= 0 {
		return block.Rect{}, fmt.Errorf("engine: allocate size must be positive, got %dx%d", minW, minH)
	}
	if st := e.sched.State(); st != scheduler.Stopped {
		e.log.Warn("engine: rejected allocation while simulation is not stopped")
		return block.Rect{}, fmt.Errorf("engine: allocation rejected, simulation is %s", st)
	}
	e.store.Lock()
	defer e.store.Unlock()
	return e.store.AllocateTo(minW, minH), nil
}

// SetRuleSet atomically swaps the active rule set. Rejected with an error
// (warn, no-op) unless the simulation is Stopped.
func (e *Engine) SetRuleSet(born, survive []int) error {
	if err := e.sched.ReplaceRuleSet(rule.New(born, survive)); err != nil {
		e.log.Warn("engine: rejected rule set replacement while simulation is running")
		return err
	}
	return nil
}

// Paint applies brush b centered at world coordinate (x, y) and returns
// the total live count afterward.
func (e *Engine) Paint(b *brush.Brush, x, y int) int {
	e.store.Lock()
	defer e.store.Unlock()
	e.evolver.Paint(x, y, b)
	return e.evolver.LiveCount()
}

// Randomize randomizes every currently active block and returns the live
// count afterward.
func (e *Engine) Randomize() int {
	e.store.Lock()
	defer e.store.Unlock()
	return e.evolver.Randomize()
}

// Start begins advancing generations asynchronously until Stop is called.
func (e *Engine) Start() { e.sched.Start() }

// Stop halts generation advancement.
func (e *Engine) Stop() { e.sched.Stop() }

// Step synchronously advances exactly one generation, if currently
// Stopped.
func (e *Engine) Step() { e.sched.Step() }

// Toggle flips Running<->Stopped.
func (e *Engine) Toggle() { e.sched.Toggle() }

// SchedulerState reports the scheduler's current state.
func (e *Engine) SchedulerState() scheduler.State { return e.sched.State() }

// Generation returns the number of generations computed so far.
func (e *Engine) Generation() int { return e.sched.Generation() }

// LiveArea returns the tight bounding box of all live cells.
func (e *Engine) LiveArea() (block.Rect, bool) {
	e.store.Lock()
	defer e.store.Unlock()
	return e.evolver.LiveArea()
}

// CellStatus returns the state and age of the cell at (x, y). Age is -1
// for Dead cells.
func (e *Engine) CellStatus(x, y int) (cell.State, int) {
	e.store.Lock()
	defer e.store.Unlock()
	return e.evolver.CellStatus(x, y)
}

// FetchCells returns every registered cell within area; cells outside any
// registered block are omitted and should be treated as Dead by the
// caller.
func (e *Engine) FetchCells(area block.Rect) []block.CellSample {
	e.store.Lock()
	defer e.store.Unlock()
	return e.evolver.FetchCells(area)
}

// LiveCount returns the cached global live cell count.
func (e *Engine) LiveCount() int {
	e.store.Lock()
	defer e.store.Unlock()
	return e.evolver.LiveCount()
}
