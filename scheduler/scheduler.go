// Package scheduler drives generation stepping across a worker pool and
// exposes a Stopped/Running/SingleStep state machine. Each generation
// dispatches one job per active block to a fixed worker pool using a
// sync.WaitGroup plus a semaphore channel to bound concurrency.
package scheduler

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/lifegrid/automaton/block"
	"github.com/lifegrid/automaton/evolve"
	"github.com/lifegrid/automaton/job"
	"github.com/lifegrid/automaton/rule"
)

// State is one of the scheduler's three run states.
type State int

const (
	Stopped State = iota
	Running
	SingleStep
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case SingleStep:
		return "SingleStep"
	default:
		return "Stopped"
	}
}

// Notifier receives the scheduler's two external notifications.
type Notifier interface {
	GenerationComputed(generation int, liveCount int)
	SimulationToggled(running bool)
}

// NopNotifier implements Notifier with no-ops, for callers that don't need
// notifications (e.g. tests).
type NopNotifier struct{}

func (NopNotifier) GenerationComputed(int, int) {}
func (NopNotifier) SimulationToggled(bool)      {}

// Scheduler drives the generation loop over a block.Store via an
// evolve.Evolver, dispatching one tile job per active block to a
// fixed-size worker pool each generation.
type Scheduler struct {
	store    *block.Store
	evolver  *evolve.Evolver
	notifier Notifier
	workers  int

	mu         sync.Mutex // guards state and generation, distinct from the store's world lock
	state      State
	generation int

	running sync.WaitGroup // tracks an in-flight async Start() loop, if any
	cancel  chan struct{}
}

// New returns a Stopped scheduler with the given worker pool size
// (default: 3).
func New(store *block.Store, evolver *evolve.Evolver, workers int, notifier Notifier) *Scheduler {
	if workers < 1 {
		workers = 3
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Scheduler{store: store, evolver: evolver, workers: workers, notifier: notifier}
}

// State returns the scheduler's current state.
func (sch *Scheduler) State() State {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	return sch.state
}

// Generation returns the number of generations computed so far.
func (sch *Scheduler) Generation() int {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	return sch.generation
}

// Start transitions Stopped -> Running and begins advancing generations
// asynchronously. A no-op if already Running or SingleStep.
func (sch *Scheduler) Start() {
	sch.mu.Lock()
	if sch.state != Stopped {
		sch.mu.Unlock()
		return
	}
	sch.state = Running
	sch.cancel = make(chan struct{})
	sch.mu.Unlock()

	sch.notifier.SimulationToggled(true)

	sch.running.Add(1)
	go sch.runLoop()
}

// Stop transitions Running or SingleStep back to Stopped and waits for the
// run loop started by Start to exit; a generation already in flight runs
// to completion first. A no-op if already Stopped.
func (sch *Scheduler) Stop() {
	sch.mu.Lock()
	if sch.state == Stopped {
		sch.mu.Unlock()
		return
	}
	sch.state = Stopped
	if sch.cancel != nil {
		close(sch.cancel)
		sch.cancel = nil
	}
	sch.mu.Unlock()

	sch.running.Wait()
	sch.notifier.SimulationToggled(false)
}

// Toggle flips Running<->Stopped. SingleStep is left untouched (it is a
// transient state that resolves to Stopped on its own).
func (sch *Scheduler) Toggle() {
	sch.mu.Lock()
	state := sch.state
	sch.mu.Unlock()

	switch state {
	case Running:
		sch.Stop()
	case Stopped:
		sch.Start()
	}
}

// Step transitions Stopped -> SingleStep and synchronously advances
// exactly one generation. A no-op if not currently Stopped.
func (sch *Scheduler) Step() {
	sch.mu.Lock()
	if sch.state != Stopped {
		sch.mu.Unlock()
		return
	}
	sch.state = SingleStep
	sch.mu.Unlock()

	sch.runGeneration()
}

// ReplaceRuleSet swaps the active rule set. Rejected (no-op) unless the
// scheduler is Stopped.
func (sch *Scheduler) ReplaceRuleSet(r *rule.Set) error {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	if sch.state != Stopped {
		return errRuleSetRejected
	}
	sch.evolver.SetRuleSet(r)
	return nil
}

func (sch *Scheduler) runLoop() {
	defer sch.running.Done()
	for {
		sch.mu.Lock()
		cancel := sch.cancel
		running := sch.state == Running
		sch.mu.Unlock()
		if !running {
			return
		}

		advanced := sch.runGeneration()
		if !advanced {
			return
		}

		select {
		case <-cancel:
			return
		default:
		}
	}
}

// runGeneration executes the per-generation protocol: build a
// schedule, dispatch it to the worker pool, and finalize. It returns
// whether a generation was actually advanced (false for a closure/empty
// schedule, which stops the simulation).
func (sch *Scheduler) runGeneration() bool {
	sch.store.Lock()
	ids := sch.store.Blocks()
	sch.store.Unlock()

	// Dispatch order is unspecified by the generation-step algorithm, but a
	// stable order makes schedules reproducible across runs for debugging.
	slices.Sort(ids)

	jobs := make([]job.TileJob, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, job.Work(id))
	}
	if len(jobs) == 0 {
		jobs = append(jobs, job.ClosureJob())
	}

	sch.dispatch(jobs)

	if len(jobs) == 1 && jobs[0].Closure {
		sch.mu.Lock()
		sch.state = Stopped
		sch.mu.Unlock()
		sch.notifier.SimulationToggled(false)
		return false
	}

	sch.store.Lock()
	liveCount := sch.evolver.GlobalStep()
	sch.store.Unlock()

	sch.mu.Lock()
	sch.generation++
	gen := sch.generation
	singleStep := sch.state == SingleStep
	sch.mu.Unlock()

	sch.notifier.GenerationComputed(gen, liveCount)

	if singleStep {
		sch.mu.Lock()
		sch.state = Stopped
		sch.mu.Unlock()
	}

	return true
}

// dispatch runs every work job concurrently, bounded by sch.workers, and
// waits for all of them to finish before returning.
func (sch *Scheduler) dispatch(jobs []job.TileJob) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, sch.workers)

	for _, j := range jobs {
		if j.Closure {
			continue
		}
		wg.Add(1)
		semaphore <- struct{}{}
		go func(id int) {
			defer wg.Done()
			defer func() { <-semaphore }()
			sch.evolver.EvolveBlock(id)
		}(j.BlockID)
	}

	wg.Wait()
}

type ruleSetError string

func (e ruleSetError) Error() string { return string(e) }

var errRuleSetRejected = ruleSetError("scheduler: rule set replacement rejected, simulation is running")
