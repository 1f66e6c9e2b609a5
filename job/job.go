// Package job defines the scheduler's unit of work: a
// tile job wrapping either a block id to evolve, or a closure sentinel
// signaling an empty schedule.
package job

// TileJob is either work (a block id to evolve) or a closure sentinel.
type TileJob struct {
	BlockID int
	Closure bool
}

// Work returns a job carrying the given block id.
func Work(blockID int) TileJob {
	return TileJob{BlockID: blockID}
}

// ClosureJob returns the sentinel job used when a schedule has no active
// blocks to evolve.
func ClosureJob() TileJob {
	return TileJob{Closure: true}
}
