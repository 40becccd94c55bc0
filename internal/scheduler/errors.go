package scheduler

import "errors"

var (
	// ErrPoolExhausted is returned when every account is suspended and
	// the run cannot make further progress.
	ErrPoolExhausted = errors.New("scheduler: account pool exhausted")

	// ErrRunActive is returned when Seed or Resume is called while a
	// run is still in flight.
	ErrRunActive = errors.New("scheduler: a run is already active")

	// ErrNoSeeds is returned when Seed is called without any entity
	// references.
	ErrNoSeeds = errors.New("scheduler: at least one seed is required")

	// ErrNothingToResume is returned when Resume finds no unfinished
	// entities in the archive.
	ErrNothingToResume = errors.New("scheduler: no unfinished entities to resume")
)
