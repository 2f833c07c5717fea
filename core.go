package yosim

import (
	"github.com/db47h/yosim/dut"
	"github.com/pkg/errors"
)

// ErrStalled is returned by Core.Advance when none of the committed triggers
// can ever fire.
//
var ErrStalled = errors.New("no committed trigger can fire")

// Core is the capability surface of a simulation core.
//
// Simulated time is counted in base units (picoseconds). Time advances in
// steps of the precision scale set with SetPrecision.
//
// A Core is not safe for concurrent use. Advance must be atomic with respect
// to all signal changes it causes.
//
type Core interface {
	dut.Backend

	// Time returns the current simulated time in base units.
	Time() uint64
	// SetPrecision sets the length of a time step, in base units.
	SetPrecision(scale uint64)

	// AddTask registers a task and returns its slot.
	AddTask() int
	// Commit records that task is waiting on t. Timer arguments are in
	// base units. Committing replaces any previous trigger of the task.
	Commit(task int, t Trigger)
	// Fired reports whether the trigger committed by task has fired since
	// it was committed.
	Fired(task int) bool
	// Advance evaluates the design and advances simulated time until at
	// least one committed trigger fires.
	Advance() error
	// ClearTasks unregisters all tasks.
	ClearTasks()
}
