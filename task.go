package yosim

import (
	"iter"
	"log/slog"

	"github.com/db47h/yosim/dut"
	"github.com/pkg/errors"
)

// ErrStopped is returned by Ctx.Wait once the run the task belongs to has
// ended. Procedures must return when they get it.
//
var ErrStopped = errors.New("simulation stopped")

// Func is a testbench procedure. It suspends by calling one of the wait
// methods of c and finishes by returning. Once a wait method returns
// ErrStopped the procedure must return without waiting again: the end of a
// run blocks until every abandoned procedure has returned.
//
type Func func(c *Ctx) error

// A Task is a resumable computation: a Func together with the trigger it is
// suspended on.
//
type Task struct {
	name string
	fn   Func

	next func() (Trigger, bool)
	stop func()

	slot    int     // core task slot
	pending Trigger // trigger the task is suspended on
	waiting bool    // pending is valid
	old     uint64  // signal value when pending was committed, for edges

	resumes int
	done    bool
	err     error
}

// NewTask returns a new task running fn. name is used in log messages.
//
func NewTask(name string, fn Func) *Task {
	return &Task{name: name, fn: fn, slot: -1}
}

// Name returns the task name.
//
func (t *Task) Name() string { return t.name }

// Done reports whether the task has returned.
//
func (t *Task) Done() bool { return t.done }

// Err returns the error returned by the task's procedure.
//
func (t *Task) Err() error { return t.err }

// Resumes returns the number of times the task has been resumed.
//
func (t *Task) Resumes() int { return t.resumes }

// resume runs t until it waits on a trigger or returns. ok is false once the
// task has returned.
func (t *Task) resume(s *Simulator) (tr Trigger, ok bool) {
	if t.done {
		return Trigger{}, false
	}
	if t.next == nil {
		c := &Ctx{s: s, t: t}
		t.next, t.stop = iter.Pull(iter.Seq[Trigger](func(yield func(Trigger) bool) {
			c.yield = yield
			t.err = t.fn(c)
		}))
	}
	t.resumes++
	tr, ok = t.next()
	if !ok {
		t.done = true
		t.waiting = false
	}
	return tr, ok
}

// abandon unwinds a suspended task. Its pending Wait returns ErrStopped.
func (t *Task) abandon() {
	if t.stop != nil {
		t.stop()
	}
	t.waiting = false
}

// Ctx is the view a running procedure has of its simulator.
//
type Ctx struct {
	s     *Simulator
	t     *Task
	yield func(Trigger) bool
}

// Wait suspends the calling procedure until tr fires.
//
func (c *Ctx) Wait(tr Trigger) error {
	if !c.yield(tr) {
		return ErrStopped
	}
	return nil
}

// Timer waits for d time steps.
//
func (c *Ctx) Timer(d uint64) error { return c.Wait(Timer(d)) }

// Edge waits for any change of s.
//
func (c *Ctx) Edge(s *dut.Signal) error { return c.Wait(Edge(s.ID())) }

// RisingEdge waits for s to go from zero to non-zero.
//
func (c *Ctx) RisingEdge(s *dut.Signal) error { return c.Wait(RisingEdge(s.ID())) }

// FallingEdge waits for s to go from non-zero to zero.
//
func (c *Ctx) FallingEdge(s *dut.Signal) error { return c.Wait(FallingEdge(s.ID())) }

// Fork starts t as a child task.
//
func (c *Ctx) Fork(t *Task) *Task { return c.s.Fork(t) }

// Join waits until t has returned. It polls once per round.
//
func (c *Ctx) Join(t *Task) error {
	for c.s.active(t) {
		if err := c.Wait(Other()); err != nil {
			return err
		}
	}
	return nil
}

// Time returns the current simulated time in base units.
//
func (c *Ctx) Time() uint64 { return c.s.Time() }

// Dut returns the root module of the design.
//
func (c *Ctx) Dut() *dut.Module { return c.s.dut }

// Task returns the running task.
//
func (c *Ctx) Task() *Task { return c.t }

// Logger returns the simulator's logger with the task name attached.
//
func (c *Ctx) Logger() *slog.Logger { return c.s.log.With("task", c.t.name) }

// Clock returns a procedure that toggles s every half period, forever. The
// period is in time steps and is rounded down to an even number.
//
func Clock(s *dut.Signal, period uint64) Func {
	half := period / 2
	if half == 0 {
		half = 1
	}
	return func(c *Ctx) error {
		for {
			if err := c.Timer(half); err != nil {
				return err
			}
			s.Set(s.Value() ^ 1)
		}
	}
}
